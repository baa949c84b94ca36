// Command realtybot runs the real-estate listings Telegram bot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/12farit21/nosql-telegram-bot/core/buildinfo"
	corecmd "github.com/12farit21/nosql-telegram-bot/core/cmd"
	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	"github.com/12farit21/nosql-telegram-bot/internal/app"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = ""
)

var configPath string

// rootCmd runs the bot until SIGINT or SIGTERM.
var rootCmd = &cobra.Command{
	Use:           "realtybot",
	Short:         "Real-estate listings Telegram bot",
	Version:       version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return corecmd.Run(runOptions())
	},
}

func version() string {
	v, commit, _ := buildinfo.Resolve()
	return fmt.Sprintf("%s (%s)", v, commit)
}

func runOptions() corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return coreconfig.Load(path)
		},
		Bootstrap: app.Bootstrap,
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set "+configEnvVar+")")
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
