package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
)

func selectFormat(cfg *coreconfig.Config) logFormat {
	if cfg == nil {
		return formatJSON
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "kv", "text":
		return formatKV
	case "pretty", "color", "tint":
		return formatPretty
	case "json":
		return formatJSON
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Profile)) {
	case "dev":
		return formatPretty
	case "debug":
		return formatKV
	}
	return formatJSON
}

// selectKeyOrder reads logging.keys_order as a comma-separated key list.
func selectKeyOrder(cfg *coreconfig.Config) []string {
	var order []string
	if cfg != nil && strings.TrimSpace(cfg.Logging.KeysOrder) != "default" {
		for _, k := range strings.Split(cfg.Logging.KeysOrder, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

func selectLevel(cfg *coreconfig.Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func selectProfile(cfg *coreconfig.Config) string {
	if cfg == nil {
		return ""
	}
	if profile := strings.TrimSpace(cfg.Logging.Profile); profile != "" {
		return strings.ToLower(profile)
	}
	return "prod"
}

// parseDebugSample returns the debug sampling ratio; 1/50 unless configured.
// An explicit "0" disables sampling.
func parseDebugSample(cfg *coreconfig.Config) (int, int) {
	if cfg == nil || strings.TrimSpace(cfg.Logging.DebugSample) == "" {
		return 1, 50
	}
	spec := strings.TrimSpace(cfg.Logging.DebugSample)
	num, den := parseRatioSpec(spec)
	if num > 0 && den > 0 {
		return num, den
	}
	if spec == "0" {
		return 0, 0
	}
	return 1, 50
}

func detectTraceFlag() bool {
	return isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// buildOutputs returns stdout plus the optional log file. A file that cannot
// be opened is reported and skipped.
func buildOutputs(cfg *coreconfig.Config) ([]io.Writer, []io.Closer) {
	writers := []io.Writer{os.Stdout}
	if cfg == nil {
		return writers, nil
	}
	dir := strings.TrimSpace(cfg.Logging.Dir)
	file := strings.TrimSpace(cfg.Logging.BotFile)
	if dir == "" || file == "" {
		return writers, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create log dir %s: %v", dir, err)
		return writers, nil
	}
	path := filepath.Join(dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open log file %s: %v", path, err)
		return writers, nil
	}
	return append(writers, f), []io.Closer{f}
}

// buildFluentSink connects the optional Fluent Bit forwarder. The client
// connects lazily, so a nil error does not mean the collector is reachable.
func buildFluentSink(cfg *coreconfig.Config) (*fluent.Fluent, error) {
	if cfg == nil || !cfg.Logging.Fluent.Enabled {
		return nil, nil
	}
	fc := cfg.Logging.Fluent
	client, err := fluent.New(fluent.Config{
		FluentHost: fc.Host,
		FluentPort: fc.Port,
		TagPrefix:  fc.TagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("fluent client: %w", err)
	}
	return client, nil
}
