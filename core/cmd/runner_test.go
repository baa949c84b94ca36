package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	coreconfig "github.com/12farit21/nosql-telegram-bot/core/config"
	coretelegram "github.com/12farit21/nosql-telegram-bot/core/telegram"
)

func TestRunGroupStopsWorkersWhenMainReturns(t *testing.T) {
	defer goleak.VerifyNone(t)

	stopped := make(chan struct{})
	worker := Worker{Name: "janitor", Run: func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	}}

	err := runGroup(context.Background(), func(context.Context) error { return nil }, []Worker{worker})
	require.NoError(t, err)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker not stopped")
	}
}

func TestRunGroupWorkerFailureStopsMain(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	worker := Worker{Name: "health", Run: func(context.Context) error { return boom }}

	err := runGroup(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}, []Worker{worker})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "worker health")
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("REALTY_CONFIG", "/etc/env.yaml")

	assert.Equal(t, "/etc/flag.yaml", ResolveConfigPath(Options{
		ConfigPath:        "/etc/flag.yaml",
		ConfigEnvVar:      "REALTY_CONFIG",
		DefaultConfigPath: "config.yaml",
	}))
	assert.Equal(t, "/etc/env.yaml", ResolveConfigPath(Options{
		ConfigEnvVar:      "REALTY_CONFIG",
		DefaultConfigPath: "config.yaml",
	}))

	t.Setenv("REALTY_CONFIG", "")
	assert.Equal(t, "config.yaml", ResolveConfigPath(Options{
		ConfigEnvVar:      "REALTY_CONFIG",
		DefaultConfigPath: "config.yaml",
	}))
}

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

func TestLoadConfig(t *testing.T) {
	t.Setenv("REALTY_CONFIG", "")

	var gotPath string
	cfg, err := loadConfig(Options{
		ConfigPath: "bot.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, cfg.CoreConfig())
	assert.Equal(t, "bot.yaml", gotPath)

	_, err = loadConfig(Options{LoadConfig: func(string) (ConfigCarrier, error) {
		return carrier{}, nil
	}})
	assert.ErrorContains(t, err, "no core section")

	boom := errors.New("boom")
	_, err = loadConfig(Options{LoadConfig: func(string) (ConfigCarrier, error) {
		return nil, boom
	}})
	assert.ErrorIs(t, err, boom)
}

func TestRunRequiresHooks(t *testing.T) {
	assert.Error(t, Run(Options{}))
}

func TestAnnounceChainsHooks(t *testing.T) {
	var calls []string
	opts := coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			calls = append(calls, "start")
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			calls = append(calls, "stop")
			return nil
		},
	}
	announce(&opts, time.Now())

	require.NoError(t, opts.OnStart(context.Background(), coretelegram.Runtime{}))
	require.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
	assert.Equal(t, []string{"start", "stop"}, calls)

	boom := errors.New("boom")
	failing := coretelegram.RunOptions{OnStart: func(context.Context, coretelegram.Runtime) error { return boom }}
	announce(&failing, time.Now())
	assert.ErrorIs(t, failing.OnStart(context.Background(), coretelegram.Runtime{}), boom)

	empty := coretelegram.RunOptions{}
	announce(&empty, time.Now())
	assert.NoError(t, empty.OnStop(context.Background(), coretelegram.Runtime{}))
}
