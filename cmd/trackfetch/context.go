package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jpp0ca/TrackFetch/internal/bootstrap"
	"github.com/jpp0ca/TrackFetch/internal/config"
	"github.com/jpp0ca/TrackFetch/internal/logging"
)

type commandContext struct {
	logLevel  *string
	logFormat *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(logLevel, logFormat *string) *commandContext {
	return &commandContext{
		logLevel:  logLevel,
		logFormat: logFormat,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(*c.logLevel); v != "" {
			cfg.LogLevel = v
		}
		if v := strings.TrimSpace(*c.logFormat); v != "" {
			cfg.LogFormat = v
		}
		logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// withRuntime builds the service for one command and releases it afterwards.
func (c *commandContext) withRuntime(cmd *cobra.Command, opts bootstrap.Options, fn func(context.Context, *bootstrap.Runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.Build(ctx, cfg, c.logger, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			c.logger.Warn("failed to close run store", "error", closeErr)
		}
	}()
	return fn(ctx, rt)
}
