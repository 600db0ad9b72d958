package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docsearch/internal/config"
	"docsearch/internal/coordinator"
	"docsearch/internal/eventbus"
	"docsearch/internal/logger"
	"docsearch/internal/source"
)

func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.NewConfigServiceAt(c.String("config")).Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger logs to the configured file when toFile is set, otherwise to stderr
func newLogger(c *cli.Command, cfg *config.Config, toFile bool) (*zap.Logger, error) {
	level := cfg.LogLevel
	if c.Bool("debug") {
		level = "debug"
	}
	path := ""
	if toFile {
		path = cfg.LogFile
	}
	l, err := logger.New(path, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return l, nil
}

func newCoordinator(cfg *config.Config, descs []source.Descriptor, log *zap.Logger, bus eventbus.EventBus) (*coordinator.Coordinator, error) {
	opts := []coordinator.Option{
		coordinator.WithDelay(cfg.Debounce.Duration),
		coordinator.WithFetchTimeout(cfg.FetchTimeout.Duration),
		coordinator.WithLogger(log),
	}
	if bus != nil {
		opts = append(opts, coordinator.WithBus(bus))
	}
	coord, err := coordinator.New(descs, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}
	return coord, nil
}

func output(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return io.Discard
}
