package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docsearch/internal/metrics"
	"docsearch/internal/server"
	"docsearch/internal/source/sqliteindex"
)

// ServeCommand creates the search API server command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the configured indexes over the search API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c)
		},
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := newLogger(c, cfg, false)
	if err != nil {
		return err
	}
	defer log.Sync()

	indexes := make(map[string]server.Searcher, len(cfg.Server.Indexes))
	for name, path := range cfg.Server.Indexes {
		ix, err := sqliteindex.Open(path, name)
		if err != nil {
			return err
		}
		defer func() {
			if err := ix.Close(); err != nil {
				log.Warn("closing index", zap.String("index", name), zap.Error(err))
			}
		}()
		indexes[name] = ix
		log.Info("index opened", zap.String("index", name), zap.String("path", path))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := c.String("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := server.New(indexes, server.WithLogger(log), server.WithMetrics(m, reg))
	return srv.Run(ctx, addr)
}
