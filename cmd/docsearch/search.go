package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docsearch/internal/eventbus"
	"docsearch/internal/metrics"
	"docsearch/internal/server"
	"docsearch/internal/ui"
)

// SearchCommand creates the interactive search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Open the interactive search",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the chosen page in the browser",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address while searching",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runSearch(ctx, c, c.Bool("open"), c.String("metrics-addr"))
		},
	}
}

func runSearch(ctx context.Context, c *cli.Command, open bool, metricsAddr string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := newLogger(c, cfg, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	bus := eventbus.New(log)
	defer bus.Close()

	descs, closeSources, err := openSources(cfg, log)
	if err != nil {
		return err
	}
	defer closeSources()

	coord, err := newCoordinator(cfg, descs, log, bus)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		unsubscribe := m.Subscribe(bus)
		defer unsubscribe()

		srv := server.New(nil, server.WithLogger(log), server.WithMetrics(m, reg))
		go func() {
			if err := srv.Run(ctx, metricsAddr); err != nil {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	model := ui.NewModel(coord,
		ui.WithBus(bus),
		ui.WithLogger(log),
		ui.WithQuery(strings.Join(c.Args().Slice(), " ")),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running search: %w", err)
	}

	url := model.Chosen()
	if url == "" {
		return nil
	}
	fmt.Fprintln(output(c), url)

	if open {
		return openBrowser(url)
	}
	return nil
}

// openBrowser hands url to the platform's default opener
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return cmd.Process.Release()
}
