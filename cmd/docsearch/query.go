package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"docsearch/internal/autocomplete"
	"docsearch/internal/ui/views"
)

// QueryCommand creates the one-shot query command
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run one query and print the results",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results to print",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Output width",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print result items as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runQuery(c, strings.Join(c.Args().Slice(), " "))
		},
	}
}

func runQuery(c *cli.Command, text string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := newLogger(c, cfg, false)
	if err != nil {
		return err
	}
	defer log.Sync()

	descs, closeSources, err := openSources(cfg, log)
	if err != nil {
		return err
	}
	defer closeSources()

	coord, err := newCoordinator(cfg, descs, log, nil)
	if err != nil {
		return err
	}

	ctrl := autocomplete.New(coord, autocomplete.WithLogger(log))
	ctrl.Resolve(ctrl.TextChanged(text))
	ins := ctrl.Render()

	if ins.State == autocomplete.StatusClosed {
		return errors.New("query text is required")
	}

	w := output(c)
	if c.Bool("json") {
		items := ins.Items
		if limit := c.Int("limit"); limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		fmt.Fprintln(w, views.NewRenderer(nil).RenderPanel(ins, c.Int("width"), c.Int("limit")))
	}

	if ins.State == autocomplete.StatusError {
		return fmt.Errorf("all sources failed: %s", strings.Join(ins.FailedSources(), ", "))
	}
	return nil
}
