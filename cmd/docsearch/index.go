package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docsearch/internal/domain"
	"docsearch/internal/indexer"
	"docsearch/internal/source/sqliteindex"
)

// IndexCommand creates the index build command
func IndexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Extract search records from a built HTML site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "build",
				Usage: "Directory holding the built HTML pages",
				Value: "build",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite index to replace with the extracted records",
			},
			&cli.StringFlag{
				Name:  "json",
				Usage: "Write the records as JSON to this file (- for stdout)",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Source id stored with the index",
				Value: "docs",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runIndex(ctx, c)
		},
	}
}

func runIndex(ctx context.Context, c *cli.Command) error {
	dbPath, jsonPath := c.String("db"), c.String("json")
	if dbPath == "" && jsonPath == "" {
		return errors.New("one of --db or --json is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := newLogger(c, cfg, false)
	if err != nil {
		return err
	}
	defer log.Sync()

	areas := make([]indexer.Area, 0, len(cfg.Indexer.Areas))
	for _, a := range cfg.Indexer.Areas {
		areas = append(areas, indexer.Area{Match: a.Match, Name: a.Name})
	}
	ix := indexer.New(indexer.Options{
		BaseURL: cfg.Indexer.BaseURL,
		Exclude: cfg.Indexer.Exclude,
		Areas:   areas,
	}, log)

	records, err := ix.Walk(ctx, c.String("build"))
	if err != nil {
		return fmt.Errorf("indexing %s: %w", c.String("build"), err)
	}
	log.Info("records extracted", zap.Int("count", len(records)))

	if dbPath != "" {
		if err := replaceIndex(ctx, dbPath, c.String("id"), records); err != nil {
			return err
		}
		log.Info("index replaced", zap.String("db", dbPath))
	}

	if jsonPath != "" {
		w := output(c)
		if jsonPath != "-" {
			f, err := os.Create(jsonPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", jsonPath, err)
			}
			defer f.Close()
			w = f
		}
		if err := writeRecords(w, records); err != nil {
			return err
		}
	}
	return nil
}

func replaceIndex(ctx context.Context, path, id string, records []domain.Record) error {
	db, err := sqliteindex.Open(path, id)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Replace(ctx, records); err != nil {
		return fmt.Errorf("replacing index %s: %w", path, err)
	}
	return nil
}

func writeRecords(w io.Writer, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	return nil
}
