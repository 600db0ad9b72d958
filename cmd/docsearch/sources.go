package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"docsearch/internal/config"
	"docsearch/internal/domain"
	"docsearch/internal/source"
	"docsearch/internal/source/httpsource"
	"docsearch/internal/source/sqliteindex"
)

// openSources builds one descriptor per configured source. The returned
// function closes every database that was opened.
func openSources(cfg *config.Config, log *zap.Logger) ([]source.Descriptor, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn("closing source", zap.Error(err))
			}
		}
	}

	descs := make([]source.Descriptor, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src, opened, err := buildSource(cfg, sc)
		closers = append(closers, opened...)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("source %q: %w", sc.ID, err)
		}
		log.Debug("source ready", zap.String("id", sc.ID), zap.String("type", sc.Type))
		descs = append(descs, source.Descriptor{
			ID:          sc.ID,
			OpenOnFocus: sc.OpenOnFocus,
			PageSize:    sc.PageSize,
			Source:      src,
		})
	}
	return descs, closeAll, nil
}

func buildSource(cfg *config.Config, sc config.SourceConfig) (source.QuerySource, []io.Closer, error) {
	switch sc.Type {
	case config.SourceSQLite:
		var closers []io.Closer
		parts := make([]source.QuerySource, 0, len(sc.Paths))
		for _, path := range sc.Paths {
			ix, err := sqliteindex.Open(path, sc.ID)
			if err != nil {
				return nil, closers, err
			}
			closers = append(closers, ix)
			parts = append(parts, ix)
		}
		if len(parts) == 1 {
			return parts[0], closers, nil
		}
		return source.NewMulti(parts...), closers, nil

	case config.SourceHTTP:
		client, err := httpsource.New(sc.ID, httpsource.Config{
			BaseURL:   sc.URL,
			Index:     sc.Index,
			AppID:     sc.AppID,
			APIKey:    sc.APIKey,
			RateLimit: sc.RateLimit,
			Timeout:   cfg.FetchTimeout.Duration,
		})
		return client, nil, err

	case config.SourceRecords:
		var records []domain.Record
		for _, path := range sc.Paths {
			recs, err := source.LoadRecords(path)
			if err != nil {
				return nil, nil, err
			}
			records = append(records, recs...)
		}
		return source.NewStatic(sc.ID, records), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown type %q", sc.Type)
}
