// Package source fetches the raw recipe CSV text that the catalog ingests.
//
// Three backends are available: a local file, an HTTP(S) URL, and a
// PostgreSQL query exported with COPY ... TO STDOUT. Every backend returns the
// complete document as one string; ingestion itself happens in package
// catalog.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/JonMunkholm/recipebox/internal/config"
)

// Source is a catalog.Fetcher that may hold resources.
type Source interface {
	catalog.Fetcher
	Close() error
}

// New builds the Source selected by cfg.Source. Every fetch is bounded by
// cfg.FetchTimeout.
func New(ctx context.Context, cfg config.CatalogConfig) (Source, error) {
	var (
		src Source
		err error
	)

	switch strings.ToLower(cfg.Source) {
	case config.SourceFile:
		src = NewFile(cfg.Path, cfg.MaxBytes)
	case config.SourceHTTP:
		src = NewHTTP(cfg.URL, cfg.MaxBytes)
	case config.SourcePostgres:
		src, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Query, cfg.MaxBytes)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}

	if cfg.FetchTimeout > 0 {
		src = &timed{Source: src, timeout: cfg.FetchTimeout}
	}
	return src, nil
}

// timed bounds each Fetch with a deadline.
type timed struct {
	Source
	timeout time.Duration
}

func (t *timed) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Source.Fetch(ctx)
}
