package catalog

// store.go holds the live catalog.
//
// A Store owns one Fetcher and the most recent Snapshot. Readers never lock:
// they load the current snapshot pointer and read from it. Reload fetches the
// raw text, skips ingestion when the content fingerprint is unchanged, and
// otherwise swaps in a freshly built snapshot. A failed fetch leaves the
// previous snapshot in place.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/recipebox/internal/logging"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a recipe ID is not in the current snapshot.
var ErrNotFound = errors.New("recipe not found")

// ErrNoCatalog is returned by operations that need a loaded catalog.
var ErrNoCatalog = errors.New("catalog not loaded")

// Fetcher produces the full raw text of the recipe CSV.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (string, error)
}

// Observer receives a summary of every reload attempt.
type Observer interface {
	ObserveIngest(stats IngestStats)
}

// IngestStats summarizes one reload attempt.
type IngestStats struct {
	Source   string
	Bytes    int
	DataRows int // tokenized rows after the header; zero when unchanged
	Records  int
	Changed  bool
	Err      error
	Duration time.Duration
}

// Dropped returns the number of data rows that did not become recipes,
// including rows past the MaxRows cap.
func (s IngestStats) Dropped() int {
	if s.DataRows < s.Records {
		return 0
	}
	return s.DataRows - s.Records
}

// Snapshot is an immutable ingestion result.
type Snapshot struct {
	ID          uuid.UUID
	Source      string
	Fingerprint uint64
	LoadedAt    time.Time
	Recipes     []Recipe
}

// Len returns the number of recipes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Recipes)
}

// Loaded reports whether the snapshot came from a successful reload.
func (s *Snapshot) Loaded() bool {
	return s.ID != uuid.Nil
}

// Get returns the recipe with the given ID.
func (s *Snapshot) Get(id int) (Recipe, error) {
	// IDs are dense and 1-based, so the ID is the index plus one.
	if id < 1 || id > len(s.Recipes) {
		return Recipe{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return s.Recipes[id-1], nil
}

// Query selects recipes from a snapshot. Zero values match everything.
type Query struct {
	// Cuisine matches case-insensitively. "Any" matches every cuisine.
	Cuisine string
	// MaxTime keeps recipes whose cook time is at most MaxTime minutes.
	MaxTime int
	// Ingredients keeps recipes containing at least one of the terms.
	Ingredients []string
	// Limit caps the result size.
	Limit int
}

// Matches reports whether r satisfies every set criterion in q.
func (q Query) Matches(r Recipe) bool {
	if c := strings.TrimSpace(q.Cuisine); c != "" && !strings.EqualFold(c, "any") {
		if !strings.EqualFold(r.Cuisine, c) {
			return false
		}
	}
	if q.MaxTime > 0 && r.CookTimeMinutes > q.MaxTime {
		return false
	}
	if len(q.Ingredients) > 0 {
		for _, ing := range q.Ingredients {
			if r.HasIngredient(ing) {
				return true
			}
		}
		return false
	}
	return true
}

// Filter returns the recipes matching q in catalog order.
func (s *Snapshot) Filter(q Query) []Recipe {
	out := make([]Recipe, 0)
	for _, r := range s.Recipes {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Cuisines returns the distinct cuisines in the snapshot, sorted.
func (s *Snapshot) Cuisines() []string {
	seen := make(map[string]bool)
	for _, r := range s.Recipes {
		seen[r.Cuisine] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ReloadResult describes the outcome of a successful Reload.
type ReloadResult struct {
	Changed  bool
	Snapshot *Snapshot
}

// Store serves the current catalog snapshot and reloads it on demand.
type Store struct {
	fetcher  Fetcher
	opts     Options
	observer Observer

	reloadMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

// NewStore creates a store that reads from fetcher. The store starts with an
// empty snapshot until the first successful Reload.
func NewStore(fetcher Fetcher, opts Options) *Store {
	s := &Store{fetcher: fetcher, opts: opts}
	s.current.Store(&Snapshot{Recipes: []Recipe{}})
	return s
}

// SetObserver registers an observer for reload statistics.
// Must be called before the first Reload.
func (s *Store) SetObserver(o Observer) {
	s.observer = o
}

// Current returns the active snapshot. It is never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Get returns a recipe from the active snapshot.
func (s *Store) Get(id int) (Recipe, error) {
	return s.Current().Get(id)
}

// Filter queries the active snapshot.
func (s *Store) Filter(q Query) []Recipe {
	return s.Current().Filter(q)
}

// Reload fetches the catalog text and re-ingests it if it changed.
// Concurrent calls are serialized. On error the active snapshot is kept.
func (s *Store) Reload(ctx context.Context) (ReloadResult, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ingestID := uuid.New()
	logger := logging.WithFields(ctx, "ingest_id", ingestID.String(), "source", s.fetcher.Name())
	start := time.Now()
	stats := IngestStats{Source: s.fetcher.Name()}

	text, err := s.fetcher.Fetch(ctx)
	if err != nil {
		stats.Err = err
		stats.Duration = time.Since(start)
		s.observe(stats)
		logger.Error("catalog fetch failed", "error", err)
		return ReloadResult{}, fmt.Errorf("fetch catalog from %s: %w", s.fetcher.Name(), err)
	}
	stats.Bytes = len(text)

	fingerprint := xxhash.Sum64String(text)
	prev := s.Current()
	if prev.Loaded() && prev.Fingerprint == fingerprint {
		stats.Records = prev.Len()
		stats.Duration = time.Since(start)
		s.observe(stats)
		logger.Debug("catalog unchanged, skipping ingestion", "fingerprint", fingerprint)
		return ReloadResult{Changed: false, Snapshot: prev}, nil
	}

	rows := Tokenize(text)
	recipes := Build(rows, s.opts)

	snap := &Snapshot{
		ID:          ingestID,
		Source:      s.fetcher.Name(),
		Fingerprint: fingerprint,
		LoadedAt:    time.Now(),
		Recipes:     recipes,
	}
	s.current.Store(snap)

	if len(rows) > 0 {
		stats.DataRows = len(rows) - 1
	}
	stats.Records = len(recipes)
	stats.Changed = true
	stats.Duration = time.Since(start)
	s.observe(stats)

	logger.Info("catalog ingested",
		"bytes", stats.Bytes,
		"data_rows", stats.DataRows,
		"records", stats.Records,
		"dropped", stats.Dropped(),
		"max_rows", s.opts.MaxRows,
		"duration_ms", stats.Duration.Milliseconds(),
	)

	return ReloadResult{Changed: true, Snapshot: snap}, nil
}

func (s *Store) observe(stats IngestStats) {
	if s.observer != nil {
		s.observer.ObserveIngest(stats)
	}
}

// RunReloader reloads the catalog every interval until ctx is cancelled.
// The first reload happens after one interval; callers load once at startup.
// Failures are logged and retried on the next tick.
func (s *Store) RunReloader(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	slog.Info("catalog reloader started", "interval", interval.String(), "source", s.fetcher.Name())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog reloader stopped")
			return
		case <-ticker.C:
			// Errors are already logged by Reload.
			_, _ = s.Reload(ctx)
		}
	}
}
