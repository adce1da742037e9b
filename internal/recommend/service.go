// Package recommend produces recipe recommendations.
//
// Requests go to the external recommendation service when one is configured.
// If the service fails, or its circuit breaker is open, the Service answers
// from the local catalog with a Fallback ranking instead, and marks the
// result accordingly.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/JonMunkholm/recipebox/internal/logging"
)

// ErrUnavailable is returned when the recommendation service cannot be used.
var ErrUnavailable = errors.New("recommendation service unavailable")

// Result sources.
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Match is a recipe with its match percentage.
type Match struct {
	catalog.Recipe
	MatchScore int `json:"matchScore"`
}

// Result is the outcome of one recommendation request.
type Result struct {
	Recipes []Match `json:"recipes"`
	Source  string  `json:"source"`
}

// Remote is the external recommendation service.
type Remote interface {
	Recommend(ctx context.Context, req Request) ([]Match, error)
}

// Catalog provides the snapshot the fallback ranks.
type Catalog interface {
	Current() *catalog.Snapshot
}

// Preferences supplies the ingredients a user must not be recommended.
type Preferences interface {
	Avoided(user string) []string
}

// Observer is told about every answered request.
type Observer interface {
	ObserveRecommendation(source string, duration time.Duration, err error)
}

// Service answers recommendation requests.
type Service struct {
	remote   Remote
	fallback *Fallback
	catalog  Catalog
	prefs    Preferences
	observer Observer
}

// NewService creates a service. remote may be nil to always use the fallback.
func NewService(remote Remote, fallback *Fallback, cat Catalog) *Service {
	return &Service{remote: remote, fallback: fallback, catalog: cat}
}

// SetObserver registers o. Must be called before serving requests.
func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

// SetPreferences registers p. Must be called before serving requests.
func (s *Service) SetPreferences(p Preferences) {
	s.prefs = p
}

// Recommend validates req, then asks the remote service and falls back to the
// local catalog on failure. It returns catalog.ErrNoCatalog when the fallback
// is needed but no catalog has been loaded.
func (s *Service) Recommend(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	logger := logging.WithFields(ctx, "user_id", string(req.UserID))

	if s.prefs != nil {
		req.Avoid = s.prefs.Avoided(string(req.UserID))
	}

	if s.remote != nil {
		start := time.Now()
		matches, err := s.remote.Recommend(ctx, req)
		s.observe(SourceRemote, time.Since(start), err)
		if err == nil {
			return Result{Recipes: withoutAvoided(matches, req.Avoid), Source: SourceRemote}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		logger.Warn("recommendation service failed, using local fallback", "error", err)
	}

	start := time.Now()
	snap := s.catalog.Current()
	if !snap.Loaded() {
		s.observe(SourceFallback, time.Since(start), catalog.ErrNoCatalog)
		return Result{}, fmt.Errorf("fallback recommendations: %w", catalog.ErrNoCatalog)
	}

	matches := s.fallback.Recommend(snap, req)
	s.observe(SourceFallback, time.Since(start), nil)
	logger.Debug("fallback recommendations", "results", len(matches), "snapshot", snap.ID.String())

	return Result{Recipes: matches, Source: SourceFallback}, nil
}

// withoutAvoided drops matches that use an avoided ingredient.
func withoutAvoided(matches []Match, avoid []string) []Match {
	if len(avoid) == 0 {
		return matches
	}
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if !containsAny(m.Recipe, avoid) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) observe(source string, d time.Duration, err error) {
	if s.observer != nil {
		s.observer.ObserveRecommendation(source, d, err)
	}
}
