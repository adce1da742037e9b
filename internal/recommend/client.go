package recommend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/JonMunkholm/recipebox/internal/config"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

const breakerName = "recommender"

// StatusError is a non-2xx response from the recommendation service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("recommendation service returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("recommendation service returned %d", e.Code)
}

// clientFault reports whether err is a 4xx the caller caused. Those do not
// count against the circuit breaker.
func clientFault(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
}

type remoteRecipe struct {
	catalog.Recipe
	MLScore float64 `json:"ml_score"`
}

type remoteResponse struct {
	Recipes []remoteRecipe `json:"recipes"`
	Error   string         `json:"error"`
}

// Client calls the external recommendation service behind a circuit breaker.
type Client struct {
	endpoint string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[[]Match]
	limiter  *Limiter
}

// NewClient creates a client for cfg.URL. onStateChange, if non-nil, is told
// about breaker transitions.
func NewClient(cfg config.RecommenderConfig, onStateChange func(name, from, to string)) *Client {
	threshold := uint32(cfg.FailureThreshold)
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[[]Match](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || clientFault(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if onStateChange != nil {
				onStateChange(name, from.String(), to.String())
			}
		},
	})

	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/") + "/api/recommend",
		http:     &http.Client{Timeout: cfg.Timeout},
		cb:       cb,
		limiter:  NewLimiter(cfg.MaxConcurrent, cfg.QueueWait),
	}
}

// State returns the breaker state as a string: closed, half-open or open.
func (c *Client) State() string {
	return c.cb.State().String()
}

// Recommend posts req to the service. Every failure, including an open
// breaker or a full limiter, wraps ErrUnavailable.
func (c *Client) Recommend(ctx context.Context, req Request) ([]Match, error) {
	// Waiting for a slot is not a service failure, so it stays outside the breaker.
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer c.limiter.Release()

	matches, err := c.cb.Execute(func() ([]Match, error) {
		return c.do(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return matches, nil
}

func (c *Client) do(ctx context.Context, req Request) ([]Match, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode recommend request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build recommend request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call recommendation service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read recommend response: %w", err)
	}

	var out remoteResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: out.Error}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode recommend response: %w", decodeErr)
	}

	matches := make([]Match, 0, len(out.Recipes))
	for _, r := range out.Recipes {
		matches = append(matches, Match{Recipe: r.Recipe, MatchScore: scoreFromML(r.MLScore)})
	}

	slog.Debug("recommendation service responded",
		"results", len(matches),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return matches, nil
}

// scoreFromML converts a 0-1 model score to a whole percentage.
func scoreFromML(score float64) int {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return int(math.Round(score * 100))
}
