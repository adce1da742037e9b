package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/JonMunkholm/recipebox/internal/logging"
	"github.com/JonMunkholm/recipebox/internal/profile"
	"github.com/JonMunkholm/recipebox/internal/recommend"
	"github.com/JonMunkholm/recipebox/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const (
	// DefaultListLimit is the page size of GET /api/recipes without ?limit.
	DefaultListLimit = 20

	// MaxListLimit caps ?limit.
	MaxListLimit = 500

	// MaxRecommendBody is the largest accepted recommendation request.
	MaxRecommendBody = 64 << 10

	// MaxProfileBody is the largest accepted profile update.
	MaxProfileBody = 64 << 10
)

// ============================================================================
// Health
// ============================================================================

type catalogHealth struct {
	Loaded     bool       `json:"loaded"`
	Records    int        `json:"records"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
	Source     string     `json:"source,omitempty"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
}

type recommenderHealth struct {
	Configured bool   `json:"configured"`
	State      string `json:"state,omitempty"`
}

type healthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Catalog     catalogHealth     `json:"catalog"`
	Recommender recommenderHealth `json:"recommender"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Catalog.Current()

	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Catalog: catalogHealth{
			Loaded:  snap.Loaded(),
			Records: snap.Len(),
		},
	}
	if snap.Loaded() {
		resp.Catalog.SnapshotID = snap.ID.String()
		resp.Catalog.Source = snap.Source
		loadedAt := snap.LoadedAt.UTC()
		resp.Catalog.LoadedAt = &loadedAt
	} else {
		resp.Status = "degraded"
	}
	if s.deps.RemoteState != nil {
		resp.Recommender = recommenderHealth{Configured: true, State: s.deps.RemoteState()}
	}

	writeJSON(w, resp)
}

// ============================================================================
// Catalog
// ============================================================================

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Catalog.Current()
	if !snap.Loaded() {
		s.respondError(w, r, catalog.ErrNoCatalog)
		return
	}

	q := r.URL.Query()
	limit := parseIntParam(r, "limit", DefaultListLimit)
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	recipes := snap.Filter(catalog.Query{
		Cuisine:     q.Get("cuisine"),
		MaxTime:     parseIntParam(r, "maxTime", 0),
		Ingredients: splitTerms(q.Get("ingredients")),
		Limit:       limit,
	})

	writeJSON(w, map[string]any{"recipes": recipes})
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	recipe, err := s.deps.Catalog.Get(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"recipe": recipe})
}

func (s *Server) handleCuisines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"cuisines": s.deps.Catalog.Current().Cuisines()})
}

// ============================================================================
// Recommendations
// ============================================================================

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRecommendBody))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req recommend.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidJSON, err))
		return
	}

	// A verified token names the user; the body cannot speak for someone else.
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		req.UserID = recommend.UserID(user.ID)
	}

	result, err := s.deps.Recommender.Recommend(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// ============================================================================
// Feedback
// ============================================================================

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, err := recipeID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	reaction, err := s.deps.Feedback.ToggleLike(user.ID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	msg := "Recipe unliked"
	if reaction.Liked {
		msg = "Recipe liked"
	}
	logging.FromContext(r.Context()).Debug("feedback", "user_id", user.ID, "recipe_id", id, "liked", reaction.Liked)
	writeJSON(w, map[string]any{"message": msg, "liked": reaction.Liked})
}

func (s *Server) handleDislike(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, err := recipeID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	reaction, err := s.deps.Feedback.ToggleDislike(user.ID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	msg := "Recipe undisliked"
	if reaction.Disliked {
		msg = "Recipe disliked"
	}
	logging.FromContext(r.Context()).Debug("feedback", "user_id", user.ID, "recipe_id", id, "disliked", reaction.Disliked)
	writeJSON(w, map[string]any{"message": msg, "disliked": reaction.Disliked})
}

func (s *Server) handleLikedRecipes(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, map[string]any{"likedRecipes": s.deps.Feedback.Liked(user.ID)})
}

func (s *Server) handleDislikedRecipes(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, map[string]any{"dislikedRecipes": s.deps.Feedback.Disliked(user.ID)})
}

// ============================================================================
// Profile
// ============================================================================

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, map[string]any{"user": s.deps.Profiles.Get(user.ID)})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxProfileBody))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var update profile.Update
	if err := json.Unmarshal(body, &update); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidJSON, err))
		return
	}

	p, err := s.deps.Profiles.Update(user.ID, update)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("profile updated",
		"user_id", user.ID,
		"allergies", len(p.Allergies),
		"disliked_ingredients", len(p.DislikedIngredients),
		"diet", p.Diet,
	)
	writeJSON(w, map[string]any{"message": "Profile updated successfully", "user": p})
}

// ============================================================================
// Admin
// ============================================================================

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Catalog.Reload(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{
		"changed": result.Changed,
		"records": result.Snapshot.Len(),
	})
}

// ============================================================================
// Helpers
// ============================================================================

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// recipeID reads the {id} URL parameter.
func recipeID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return id, nil
}

// splitTerms splits a comma-separated query value, dropping blanks.
func splitTerms(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
