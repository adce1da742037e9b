package recommend

import (
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/JonMunkholm/recipebox/internal/catalog"
)

// Fallback scores range over [minScore, minScore+scoreSpan).
const (
	minScore  = 60
	scoreSpan = 40
)

// DefaultLimit is the number of fallback results returned when no limit is set.
const DefaultLimit = 12

// Fallback ranks catalog recipes locally when the recommendation service is
// not reachable. It filters by cook time, cuisine and avoided ingredients,
// assigns each match a placeholder score, and returns the best-scored recipes.
//
// Ingredients are not used for ranking; the scores only keep the result
// ordering stable in shape with the remote service.
type Fallback struct {
	limit int
	intN  func(n int) int
}

// NewFallback returns a Fallback that returns at most limit recipes.
func NewFallback(limit int) *Fallback {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Fallback{limit: limit, intN: rand.IntN}
}

// WithRand replaces the score source. intN must return a value in [0, n).
func (f *Fallback) WithRand(intN func(n int) int) *Fallback {
	f.intN = intN
	return f
}

// Recommend returns matches from snap in descending score order. Ties keep
// catalog order.
func (f *Fallback) Recommend(snap *catalog.Snapshot, req Request) []Match {
	cuisines := wantedCuisines(req.PreferredCuisine)

	matches := make([]Match, 0)
	for _, r := range snap.Recipes {
		if !f.accepts(r, cuisines, req.MaxCookingTime) || containsAny(r, req.Avoid) {
			continue
		}
		matches = append(matches, Match{Recipe: r, MatchScore: minScore + f.intN(scoreSpan)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	if len(matches) > f.limit {
		matches = matches[:f.limit]
	}
	return matches
}

func (f *Fallback) accepts(r catalog.Recipe, cuisines []string, maxTime int) bool {
	if len(cuisines) == 0 {
		return catalog.Query{MaxTime: maxTime}.Matches(r)
	}
	for _, c := range cuisines {
		if (catalog.Query{Cuisine: c, MaxTime: maxTime}).Matches(r) {
			return true
		}
	}
	return false
}

// containsAny reports whether r uses any of the ingredients.
func containsAny(r catalog.Recipe, ingredients []string) bool {
	for _, ing := range ingredients {
		if r.HasIngredient(ing) {
			return true
		}
	}
	return false
}

// wantedCuisines drops blanks and returns nil when any entry is "Any".
func wantedCuisines(preferred []string) []string {
	var out []string
	for _, c := range preferred {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if strings.EqualFold(c, "any") {
			return nil
		}
		out = append(out, c)
	}
	return out
}
