package catalog

// convert.go provides the total field converters used by Build.
//
// Every converter takes the raw (already trimmed) cell and a default, and
// returns the default whenever the cell is empty or is not valid lexical
// syntax for the target type. None of them return errors: a defaulted value
// and an exact value look the same to callers.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Pre-compiled patterns so converters stay cheap on large catalogs.
var (
	countRegex  = regexp.MustCompile(`^[+]?\d+$`)
	ratingRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// textOr returns s, or def when s is empty after trimming.
func textOr(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// countOr parses a non-negative integer count (minutes, kcal, servings).
// Signs other than '+', decimals, units and overflow all yield def.
func countOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" || !countRegex.MatchString(s) {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// ratingOr parses a decimal or scientific floating point value.
// NaN and infinities never match the pattern; overflow yields def.
func ratingOr(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" || !ratingRegex.MatchString(s) {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return def
	}
	return f
}

// normalizeTerm lowercases and collapses inner whitespace in a search term.
func normalizeTerm(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), unicode.IsSpace), " ")
}

// containsFold reports whether haystack contains an already-normalized needle.
func containsFold(haystack, needle string) bool {
	return strings.Contains(normalizeTerm(haystack), needle)
}
