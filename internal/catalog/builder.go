package catalog

import "strings"

// DefaultMaxRows is the conventional cap on recipes built per ingestion.
const DefaultMaxRows = 500

// Options controls ingestion policy.
type Options struct {
	// MaxRows caps the number of recipes produced. Zero or negative means
	// no cap. The cap counts surviving rows only, so dropped rows never use
	// up the budget.
	MaxRows int
}

// Ingest tokenizes text and builds recipes from it. It is a pure function of
// its arguments: the same text and options always produce equal output.
func Ingest(text string, opts Options) []Recipe {
	return Build(Tokenize(text), opts)
}

// Build converts tokenized rows into recipes.
//
// Row 0 is the header and is skipped unconditionally. A data row is dropped
// when it has fewer than MinFields fields or all of its fields are blank.
// Dropped rows do not consume an ID: IDs are 1-based and dense over the
// returned slice. Order of surviving rows is preserved.
func Build(rows [][]string, opts Options) []Recipe {
	if len(rows) <= 1 {
		return []Recipe{}
	}

	capacity := len(rows) - 1
	if opts.MaxRows > 0 && opts.MaxRows < capacity {
		capacity = opts.MaxRows
	}
	out := make([]Recipe, 0, capacity)

	for _, row := range rows[1:] {
		if opts.MaxRows > 0 && len(out) >= opts.MaxRows {
			break
		}
		if len(row) < MinFields || blankRow(row) {
			continue
		}
		out = append(out, buildRecipe(len(out)+1, row))
	}

	return out
}

// buildRecipe maps one row of at least MinFields fields onto a Recipe.
func buildRecipe(id int, row []string) Recipe {
	return Recipe{
		ID:              id,
		Name:            textOr(row[ColName], DefaultName),
		IngredientsList: ParseIngredients(strings.TrimSpace(row[ColIngredients])),
		Cuisine:         textOr(row[ColCuisine], DefaultCuisine),
		CookTimeMinutes: countOr(row[ColCookTime], DefaultCookTime),
		Timing:          textOr(row[ColTiming], ""),
		Calories:        countOr(row[ColCalories], DefaultCalories),
		Servings:        countOr(row[ColServings], DefaultServings),
		Rating:          ratingOr(row[ColRating], DefaultRating),
		URL:             textOr(row[ColURL], ""),
		ImageSource:     textOr(row[ColImageSource], ""),
		Directions:      textOr(row[ColDirections], ""),
	}
}

// blankRow reports whether every field in row is empty after trimming.
func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
