package catalog

// Column positions in the recipe CSV. The header row is never read; columns
// are bound by position only.
const (
	ColName = iota
	ColIngredients
	ColCuisine
	ColCookTime
	ColTiming
	ColCalories
	ColServings
	ColRating
	ColURL
	ColImageSource
	ColDirections
)

// Columns lists the expected CSV columns in positional order.
var Columns = []string{
	"recipe_name",
	"ingredients_list",
	"cuisine",
	"cook_time_minutes",
	"timing",
	"calories",
	"servings",
	"rating",
	"url",
	"img_src",
	"directions",
}

// MinFields is the minimum number of fields a data row needs to be kept.
var MinFields = len(Columns)

// Defaults applied when a column is empty or does not parse.
const (
	DefaultName     = "Unknown Recipe"
	DefaultCuisine  = "Various"
	DefaultCookTime = 30
	DefaultCalories = 0
	DefaultServings = 4
	DefaultRating   = 4.0
)

// Recipe is one catalog entry built from a surviving CSV row.
// Values are never modified after Build returns them; treat
// IngredientsList as read-only.
type Recipe struct {
	ID              int      `json:"id"`
	Name            string   `json:"recipe_name"`
	IngredientsList []string `json:"ingredients_list"`
	Cuisine         string   `json:"cuisine"`
	CookTimeMinutes int      `json:"cook_time_minutes"`
	Timing          string   `json:"timing"`
	Calories        int      `json:"calories"`
	Servings        int      `json:"servings"`
	Rating          float64  `json:"rating"`
	URL             string   `json:"url"`
	ImageSource     string   `json:"img_src"`
	Directions      string   `json:"directions"`
}

// HasIngredient reports whether any ingredient contains name, ignoring case.
func (r Recipe) HasIngredient(name string) bool {
	needle := normalizeTerm(name)
	if needle == "" {
		return false
	}
	for _, ing := range r.IngredientsList {
		if containsFold(ing, needle) {
			return true
		}
	}
	return false
}
