package catalog

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

const header = "recipe_name,ingredients_list,cuisine,cook_time_minutes,timing,calories,servings,rating,url,img_src,directions"

// row renders eleven fields as one CSV line, quoting fields that need it.
func row(fields ...string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if strings.ContainsAny(f, ",\"\r\n") {
			f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		out[i] = f
	}
	return strings.Join(out, ",")
}

func doc(lines ...string) string {
	return strings.Join(append([]string{header}, lines...), "\n") + "\n"
}

func pancakes() string {
	return row("Pancakes", "['Flour', 'Milk', 'Egg']", "American", "20", "Breakfast", "350", "2", "4.5",
		"https://example.com/pancakes", "https://example.com/pancakes.jpg", "Mix, then fry.")
}

func TestIngest_FullRow(t *testing.T) {
	got := Ingest(doc(pancakes()), Options{MaxRows: DefaultMaxRows})
	want := []Recipe{{
		ID:              1,
		Name:            "Pancakes",
		IngredientsList: []string{"Flour", "Milk", "Egg"},
		Cuisine:         "American",
		CookTimeMinutes: 20,
		Timing:          "Breakfast",
		Calories:        350,
		Servings:        2,
		Rating:          4.5,
		URL:             "https://example.com/pancakes",
		ImageSource:     "https://example.com/pancakes.jpg",
		Directions:      "Mix, then fry.",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ingest() = %+v, want %+v", got, want)
	}
}

func TestIngest_Defaults(t *testing.T) {
	got := Ingest(doc(row("", "", "", "", "", "", "", "", "", "", "x")), Options{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	r := got[0]
	if r.Name != DefaultName {
		t.Errorf("Name = %q, want %q", r.Name, DefaultName)
	}
	if r.Cuisine != DefaultCuisine {
		t.Errorf("Cuisine = %q, want %q", r.Cuisine, DefaultCuisine)
	}
	if r.CookTimeMinutes != DefaultCookTime {
		t.Errorf("CookTimeMinutes = %d, want %d", r.CookTimeMinutes, DefaultCookTime)
	}
	if r.Calories != DefaultCalories {
		t.Errorf("Calories = %d, want %d", r.Calories, DefaultCalories)
	}
	if r.Servings != DefaultServings {
		t.Errorf("Servings = %d, want %d", r.Servings, DefaultServings)
	}
	if r.Rating != DefaultRating {
		t.Errorf("Rating = %v, want %v", r.Rating, DefaultRating)
	}
	if r.IngredientsList == nil || len(r.IngredientsList) != 0 {
		t.Errorf("IngredientsList = %#v, want empty non-nil slice", r.IngredientsList)
	}
	if r.Directions != "x" {
		t.Errorf("Directions = %q, want %q", r.Directions, "x")
	}
}

func TestIngest_NumericFields(t *testing.T) {
	tests := []struct {
		name     string
		cook     string
		calories string
		servings string
		rating   string
		want     Recipe
	}{
		{"plain", "45", "500", "6", "3.5", Recipe{CookTimeMinutes: 45, Calories: 500, Servings: 6, Rating: 3.5}},
		{"non-numeric", "abc", "lots", "some", "great", Recipe{CookTimeMinutes: 30, Calories: 0, Servings: 4, Rating: 4.0}},
		{"explicit zero kept", "0", "0", "0", "0", Recipe{CookTimeMinutes: 0, Calories: 0, Servings: 0, Rating: 0}},
		{"decimals in counts", "12.5", "300.0", "2.0", "4", Recipe{CookTimeMinutes: 30, Calories: 0, Servings: 4, Rating: 4}},
		{"units in counts", "45 mins", "200kcal", "4 people", "4.0/5", Recipe{CookTimeMinutes: 30, Calories: 0, Servings: 4, Rating: 4.0}},
		{"negative counts", "-10", "-1", "-2", "-1.5", Recipe{CookTimeMinutes: 30, Calories: 0, Servings: 4, Rating: -1.5}},
		{"plus sign", "+15", "+100", "+3", "+4.25", Recipe{CookTimeMinutes: 15, Calories: 100, Servings: 3, Rating: 4.25}},
		{"scientific rating", "10", "10", "1", "4.5e0", Recipe{CookTimeMinutes: 10, Calories: 10, Servings: 1, Rating: 4.5}},
		{"special floats", "10", "10", "1", "NaN", Recipe{CookTimeMinutes: 10, Calories: 10, Servings: 1, Rating: 4.0}},
		{"infinity", "10", "10", "1", "Inf", Recipe{CookTimeMinutes: 10, Calories: 10, Servings: 1, Rating: 4.0}},
		{"overflow", "99999999999999999999999", "1", "1", "1e400", Recipe{CookTimeMinutes: 30, Calories: 1, Servings: 1, Rating: 4.0}},
		{"hex", "0x1e", "1", "1", "0x1p-2", Recipe{CookTimeMinutes: 30, Calories: 1, Servings: 1, Rating: 4.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ingest(doc(row("R", "[]", "Thai", tt.cook, "", tt.calories, tt.servings, tt.rating, "", "", "")), Options{})
			if len(got) != 1 {
				t.Fatalf("len = %d, want 1", len(got))
			}
			r := got[0]
			if r.CookTimeMinutes != tt.want.CookTimeMinutes {
				t.Errorf("CookTimeMinutes = %d, want %d", r.CookTimeMinutes, tt.want.CookTimeMinutes)
			}
			if r.Calories != tt.want.Calories {
				t.Errorf("Calories = %d, want %d", r.Calories, tt.want.Calories)
			}
			if r.Servings != tt.want.Servings {
				t.Errorf("Servings = %d, want %d", r.Servings, tt.want.Servings)
			}
			if r.Rating != tt.want.Rating {
				t.Errorf("Rating = %v, want %v", r.Rating, tt.want.Rating)
			}
		})
	}
}

func TestIngest_DropsShortAndBlankRows(t *testing.T) {
	nine := "A,B,C,D,E,F,G,H,I"
	text := doc(
		pancakes(),
		nine,
		"",
		",,,,,,,,,,",
		row("Tacos", "['Tortilla']", "Mexican", "15", "", "", "", "", "", "", ""),
	)

	got := Ingest(text, Options{})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Name != "Pancakes" || got[1].Name != "Tacos" {
		t.Errorf("names = %q, %q; want Pancakes, Tacos", got[0].Name, got[1].Name)
	}
	// Dropped rows do not consume IDs.
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("IDs = %d, %d; want 1, 2", got[0].ID, got[1].ID)
	}
}

func TestIngest_ExtraFieldsIgnored(t *testing.T) {
	got := Ingest(doc(pancakes()+",extra,fields"), Options{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Directions != "Mix, then fry." {
		t.Errorf("Directions = %q, want %q", got[0].Directions, "Mix, then fry.")
	}
}

func TestIngest_QuotedContent(t *testing.T) {
	directions := "Step 1: say \"hello\".\nStep 2: stir, then serve."
	got := Ingest(doc(row("Soup", "['Water', 'Salt']", "French", "10", "", "", "", "", "", "", directions)), Options{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Directions != directions {
		t.Errorf("Directions = %q, want %q", got[0].Directions, directions)
	}
}

func TestIngest_HeaderOnlyAndEmpty(t *testing.T) {
	for _, text := range []string{"", "\n\n", header, header + "\n"} {
		got := Ingest(text, Options{MaxRows: DefaultMaxRows})
		if got == nil || len(got) != 0 {
			t.Errorf("Ingest(%q) = %#v, want empty non-nil slice", text, got)
		}
	}
}

func TestIngest_HeaderIsNotValidated(t *testing.T) {
	got := Ingest("whatever\n"+pancakes(), Options{})
	if len(got) != 1 || got[0].Name != "Pancakes" {
		t.Errorf("Ingest() = %+v, want one Pancakes recipe", got)
	}
}

func TestIngest_MaxRows(t *testing.T) {
	lines := make([]string, 600)
	for i := range lines {
		lines[i] = row(fmt.Sprintf("Recipe %d", i+1), "[]", "Thai", "10", "", "", "", "", "", "", "")
	}
	text := doc(lines...)

	tests := []struct {
		name    string
		maxRows int
		want    int
	}{
		{"default cap", DefaultMaxRows, 500},
		{"small cap", 3, 3},
		{"no cap", 0, 600},
		{"negative means no cap", -1, 600},
		{"cap above input", 1000, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ingest(text, Options{MaxRows: tt.maxRows})
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			for i, r := range got {
				if r.ID != i+1 {
					t.Fatalf("got[%d].ID = %d, want %d", i, r.ID, i+1)
				}
				if want := fmt.Sprintf("Recipe %d", i+1); r.Name != want {
					t.Fatalf("got[%d].Name = %q, want %q", i, r.Name, want)
				}
			}
		})
	}
}

func TestIngest_MaxRowsCountsSurvivors(t *testing.T) {
	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, "short,row")
	}
	for i := 0; i < 5; i++ {
		lines = append(lines, row(fmt.Sprintf("Good %d", i), "[]", "", "", "", "", "", "", "", "", ""))
	}

	got := Ingest(doc(lines...), Options{MaxRows: 3})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, r := range got {
		if want := fmt.Sprintf("Good %d", i); r.Name != want {
			t.Errorf("got[%d].Name = %q, want %q", i, r.Name, want)
		}
	}
}

func TestIngest_Deterministic(t *testing.T) {
	text := doc(pancakes(), row("Tacos", "['Tortilla', 'Beef']", "Mexican", "abc", "", "", "", "", "", "", ""))
	first := Ingest(text, Options{MaxRows: DefaultMaxRows})
	second := Ingest(text, Options{MaxRows: DefaultMaxRows})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Ingest is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestIngest_CRLFAndLF(t *testing.T) {
	lf := doc(pancakes(), row("Tacos", "['Tortilla']", "Mexican", "15", "", "", "", "", "", "", ""))
	crlf := strings.ReplaceAll(lf, "\n", "\r\n")
	if !reflect.DeepEqual(Ingest(lf, Options{}), Ingest(crlf, Options{})) {
		t.Error("CRLF and LF documents produced different recipes")
	}
}

func TestIngest_RoundTrip(t *testing.T) {
	recipes := []Recipe{
		{ID: 1, Name: "Pad Thai", IngredientsList: []string{"Rice Noodles", "Peanuts"}, Cuisine: "Thai",
			CookTimeMinutes: 25, Timing: "Dinner", Calories: 600, Servings: 2, Rating: 4.7,
			URL: "https://example.com/pad-thai", ImageSource: "https://example.com/pad-thai.jpg",
			Directions: "Soak noodles.\nFry with \"tamarind\" sauce, serve."},
		{ID: 2, Name: "Ratatouille", IngredientsList: []string{"Eggplant", "Zucchini", "Tomato"}, Cuisine: "French",
			CookTimeMinutes: 60, Calories: 250, Servings: 4, Rating: 4.2, Directions: "Roast."},
	}

	lines := make([]string, len(recipes))
	for i, r := range recipes {
		lines[i] = row(r.Name, "['"+strings.Join(r.IngredientsList, "', '")+"']", r.Cuisine,
			fmt.Sprint(r.CookTimeMinutes), r.Timing, fmt.Sprint(r.Calories), fmt.Sprint(r.Servings),
			fmt.Sprint(r.Rating), r.URL, r.ImageSource, r.Directions)
	}

	got := Ingest(doc(lines...), Options{MaxRows: DefaultMaxRows})
	if !reflect.DeepEqual(got, recipes) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, recipes)
	}
}

func TestBuild_RowsFromTokenize(t *testing.T) {
	rows := [][]string{
		Columns,
		{"A", "[]", "", "", "", "", "", "", "", "", ""},
		{"B"},
	}
	got := Build(rows, Options{})
	if len(got) != 1 || got[0].Name != "A" {
		t.Errorf("Build() = %+v, want one recipe named A", got)
	}
}

func TestRecipe_HasIngredient(t *testing.T) {
	r := Recipe{IngredientsList: []string{"Extra Virgin  Olive Oil", "Sea Salt"}}

	tests := []struct {
		name string
		want bool
	}{
		{"olive oil", true},
		{"SALT", true},
		{"  virgin   olive ", true},
		{"pepper", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.HasIngredient(tt.name); got != tt.want {
			t.Errorf("HasIngredient(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
