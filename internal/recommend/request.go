package recommend

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/recipebox/internal/validation"
	"github.com/goccy/go-json"
)

// Request asks for recipes matching a user's pantry and preferences.
// Field names match the recommendation service's wire format.
type Request struct {
	UserID            UserID   `json:"user_id" validate:"required,max=64"`
	SearchIngredients []string `json:"search_ingredients" validate:"max=50,dive,required,max=100"`
	PreferredCuisine  []string `json:"preferred_cuisine" validate:"max=10,dive,required,max=64"`
	MaxCookingTime    int      `json:"max_cooking_time" validate:"min=1,max=1440"`

	// Avoid lists ingredients the user must not be served. It is filled
	// from the user's profile and never read from or sent over the wire.
	Avoid []string `json:"-"`
}

// UserID is a user identifier that may arrive as a JSON number or string.
// Numeric IDs are re-encoded as numbers.
type UserID string

func (u *UserID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = UserID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user_id must be a string or number: %w", err)
	}
	*u = UserID(n.String())
	return nil
}

func (u UserID) MarshalJSON() ([]byte, error) {
	if isDigits(string(u)) {
		return []byte(u), nil
	}
	return json.Marshal(string(u))
}

func isDigits(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Validate checks r and returns a *validation.RequestValidationError
// describing every invalid field, or nil.
func (r Request) Validate() error {
	return validation.ValidateStruct(r)
}
