// Package profile stores each user's dietary preferences.
//
// Profiles live in memory, keyed by the user ID from the bearer token. A user
// who never saved a profile gets the default one: regular diet and empty
// lists. Allergies and disliked ingredients are also used to keep matching
// recipes out of recommendations.
package profile

import (
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/recipebox/internal/validation"
)

// DefaultDiet is the diet of a profile that does not name one.
const DefaultDiet = "regular"

// Profile is a user's saved preferences.
type Profile struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Age                 int        `json:"age,omitempty"`
	Gender              string     `json:"gender"`
	Allergies           []string   `json:"allergies"`
	Diet                string     `json:"diet"`
	MedicalConditions   []string   `json:"medicalConditions"`
	DislikedIngredients []string   `json:"dislikedIngredients"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
}

// Update is the body of a profile save. Name, Age and Gender keep their
// saved values when omitted or null; an empty Gender clears it. The lists
// are replaced, and an omitted Diet resets to DefaultDiet.
type Update struct {
	Name                *string  `json:"name" validate:"omitempty,max=100"`
	Age                 *int     `json:"age" validate:"omitempty,min=1,max=130"`
	Gender              *string  `json:"gender" validate:"omitempty,oneof=male female prefer-not-to-say"`
	Allergies           []string `json:"allergies" validate:"max=30,dive,required,max=64"`
	Diet                string   `json:"diet" validate:"omitempty,oneof=regular vegetarian vegan keto gluten_free low_carb calorie_deficit diabetic paleo mediterranean"`
	MedicalConditions   []string `json:"medicalConditions" validate:"max=30,dive,required,max=64"`
	DislikedIngredients []string `json:"dislikedIngredients" validate:"max=100,dive,required,max=64"`
}

// Store holds profiles for all users.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	now      func() time.Time
}

// NewStore creates an empty profile store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]Profile),
		now:      time.Now,
	}
}

// Get returns user's profile, or the default profile if none was saved.
func (s *Store) Get(user string) Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[user]
	if !ok {
		return defaultProfile(user)
	}
	return p.clone()
}

// Update validates u, applies it to user's profile and returns the result.
// Invalid updates return a *validation.RequestValidationError and change
// nothing.
func (s *Store) Update(user string, u Update) (Profile, error) {
	u.Allergies = normalize(u.Allergies)
	u.MedicalConditions = normalize(u.MedicalConditions)
	u.DislikedIngredients = normalize(u.DislikedIngredients)
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}

	// An empty gender clears the saved one and is not checked against the
	// allowed values.
	checked := u
	if u.Gender != nil && *u.Gender == "" {
		checked.Gender = nil
	}
	if err := validation.ValidateStruct(checked); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[user]
	if !ok {
		p = defaultProfile(user)
	}

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	p.Allergies = u.Allergies
	p.MedicalConditions = u.MedicalConditions
	p.DislikedIngredients = u.DislikedIngredients
	p.Diet = u.Diet
	if p.Diet == "" {
		p.Diet = DefaultDiet
	}
	now := s.now().UTC()
	p.UpdatedAt = &now

	s.profiles[user] = p
	return p.clone(), nil
}

// Avoided returns the ingredients user must not be recommended: allergies
// first, then disliked ingredients.
func (s *Store) Avoided(user string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[user]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.Allergies)+len(p.DislikedIngredients))
	out = append(out, p.Allergies...)
	return append(out, p.DislikedIngredients...)
}

func defaultProfile(user string) Profile {
	return Profile{
		ID:                  user,
		Allergies:           []string{},
		Diet:                DefaultDiet,
		MedicalConditions:   []string{},
		DislikedIngredients: []string{},
	}
}

func (p Profile) clone() Profile {
	p.Allergies = append([]string{}, p.Allergies...)
	p.MedicalConditions = append([]string{}, p.MedicalConditions...)
	p.DislikedIngredients = append([]string{}, p.DislikedIngredients...)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		p.UpdatedAt = &t
	}
	return p
}

// normalize trims entries, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling. The result is never nil.
func normalize(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
