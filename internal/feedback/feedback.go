// Package feedback records which recipes each user liked or disliked.
//
// Likes and dislikes are mutually exclusive: liking a recipe clears a
// dislike and vice versa, and repeating the same action undoes it. State is
// held in memory and keyed by catalog recipe ID. Recipe IDs are positional,
// so the store belongs to one catalog snapshot and starts over when a reload
// installs another.
package feedback

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/google/uuid"
)

// ErrUnknownRecipe is returned when a recipe ID is not in the current catalog.
var ErrUnknownRecipe = errors.New("unknown recipe")

// Reaction is a user's current stance on one recipe.
type Reaction struct {
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}

// Catalog provides the snapshot recipe IDs are resolved against.
type Catalog interface {
	Current() *catalog.Snapshot
}

type userSets struct {
	liked    map[int]struct{}
	disliked map[int]struct{}
}

// Store holds feedback for all users.
type Store struct {
	catalog Catalog

	mu       sync.Mutex
	snapshot uuid.UUID
	users    map[string]*userSets
}

// NewStore creates an empty feedback store that validates IDs against cat.
func NewStore(cat Catalog) *Store {
	return &Store{
		catalog: cat,
		users:   make(map[string]*userSets),
	}
}

// ToggleLike flips the like on recipeID for user and returns the new state.
func (s *Store) ToggleLike(user string, recipeID int) (Reaction, error) {
	return s.toggle(user, recipeID, true)
}

// ToggleDislike flips the dislike on recipeID for user and returns the new state.
func (s *Store) ToggleDislike(user string, recipeID int) (Reaction, error) {
	return s.toggle(user, recipeID, false)
}

func (s *Store) toggle(user string, recipeID int, like bool) (Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.syncLocked()
	if _, err := snap.Get(recipeID); err != nil {
		return Reaction{}, fmt.Errorf("%w: %d", ErrUnknownRecipe, recipeID)
	}

	u := s.users[user]
	if u == nil {
		u = &userSets{liked: make(map[int]struct{}), disliked: make(map[int]struct{})}
		s.users[user] = u
	}

	set, other := u.liked, u.disliked
	if !like {
		set, other = u.disliked, u.liked
	}

	if _, ok := set[recipeID]; ok {
		delete(set, recipeID)
	} else {
		set[recipeID] = struct{}{}
		delete(other, recipeID)
	}

	return u.reaction(recipeID), nil
}

// Reaction returns user's current stance on recipeID.
func (s *Store) Reaction(user string, recipeID int) Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()

	if u := s.users[user]; u != nil {
		return u.reaction(recipeID)
	}
	return Reaction{}
}

// Liked returns the IDs user liked, ascending.
func (s *Store) Liked(user string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()

	if u := s.users[user]; u != nil {
		return sortedIDs(u.liked)
	}
	return []int{}
}

// Disliked returns the IDs user disliked, ascending.
func (s *Store) Disliked(user string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()

	if u := s.users[user]; u != nil {
		return sortedIDs(u.disliked)
	}
	return []int{}
}

// Reset drops all feedback.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*userSets)
}

// syncLocked returns the active snapshot and drops feedback recorded against
// an earlier one. Callers hold s.mu.
func (s *Store) syncLocked() *catalog.Snapshot {
	snap := s.catalog.Current()
	if snap.ID != s.snapshot {
		s.snapshot = snap.ID
		s.users = make(map[string]*userSets)
	}
	return snap
}

func (u *userSets) reaction(id int) Reaction {
	_, liked := u.liked[id]
	_, disliked := u.disliked[id]
	return Reaction{Liked: liked, Disliked: disliked}
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
