package feedback

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/google/uuid"
)

// fakeCatalog serves a swappable snapshot of size recipes.
type fakeCatalog struct {
	snap atomic.Pointer[catalog.Snapshot]
}

func newFakeCatalog(size int) *fakeCatalog {
	c := &fakeCatalog{}
	c.load(size)
	return c
}

func (c *fakeCatalog) load(size int) {
	recipes := make([]catalog.Recipe, size)
	for i := range recipes {
		recipes[i] = catalog.Recipe{ID: i + 1}
	}
	c.snap.Store(&catalog.Snapshot{ID: uuid.New(), Recipes: recipes})
}

func (c *fakeCatalog) Current() *catalog.Snapshot { return c.snap.Load() }

func TestToggleLike(t *testing.T) {
	s := NewStore(newFakeCatalog(10))

	got, err := s.ToggleLike("u1", 3)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if got != (Reaction{Liked: true}) {
		t.Errorf("first like = %+v, want liked", got)
	}

	got, _ = s.ToggleLike("u1", 3)
	if got != (Reaction{}) {
		t.Errorf("second like = %+v, want cleared", got)
	}
}

func TestLikeAndDislikeAreExclusive(t *testing.T) {
	s := NewStore(newFakeCatalog(10))

	if _, err := s.ToggleDislike("u1", 5); err != nil {
		t.Fatal(err)
	}
	got, _ := s.ToggleLike("u1", 5)
	if got != (Reaction{Liked: true}) {
		t.Errorf("like after dislike = %+v, want liked only", got)
	}
	if d := s.Disliked("u1"); len(d) != 0 {
		t.Errorf("Disliked() = %v, want empty", d)
	}

	got, _ = s.ToggleDislike("u1", 5)
	if got != (Reaction{Disliked: true}) {
		t.Errorf("dislike after like = %+v, want disliked only", got)
	}
	if l := s.Liked("u1"); len(l) != 0 {
		t.Errorf("Liked() = %v, want empty", l)
	}
}

func TestLikedIsSortedAndPerUser(t *testing.T) {
	s := NewStore(newFakeCatalog(10))

	for _, id := range []int{7, 2, 9} {
		if _, err := s.ToggleLike("u1", id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.ToggleLike("u2", 4); err != nil {
		t.Fatal(err)
	}

	if got, want := s.Liked("u1"), []int{2, 7, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("Liked(u1) = %v, want %v", got, want)
	}
	if got, want := s.Liked("u2"), []int{4}; !reflect.DeepEqual(got, want) {
		t.Errorf("Liked(u2) = %v, want %v", got, want)
	}
	if got := s.Liked("nobody"); got == nil || len(got) != 0 {
		t.Errorf("Liked(nobody) = %#v, want empty non-nil", got)
	}
	if got := s.Reaction("u1", 7); got != (Reaction{Liked: true}) {
		t.Errorf("Reaction(u1, 7) = %+v", got)
	}
}

func TestUnknownRecipe(t *testing.T) {
	s := NewStore(newFakeCatalog(3))

	for _, id := range []int{0, 4, -1} {
		if _, err := s.ToggleLike("u1", id); !errors.Is(err, ErrUnknownRecipe) {
			t.Errorf("ToggleLike(%d) error = %v, want ErrUnknownRecipe", id, err)
		}
	}
	if got := s.Liked("u1"); len(got) != 0 {
		t.Errorf("Liked() = %v after rejected toggles", got)
	}
}

func TestReset(t *testing.T) {
	s := NewStore(newFakeCatalog(3))
	_, _ = s.ToggleLike("u1", 1)
	_, _ = s.ToggleDislike("u1", 2)

	s.Reset()

	if len(s.Liked("u1")) != 0 || len(s.Disliked("u1")) != 0 {
		t.Error("Reset() kept feedback")
	}
}

func TestConcurrentToggles(t *testing.T) {
	s := NewStore(newFakeCatalog(100))

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = s.ToggleLike("u1", id)
		}(i)
	}
	wg.Wait()

	if got := len(s.Liked("u1")); got != 100 {
		t.Errorf("len(Liked) = %d, want 100", got)
	}
}

func TestSnapshotChangeDropsFeedback(t *testing.T) {
	cat := newFakeCatalog(3)
	s := NewStore(cat)
	_, _ = s.ToggleLike("u1", 1)

	if len(s.Liked("u1")) != 1 {
		t.Fatal("feedback lost without a catalog change")
	}

	cat.load(3)
	if got := s.Liked("u1"); len(got) != 0 {
		t.Errorf("Liked() = %v after catalog change, want empty", got)
	}
}

func TestToggleAfterSwapSurvives(t *testing.T) {
	cat := newFakeCatalog(10)
	s := NewStore(cat)
	_, _ = s.ToggleLike("u1", 8)

	cat.load(2)

	if _, err := s.ToggleLike("u1", 8); !errors.Is(err, ErrUnknownRecipe) {
		t.Errorf("ToggleLike(8) on smaller catalog error = %v, want ErrUnknownRecipe", err)
	}
	if _, err := s.ToggleLike("u1", 2); err != nil {
		t.Fatalf("ToggleLike(2) error = %v", err)
	}
	if got, want := s.Liked("u1"), []int{2}; !reflect.DeepEqual(got, want) {
		t.Errorf("Liked() = %v, want %v", got, want)
	}
}

type sizedFetcher struct{ n atomic.Int64 }

func (f *sizedFetcher) Name() string { return "sized" }

// Fetch alternates between a 2-recipe and a 6-recipe catalog.
func (f *sizedFetcher) Fetch(context.Context) (string, error) {
	size := 2
	if f.n.Add(1)%2 == 0 {
		size = 6
	}
	var b strings.Builder
	b.WriteString(strings.Join(catalog.Columns, ",") + "\n")
	for i := 1; i <= size; i++ {
		fmt.Fprintf(&b, "Dish %d,\"['rice']\",Thai,10,10 mins,100,1,4,https://example.com,img.jpg,Cook.\n", i)
	}
	return b.String(), nil
}

func TestFeedbackStaysValidDuringReloads(t *testing.T) {
	store := catalog.NewStore(&sizedFetcher{}, catalog.Options{})
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := NewStore(store)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, _ = store.Reload(context.Background())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_, _ = s.ToggleLike("u1", i%6+1)
		}
	}()
	wg.Wait()

	size := store.Current().Len()
	for _, id := range s.Liked("u1") {
		if id < 1 || id > size {
			t.Errorf("liked id %d is outside the current %d-recipe catalog", id, size)
		}
	}
}
