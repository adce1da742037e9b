package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeFetcher struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func (f *fakeFetcher) set(text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.err = text, err
}

type recordingObserver struct {
	mu    sync.Mutex
	stats []IngestStats
}

func (o *recordingObserver) ObserveIngest(s IngestStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats = append(o.stats, s)
}

func (o *recordingObserver) last() IngestStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats[len(o.stats)-1]
}

func sampleCatalog() string {
	return doc(
		row("Pad Thai", "['Rice Noodles', 'Peanuts', 'Egg']", "Thai", "25", "", "", "", "4.7", "", "", ""),
		row("Green Curry", "['Coconut Milk', 'Chicken']", "thai", "45", "", "", "", "4.2", "", "", ""),
		row("Omelette", "['Egg', 'Butter']", "French", "10", "", "", "", "4.0", "", "", ""),
		"too,short",
		row("Ratatouille", "['Eggplant', 'Zucchini']", "French", "60", "", "", "", "4.4", "", "", ""),
	)
}

func TestStore_EmptyBeforeReload(t *testing.T) {
	s := NewStore(&fakeFetcher{}, Options{})

	snap := s.Current()
	if snap == nil {
		t.Fatal("Current() = nil")
	}
	if snap.Loaded() {
		t.Error("Loaded() = true before first reload")
	}
	if snap.Len() != 0 {
		t.Errorf("Len() = %d, want 0", snap.Len())
	}
	if _, err := s.Get(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(1) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Reload(t *testing.T) {
	f := &fakeFetcher{text: sampleCatalog()}
	obs := &recordingObserver{}
	s := NewStore(f, Options{MaxRows: DefaultMaxRows})
	s.SetObserver(obs)

	res, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !res.Changed {
		t.Error("Changed = false on first reload")
	}
	if res.Snapshot != s.Current() {
		t.Error("result snapshot is not the active snapshot")
	}
	if !res.Snapshot.Loaded() {
		t.Error("Loaded() = false after reload")
	}
	if res.Snapshot.Source != "fake" {
		t.Errorf("Source = %q, want fake", res.Snapshot.Source)
	}
	if got := res.Snapshot.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}

	stats := obs.last()
	if !stats.Changed || stats.Err != nil {
		t.Errorf("stats = %+v, want changed without error", stats)
	}
	if stats.DataRows != 5 || stats.Records != 4 || stats.Dropped() != 1 {
		t.Errorf("stats rows=%d records=%d dropped=%d, want 5/4/1", stats.DataRows, stats.Records, stats.Dropped())
	}
	if stats.Bytes != len(sampleCatalog()) {
		t.Errorf("stats.Bytes = %d, want %d", stats.Bytes, len(sampleCatalog()))
	}

	r, err := s.Get(4)
	if err != nil {
		t.Fatalf("Get(4) error = %v", err)
	}
	if r.Name != "Ratatouille" {
		t.Errorf("Get(4).Name = %q, want Ratatouille", r.Name)
	}
	for _, id := range []int{0, 5, -1} {
		if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%d) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestStore_ReloadUnchanged(t *testing.T) {
	f := &fakeFetcher{text: sampleCatalog()}
	obs := &recordingObserver{}
	s := NewStore(f, Options{})
	s.SetObserver(obs)

	first, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	second, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("second Reload() error = %v", err)
	}

	if second.Changed {
		t.Error("Changed = true for identical text")
	}
	if second.Snapshot != first.Snapshot {
		t.Error("unchanged reload replaced the snapshot")
	}
	if stats := obs.last(); stats.Changed || stats.Records != 4 || stats.DataRows != 0 {
		t.Errorf("unchanged stats = %+v", stats)
	}

	f.set(sampleCatalog()+row("Tacos", "['Tortilla']", "Mexican", "15", "", "", "", "", "", "", "")+"\n", nil)
	third, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("third Reload() error = %v", err)
	}
	if !third.Changed || third.Snapshot.Len() != 5 {
		t.Errorf("third reload changed=%v len=%d, want true/5", third.Changed, third.Snapshot.Len())
	}
	if third.Snapshot.ID == first.Snapshot.ID {
		t.Error("new snapshot reused the previous ingest ID")
	}
}

func TestStore_ReloadErrorKeepsSnapshot(t *testing.T) {
	f := &fakeFetcher{text: sampleCatalog()}
	obs := &recordingObserver{}
	s := NewStore(f, Options{})
	s.SetObserver(obs)

	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	before := s.Current()

	boom := errors.New("connection refused")
	f.set("", boom)

	_, err := s.Reload(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Reload() error = %v, want wrapped %v", err, boom)
	}
	if s.Current() != before {
		t.Error("failed reload replaced the snapshot")
	}
	if stats := obs.last(); !errors.Is(stats.Err, boom) {
		t.Errorf("stats.Err = %v, want %v", stats.Err, boom)
	}
}

func TestStore_ReloadEmptyText(t *testing.T) {
	s := NewStore(&fakeFetcher{text: ""}, Options{})

	res, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	// An empty document is a valid, loaded, empty catalog.
	if !res.Snapshot.Loaded() || res.Snapshot.Len() != 0 {
		t.Errorf("snapshot loaded=%v len=%d, want true/0", res.Snapshot.Loaded(), res.Snapshot.Len())
	}
}

func TestStore_ConcurrentReadsDuringReload(t *testing.T) {
	f := &fakeFetcher{text: sampleCatalog()}
	s := NewStore(f, Options{})
	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if n := len(s.Filter(Query{})); n != 4 && n != 5 {
					t.Errorf("Filter() returned %d recipes", n)
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		text := sampleCatalog()
		if i%2 == 1 {
			text += row("Tacos", "[]", "Mexican", "", "", "", "", "", "", "", "") + "\n"
		}
		f.set(text, nil)
		if _, err := s.Reload(context.Background()); err != nil {
			t.Errorf("Reload() error = %v", err)
		}
	}
	wg.Wait()
}

func TestSnapshot_Filter(t *testing.T) {
	snap := &Snapshot{Recipes: Ingest(sampleCatalog(), Options{})}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"everything", Query{}, []string{"Pad Thai", "Green Curry", "Omelette", "Ratatouille"}},
		{"any cuisine", Query{Cuisine: "Any"}, []string{"Pad Thai", "Green Curry", "Omelette", "Ratatouille"}},
		{"cuisine ignores case", Query{Cuisine: "THAI"}, []string{"Pad Thai", "Green Curry"}},
		{"max time inclusive", Query{MaxTime: 25}, []string{"Pad Thai", "Omelette"}},
		{"cuisine and time", Query{Cuisine: "french", MaxTime: 30}, []string{"Omelette"}},
		{"any ingredient", Query{Ingredients: []string{"egg", "zucchini"}}, []string{"Pad Thai", "Omelette", "Ratatouille"}},
		{"ingredient substring", Query{Ingredients: []string{"coconut"}}, []string{"Green Curry"}},
		{"limit", Query{Limit: 2}, []string{"Pad Thai", "Green Curry"}},
		{"no match", Query{Cuisine: "Mexican"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.Filter(tt.query)
			if got == nil {
				t.Fatal("Filter() returned nil")
			}
			names := make([]string, len(got))
			for i, r := range got {
				names[i] = r.Name
			}
			if len(names) != len(tt.want) {
				t.Fatalf("Filter() = %q, want %q", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("Filter()[%d] = %q, want %q", i, names[i], tt.want[i])
				}
			}
		})
	}
}

func TestSnapshot_Cuisines(t *testing.T) {
	snap := &Snapshot{Recipes: Ingest(sampleCatalog(), Options{})}

	got := snap.Cuisines()
	want := []string{"French", "Thai", "thai"}
	if len(got) != len(want) {
		t.Fatalf("Cuisines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cuisines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStore_RunReloader(t *testing.T) {
	f := &fakeFetcher{text: sampleCatalog()}
	s := NewStore(f, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunReloader(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !s.Current().Loaded() {
		select {
		case <-deadline:
			cancel()
			t.Fatal("reloader never loaded the catalog")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunReloader did not stop after cancel")
	}
}

func TestStore_RunReloaderDisabled(t *testing.T) {
	f := &fakeFetcher{text: sampleCatalog()}
	s := NewStore(f, Options{})

	// Returns immediately without fetching.
	s.RunReloader(context.Background(), 0)
	if f.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", f.calls)
	}
}
