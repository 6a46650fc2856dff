package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/weboliver/collectsearch/internal/cache"
	"github.com/weboliver/collectsearch/internal/catalog"
	"github.com/weboliver/collectsearch/internal/config"
	"github.com/weboliver/collectsearch/internal/dedupe"
	"github.com/weboliver/collectsearch/internal/models"
	"github.com/weboliver/collectsearch/internal/ranking"
)

// fakeSearcher is a controllable catalog backend. When block is non-nil the
// next call waits on it (or on ctx cancellation).
type fakeSearcher struct {
	mu      sync.Mutex
	calls   int
	queries []string
	results []models.Suggestion
	err     error
	block   chan struct{}
}

func (f *fakeSearcher) search(ctx context.Context, query string) ([]models.Suggestion, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, query)
	block := f.block
	results := f.results
	err := f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.Suggestion, len(results))
	copy(out, results)
	return out, nil
}

func (f *fakeSearcher) SearchSets(ctx context.Context, q string, _ catalog.Filters, _ int) ([]models.Suggestion, error) {
	return f.search(ctx, q)
}
func (f *fakeSearcher) SearchCards(ctx context.Context, q string, _ catalog.Filters, _ int) ([]models.Suggestion, error) {
	return f.search(ctx, q)
}
func (f *fakeSearcher) SearchProducts(ctx context.Context, q string, _ catalog.Filters, _ int) ([]models.Suggestion, error) {
	return f.search(ctx, q)
}
func (f *fakeSearcher) SearchCategories(ctx context.Context, q string, _ catalog.Filters, _ int) ([]models.Suggestion, error) {
	return f.search(ctx, q)
}
func (f *fakeSearcher) SearchSetProducts(ctx context.Context, q string, _ catalog.Filters, _ int) ([]models.Suggestion, error) {
	return f.search(ctx, q)
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSearcher) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

type updateCollector struct {
	ch chan Update
}

func newCollector() *updateCollector {
	return &updateCollector{ch: make(chan Update, 32)}
}

func (c *updateCollector) listener(u Update) {
	c.ch <- u
}

func (c *updateCollector) next(t *testing.T) Update {
	t.Helper()
	select {
	case u := <-c.ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func (c *updateCollector) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case u := <-c.ch:
		t.Fatalf("unexpected update: %+v", u)
	case <-time.After(wait):
	}
}

func testEngine(t *testing.T, fake *fakeSearcher, col *updateCollector) *Engine {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Search.DebounceMs = 20
	e := NewEngine(
		fake,
		cache.New(100, time.Minute, time.Minute),
		dedupe.New(),
		ranking.NewScorer(nil),
		cfg,
		nil,
		col.listener,
	)
	t.Cleanup(e.Close)
	return e
}

func cardResults(names ...string) []models.Suggestion {
	out := make([]models.Suggestion, 0, len(names))
	for i, n := range names {
		out = append(out, models.NewCard(models.CardSuggestion{
			ID: n + "-" + string(rune('a'+i)), CardName: n, BaseName: n, SetName: "Base Set",
		}))
	}
	return out
}

func TestEngine_DebounceSupersession(t *testing.T) {
	fake := &fakeSearcher{results: cardResults("Base Set Charizard")}
	col := newCollector()
	e := testEngine(t, fake, col)

	// Four keystrokes inside the debounce window: one fetch, for the last.
	for _, q := range []string{"b", "ba", "bas", "base"} {
		e.Search(models.FieldCardProduct, q, catalog.Filters{})
		time.Sleep(2 * time.Millisecond)
	}

	u := col.next(t)
	// The "b" keystroke is below min length and publishes a synchronous
	// clear before the debounced result.
	if u.Query == "b" {
		u = col.next(t)
	}
	if u.Query != "base" {
		t.Errorf("published query = %q, want base", u.Query)
	}
	if got := fake.callCount(); got != 1 {
		t.Errorf("backend called %d times, want 1", got)
	}
	if fake.lastQuery() != "base" {
		t.Errorf("backend saw query %q, want base", fake.lastQuery())
	}
}

func TestEngine_ShortQueryClearsSynchronously(t *testing.T) {
	fake := &fakeSearcher{results: cardResults("Charizard")}
	col := newCollector()
	e := testEngine(t, fake, col)

	e.Search(models.FieldCardProduct, "x", catalog.Filters{})

	u := col.next(t)
	if len(u.Suggestions) != 0 || u.Err != "" {
		t.Errorf("short query should clear, got %+v", u)
	}
	col.expectNone(t, 80*time.Millisecond)
	if fake.callCount() != 0 {
		t.Errorf("backend called %d times, want 0", fake.callCount())
	}
}

func TestEngine_EmptyQueryWithParentIsWildcard(t *testing.T) {
	fake := &fakeSearcher{results: cardResults("Charizard", "Blastoise")}
	col := newCollector()
	e := testEngine(t, fake, col)

	e.Search(models.FieldCardProduct, "", catalog.Filters{SetName: "Base Set"})

	u := col.next(t)
	if len(u.Suggestions) != 2 {
		t.Fatalf("wildcard browse returned %d suggestions, want 2", len(u.Suggestions))
	}
	if fake.callCount() != 1 {
		t.Errorf("backend called %d times, want 1", fake.callCount())
	}
	if fake.lastQuery() != "" {
		t.Errorf("backend saw query %q, want empty wildcard", fake.lastQuery())
	}
}

func TestEngine_CacheHitSkipsBackend(t *testing.T) {
	fake := &fakeSearcher{results: cardResults("Charizard")}
	col := newCollector()
	e := testEngine(t, fake, col)

	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{})
	first := col.next(t)
	if first.Meta.Cached {
		t.Error("first fetch should be a cache miss")
	}

	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{})
	second := col.next(t)
	if !second.Meta.Cached {
		t.Error("second fetch should be served from cache")
	}
	if fake.callCount() != 1 {
		t.Errorf("backend called %d times, want 1", fake.callCount())
	}
}

func TestEngine_FilterContextSplitsCacheKeys(t *testing.T) {
	fake := &fakeSearcher{results: cardResults("Charizard")}
	col := newCollector()
	e := testEngine(t, fake, col)

	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{})
	col.next(t)
	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{SetName: "Base Set"})
	u := col.next(t)

	if u.Meta.Cached {
		t.Error("different filter context must not share a cache entry")
	}
	if fake.callCount() != 2 {
		t.Errorf("backend called %d times, want 2", fake.callCount())
	}
}

func TestEngine_StaleResponseDropped(t *testing.T) {
	fake := &fakeSearcher{results: cardResults("Slow Result"), block: make(chan struct{})}
	col := newCollector()
	e := testEngine(t, fake, col)

	// First query blocks in the backend.
	e.Search(models.FieldCardProduct, "slowquery", catalog.Filters{})
	for fake.callCount() == 0 {
		time.Sleep(2 * time.Millisecond)
	}

	// Second query for the same field supersedes it.
	fake.mu.Lock()
	block := fake.block
	fake.block = nil
	fake.results = cardResults("Fast Result")
	fake.mu.Unlock()
	e.Search(models.FieldCardProduct, "fastquery", catalog.Filters{})

	u := col.next(t)
	if len(u.Suggestions) != 1 || u.Suggestions[0].DisplayName() != "Fast Result" {
		t.Fatalf("expected fast result first, got %+v", u)
	}

	// Let the slow call finish; its result must never surface.
	close(block)
	col.expectNone(t, 100*time.Millisecond)
}

func TestEngine_FetchErrorIsFieldScopedAndUncached(t *testing.T) {
	fake := &fakeSearcher{err: errors.New("connection refused")}
	col := newCollector()
	e := testEngine(t, fake, col)

	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{})
	u := col.next(t)
	if u.Err == "" {
		t.Fatal("expected field-scoped error")
	}
	if len(u.Suggestions) != 0 {
		t.Error("error updates carry no suggestions")
	}

	// Failures are never cached: the next search hits the backend again.
	fake.mu.Lock()
	fake.err = nil
	fake.results = cardResults("Charizard")
	fake.mu.Unlock()

	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{})
	u = col.next(t)
	if u.Err != "" || len(u.Suggestions) != 1 {
		t.Errorf("recovery fetch failed: %+v", u)
	}
	if fake.callCount() != 2 {
		t.Errorf("backend called %d times, want 2", fake.callCount())
	}
}

func TestEngine_ResultsRankedAndTruncated(t *testing.T) {
	names := []string{"Dark Charizard"}
	for i := 0; i < 20; i++ {
		names = append(names, "Charizard Variant")
	}
	fake := &fakeSearcher{results: append(cardResults(names...), cardResults("Charizard")...)}
	col := newCollector()
	e := testEngine(t, fake, col)

	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{})
	u := col.next(t)

	if len(u.Suggestions) != 15 {
		t.Fatalf("got %d suggestions, want 15 (truncated)", len(u.Suggestions))
	}
	if u.Suggestions[0].DisplayName() != "Charizard" {
		t.Errorf("exact match not first: %q", u.Suggestions[0].DisplayName())
	}
	for i := 1; i < len(u.Suggestions); i++ {
		if u.Suggestions[i].Score() > u.Suggestions[i-1].Score() {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestEngine_CancelFieldSilencesInFlight(t *testing.T) {
	fake := &fakeSearcher{results: cardResults("Charizard"), block: make(chan struct{})}
	col := newCollector()
	e := testEngine(t, fake, col)

	e.Search(models.FieldCardProduct, "charizard", catalog.Filters{})
	for fake.callCount() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	e.CancelField(models.FieldCardProduct)
	close(fake.block)

	col.expectNone(t, 100*time.Millisecond)
}

func TestEngine_BestMatch(t *testing.T) {
	fake := &fakeSearcher{results: append(cardResults("Dark Charizard"), cardResults("Charizard")...)}
	col := newCollector()
	e := testEngine(t, fake, col)

	best, err := e.BestMatch(context.Background(), models.FieldCardProduct, "charizard", catalog.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if best == nil || best.DisplayName() != "Charizard" {
		t.Fatalf("best match = %+v, want Charizard", best)
	}

	// Empty query has no best match.
	best, err = e.BestMatch(context.Background(), models.FieldCardProduct, "  ", catalog.Filters{})
	if err != nil || best != nil {
		t.Errorf("expected nil best match for empty query, got %+v, %v", best, err)
	}

	// No updates are published by BestMatch.
	col.expectNone(t, 50*time.Millisecond)
}

func TestCacheKey_Normalization(t *testing.T) {
	a := CacheKey(models.KindCard, "  Charizard ", catalog.Filters{SetName: "Base Set"})
	b := CacheKey(models.KindCard, "charizard", catalog.Filters{SetName: "base set"})
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	c := CacheKey(models.KindProduct, "charizard", catalog.Filters{})
	if a == c {
		t.Error("different kinds must not collide")
	}
}
