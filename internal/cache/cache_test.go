package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/weboliver/collectsearch/internal/models"
)

func someResults(names ...string) []models.Suggestion {
	out := make([]models.Suggestion, 0, len(names))
	for _, n := range names {
		out = append(out, models.NewSet(models.SetSuggestion{SetName: n}))
	}
	return out
}

func TestCache_GetPut(t *testing.T) {
	c := New(10, time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("base", someResults("Base Set"))
	got, ok := c.Get("base")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got) != 1 || got[0].DisplayName() != "Base Set" {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10, time.Minute, time.Minute)
	c.PutWithTTL("short", someResults("Base Set"), 50*time.Millisecond)

	if _, ok := c.Get("short"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatal("expected miss after expiry")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry not removed, size = %d", c.Size())
	}
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c := New(3, time.Minute, time.Minute)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), someResults("x"))
		time.Sleep(2 * time.Millisecond) // distinct creation times
	}
	c.Put("k3", someResults("x"))

	if c.Size() != 3 {
		t.Fatalf("size = %d, want 3", c.Size())
	}
	if _, ok := c.Get("k0"); ok {
		t.Error("oldest entry k0 should have been evicted")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("newest entry k3 should be present")
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New(2, time.Minute, time.Minute)
	c.Put("a", someResults("x"))
	c.Put("b", someResults("y"))
	c.Put("a", someResults("z"))

	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
	got, ok := c.Get("a")
	if !ok || got[0].DisplayName() != "z" {
		t.Errorf("overwrite not applied: %+v", got)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should not have been evicted by an overwrite")
	}
}

func TestCache_Sweep(t *testing.T) {
	c := New(10, time.Minute, time.Minute)
	c.PutWithTTL("gone1", someResults("x"), 10*time.Millisecond)
	c.PutWithTTL("gone2", someResults("y"), 10*time.Millisecond)
	c.Put("kept", someResults("z"))

	time.Sleep(30 * time.Millisecond)
	removed := c.Sweep()
	if removed != 2 {
		t.Errorf("Sweep() removed %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("size after sweep = %d, want 1", c.Size())
	}
}

func TestCache_SweepLoop(t *testing.T) {
	c := New(10, time.Minute, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	c.PutWithTTL("ephemeral", someResults("x"), 10*time.Millisecond)

	deadline := time.After(500 * time.Millisecond)
	for c.Size() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweep loop never removed the expired entry")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCache_Stats(t *testing.T) {
	c := New(10, time.Minute, time.Minute)
	c.Put("hit", someResults("x"))

	c.Get("hit")
	c.Get("hit")
	c.Get("miss")

	s := c.Stats()
	if s.TotalQueries != 3 {
		t.Errorf("total = %d, want 3", s.TotalQueries)
	}
	if s.CacheHits != 2 {
		t.Errorf("hits = %d, want 2", s.CacheHits)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("hit rate = %v, want ~0.667", s.HitRate)
	}
}

func TestCache_CopyOnRead(t *testing.T) {
	c := New(10, time.Minute, time.Minute)
	c.Put("k", someResults("Base Set"))

	got, _ := c.Get("k")
	got[0] = models.NewSet(models.SetSuggestion{SetName: "Mutated"})

	again, _ := c.Get("k")
	if again[0].DisplayName() != "Base Set" {
		t.Error("cached slice was mutated through a returned copy")
	}
}

func TestCache_PayloadIsolation(t *testing.T) {
	c := New(10, time.Minute, time.Minute)
	stored := []models.Suggestion{models.NewCard(models.CardSuggestion{
		ID: "c1", CardName: "Charizard", BaseName: "Charizard",
	})}
	c.Put("k", stored)

	// Writer side: mutating the caller's slice after Put must not reach the
	// cached entry.
	stored[0].Card.CardName = "mutated-by-writer"
	got, _ := c.Get("k")
	if got[0].Card.CardName != "Charizard" {
		t.Errorf("cached entry aliased the writer's payload: %q", got[0].Card.CardName)
	}

	// Reader side: mutating through a returned payload pointer must not
	// reach the cached entry either.
	got[0].Card.CardName = "mutated-by-reader"
	again, _ := c.Get("k")
	if again[0].Card.CardName != "Charizard" {
		t.Errorf("cached entry mutated through a reader's copy: %q", again[0].Card.CardName)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(10, time.Minute, time.Minute)
	c.Put("a", someResults("x"))
	c.Put("b", someResults("y"))
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("size after Clear = %d, want 0", c.Size())
	}
}
