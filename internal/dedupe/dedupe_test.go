package dedupe

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/weboliver/collectsearch/internal/models"
)

func TestDeduper_SharesOneFlight(t *testing.T) {
	d := New()
	var calls int32
	release := make(chan struct{})

	fn := func() ([]models.Suggestion, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []models.Suggestion{models.NewSet(models.SetSuggestion{SetName: "Base Set"})}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]models.Suggestion, callers)
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			r, _, err := d.Do("q", fn)
			if err != nil {
				t.Errorf("Do() error: %v", err)
				return
			}
			results[i] = r
		}(i)
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("factory invoked %d times, want 1", got)
	}
	for i, r := range results {
		if len(r) != 1 || r[0].DisplayName() != "Base Set" {
			t.Errorf("caller %d got unexpected results: %+v", i, r)
		}
	}
}

func TestDeduper_ErrorsSharedNotCached(t *testing.T) {
	d := New()
	var calls int32
	fn := func() ([]models.Suggestion, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("network down")
	}

	if _, _, err := d.Do("q", fn); err == nil {
		t.Fatal("expected error")
	}
	// The registration is released on settle: a later call fetches again.
	if _, _, err := d.Do("q", fn); err == nil {
		t.Fatal("expected error on second call")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("factory invoked %d times, want 2 (no error caching)", got)
	}
}

func TestDeduper_DistinctKeysDistinctFlights(t *testing.T) {
	d := New()
	var calls int32
	fn := func() ([]models.Suggestion, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	if _, _, err := d.Do("a", fn); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Do("b", fn); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("factory invoked %d times, want 2", got)
	}
}

func TestDeduper_CallersGetIndependentCopies(t *testing.T) {
	d := New()
	fn := func() ([]models.Suggestion, error) {
		return []models.Suggestion{models.NewSet(models.SetSuggestion{SetName: "Base Set"})}, nil
	}

	a, _, _ := d.Do("q", fn)
	a[0] = models.NewSet(models.SetSuggestion{SetName: "Mutated"})

	b, _, _ := d.Do("q", fn)
	if b[0].DisplayName() != "Base Set" {
		t.Error("second caller observed first caller's mutation")
	}
}

func TestDeduper_PayloadsNotAliasedAcrossSharedFlight(t *testing.T) {
	d := New()
	release := make(chan struct{})
	fn := func() ([]models.Suggestion, error) {
		<-release
		return []models.Suggestion{models.NewCard(models.CardSuggestion{
			ID: "c1", CardName: "Charizard", BaseName: "Charizard",
		})}, nil
	}

	const callers = 2
	var wg sync.WaitGroup
	results := make([][]models.Suggestion, callers)
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			results[i], _, _ = d.Do("q", fn)
		}(i)
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	close(release)
	wg.Wait()

	// Both callers shared one flight; writing through one caller's payload
	// pointer must not reach the other's copy.
	results[0][0].Card.CardName = "mutated"
	if got := results[1][0].Card.CardName; got != "Charizard" {
		t.Errorf("payload aliased across callers of a shared flight: %q", got)
	}
}
