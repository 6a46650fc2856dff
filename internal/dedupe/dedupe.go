// Package dedupe coalesces concurrent identical catalog fetches.
package dedupe

import (
	"golang.org/x/sync/singleflight"

	"github.com/weboliver/collectsearch/internal/models"
)

// Deduper shares one in-flight fetch among concurrent callers using the same
// normalized key. The registration is removed when the call settles, success
// or failure, so a failed fetch is never replayed to later callers.
type Deduper struct {
	group singleflight.Group
}

// New creates a Deduper.
func New() *Deduper {
	return &Deduper{}
}

// Do invokes fn once per key among concurrent callers; every caller receives
// the same resolution or the same error. shared reports whether the result
// was produced by another caller's flight. Each caller gets its own deep
// copy so payloads never alias across goroutines: callers re-score their
// results in place, and a shared payload struct would race.
func (d *Deduper) Do(key string, fn func() ([]models.Suggestion, error)) (results []models.Suggestion, shared bool, err error) {
	v, err, shared := d.group.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, shared, err
	}
	src, _ := v.([]models.Suggestion)
	out := make([]models.Suggestion, len(src))
	for i := range src {
		out[i] = src[i].Clone()
	}
	return out, shared, nil
}

// Forget drops the in-flight registration for key so the next Do issues a
// fresh fetch even if an older flight is still running.
func (d *Deduper) Forget(key string) {
	d.group.Forget(key)
}
