// Package suggest provides the debounced suggestion engine: the pipeline
// from keystroke to published suggestion list (debounce -> cache -> dedupe
// -> fetch -> rank -> cache store -> publish).
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/weboliver/collectsearch/internal/cache"
	"github.com/weboliver/collectsearch/internal/catalog"
	"github.com/weboliver/collectsearch/internal/config"
	"github.com/weboliver/collectsearch/internal/dedupe"
	"github.com/weboliver/collectsearch/internal/models"
	"github.com/weboliver/collectsearch/internal/ranking"
)

// Meta carries performance metadata published with each suggestion list.
type Meta struct {
	Cached    bool          `json:"cached"`
	Shared    bool          `json:"shared"`
	HitRate   float64       `json:"hit_rate"`
	QueryTime time.Duration `json:"query_time"`
}

// Update is one published suggestion state for a field. Err is a
// field-scoped error message; it never carries cancellation.
type Update struct {
	Field       models.FieldType
	Query       string
	Suggestions []models.Suggestion
	Err         string
	Meta        Meta
}

// Listener receives published updates. It is invoked with engine internals
// locked and must not call back into the engine.
type Listener func(Update)

type fieldState struct {
	timer  *time.Timer
	cancel context.CancelFunc
	seq    uint64
}

// Engine owns the per-field debounce timers, in-flight cancellation, and
// the suggestion pipeline. One Engine serves one session; the cache and
// deduper may be shared across engines.
type Engine struct {
	searcher catalog.Searcher
	cache    *cache.Cache
	deduper  *dedupe.Deduper
	scorer   *ranking.Scorer
	cfg      *config.Config
	logger   *zap.Logger
	listener Listener

	mu     sync.Mutex
	fields map[models.FieldType]*fieldState
	closed bool
	wg     sync.WaitGroup
}

// NewEngine creates an engine with the given dependencies.
func NewEngine(
	searcher catalog.Searcher,
	c *cache.Cache,
	d *dedupe.Deduper,
	scorer *ranking.Scorer,
	cfg *config.Config,
	logger *zap.Logger,
	listener Listener,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		searcher: searcher,
		cache:    c,
		deduper:  d,
		scorer:   scorer,
		cfg:      cfg,
		logger:   logger,
		listener: listener,
		fields:   make(map[models.FieldType]*fieldState),
	}
}

// Search is the fire-and-forget entry point for keystrokes. Queries below
// the minimum length clear the field's suggestions synchronously and cancel
// any pending work for the field; anything else re-arms the field's
// debounce timer, so only the last keystroke within the window resolves.
// An empty query with a parent filter is a wildcard browse and still
// fetches.
func (e *Engine) Search(field models.FieldType, query string, fctx catalog.Filters) {
	trimmed := strings.TrimSpace(query)
	wildcard := trimmed == "" && (fctx.SetName != "" || fctx.Category != "")

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fs := e.fieldLocked(field)

	if !wildcard && len([]rune(trimmed)) < e.cfg.Search.MinQueryLength {
		// Not an error: too-short input just clears the dropdown, before
		// any debounce. Bumping the sequence drops late in-flight results.
		fs.seq++
		e.cancelFieldLocked(fs)
		e.publishLocked(Update{Field: field, Query: trimmed})
		e.mu.Unlock()
		return
	}

	if fs.timer != nil {
		fs.timer.Stop()
	}
	fs.timer = time.AfterFunc(e.cfg.Search.Debounce(), func() {
		e.resolve(field, trimmed, fctx)
	})
	e.mu.Unlock()
}

// resolve runs the pipeline for one debounced query.
func (e *Engine) resolve(field models.FieldType, query string, fctx catalog.Filters) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fs := e.fieldLocked(field)
	e.cancelFieldLocked(fs)
	fs.seq++
	seq := fs.seq
	ctx, cancel := context.WithCancel(context.Background())
	fs.cancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer cancel()
		e.run(ctx, field, seq, query, fctx)
	}()
}

func (e *Engine) run(ctx context.Context, field models.FieldType, seq uint64, query string, fctx catalog.Filters) {
	start := time.Now()
	kind := field.Kind()
	key := CacheKey(kind, query, fctx)

	if results, ok := e.cache.Get(key); ok {
		e.logger.Debug("suggestion cache hit",
			zap.String("field", field.String()), zap.String("key", key))
		e.publish(field, seq, Update{
			Field:       field,
			Query:       query,
			Suggestions: results,
			Meta: Meta{
				Cached:    true,
				HitRate:   e.cache.Stats().HitRate,
				QueryTime: time.Since(start),
			},
		})
		return
	}

	results, shared, err := e.deduper.Do(key, func() ([]models.Suggestion, error) {
		return catalog.Search(ctx, e.searcher, kind, query, fctx, e.cfg.Search.FetchLimit)
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			// Superseded by a newer query (or sharing a cancelled flight):
			// silent no-op, never an error.
			return
		}
		e.logger.Warn("suggestion fetch failed",
			zap.String("field", field.String()), zap.Error(err))
		e.publish(field, seq, Update{
			Field: field,
			Query: query,
			Err:   fmt.Sprintf("search failed: %v", err),
			Meta:  Meta{QueryTime: time.Since(start)},
		})
		return
	}

	pctx := ranking.ParentContext{SetName: fctx.SetName, Category: fctx.Category}
	ranked := ranking.Truncate(e.scorer.Rank(results, query, pctx), e.cfg.Search.MaxResults)
	e.cache.PutWithTTL(key, ranked, e.cfg.Cache.TTLFor(kind.String()))

	e.publish(field, seq, Update{
		Field:       field,
		Query:       query,
		Suggestions: ranked,
		Meta: Meta{
			Shared:    shared,
			HitRate:   e.cache.Stats().HitRate,
			QueryTime: time.Since(start),
		},
	})
}

// publish delivers an update unless a newer request for the field has been
// issued since seq was captured: last request wins, stale responses drop.
func (e *Engine) publish(field models.FieldType, seq uint64, u Update) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	fs := e.fieldLocked(field)
	if fs.seq != seq {
		e.logger.Debug("stale suggestion response dropped",
			zap.String("field", field.String()),
			zap.Uint64("seq", seq), zap.Uint64("current", fs.seq))
		return
	}
	e.publishLocked(u)
}

func (e *Engine) publishLocked(u Update) {
	if e.listener != nil {
		e.listener(u)
	}
}

// BestMatch resolves a query immediately (no debounce, no publication) and
// returns the single top-ranked suggestion, or nil when nothing matches.
// Used for blind autofill without opening a dropdown.
func (e *Engine) BestMatch(ctx context.Context, field models.FieldType, query string, fctx catalog.Filters) (*models.Suggestion, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}
	kind := field.Kind()
	key := CacheKey(kind, trimmed, fctx)

	results, ok := e.cache.Get(key)
	if !ok {
		var err error
		results, _, err = e.deduper.Do(key, func() ([]models.Suggestion, error) {
			return catalog.Search(ctx, e.searcher, kind, trimmed, fctx, e.cfg.Search.FetchLimit)
		})
		if err != nil {
			return nil, err
		}
		pctx := ranking.ParentContext{SetName: fctx.SetName, Category: fctx.Category}
		results = ranking.Truncate(e.scorer.Rank(results, trimmed, pctx), e.cfg.Search.MaxResults)
		e.cache.PutWithTTL(key, results, e.cfg.Cache.TTLFor(kind.String()))
	}
	if len(results) == 0 {
		return nil, nil
	}
	top := results[0].Clone()
	return &top, nil
}

// CancelField drops pending and in-flight work for a field without
// publishing anything (e.g. when the field loses focus).
func (e *Engine) CancelField(field models.FieldType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fs := e.fieldLocked(field)
	fs.seq++
	e.cancelFieldLocked(fs)
}

// Close cancels all timers and in-flight fetches and waits for worker
// goroutines to finish. The engine publishes nothing after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, fs := range e.fields {
		e.cancelFieldLocked(fs)
	}
	e.mu.Unlock()
	e.wg.Wait()
}

// fieldLocked returns the state for field, creating it on first use.
// Caller holds e.mu.
func (e *Engine) fieldLocked(field models.FieldType) *fieldState {
	fs, ok := e.fields[field]
	if !ok {
		fs = &fieldState{}
		e.fields[field] = fs
	}
	return fs
}

// cancelFieldLocked stops the debounce timer and aborts the in-flight
// fetch for a field. Caller holds e.mu.
func (e *Engine) cancelFieldLocked(fs *fieldState) {
	if fs.timer != nil {
		fs.timer.Stop()
		fs.timer = nil
	}
	if fs.cancel != nil {
		fs.cancel()
		fs.cancel = nil
	}
}

// CacheKey builds the normalized cache key for a query and filter context.
func CacheKey(kind models.Kind, query string, fctx catalog.Filters) string {
	return fmt.Sprintf("%s:%s|set=%s|cat=%s",
		kind,
		strings.ToLower(strings.TrimSpace(query)),
		strings.ToLower(fctx.SetName),
		strings.ToLower(fctx.Category),
	)
}
