package orchestrator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/weboliver/collectsearch/internal/hierarchy"
	"github.com/weboliver/collectsearch/internal/models"
	"github.com/weboliver/collectsearch/internal/suggest"
)

// Snapshot is the full reactive state of one session as exposed to UI
// clients: the hierarchical field state plus the current suggestion list
// and its metadata. Version increases on every published change; clients
// can long-poll against it.
type Snapshot struct {
	hierarchy.State

	Version         uint64              `json:"version"`
	SuggestionField models.FieldType    `json:"suggestion_field"`
	Suggestions     []models.Suggestion `json:"suggestions"`
	Loading         bool                `json:"loading"`
	Error           string              `json:"error,omitempty"`
	Meta            suggest.Meta        `json:"meta"`
}

// Session is the stateful object consumed by one UI client. It owns the
// hierarchy machine and a suggestion engine; the engine's debounce timers
// and in-flight fetches are released by Close.
type Session struct {
	id      string
	machine *hierarchy.Machine
	engine  *suggest.Engine
	logger  *zap.Logger

	mu          sync.Mutex
	version     uint64
	sugField    models.FieldType
	suggestions []models.Suggestion
	loading     bool
	lastErr     string
	meta        suggest.Meta
	notify      chan struct{}
}

func newSession(id string, o *Orchestrator) *Session {
	s := &Session{
		id:      id,
		machine: hierarchy.NewMachine(),
		logger:  o.logger,
		notify:  make(chan struct{}),
	}
	s.engine = suggest.NewEngine(
		o.searcher, o.cache, o.deduper, o.scorer, o.cfg, o.logger, s.onUpdate,
	)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// onUpdate receives engine publications. Suggestions are only retained for
// the currently active field; anything else was superseded by a focus
// change and is dropped.
func (s *Session) onUpdate(u suggest.Update) {
	if u.Field != s.machine.ActiveField() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sugField = u.Field
	s.suggestions = u.Suggestions
	s.lastErr = u.Err
	s.meta = u.Meta
	s.loading = false
	s.bumpLocked()
}

// UpdateSetName records typing in the set field and schedules a suggestion
// fetch for it.
func (s *Session) UpdateSetName(value string) {
	s.updateField(models.FieldSet, value)
}

// UpdateCategoryName records typing in the category field.
func (s *Session) UpdateCategoryName(value string) {
	s.updateField(models.FieldCategory, value)
}

// UpdateCardProductName records typing in the card/product field. The fetch
// is filtered by the selected set, when one is committed.
func (s *Session) UpdateCardProductName(value string) {
	s.updateField(models.FieldCardProduct, value)
}

// UpdateSetProductName records typing in the sealed-product set field.
func (s *Session) UpdateSetProductName(value string) {
	s.updateField(models.FieldSetProduct, value)
}

// UpdateProductName records typing in the product field, filtered by the
// selected set-product and category.
func (s *Session) UpdateProductName(value string) {
	s.updateField(models.FieldProduct, value)
}

// UpdateField dispatches to the typed update for field.
func (s *Session) UpdateField(field models.FieldType, value string) error {
	switch field {
	case models.FieldSet, models.FieldCategory, models.FieldCardProduct,
		models.FieldSetProduct, models.FieldProduct:
		s.updateField(field, value)
		return nil
	default:
		return models.ErrUnknownField
	}
}

func (s *Session) updateField(field models.FieldType, value string) {
	s.machine.Type(field, value)
	fctx := s.machine.Filters(field)

	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.bumpLocked()
	s.mu.Unlock()

	// Engine publications re-enter via onUpdate, so no session lock is
	// held across this call.
	s.engine.Search(field, value, fctx)
}

// HandleSelect commits a chosen suggestion for a field, dispatching to the
// parent or child transition and closing the dropdown.
func (s *Session) HandleSelect(result models.Suggestion, field models.FieldType) error {
	if !result.Valid() {
		// A malformed selection degrades to clearing the field rather
		// than corrupting state. Parent fields cascade to their child.
		if field.IsParent() {
			s.machine.ClearParent(field)
		} else {
			s.machine.ClearChild(field)
		}
		return models.ErrMalformedSuggestion
	}

	if field.IsParent() {
		s.machine.SelectParent(result)
	} else {
		s.machine.SelectChild(result)
	}
	s.engine.CancelField(field)

	s.mu.Lock()
	s.suggestions = nil
	s.sugField = models.FieldNone
	s.loading = false
	s.bumpLocked()
	s.mu.Unlock()
	return nil
}

// BestMatch resolves the single top-ranked suggestion for a query without
// opening a dropdown, honoring the field's current parent filter.
func (s *Session) BestMatch(ctx context.Context, field models.FieldType, query string) (*models.Suggestion, error) {
	return s.engine.BestMatch(ctx, field, query, s.machine.Filters(field))
}

// Focus makes field the active field and drops any other field's pending
// suggestions.
func (s *Session) Focus(field models.FieldType) {
	prev := s.machine.ActiveField()
	s.machine.Focus(field)
	if prev != models.FieldNone && prev != field {
		s.engine.CancelField(prev)
		s.mu.Lock()
		s.suggestions = nil
		s.sugField = models.FieldNone
		s.bumpLocked()
		s.mu.Unlock()
	}
}

// ClearParent resets a parent field and cascades to its child.
func (s *Session) ClearParent(field models.FieldType) {
	s.machine.ClearParent(field)
	s.engine.CancelField(field)
	s.mu.Lock()
	s.suggestions = nil
	s.bumpLocked()
	s.mu.Unlock()
}

// ClearSearch resets the whole session: texts, selections, suggestions.
func (s *Session) ClearSearch() {
	s.machine.Clear()
	for _, f := range []models.FieldType{
		models.FieldSet, models.FieldCategory, models.FieldCardProduct,
		models.FieldSetProduct, models.FieldProduct,
	} {
		s.engine.CancelField(f)
	}
	s.mu.Lock()
	s.suggestions = nil
	s.sugField = models.FieldNone
	s.loading = false
	s.lastErr = ""
	s.bumpLocked()
	s.mu.Unlock()
}

// ClearError clears the field-scoped error string.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.bumpLocked()
	s.mu.Unlock()
}

// Restore applies a parent and/or child selection in parent-first order,
// used when a client deep-links into a pre-filled search.
func (s *Session) Restore(parent, child *models.Suggestion) {
	s.machine.Restore(parent, child)
	s.mu.Lock()
	s.bumpLocked()
	s.mu.Unlock()
}

// Snapshot returns the session's current reactive state.
func (s *Session) Snapshot() Snapshot {
	state := s.machine.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:           state,
		Version:         s.version,
		SuggestionField: s.sugField,
		Suggestions:     append([]models.Suggestion(nil), s.suggestions...),
		Loading:         s.loading,
		Error:           s.lastErr,
		Meta:            s.meta,
	}
	return snap
}

// Wait blocks until the snapshot version exceeds since or ctx expires, then
// returns the current snapshot. Used by HTTP handlers to deliver the
// debounced suggestion list in the update response.
func (s *Session) Wait(ctx context.Context, since uint64) Snapshot {
	for {
		s.mu.Lock()
		if s.version > since {
			s.mu.Unlock()
			return s.Snapshot()
		}
		ch := s.notify
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return s.Snapshot()
		}
	}
}

// Close releases the session's debounce timers and in-flight fetches.
func (s *Session) Close() {
	s.engine.Close()
}

// bumpLocked advances the version and wakes waiters. Caller holds s.mu.
func (s *Session) bumpLocked() {
	s.version++
	close(s.notify)
	s.notify = make(chan struct{})
}
