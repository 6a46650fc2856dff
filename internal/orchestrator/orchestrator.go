// Package orchestrator composes the cache, deduper, scorer, suggestion
// engine, and hierarchy machine behind per-session façades consumed by UI
// clients.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weboliver/collectsearch/internal/cache"
	"github.com/weboliver/collectsearch/internal/catalog"
	"github.com/weboliver/collectsearch/internal/config"
	"github.com/weboliver/collectsearch/internal/dedupe"
	"github.com/weboliver/collectsearch/internal/ranking"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = fmt.Errorf("session not found")

// Orchestrator owns the shared cache, deduper, and scorer, and manages the
// per-session engines. The cache and deduper are shared so identical
// queries across sessions coalesce into one catalog round trip.
type Orchestrator struct {
	searcher catalog.Searcher
	cfg      *config.Config
	logger   *zap.Logger
	cache    *cache.Cache
	deduper  *dedupe.Deduper
	scorer   *ranking.Scorer

	mu       sync.Mutex
	sessions map[string]*Session
	cancel   context.CancelFunc
	closed   bool
}

// New creates an orchestrator and starts the cache sweep loop.
func New(searcher catalog.Searcher, cfg *config.Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cache.New(
		cfg.Cache.MaxEntries,
		cfg.Cache.TTLFor("product"),
		cfg.Cache.SweepInterval(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	return &Orchestrator{
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
		cache:    c,
		deduper:  dedupe.New(),
		scorer:   ranking.NewScorer(nil),
		sessions: make(map[string]*Session),
		cancel:   cancel,
	}
}

// CreateSession creates and registers a new search session.
func (o *Orchestrator) CreateSession() (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, fmt.Errorf("orchestrator closed")
	}

	s := newSession(uuid.NewString(), o)
	o.sessions[s.ID()] = s
	o.logger.Debug("session created", zap.String("session_id", s.ID()))
	return s, nil
}

// Session returns a registered session by id.
func (o *Orchestrator) Session(id string) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// DeleteSession tears down one session.
func (o *Orchestrator) DeleteSession(id string) error {
	o.mu.Lock()
	s, ok := o.sessions[id]
	delete(o.sessions, id)
	o.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	o.logger.Debug("session deleted", zap.String("session_id", id))
	return nil
}

// CacheStats reports the shared cache counters.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.cache.Stats()
}

// InvalidateCache drops every cached suggestion list, e.g. after the
// catalog database changed on disk.
func (o *Orchestrator) InvalidateCache() {
	o.cache.Clear()
	o.logger.Info("suggestion cache invalidated")
}

// Close tears down all sessions and stops the cache sweep.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	sessions := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.sessions = make(map[string]*Session)
	o.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	o.cancel()
	o.cache.Stop()
}
