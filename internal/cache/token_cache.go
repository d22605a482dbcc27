package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"livepoll/internal/model"
)

// ErrResolveFailed wraps a store failure during token resolution.
// Callers must treat it as an authentication failure.
var ErrResolveFailed = errors.New("token resolve failed")

const (
	DefaultTokenTTL   = 30 * time.Second
	DefaultSweepEvery = 60 * time.Second
)

// ParticipantResolver looks a participant up by anonymous token.
type ParticipantResolver interface {
	ResolveByToken(ctx context.Context, token string) (*model.Participant, error)
}

type tokenEntry struct {
	participant model.Participant
	expiresAt   time.Time
}

// TokenCache is a short-lived in-process cache of anonymous token lookups.
type TokenCache struct {
	store ParticipantResolver
	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]tokenEntry
	// gen is bumped by InvalidateForSession. A lookup that saw another
	// generation when it started does not cache its result.
	gen uint64
}

// NewTokenCache creates a token cache in front of store.
func NewTokenCache(store ParticipantResolver, ttl, sweep time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if sweep <= 0 {
		sweep = DefaultSweepEvery
	}
	return &TokenCache{
		store:   store,
		ttl:     ttl,
		sweep:   sweep,
		now:     time.Now,
		entries: make(map[string]tokenEntry),
	}
}

// Resolve returns the participant for token, and whether it came from cache.
// An unknown token yields nil without error. Only participants of active
// sessions are cached.
func (c *TokenCache) Resolve(ctx context.Context, token string) (*model.Participant, bool, error) {
	c.mu.Lock()
	e, ok := c.entries[token]
	if ok && e.expiresAt.After(c.now()) {
		c.mu.Unlock()
		p := e.participant
		return &p, true, nil
	}
	if ok {
		delete(c.entries, token)
	}
	gen := c.gen
	c.mu.Unlock()

	p, err := c.store.ResolveByToken(ctx, token)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}
	if p == nil {
		return nil, false, nil
	}

	if p.SessionActive {
		c.mu.Lock()
		if c.gen == gen {
			c.entries[token] = tokenEntry{participant: *p, expiresAt: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
	}
	return p, false, nil
}

// Invalidate drops a single token.
func (c *TokenCache) Invalidate(token string) {
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
}

// InvalidateForSession drops every cached token of the session.
func (c *TokenCache) InvalidateForSession(sessionID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for token, e := range c.entries {
		if e.participant.SessionID == sessionID {
			delete(c.entries, token)
		}
	}
}

// Len reports the number of cached entries, expired or not.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (c *TokenCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for token, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, token)
			n++
		}
	}
	return n
}

// Run sweeps expired entries until ctx is done.
func (c *TokenCache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				slog.Debug("token cache sweep", "removed", n)
			}
		}
	}
}
