//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides the process-local completion cache backend.
// It is the fallback when no shared backend is configured; it offers no
// cross-process sharing or consistency guarantee.
package inmemory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/cache"
	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Verify that Store implements the cache.Store interface.
var _ cache.Store = (*Store)(nil)

// BackendKind identifies this backend in Stats.
const BackendKind = "inmemory"

const (
	// DefaultMaxEntries bounds the cache size.
	DefaultMaxEntries = 1000
	// DefaultTTL is the default entry time-to-live.
	DefaultTTL = time.Hour
)

// Store is a size-bounded in-process cache. When the bound is exceeded
// the least-recently-used entry is evicted; expired entries are dropped
// lazily on read.
type Store struct {
	cache.Counters

	entries *expirable.LRU[string, *cache.Entry]
	ttl     time.Duration
}

// Option represents a functional option for configuring the Store.
type Option func(*options)

type options struct {
	maxEntries int
	ttl        time.Duration
}

// WithMaxEntries bounds the number of cached entries.
func WithMaxEntries(maxEntries int) Option {
	return func(o *options) {
		o.maxEntries = maxEntries
	}
}

// WithTTL sets the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// New creates an in-process cache store.
func New(opt ...Option) *Store {
	opts := &options{
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
	}
	for _, o := range opt {
		o(opts)
	}
	return &Store{
		entries: expirable.NewLRU[string, *cache.Entry](opts.maxEntries, nil, opts.ttl),
		ttl:     opts.ttl,
	}
}

// Get implements cache.Store.
func (s *Store) Get(_ context.Context, key cache.Key) (*model.Result, bool) {
	entry, ok := s.entries.Get(key.String())
	if !ok {
		s.Miss()
		return nil, false
	}
	// The LRU already drops entries past its TTL; this guards against a
	// TTL shortened after the entry was written.
	if s.ttl > 0 && time.Since(entry.Timestamp) >= s.ttl {
		s.entries.Remove(key.String())
		s.Miss()
		return nil, false
	}
	s.Hit()
	return entry.Result, true
}

// Set implements cache.Store.
func (s *Store) Set(_ context.Context, key cache.Key, result *model.Result) {
	if result == nil {
		return
	}
	s.entries.Add(key.String(), &cache.Entry{
		Result:     result,
		Timestamp:  time.Now(),
		ModelHash:  key.ModelHash,
		SampleHash: key.SampleHash,
		ConfigHash: key.ConfigHash,
		KindHash:   key.KindHash,
	})
}

// InvalidateByModel implements cache.Store.
func (s *Store) InvalidateByModel(_ context.Context, modelID string) int {
	fragment, err := cache.HashFragment(modelID)
	if err != nil {
		s.Error()
		log.Warnf("cache: hash model fragment: %v", err)
		return 0
	}
	return s.removeMatching(func(entry *cache.Entry) bool {
		return entry.ModelHash == fragment
	})
}

// InvalidateByStrategyKind implements cache.Store.
func (s *Store) InvalidateByStrategyKind(_ context.Context, kind string) int {
	fragment, err := cache.HashFragment(kind)
	if err != nil {
		s.Error()
		log.Warnf("cache: hash strategy kind fragment: %v", err)
		return 0
	}
	return s.removeMatching(func(entry *cache.Entry) bool {
		return entry.KindHash == fragment
	})
}

// removeMatching removes entries whose stored fragments satisfy match.
// Peek is used so the scan does not disturb recency order.
func (s *Store) removeMatching(match func(*cache.Entry) bool) int {
	removed := 0
	for _, storedKey := range s.entries.Keys() {
		entry, ok := s.entries.Peek(storedKey)
		if !ok {
			continue
		}
		if match(entry) {
			s.entries.Remove(storedKey)
			removed++
		}
	}
	return removed
}

// Clear implements cache.Store.
func (s *Store) Clear(_ context.Context) {
	s.entries.Purge()
}

// Stats implements cache.Store.
func (s *Store) Stats() cache.Stats {
	return s.Snapshot(BackendKind)
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	return s.entries.Len()
}
