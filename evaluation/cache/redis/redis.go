//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package redis provides the durable shared completion cache backend.
//
// Storage structure:
// Entry:  evalcache:entry:{key} -> Entry(json) (TTL)
// Model index:    evalcache:model:{modelHash} -> set[entry key]
// Strategy index: evalcache:kind:{kindHash}   -> set[entry key]
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/cache"
	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Verify that Store implements the cache.Store interface.
var _ cache.Store = (*Store)(nil)

// BackendKind identifies this backend in Stats.
const BackendKind = "redis"

// DefaultTTL is the default entry time-to-live.
const DefaultTTL = 24 * time.Hour

const (
	entryKeyPrefix = "evalcache:entry:"
	modelKeyPrefix = "evalcache:model:"
	kindKeyPrefix  = "evalcache:kind:"
)

// Store is a redis-backed cache shared across runs and processes.
type Store struct {
	cache.Counters

	client redis.UniversalClient
	ttl    time.Duration
}

// Option represents a functional option for configuring the Store.
type Option func(*options)

type options struct {
	url    string
	client redis.UniversalClient
	ttl    time.Duration
}

// WithURL sets the redis connection URL.
func WithURL(url string) Option {
	return func(o *options) {
		o.url = url
	}
}

// WithClient supplies an existing redis client, overriding WithURL.
func WithClient(client redis.UniversalClient) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithTTL sets the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// New creates a redis cache store and verifies connectivity. Callers fall
// back to the in-process backend when this returns an error.
func New(ctx context.Context, opt ...Option) (*Store, error) {
	opts := &options{ttl: DefaultTTL}
	for _, o := range opt {
		o(opts)
	}
	client := opts.client
	if client == nil {
		if opts.url == "" {
			return nil, errors.New("redis url is empty")
		}
		redisOpts, err := redis.ParseURL(opts.url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(redisOpts)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{
		client: client,
		ttl:    opts.ttl,
	}, nil
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key cache.Key) (*model.Result, bool) {
	payload, err := s.client.Get(ctx, entryKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		s.Miss()
		return nil, false
	}
	if err != nil {
		s.Error()
		s.Miss()
		log.Warnf("cache: redis get degraded to miss: %v", err)
		return nil, false
	}
	var entry cache.Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		s.Error()
		s.Miss()
		log.Warnf("cache: decode entry: %v", err)
		return nil, false
	}
	// Lazy expiry: a stale entry is removed and treated as absent even if
	// the redis key TTL outlives the configured TTL.
	if s.ttl > 0 && time.Since(entry.Timestamp) >= s.ttl {
		s.removeEntries(ctx, []string{key.String()}, entry.ModelHash, entry.KindHash)
		s.Miss()
		return nil, false
	}
	s.Hit()
	return entry.Result, true
}

// Set implements cache.Store.
func (s *Store) Set(ctx context.Context, key cache.Key, result *model.Result) {
	if result == nil {
		return
	}
	entry := &cache.Entry{
		Result:     result,
		Timestamp:  time.Now(),
		ModelHash:  key.ModelHash,
		SampleHash: key.SampleHash,
		ConfigHash: key.ConfigHash,
		KindHash:   key.KindHash,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		s.Error()
		log.Warnf("cache: encode entry: %v", err)
		return
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, entryKeyPrefix+key.String(), payload, s.ttl)
	pipe.SAdd(ctx, modelKeyPrefix+key.ModelHash, key.String())
	pipe.SAdd(ctx, kindKeyPrefix+key.KindHash, key.String())
	if _, err := pipe.Exec(ctx); err != nil {
		s.Error()
		log.Warnf("cache: redis set degraded to no-op: %v", err)
	}
}

// InvalidateByModel implements cache.Store.
func (s *Store) InvalidateByModel(ctx context.Context, modelID string) int {
	fragment, err := cache.HashFragment(modelID)
	if err != nil {
		s.Error()
		log.Warnf("cache: hash model fragment: %v", err)
		return 0
	}
	return s.invalidateIndex(ctx, modelKeyPrefix+fragment)
}

// InvalidateByStrategyKind implements cache.Store.
func (s *Store) InvalidateByStrategyKind(ctx context.Context, kind string) int {
	fragment, err := cache.HashFragment(kind)
	if err != nil {
		s.Error()
		log.Warnf("cache: hash strategy kind fragment: %v", err)
		return 0
	}
	return s.invalidateIndex(ctx, kindKeyPrefix+fragment)
}

// invalidateIndex deletes every entry referenced by the index set, then
// the set itself. Only keys that still existed count as removed.
func (s *Store) invalidateIndex(ctx context.Context, indexKey string) int {
	members, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		s.Error()
		log.Warnf("cache: read invalidation index: %v", err)
		return 0
	}
	if len(members) == 0 {
		return 0
	}
	removed := 0
	var errs *multierror.Error
	for _, member := range members {
		deleted, err := s.client.Del(ctx, entryKeyPrefix+member).Result()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		removed += int(deleted)
	}
	if err := s.client.Del(ctx, indexKey).Err(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		s.Error()
		log.Warnf("cache: bulk invalidation incomplete: %v", err)
	}
	return removed
}

// removeEntries deletes stale entries and their index memberships.
func (s *Store) removeEntries(ctx context.Context, keys []string, modelHash, kindHash string) {
	pipe := s.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, entryKeyPrefix+key)
		if modelHash != "" {
			pipe.SRem(ctx, modelKeyPrefix+modelHash, key)
		}
		if kindHash != "" {
			pipe.SRem(ctx, kindKeyPrefix+kindHash, key)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.Error()
		log.Warnf("cache: remove stale entries: %v", err)
	}
}

// Clear implements cache.Store. It removes entry and index keys by scan.
func (s *Store) Clear(ctx context.Context) {
	for _, pattern := range []string{entryKeyPrefix + "*", modelKeyPrefix + "*", kindKeyPrefix + "*"} {
		iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				s.Error()
				log.Warnf("cache: clear key %s: %v", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			s.Error()
			log.Warnf("cache: clear scan: %v", err)
		}
	}
}

// Stats implements cache.Store.
func (s *Store) Stats() cache.Stats {
	return s.Snapshot(BackendKind)
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
