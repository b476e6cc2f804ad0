//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package cache provides the content-addressed completion cache contract.
//
// Every Store operation is non-throwing to its caller: backend failures
// degrade a Get to a miss and a Set to a no-op, surfaced only through
// warning logs and Stats. An evaluation run never fails because its
// cache is unavailable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Key is the content-addressed cache key. The three fragments hash the
// model identifier, the sample content, and the grading configuration
// (strategy kind + arguments + completion options); a change to any one
// input yields a different key.
type Key struct {
	// ModelHash is the hash of the serialized model identifier.
	ModelHash string
	// SampleHash is the hash of the serialized sample content.
	SampleHash string
	// ConfigHash is the hash of the serialized grading configuration.
	ConfigHash string
	// KindHash is the hash of the grading strategy kind alone, stored for
	// bulk invalidation by strategy type.
	KindHash string
}

// String returns the joined key used for backend storage.
func (k Key) String() string {
	return k.ModelHash + ":" + k.SampleHash + ":" + k.ConfigHash
}

// KeyInputs carries the inputs a cache key is derived from.
type KeyInputs struct {
	// Model is the evaluated model identifier.
	Model string `json:"model"`
	// Sample is the sample content.
	Sample any `json:"sample"`
	// StrategyKind is the grading strategy kind.
	StrategyKind string `json:"strategy_kind"`
	// StrategyConfig is the grading strategy configuration.
	StrategyConfig any `json:"strategy_config"`
	// CompletionOptions is the completion options used for the call.
	CompletionOptions any `json:"completion_options"`
}

// DeriveKey builds the deterministic cache key for the inputs. Two
// derivations over equal inputs produce identical keys; serialization is
// canonical JSON (map keys sorted by encoding/json).
func DeriveKey(inputs KeyInputs) (Key, error) {
	modelHash, err := hashJSON(inputs.Model)
	if err != nil {
		return Key{}, fmt.Errorf("hash model: %w", err)
	}
	sampleHash, err := hashJSON(inputs.Sample)
	if err != nil {
		return Key{}, fmt.Errorf("hash sample: %w", err)
	}
	configHash, err := hashJSON(struct {
		Kind    string `json:"kind"`
		Config  any    `json:"config"`
		Options any    `json:"options"`
	}{inputs.StrategyKind, inputs.StrategyConfig, inputs.CompletionOptions})
	if err != nil {
		return Key{}, fmt.Errorf("hash grading config: %w", err)
	}
	kindHash, err := hashJSON(inputs.StrategyKind)
	if err != nil {
		return Key{}, fmt.Errorf("hash strategy kind: %w", err)
	}
	return Key{
		ModelHash:  modelHash,
		SampleHash: sampleHash,
		ConfigHash: configHash,
		KindHash:   kindHash,
	}, nil
}

// HashFragment hashes a single key input the same way DeriveKey does.
// Backends use it to match stored fragments during bulk invalidation.
func HashFragment(value any) (string, error) {
	return hashJSON(value)
}

func hashJSON(value any) (string, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:]), nil
}

// Entry is the stored cache payload.
type Entry struct {
	// Result is the cached completion.
	Result *model.Result `json:"result"`
	// Timestamp is when the entry was created.
	Timestamp time.Time `json:"timestamp"`
	// ModelHash is the stored model fragment.
	ModelHash string `json:"modelHash"`
	// SampleHash is the stored sample fragment.
	SampleHash string `json:"sampleHash"`
	// ConfigHash is the stored grading configuration fragment.
	ConfigHash string `json:"configHash"`
	// KindHash is the stored strategy kind fragment.
	KindHash string `json:"kindHash"`
}

// Stats reports cache effectiveness and health. Degraded backends are
// visible here structurally rather than only in log output.
type Stats struct {
	// Requests is the number of Get calls.
	Requests uint64 `json:"requests"`
	// Hits is the number of Gets served from the cache.
	Hits uint64 `json:"hits"`
	// Misses is the number of Gets not served from the cache.
	Misses uint64 `json:"misses"`
	// Errors is the number of backend failures swallowed by Get/Set.
	Errors uint64 `json:"errors"`
	// HitRate is Hits / Requests (0 when Requests is 0).
	HitRate float64 `json:"hitRate"`
	// Backend identifies the backing store kind.
	Backend string `json:"backend"`
	// Healthy is false once a backend failure has been observed.
	Healthy bool `json:"healthy"`
}

// Store is the completion cache contract. Implementations must never
// propagate backend failures to callers.
type Store interface {
	// Get returns the cached completion for the key, if present and fresh.
	Get(ctx context.Context, key Key) (*model.Result, bool)
	// Set stores a completion for the key, best-effort.
	Set(ctx context.Context, key Key, result *model.Result)
	// InvalidateByModel removes all entries for the model identifier and
	// returns the number removed.
	InvalidateByModel(ctx context.Context, modelID string) int
	// InvalidateByStrategyKind removes all entries graded under the
	// strategy kind and returns the number removed.
	InvalidateByStrategyKind(ctx context.Context, kind string) int
	// Clear removes every entry.
	Clear(ctx context.Context)
	// Stats reports cache effectiveness and health.
	Stats() Stats
}

// Counters accumulates Store statistics. Backends embed it and report
// through Snapshot.
type Counters struct {
	requests atomic.Uint64
	hits     atomic.Uint64
	misses   atomic.Uint64
	errors   atomic.Uint64
}

// Hit records a served Get.
func (c *Counters) Hit() {
	c.requests.Add(1)
	c.hits.Add(1)
}

// Miss records an unserved Get.
func (c *Counters) Miss() {
	c.requests.Add(1)
	c.misses.Add(1)
}

// Error records a swallowed backend failure.
func (c *Counters) Error() {
	c.errors.Add(1)
}

// Snapshot builds a Stats view for the named backend.
func (c *Counters) Snapshot(backend string) Stats {
	stats := Stats{
		Requests: c.requests.Load(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Errors:   c.errors.Load(),
		Backend:  backend,
	}
	if stats.Requests > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Requests)
	}
	stats.Healthy = stats.Errors == 0
	return stats
}
