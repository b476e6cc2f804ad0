//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/cache"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

func deriveKey(t *testing.T, modelID, sampleID, kind string) cache.Key {
	t.Helper()
	key, err := cache.DeriveKey(cache.KeyInputs{
		Model:        modelID,
		Sample:       map[string]string{"sample_id": sampleID},
		StrategyKind: kind,
	})
	require.NoError(t, err)
	return key
}

func TestSetGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := New()
	key := deriveKey(t, "m1", "s1", "exact_match")

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)

	store.Set(ctx, key, &model.Result{Content: "4", Model: "m1"})
	got, ok := store.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "4", got.Content)

	stats := store.Stats()
	assert.Equal(t, uint64(2), stats.Requests)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
	assert.Equal(t, BackendKind, stats.Backend)
	assert.True(t, stats.Healthy)
}

func TestNilResultIsNotStored(t *testing.T) {
	ctx := context.Background()
	store := New()
	key := deriveKey(t, "m1", "s1", "exact_match")

	store.Set(ctx, key, nil)
	assert.Equal(t, 0, store.Len())
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := New(WithTTL(20 * time.Millisecond))
	key := deriveKey(t, "m1", "s1", "exact_match")

	store.Set(ctx, key, &model.Result{Content: "4"})
	_, ok := store.Get(ctx, key)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	// Expired entries read as absent, never as stale data.
	_, ok = store.Get(ctx, key)
	assert.False(t, ok)
}

func TestBoundEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store := New(WithMaxEntries(2))

	first := deriveKey(t, "m1", "s1", "exact_match")
	second := deriveKey(t, "m1", "s2", "exact_match")
	third := deriveKey(t, "m1", "s3", "exact_match")

	store.Set(ctx, first, &model.Result{Content: "a"})
	store.Set(ctx, second, &model.Result{Content: "b"})

	// Touch the older entry so the newer one becomes the eviction victim.
	_, ok := store.Get(ctx, first)
	require.True(t, ok)

	store.Set(ctx, third, &model.Result{Content: "c"})
	assert.Equal(t, 2, store.Len())

	_, ok = store.Get(ctx, first)
	assert.True(t, ok)
	_, ok = store.Get(ctx, second)
	assert.False(t, ok)
	_, ok = store.Get(ctx, third)
	assert.True(t, ok)
}

func TestInvalidateByModel(t *testing.T) {
	ctx := context.Background()
	store := New()

	for i := 0; i < 3; i++ {
		key := deriveKey(t, "m1", fmt.Sprintf("s%d", i), "exact_match")
		store.Set(ctx, key, &model.Result{Content: "x"})
	}
	otherKey := deriveKey(t, "m2", "s0", "exact_match")
	store.Set(ctx, otherKey, &model.Result{Content: "y"})

	removed := store.InvalidateByModel(ctx, "m1")
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get(ctx, otherKey)
	assert.True(t, ok)
}

func TestInvalidateByStrategyKind(t *testing.T) {
	ctx := context.Background()
	store := New()

	exactKey := deriveKey(t, "m1", "s1", "exact_match")
	judgeKey := deriveKey(t, "m1", "s1", "model_graded")
	store.Set(ctx, exactKey, &model.Result{Content: "x"})
	store.Set(ctx, judgeKey, &model.Result{Content: "y"})

	removed := store.InvalidateByStrategyKind(ctx, "model_graded")
	assert.Equal(t, 1, removed)

	_, ok := store.Get(ctx, exactKey)
	assert.True(t, ok)
	_, ok = store.Get(ctx, judgeKey)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := New()

	store.Set(ctx, deriveKey(t, "m1", "s1", "exact_match"), &model.Result{Content: "x"})
	store.Set(ctx, deriveKey(t, "m1", "s2", "exact_match"), &model.Result{Content: "y"})
	require.Equal(t, 2, store.Len())

	store.Clear(ctx)
	assert.Equal(t, 0, store.Len())
}
