//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

func baseInputs() KeyInputs {
	temperature := 0.0
	return KeyInputs{
		Model: "gpt-4o-mini",
		Sample: &evalset.EvalSample{
			SampleID: "s1",
			Input:    []model.Message{model.NewUserMessage("What is 2+2?")},
			Ideal:    evalset.Ideal{"4"},
		},
		StrategyKind:      "exact_match",
		StrategyConfig:    map[string]any{"match_type": "exact"},
		CompletionOptions: &model.Options{Temperature: &temperature},
	}
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	first, err := DeriveKey(baseInputs())
	require.NoError(t, err)
	second, err := DeriveKey(baseInputs())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first.String(), second.String())
}

func TestDeriveKeyDivergesPerInput(t *testing.T) {
	base, err := DeriveKey(baseInputs())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*KeyInputs)
		// fragment inspectors, to pin the change to the right fragment
		changed   func(Key) string
		unchanged func(Key) string
	}{
		{
			name:      "model change",
			mutate:    func(in *KeyInputs) { in.Model = "gpt-4o" },
			changed:   func(k Key) string { return k.ModelHash },
			unchanged: func(k Key) string { return k.SampleHash },
		},
		{
			name: "sample change",
			mutate: func(in *KeyInputs) {
				in.Sample = &evalset.EvalSample{
					SampleID: "s2",
					Input:    []model.Message{model.NewUserMessage("What is 3+3?")},
					Ideal:    evalset.Ideal{"6"},
				}
			},
			changed:   func(k Key) string { return k.SampleHash },
			unchanged: func(k Key) string { return k.ModelHash },
		},
		{
			name:      "strategy kind change",
			mutate:    func(in *KeyInputs) { in.StrategyKind = "model_graded" },
			changed:   func(k Key) string { return k.ConfigHash },
			unchanged: func(k Key) string { return k.SampleHash },
		},
		{
			name:      "strategy config change",
			mutate:    func(in *KeyInputs) { in.StrategyConfig = map[string]any{"match_type": "fuzzy"} },
			changed:   func(k Key) string { return k.ConfigHash },
			unchanged: func(k Key) string { return k.ModelHash },
		},
		{
			name: "temperature change",
			mutate: func(in *KeyInputs) {
				hotter := 1.0
				in.CompletionOptions = &model.Options{Temperature: &hotter}
			},
			changed:   func(k Key) string { return k.ConfigHash },
			unchanged: func(k Key) string { return k.SampleHash },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := baseInputs()
			tt.mutate(&inputs)
			key, err := DeriveKey(inputs)
			require.NoError(t, err)
			assert.NotEqual(t, base.String(), key.String())
			assert.NotEqual(t, tt.changed(base), tt.changed(key))
			assert.Equal(t, tt.unchanged(base), tt.unchanged(key))
		})
	}
}

func TestKindHashMatchesFragment(t *testing.T) {
	key, err := DeriveKey(baseInputs())
	require.NoError(t, err)
	fragment, err := HashFragment("exact_match")
	require.NoError(t, err)
	assert.Equal(t, fragment, key.KindHash)
	// The kind fragment is stored alongside the key, not joined into it.
	assert.NotContains(t, key.String(), key.KindHash)
}

func TestKeyStringLayout(t *testing.T) {
	key, err := DeriveKey(baseInputs())
	require.NoError(t, err)
	parts := strings.Split(key.String(), ":")
	require.Len(t, parts, 3)
	assert.Equal(t, key.ModelHash, parts[0])
	assert.Equal(t, key.SampleHash, parts[1])
	assert.Equal(t, key.ConfigHash, parts[2])
	for _, part := range parts {
		assert.Len(t, part, 64)
	}
}

func TestCountersSnapshot(t *testing.T) {
	var counters Counters
	counters.Hit()
	counters.Hit()
	counters.Hit()
	counters.Miss()

	stats := counters.Snapshot("test")
	assert.Equal(t, uint64(4), stats.Requests)
	assert.Equal(t, uint64(3), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.75, stats.HitRate)
	assert.Equal(t, "test", stats.Backend)
	assert.True(t, stats.Healthy)

	counters.Error()
	stats = counters.Snapshot("test")
	assert.Equal(t, uint64(1), stats.Errors)
	assert.False(t, stats.Healthy)
}

func TestEmptyCountersHitRate(t *testing.T) {
	var counters Counters
	stats := counters.Snapshot("test")
	assert.Equal(t, 0.0, stats.HitRate)
	assert.True(t, stats.Healthy)
}
