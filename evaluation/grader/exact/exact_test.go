//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package exact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

func newSample(ideal ...string) *evalset.EvalSample {
	return &evalset.EvalSample{
		SampleID: "s1",
		Input:    []model.Message{model.NewUserMessage("What is 2+2?")},
		Ideal:    evalset.Ideal(ideal),
	}
}

func newCompletion(content string) *model.Result {
	return &model.Result{Content: content, Model: "test-model"}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		cfg        grader.ExactMatchConfig
		ideal      []string
		completion string
		wantPassed bool
	}{
		{
			name:       "exact match passes",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchExact},
			ideal:      []string{"4"},
			completion: "4",
			wantPassed: true,
		},
		{
			name:       "exact mismatch fails",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchExact},
			ideal:      []string{"4"},
			completion: "four",
			wantPassed: false,
		},
		{
			name:       "exact is case-insensitive by default",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchExact},
			ideal:      []string{"Paris"},
			completion: "paris",
			wantPassed: true,
		},
		{
			name:       "exact case-sensitive fails on case difference",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchExact, CaseSensitive: true},
			ideal:      []string{"Paris"},
			completion: "paris",
			wantPassed: false,
		},
		{
			name:       "includes passes when any ideal is contained",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchIncludes},
			ideal:      []string{"4", "four"},
			completion: "The answer is four",
			wantPassed: true,
		},
		{
			name:       "includes fails when no ideal is contained",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchIncludes},
			ideal:      []string{"4", "four"},
			completion: "The answer is five",
			wantPassed: false,
		},
		{
			name:       "fuzzy absorbs a small typo",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchFuzzy},
			ideal:      []string{"mitochondria"},
			completion: "mitochondira",
			wantPassed: true,
		},
		{
			name:       "fuzzy rejects a different answer",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchFuzzy},
			ideal:      []string{"mitochondria"},
			completion: "ribosome",
			wantPassed: false,
		},
		{
			name:       "regex compiles the ideal as a pattern",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchRegex},
			ideal:      []string{`^\d+$`},
			completion: "42",
			wantPassed: true,
		},
		{
			name:       "regex non-match fails",
			cfg:        grader.ExactMatchConfig{MatchType: grader.MatchRegex},
			ideal:      []string{`^\d+$`},
			completion: "forty-two",
			wantPassed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := New(&tt.cfg)
			require.NoError(t, err)

			result, err := strategy.Evaluate(context.Background(), newSample(tt.ideal...), newCompletion(tt.completion))
			require.NoError(t, err)
			assert.Equal(t, tt.wantPassed, result.Passed)
			if tt.wantPassed {
				assert.Equal(t, 1.0, result.Score)
			} else {
				assert.Equal(t, 0.0, result.Score)
			}
			assert.NotEmpty(t, result.Reasoning)
		})
	}
}

func TestEvaluateDoesNotMutateSample(t *testing.T) {
	strategy, err := New(&grader.ExactMatchConfig{MatchType: grader.MatchExact})
	require.NoError(t, err)

	sample := newSample("4")
	original := sample.Clone()
	_, err = strategy.Evaluate(context.Background(), sample, newCompletion("4"))
	require.NoError(t, err)
	assert.Equal(t, original, sample)
}

func TestNewValidation(t *testing.T) {
	_, err := New(&grader.ExactMatchConfig{MatchType: "unknown"})
	assert.Error(t, err)

	_, err = New(&grader.ExactMatchConfig{MatchType: grader.MatchFuzzy, FuzzyThreshold: 1.5})
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}
