//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

type stubCalculator struct {
	name string
	err  error
}

func (s stubCalculator) Name() string                        { return s.name }
func (s stubCalculator) Category() evalresult.MetricCategory { return evalresult.MetricCategoryCustom }
func (s stubCalculator) HigherIsBetter() bool                { return true }
func (s stubCalculator) Calculate(results []*evalresult.EvalResult, report *evalresult.EvalReport) (*evalresult.MetricResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &evalresult.MetricResult{Name: s.name, Value: 1}, nil
}

func newReport(passed, failed int) ([]*evalresult.EvalResult, *evalresult.EvalReport) {
	var results []*evalresult.EvalResult
	for i := 0; i < passed; i++ {
		results = append(results, &evalresult.EvalResult{Score: 1, Passed: true})
	}
	for i := 0; i < failed; i++ {
		results = append(results, &evalresult.EvalResult{Score: 0})
	}
	report := &evalresult.EvalReport{Results: results}
	report.Summarize()
	return results, report
}

func TestRegisterAndNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubCalculator{name: "b"}))
	require.NoError(t, r.Register(stubCalculator{name: "a"}))

	assert.Equal(t, []string{"a", "b"}, r.Names())

	_, ok := r.Get("a")
	assert.True(t, ok)

	assert.Error(t, r.Register(stubCalculator{name: "a"}))
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(stubCalculator{}))
}

func TestSetEnabled(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubCalculator{name: "a"}))

	assert.Error(t, r.SetEnabled("missing", true))
	require.NoError(t, r.SetEnabled("a", false))

	results, report := newReport(1, 1)
	assert.Empty(t, r.CalculateAll(results, report))

	require.NoError(t, r.SetEnabled("a", true))
	assert.Len(t, r.CalculateAll(results, report), 1)
}

func TestCalculateAllIsolatesFailures(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubCalculator{name: "works"}))
	require.NoError(t, r.Register(stubCalculator{name: "breaks", err: errors.New("no data")}))
	require.NoError(t, r.Register(stubCalculator{name: "also-works"}))

	results, report := newReport(2, 1)
	metrics := r.CalculateAll(results, report)
	require.Len(t, metrics, 2)
	assert.Equal(t, "also-works", metrics[0].Name)
	assert.Equal(t, "works", metrics[1].Name)
}

func TestPassRate(t *testing.T) {
	results, report := newReport(3, 1)
	m, err := passRate{}.Calculate(results, report)
	require.NoError(t, err)
	assert.Equal(t, 0.75, m.Value)
	assert.Equal(t, evalresult.MetricCategoryAccuracy, m.Category)

	_, err = passRate{}.Calculate(nil, &evalresult.EvalReport{})
	assert.Error(t, err)
}

func TestMeanScore(t *testing.T) {
	results := []*evalresult.EvalResult{
		{Score: 1.0},
		{Score: 0.5},
		{Score: 0.0},
	}
	m, err := meanScore{}.Calculate(results, &evalresult.EvalReport{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Value, 1e-9)
}

func TestTokensPerSample(t *testing.T) {
	_, err := tokensPerSample{}.Calculate(nil, &evalresult.EvalReport{})
	assert.Error(t, err)

	report := &evalresult.EvalReport{
		TokenUsage: &evalresult.TokenUsage{CountedSamples: 2, AveragePerSample: 120},
	}
	m, err := tokensPerSample{}.Calculate(nil, report)
	require.NoError(t, err)
	assert.Equal(t, 120.0, m.Value)
	assert.False(t, m.HigherIsBetter)
}

func TestCostPerCorrect(t *testing.T) {
	report := &evalresult.EvalReport{
		Correct:    4,
		TokenUsage: &evalresult.TokenUsage{EstimatedCost: 0.2},
	}
	m, err := costPerCorrect{}.Calculate(nil, report)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, m.Value, 1e-9)

	_, err = costPerCorrect{}.Calculate(nil, &evalresult.EvalReport{Correct: 4})
	assert.Error(t, err)

	_, err = costPerCorrect{}.Calculate(nil, &evalresult.EvalReport{
		TokenUsage: &evalresult.TokenUsage{EstimatedCost: 0.2},
	})
	assert.Error(t, err)
}

func TestDefaultRegistryRunsOverRealResults(t *testing.T) {
	r := NewDefaultRegistry()
	results := []*evalresult.EvalResult{
		{Score: 1, Passed: true, Completion: &model.Result{Usage: &model.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}},
		{Score: 0, Completion: &model.Result{Usage: &model.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30}}},
	}
	report := &evalresult.EvalReport{Results: results}
	report.Summarize()
	report.TokenUsage = evalresult.AggregateTokenUsage(results)

	metrics := r.CalculateAll(results, report)
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.Name)
	}
	// cost_per_correct is skipped: no cost estimate is attached.
	assert.Equal(t, []string{MetricMeanScore, MetricPassRate, MetricTokensPerSample}, names)
}
