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
	"fmt"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
)

// Builtin metric names.
const (
	MetricPassRate        = "pass_rate"
	MetricMeanScore       = "mean_score"
	MetricTokensPerSample = "tokens_per_sample"
	MetricCostPerCorrect  = "cost_per_correct"
)

func builtinCalculators() []Calculator {
	return []Calculator{
		passRate{},
		meanScore{},
		tokensPerSample{},
		costPerCorrect{},
	}
}

// passRate is the fraction of samples that passed grading.
type passRate struct{}

func (passRate) Name() string                           { return MetricPassRate }
func (passRate) Category() evalresult.MetricCategory    { return evalresult.MetricCategoryAccuracy }
func (passRate) HigherIsBetter() bool                   { return true }
func (passRate) Calculate(results []*evalresult.EvalResult, report *evalresult.EvalReport) (*evalresult.MetricResult, error) {
	if report.TotalSamples == 0 {
		return nil, errors.New("no samples")
	}
	return &evalresult.MetricResult{
		Name:           MetricPassRate,
		Value:          float64(report.Correct) / float64(report.TotalSamples),
		DisplayName:    "Pass rate",
		Description:    fmt.Sprintf("%d of %d samples passed", report.Correct, report.TotalSamples),
		HigherIsBetter: true,
		Category:       evalresult.MetricCategoryAccuracy,
	}, nil
}

// meanScore is the average grading score across all samples, including
// failed ones.
type meanScore struct{}

func (meanScore) Name() string                        { return MetricMeanScore }
func (meanScore) Category() evalresult.MetricCategory { return evalresult.MetricCategoryQuality }
func (meanScore) HigherIsBetter() bool                { return true }
func (meanScore) Calculate(results []*evalresult.EvalResult, report *evalresult.EvalReport) (*evalresult.MetricResult, error) {
	if len(results) == 0 {
		return nil, errors.New("no results")
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return &evalresult.MetricResult{
		Name:           MetricMeanScore,
		Value:          sum / float64(len(results)),
		DisplayName:    "Mean score",
		Description:    "Average grading score across all samples",
		HigherIsBetter: true,
		Category:       evalresult.MetricCategoryQuality,
	}, nil
}

// tokensPerSample is the average token spend per sample that reported
// usage.
type tokensPerSample struct{}

func (tokensPerSample) Name() string                        { return MetricTokensPerSample }
func (tokensPerSample) Category() evalresult.MetricCategory { return evalresult.MetricCategoryEfficiency }
func (tokensPerSample) HigherIsBetter() bool                { return false }
func (tokensPerSample) Calculate(results []*evalresult.EvalResult, report *evalresult.EvalReport) (*evalresult.MetricResult, error) {
	usage := report.TokenUsage
	if usage == nil || usage.CountedSamples == 0 {
		return nil, errors.New("no token usage recorded")
	}
	return &evalresult.MetricResult{
		Name:           MetricTokensPerSample,
		Value:          usage.AveragePerSample,
		DisplayName:    "Tokens per sample",
		Description:    fmt.Sprintf("Average over %d sample(s) with usage", usage.CountedSamples),
		HigherIsBetter: false,
		Category:       evalresult.MetricCategoryEfficiency,
	}, nil
}

// costPerCorrect is the estimated dollar cost divided by the number of
// passing samples.
type costPerCorrect struct{}

func (costPerCorrect) Name() string                        { return MetricCostPerCorrect }
func (costPerCorrect) Category() evalresult.MetricCategory { return evalresult.MetricCategoryCost }
func (costPerCorrect) HigherIsBetter() bool                { return false }
func (costPerCorrect) Calculate(results []*evalresult.EvalResult, report *evalresult.EvalReport) (*evalresult.MetricResult, error) {
	usage := report.TokenUsage
	if usage == nil || usage.EstimatedCost == 0 {
		return nil, errors.New("no cost estimate available")
	}
	if report.Correct == 0 {
		return nil, errors.New("no correct answers to amortize cost over")
	}
	return &evalresult.MetricResult{
		Name:           MetricCostPerCorrect,
		Value:          usage.EstimatedCost / float64(report.Correct),
		DisplayName:    "Cost per correct answer",
		Description:    fmt.Sprintf("$%.4f estimated total over %d correct answer(s)", usage.EstimatedCost, report.Correct),
		HigherIsBetter: false,
		Category:       evalresult.MetricCategoryCost,
	}, nil
}
