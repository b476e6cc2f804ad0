//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package evalresult provides evaluation results and reports.
package evalresult

import (
	"time"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Metadata keys set by the engine on results it synthesizes.
const (
	// MetadataKeyCacheHit marks results served from the completion cache.
	MetadataKeyCacheHit = "cache_hit"
	// MetadataKeyDryRun marks results produced by a dry run.
	MetadataKeyDryRun = "dryRun"
	// MetadataKeyError marks results synthesized from a collaborator failure.
	MetadataKeyError = "error"
)

// EvalResult is the graded outcome for a single sample. Exactly one
// result exists per sample, at the sample's original position, and it is
// never mutated after creation.
type EvalResult struct {
	// SampleID identifies the sample.
	SampleID string `json:"sampleId"`
	// Input is the conversation that was presented to the model.
	Input []model.Message `json:"input"`
	// Ideal holds the expected answer variants.
	Ideal evalset.Ideal `json:"ideal"`
	// Completion is the model output that was graded.
	Completion *model.Result `json:"completion"`
	// Score is the grading score in [0, 1].
	Score float64 `json:"score"`
	// Passed reports whether the sample passed.
	Passed bool `json:"passed"`
	// Reasoning is a short human-readable justification for the score.
	Reasoning string `json:"reasoning,omitempty"`
	// Metadata carries engine and grader annotations.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MetricCategory classifies a custom metric.
type MetricCategory string

// Metric categories.
const (
	MetricCategoryAccuracy   MetricCategory = "accuracy"
	MetricCategoryEfficiency MetricCategory = "efficiency"
	MetricCategoryCost       MetricCategory = "cost"
	MetricCategoryQuality    MetricCategory = "quality"
	MetricCategorySafety     MetricCategory = "safety"
	MetricCategoryBusiness   MetricCategory = "business"
	MetricCategoryCustom     MetricCategory = "custom"
)

// MetricResult is one custom metric value computed over a completed run.
// Metric results are recomputed fresh on every run and never persisted
// by the engine itself.
type MetricResult struct {
	// Name identifies the metric.
	Name string `json:"name"`
	// Value is the computed metric value.
	Value float64 `json:"value"`
	// DisplayName is a human-readable metric name.
	DisplayName string `json:"displayName,omitempty"`
	// Description explains what the metric measures.
	Description string `json:"description,omitempty"`
	// HigherIsBetter indicates the preferred direction of the value.
	HigherIsBetter bool `json:"higherIsBetter"`
	// Category classifies the metric.
	Category MetricCategory `json:"category"`
	// Metadata carries metric-specific annotations.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CostBreakdown splits the estimated cost by token direction.
type CostBreakdown struct {
	// PromptCost is the cost attributed to prompt tokens.
	PromptCost float64 `json:"promptCost"`
	// CompletionCost is the cost attributed to completion tokens.
	CompletionCost float64 `json:"completionCost"`
}

// TokenUsage aggregates token consumption across a run. Results lacking
// usage (cache hits, dry-run stubs) are excluded from the aggregate, not
// treated as zero.
type TokenUsage struct {
	// TotalPromptTokens sums prompt tokens over results with usage.
	TotalPromptTokens int `json:"totalPromptTokens"`
	// TotalCompletionTokens sums completion tokens over results with usage.
	TotalCompletionTokens int `json:"totalCompletionTokens"`
	// TotalTokens sums total tokens over results with usage.
	TotalTokens int `json:"totalTokens"`
	// AveragePerSample is the mean total tokens per counted result.
	AveragePerSample float64 `json:"averagePerSample"`
	// MaxPerSample is the highest total tokens of any counted result.
	MaxPerSample int `json:"maxPerSample"`
	// MinPerSample is the lowest total tokens of any counted result.
	MinPerSample int `json:"minPerSample"`
	// CountedSamples is the number of results that carried usage.
	CountedSamples int `json:"countedSamples"`
	// EstimatedCost is the estimated run cost in dollars.
	EstimatedCost float64 `json:"estimatedCost"`
	// CostBreakdown splits the estimated cost by token direction.
	CostBreakdown *CostBreakdown `json:"costBreakdown,omitempty"`
}

// EvalReport is the final report for one evaluation run.
// Invariant: TotalSamples = Correct + Incorrect = len(Results), and
// Score = Correct / TotalSamples (0 when TotalSamples is 0).
type EvalReport struct {
	// EvalName identifies the evaluation.
	EvalName string `json:"evalName"`
	// Model identifies the evaluated model.
	Model string `json:"model"`
	// TotalSamples is the number of attempted samples.
	TotalSamples int `json:"totalSamples"`
	// Correct is the number of passed samples.
	Correct int `json:"correct"`
	// Incorrect is the number of failed samples.
	Incorrect int `json:"incorrect"`
	// Score is Correct / TotalSamples.
	Score float64 `json:"score"`
	// Results lists per-sample results in original sample order.
	Results []*EvalResult `json:"results"`
	// RunID uniquely identifies this run.
	RunID string `json:"runId"`
	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"createdAt"`
	// DurationMs is the run duration in milliseconds.
	DurationMs int64 `json:"durationMs"`
	// TokenUsage aggregates token consumption, when any result carried usage.
	TokenUsage *TokenUsage `json:"tokenUsage,omitempty"`
	// CustomMetrics lists metric registry outputs for this run.
	CustomMetrics []*MetricResult `json:"customMetrics,omitempty"`
	// CacheHits is the number of results served from the completion cache.
	CacheHits int `json:"cacheHits"`
}

// Summarize recomputes the aggregate counters from Results. It is called
// by the engine after the sample loop and keeps the report invariant.
func (r *EvalReport) Summarize() {
	r.TotalSamples = len(r.Results)
	r.Correct = 0
	r.CacheHits = 0
	for _, result := range r.Results {
		if result == nil {
			continue
		}
		if result.Passed {
			r.Correct++
		}
		if result.Metadata != nil {
			if hit, ok := result.Metadata[MetadataKeyCacheHit].(bool); ok && hit {
				r.CacheHits++
			}
		}
	}
	r.Incorrect = r.TotalSamples - r.Correct
	if r.TotalSamples == 0 {
		r.Score = 0
		return
	}
	r.Score = float64(r.Correct) / float64(r.TotalSamples)
}

// AggregateTokenUsage derives the run token aggregate from results whose
// completion carries usage. It returns nil when no result carried usage.
func AggregateTokenUsage(results []*EvalResult) *TokenUsage {
	usage := &TokenUsage{}
	for _, result := range results {
		if result == nil || result.Completion == nil || result.Completion.Usage == nil {
			continue
		}
		sampleUsage := result.Completion.Usage
		usage.TotalPromptTokens += sampleUsage.PromptTokens
		usage.TotalCompletionTokens += sampleUsage.CompletionTokens
		usage.TotalTokens += sampleUsage.TotalTokens
		if usage.CountedSamples == 0 || sampleUsage.TotalTokens > usage.MaxPerSample {
			usage.MaxPerSample = sampleUsage.TotalTokens
		}
		if usage.CountedSamples == 0 || sampleUsage.TotalTokens < usage.MinPerSample {
			usage.MinPerSample = sampleUsage.TotalTokens
		}
		usage.CountedSamples++
	}
	if usage.CountedSamples == 0 {
		return nil
	}
	usage.AveragePerSample = float64(usage.TotalTokens) / float64(usage.CountedSamples)
	return usage
}
