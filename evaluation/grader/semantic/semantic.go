//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package semantic provides the semantic-similarity strategy: completions
// are compared against ideal answers in embedding space.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"

	"trpc.group/trpc-go/trpc-eval-go/embedder"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Verify that Strategy implements the grader.Strategy interface.
var _ grader.Strategy = (*Strategy)(nil)

// DefaultThreshold is used when the config leaves Threshold unset.
const DefaultThreshold = 0.8

// Strategy grades completions by cosine similarity between the completion
// embedding and each ideal answer embedding.
type Strategy struct {
	cfg       grader.SemanticSimilarityConfig
	embed     embedder.Embedder
	threshold float64
}

// New creates a SemanticSimilarity strategy. The embedder is required.
func New(cfg *grader.SemanticSimilarityConfig, embed embedder.Embedder) (*Strategy, error) {
	if cfg == nil {
		return nil, errors.New("semantic_similarity config is nil")
	}
	if embed == nil {
		return nil, errors.New("embedder is required for semantic_similarity strategy")
	}
	switch cfg.MatchMode {
	case grader.SimilarityBest, grader.SimilarityThreshold, grader.SimilarityAll:
	default:
		return nil, fmt.Errorf("unknown match mode %q", cfg.MatchMode)
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v out of range [0, 1]", threshold)
	}
	// Repeated ideals and completions within a run resolve from the memo
	// instead of re-embedding.
	if _, ok := embed.(*embedder.Memoized); !ok {
		embed = embedder.Memoize(embed)
	}
	return &Strategy{cfg: *cfg, embed: embed, threshold: threshold}, nil
}

// Kind implements grader.Strategy.
func (s *Strategy) Kind() grader.Kind { return grader.KindSemanticSimilarity }

// Evaluate implements grader.Strategy.
func (s *Strategy) Evaluate(ctx context.Context, sample *evalset.EvalSample, completion *model.Result) (*evalresult.EvalResult, error) {
	if sample == nil {
		return nil, errors.New("sample is nil")
	}
	if completion == nil {
		return nil, errors.New("completion is nil")
	}
	if len(sample.Ideal) == 0 {
		return nil, fmt.Errorf("sample %s has no ideal answers", sample.SampleID)
	}
	texts := make([]string, 0, len(sample.Ideal)+1)
	texts = append(texts, completion.Content)
	texts = append(texts, sample.Ideal...)
	vectors, err := s.embed.GetEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding call: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	completionVec := vectors[0]
	similarities := make([]float64, 0, len(sample.Ideal))
	for _, idealVec := range vectors[1:] {
		sim, err := cosineSimilarity(completionVec, idealVec)
		if err != nil {
			return nil, err
		}
		similarities = append(similarities, sim)
	}

	score, passed := s.judge(similarities)
	reasoning := fmt.Sprintf("%s mode over %d ideal answer(s), best similarity %.4f, threshold %.2f",
		s.cfg.MatchMode, len(similarities), maxOf(similarities), s.threshold)
	return grader.NewResult(sample, completion, score, passed, reasoning), nil
}

// judge maps per-ideal similarities to a score and pass verdict according
// to the configured match mode.
func (s *Strategy) judge(similarities []float64) (score float64, passed bool) {
	switch s.cfg.MatchMode {
	case grader.SimilarityAll:
		// Every ideal must meet the threshold; score is the mean similarity.
		passed = minOf(similarities) >= s.threshold
		return meanOf(similarities), passed
	default: // grader.SimilarityBest, grader.SimilarityThreshold
		// Both pass when any ideal meets the threshold and score the
		// strongest match.
		best := maxOf(similarities)
		return best, best >= s.threshold
	}
}

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, errors.New("zero-magnitude embedding vector")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func maxOf(values []float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	return best
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	worst := math.Inf(1)
	for _, v := range values {
		if v < worst {
			worst = v
		}
	}
	return worst
}
