//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package exact provides the deterministic string-matching grader.
package exact

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Verify that Strategy implements the grader.Strategy interface.
var _ grader.Strategy = (*Strategy)(nil)

// DefaultFuzzyThreshold is the minimum normalized similarity for a fuzzy
// match when the config leaves it unset.
const DefaultFuzzyThreshold = 0.8

// Strategy grades completions by deterministic string matching. The
// sample passes if any ideal variant satisfies the match rule.
type Strategy struct {
	cfg grader.ExactMatchConfig
}

// New creates an ExactMatch strategy from the config.
func New(cfg *grader.ExactMatchConfig) (*Strategy, error) {
	if cfg == nil {
		return nil, errors.New("exact_match config is nil")
	}
	switch cfg.MatchType {
	case grader.MatchExact, grader.MatchIncludes, grader.MatchFuzzy, grader.MatchRegex:
	default:
		return nil, fmt.Errorf("unknown match type %q", cfg.MatchType)
	}
	if cfg.FuzzyThreshold < 0 || cfg.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("fuzzy threshold %v out of range [0, 1]", cfg.FuzzyThreshold)
	}
	resolved := *cfg
	if resolved.FuzzyThreshold == 0 {
		resolved.FuzzyThreshold = DefaultFuzzyThreshold
	}
	return &Strategy{cfg: resolved}, nil
}

// Kind implements grader.Strategy.
func (s *Strategy) Kind() grader.Kind { return grader.KindExactMatch }

// Evaluate implements grader.Strategy.
func (s *Strategy) Evaluate(_ context.Context, sample *evalset.EvalSample, completion *model.Result) (*evalresult.EvalResult, error) {
	if sample == nil {
		return nil, errors.New("sample is nil")
	}
	if completion == nil {
		return nil, errors.New("completion is nil")
	}
	if len(sample.Ideal) == 0 {
		return nil, fmt.Errorf("sample %s has no ideal answers", sample.SampleID)
	}
	actual := strings.TrimSpace(completion.Content)
	for _, ideal := range sample.Ideal {
		matched, err := s.match(actual, strings.TrimSpace(ideal))
		if err != nil {
			return nil, err
		}
		if matched {
			reasoning := fmt.Sprintf("completion matched ideal %q under %s match", ideal, s.cfg.MatchType)
			return grader.NewResult(sample, completion, 1.0, true, reasoning), nil
		}
	}
	reasoning := fmt.Sprintf("completion matched none of %d ideal answers under %s match", len(sample.Ideal), s.cfg.MatchType)
	return grader.NewResult(sample, completion, 0.0, false, reasoning), nil
}

// match applies the configured rule to one (completion, ideal) pair.
func (s *Strategy) match(actual, ideal string) (bool, error) {
	if !s.cfg.CaseSensitive && s.cfg.MatchType != grader.MatchRegex {
		actual = strings.ToLower(actual)
		ideal = strings.ToLower(ideal)
	}
	switch s.cfg.MatchType {
	case grader.MatchExact:
		return actual == ideal, nil
	case grader.MatchIncludes:
		return strings.Contains(actual, ideal), nil
	case grader.MatchFuzzy:
		return fuzzySimilarity(actual, ideal) >= s.cfg.FuzzyThreshold, nil
	case grader.MatchRegex:
		pattern := ideal
		if !s.cfg.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("compile ideal pattern %q: %w", ideal, err)
		}
		return compiled.MatchString(actual), nil
	default:
		return false, fmt.Errorf("unknown match type %q", s.cfg.MatchType)
	}
}

// fuzzySimilarity returns the edit-distance similarity between two
// strings, normalized to [0, 1] by the longer length.
func fuzzySimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(distance)/float64(maxLen)
}
