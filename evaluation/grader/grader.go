//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package grader defines the polymorphic grading strategy contract.
//
// Grading is dispatched over a closed Kind enumeration resolved through a
// factory, rather than string-tagged subclassing; unknown kinds are
// configuration errors raised before any sample loop starts.
package grader

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Kind enumerates the grading strategy variants.
type Kind string

// Grading strategy kinds.
const (
	// KindExactMatch grades by deterministic string matching.
	KindExactMatch Kind = "exact_match"
	// KindModelGraded grades with a secondary judge model.
	KindModelGraded Kind = "model_graded"
	// KindChoiceBased grades with a judge model over enumerated choices.
	KindChoiceBased Kind = "choice_based"
	// KindSemanticSimilarity grades by embedding cosine similarity.
	KindSemanticSimilarity Kind = "semantic_similarity"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is one of the defined constants.
func (k Kind) IsValid() bool {
	switch k {
	case KindExactMatch, KindModelGraded, KindChoiceBased, KindSemanticSimilarity:
		return true
	default:
		return false
	}
}

// Strategy scores one sample's completion. Implementations must not
// mutate the sample, must populate Reasoning, and must be deterministic
// given deterministic collaborator outputs.
type Strategy interface {
	// Kind returns the strategy kind.
	Kind() Kind
	// Evaluate grades the completion against the sample's ideal answers.
	Evaluate(ctx context.Context, sample *evalset.EvalSample, completion *model.Result) (*evalresult.EvalResult, error)
}

// MatchType enumerates ExactMatch comparison rules.
type MatchType string

// ExactMatch comparison rules.
const (
	// MatchExact requires full equality.
	MatchExact MatchType = "exact"
	// MatchIncludes requires the completion to contain the ideal.
	MatchIncludes MatchType = "includes"
	// MatchFuzzy tolerates a small normalized edit distance.
	MatchFuzzy MatchType = "fuzzy"
	// MatchRegex compiles the ideal as a pattern against the completion.
	MatchRegex MatchType = "regex"
)

// JudgeMode enumerates ModelGraded verdict extraction modes.
type JudgeMode string

// ModelGraded verdict extraction modes.
const (
	// ModeClassify expects a direct verdict.
	ModeClassify JudgeMode = "classify"
	// ModeCoTClassify expects reasoning followed by a verdict.
	ModeCoTClassify JudgeMode = "cot_classify"
)

// SimilarityMode enumerates SemanticSimilarity combination rules.
type SimilarityMode string

// SemanticSimilarity combination rules.
const (
	// SimilarityBest scores by the maximum ideal similarity.
	SimilarityBest SimilarityMode = "best"
	// SimilarityThreshold passes if any ideal similarity meets the threshold.
	SimilarityThreshold SimilarityMode = "threshold"
	// SimilarityAll requires every ideal similarity to meet the threshold.
	SimilarityAll SimilarityMode = "all"
)

// ExactMatchConfig configures the ExactMatch strategy.
type ExactMatchConfig struct {
	// MatchType selects the comparison rule.
	MatchType MatchType `json:"match_type"`
	// CaseSensitive disables case folding before comparison.
	CaseSensitive bool `json:"case_sensitive"`
	// FuzzyThreshold is the minimum normalized similarity for MatchFuzzy.
	// Zero selects the default.
	FuzzyThreshold float64 `json:"fuzzy_threshold,omitempty"`
}

// ModelGradedConfig configures the ModelGraded strategy.
type ModelGradedConfig struct {
	// Mode selects verdict extraction.
	Mode JudgeMode `json:"mode"`
	// PromptTemplate is the grading prompt; {input}, {completion} and
	// {ideal} are substituted. Empty selects the builtin template.
	PromptTemplate string `json:"prompt_template,omitempty"`
	// PassTokens lists verdict tokens counted as a pass. Empty selects
	// the builtin correctness vocabulary.
	PassTokens []string `json:"pass_tokens,omitempty"`
	// FailTokens lists verdict tokens counted as a fail. Empty selects
	// the builtin correctness vocabulary.
	FailTokens []string `json:"fail_tokens,omitempty"`
	// Options are the completion options for the judge model.
	Options *model.Options `json:"options,omitempty"`
}

// ChoiceBasedConfig configures the ChoiceBased strategy.
type ChoiceBasedConfig struct {
	// PromptTemplate is the grading prompt; {input}, {completion} and
	// {ideal} are substituted. Empty selects the builtin template.
	PromptTemplate string `json:"prompt_template,omitempty"`
	// ChoiceStrings enumerates the verdicts the judge may return.
	ChoiceStrings []string `json:"choice_strings"`
	// ChoiceScores maps each choice string to its score in [0, 1].
	ChoiceScores map[string]float64 `json:"choice_scores"`
	// PassingScore is the minimum score counted as a pass. Zero selects
	// the default of 1.0.
	PassingScore float64 `json:"passing_score,omitempty"`
	// Options are the completion options for the judge model.
	Options *model.Options `json:"options,omitempty"`
}

// SemanticSimilarityConfig configures the SemanticSimilarity strategy.
type SemanticSimilarityConfig struct {
	// MatchMode selects how per-ideal similarities combine.
	MatchMode SimilarityMode `json:"match_mode"`
	// Threshold is the minimum cosine similarity counted as a pass.
	Threshold float64 `json:"threshold"`
}

// Config is the closed tagged variant over the strategy kinds. Exactly
// the field matching Kind must be set. The struct is JSON-serializable
// and participates in cache key derivation.
type Config struct {
	// Kind selects the strategy variant.
	Kind Kind `json:"kind"`
	// ExactMatch configures KindExactMatch.
	ExactMatch *ExactMatchConfig `json:"exact_match,omitempty"`
	// ModelGraded configures KindModelGraded.
	ModelGraded *ModelGradedConfig `json:"model_graded,omitempty"`
	// ChoiceBased configures KindChoiceBased.
	ChoiceBased *ChoiceBasedConfig `json:"choice_based,omitempty"`
	// SemanticSimilarity configures KindSemanticSimilarity.
	SemanticSimilarity *SemanticSimilarityConfig `json:"semantic_similarity,omitempty"`
}

// Validate checks that the config names a known kind and carries the
// matching variant configuration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("grading config is nil")
	}
	if !c.Kind.IsValid() {
		return fmt.Errorf("unknown grading strategy kind %q", c.Kind)
	}
	switch c.Kind {
	case KindExactMatch:
		if c.ExactMatch == nil {
			return fmt.Errorf("exact_match config is nil")
		}
	case KindModelGraded:
		if c.ModelGraded == nil {
			return fmt.Errorf("model_graded config is nil")
		}
	case KindChoiceBased:
		if c.ChoiceBased == nil {
			return fmt.Errorf("choice_based config is nil")
		}
	case KindSemanticSimilarity:
		if c.SemanticSimilarity == nil {
			return fmt.Errorf("semantic_similarity config is nil")
		}
	}
	return nil
}

// NewResult assembles the graded result for a sample, copying the
// sample's input and ideal so later report consumers cannot observe
// mutation.
func NewResult(sample *evalset.EvalSample, completion *model.Result, score float64, passed bool, reasoning string) *evalresult.EvalResult {
	return &evalresult.EvalResult{
		SampleID:   sample.SampleID,
		Input:      append([]model.Message(nil), sample.Input...),
		Ideal:      append(evalset.Ideal(nil), sample.Ideal...),
		Completion: completion,
		Score:      score,
		Passed:     passed,
		Reasoning:  reasoning,
		Metadata:   map[string]any{},
	}
}
