//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package choice provides the choice-based strategy: a judge model picks
// one option from a fixed answer set and each option carries a score.
package choice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader/internal/prompt"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Verify that Strategy implements the grader.Strategy interface.
var _ grader.Strategy = (*Strategy)(nil)

const (
	// DefaultPassingScore is used when the config leaves PassingScore unset.
	DefaultPassingScore = 1.0
	// DefaultTemplate is used when the config leaves PromptTemplate unset.
	DefaultTemplate = "You are grading a model answer.\n" +
		"Question:\n{input}\n\nSubmitted answer:\n{completion}\n\nExpected answer:\n{ideal}"
)

// Strategy grades completions by asking a judge model to select one
// choice from a configured answer set. Each choice maps to a score and
// the sample passes when the score reaches the passing threshold.
type Strategy struct {
	cfg          grader.ChoiceBasedConfig
	judge        model.Invoker
	passingScore float64
	// lowest-scoring choice, used to fail closed when no choice is detected
	worstChoice string
	worstScore  float64
}

// New creates a ChoiceBased strategy. The judge invoker is required, and
// every configured choice must have a score.
func New(cfg *grader.ChoiceBasedConfig, judge model.Invoker) (*Strategy, error) {
	if cfg == nil {
		return nil, errors.New("choice_based config is nil")
	}
	if judge == nil {
		return nil, errors.New("grading model is required for choice_based strategy")
	}
	if len(cfg.ChoiceStrings) == 0 {
		return nil, errors.New("choice_based config requires at least one choice")
	}
	resolved := *cfg
	if resolved.PromptTemplate == "" {
		resolved.PromptTemplate = DefaultTemplate
	}
	worstChoice, worstScore := "", 0.0
	for i, c := range cfg.ChoiceStrings {
		score, ok := cfg.ChoiceScores[c]
		if !ok {
			return nil, fmt.Errorf("choice %q has no score", c)
		}
		if i == 0 || score < worstScore {
			worstChoice, worstScore = c, score
		}
	}
	passingScore := cfg.PassingScore
	if passingScore == 0 {
		passingScore = DefaultPassingScore
	}
	return &Strategy{
		cfg:          resolved,
		judge:        judge,
		passingScore: passingScore,
		worstChoice:  worstChoice,
		worstScore:   worstScore,
	}, nil
}

// Kind implements grader.Strategy.
func (s *Strategy) Kind() grader.Kind { return grader.KindChoiceBased }

// Evaluate implements grader.Strategy.
func (s *Strategy) Evaluate(ctx context.Context, sample *evalset.EvalSample, completion *model.Result) (*evalresult.EvalResult, error) {
	if sample == nil {
		return nil, errors.New("sample is nil")
	}
	if completion == nil {
		return nil, errors.New("completion is nil")
	}
	gradingPrompt := prompt.Render(s.cfg.PromptTemplate, sample, completion)
	gradingPrompt += "\n\nAnswer with exactly one of: " + strings.Join(s.cfg.ChoiceStrings, ", ")
	reply, err := s.judge.Complete(ctx, []model.Message{model.NewUserMessage(gradingPrompt)}, s.cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("judge model call: %w", err)
	}
	chosen, matches := s.detectChoice(reply.Content)
	if matches == 0 {
		// Fail closed: no recognizable choice maps to the lowest score.
		reasoning := fmt.Sprintf("no choice detected in judge reply, defaulting to %q", s.worstChoice)
		return grader.NewResult(sample, completion, s.worstScore, s.worstScore >= s.passingScore, reasoning), nil
	}
	score := s.cfg.ChoiceScores[chosen]
	reasoning := fmt.Sprintf("judge selected %q (score %.2f)", chosen, score)
	if matches > 1 {
		reasoning += fmt.Sprintf(", %d choices appeared in the reply, earliest occurrence wins", matches)
	}
	return grader.NewResult(sample, completion, score, score >= s.passingScore, reasoning), nil
}

// detectChoice finds the configured choice whose first case-insensitive
// occurrence in the reply comes earliest. It also reports how many
// distinct choices appeared at all, so ambiguity can be surfaced.
func (s *Strategy) detectChoice(reply string) (choice string, matches int) {
	lowered := strings.ToLower(reply)
	best := -1
	for _, c := range s.cfg.ChoiceStrings {
		idx := strings.Index(lowered, strings.ToLower(c))
		if idx < 0 {
			continue
		}
		matches++
		if best < 0 || idx < best {
			best, choice = idx, c
		}
	}
	return choice, matches
}
