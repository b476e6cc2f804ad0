//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package judge provides the model-graded strategy: a secondary grading
// model renders a verdict over the evaluated completion.
package judge

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

// Builtin grading prompt templates.
const (
	// DefaultClassifyTemplate asks for a direct verdict.
	DefaultClassifyTemplate = "You are grading a model answer.\n" +
		"Question:\n{input}\n\nSubmitted answer:\n{completion}\n\nExpected answer:\n{ideal}\n\n" +
		"Reply with a single word: correct or incorrect."
	// DefaultCoTClassifyTemplate asks for reasoning followed by a verdict.
	DefaultCoTClassifyTemplate = "You are grading a model answer.\n" +
		"Question:\n{input}\n\nSubmitted answer:\n{completion}\n\nExpected answer:\n{ideal}\n\n" +
		"Reason step by step about whether the submitted answer matches the expected answer. " +
		"Finish with a final line containing a single word: correct or incorrect."
)

// Builtin correctness vocabulary.
var (
	defaultPassTokens = []string{"correct", "yes"}
	defaultFailTokens = []string{"incorrect", "no"}
)

// Strategy grades completions with a secondary judge model. The judge
// model is distinct from the evaluated model; its reply is scanned for a
// verdict token and unparseable replies fail closed.
type Strategy struct {
	cfg      grader.ModelGradedConfig
	judge    model.Invoker
	template string
	verdicts map[string]bool
}

// New creates a ModelGraded strategy. The judge invoker is required.
func New(cfg *grader.ModelGradedConfig, judge model.Invoker) (*Strategy, error) {
	if cfg == nil {
		return nil, errors.New("model_graded config is nil")
	}
	if judge == nil {
		return nil, errors.New("grading model is required for model_graded strategy")
	}
	template := cfg.PromptTemplate
	switch cfg.Mode {
	case grader.ModeClassify:
		if template == "" {
			template = DefaultClassifyTemplate
		}
	case grader.ModeCoTClassify:
		if template == "" {
			template = DefaultCoTClassifyTemplate
		}
	default:
		return nil, fmt.Errorf("unknown judge mode %q", cfg.Mode)
	}
	passTokens := cfg.PassTokens
	if len(passTokens) == 0 {
		passTokens = defaultPassTokens
	}
	failTokens := cfg.FailTokens
	if len(failTokens) == 0 {
		failTokens = defaultFailTokens
	}
	verdicts := make(map[string]bool, len(passTokens)+len(failTokens))
	for _, token := range passTokens {
		verdicts[strings.ToLower(token)] = true
	}
	for _, token := range failTokens {
		verdicts[strings.ToLower(token)] = false
	}
	return &Strategy{
		cfg:      *cfg,
		judge:    judge,
		template: template,
		verdicts: verdicts,
	}, nil
}

// Kind implements grader.Strategy.
func (s *Strategy) Kind() grader.Kind { return grader.KindModelGraded }

// Evaluate implements grader.Strategy.
func (s *Strategy) Evaluate(ctx context.Context, sample *evalset.EvalSample, completion *model.Result) (*evalresult.EvalResult, error) {
	if sample == nil {
		return nil, errors.New("sample is nil")
	}
	if completion == nil {
		return nil, errors.New("completion is nil")
	}
	gradingPrompt := prompt.Render(s.template, sample, completion)
	reply, err := s.judge.Complete(ctx, []model.Message{model.NewUserMessage(gradingPrompt)}, s.cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("judge model call: %w", err)
	}
	verdict, passed, found := s.extractVerdict(reply.Content)
	if !found {
		// Fail closed: an unrecognized reply never defaults to a pass.
		reasoning := fmt.Sprintf("unparseable verdict in judge reply: %q", truncate(reply.Content, 160))
		return grader.NewResult(sample, completion, 0.0, false, reasoning), nil
	}
	score := 0.0
	if passed {
		score = 1.0
	}
	reasoning := fmt.Sprintf("judge verdict %q (%s mode)", verdict, s.cfg.Mode)
	if s.cfg.Mode == grader.ModeCoTClassify {
		reasoning = fmt.Sprintf("judge verdict %q after reasoning: %s", verdict, truncate(reply.Content, 300))
	}
	return grader.NewResult(sample, completion, score, passed, reasoning), nil
}

// extractVerdict scans the reply for a recognized verdict token,
// case-insensitively; the first recognized token wins. In cot_classify
// mode only the final non-empty line is scanned, since everything before
// it is reasoning and may mention verdict words incidentally.
func (s *Strategy) extractVerdict(reply string) (token string, passed, found bool) {
	scanned := reply
	if s.cfg.Mode == grader.ModeCoTClassify {
		scanned = finalLine(reply)
	}
	for _, word := range strings.Fields(scanned) {
		word = strings.ToLower(strings.Trim(word, ".,:;!?\"'()[]*"))
		if passed, ok := s.verdicts[word]; ok {
			return word, passed, true
		}
	}
	return "", false, false
}

// finalLine returns the last non-empty line of the reply.
func finalLine(reply string) string {
	lines := strings.Split(reply, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
