//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

func newSample() *evalset.EvalSample {
	return &evalset.EvalSample{
		SampleID: "s1",
		Input:    []model.Message{model.NewUserMessage("What is the capital of France?")},
		Ideal:    evalset.Ideal{"Paris"},
	}
}

func newCompletion() *model.Result {
	return &model.Result{Content: "Paris", Model: "test-model"}
}

func TestNewValidation(t *testing.T) {
	judge := &model.Mock{}

	_, err := New(nil, judge)
	assert.Error(t, err)

	_, err = New(&grader.ModelGradedConfig{Mode: grader.ModeClassify}, nil)
	assert.Error(t, err)

	_, err = New(&grader.ModelGradedConfig{Mode: "vote"}, judge)
	assert.Error(t, err)
}

func TestClassifyVerdicts(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantPassed bool
		wantScore  float64
	}{
		{name: "plain correct", reply: "correct", wantPassed: true, wantScore: 1.0},
		{name: "uppercase with punctuation", reply: "Correct.", wantPassed: true, wantScore: 1.0},
		{name: "plain incorrect", reply: "incorrect", wantPassed: false, wantScore: 0.0},
		{name: "incorrect never matches as correct", reply: "That is incorrect.", wantPassed: false, wantScore: 0.0},
		{name: "first recognized token wins", reply: "incorrect, though arguably correct", wantPassed: false, wantScore: 0.0},
		{name: "yes counts as a pass", reply: "yes", wantPassed: true, wantScore: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := &model.Mock{}
			judge.Push(&model.Result{Content: tt.reply})
			strategy, err := New(&grader.ModelGradedConfig{Mode: grader.ModeClassify}, judge)
			require.NoError(t, err)

			result, err := strategy.Evaluate(context.Background(), newSample(), newCompletion())
			require.NoError(t, err)
			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Equal(t, tt.wantScore, result.Score)
		})
	}
}

func TestCoTClassifyScansFinalLine(t *testing.T) {
	judge := &model.Mock{}
	judge.Push(&model.Result{
		Content: "The submission says Paris, which is the expected answer.\n" +
			"An incorrect answer would name another city.\n\ncorrect",
	})
	strategy, err := New(&grader.ModelGradedConfig{Mode: grader.ModeCoTClassify}, judge)
	require.NoError(t, err)

	result, err := strategy.Evaluate(context.Background(), newSample(), newCompletion())
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 1.0, result.Score)
}

func TestUnparseableVerdictFailsClosed(t *testing.T) {
	judge := &model.Mock{}
	judge.Push(&model.Result{Content: "I am not sure what to make of this."})
	strategy, err := New(&grader.ModelGradedConfig{Mode: grader.ModeClassify}, judge)
	require.NoError(t, err)

	result, err := strategy.Evaluate(context.Background(), newSample(), newCompletion())
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, 0.0, result.Score)
	assert.Contains(t, result.Reasoning, "unparseable verdict")
}

func TestCustomVerdictVocabulary(t *testing.T) {
	judge := &model.Mock{}
	judge.Push(&model.Result{Content: "PASS"})
	strategy, err := New(&grader.ModelGradedConfig{
		Mode:       grader.ModeClassify,
		PassTokens: []string{"pass"},
		FailTokens: []string{"fail"},
	}, judge)
	require.NoError(t, err)

	result, err := strategy.Evaluate(context.Background(), newSample(), newCompletion())
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestJudgeErrorPropagates(t *testing.T) {
	judge := &model.Mock{}
	judge.PushError(errors.New("rate limited"))
	strategy, err := New(&grader.ModelGradedConfig{Mode: grader.ModeClassify}, judge)
	require.NoError(t, err)

	_, err = strategy.Evaluate(context.Background(), newSample(), newCompletion())
	assert.Error(t, err)
}

func TestPromptSubstitution(t *testing.T) {
	var prompt string
	judge := &model.Mock{
		RespondWith: func(messages []model.Message, _ *model.Options) (*model.Result, error) {
			prompt = messages[0].Content
			return &model.Result{Content: "correct"}, nil
		},
	}
	strategy, err := New(&grader.ModelGradedConfig{
		Mode:           grader.ModeClassify,
		PromptTemplate: "Q: {input} A: {completion} Expected: {ideal}. Reply correct or incorrect.",
	}, judge)
	require.NoError(t, err)

	_, err = strategy.Evaluate(context.Background(), newSample(), newCompletion())
	require.NoError(t, err)
	assert.True(t, strings.Contains(prompt, "capital of France"))
	assert.True(t, strings.Contains(prompt, "A: Paris"))
	assert.True(t, strings.Contains(prompt, "Expected: Paris"))
}
