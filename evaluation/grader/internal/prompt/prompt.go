//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package prompt renders grading prompt templates.
package prompt

import (
	"strings"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Placeholders substituted into grading prompt templates.
const (
	PlaceholderInput      = "{input}"
	PlaceholderCompletion = "{completion}"
	PlaceholderIdeal      = "{ideal}"
)

// Render substitutes the sample conversation, the completion text and
// the ideal answers into the template. Substitution is literal so that
// completions containing template-like text are never interpreted.
func Render(template string, sample *evalset.EvalSample, completion *model.Result) string {
	replacer := strings.NewReplacer(
		PlaceholderInput, FormatConversation(sample.Input),
		PlaceholderCompletion, completion.Content,
		PlaceholderIdeal, FormatIdeal(sample.Ideal),
	)
	return replacer.Replace(template)
}

// FormatConversation flattens a conversation into "role: content" lines.
func FormatConversation(messages []model.Message) string {
	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		lines = append(lines, message.Role.String()+": "+message.Content)
	}
	return strings.Join(lines, "\n")
}

// FormatIdeal joins ideal variants; multiple variants are listed as
// alternatives.
func FormatIdeal(ideal evalset.Ideal) string {
	if len(ideal) == 1 {
		return ideal[0]
	}
	return strings.Join(ideal, " or ")
}
