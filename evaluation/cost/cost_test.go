//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
)

func TestStaticTableLookup(t *testing.T) {
	table := StaticTable{
		"openai/gpt-4o-mini": {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	}

	rates, ok := table.Lookup("openai", "gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, 0.00015, rates.InputPer1K)

	// Matching is case-insensitive.
	_, ok = table.Lookup("OpenAI", "GPT-4o-Mini")
	assert.True(t, ok)

	_, ok = table.Lookup("openai", "unknown-model")
	assert.False(t, ok)
}

func TestEstimate(t *testing.T) {
	table := StaticTable{
		"openai/gpt-4o-mini": {InputPer1K: 0.01, OutputPer1K: 0.03},
	}
	usage := &evalresult.TokenUsage{
		TotalPromptTokens:     2000,
		TotalCompletionTokens: 1000,
	}
	Estimate(usage, table, "openai", "gpt-4o-mini")

	assert.InDelta(t, 0.05, usage.EstimatedCost, 1e-9)
	require.NotNil(t, usage.CostBreakdown)
	assert.InDelta(t, 0.02, usage.CostBreakdown.PromptCost, 1e-9)
	assert.InDelta(t, 0.03, usage.CostBreakdown.CompletionCost, 1e-9)
}

func TestEstimateNoOpCases(t *testing.T) {
	table := StaticTable{}

	// Nil usage and nil model are both tolerated.
	Estimate(nil, table, "openai", "gpt-4o-mini")

	usage := &evalresult.TokenUsage{TotalPromptTokens: 1000}
	Estimate(usage, nil, "openai", "gpt-4o-mini")
	assert.Equal(t, 0.0, usage.EstimatedCost)
	assert.Nil(t, usage.CostBreakdown)

	// Unknown pricing leaves the usage untouched.
	Estimate(usage, table, "openai", "gpt-4o-mini")
	assert.Equal(t, 0.0, usage.EstimatedCost)
	assert.Nil(t, usage.CostBreakdown)
}
