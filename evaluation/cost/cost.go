//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package cost defines the pricing lookup used to estimate run cost.
// Maintaining real pricing tables is out of scope; callers supply their
// own table or Model implementation.
package cost

import (
	"strings"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
)

// Rates holds per-1000-token prices for one model.
type Rates struct {
	// InputPer1K is the dollar price per 1000 prompt tokens.
	InputPer1K float64 `json:"inputPer1k"`
	// OutputPer1K is the dollar price per 1000 completion tokens.
	OutputPer1K float64 `json:"outputPer1k"`
}

// Model resolves pricing for a (provider, model) pair.
type Model interface {
	// Lookup returns the rates for the pair, and whether pricing is known.
	Lookup(provider, model string) (Rates, bool)
}

// StaticTable is an in-memory Model keyed by "provider/model".
type StaticTable map[string]Rates

// Lookup implements Model. Keys are matched case-insensitively.
func (t StaticTable) Lookup(provider, model string) (Rates, bool) {
	rates, ok := t[strings.ToLower(provider)+"/"+strings.ToLower(model)]
	return rates, ok
}

// Ensure interface compliance.
var _ Model = (StaticTable)(nil)

// Estimate prices the aggregated usage and fills its cost fields. It is a
// no-op when usage is nil or pricing for the pair is unknown.
func Estimate(usage *evalresult.TokenUsage, costModel Model, provider, model string) {
	if usage == nil || costModel == nil {
		return
	}
	rates, ok := costModel.Lookup(provider, model)
	if !ok {
		return
	}
	promptCost := float64(usage.TotalPromptTokens) / 1000 * rates.InputPer1K
	completionCost := float64(usage.TotalCompletionTokens) / 1000 * rates.OutputPer1K
	usage.EstimatedCost = promptCost + completionCost
	usage.CostBreakdown = &evalresult.CostBreakdown{
		PromptCost:     promptCost,
		CompletionCost: completionCost,
	}
}
