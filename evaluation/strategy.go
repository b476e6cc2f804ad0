//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package evaluation

import (
	"fmt"

	"trpc.group/trpc-go/trpc-eval-go/embedder"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader/choice"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader/exact"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader/judge"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader/semantic"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// newStrategy resolves a grading config into a strategy through the kind
// factory. The judge model and embedder are only required by the kinds
// that use them; a missing one is a construction-time error.
func newStrategy(cfg *grader.Config, judgeModel model.Invoker, embed embedder.Embedder) (grader.Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case grader.KindExactMatch:
		return exact.New(cfg.ExactMatch)
	case grader.KindModelGraded:
		return judge.New(cfg.ModelGraded, judgeModel)
	case grader.KindChoiceBased:
		return choice.New(cfg.ChoiceBased, judgeModel)
	case grader.KindSemanticSimilarity:
		return semantic.New(cfg.SemanticSimilarity, embed)
	default:
		return nil, fmt.Errorf("unknown grading strategy kind %q", cfg.Kind)
	}
}
