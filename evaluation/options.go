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
	"trpc.group/trpc-go/trpc-eval-go/embedder"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/cache"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/cost"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Option configures a coordinator.
type Option func(*options)

type options struct {
	evalName       string
	cacheStore     cache.Store
	noCache        bool
	metricRegistry *metric.Registry
	gradingConfig  *grader.Config
	strategy       grader.Strategy
	judgeModel     model.Invoker
	embed          embedder.Embedder
	costModel      cost.Model
	completionOpts *model.Options
	parallelism    int
	dryRun         bool
}

func newOptions(opt ...Option) *options {
	opts := &options{
		evalName:       "eval",
		metricRegistry: metric.NewDefaultRegistry(),
		parallelism:    1,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// WithEvalName sets the evaluation name carried on the report.
func WithEvalName(name string) Option {
	return func(opts *options) {
		opts.evalName = name
	}
}

// WithCacheStore sets the completion cache backend. When unset, a
// process-local bounded store is used; see WithoutCache to disable
// caching entirely.
func WithCacheStore(store cache.Store) Option {
	return func(opts *options) {
		opts.cacheStore = store
	}
}

// WithoutCache disables completion caching for the run.
func WithoutCache() Option {
	return func(opts *options) {
		opts.noCache = true
	}
}

// WithMetricRegistry sets the custom metric registry. When unset, the
// builtin calculators run. A nil registry disables custom metrics.
func WithMetricRegistry(registry *metric.Registry) Option {
	return func(opts *options) {
		opts.metricRegistry = registry
	}
}

// WithGradingConfig selects the grading strategy declaratively; the
// strategy is resolved through the kind factory at construction time.
// Mutually exclusive with WithGradingStrategy.
func WithGradingConfig(cfg *grader.Config) Option {
	return func(opts *options) {
		opts.gradingConfig = cfg
	}
}

// WithGradingStrategy injects an already constructed grading strategy.
// Mutually exclusive with WithGradingConfig.
func WithGradingStrategy(strategy grader.Strategy) Option {
	return func(opts *options) {
		opts.strategy = strategy
	}
}

// WithJudgeModel sets the secondary grading model required by the
// model_graded and choice_based strategies.
func WithJudgeModel(judge model.Invoker) Option {
	return func(opts *options) {
		opts.judgeModel = judge
	}
}

// WithEmbedder sets the embedding provider required by the
// semantic_similarity strategy.
func WithEmbedder(embed embedder.Embedder) Option {
	return func(opts *options) {
		opts.embed = embed
	}
}

// WithCostModel sets the pricing lookup used to estimate run cost. When
// unset, the report carries token usage without a cost estimate.
func WithCostModel(costModel cost.Model) Option {
	return func(opts *options) {
		opts.costModel = costModel
	}
}

// WithCompletionOptions sets the options passed to every model call.
// They participate in cache key derivation.
func WithCompletionOptions(completionOpts *model.Options) Option {
	return func(opts *options) {
		opts.completionOpts = completionOpts
	}
}

// WithParallelism bounds concurrent sample evaluation. Values below 2
// keep the default sequential loop.
func WithParallelism(n int) Option {
	return func(opts *options) {
		if n > 1 {
			opts.parallelism = n
		}
	}
}

// WithDryRun substitutes a placeholder completion for every sample and
// skips cache, model and grading calls. Used to validate configuration
// without spending tokens.
func WithDryRun(dryRun bool) Option {
	return func(opts *options) {
		opts.dryRun = dryRun
	}
}
