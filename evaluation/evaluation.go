//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package evaluation provides the run coordinator: it drives samples
// through the cache, the evaluated model and the grading strategy, then
// aggregates the graded results into a report.
//
// Collaborators are injected explicitly. A coordinator owns no global
// state, so independent runs can execute side by side in one process.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/cache"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/cache/inmemory"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/cost"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalset"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/grader"
	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// DryRunPlaceholder is the completion content substituted for every
// sample in dry-run mode.
const DryRunPlaceholder = "[dry run]"

// Coordinator orchestrates one evaluation: cache consultation, model
// invocation, grading and aggregation. Construct with New; the zero
// value is not usable.
type Coordinator struct {
	invoker  model.Invoker
	source   evalset.Source
	strategy grader.Strategy
	opts     *options

	// strategyConfig is hashed into cache keys; nil when the strategy was
	// injected directly.
	strategyConfig *grader.Config
}

// New creates a coordinator for the evaluated model and sample source.
// A grading strategy is required, either declaratively through
// WithGradingConfig or directly through WithGradingStrategy. All setup
// problems surface here, before any sample is attempted.
func New(invoker model.Invoker, source evalset.Source, opt ...Option) (*Coordinator, error) {
	if invoker == nil {
		return nil, errors.New("model invoker is required")
	}
	if source == nil {
		return nil, errors.New("sample source is required")
	}
	opts := newOptions(opt...)
	if opts.gradingConfig != nil && opts.strategy != nil {
		return nil, errors.New("grading config and grading strategy are mutually exclusive")
	}
	strategy := opts.strategy
	if strategy == nil {
		if opts.gradingConfig == nil {
			return nil, errors.New("a grading config or grading strategy is required")
		}
		var err error
		strategy, err = newStrategy(opts.gradingConfig, opts.judgeModel, opts.embed)
		if err != nil {
			return nil, fmt.Errorf("resolve grading strategy: %w", err)
		}
	}
	if opts.cacheStore == nil && !opts.noCache {
		opts.cacheStore = inmemory.New()
	}
	if opts.noCache {
		opts.cacheStore = nil
	}
	return &Coordinator{
		invoker:        invoker,
		source:         source,
		strategy:       strategy,
		strategyConfig: opts.gradingConfig,
		opts:           opts,
	}, nil
}

// Run evaluates every sample from the source and returns the report.
// Individual sample failures are folded into the report as zero-score
// results; Run only errors when the source itself fails.
func (c *Coordinator) Run(ctx context.Context) (*evalresult.EvalReport, error) {
	samples, err := c.source.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	start := time.Now()
	report := &evalresult.EvalReport{
		EvalName:  c.opts.evalName,
		Model:     c.invoker.ModelName(),
		RunID:     uuid.NewString(),
		CreatedAt: start,
	}
	log.Infof("evaluation %s (run %s): %d sample(s), model %s",
		report.EvalName, report.RunID, len(samples), report.Model)

	results := make([]*evalresult.EvalResult, len(samples))
	if c.opts.parallelism > 1 && len(samples) > 1 {
		c.runParallel(ctx, samples, results)
	} else {
		for i, sample := range samples {
			results[i] = c.evaluateSample(ctx, sample)
		}
	}

	report.Results = results
	report.Summarize()
	report.TokenUsage = evalresult.AggregateTokenUsage(results)
	cost.Estimate(report.TokenUsage, c.opts.costModel, c.invoker.Provider(), c.invoker.ModelName())
	if c.opts.metricRegistry != nil {
		report.CustomMetrics = c.opts.metricRegistry.CalculateAll(results, report)
	}
	report.DurationMs = time.Since(start).Milliseconds()
	log.Infof("evaluation %s (run %s): score %.4f (%d/%d), %d cache hit(s), %dms",
		report.EvalName, report.RunID, report.Score, report.Correct, report.TotalSamples,
		report.CacheHits, report.DurationMs)
	return report, nil
}

// runParallel fans samples out over a bounded worker pool. Each worker
// writes its result into the slot matching the sample index, so the
// report ordering invariant holds under out-of-order completion.
func (c *Coordinator) runParallel(ctx context.Context, samples []*evalset.EvalSample, results []*evalresult.EvalResult) {
	pool, err := ants.NewPool(c.opts.parallelism)
	if err != nil {
		log.Warnf("worker pool unavailable, falling back to sequential: %v", err)
		for i, sample := range samples {
			results[i] = c.evaluateSample(ctx, sample)
		}
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, sample := range samples {
		i, sample := i, sample
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = c.evaluateSample(ctx, sample)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = c.failedResult(sample, nil, fmt.Errorf("submit sample: %w", submitErr))
		}
	}
	wg.Wait()
}

// evaluateSample runs the per-sample algorithm: derive key, consult the
// cache, invoke the model on a miss, grade. Every failure path returns a
// synthesized zero-score result; nothing here aborts the run.
func (c *Coordinator) evaluateSample(ctx context.Context, sample *evalset.EvalSample) *evalresult.EvalResult {
	if sample == nil {
		return c.failedResult(sample, nil, errors.New("nil sample"))
	}
	if c.opts.dryRun {
		return c.dryRunResult(sample)
	}

	key, err := cache.DeriveKey(cache.KeyInputs{
		Model:             c.invoker.ModelName(),
		Sample:            sample,
		StrategyKind:      string(c.strategy.Kind()),
		StrategyConfig:    c.strategyConfig,
		CompletionOptions: c.opts.completionOpts,
	})
	if err != nil {
		return c.failedResult(sample, nil, fmt.Errorf("derive cache key: %w", err))
	}

	var completion *model.Result
	cacheHit := false
	if c.opts.cacheStore != nil {
		if cached, ok := c.opts.cacheStore.Get(ctx, key); ok {
			completion = cached
			cacheHit = true
		}
	}
	if completion == nil {
		completion, err = c.invoker.Complete(ctx, sample.Input, c.opts.completionOpts)
		if err != nil {
			log.Warnf("sample %s: model call failed: %v", sample.SampleID, err)
			return c.failedResult(sample, nil, err)
		}
		if c.opts.cacheStore != nil {
			c.opts.cacheStore.Set(ctx, key, completion)
		}
	}

	result, err := c.strategy.Evaluate(ctx, sample, completion)
	if err != nil {
		log.Warnf("sample %s: grading failed: %v", sample.SampleID, err)
		return c.failedResult(sample, completion, err)
	}
	if cacheHit {
		if result.Metadata == nil {
			result.Metadata = map[string]any{}
		}
		result.Metadata[evalresult.MetadataKeyCacheHit] = true
	}
	return result
}

// failedResult synthesizes the zero-score result for an isolated sample
// failure. The completion is empty for model failures and carries the
// fresh completion for grading failures.
func (c *Coordinator) failedResult(sample *evalset.EvalSample, completion *model.Result, err error) *evalresult.EvalResult {
	if completion == nil {
		completion = &model.Result{Model: c.invoker.ModelName()}
	}
	var result *evalresult.EvalResult
	if sample != nil {
		result = grader.NewResult(sample, completion, 0.0, false, err.Error())
	} else {
		result = &evalresult.EvalResult{
			Completion: completion,
			Reasoning:  err.Error(),
			Metadata:   map[string]any{},
		}
	}
	result.Metadata[evalresult.MetadataKeyError] = err.Error()
	return result
}

// dryRunResult builds the placeholder result for one sample without
// touching the cache, the model or the grading strategy.
func (c *Coordinator) dryRunResult(sample *evalset.EvalSample) *evalresult.EvalResult {
	completion := &model.Result{
		Content: DryRunPlaceholder,
		Model:   c.invoker.ModelName(),
	}
	result := grader.NewResult(sample, completion, 0.0, false, "dry run, not graded")
	result.Metadata[evalresult.MetadataKeyDryRun] = true
	return result
}
