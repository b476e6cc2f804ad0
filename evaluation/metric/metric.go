//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package metric provides the custom metric registry. Calculators are
// registered by name, can be toggled per run, and compute aggregate
// figures over the graded results of a finished evaluation.
package metric

import (
	"fmt"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/log"
)

// Calculator computes a single aggregate metric over graded results.
// Calculate receives the per-sample results and the partially assembled
// report (counts, score and token usage are already populated; custom
// metrics are not).
type Calculator interface {
	// Name is the registry key, stable across runs.
	Name() string
	// Category classifies the metric for report consumers.
	Category() evalresult.MetricCategory
	// HigherIsBetter reports the direction of improvement.
	HigherIsBetter() bool
	// Calculate computes the metric value. Returning an error skips the
	// metric without failing the run.
	Calculate(results []*evalresult.EvalResult, report *evalresult.EvalReport) (*evalresult.MetricResult, error)
}

// Registry holds named calculators with per-calculator enable flags.
// The zero value is not usable, construct with NewRegistry.
type Registry struct {
	mu          sync.RWMutex
	calculators map[string]Calculator
	enabled     map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		calculators: make(map[string]Calculator),
		enabled:     make(map[string]bool),
	}
}

// NewDefaultRegistry creates a registry with the builtin calculators
// registered and enabled.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range builtinCalculators() {
		// Builtin names never collide, ignore the error.
		_ = r.Register(c)
	}
	return r
}

// Register adds a calculator, enabled by default. Registering a name
// that already exists is an error, use Unregister first to replace.
func (r *Registry) Register(c Calculator) error {
	if c == nil {
		return fmt.Errorf("calculator is nil")
	}
	name := c.Name()
	if name == "" {
		return fmt.Errorf("calculator has an empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calculators[name]; ok {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.calculators[name] = c
	r.enabled[name] = true
	return nil
}

// Unregister removes a calculator. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calculators, name)
	delete(r.enabled, name)
}

// SetEnabled toggles a calculator without removing it. Unknown names
// are an error so typos surface early.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calculators[name]; !ok {
		return fmt.Errorf("metric %q not registered", name)
	}
	r.enabled[name] = enabled
	return nil
}

// Get returns the calculator registered under name.
func (r *Registry) Get(name string) (Calculator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calculators[name]
	return c, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.calculators))
	for name := range r.calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CalculateAll runs every enabled calculator over the results. A failing
// calculator is logged and skipped; it never fails the evaluation and
// never prevents the remaining metrics from running. Results come back
// in sorted name order so reports are stable.
func (r *Registry) CalculateAll(results []*evalresult.EvalResult, report *evalresult.EvalReport) []*evalresult.MetricResult {
	r.mu.RLock()
	names := make([]string, 0, len(r.calculators))
	for name := range r.calculators {
		if r.enabled[name] {
			names = append(names, name)
		}
	}
	calculators := make(map[string]Calculator, len(names))
	for _, name := range names {
		calculators[name] = r.calculators[name]
	}
	r.mu.RUnlock()

	sort.Strings(names)
	metrics := make([]*evalresult.MetricResult, 0, len(names))
	for _, name := range names {
		m, err := calculators[name].Calculate(results, report)
		if err != nil {
			log.Warnf("metric %q failed, skipping: %v", name, err)
			continue
		}
		if m == nil {
			continue
		}
		metrics = append(metrics, m)
	}
	return metrics
}
