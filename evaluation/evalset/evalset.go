//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package evalset provides evaluation samples and their sources.
package evalset

import (
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Ideal holds the expected answer variants for a sample. It unmarshals
// from either a single string or an array of strings.
type Ideal []string

// UnmarshalJSON accepts both "answer" and ["answer a", "answer b"].
func (i *Ideal) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*i = Ideal{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("ideal must be a string or a list of strings: %w", err)
	}
	*i = Ideal(many)
	return nil
}

// EvalSample is one question/expected-answer unit fed into a run.
// Samples are created by a Source and never mutated by the engine.
type EvalSample struct {
	// SampleID uniquely identifies the sample within its eval set.
	SampleID string `json:"sample_id"`
	// Input is the ordered conversation presented to the model.
	Input []model.Message `json:"input"`
	// Ideal holds the expected answer variants.
	Ideal Ideal `json:"ideal"`
	// Metadata carries opaque sample annotations.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the sample. Graders receive the original
// sample read-only; the engine clones before any defensive mutation.
func (s *EvalSample) Clone() *EvalSample {
	if s == nil {
		return nil
	}
	clone := &EvalSample{
		SampleID: s.SampleID,
		Input:    append([]model.Message(nil), s.Input...),
		Ideal:    append(Ideal(nil), s.Ideal...),
	}
	if s.Metadata != nil {
		clone.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// Source supplies a pre-validated, ordered list of samples. Schema
// validation is a precondition enforced upstream, not by the engine.
type Source interface {
	// Samples returns the ordered sample list for the run.
	Samples(ctx context.Context) ([]*EvalSample, error)
}

// SliceSource adapts an in-memory sample slice into a Source.
type SliceSource []*EvalSample

// Samples implements Source.
func (s SliceSource) Samples(_ context.Context) ([]*EvalSample, error) {
	return s, nil
}

// Ensure interface compliance.
var _ Source = (SliceSource)(nil)
