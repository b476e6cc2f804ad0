//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package embedder defines the text embedding contract used by semantic
// grading, plus an in-process memoizing wrapper.
package embedder

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Embedder converts text into embedding vectors.
type Embedder interface {
	// GetEmbedding returns the embedding vector for the given text.
	GetEmbedding(ctx context.Context, text string) ([]float64, error)
	// GetEmbeddings returns one embedding vector per input text.
	GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
	// ModelName returns the identifier of the embedding model.
	ModelName() string
}

// Memoized wraps an Embedder and caches vectors in-process for the
// lifetime of the wrapper, keyed by (embedding model, normalized text).
// It avoids recomputing identical texts within a single evaluation run;
// the map is unbounded because a run bounds the number of distinct texts.
type Memoized struct {
	inner Embedder

	mu      sync.Mutex
	vectors map[string][]float64
}

// Memoize wraps the given embedder with in-process memoization.
func Memoize(inner Embedder) *Memoized {
	return &Memoized{
		inner:   inner,
		vectors: make(map[string][]float64),
	}
}

// GetEmbedding implements Embedder.
func (m *Memoized) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	key := m.memoKey(text)
	m.mu.Lock()
	if vector, ok := m.vectors[key]; ok {
		m.mu.Unlock()
		return vector, nil
	}
	m.mu.Unlock()
	vector, err := m.inner.GetEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.vectors[key] = vector
	m.mu.Unlock()
	return vector, nil
}

// GetEmbeddings implements Embedder. Each text is resolved through the
// memo individually so repeated texts inside one batch still hit.
func (m *Memoized) GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := m.GetEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// ModelName implements Embedder.
func (m *Memoized) ModelName() string { return m.inner.ModelName() }

// Size reports how many distinct texts are memoized.
func (m *Memoized) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}

func (m *Memoized) memoKey(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	return m.inner.ModelName() + "\x00" + normalized
}

// Ensure interface compliance.
var _ Embedder = (*Memoized)(nil)
