//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package embedder

import (
	"context"
	"errors"
	"sync"
)

// Mock is a deterministic Embedder used in tests. Vectors maps exact
// input text to its embedding; unknown texts fail unless Fallback is set.
type Mock struct {
	// Name reported by ModelName. Defaults to "mock-embedding".
	Name string
	// Vectors maps input text to its embedding vector.
	Vectors map[string][]float64
	// Fallback computes vectors for texts missing from Vectors.
	Fallback func(text string) ([]float64, error)
	// Err, when set, fails every call.
	Err error

	mu        sync.Mutex
	callCount int
}

// CallCount reports how many individual texts have been embedded.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// GetEmbedding implements Embedder.
func (m *Mock) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if vector, ok := m.Vectors[text]; ok {
		return vector, nil
	}
	if m.Fallback != nil {
		return m.Fallback(text)
	}
	return nil, errors.New("mock embedder: no vector for text")
}

// GetEmbeddings implements Embedder.
func (m *Mock) GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := m.GetEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// ModelName implements Embedder.
func (m *Mock) ModelName() string {
	if m.Name == "" {
		return "mock-embedding"
	}
	return m.Name
}

// Ensure interface compliance.
var _ Embedder = (*Mock)(nil)
