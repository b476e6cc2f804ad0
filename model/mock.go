//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"context"
	"errors"
	"sync"
)

// Mock is a scriptable Invoker used in tests. Responses are consumed in
// order; calls beyond the queued responses fail. RespondWith may be set
// instead of a queue to derive the reply from the request.
type Mock struct {
	// Name reported by ModelName. Defaults to "mock-model".
	Name string
	// ProviderName reported by Provider. Defaults to "mock".
	ProviderName string
	// RespondWith, when set, computes the result for every call.
	RespondWith func(messages []Message, opts *Options) (*Result, error)

	mu        sync.Mutex
	queue     []queuedCall
	callCount int
}

type queuedCall struct {
	result *Result
	err    error
}

// Push queues a successful response.
func (m *Mock) Push(result *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queuedCall{result: result})
}

// PushError queues a failed call.
func (m *Mock) PushError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, queuedCall{err: err})
}

// CallCount reports how many times Complete has been invoked.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Complete implements Invoker.
func (m *Mock) Complete(ctx context.Context, messages []Message, opts *Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.callCount++
	if m.RespondWith != nil {
		fn := m.RespondWith
		m.mu.Unlock()
		return fn(messages, opts)
	}
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return nil, errors.New("mock model: no queued calls")
	}
	call := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()
	if call.err != nil {
		return nil, call.err
	}
	result := call.result
	if result.Model == "" {
		result.Model = m.ModelName()
	}
	return result, nil
}

// ModelName implements Invoker.
func (m *Mock) ModelName() string {
	if m.Name == "" {
		return "mock-model"
	}
	return m.Name
}

// Provider implements Invoker.
func (m *Mock) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Ensure interface compliance.
var _ Invoker = (*Mock)(nil)
