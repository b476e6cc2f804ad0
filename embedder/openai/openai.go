//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides an OpenAI embedder implementation.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/trpc-eval-go/embedder"
)

// Verify that Embedder implements the embedder.Embedder interface.
var _ embedder.Embedder = (*Embedder)(nil)

// DefaultModel is the default OpenAI embedding model.
const DefaultModel = "text-embedding-3-small"

// Embedder generates embeddings through the OpenAI API.
type Embedder struct {
	client openai.Client
	model  string
}

// Option represents a functional option for configuring the Embedder.
type Option func(*options)

type options struct {
	model   string
	apiKey  string
	baseURL string
}

// WithModel sets the embedding model to use.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithAPIKey sets the OpenAI API key.
// If not provided, the OPENAI_API_KEY environment variable is used.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL sets a custom endpoint for OpenAI-compatible servers.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// New creates an OpenAI embedder.
func New(opt ...Option) *Embedder {
	opts := &options{model: DefaultModel}
	for _, o := range opt {
		o(opts)
	}
	var clientOpts []openaiopt.RequestOption
	if opts.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(opts.apiKey))
	}
	if opts.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(opts.baseURL))
	}
	return &Embedder{
		client: openai.NewClient(clientOpts...),
		model:  opts.model,
	}
}

// GetEmbedding implements embedder.Embedder.
func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}
	response, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return response.Data[0].Embedding, nil
}

// GetEmbeddings implements embedder.Embedder.
func (e *Embedder) GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	response, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response returned %d vectors, expected %d", len(response.Data), len(texts))
	}
	vectors := make([][]float64, len(texts))
	for _, item := range response.Data {
		if item.Index < 0 || int(item.Index) >= len(vectors) {
			return nil, fmt.Errorf("embedding response index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// ModelName implements embedder.Embedder.
func (e *Embedder) ModelName() string { return e.model }
