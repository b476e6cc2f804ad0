//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides an OpenAI-compatible model.Invoker implementation.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Verify that Invoker implements the model.Invoker interface.
var _ model.Invoker = (*Invoker)(nil)

// ProviderName is the provider identifier reported for cost lookup.
const ProviderName = "openai"

// Invoker issues chat completion calls against the OpenAI API or any
// OpenAI-compatible endpoint.
type Invoker struct {
	client openai.Client
	name   string
}

// Option represents a functional option for configuring the Invoker.
type Option func(*options)

type options struct {
	apiKey  string
	baseURL string
	extra   []openaiopt.RequestOption
}

// WithAPIKey sets the API key.
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

// WithRequestOptions appends extra request options passed to the client.
func WithRequestOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.extra = append(o.extra, opts...)
	}
}

// New creates an Invoker for the named model.
func New(name string, opt ...Option) *Invoker {
	opts := &options{}
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
	clientOpts = append(clientOpts, opts.extra...)
	return &Invoker{
		client: openai.NewClient(clientOpts...),
		name:   name,
	}
}

// Complete implements model.Invoker.
func (i *Invoker) Complete(ctx context.Context, messages []model.Message, opts *model.Options) (*model.Result, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(i.name),
		Messages: toOpenAIMessages(messages),
	}
	if opts != nil {
		if opts.Temperature != nil {
			params.Temperature = openai.Float(*opts.Temperature)
		}
		if opts.MaxTokens != nil {
			params.MaxTokens = openai.Int(int64(*opts.MaxTokens))
		}
		if opts.TopP != nil {
			params.TopP = openai.Float(*opts.TopP)
		}
	}
	completion, err := i.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("openai chat completion: no choices returned")
	}
	choice := completion.Choices[0]
	result := &model.Result{
		Content: choice.Message.Content,
		Model:   completion.Model,
	}
	if choice.FinishReason != "" {
		finishReason := choice.FinishReason
		result.FinishReason = &finishReason
	}
	if completion.Usage.TotalTokens > 0 {
		result.Usage = &model.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		}
	}
	return result, nil
}

// ModelName implements model.Invoker.
func (i *Invoker) ModelName() string { return i.name }

// Provider implements model.Invoker.
func (i *Invoker) Provider() string { return ProviderName }

// toOpenAIMessages converts the neutral message list to SDK params.
func toOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case model.RoleSystem:
			converted = append(converted, openai.SystemMessage(message.Content))
		case model.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(message.Content))
		default:
			converted = append(converted, openai.UserMessage(message.Content))
		}
	}
	return converted
}
