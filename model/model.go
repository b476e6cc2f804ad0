//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the chat completion data model and the Invoker
// contract implemented by concrete model providers.
package model

import "context"

// Role represents the author of a chat message.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the role of the message author.
	Role Role `json:"role"`
	// Content is the message content.
	Content string `json:"content"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{
		Role:    RoleUser,
		Content: content,
	}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{
		Role:    RoleAssistant,
		Content: content,
	}
}

// Options carries per-call completion parameters. The zero value requests
// provider defaults. Options participate in cache key derivation, so two
// calls with different options never share a cached completion.
type Options struct {
	// Temperature controls sampling randomness.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens bounds the completion length.
	MaxTokens *int `json:"max_tokens,omitempty"`
	// TopP controls nucleus sampling.
	TopP *float64 `json:"top_p,omitempty"`
	// Stop lists stop sequences.
	Stop []string `json:"stop,omitempty"`
}

// Usage records token consumption for a single completion.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`
	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`
	// TotalTokens is the total number of tokens in the response.
	TotalTokens int `json:"total_tokens"`
}

// Result is the outcome of one chat completion call. Usage is nil when the
// provider did not report it, for completions reconstructed from cache, and
// for dry-run stubs.
type Result struct {
	// Content is the completion text.
	Content string `json:"content"`
	// Model identifies the model that produced the completion.
	Model string `json:"model"`
	// Usage is the token usage reported by the provider, if any.
	Usage *Usage `json:"usage,omitempty"`
	// FinishReason is the provider-reported finish reason, if any.
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Invoker issues chat completion calls against a concrete model provider.
// Implementations return a single descriptive error per failed call;
// timeout handling is the implementation's responsibility.
type Invoker interface {
	// Complete issues one chat completion call.
	Complete(ctx context.Context, messages []Message, opts *Options) (*Result, error)
	// ModelName returns the identifier of the underlying model.
	ModelName() string
	// Provider returns the provider identifier used for cost lookup.
	Provider() string
}
