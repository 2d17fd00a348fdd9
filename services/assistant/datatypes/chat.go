// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the assistant service.
//
// This file contains the chat turn request/response types and the closed
// message role vocabulary. Article types live in article.go, session state
// in session.go, and telemetry rows in querylog.go.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// MaxMessageContentBytes is the maximum size of a single chat message.
// Larger payloads are rejected before any provider call is made.
const MaxMessageContentBytes = 32 * 1024 // 32KB

// chatValidate is the validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces the byte (not rune) limit on message content.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Roles and Messages
// =============================================================================

// Role identifies the author of a stored conversation message. It is a
// closed two-variant vocabulary: providers with a different role alphabet
// (e.g. OpenAI's "system"/"tool" roles) get an explicit mapping at the
// client boundary rather than a string passthrough.
type Role string

const (
	// RoleUser marks a message written by the end user.
	RoleUser Role = "user"

	// RoleAssistant marks a message generated by the assistant.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn entry in a conversation history.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// =============================================================================
// Chat Turn Request / Response Types
// =============================================================================

// ChatRequest represents one conversational turn submitted by a client.
//
// # Fields
//
//   - SessionID: Optional. An existing session id to continue. An unknown or
//     malformed id is not an error; a fresh session is created instead.
//   - Message: Required. The user's question, limited to 32KB.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" validate:"required,maxbytes"`
}

// Validate validates the ChatRequest fields after JSON binding.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// SourceInfo is one cited knowledge-base article in a chat response,
// carrying the fused retrieval score it ranked with at answer time.
type SourceInfo struct {
	Title string  `json:"title"`
	Slug  string  `json:"slug"`
	Score float64 `json:"score"`
}

// ChatResult is the outcome of one completed turn.
type ChatResult struct {
	SessionID string       `json:"sessionId"`
	Reply     string       `json:"reply"`
	Sources   []SourceInfo `json:"sources"`
}
