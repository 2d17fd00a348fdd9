// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession owns the ordered message history for one conversation.
// Messages only ever grow, in arrival order; there is no reordering and no
// server-side deletion. The session is written back once per turn, after the
// assistant message is appended — concurrent turns against the same id race
// and the later save wins (accepted last-write-wins semantics).
type ChatSession struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Persisted is set by the session store once the session exists in the
	// backing store, so Save knows whether to create or update.
	Persisted bool `json:"-"`
}

// NewChatSession creates an empty session with a fresh id.
func NewChatSession() *ChatSession {
	now := time.Now().UTC()
	return &ChatSession{
		ID:        uuid.New().String(),
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds one message to the end of the history.
func (s *ChatSession) Append(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
	s.UpdatedAt = time.Now().UTC()
}

// History returns the last window messages in original order. A window
// larger than the stored history returns everything.
func (s *ChatSession) History(window int) []Message {
	if window <= 0 || len(s.Messages) == 0 {
		return nil
	}
	start := len(s.Messages) - window
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(s.Messages)-start)
	copy(out, s.Messages[start:])
	return out
}
