// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stores

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// SessionStore persists chat sessions in Weaviate, keyed by the session
// uuid as the object id. The message history is stored as one JSON text
// property so a session load/save is a single object read/write.
type SessionStore struct {
	client *weaviate.Client
}

// NewSessionStore creates a SessionStore on the given client.
func NewSessionStore(client *weaviate.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Load fetches a session by id. A malformed id or an id with no stored
// object returns datatypes.ErrSessionNotFound; only genuine store failures
// surface as *datatypes.StoreError.
func (s *SessionStore) Load(ctx context.Context, id string) (*datatypes.ChatSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Garbage ids take the lazy-creation path, same as unknown ids.
		return nil, datatypes.ErrSessionNotFound
	}

	objects, err := s.client.Data().ObjectsGetter().
		WithClassName(datatypes.ClassChatSession).
		WithID(id).
		Do(ctx)
	if err != nil {
		if isNotFoundError(err) {
			return nil, datatypes.ErrSessionNotFound
		}
		return nil, &datatypes.StoreError{Store: "sessions", Err: fmt.Errorf("loading session %s: %w", id, err)}
	}
	if len(objects) == 0 {
		return nil, datatypes.ErrSessionNotFound
	}

	props, ok := objects[0].Properties.(map[string]interface{})
	if !ok {
		return nil, &datatypes.StoreError{Store: "sessions", Err: fmt.Errorf("session %s has malformed properties", id)}
	}

	session := &datatypes.ChatSession{
		ID:        id,
		Messages:  []datatypes.Message{},
		CreatedAt: millisToTime(numberProp(props, "created_at")),
		UpdatedAt: millisToTime(numberProp(props, "updated_at")),
		Persisted: true,
	}

	if raw, ok := props["messages_json"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &session.Messages); err != nil {
			return nil, &datatypes.StoreError{Store: "sessions", Err: fmt.Errorf("decoding messages for session %s: %w", id, err)}
		}
	}
	return session, nil
}

// Save writes the session back, creating the object on first save and
// merging on subsequent ones. Marks the session persisted on success.
func (s *SessionStore) Save(ctx context.Context, session *datatypes.ChatSession) error {
	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return &datatypes.StoreError{Store: "sessions", Err: fmt.Errorf("encoding messages for session %s: %w", session.ID, err)}
	}

	if session.Persisted {
		err := s.client.Data().Updater().
			WithClassName(datatypes.ClassChatSession).
			WithID(session.ID).
			WithMerge().
			WithProperties(map[string]interface{}{
				"messages_json": string(messagesJSON),
				"updated_at":    session.UpdatedAt.UnixMilli(),
			}).
			Do(ctx)
		if err != nil {
			return &datatypes.StoreError{Store: "sessions", Err: fmt.Errorf("updating session %s: %w", session.ID, err)}
		}
		return nil
	}

	_, err = s.client.Data().Creator().
		WithClassName(datatypes.ClassChatSession).
		WithID(session.ID).
		WithProperties(map[string]interface{}{
			"messages_json": string(messagesJSON),
			"created_at":    session.CreatedAt.UnixMilli(),
			"updated_at":    session.UpdatedAt.UnixMilli(),
		}).
		Do(ctx)
	if err != nil {
		return &datatypes.StoreError{Store: "sessions", Err: fmt.Errorf("creating session %s: %w", session.ID, err)}
	}
	session.Persisted = true
	return nil
}

// numberProp reads a Weaviate number property as unix milliseconds. The
// client decodes numbers as float64; anything else reads as 0.
func numberProp(props map[string]interface{}, key string) int64 {
	if v, ok := props[key].(float64); ok {
		return int64(v)
	}
	return 0
}
