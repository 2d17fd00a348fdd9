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
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by session stores when an id does not
// resolve. Callers treat it as "create a new session", never as a failure.
var ErrSessionNotFound = errors.New("session not found")

// ProviderError wraps a failed embedding or generation call. The turn fails
// as a whole; no telemetry row is written for it.
type ProviderError struct {
	Provider string // "embedding" or "generation"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderFailure reports whether err originates from an external model
// provider. Handlers map these to 502 responses.
func IsProviderFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// StoreError wraps a failed read or write against a backing store.
type StoreError struct {
	Store string // "articles", "sessions", or "querylog"
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store failed: %v", e.Store, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreFailure reports whether err originates from a backing store.
func IsStoreFailure(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
