// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	serverURL string // Base URL of the running assistant service
	adminKey  string // Admin API key, falls back to ADMIN_API_KEY
)

var rootCmd = &cobra.Command{
	Use:   "answersctl",
	Short: "Operator CLI for the Aleutian Answers assistant service",
	Long: `answersctl manages the knowledge base of a running assistant service.

All commands go through the server's admin HTTP API, so the server remains
the only process writing to Weaviate.

Examples:
  answersctl seed                          # Load the built-in demo articles
  answersctl seed --file articles.yaml     # Load articles from a YAML file
  answersctl reindex                       # Re-embed the whole corpus`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server",
		"http://localhost:12310", "Base URL of the assistant service")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", "",
		"Admin API key (defaults to the ADMIN_API_KEY env var)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if adminKey == "" {
			adminKey = os.Getenv("ADMIN_API_KEY")
		}
		serverURL = strings.TrimRight(serverURL, "/")
	}
}

// =============================================================================
// ADMIN API CLIENT
// =============================================================================

var httpClient = &http.Client{Timeout: 120 * time.Second}

// postAdmin sends a JSON POST to an admin endpoint and decodes the JSON
// response into out when out is non-nil. Non-2xx responses are returned as
// errors carrying the server's error body.
func postAdmin(path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", adminKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
	}
	return nil
}
