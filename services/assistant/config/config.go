// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config collects the assistant's runtime configuration from the
// environment. Container secrets mounted under /run/secrets take precedence
// over env vars for credentials, so keys never need to appear in a compose
// file.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Defaults applied when the environment leaves a value unset.
const (
	DefaultPort              = "12310"
	DefaultRequestsPerMinute = 120

	openAIKeySecretPath = "/run/secrets/openai_api_key"
)

// Config is the full runtime configuration of the assistant service.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// WeaviateURL is the full URL of the Weaviate instance, scheme included.
	WeaviateURL string

	// OpenAIAPIKey authenticates embedding and generation calls.
	OpenAIAPIKey string

	// ChatModel and EmbeddingModel override the provider defaults when set.
	ChatModel      string
	EmbeddingModel string

	// AdminAPIKey gates the article and analytics endpoints. Empty leaves
	// the admin surface failing closed.
	AdminAPIKey string

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables
	// trace export.
	OTLPEndpoint string

	// RequestsPerMinute is the global rate limit on /v1.
	RequestsPerMinute int
}

// FromEnv reads the configuration from the process environment.
func FromEnv() Config {
	cfg := Config{
		Port:              envOr("ANSWERS_PORT", DefaultPort),
		WeaviateURL:       sanitizeURL(os.Getenv("WEAVIATE_SERVICE_URL")),
		OpenAIAPIKey:      readSecret(openAIKeySecretPath, "OPENAI_API_KEY"),
		ChatModel:         os.Getenv("CHAT_MODEL_NAME"),
		EmbeddingModel:    os.Getenv("EMBEDDING_MODEL_NAME"),
		AdminAPIKey:       os.Getenv("ADMIN_API_KEY"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RequestsPerMinute: DefaultRequestsPerMinute,
	}

	if raw := os.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.RequestsPerMinute = v
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sanitizeURL trims quotes and whitespace container runtimes sometimes pass
// through literally.
func sanitizeURL(raw string) string {
	return strings.Trim(raw, "\"' ")
}

// readSecret prefers a mounted secret file and falls back to the named env
// var when the file is absent or empty.
func readSecret(path, envKey string) string {
	if data, err := os.ReadFile(path); err == nil {
		if secret := strings.TrimSpace(string(data)); secret != "" {
			return secret
		}
	}
	return os.Getenv(envKey)
}
