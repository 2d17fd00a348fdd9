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
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target
// type. It encapsulates the marshal/unmarshal round trip needed to convert
// the client's dynamic response (map[string]models.JSONObject) into a
// strongly-typed struct whose json tags match the response shape.
//
// Type mismatches yield zero values, not errors, so response types should
// mirror the queried fields exactly.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", resp.Errors[0].Message)
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Query Response Types
// =============================================================================

// KBArticleQueryResponse is the shape of a Get query against KBArticle.
type KBArticleQueryResponse struct {
	Get struct {
		KBArticle []KBArticleResult `json:"KBArticle"`
	} `json:"Get"`
}

// KBArticleResult is a single article from a Get query. For BM25 queries
// Weaviate reports the relevance score as a string inside _additional.
type KBArticleResult struct {
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Body           string    `json:"body"`
	Tags           []string  `json:"tags"`
	Embedding      []float32 `json:"embedding"`
	EmbeddingModel string    `json:"embedding_model"`
	Additional     struct {
		ID    string `json:"id"`
		Score string `json:"score"`
	} `json:"_additional"`
}

// QueryLogQueryResponse is the shape of a Get query against QueryLog.
type QueryLogQueryResponse struct {
	Get struct {
		QueryLog []QueryLogResult `json:"QueryLog"`
	} `json:"Get"`
}

// QueryLogResult is a single telemetry row from a Get query.
type QueryLogResult struct {
	SessionID         string   `json:"session_id"`
	Query             string   `json:"query"`
	ResponseTimeMs    int64    `json:"response_time_ms"`
	MatchedArticleIDs []string `json:"matched_article_ids"`
	Model             string   `json:"model"`
	CreatedAt         int64    `json:"created_at"`
	Additional        struct {
		ID string `json:"id"`
	} `json:"_additional"`
}

// AggregateCountResponse is the shape of an Aggregate meta{count} query.
// The class-keyed map form keeps one type usable for every class.
type AggregateCountResponse struct {
	Aggregate map[string][]struct {
		Meta struct {
			Count float64 `json:"count"`
		} `json:"meta"`
	} `json:"Aggregate"`
}

// CountFor extracts the meta count for the named class, 0 when absent.
func (r *AggregateCountResponse) CountFor(class string) int {
	rows := r.Aggregate[class]
	if len(rows) == 0 {
		return 0
	}
	return int(rows[0].Meta.Count)
}
