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
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

// maxTelemetryRows bounds a single analytics fetch. One row is written per
// chat turn, so this covers a long reporting window for a support corpus.
const maxTelemetryRows = 10000

var queryLogFields = []graphql.Field{
	{Name: "session_id"},
	{Name: "query"},
	{Name: "response_time_ms"},
	{Name: "matched_article_ids"},
	{Name: "model"},
	{Name: "created_at"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}},
}

// QueryLogStore persists one telemetry row per completed chat turn and
// serves the analytics reads.
type QueryLogStore struct {
	client *weaviate.Client
}

// NewQueryLogStore creates a QueryLogStore on the given client.
func NewQueryLogStore(client *weaviate.Client) *QueryLogStore {
	return &QueryLogStore{client: client}
}

// Record inserts one telemetry row. A zero CreatedAt is stamped with the
// current time.
func (s *QueryLogStore) Record(ctx context.Context, entry datatypes.QueryLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	matched := entry.MatchedArticleIDs
	if matched == nil {
		matched = []string{}
	}

	_, err := s.client.Data().Creator().
		WithClassName(datatypes.ClassQueryLog).
		WithProperties(map[string]interface{}{
			"session_id":          entry.SessionID,
			"query":               entry.Query,
			"response_time_ms":    entry.ResponseTimeMs,
			"matched_article_ids": matched,
			"model":               entry.Model,
			"created_at":          createdAt.UnixMilli(),
		}).
		Do(ctx)
	if err != nil {
		return &datatypes.StoreError{Store: "querylog", Err: fmt.Errorf("recording telemetry: %w", err)}
	}
	return nil
}

// Entries returns telemetry rows created at or after since, a zero since
// meaning all rows.
func (s *QueryLogStore) Entries(ctx context.Context, since time.Time) ([]datatypes.QueryLogEntry, error) {
	builder := s.client.GraphQL().Get().
		WithClassName(datatypes.ClassQueryLog).
		WithFields(queryLogFields...).
		WithLimit(maxTelemetryRows)

	if !since.IsZero() {
		where := filters.Where().
			WithPath([]string{"created_at"}).
			WithOperator(filters.GreaterThanEqual).
			WithValueNumber(float64(since.UnixMilli()))
		builder = builder.WithWhere(where)
	}

	resp, err := builder.Do(ctx)
	if err != nil {
		return nil, &datatypes.StoreError{Store: "querylog", Err: fmt.Errorf("fetching telemetry: %w", err)}
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.QueryLogQueryResponse](resp)
	if err != nil {
		return nil, &datatypes.StoreError{Store: "querylog", Err: fmt.Errorf("parsing telemetry response: %w", err)}
	}

	entries := make([]datatypes.QueryLogEntry, 0, len(parsed.Get.QueryLog))
	for _, r := range parsed.Get.QueryLog {
		entries = append(entries, datatypes.QueryLogEntry{
			ID:                r.Additional.ID,
			SessionID:         r.SessionID,
			Query:             r.Query,
			ResponseTimeMs:    r.ResponseTimeMs,
			MatchedArticleIDs: r.MatchedArticleIDs,
			Model:             r.Model,
			CreatedAt:         millisToTime(r.CreatedAt),
		})
	}
	return entries, nil
}

// SessionCount returns the number of stored chat sessions via an aggregate
// meta count.
func (s *QueryLogStore) SessionCount(ctx context.Context) (int, error) {
	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(datatypes.ClassChatSession).
		WithFields(graphql.Field{
			Name:   "meta",
			Fields: []graphql.Field{{Name: "count"}},
		}).
		Do(ctx)
	if err != nil {
		return 0, &datatypes.StoreError{Store: "querylog", Err: fmt.Errorf("counting sessions: %w", err)}
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.AggregateCountResponse](resp)
	if err != nil {
		return 0, &datatypes.StoreError{Store: "querylog", Err: fmt.Errorf("parsing session count: %w", err)}
	}
	return parsed.CountFor(datatypes.ClassChatSession), nil
}
