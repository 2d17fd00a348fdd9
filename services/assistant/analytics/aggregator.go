// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analytics derives usage reports from the query telemetry log.
//
// Aggregation happens in-process over rows fetched from the store. The
// telemetry corpus is small by design (one row per chat turn), so pulling
// rows and folding them here keeps the store interface trivial and the
// math unit-testable without a running Weaviate.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
)

const (
	// DefaultTopQueriesLimit is the limit used when a caller passes none.
	DefaultTopQueriesLimit = 10
	maxTopQueriesLimit     = 50

	// DefaultDailyDays is the window used when a caller passes none.
	DefaultDailyDays = 14
	maxDailyDays     = 90
)

// TelemetrySource exposes the telemetry rows the aggregator folds over.
type TelemetrySource interface {
	// SessionCount returns the total number of stored chat sessions.
	SessionCount(ctx context.Context) (int, error)
	// Entries returns all query log rows created at or after since.
	// A zero since means all rows.
	Entries(ctx context.Context, since time.Time) ([]datatypes.QueryLogEntry, error)
}

// Summary is the headline usage report.
type Summary struct {
	Sessions          int   `json:"sessions"`
	Queries           int   `json:"queries"`
	AvgResponseTimeMs int64 `json:"avgResponseTimeMs"`
}

// QueryCount is one row of the top-queries report.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// DailyCount is one calendar day of query volume, UTC.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Aggregator computes analytics reports from a TelemetrySource.
type Aggregator struct {
	source TelemetrySource
}

// NewAggregator creates an Aggregator over the given source.
func NewAggregator(source TelemetrySource) *Aggregator {
	return &Aggregator{source: source}
}

// Summary returns session count, query count, and mean response time
// rounded to the nearest millisecond. With no telemetry rows the average
// is 0, not an error.
func (a *Aggregator) Summary(ctx context.Context) (*Summary, error) {
	sessions, err := a.source.SessionCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	entries, err := a.source.Entries(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("fetching telemetry: %w", err)
	}

	var avg int64
	if len(entries) > 0 {
		var total int64
		for _, e := range entries {
			total += e.ResponseTimeMs
		}
		avg = int64(math.Round(float64(total) / float64(len(entries))))
	}

	return &Summary{
		Sessions:          sessions,
		Queries:           len(entries),
		AvgResponseTimeMs: avg,
	}, nil
}

// TopQueries groups telemetry rows by exact query text (case-sensitive)
// and returns the most frequent, count descending. Ties are broken by
// query text ascending so repeated calls over the same data return the
// same order. The limit is clamped to [1, 50].
func (a *Aggregator) TopQueries(ctx context.Context, limit int) ([]QueryCount, error) {
	limit = clamp(limit, 1, maxTopQueriesLimit)

	entries, err := a.source.Entries(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("fetching telemetry: %w", err)
	}

	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.Query]++
	}

	result := make([]QueryCount, 0, len(counts))
	for q, c := range counts {
		result = append(result, QueryCount{Query: q, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Daily buckets query volume by UTC calendar day over the trailing window
// and returns only days that had traffic, ascending by date. The window is
// clamped to [1, 90] days.
func (a *Aggregator) Daily(ctx context.Context, days int) ([]DailyCount, error) {
	days = clamp(days, 1, maxDailyDays)

	since := time.Now().UTC().AddDate(0, 0, -days)
	entries, err := a.source.Entries(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching telemetry: %w", err)
	}

	buckets := make(map[string]int)
	for _, e := range entries {
		day := e.CreatedAt.UTC().Format("2006-01-02")
		buckets[day]++
	}

	result := make([]DailyCount, 0, len(buckets))
	for day, c := range buckets {
		result = append(result, DailyCount{Date: day, Count: c})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
