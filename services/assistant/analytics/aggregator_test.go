// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the analytics aggregator.

package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

type mockSource struct {
	sessionCount int
	entries      []datatypes.QueryLogEntry
	countErr     error
	entriesErr   error

	gotSince time.Time
}

func (m *mockSource) SessionCount(ctx context.Context) (int, error) {
	return m.sessionCount, m.countErr
}

func (m *mockSource) Entries(ctx context.Context, since time.Time) ([]datatypes.QueryLogEntry, error) {
	m.gotSince = since
	if m.entriesErr != nil {
		return nil, m.entriesErr
	}
	return m.entries, nil
}

func entry(query string, responseMs int64, createdAt time.Time) datatypes.QueryLogEntry {
	return datatypes.QueryLogEntry{
		Query:          query,
		ResponseTimeMs: responseMs,
		CreatedAt:      createdAt,
	}
}

// =============================================================================
// Summary Tests
// =============================================================================

func TestSummary_ComputesRoundedAverage(t *testing.T) {
	source := &mockSource{
		sessionCount: 3,
		entries: []datatypes.QueryLogEntry{
			entry("a", 100, time.Now()),
			entry("b", 101, time.Now()),
		},
	}
	agg := NewAggregator(source)

	summary, err := agg.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Sessions)
	assert.Equal(t, 2, summary.Queries)
	// (100+101)/2 = 100.5 rounds to 101.
	assert.Equal(t, int64(101), summary.AvgResponseTimeMs)
}

func TestSummary_EmptyTelemetryYieldsZeros(t *testing.T) {
	agg := NewAggregator(&mockSource{})

	summary, err := agg.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sessions)
	assert.Equal(t, 0, summary.Queries)
	assert.Equal(t, int64(0), summary.AvgResponseTimeMs)
}

func TestSummary_SourceErrorPropagates(t *testing.T) {
	agg := NewAggregator(&mockSource{
		countErr: &datatypes.StoreError{Store: "querylog", Err: errors.New("down")},
	})

	_, err := agg.Summary(context.Background())
	require.Error(t, err)
	assert.True(t, datatypes.IsStoreFailure(err))
}

// =============================================================================
// TopQueries Tests
// =============================================================================

func TestTopQueries_GroupsAndOrdersByCount(t *testing.T) {
	now := time.Now()
	source := &mockSource{entries: []datatypes.QueryLogEntry{
		entry("reset password", 10, now),
		entry("refund", 10, now),
		entry("reset password", 10, now),
		entry("reset password", 10, now),
		entry("refund", 10, now),
		entry("update profile", 10, now),
	}}
	agg := NewAggregator(source)

	queries, err := agg.TopQueries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queries, 3)
	assert.Equal(t, QueryCount{Query: "reset password", Count: 3}, queries[0])
	assert.Equal(t, QueryCount{Query: "refund", Count: 2}, queries[1])
	assert.Equal(t, QueryCount{Query: "update profile", Count: 1}, queries[2])
}

func TestTopQueries_GroupingIsCaseSensitive(t *testing.T) {
	now := time.Now()
	source := &mockSource{entries: []datatypes.QueryLogEntry{
		entry("Refund", 10, now),
		entry("refund", 10, now),
	}}
	agg := NewAggregator(source)

	queries, err := agg.TopQueries(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, queries, 2)
}

func TestTopQueries_TiesBreakLexicographically(t *testing.T) {
	now := time.Now()
	source := &mockSource{entries: []datatypes.QueryLogEntry{
		entry("zebra", 10, now),
		entry("apple", 10, now),
		entry("mango", 10, now),
	}}
	agg := NewAggregator(source)

	queries, err := agg.TopQueries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queries, 3)
	assert.Equal(t, "apple", queries[0].Query)
	assert.Equal(t, "mango", queries[1].Query)
	assert.Equal(t, "zebra", queries[2].Query)
}

func TestTopQueries_FewerDistinctThanLimit(t *testing.T) {
	now := time.Now()
	source := &mockSource{entries: []datatypes.QueryLogEntry{
		entry("a", 10, now),
		entry("b", 10, now),
		entry("a", 10, now),
	}}
	agg := NewAggregator(source)

	queries, err := agg.TopQueries(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, queries, 2)
}

func TestTopQueries_ClampsLimit(t *testing.T) {
	now := time.Now()
	var entries []datatypes.QueryLogEntry
	for i := 0; i < 60; i++ {
		entries = append(entries, entry(string(rune('A'+i)), 10, now))
	}
	agg := NewAggregator(&mockSource{entries: entries})

	// Above the cap clamps to 50.
	queries, err := agg.TopQueries(context.Background(), 500)
	require.NoError(t, err)
	assert.Len(t, queries, 50)

	// Below the floor clamps to 1.
	queries, err = agg.TopQueries(context.Background(), -3)
	require.NoError(t, err)
	assert.Len(t, queries, 1)
}

// =============================================================================
// Daily Tests
// =============================================================================

func TestDaily_BucketsByUTCDayAndSkipsEmptyDays(t *testing.T) {
	day1 := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	day3 := time.Date(2026, 8, 22, 23, 59, 0, 0, time.UTC)
	source := &mockSource{entries: []datatypes.QueryLogEntry{
		entry("q", 10, day1),
		entry("q", 10, day1.Add(2*time.Hour)),
		entry("q", 10, day1.Add(5*time.Hour)),
		entry("q", 10, day3),
		entry("q", 10, day3.Add(-time.Hour)),
	}}
	agg := NewAggregator(source)

	daily, err := agg.Daily(context.Background(), 30)
	require.NoError(t, err)
	// The quiet day in between is absent, not zero-filled.
	require.Len(t, daily, 2)
	assert.Equal(t, DailyCount{Date: "2026-08-20", Count: 3}, daily[0])
	assert.Equal(t, DailyCount{Date: "2026-08-22", Count: 2}, daily[1])
}

func TestDaily_BucketsInUTCNotLocalTime(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	// 23:30 EST on the 20th is 04:30 UTC on the 21st.
	lateEvening := time.Date(2026, 8, 20, 23, 30, 0, 0, est)
	agg := NewAggregator(&mockSource{entries: []datatypes.QueryLogEntry{
		entry("q", 10, lateEvening),
	}})

	daily, err := agg.Daily(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "2026-08-21", daily[0].Date)
}

func TestDaily_ClampsWindow(t *testing.T) {
	source := &mockSource{}
	agg := NewAggregator(source)

	_, err := agg.Daily(context.Background(), 500)
	require.NoError(t, err)
	// since = now-90d within a small tolerance.
	expected := time.Now().UTC().AddDate(0, 0, -90)
	assert.WithinDuration(t, expected, source.gotSince, time.Minute)

	_, err = agg.Daily(context.Background(), 0)
	require.NoError(t, err)
	expected = time.Now().UTC().AddDate(0, 0, -1)
	assert.WithinDuration(t, expected, source.gotSince, time.Minute)
}

func TestDaily_EmptyTelemetry(t *testing.T) {
	agg := NewAggregator(&mockSource{})

	daily, err := agg.Daily(context.Background(), 14)
	require.NoError(t, err)
	assert.Empty(t, daily)
}
