// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/analytics"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

// AnalyticsProvider is the reporting surface behind the analytics endpoints.
type AnalyticsProvider interface {
	Summary(ctx context.Context) (*analytics.Summary, error)
	TopQueries(ctx context.Context, limit int) ([]analytics.QueryCount, error)
	Daily(ctx context.Context, days int) ([]analytics.DailyCount, error)
}

// HandleAnalyticsSummary returns the headline usage numbers.
func HandleAnalyticsSummary(provider AnalyticsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleAnalyticsSummary")
		defer span.End()

		summary, err := provider.Summary(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// HandleTopQueries returns the most frequent query texts. The limit query
// parameter defaults when absent or non-numeric; out-of-range values are
// clamped by the aggregator.
func HandleTopQueries(provider AnalyticsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleTopQueries")
		defer span.End()

		limit := intQueryParam(c, "limit", analytics.DefaultTopQueriesLimit)
		queries, err := provider.TopQueries(ctx, limit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"queries": queries})
	}
}

// HandleDailyVolume returns per-day query counts over the trailing window.
// The days query parameter defaults when absent or non-numeric; out-of-range
// values are clamped by the aggregator.
func HandleDailyVolume(provider AnalyticsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleDailyVolume")
		defer span.End()

		days := intQueryParam(c, "days", analytics.DefaultDailyDays)
		daily, err := provider.Daily(ctx, days)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"daily": daily})
	}
}

// intQueryParam reads an integer query parameter, falling back to the
// default on absence or parse failure.
func intQueryParam(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
