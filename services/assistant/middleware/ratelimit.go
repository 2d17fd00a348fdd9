// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/observability"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit creates a Gin middleware that caps request throughput with a
// single token bucket shared by all clients. The assistant sits behind one
// public widget, so a global limiter is enough to protect the model
// providers; per-client fairness is not a goal.
//
// requestsPerMinute is converted to a steady refill rate with a burst of
// the same size, so short spikes up to one minute's quota pass through.
func RateLimit(requestsPerMinute int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			if m := observability.DefaultMetrics; m != nil {
				m.RateLimitedTotal.Inc()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
