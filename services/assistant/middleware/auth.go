// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the assistant service.
//
// # Admin Authentication
//
// Admin endpoints (article management, analytics) are protected by a
// single shared key checked on every request:
//
//	Request
//	   │
//	   ▼
//	AdminAuth
//	   │
//	   ├─► Read key from "X-Admin-Key" header, else "Authorization: Bearer <key>"
//	   │
//	   ├─► Constant-time compare against the configured key
//	   │
//	   └─► 401 on mismatch, 500 when no key is configured at all
//
// An unconfigured key fails closed: admin routes are unusable rather than
// open.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// adminKeyHeader is the primary header for the admin key. Bearer tokens in
// the Authorization header are accepted as a fallback so curl-style and
// proxy-injected credentials both work.
const adminKeyHeader = "X-Admin-Key"

// AdminAuth creates a Gin middleware that gates admin endpoints behind the
// shared key. The comparison is constant-time so the key cannot be probed
// byte by byte.
func AdminAuth(configuredKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if configuredKey == "" {
			// Fail closed, and distinguish operator error from a bad
			// credential so the fix is obvious from the response.
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "admin key not configured",
			})
			return
		}

		presented := c.GetHeader(adminKeyHeader)
		if presented == "" {
			presented = extractBearerToken(c)
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(configuredKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Next()
	}
}

// extractBearerToken extracts the token from the Authorization header.
// Returns empty string if the header is missing or malformed. The "Bearer"
// prefix is case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
