// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP surface of the assistant service.
// Handlers bind and validate JSON, delegate to the service layer, and map
// the error taxonomy onto status codes:
//
//   - invalid input        -> 400
//   - provider failure     -> 502
//   - store failure        -> 500
//   - anything else        -> 500
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var handlerTracer = otel.Tracer("aleutian.assistant.handlers")

// ChatProcessor runs one conversational turn.
type ChatProcessor interface {
	Process(ctx context.Context, sessionID, message string) (*datatypes.ChatResult, error)
}

// HandleChat processes one chat turn: bind, validate, delegate, map errors.
func HandleChat(processor ChatProcessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the chat request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := req.Validate(); err != nil {
			slog.Warn("Rejected invalid chat request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required and must be at most 32KB"})
			return
		}

		result, err := processor.Process(ctx, req.SessionID, req.Message)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// writeServiceError maps service-layer errors onto HTTP status codes. The
// response body never echoes upstream error detail; that stays in the logs.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case datatypes.IsProviderFailure(err):
		slog.Error("Upstream provider failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream model provider failed"})
	case datatypes.IsStoreFailure(err):
		slog.Error("Backing store failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal storage error"})
	default:
		slog.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
