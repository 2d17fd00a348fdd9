// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services provides the business logic for the assistant.
//
// The ChatService orchestrates one conversational turn end-to-end:
// retrieval, prompt assembly, generation, session persistence, and
// telemetry. Dependencies are injected via the constructor so each stage
// can be replaced with a fake in tests.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/observability"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/retrieval"
	"github.com/AleutianAI/AleutianAnswers/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var chatTracer = otel.Tracer("aleutian.assistant.services.chat")

const (
	// historyWindow is the fixed number of stored messages fed to the
	// generation call as conversation history.
	historyWindow = 10

	// retrievalLimit is how many ranked articles back one answer.
	retrievalLimit = 4

	// emptyContextPlaceholder stands in for the knowledge-base block when
	// retrieval found nothing, so the prompt shape stays constant.
	emptyContextPlaceholder = "(empty)"
)

// systemInstructions steers the generation provider. The rules are not
// enforced programmatically; the provider is trusted to follow them.
const systemInstructions = "You are a helpful assistant for a website.\n" +
	"You have access to a Knowledge Base Context.\n" +
	"Rules:\n" +
	"1) If the user's question is about the website/support and the answer is in the context, use the context.\n" +
	"2) If the question is general knowledge (like capitals, math, greetings), answer normally.\n" +
	"3) If the question seems like website/support but the context does not contain the answer, say you don't know and ask to contact support.\n" +
	"4) Keep answers short and clear.\n" +
	"5) If you used context, add a \"References\" section listing article titles + slugs.\n"

// ArticleRetriever ranks knowledge-base articles for a query.
type ArticleRetriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]datatypes.RankedArticle, error)
}

// SessionStore loads and saves conversation sessions. Load returns
// datatypes.ErrSessionNotFound for ids that do not resolve, including
// malformed ids; any other error means the store itself failed.
type SessionStore interface {
	Load(ctx context.Context, id string) (*datatypes.ChatSession, error)
	Save(ctx context.Context, session *datatypes.ChatSession) error
}

// TelemetryRecorder persists one QueryLogEntry per completed turn.
type TelemetryRecorder interface {
	Record(ctx context.Context, entry datatypes.QueryLogEntry) error
}

// ChatService handles conversational turns against the knowledge base.
//
// Processing flow per turn:
//  1. Resolve the session (load by id, or create lazily).
//  2. Append the user message.
//  3. Retrieve and rank articles, assemble the bounded context block.
//  4. Generate the answer from the windowed history plus a synthetic
//     context+question turn.
//  5. Append the assistant message and save the session once.
//  6. Record telemetry (failure here is logged, never surfaced).
//
// The service keeps no cross-request state; all durable state lives in the
// injected stores. Concurrent turns on one session id race on the single
// session write and the later save wins.
type ChatService struct {
	retriever ArticleRetriever
	sessions  SessionStore
	telemetry TelemetryRecorder
	generator llm.Generator
}

// NewChatService creates a ChatService with the provided dependencies.
// All four must be non-nil.
func NewChatService(
	retriever ArticleRetriever,
	sessions SessionStore,
	telemetry TelemetryRecorder,
	generator llm.Generator,
) *ChatService {
	return &ChatService{
		retriever: retriever,
		sessions:  sessions,
		telemetry: telemetry,
		generator: generator,
	}
}

// Process handles one turn end-to-end and returns the answer with its
// cited sources. Returned errors are categorized:
//   - *datatypes.ProviderError: embedding or generation call failed; no
//     telemetry row is written.
//   - *datatypes.StoreError: a backing store failed before the answer was
//     durable; the turn fails. A telemetry write failure after the answer
//     is complete is swallowed and only logged.
func (s *ChatService) Process(ctx context.Context, sessionID, message string) (*datatypes.ChatResult, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Process")
	defer span.End()

	started := time.Now()
	status := "error"
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.TurnsTotal.WithLabelValues(status).Inc()
			m.TurnDurationSeconds.WithLabelValues(status).Observe(time.Since(started).Seconds())
		}
	}()

	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session load failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("session.id", session.ID),
		attribute.Bool("session.new", !session.Persisted),
	)

	session.Append(datatypes.RoleUser, message)

	ranked, err := s.retriever.Retrieve(ctx, message, retrievalLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	span.SetAttributes(attribute.Int("retrieval.matches", len(ranked)))
	if m := observability.DefaultMetrics; m != nil {
		m.RetrievedArticles.Observe(float64(len(ranked)))
	}

	articles := make([]datatypes.Article, len(ranked))
	for i, r := range ranked {
		articles[i] = r.Article
	}
	kbContext := retrieval.BuildContext(articles)

	input := buildPromptInput(session.History(historyWindow), kbContext, message)
	generated, err := s.generator.Chat(ctx, systemInstructions, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		if m := observability.DefaultMetrics; m != nil {
			m.ProviderErrorsTotal.WithLabelValues("generation").Inc()
		}
		return nil, &datatypes.ProviderError{Provider: "generation", Err: err}
	}
	span.SetAttributes(attribute.String("generation.model", generated.Model))

	session.Append(datatypes.RoleAssistant, generated.Text)
	if err := s.sessions.Save(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session save failed")
		return nil, err
	}

	// Telemetry is strictly after the answer is durable: a failed insert
	// must not unwind an already-valid turn.
	matched := make([]string, len(ranked))
	for i, r := range ranked {
		matched[i] = r.ID
	}
	entry := datatypes.QueryLogEntry{
		SessionID:         session.ID,
		Query:             message,
		ResponseTimeMs:    time.Since(started).Milliseconds(),
		MatchedArticleIDs: matched,
		Model:             generated.Model,
	}
	if err := s.telemetry.Record(ctx, entry); err != nil {
		slog.Error("Failed to record query telemetry", "sessionId", session.ID, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.TelemetryFailuresTotal.Inc()
		}
	}

	sources := make([]datatypes.SourceInfo, len(ranked))
	for i, r := range ranked {
		sources[i] = datatypes.SourceInfo{Title: r.Title, Slug: r.Slug, Score: r.FinalScore}
	}

	status = "success"
	return &datatypes.ChatResult{
		SessionID: session.ID,
		Reply:     generated.Text,
		Sources:   sources,
	}, nil
}

// resolveSession loads an existing session or creates a fresh one. A
// missing or malformed id is the lazy-creation path, never an error; only a
// store failure propagates.
func (s *ChatService) resolveSession(ctx context.Context, sessionID string) (*datatypes.ChatSession, error) {
	if sessionID == "" {
		slog.Info("No session id provided, creating a new session")
		return datatypes.NewChatSession(), nil
	}

	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, datatypes.ErrSessionNotFound) {
			slog.Info("Session id did not resolve, creating a new session", "sessionId", sessionID)
			return datatypes.NewChatSession(), nil
		}
		return nil, err
	}
	return session, nil
}

// buildPromptInput assembles the ordered generation input: the windowed
// history followed by one synthetic user turn that carries the knowledge
// base context and repeats the current question. The synthetic turn is
// never persisted; it exists only in the generation call.
func buildPromptInput(history []datatypes.Message, kbContext, userMessage string) []datatypes.Message {
	if kbContext == "" {
		kbContext = emptyContextPlaceholder
	}

	input := make([]datatypes.Message, 0, len(history)+1)
	input = append(input, history...)
	input = append(input, datatypes.Message{
		Role:    datatypes.RoleUser,
		Content: fmt.Sprintf("Knowledge Base Context:\n%s\n\nUser Question:\n%s", kbContext, userMessage),
	})
	return input
}
