// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the chat turn orchestration.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/observability"
	"github.com/AleutianAI/AleutianAnswers/services/llm"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

type mockRetriever struct {
	ranked []datatypes.RankedArticle
	err    error
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, limit int) ([]datatypes.RankedArticle, error) {
	return m.ranked, m.err
}

// mockSessionStore keeps sessions in a map, mirroring the real store's
// not-found and persisted-flag behavior.
type mockSessionStore struct {
	sessions map[string]*datatypes.ChatSession
	loadErr  error
	saveErr  error
	saves    int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*datatypes.ChatSession)}
}

func (m *mockSessionStore) Load(ctx context.Context, id string) (*datatypes.ChatSession, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, datatypes.ErrSessionNotFound
	}
	session, ok := m.sessions[id]
	if !ok {
		return nil, datatypes.ErrSessionNotFound
	}
	copied := *session
	copied.Messages = append([]datatypes.Message(nil), session.Messages...)
	copied.Persisted = true
	return &copied, nil
}

func (m *mockSessionStore) Save(ctx context.Context, session *datatypes.ChatSession) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	stored := *session
	stored.Messages = append([]datatypes.Message(nil), session.Messages...)
	m.sessions[session.ID] = &stored
	session.Persisted = true
	return nil
}

type mockTelemetry struct {
	entries []datatypes.QueryLogEntry
	err     error
}

func (m *mockTelemetry) Record(ctx context.Context, entry datatypes.QueryLogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockGenerator struct {
	reply string
	err   error

	gotInstructions string
	gotMessages     []datatypes.Message
}

func (m *mockGenerator) Chat(ctx context.Context, instructions string, messages []datatypes.Message) (llm.GenerationResult, error) {
	m.gotInstructions = instructions
	m.gotMessages = append([]datatypes.Message(nil), messages...)
	if m.err != nil {
		return llm.GenerationResult{}, m.err
	}
	return llm.GenerationResult{Text: m.reply, Model: "test-model"}, nil
}

func rankedArticle(slug string, score float64) datatypes.RankedArticle {
	return datatypes.RankedArticle{
		Article: datatypes.Article{
			ID:    "id-" + slug,
			Title: "Title " + slug,
			Slug:  slug,
			Body:  "body of " + slug,
		},
		FinalScore: score,
	}
}

func newTestService(retriever *mockRetriever, sessions *mockSessionStore,
	telemetry *mockTelemetry, generator *mockGenerator) *ChatService {
	return NewChatService(retriever, sessions, telemetry, generator)
}

// =============================================================================
// Session Resolution Tests
// =============================================================================

func TestProcess_CreatesSessionWhenNoIDGiven(t *testing.T) {
	sessions := newMockSessionStore()
	generator := &mockGenerator{reply: "hi there"}
	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, generator)

	result, err := svc.Process(context.Background(), "", "hello")
	require.NoError(t, err)

	_, parseErr := uuid.Parse(result.SessionID)
	assert.NoError(t, parseErr, "new session id should be a uuid")

	stored := sessions.sessions[result.SessionID]
	require.NotNil(t, stored, "session should be saved")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, datatypes.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, "hello", stored.Messages[0].Content)
	assert.Equal(t, datatypes.RoleAssistant, stored.Messages[1].Role)
	assert.Equal(t, "hi there", stored.Messages[1].Content)
}

func TestProcess_UnknownSessionIDCreatesNewSession(t *testing.T) {
	sessions := newMockSessionStore()
	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, &mockGenerator{reply: "ok"})

	unknown := uuid.New().String()
	result, err := svc.Process(context.Background(), unknown, "hello")
	require.NoError(t, err)
	assert.NotEqual(t, unknown, result.SessionID)
}

func TestProcess_MalformedSessionIDCreatesNewSession(t *testing.T) {
	sessions := newMockSessionStore()
	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, &mockGenerator{reply: "ok"})

	result, err := svc.Process(context.Background(), "not-a-uuid", "hello")
	require.NoError(t, err)
	_, parseErr := uuid.Parse(result.SessionID)
	assert.NoError(t, parseErr)
}

func TestProcess_ContinuesExistingSession(t *testing.T) {
	sessions := newMockSessionStore()
	existing := datatypes.NewChatSession()
	existing.Append(datatypes.RoleUser, "first question")
	existing.Append(datatypes.RoleAssistant, "first answer")
	sessions.sessions[existing.ID] = existing

	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, &mockGenerator{reply: "second answer"})

	result, err := svc.Process(context.Background(), existing.ID, "second question")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.SessionID)

	stored := sessions.sessions[existing.ID]
	require.Len(t, stored.Messages, 4)
	assert.Equal(t, "second question", stored.Messages[2].Content)
	assert.Equal(t, "second answer", stored.Messages[3].Content)
}

func TestProcess_SessionLoadFailurePropagates(t *testing.T) {
	sessions := newMockSessionStore()
	sessions.loadErr = &datatypes.StoreError{Store: "sessions", Err: errors.New("weaviate down")}
	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, &mockGenerator{reply: "ok"})

	_, err := svc.Process(context.Background(), uuid.New().String(), "hello")
	require.Error(t, err)
	assert.True(t, datatypes.IsStoreFailure(err))
}

// =============================================================================
// Prompt Assembly Tests
// =============================================================================

func TestProcess_HistoryWindowIsLastTenMessages(t *testing.T) {
	sessions := newMockSessionStore()
	existing := datatypes.NewChatSession()
	for i := 0; i < 25; i++ {
		role := datatypes.RoleUser
		if i%2 == 1 {
			role = datatypes.RoleAssistant
		}
		existing.Append(role, fmt.Sprintf("message %d", i))
	}
	sessions.sessions[existing.ID] = existing

	generator := &mockGenerator{reply: "ok"}
	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, generator)

	_, err := svc.Process(context.Background(), existing.ID, "the new question")
	require.NoError(t, err)

	// 10 windowed messages plus the synthetic context turn.
	require.Len(t, generator.gotMessages, 11)
	// The window is taken after the user message is appended, so the new
	// question is the last windowed entry (index 9), preceded by the most
	// recent nine stored messages.
	assert.Equal(t, "message 16", generator.gotMessages[0].Content)
	assert.Equal(t, "message 24", generator.gotMessages[8].Content)
	assert.Equal(t, "the new question", generator.gotMessages[9].Content)
}

func TestProcess_SyntheticTurnCarriesContextAndQuestion(t *testing.T) {
	retriever := &mockRetriever{ranked: []datatypes.RankedArticle{
		rankedArticle("reset-password", 0.9),
	}}
	generator := &mockGenerator{reply: "ok"}
	svc := newTestService(retriever, newMockSessionStore(), &mockTelemetry{}, generator)

	_, err := svc.Process(context.Background(), "", "how do I reset?")
	require.NoError(t, err)

	last := generator.gotMessages[len(generator.gotMessages)-1]
	assert.Equal(t, datatypes.RoleUser, last.Role)
	assert.True(t, strings.HasPrefix(last.Content, "Knowledge Base Context:\n"))
	assert.Contains(t, last.Content, "Slug: reset-password")
	assert.Contains(t, last.Content, "\n\nUser Question:\nhow do I reset?")
}

func TestProcess_EmptyRetrievalUsesPlaceholder(t *testing.T) {
	generator := &mockGenerator{reply: "ok"}
	svc := newTestService(&mockRetriever{}, newMockSessionStore(), &mockTelemetry{}, generator)

	_, err := svc.Process(context.Background(), "", "what is the capital of France?")
	require.NoError(t, err)

	last := generator.gotMessages[len(generator.gotMessages)-1]
	assert.Contains(t, last.Content, "Knowledge Base Context:\n(empty)\n")
}

func TestProcess_SyntheticTurnNotPersisted(t *testing.T) {
	sessions := newMockSessionStore()
	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, &mockGenerator{reply: "ok"})

	result, err := svc.Process(context.Background(), "", "hello")
	require.NoError(t, err)

	stored := sessions.sessions[result.SessionID]
	for _, msg := range stored.Messages {
		assert.NotContains(t, msg.Content, "Knowledge Base Context:")
	}
}

func TestProcess_PassesSystemInstructions(t *testing.T) {
	generator := &mockGenerator{reply: "ok"}
	svc := newTestService(&mockRetriever{}, newMockSessionStore(), &mockTelemetry{}, generator)

	_, err := svc.Process(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.Contains(t, generator.gotInstructions, "helpful assistant for a website")
	assert.Contains(t, generator.gotInstructions, "References")
}

// =============================================================================
// Failure Path Tests
// =============================================================================

func TestProcess_RetrievalFailureAbortsTurn(t *testing.T) {
	retriever := &mockRetriever{err: &datatypes.ProviderError{
		Provider: "embedding", Err: errors.New("rate limited"),
	}}
	sessions := newMockSessionStore()
	telemetry := &mockTelemetry{}
	svc := newTestService(retriever, sessions, telemetry, &mockGenerator{reply: "ok"})

	_, err := svc.Process(context.Background(), "", "hello")
	require.Error(t, err)
	assert.True(t, datatypes.IsProviderFailure(err))
	assert.Zero(t, sessions.saves, "failed turn must not save the session")
	assert.Empty(t, telemetry.entries, "failed turn must not write telemetry")
}

func TestProcess_GenerationFailureAbortsTurn(t *testing.T) {
	sessions := newMockSessionStore()
	telemetry := &mockTelemetry{}
	generator := &mockGenerator{err: errors.New("model overloaded")}
	svc := newTestService(&mockRetriever{}, sessions, telemetry, generator)

	_, err := svc.Process(context.Background(), "", "hello")
	require.Error(t, err)
	assert.True(t, datatypes.IsProviderFailure(err))
	assert.Zero(t, sessions.saves)
	assert.Empty(t, telemetry.entries)
}

func TestProcess_GenerationFailureCountsProviderError(t *testing.T) {
	if observability.DefaultMetrics == nil {
		observability.InitMetrics()
	}
	counter := observability.DefaultMetrics.ProviderErrorsTotal.WithLabelValues("generation")
	before := testutil.ToFloat64(counter)

	sessions := newMockSessionStore()
	generator := &mockGenerator{err: errors.New("model overloaded")}
	svc := newTestService(&mockRetriever{}, sessions, &mockTelemetry{}, generator)

	_, err := svc.Process(context.Background(), "", "hello")
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestProcess_SessionSaveFailureAbortsTurn(t *testing.T) {
	sessions := newMockSessionStore()
	sessions.saveErr = &datatypes.StoreError{Store: "sessions", Err: errors.New("write refused")}
	telemetry := &mockTelemetry{}
	svc := newTestService(&mockRetriever{}, sessions, telemetry, &mockGenerator{reply: "ok"})

	_, err := svc.Process(context.Background(), "", "hello")
	require.Error(t, err)
	assert.True(t, datatypes.IsStoreFailure(err))
	assert.Empty(t, telemetry.entries, "telemetry must not be written when the save fails")
}

func TestProcess_TelemetryFailureIsSwallowed(t *testing.T) {
	telemetry := &mockTelemetry{err: errors.New("telemetry store down")}
	svc := newTestService(&mockRetriever{}, newMockSessionStore(), telemetry, &mockGenerator{reply: "the answer"})

	result, err := svc.Process(context.Background(), "", "hello")
	require.NoError(t, err, "a telemetry failure must not fail the turn")
	assert.Equal(t, "the answer", result.Reply)
}

// =============================================================================
// Result and Telemetry Tests
// =============================================================================

func TestProcess_ResultCarriesRankedSources(t *testing.T) {
	retriever := &mockRetriever{ranked: []datatypes.RankedArticle{
		rankedArticle("reset-password", 0.82),
		rankedArticle("refund-policy", 0.41),
	}}
	svc := newTestService(retriever, newMockSessionStore(), &mockTelemetry{}, &mockGenerator{reply: "ok"})

	result, err := svc.Process(context.Background(), "", "reset my password")
	require.NoError(t, err)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "reset-password", result.Sources[0].Slug)
	assert.Equal(t, "Title reset-password", result.Sources[0].Title)
	assert.InDelta(t, 0.82, result.Sources[0].Score, 1e-9)
	assert.Equal(t, "refund-policy", result.Sources[1].Slug)
}

func TestProcess_RecordsOneTelemetryRowPerTurn(t *testing.T) {
	retriever := &mockRetriever{ranked: []datatypes.RankedArticle{
		rankedArticle("reset-password", 0.9),
	}}
	telemetry := &mockTelemetry{}
	svc := newTestService(retriever, newMockSessionStore(), telemetry, &mockGenerator{reply: "ok"})

	result, err := svc.Process(context.Background(), "", "reset my password")
	require.NoError(t, err)

	require.Len(t, telemetry.entries, 1)
	entry := telemetry.entries[0]
	assert.Equal(t, result.SessionID, entry.SessionID)
	assert.Equal(t, "reset my password", entry.Query)
	assert.Equal(t, []string{"id-reset-password"}, entry.MatchedArticleIDs)
	assert.Equal(t, "test-model", entry.Model)
	assert.GreaterOrEqual(t, entry.ResponseTimeMs, int64(0))
}
