// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the admin article endpoints.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

type mockIndexer struct {
	article    *datatypes.Article
	createErr  error
	reindexed  int
	reindexErr error

	gotRequest datatypes.CreateArticleRequest
}

func (m *mockIndexer) CreateArticle(ctx context.Context, req datatypes.CreateArticleRequest) (*datatypes.Article, error) {
	m.gotRequest = req
	return m.article, m.createErr
}

func (m *mockIndexer) ReindexAll(ctx context.Context) (int, error) {
	return m.reindexed, m.reindexErr
}

type mockLister struct {
	articles []datatypes.Article
	err      error
}

func (m *mockLister) List(ctx context.Context) ([]datatypes.Article, error) {
	return m.articles, m.err
}

// =============================================================================
// HandleCreateArticle Tests
// =============================================================================

func TestHandleCreateArticle_Success(t *testing.T) {
	indexer := &mockIndexer{article: &datatypes.Article{
		ID:             "abc-123",
		Title:          "Refund policy",
		Slug:           "refund-policy",
		Tags:           []string{"billing"},
		Embedding:      []float32{0.1, 0.2},
		EmbeddingModel: "text-embedding-3-small",
	}}
	router := createTestRouter("POST", "/v1/articles", HandleCreateArticle(indexer))

	w := performRequest(router, "POST", "/v1/articles", datatypes.CreateArticleRequest{
		Title: "Refund policy",
		Slug:  "refund-policy",
		Body:  "Refunds are available within 7 days.",
		Tags:  []string{"billing"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", response["id"])
	assert.Equal(t, "refund-policy", response["slug"])
	assert.Equal(t, true, response["embedded"])
	// Embedding vectors never leave the server.
	assert.NotContains(t, w.Body.String(), "0.1")

	assert.Equal(t, "refund-policy", indexer.gotRequest.Slug)
}

func TestHandleCreateArticle_MissingFields(t *testing.T) {
	indexer := &mockIndexer{}
	router := createTestRouter("POST", "/v1/articles", HandleCreateArticle(indexer))

	w := performRequest(router, "POST", "/v1/articles", map[string]string{"title": "only a title"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, indexer.gotRequest.Title, "indexer must not be called for invalid input")
}

func TestHandleCreateArticle_EmbeddingFailureMapsTo502(t *testing.T) {
	indexer := &mockIndexer{createErr: &datatypes.ProviderError{
		Provider: "embedding", Err: errors.New("quota exceeded"),
	}}
	router := createTestRouter("POST", "/v1/articles", HandleCreateArticle(indexer))

	w := performRequest(router, "POST", "/v1/articles", datatypes.CreateArticleRequest{
		Title: "T", Slug: "t", Body: "b",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// =============================================================================
// HandleReindexArticles Tests
// =============================================================================

func TestHandleReindexArticles_Success(t *testing.T) {
	router := createTestRouter("POST", "/v1/articles/reindex",
		HandleReindexArticles(&mockIndexer{reindexed: 7}))

	w := performRequest(router, "POST", "/v1/articles/reindex", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]int
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 7, response["updated"])
}

func TestHandleReindexArticles_StoreFailureMapsTo500(t *testing.T) {
	router := createTestRouter("POST", "/v1/articles/reindex",
		HandleReindexArticles(&mockIndexer{reindexErr: &datatypes.StoreError{
			Store: "articles", Err: errors.New("down"),
		}}))

	w := performRequest(router, "POST", "/v1/articles/reindex", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// =============================================================================
// HandleListArticles Tests
// =============================================================================

func TestHandleListArticles_StripsEmbeddings(t *testing.T) {
	lister := &mockLister{articles: []datatypes.Article{
		{ID: "1", Title: "A", Slug: "a", Embedding: []float32{0.5}, EmbeddingModel: "m"},
		{ID: "2", Title: "B", Slug: "b"},
	}}
	router := createTestRouter("GET", "/v1/articles", HandleListArticles(lister))

	w := performRequest(router, "GET", "/v1/articles", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Articles []struct {
			ID       string `json:"id"`
			Slug     string `json:"slug"`
			Embedded bool   `json:"embedded"`
		} `json:"articles"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	require.Len(t, response.Articles, 2)
	assert.True(t, response.Articles[0].Embedded)
	assert.False(t, response.Articles[1].Embedded)
	assert.NotContains(t, w.Body.String(), "embedding\"")
}

func TestHandleListArticles_EmptyCorpus(t *testing.T) {
	router := createTestRouter("GET", "/v1/articles", HandleListArticles(&mockLister{}))

	w := performRequest(router, "GET", "/v1/articles", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"articles":[]}`, w.Body.String())
}
