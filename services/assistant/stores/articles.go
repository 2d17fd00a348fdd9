// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stores implements the Weaviate-backed persistence for articles,
// sessions, and query telemetry. All three classes live in one Weaviate
// instance; each store wraps its failures in *datatypes.StoreError so
// callers can classify without knowing the backend.
package stores

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

// maxListedArticles bounds full-corpus fetches (listing and reindexing).
// The knowledge base is a curated support corpus, not an open crawl.
const maxListedArticles = 1000

// kbArticleFields are the properties fetched for every article query.
var kbArticleFields = []graphql.Field{
	{Name: "title"},
	{Name: "slug"},
	{Name: "body"},
	{Name: "tags"},
	{Name: "embedding"},
	{Name: "embedding_model"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "score"}}},
}

// ArticleStore persists knowledge-base articles in Weaviate.
type ArticleStore struct {
	client *weaviate.Client
}

// NewArticleStore creates an ArticleStore on the given client.
func NewArticleStore(client *weaviate.Client) *ArticleStore {
	return &ArticleStore{client: client}
}

// Create inserts a new article and returns its Weaviate id. The embedding
// is stored alongside the text so retrieval never re-embeds the corpus.
func (s *ArticleStore) Create(ctx context.Context, article datatypes.Article) (string, error) {
	creator := s.client.Data().Creator().
		WithClassName(datatypes.ClassKBArticle).
		WithProperties(articleProperties(article))
	if article.ID != "" {
		creator = creator.WithID(article.ID)
	}

	result, err := creator.Do(ctx)
	if err != nil {
		return "", &datatypes.StoreError{Store: "articles", Err: fmt.Errorf("creating article %q: %w", article.Slug, err)}
	}
	return string(result.Object.ID), nil
}

// LexicalSearch runs a BM25 query over title, body, and tags and returns
// scored candidates, at most minResults of them. Weaviate reports the BM25
// score as a string inside _additional; it is parsed here so callers only
// ever see numeric scores.
func (s *ArticleStore) LexicalSearch(ctx context.Context, query string, minResults int) ([]datatypes.ScoredArticle, error) {
	resp, err := s.client.GraphQL().Get().
		WithClassName(datatypes.ClassKBArticle).
		WithFields(kbArticleFields...).
		WithBM25(s.client.GraphQL().Bm25ArgBuilder().WithQuery(query)).
		WithLimit(minResults).
		Do(ctx)
	if err != nil {
		return nil, &datatypes.StoreError{Store: "articles", Err: fmt.Errorf("bm25 search: %w", err)}
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.KBArticleQueryResponse](resp)
	if err != nil {
		return nil, &datatypes.StoreError{Store: "articles", Err: fmt.Errorf("parsing bm25 response: %w", err)}
	}

	results := make([]datatypes.ScoredArticle, 0, len(parsed.Get.KBArticle))
	for _, r := range parsed.Get.KBArticle {
		score, err := strconv.ParseFloat(r.Additional.Score, 64)
		if err != nil {
			// An unparsable score means the result carries no lexical
			// signal; keep the article with score 0 rather than drop it.
			score = 0
		}
		results = append(results, datatypes.ScoredArticle{
			Article:   articleFromResult(r),
			TextScore: score,
		})
	}
	return results, nil
}

// List returns the full article corpus, used by the admin listing and the
// reindex sweep.
func (s *ArticleStore) List(ctx context.Context) ([]datatypes.Article, error) {
	resp, err := s.client.GraphQL().Get().
		WithClassName(datatypes.ClassKBArticle).
		WithFields(kbArticleFields...).
		WithLimit(maxListedArticles).
		Do(ctx)
	if err != nil {
		return nil, &datatypes.StoreError{Store: "articles", Err: fmt.Errorf("listing articles: %w", err)}
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.KBArticleQueryResponse](resp)
	if err != nil {
		return nil, &datatypes.StoreError{Store: "articles", Err: fmt.Errorf("parsing article list: %w", err)}
	}

	articles := make([]datatypes.Article, 0, len(parsed.Get.KBArticle))
	for _, r := range parsed.Get.KBArticle {
		articles = append(articles, articleFromResult(r))
	}
	return articles, nil
}

// UpdateEmbedding replaces one article's stored embedding and model tag.
// Used by the reindex sweep after re-embedding.
func (s *ArticleStore) UpdateEmbedding(ctx context.Context, id string, embedding []float32, model string) error {
	err := s.client.Data().Updater().
		WithClassName(datatypes.ClassKBArticle).
		WithID(id).
		WithMerge().
		WithProperties(map[string]interface{}{
			"embedding":       embedding,
			"embedding_model": model,
		}).
		Do(ctx)
	if err != nil {
		return &datatypes.StoreError{Store: "articles", Err: fmt.Errorf("updating embedding for %s: %w", id, err)}
	}
	return nil
}

func articleProperties(a datatypes.Article) map[string]interface{} {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	embedding := a.Embedding
	if embedding == nil {
		embedding = []float32{}
	}
	return map[string]interface{}{
		"title":           a.Title,
		"slug":            a.Slug,
		"body":            a.Body,
		"tags":            tags,
		"embedding":       embedding,
		"embedding_model": a.EmbeddingModel,
	}
}

func articleFromResult(r datatypes.KBArticleResult) datatypes.Article {
	return datatypes.Article{
		ID:             r.Additional.ID,
		Title:          r.Title,
		Slug:           r.Slug,
		Body:           r.Body,
		Tags:           r.Tags,
		Embedding:      r.Embedding,
		EmbeddingModel: r.EmbeddingModel,
	}
}

// isNotFoundError checks if a Weaviate error indicates an object was not found.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}

// millisToTime converts a Weaviate unix-milliseconds number property.
func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
