// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/observability"
	"github.com/AleutianAI/AleutianAnswers/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var indexerTracer = otel.Tracer("aleutian.assistant.services.indexer")

// ArticleWriter is the store surface the indexer needs.
type ArticleWriter interface {
	Create(ctx context.Context, article datatypes.Article) (string, error)
	List(ctx context.Context) ([]datatypes.Article, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32, model string) error
}

// IndexerService embeds knowledge-base articles and keeps their stored
// vectors current. Every article is embedded exactly once at creation;
// ReindexAll re-embeds the whole corpus after an embedding model change.
type IndexerService struct {
	articles ArticleWriter
	embedder llm.Embedder
}

// NewIndexerService creates an IndexerService with the given dependencies.
func NewIndexerService(articles ArticleWriter, embedder llm.Embedder) *IndexerService {
	return &IndexerService{articles: articles, embedder: embedder}
}

// CreateArticle embeds the request content and stores the article. An
// embedding failure aborts the create; nothing partial is written.
func (s *IndexerService) CreateArticle(ctx context.Context, req datatypes.CreateArticleRequest) (*datatypes.Article, error) {
	ctx, span := indexerTracer.Start(ctx, "IndexerService.CreateArticle")
	defer span.End()
	span.SetAttributes(attribute.String("article.slug", req.Slug))

	article := datatypes.Article{
		Title: req.Title,
		Slug:  req.Slug,
		Body:  req.Body,
		Tags:  req.Tags,
	}

	emb, err := s.embedder.Embed(ctx, article.EmbeddingInput())
	if err != nil {
		span.RecordError(err)
		if m := observability.DefaultMetrics; m != nil {
			m.ProviderErrorsTotal.WithLabelValues("embedding").Inc()
		}
		return nil, &datatypes.ProviderError{Provider: "embedding", Err: err}
	}
	article.Embedding = emb.Vector
	article.EmbeddingModel = emb.Model

	id, err := s.articles.Create(ctx, article)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	article.ID = id

	slog.Info("Created knowledge base article", "slug", article.Slug, "id", id, "embeddingModel", article.EmbeddingModel)
	return &article, nil
}

// ReindexAll re-embeds every stored article and overwrites its vector.
// Articles are processed sequentially; the first failure aborts the sweep
// and reports how many articles were already refreshed.
func (s *IndexerService) ReindexAll(ctx context.Context) (int, error) {
	ctx, span := indexerTracer.Start(ctx, "IndexerService.ReindexAll")
	defer span.End()

	articles, err := s.articles.List(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("article.count", len(articles)))

	updated := 0
	for _, article := range articles {
		emb, err := s.embedder.Embed(ctx, article.EmbeddingInput())
		if err != nil {
			span.RecordError(err)
			if m := observability.DefaultMetrics; m != nil {
				m.ProviderErrorsTotal.WithLabelValues("embedding").Inc()
			}
			return updated, &datatypes.ProviderError{Provider: "embedding", Err: err}
		}
		if err := s.articles.UpdateEmbedding(ctx, article.ID, emb.Vector, emb.Model); err != nil {
			span.RecordError(err)
			return updated, err
		}
		updated++
		slog.Info("Reindexed article", "slug", article.Slug, "embeddingModel", emb.Model)
	}

	slog.Info("Reindex sweep complete", "updated", updated)
	return updated, nil
}
