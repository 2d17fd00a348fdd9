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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
)

// ArticleIndexer is the service surface behind the admin article endpoints.
type ArticleIndexer interface {
	CreateArticle(ctx context.Context, req datatypes.CreateArticleRequest) (*datatypes.Article, error)
	ReindexAll(ctx context.Context) (int, error)
}

// ArticleLister fetches the stored corpus for the admin listing.
type ArticleLister interface {
	List(ctx context.Context) ([]datatypes.Article, error)
}

// articleView is the admin-facing article shape. Embedding vectors are
// never returned over HTTP; they are large and useless to a human.
type articleView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Tags     []string `json:"tags"`
	Embedded bool     `json:"embedded"`
}

func viewOf(a datatypes.Article) articleView {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return articleView{
		ID:       a.ID,
		Title:    a.Title,
		Slug:     a.Slug,
		Tags:     tags,
		Embedded: a.Embedded(),
	}
}

// HandleCreateArticle ingests one article: validate, embed, persist.
func HandleCreateArticle(indexer ArticleIndexer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleCreateArticle")
		defer span.End()

		var req datatypes.CreateArticleRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the create-article request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if err := req.Validate(); err != nil {
			slog.Warn("Rejected invalid create-article request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "title, slug, and body are required"})
			return
		}

		article, err := indexer.CreateArticle(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, viewOf(*article))
	}
}

// HandleReindexArticles re-embeds the whole corpus with the current
// embedding model.
func HandleReindexArticles(indexer ArticleIndexer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleReindexArticles")
		defer span.End()

		updated, err := indexer.ReindexAll(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Reindex sweep failed", "updated", updated, "error", err)
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

// HandleListArticles returns the stored corpus without embedding vectors.
func HandleListArticles(lister ArticleLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleListArticles")
		defer span.End()

		articles, err := lister.List(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeServiceError(c, err)
			return
		}

		views := make([]articleView, 0, len(articles))
		for _, a := range articles {
			views = append(views, viewOf(a))
		}
		c.JSON(http.StatusOK, gin.H{"articles": views})
	}
}
