// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"fmt"
	"strings"
)

// Article is one knowledge-base entry. The slug is the stable identifier
// used for citation; the embedding and its model identifier are either both
// set or both empty, never only one of them.
type Article struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Body           string    `json:"body"`
	Tags           []string  `json:"tags"`
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embeddingModel,omitempty"`
}

// Embedded reports whether the article carries a usable vector.
func (a *Article) Embedded() bool {
	return len(a.Embedding) > 0 && a.EmbeddingModel != ""
}

// EmbeddingInput builds the canonical text that is embedded for an article.
// Re-embedding after any change to title, body, or tags must use the same
// composition so stored vectors stay comparable.
func (a *Article) EmbeddingInput() string {
	return fmt.Sprintf("%s\n\n%s\n\nTags:%s", a.Title, a.Body, strings.Join(a.Tags, ","))
}

// ScoredArticle is a lexical-search candidate with the store's relevance
// score attached. The score scale is provider-defined; the retriever
// normalizes it before fusion.
type ScoredArticle struct {
	Article
	TextScore float64
}

// RankedArticle is an article with its fused retrieval score.
type RankedArticle struct {
	Article
	FinalScore float64
}

// =============================================================================
// Admin Request Types
// =============================================================================

// CreateArticleRequest is the admin payload for ingesting one article.
// The embedding is computed server-side before the article is persisted.
type CreateArticleRequest struct {
	Title string   `json:"title" validate:"required"`
	Slug  string   `json:"slug" validate:"required"`
	Body  string   `json:"body" validate:"required"`
	Tags  []string `json:"tags"`
}

// Validate validates the CreateArticleRequest fields after JSON binding.
func (r *CreateArticleRequest) Validate() error {
	return chatValidate.Struct(r)
}
