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
	"context"
	"log"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Class names for the assistant's Weaviate schema.
const (
	ClassKBArticle   = "KBArticle"
	ClassChatSession = "ChatSession"
	ClassQueryLog    = "QueryLog"
)

func GetKBArticleSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ClassKBArticle,
		Description: "A knowledge-base article with its precomputed embedding.",
		// The embedding is an explicit property computed through the
		// embedding provider; Weaviate must not vectorize on its own.
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			{
				Name:         "title",
				DataType:     []string{"text"},
				Description:  "The article title, BM25-searchable.",
				Tokenization: "word",
			},
			{
				Name:            "slug",
				DataType:        []string{"text"},
				Description:     "Stable unique identifier used for citation.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "body",
				DataType:     []string{"text"},
				Description:  "The full article body, BM25-searchable.",
				Tokenization: "word",
			},
			{
				Name:         "tags",
				DataType:     []string{"text[]"},
				Description:  "Free-form topic tags, BM25-searchable.",
				Tokenization: "word",
			},
			{
				Name:        "embedding",
				DataType:    []string{"number[]"},
				Description: "Embedding vector, empty until the article is indexed.",
			},
			{
				Name:            "embedding_model",
				DataType:        []string{"text"},
				Description:     "Identifier of the model that produced the embedding.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

func GetChatSessionSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:               ClassChatSession,
		Description:         "Ordered message history for one conversation.",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			{
				Name:        "messages_json",
				DataType:    []string{"text"},
				Description: "JSON-serialized ordered role/content message list.",
			},
			{
				Name:            "created_at",
				DataType:        []string{"number"},
				Description:     "Unix milliseconds when the session was created.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "updated_at",
				DataType:        []string{"number"},
				Description:     "Unix milliseconds of the last completed turn.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

func GetQueryLogSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:               ClassQueryLog,
		Description:         "One telemetry row per completed chat turn.",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties: []*models.Property{
			{
				Name:            "session_id",
				DataType:        []string{"text"},
				Description:     "The session this turn belongs to.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "query",
				DataType:     []string{"text"},
				Description:  "The user's question, verbatim.",
				Tokenization: "word",
			},
			{
				Name:            "response_time_ms",
				DataType:        []string{"int"},
				Description:     "Wall-clock latency of the full turn.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:        "matched_article_ids",
				DataType:    []string{"text[]"},
				Description: "Article ids in the ranking order used for the answer.",
			},
			{
				Name:            "model",
				DataType:        []string{"text"},
				Description:     "Generation model identifier for this turn.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "created_at",
				DataType:        []string{"number"},
				Description:     "Unix milliseconds when the row was written.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureWeaviateSchema creates any missing classes at startup.
func EnsureWeaviateSchema(client *weaviate.Client) {
	schemaGetters := []func() *models.Class{
		GetKBArticleSchema,
		GetChatSessionSchema,
		GetQueryLogSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()
		slog.Info("Checking schema", "class", class.Class)

		_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
		if err != nil {
			// The client returns an error when the class does not exist yet.
			slog.Info("Schema not found, creating it...", "class", class.Class)
			err := client.Schema().ClassCreator().WithClass(class).Do(context.Background())
			if err != nil {
				log.Fatalf("Failed to create schema for class %s: %v", class.Class, err)
			}
			slog.Info("Successfully created schema", "class", class.Class)
		} else {
			slog.Info("Schema already exists", "class", class.Class)
		}
	}
}
