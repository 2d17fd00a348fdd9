// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/handlers"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/middleware"
)

// Deps bundles the services the route tree depends on.
type Deps struct {
	Chat      handlers.ChatProcessor
	Indexer   handlers.ArticleIndexer
	Articles  handlers.ArticleLister
	Analytics handlers.AnalyticsProvider

	// AdminKey gates the article and analytics endpoints. Empty means
	// admin routes fail closed with a configuration error.
	AdminKey string

	// RequestsPerMinute is the shared rate limit for the public API.
	RequestsPerMinute int
}

// SetupRoutes wires the full HTTP surface.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimit(deps.RequestsPerMinute))
	{
		v1.POST("/chat", handlers.HandleChat(deps.Chat))

		// Admin routes: article management and analytics
		admin := v1.Group("")
		admin.Use(middleware.AdminAuth(deps.AdminKey))
		{
			articles := admin.Group("/articles")
			{
				articles.POST("", handlers.HandleCreateArticle(deps.Indexer))
				articles.GET("", handlers.HandleListArticles(deps.Articles))
				articles.POST("/reindex", handlers.HandleReindexArticles(deps.Indexer))
			}
			analytics := admin.Group("/analytics")
			{
				analytics.GET("/summary", handlers.HandleAnalyticsSummary(deps.Analytics))
				analytics.GET("/top-queries", handlers.HandleTopQueries(deps.Analytics))
				analytics.GET("/daily", handlers.HandleDailyVolume(deps.Analytics))
			}
		}
	}
}
