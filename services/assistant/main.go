// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/analytics"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/config"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/observability"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/retrieval"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/routes"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/services"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/stores"
	"github.com/AleutianAI/AleutianAnswers/services/llm"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

const serviceName = "assistant-service"

func initTracer(otelEndpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func newWeaviateClient(rawURL string) *weaviate.Client {
	if rawURL == "" {
		log.Fatal("WEAVIATE_SERVICE_URL is required")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Fatalf("WEAVIATE_SERVICE_URL is invalid: %q", rawURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		log.Fatalf("Failed to create Weaviate client: %v", err)
	}
	return client
}

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	observability.InitMetrics()

	// --- Init the tracer ---
	if cfg.OTLPEndpoint != "" {
		cleanup, err := initTracer(cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	} else {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, trace export disabled")
	}

	weaviateClient := newWeaviateClient(cfg.WeaviateURL)
	datatypes.EnsureWeaviateSchema(weaviateClient)

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required (env var or /run/secrets/openai_api_key)")
	}
	llmClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to initialize the OpenAI client: %v", err)
	}
	slog.Info("Using OpenAI backend", "chatModel", cfg.ChatModel, "embeddingModel", cfg.EmbeddingModel)

	articleStore := stores.NewArticleStore(weaviateClient)
	sessionStore := stores.NewSessionStore(weaviateClient)
	queryLogStore := stores.NewQueryLogStore(weaviateClient)

	retriever := retrieval.NewRetriever(articleStore, llmClient)
	chatService := services.NewChatService(retriever, sessionStore, queryLogStore, llmClient)
	indexerService := services.NewIndexerService(articleStore, llmClient)
	aggregator := analytics.NewAggregator(queryLogStore)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY is not set, admin endpoints will refuse all requests")
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))

	routes.SetupRoutes(router, routes.Deps{
		Chat:              chatService,
		Indexer:           indexerService,
		Articles:          articleStore,
		Analytics:         aggregator,
		AdminKey:          cfg.AdminAPIKey,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	log.Println("Starting the assistant server on port ", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
