// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval implements hybrid lexical+semantic article retrieval.
//
// The retriever fuses two signals per candidate: the article store's own
// BM25 relevance score and the cosine similarity between the query embedding
// and the article's stored embedding. The corpus is assumed small enough
// that reranking the lexical candidate set by linear scan is cheap; there is
// deliberately no vector index.
package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAnswers/services/assistant/observability"
	"github.com/AleutianAI/AleutianAnswers/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var retrievalTracer = otel.Tracer("aleutian.assistant.retrieval")

// Score fusion constants. These are fixed properties of the ranking design,
// not runtime configuration: BM25 scores in this corpus sit roughly in
// [0,10], so dividing by 10 puts both signals on a comparable scale before
// the weighted sum.
const (
	similarityWeight = 0.65
	textScoreWeight  = 0.35
	textScoreScale   = 10.0

	// minLexicalCandidates floors the candidate fetch so the semantic
	// signal has something to rerank even for small limits.
	minLexicalCandidates = 10
)

// LexicalSearcher provides BM25-ranked candidates from the article store.
type LexicalSearcher interface {
	LexicalSearch(ctx context.Context, query string, minResults int) ([]datatypes.ScoredArticle, error)
}

// Retriever ranks articles for a query by fusing lexical and semantic
// signals. A Retriever is stateless; every call is a fresh computation over
// current store contents.
type Retriever struct {
	store    LexicalSearcher
	embedder llm.Embedder
}

// NewRetriever creates a Retriever with the provided dependencies.
func NewRetriever(store LexicalSearcher, embedder llm.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns at most limit articles ranked by fused score, best
// first. The query is embedded exactly once per call. Candidates without a
// stored embedding participate with similarity 0. An empty lexical result
// set yields an empty (non-nil error-free) ranking; an embedding failure
// fails the whole retrieval — there is no lexical-only fallback. A negative
// limit is treated as 0.
//
// The lexical fetch and the query embedding are independent and run
// concurrently.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]datatypes.RankedArticle, error) {
	ctx, span := retrievalTracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	if limit < 0 {
		limit = 0
	}

	minResults := limit
	if minResults < minLexicalCandidates {
		minResults = minLexicalCandidates
	}

	var (
		candidates []datatypes.ScoredArticle
		queryVec   []float32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = r.store.LexicalSearch(gctx, query, minResults)
		return err
	})
	g.Go(func() error {
		result, err := r.embedder.Embed(gctx, query)
		if err != nil {
			if m := observability.DefaultMetrics; m != nil {
				m.ProviderErrorsTotal.WithLabelValues("embedding").Inc()
			}
			return &datatypes.ProviderError{Provider: "embedding", Err: err}
		}
		queryVec = result.Vector
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}

	ranked := make([]datatypes.RankedArticle, 0, len(candidates))
	for _, c := range candidates {
		sim := 0.0
		if len(c.Embedding) > 0 {
			sim = CosineSimilarity(queryVec, c.Embedding)
		}
		ranked = append(ranked, datatypes.RankedArticle{
			Article:    c.Article,
			FinalScore: similarityWeight*sim + textScoreWeight*(c.TextScore/textScoreScale),
		})
	}

	// Stable sort keeps the lexical-search order for tied fused scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	span.SetAttributes(attribute.Int("candidates", len(candidates)),
		attribute.Int("returned", len(ranked)))
	return ranked, nil
}

// CosineSimilarity computes the normalized dot product of two vectors,
// 0 when either norm is zero. Accumulation is in float64 to keep long
// vectors numerically stable. Mismatched lengths compare over the shorter
// prefix.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
