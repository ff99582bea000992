// Package retrieval defines the ranked-passage retrieval boundary and a
// SQLite-vec backed implementation. The pipeline consumes the Retriever
// interface only; tests substitute fakes.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dharmasetu/setu/llm"
	"github.com/dharmasetu/setu/store"
)

// Document is one ranked retrieval record. Order within a result slice
// is relevance order; downstream stages must not reorder it.
type Document struct {
	Text       string  `json:"text"`
	SourceDoc  string  `json:"source_doc"`
	PageNumber int     `json:"page_number"`
	LawType    string  `json:"law_type"`
	Score      float64 `json:"score"`
}

// Retriever returns ranked passages for a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// VectorRetriever implements Retriever over the passage store: the query
// is embedded once and matched against the vec0 index.
type VectorRetriever struct {
	store    *store.Store
	embedder llm.Provider
}

// NewVectorRetriever creates a retriever over the given store.
func NewVectorRetriever(s *store.Store, embedder llm.Provider) *VectorRetriever {
	return &VectorRetriever{store: s, embedder: embedder}
}

// Search embeds the query and returns the top-k nearest passages.
func (r *VectorRetriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	start := time.Now()

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	results, err := r.store.VectorSearch(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]Document, len(results))
	for i, res := range results {
		docs[i] = Document{
			Text:       res.Text,
			SourceDoc:  res.SourceDoc,
			PageNumber: res.PageNumber,
			LawType:    res.LawType,
			Score:      res.Score,
		}
	}

	slog.Debug("retrieval: vector search complete",
		"results", len(docs), "k", k,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return docs, nil
}
