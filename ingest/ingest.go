package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dharmasetu/setu/llm"
	"github.com/dharmasetu/setu/store"
)

const (
	// embedBatchSize bounds one embedding request.
	embedBatchSize = 20

	// minPassageChars skips noise blocks (headers, page numbers).
	minPassageChars = 10
)

// Stats summarizes one corpus ingestion run.
type Stats struct {
	Elements   int `json:"elements"`
	Skipped    int `json:"skipped"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Embedded   int `json:"embedded"`
	Failed     int `json:"failed_batches"`
}

// Ingestor embeds passage elements and persists them with their
// vectors. Embedding batches are paced to stay under provider rate
// limits.
type Ingestor struct {
	store    *store.Store
	embedder llm.Provider
	limiter  *rate.Limiter
}

// NewIngestor creates an Ingestor over the given store and embedding
// provider.
func NewIngestor(s *store.Store, embedder llm.Provider) *Ingestor {
	return &Ingestor{
		store:    s,
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// IngestElements embeds and persists the elements in batches. A failed
// embedding batch is logged and skipped; the run continues with the
// next batch.
func (in *Ingestor) IngestElements(ctx context.Context, elements []Element) (*Stats, error) {
	stats := &Stats{Elements: len(elements)}

	for start := 0; start < len(elements); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(elements) {
			end = len(elements)
		}

		var batch []Element
		for _, el := range elements[start:end] {
			if len(strings.TrimSpace(el.Text)) < minPassageChars {
				stats.Skipped++
				continue
			}
			batch = append(batch, el)
		}
		if len(batch) == 0 {
			continue
		}

		if err := in.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		texts := make([]string, len(batch))
		for i, el := range batch {
			texts[i] = el.Text
		}
		vectors, err := in.embedder.Embed(ctx, texts)
		if err != nil {
			slog.Error("ingest: embedding batch failed, skipping",
				"offset", start, "size", len(batch), "error", err)
			stats.Failed++
			continue
		}

		for i, el := range batch {
			id, inserted, err := in.store.InsertPassage(ctx, store.Passage{
				Text:       el.Text,
				SourceDoc:  el.SourceDoc,
				PageNumber: el.PageNumber,
				LawType:    el.LawType,
			})
			if err != nil {
				return stats, err
			}
			if inserted {
				stats.Inserted++
			} else {
				stats.Duplicates++
			}
			if err := in.store.InsertEmbedding(ctx, id, vectors[i]); err != nil {
				return stats, err
			}
			stats.Embedded++
		}

		slog.Info("ingest: batch stored",
			"offset", start, "size", len(batch), "total", len(elements))
	}

	slog.Info("ingest: corpus complete",
		"elements", stats.Elements, "inserted", stats.Inserted,
		"duplicates", stats.Duplicates, "skipped", stats.Skipped,
		"failed_batches", stats.Failed)
	return stats, nil
}
