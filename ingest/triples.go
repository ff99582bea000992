package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/llm"
)

const (
	// tripleBatchSize is how many element texts go into one extraction call.
	tripleBatchSize = 20

	// minTripleChars skips elements too short to carry a relationship.
	minTripleChars = 50

	// maxTripleChars truncates long elements to bound token usage.
	maxTripleChars = 1000
)

// Triple is one extracted (subject, predicate, object) relationship.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// BuildStats summarizes one graph construction run.
type BuildStats struct {
	Batches       int `json:"batches"`
	FailedBatches int `json:"failed_batches"`
	Triples       int `json:"triples"`
	Dropped       int `json:"dropped"`
	Nodes         int `json:"nodes"`
	Edges         int `json:"edges"`
}

var tripleSystemPrompt = fmt.Sprintf(`You are a legal knowledge extraction AI. Your task is to extract structured legal relationships from text.

**Instructions:**
1. Read the provided legal text carefully.
2. Extract relationships in the form of triples: (Subject, Predicate, Object)
3. Use ONLY these predicates: %s
4. Return a JSON array of objects with this exact structure: {"subject": "...", "predicate": "...", "object": "..."}

**Predicate Definitions:**
- DEFINES: Subject defines or establishes the meaning of Object (e.g., "Section 2" DEFINES "Theft")
- PUNISHES: Subject prescribes punishment for Object (e.g., "Section 302" PUNISHES "Murder")
- REFERENCES: Subject refers to or cites Object (e.g., "Section 34" REFERENCES "Section 120B")
- PART_OF: Subject is a component of Object (e.g., "Article 14" PART_OF "Part III")
- EXCEPTION_TO: Subject is an exception to Object (e.g., "Section 96" EXCEPTION_TO "Section 300")

**Examples:**
Input: "Section 378 defines theft as dishonest misappropriation of property."
Output: [{"subject": "Section 378", "predicate": "DEFINES", "object": "Theft"}]

Input: "Section 302 prescribes punishment for murder with death or life imprisonment."
Output: [{"subject": "Section 302", "predicate": "PUNISHES", "object": "Murder"}]

**Important:**
- Extract multiple triples if the text contains multiple relationships
- Be precise with entity names (use exact section numbers, article numbers, etc.)
- If no clear relationships exist, return an empty array []
- Always return valid JSON`, strings.Join(kg.AllowedRelations, ", "))

// GraphBuilder extracts triples from element batches and assembles the
// knowledge graph. Extraction calls are paced to stay under provider
// rate limits.
type GraphBuilder struct {
	chat    llm.Provider
	limiter *rate.Limiter
}

// NewGraphBuilder creates a GraphBuilder over the given chat provider.
func NewGraphBuilder(chat llm.Provider) *GraphBuilder {
	return &GraphBuilder{
		chat:    chat,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Build constructs a fresh graph from the elements.
func (b *GraphBuilder) Build(ctx context.Context, elements []Element) (*kg.Graph, *BuildStats, error) {
	g := kg.New()
	stats, err := b.BuildInto(ctx, g, elements)
	return g, stats, err
}

// BuildInto extracts triples batch by batch and adds them to g. A batch
// whose extraction or parse fails contributes nothing; the run
// continues. Only the allowed construction predicates enter the graph.
func (b *GraphBuilder) BuildInto(ctx context.Context, g *kg.Graph, elements []Element) (*BuildStats, error) {
	stats := &BuildStats{}

	for start := 0; start < len(elements); start += tripleBatchSize {
		end := start + tripleBatchSize
		if end > len(elements) {
			end = len(elements)
		}

		var texts []string
		for _, el := range elements[start:end] {
			text := strings.TrimSpace(el.Text)
			if len(text) <= minTripleChars {
				continue
			}
			if len(text) > maxTripleChars {
				text = truncateUTF8(text, maxTripleChars)
			}
			texts = append(texts, text)
		}
		if len(texts) == 0 {
			continue
		}

		if err := b.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		stats.Batches++
		triples, err := b.extractBatch(ctx, texts)
		if err != nil {
			slog.Error("ingest: triple extraction failed, skipping batch",
				"offset", start, "error", err)
			stats.FailedBatches++
			continue
		}

		for _, t := range triples {
			if !allowedPredicate(t.Predicate) {
				slog.Warn("ingest: invalid predicate, skipping triple",
					"predicate", t.Predicate, "subject", t.Subject)
				stats.Dropped++
				continue
			}
			g.AddEdge(t.Subject, t.Object, t.Predicate, "")
			stats.Triples++
		}

		slog.Info("ingest: batch extracted",
			"batch", stats.Batches, "triples", len(triples))
	}

	stats.Nodes = g.NodeCount()
	stats.Edges = g.EdgeCount()
	slog.Info("ingest: graph construction complete",
		"triples", stats.Triples, "nodes", stats.Nodes, "edges", stats.Edges,
		"dropped", stats.Dropped, "failed_batches", stats.FailedBatches)
	return stats, nil
}

func (b *GraphBuilder) extractBatch(ctx context.Context, texts []string) ([]Triple, error) {
	parts := make([]string, len(texts))
	for i, text := range texts {
		parts[i] = fmt.Sprintf("Text %d:\n%s", i+1, text)
	}
	combined := strings.Join(parts, "\n\n---\n\n")

	resp, err := b.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: tripleSystemPrompt},
			{Role: "user", Content: "Extract legal triples from the following texts:\n\n" + combined},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("triple extraction: %w", err)
	}

	jsonStr, err := extractJSONArray(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing extraction response: %w", err)
	}

	var triples []Triple
	if err := json.Unmarshal([]byte(jsonStr), &triples); err != nil {
		return nil, fmt.Errorf("unmarshalling triples: %w", err)
	}
	return triples, nil
}

// truncateUTF8 cuts text at n bytes on a rune boundary so truncated
// statute text stays valid UTF-8 in the extraction prompt.
func truncateUTF8(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

func allowedPredicate(p string) bool {
	for _, allowed := range kg.AllowedRelations {
		if p == allowed {
			return true
		}
	}
	return false
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSONArray finds the JSON array in an LLM response, stripping
// markdown code fences and surrounding prose.
func extractJSONArray(raw string) (string, error) {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}

	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		return raw, nil
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1], nil
	}

	return "", fmt.Errorf("no JSON array found in response")
}
