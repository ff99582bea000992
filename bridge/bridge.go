// Package bridge links equivalent provisions across the legacy (IPC)
// and current (BNS) regimes. An LLM maps legacy nodes to their current
// counterparts; accepted pairs get bidirectional EQUIVALENT_TO edges.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/llm"
)

// chunkSize bounds how many legacy nodes go into one mapping call.
const chunkSize = 20

// Stats summarizes one bridge linking run.
type Stats struct {
	LegacyNodes   int `json:"legacy_nodes"`
	CurrentNodes  int `json:"current_nodes"`
	Chunks        int `json:"chunks"`
	FailedChunks  int `json:"failed_chunks"`
	NewEdges      int `json:"new_edges"`
	SkippedPairs  int `json:"skipped_pairs"`
	ExistingPairs int `json:"existing_pairs"`
}

const mappingSystemPrompt = `You are a legal expert. Map the provided IPC (Old) sections to their BNS (New) equivalents.

**Instructions:**
1. I will provide a list of IPC Nodes and a list of BNS Nodes from my database.
2. For each IPC Node, find the semantic equivalent in the BNS Node list.
3. Return a JSON object where keys are IPC Node names and values are BNS Node names.
4. If no exact match exists in the BNS list, map to NULL.
5. STRICTLY only use the node names provided in the lists.

**Format:**
` + "```json\n{\n  \"Section 302 IPC\": \"Section 103 BNS\",\n  \"Section 420 IPC\": \"Section 318 BNS\"\n}\n```"

// Linker runs the bridge linking pass over a knowledge graph.
type Linker struct {
	chat    llm.Provider
	limiter *rate.Limiter
}

// New creates a Linker over the given chat provider.
func New(chat llm.Provider) *Linker {
	return &Linker{
		chat:    chat,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Link classifies every node's regime, maps legacy nodes to current
// equivalents chunk by chunk, and adds bidirectional equivalence edges
// for accepted pairs. A mapped target absent from the graph is skipped;
// a failed chunk contributes no pairs. Linking is idempotent: re-running
// over an already bridged graph adds nothing.
func (l *Linker) Link(ctx context.Context, g *kg.Graph) (*Stats, error) {
	legacy := g.NodesByRegime(kg.RegimeLegacy)
	current := g.NodesByRegime(kg.RegimeCurrent)

	stats := &Stats{LegacyNodes: len(legacy), CurrentNodes: len(current)}
	slog.Info("bridge: regime classification",
		"legacy", len(legacy), "current", len(current), "total", g.NodeCount())

	if len(legacy) == 0 || len(current) == 0 {
		slog.Warn("bridge: nothing to link", "legacy", len(legacy), "current", len(current))
		return stats, nil
	}

	for start := 0; start < len(legacy); start += chunkSize {
		end := start + chunkSize
		if end > len(legacy) {
			end = len(legacy)
		}

		if err := l.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		stats.Chunks++
		mapping, err := l.mapEquivalents(ctx, legacy[start:end], current)
		if err != nil {
			slog.Error("bridge: mapping chunk failed, skipping",
				"chunk", stats.Chunks, "error", err)
			stats.FailedChunks++
			continue
		}

		for legacyNode, currentNode := range mapping {
			if currentNode == "" || !g.HasNode(currentNode) {
				if currentNode != "" {
					slog.Debug("bridge: mapped target not in graph", "target", currentNode)
				}
				stats.SkippedPairs++
				continue
			}
			if g.AddEquivalence(legacyNode, currentNode) {
				slog.Info("bridge: linked", "legacy", legacyNode, "current", currentNode)
				stats.NewEdges++
			} else {
				stats.ExistingPairs++
			}
		}
	}

	slog.Info("bridge: linking complete",
		"new_edges", stats.NewEdges, "existing", stats.ExistingPairs,
		"skipped", stats.SkippedPairs, "failed_chunks", stats.FailedChunks)
	return stats, nil
}

// mapEquivalents asks the LLM to pair one chunk of legacy nodes against
// the full current node list. NULL mappings come back as empty strings.
func (l *Linker) mapEquivalents(ctx context.Context, legacy, current []string) (map[string]string, error) {
	legacyJSON, _ := json.MarshalIndent(legacy, "", "  ")
	currentJSON, _ := json.MarshalIndent(current, "", "  ")

	user := fmt.Sprintf("**IPC Nodes (Legacy):**\n%s\n\n**BNS Nodes (Current):**\n%s\n\n**Task:** return the mapping JSON.",
		legacyJSON, currentJSON)

	resp, err := l.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: mappingSystemPrompt},
			{Role: "user", Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("equivalence mapping: %w", err)
	}

	jsonStr, err := extractJSONObject(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing mapping response: %w", err)
	}

	// NULL values decode to nil pointers, which normalize to "".
	var raw map[string]*string
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("unmarshalling mapping: %w", err)
	}

	mapping := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			mapping[k] = ""
		} else {
			mapping[k] = *v
		}
	}
	return mapping, nil
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSONObject finds the JSON object in an LLM response, stripping
// markdown code fences and surrounding prose.
func extractJSONObject(raw string) (string, error) {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}

	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], nil
	}

	return "", fmt.Errorf("no JSON object found in response")
}
