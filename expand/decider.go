package expand

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dharmasetu/setu/llm"
	"github.com/dharmasetu/setu/retrieval"
)

// Decision sources.
const (
	SourceLLM      = "llm"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Decision is the explicit outcome of the expansion gate. Source names
// where the judgment came from; Rationale carries the raw answer or the
// failure reason so audits can assert on the decision independent of
// the expansion result.
type Decision struct {
	Expand    bool   `json:"expand"`
	Source    string `json:"source"`
	Rationale string `json:"rationale"`
}

// maxDecisionDocs caps how many retrieved documents are summarized into
// the decision prompt (token budget control).
const maxDecisionDocs = 5

// Decider asks an LLM whether the retrieved set references provisions
// it does not contain. Judgments are memoized per (query, docs) so
// repeated identical requests skip the LLM call.
type Decider struct {
	chatLLM llm.Provider
	cache   *gocache.Cache
}

// NewDecider creates a Decider with a 10 minute decision memo.
func NewDecider(chatLLM llm.Provider) *Decider {
	return &Decider{
		chatLLM: chatLLM,
		cache:   gocache.New(10*time.Minute, 30*time.Minute),
	}
}

// ShouldExpand returns the expansion decision for a query and its
// retrieved documents. The LLM's answer counts as yes only if it
// contains "YES" (case-insensitive); any provider failure degrades to a
// no-expansion decision, never an error.
func (d *Decider) ShouldExpand(ctx context.Context, query string, docs []retrieval.Document) Decision {
	if d.chatLLM == nil {
		return Decision{Expand: false, Source: SourceFallback, Rationale: "no decision provider configured"}
	}

	summary := summarizeDocs(docs)
	key := decisionKey(query, summary)
	if cached, ok := d.cache.Get(key); ok {
		dec := cached.(Decision)
		dec.Source = SourceCache
		return dec
	}

	prompt := fmt.Sprintf(`You are a legal research assistant. Analyze whether the retrieved documents fully answer the query or if additional related provisions should be consulted.

**User Query:** %s

**Retrieved Documents:**
%s

**Your Task:**
Determine if these documents reference other sections, exceptions, or related provisions that are NOT in the current retrieval results but might be crucial for a complete answer.

**Answer with ONLY:**
- "YES" if additional context is needed (e.g., documents mention other sections, exceptions, or definitions not retrieved)
- "NO" if the current documents are sufficient

**Examples:**
- If a document mentions "except as provided in Section 96" but Section 96 is not retrieved -> YES
- If a document references "as defined in Section 2" but Section 2 is not retrieved -> YES
- If all mentioned sections are already in the results -> NO

**Your Answer (YES or NO):**`, query, summary)

	resp, err := d.chatLLM.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a precise legal analyst. Answer only YES or NO."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		slog.Warn("expand: decision call failed, skipping expansion",
			"query", query, "error", err)
		return Decision{Expand: false, Source: SourceFallback, Rationale: fmt.Sprintf("decision failed: %v", err)}
	}

	answer := strings.ToUpper(strings.TrimSpace(resp.Content))
	dec := Decision{
		Expand:    strings.Contains(answer, "YES"),
		Source:    SourceLLM,
		Rationale: answer,
	}
	d.cache.Set(key, dec, gocache.DefaultExpiration)

	slog.Info("expand: expansion decision", "expand", dec.Expand, "answer", answer)
	return dec
}

// summarizeDocs formats the first maxDecisionDocs documents into the
// prompt, truncating each text to 200 characters.
func summarizeDocs(docs []retrieval.Document) string {
	if len(docs) > maxDecisionDocs {
		docs = docs[:maxDecisionDocs]
	}
	var buf strings.Builder
	for _, doc := range docs {
		text := doc.Text
		if len(text) > 200 {
			text = truncateUTF8(text, 200)
		}
		fmt.Fprintf(&buf, "- %s (Page %d): %s...\n", doc.SourceDoc, doc.PageNumber, text)
	}
	return buf.String()
}

// truncateUTF8 cuts text at n bytes on a rune boundary; Devanagari
// passages must not leak partial sequences into the prompt.
func truncateUTF8(text string, n int) string {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

func decisionKey(query, summary string) string {
	h := sha256.Sum256([]byte(query + "\x00" + summary))
	return hex.EncodeToString(h[:])
}
