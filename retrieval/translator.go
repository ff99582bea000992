package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dharmasetu/setu/llm"
)

// Translator rewrites non-English queries into English before retrieval,
// since the passage corpus is indexed in English. The original query is
// never discarded; callers keep it alongside the translated form.
type Translator struct {
	chatLLM llm.Provider
}

// NewTranslator creates a Translator. If chatLLM is nil translation is a
// no-op (Translate returns the query unchanged).
func NewTranslator(chatLLM llm.Provider) *Translator {
	return &Translator{chatLLM: chatLLM}
}

// Translate converts a query written in inputLanguage to English. An
// empty or "en"/"English" inputLanguage, a nil provider, or a failed LLM
// call all yield the query unchanged; translation failures degrade to
// untranslated retrieval rather than failing the request.
func (t *Translator) Translate(ctx context.Context, query, inputLanguage string) string {
	if t.chatLLM == nil || query == "" {
		return query
	}
	if inputLanguage == "" || strings.EqualFold(inputLanguage, "en") ||
		strings.EqualFold(inputLanguage, "english") {
		return query
	}

	prompt := fmt.Sprintf(
		"Translate this legal query from %s to English. Preserve legal terms (section numbers, act names) exactly as written. Return ONLY the translated query, nothing else.\n\nQuery: %s",
		inputLanguage, query)

	resp, err := t.chatLLM.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a legal translator. Return only the translated text. No explanation."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		slog.Warn("translator: query translation failed, using original",
			"language", inputLanguage, "error", err)
		return query
	}

	translated := stripThinking(strings.TrimSpace(resp.Content))
	if translated == "" {
		return query
	}
	slog.Debug("translator: query translated", "language", inputLanguage)
	return translated
}

// stripThinking removes <think>...</think> blocks from LLM output.
// Some models (e.g. Qwen3) wrap reasoning in these tags.
func stripThinking(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s, "</think>")
		if end == -1 {
			// Unclosed tag — strip from <think> onward
			s = s[:start]
			break
		}
		s = s[:start] + s[end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}
