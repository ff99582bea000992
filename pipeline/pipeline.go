// Package pipeline runs the staged question-answering flow: vector
// retrieval, graph-based context expansion, and answer generation. The
// same first two stages feed two terminal stages, a visual structured
// answer and a formal legal memo.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dharmasetu/setu/expand"
	"github.com/dharmasetu/setu/llm"
	"github.com/dharmasetu/setu/retrieval"
)

// Stage limits.
const (
	retrieveLimit        = 5
	maxContextEntities   = 10
	maxRelationsPerEntry = 5
)

// EntityContext pairs one expanded entity with its graph relationships.
type EntityContext struct {
	Entity        string                `json:"entity"`
	Relationships []expand.Relationship `json:"relationships"`
}

// State is the working state threaded through the stages. Query always
// holds the user's original text; TranslatedQuery is set only when the
// retrieval stage rewrote a non-English query.
type State struct {
	Query            string
	TranslatedQuery  string
	InputLanguage    string
	Language         string
	RetrievedDocs    []retrieval.Document
	ExpandedEntities []string
	GraphContext     []EntityContext
	FinalAnswer      string
	Metadata         map[string]any
}

// Request describes one pipeline run.
type Request struct {
	Query         string `json:"query"`
	Language      string `json:"language,omitempty"`
	InputLanguage string `json:"input_language,omitempty"`
}

// Result is the pipeline output.
type Result struct {
	Answer           string               `json:"answer"`
	Metadata         map[string]any       `json:"metadata"`
	Sources          []retrieval.Document `json:"sources"`
	ExpandedEntities []string             `json:"expanded_entities,omitempty"`
}

// Pipeline wires the stage collaborators together.
type Pipeline struct {
	retriever  retrieval.Retriever
	translator *retrieval.Translator
	decider    *expand.Decider
	expander   *expand.Expander
	chat       llm.Provider
}

// New creates a Pipeline. translator may be nil when query translation
// is not configured.
func New(r retrieval.Retriever, tr *retrieval.Translator, d *expand.Decider, e *expand.Expander, chat llm.Provider) *Pipeline {
	return &Pipeline{retriever: r, translator: tr, decider: d, expander: e, chat: chat}
}

// Run executes retrieve, expand, and generate for a question.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	st := newState(req)

	if err := p.retrieve(ctx, st); err != nil {
		return nil, err
	}
	p.expandContext(ctx, st)
	if err := p.generate(ctx, st); err != nil {
		return nil, err
	}

	return st.result(), nil
}

// Draft executes retrieve and expand, then produces a formal written
// submission instead of a structured answer. The query carries the case
// facts in this mode.
func (p *Pipeline) Draft(ctx context.Context, req Request) (*Result, error) {
	st := newState(req)

	if err := p.retrieve(ctx, st); err != nil {
		return nil, err
	}
	p.expandContext(ctx, st)
	if err := p.draftMemo(ctx, st); err != nil {
		return nil, err
	}

	return st.result(), nil
}

func newState(req Request) *State {
	return &State{
		Query:         req.Query,
		Language:      req.Language,
		InputLanguage: req.InputLanguage,
		Metadata:      make(map[string]any),
	}
}

func (s *State) result() *Result {
	return &Result{
		Answer:           s.FinalAnswer,
		Metadata:         s.Metadata,
		Sources:          s.RetrievedDocs,
		ExpandedEntities: s.ExpandedEntities,
	}
}

// retrieve translates the query when needed and fetches the top
// passages. The original query text stays in the state for the later
// stages; only the search uses the translated form.
func (p *Pipeline) retrieve(ctx context.Context, st *State) error {
	start := time.Now()

	searchQuery := st.Query
	if p.translator != nil {
		translated := p.translator.Translate(ctx, st.Query, st.InputLanguage)
		if translated != st.Query {
			st.TranslatedQuery = translated
			searchQuery = translated
		}
	}

	docs, err := p.retriever.Search(ctx, searchQuery, retrieveLimit)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	st.RetrievedDocs = docs
	st.Metadata["retrieval_count"] = len(docs)
	slog.Info("pipeline: retrieval complete",
		"docs", len(docs), "translated", st.TranslatedQuery != "",
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// expandContext asks the decider whether the retrieved passages need
// graph expansion, and if so collects related entities with their
// relationships. Caps: 10 entities, 5 relationships each.
func (p *Pipeline) expandContext(ctx context.Context, st *State) {
	dec := p.decider.ShouldExpand(ctx, st.Query, st.RetrievedDocs)
	slog.Info("pipeline: expansion decision",
		"expand", dec.Expand, "source", dec.Source, "rationale", dec.Rationale)

	if dec.Expand {
		st.ExpandedEntities = p.expander.Expand(st.RetrievedDocs)

		entities := st.ExpandedEntities
		if len(entities) > maxContextEntities {
			entities = entities[:maxContextEntities]
		}
		for _, entity := range entities {
			rels := p.expander.Relationships(entity)
			if len(rels) == 0 {
				continue
			}
			if len(rels) > maxRelationsPerEntry {
				rels = rels[:maxRelationsPerEntry]
			}
			st.GraphContext = append(st.GraphContext, EntityContext{
				Entity:        entity,
				Relationships: rels,
			})
		}
	}

	st.Metadata["expansion_performed"] = dec.Expand
	st.Metadata["expansion_source"] = dec.Source
	st.Metadata["expanded_entity_count"] = len(st.ExpandedEntities)
}

// generate produces the structured visual answer.
func (p *Pipeline) generate(ctx context.Context, st *State) error {
	vectorContext := formatVectorContext(st.RetrievedDocs)
	graphContext := formatGraphContext(st.GraphContext)

	system := answerSystemPrompt
	if strings.Contains(graphContext, "EQUIVALENT_TO") {
		system += bridgeInstruction
	}
	system += languageInstruction(st.Language)

	user := fmt.Sprintf("**Question:** %s\n\n**Retrieved Legal Context:**\n%s\n%s\n**Please provide a visual, step-by-step legal answer:**",
		st.Query, vectorContext, graphContext)

	resp, err := p.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}

	st.FinalAnswer = resp.Content
	slog.Info("pipeline: answer generated", "tokens", resp.TotalTokens)
	return nil
}

// draftMemo produces a formal written submission from case facts.
func (p *Pipeline) draftMemo(ctx context.Context, st *State) error {
	var parts []string
	for _, d := range st.RetrievedDocs {
		parts = append(parts, fmt.Sprintf("Source: %s\nText: %s", d.SourceDoc, d.Text))
	}
	vectorContext := strings.Join(parts, "\n\n")

	var crossRefs strings.Builder
	if len(st.GraphContext) > 0 {
		crossRefs.WriteString("Also consider these Legal Cross-References:\n")
		for _, ec := range st.GraphContext {
			objects := make([]string, 0, len(ec.Relationships))
			for _, rel := range ec.Relationships {
				objects = append(objects, rel.Object)
			}
			fmt.Fprintf(&crossRefs, "- %s relates to %s\n", ec.Entity, strings.Join(objects, ", "))
		}
	}

	system := memoSystemPrompt
	if st.Language != "" && !strings.EqualFold(st.Language, "english") {
		system += fmt.Sprintf("\n**TRANSLATION**: Draft the entire submission in %s, using appropriate legal terminology.", st.Language)
	}

	user := fmt.Sprintf("**Facts of the Case:** %s\n\n**Relevant Legal Precedents & Sections:**\n%s\n\n%s\n**Draft the Written Submission:**",
		st.Query, vectorContext, crossRefs.String())

	resp, err := p.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return fmt.Errorf("draft memo: %w", err)
	}

	st.FinalAnswer = resp.Content
	slog.Info("pipeline: memo drafted", "tokens", resp.TotalTokens)
	return nil
}

func formatVectorContext(docs []retrieval.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("**Source: %s (Page %d)**\n%s", d.SourceDoc, d.PageNumber, d.Text))
	}
	return strings.Join(parts, "\n\n")
}

func formatGraphContext(ctxs []EntityContext) string {
	if len(ctxs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n**Related Legal Provisions (from Knowledge Graph):**\n")
	for _, ec := range ctxs {
		fmt.Fprintf(&b, "\n%s:\n", ec.Entity)
		for _, rel := range ec.Relationships {
			fmt.Fprintf(&b, "  - %s --[%s]--> %s\n", rel.Subject, rel.Predicate, rel.Object)
		}
	}
	return b.String()
}

func languageInstruction(language string) string {
	if language == "" || strings.EqualFold(language, "english") {
		return ""
	}
	return fmt.Sprintf(`

**LANGUAGE INSTRUCTION:**
- Provide the final answer in **%s**.
- Ensure legal terms are explained clearly in %s (use English terms in brackets if necessary for clarity).
- Maintain the Markdown structure and Mermaid diagrams.
`, language, language)
}
