// Package setu is a graph-enhanced legal research engine for Indian
// law. It retrieves statute passages from a vector store, expands
// context through a knowledge graph bridging the IPC and BNS regimes,
// and generates structured answers, formal legal memos, and compliance
// audits of uploaded documents.
package setu

import (
	"context"
	"fmt"
	"strings"

	"github.com/dharmasetu/setu/audit"
	"github.com/dharmasetu/setu/expand"
	"github.com/dharmasetu/setu/extract"
	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/llm"
	"github.com/dharmasetu/setu/parser"
	"github.com/dharmasetu/setu/pipeline"
	"github.com/dharmasetu/setu/retrieval"
	"github.com/dharmasetu/setu/store"
	"github.com/dharmasetu/setu/viz"
)

// minQueryLen is the minimum accepted query length.
const minQueryLen = 5

// minAuditChars is the minimum usable text for a document audit.
const minAuditChars = 10

// Engine is the main entry point for the legal research engine.
type Engine interface {
	// Ask answers a legal question with citations and optional graph
	// visualization data.
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)

	// Draft generates a formal written submission from case facts.
	Draft(ctx context.Context, req DraftRequest) (*DraftResponse, error)

	// Audit checks document text for citations to superseded law.
	Audit(text, filename string) audit.Report

	// AuditFile extracts text from a document file and audits it.
	AuditFile(path string) (audit.Report, error)

	// Health reports engine status and graph statistics.
	Health() Health

	// Graph returns the loaded knowledge graph.
	Graph() *kg.Graph

	// Store returns the underlying passage store.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// AskRequest is a legal question.
type AskRequest struct {
	Query            string `json:"query"`
	Language         string `json:"language,omitempty"`
	InputLanguage    string `json:"input_language,omitempty"`
	IncludeGraphData bool   `json:"include_graph_data"`
}

// AskResponse carries the answer with UI-ready citations and graph data.
type AskResponse struct {
	Answer    string         `json:"answer"`
	Citations []Citation     `json:"citations"`
	Metadata  map[string]any `json:"metadata"`
	GraphData *viz.Data      `json:"graph_data,omitempty"`
}

// DraftRequest carries the facts of a case.
type DraftRequest struct {
	Facts         string `json:"facts"`
	Language      string `json:"language,omitempty"`
	InputLanguage string `json:"input_language,omitempty"`
}

// DraftResponse is the generated written submission.
type DraftResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Health reports engine readiness.
type Health struct {
	Status      string `json:"status"`
	GraphLoaded bool   `json:"graph_loaded"`
	GraphNodes  int    `json:"graph_nodes"`
	GraphEdges  int    `json:"graph_edges"`
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	store    *store.Store
	chatLLM  llm.Provider
	embedLLM llm.Provider
	graph    *kg.Graph
	expander *expand.Expander
	auditor  *audit.Auditor
	vizB     *viz.Builder
	pipe     *pipeline.Pipeline
}

// New creates a Setu engine with the given configuration. A missing
// graph snapshot degrades to an empty graph; retrieval and generation
// still work without expansion.
func New(cfg Config) (Engine, error) {
	if cfg.Chat.Provider == "" || cfg.Embedding.Provider == "" {
		return nil, fmt.Errorf("%w: chat and embedding providers are required", ErrInvalidConfig)
	}
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 768
	}

	s, err := store.New(cfg.resolveDBPath(), cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	chatLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}

	embedLLM, err := llm.NewProvider(llm.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		EmbedModel: cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	// Translation defaults to the chat provider.
	translationLLM := chatLLM
	if cfg.Translation.Provider != "" {
		translationLLM, err = llm.NewProvider(llm.Config{
			Provider: cfg.Translation.Provider,
			Model:    cfg.Translation.Model,
			BaseURL:  cfg.Translation.BaseURL,
			APIKey:   cfg.Translation.APIKey,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating translation provider: %w", err)
		}
	}

	g := kg.LoadOrEmpty(cfg.resolveGraphPath())
	expander := expand.New(g)

	pipe := pipeline.New(
		retrieval.NewVectorRetriever(s, embedLLM),
		retrieval.NewTranslator(translationLLM),
		expand.NewDecider(chatLLM),
		expander,
		chatLLM,
	)

	return &engine{
		cfg:      cfg,
		store:    s,
		chatLLM:  chatLLM,
		embedLLM: embedLLM,
		graph:    g,
		expander: expander,
		auditor:  audit.New(g),
		vizB:     viz.NewBuilder(expander),
		pipe:     pipe,
	}, nil
}

// Ask runs the full question pipeline and assembles the UI payload.
func (e *engine) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if len(strings.TrimSpace(req.Query)) < minQueryLen {
		return nil, ErrQueryTooShort
	}

	result, err := e.pipe.Run(ctx, pipeline.Request{
		Query:         req.Query,
		Language:      req.Language,
		InputLanguage: req.InputLanguage,
	})
	if err != nil {
		return nil, err
	}

	citations, citationMap := buildCitations(result.Sources, e.graph)

	resp := &AskResponse{
		Answer:    result.Answer,
		Citations: citations,
		Metadata:  result.Metadata,
	}
	if req.IncludeGraphData {
		data := e.vizB.Build(e.contextEntities(result), citationMap)
		resp.GraphData = &data
	}
	return resp, nil
}

// Draft runs the drafting pipeline. No graph payload: the memo cites
// its sources inline.
func (e *engine) Draft(ctx context.Context, req DraftRequest) (*DraftResponse, error) {
	if len(strings.TrimSpace(req.Facts)) < minQueryLen {
		return nil, ErrQueryTooShort
	}

	result, err := e.pipe.Draft(ctx, pipeline.Request{
		Query:         req.Facts,
		Language:      req.Language,
		InputLanguage: req.InputLanguage,
	})
	if err != nil {
		return nil, err
	}

	citations, _ := buildCitations(result.Sources, e.graph)
	return &DraftResponse{
		Answer:    result.Answer,
		Citations: citations,
	}, nil
}

// contextEntities collects the entities the visualization renders:
// entities found in the retrieved passages first, then the expanded
// entities, deduplicated in that order.
func (e *engine) contextEntities(result *pipeline.Result) []string {
	seen := make(map[string]bool)
	var entities []string

	for _, doc := range result.Sources {
		for _, ent := range extract.WithGraph(doc.Text, e.graph) {
			if !seen[ent] {
				seen[ent] = true
				entities = append(entities, ent)
			}
		}
	}
	for _, ent := range result.ExpandedEntities {
		if !seen[ent] {
			seen[ent] = true
			entities = append(entities, ent)
		}
	}
	return entities
}

// Audit runs the compliance check over raw document text.
func (e *engine) Audit(text, filename string) audit.Report {
	return e.auditor.Audit(text, filename)
}

// AuditFile extracts text from a document and audits it.
func (e *engine) AuditFile(path string) (audit.Report, error) {
	text, err := parser.ExtractText(path)
	if err != nil {
		return audit.Report{}, fmt.Errorf("extracting text: %w", err)
	}
	if len(strings.TrimSpace(text)) < minAuditChars {
		return audit.Report{}, fmt.Errorf("%w: %s", ErrInsufficientText, path)
	}
	return e.auditor.Audit(text, path), nil
}

// Health reports status and graph statistics.
func (e *engine) Health() Health {
	return Health{
		Status:      "healthy",
		GraphLoaded: e.graph.NodeCount() > 0,
		GraphNodes:  e.graph.NodeCount(),
		GraphEdges:  e.graph.EdgeCount(),
	}
}

// Graph returns the loaded knowledge graph.
func (e *engine) Graph() *kg.Graph {
	return e.graph
}

// Store returns the underlying passage store.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	return e.store.Close()
}
