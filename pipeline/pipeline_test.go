package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dharmasetu/setu/expand"
	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/llm"
	"github.com/dharmasetu/setu/retrieval"
)

// fakeRetriever returns a fixed document set or error.
type fakeRetriever struct {
	docs      []retrieval.Document
	err       error
	lastQuery string
	lastK     int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, k int) ([]retrieval.Document, error) {
	f.lastQuery = query
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// fakeChat records the last request and answers with a fixed string.
type fakeChat struct {
	content string
	err     error
	lastReq llm.ChatRequest
	calls   int
}

func (f *fakeChat) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content}, nil
}

func (f *fakeChat) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func sampleDocs() []retrieval.Document {
	return []retrieval.Document{
		{Text: "Section 302 prescribes punishment for murder.", SourceDoc: "ipc.pdf", PageNumber: 120, Score: 0.91},
	}
}

// seedGraph connects Section 302 so expansion has somewhere to go.
func seedGraph() *kg.Graph {
	g := kg.New()
	g.AddEdge("Section 302", "Section 300", kg.RelReferences, "")
	g.AddEdge("Section 302", "Murder", kg.RelPunishes, "")
	return g
}

func newTestPipeline(retriever *fakeRetriever, decision string, generator *fakeChat, g *kg.Graph) *Pipeline {
	if g == nil {
		g = seedGraph()
	}
	return New(
		retriever,
		nil,
		expand.NewDecider(&fakeChat{content: decision}),
		expand.New(g),
		generator,
	)
}

func TestRunNoExpansion(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{content: "## Answer"}
	p := newTestPipeline(retriever, "NO", generator, nil)

	res, err := p.Run(context.Background(), Request{Query: "punishment for murder no-expand"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Answer != "## Answer" {
		t.Errorf("answer = %q", res.Answer)
	}
	if retriever.lastK != retrieveLimit {
		t.Errorf("retrieval limit = %d, want %d", retriever.lastK, retrieveLimit)
	}
	if res.Metadata["retrieval_count"] != 1 {
		t.Errorf("retrieval_count = %v", res.Metadata["retrieval_count"])
	}
	if res.Metadata["expansion_performed"] != false {
		t.Errorf("expansion_performed = %v, want false", res.Metadata["expansion_performed"])
	}
	if res.Metadata["expanded_entity_count"] != 0 {
		t.Errorf("expanded_entity_count = %v, want 0", res.Metadata["expanded_entity_count"])
	}
	if len(res.Sources) != 1 {
		t.Errorf("sources = %d, want 1", len(res.Sources))
	}
}

func TestRunWithExpansion(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{content: "answer"}
	p := newTestPipeline(retriever, "YES", generator, nil)

	res, err := p.Run(context.Background(), Request{Query: "punishment for murder expand"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Metadata["expansion_performed"] != true {
		t.Errorf("expansion_performed = %v, want true", res.Metadata["expansion_performed"])
	}
	count, _ := res.Metadata["expanded_entity_count"].(int)
	if count == 0 {
		t.Error("expanded_entity_count should be positive after expansion")
	}

	user := generator.lastReq.Messages[1].Content
	if !strings.Contains(user, "Related Legal Provisions") {
		t.Error("user prompt missing graph context header")
	}
	if !strings.Contains(user, "--[") {
		t.Errorf("user prompt missing relationship lines: %q", user)
	}
}

func TestGenerateBridgeInstruction(t *testing.T) {
	g := seedGraph()
	g.AddNode("Section 302 IPC", "")
	g.AddNode("Section 103 BNS", "")
	g.AddEquivalence("Section 302 IPC", "Section 103 BNS")
	g.AddEdge("Section 302", "Section 302 IPC", kg.RelReferences, "")

	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{content: "answer"}
	p := newTestPipeline(retriever, "YES", generator, g)

	if _, err := p.Run(context.Background(), Request{Query: "murder bridge"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	system := generator.lastReq.Messages[0].Content
	if !strings.Contains(system, "LEGAL BRIDGE DETECTED") {
		t.Error("system prompt missing bridge instruction despite EQUIVALENT_TO in context")
	}
	if !strings.Contains(system, "Legacy (IPC) vs Current (BNS)") {
		t.Error("bridge instruction missing comparison table title")
	}
}

func TestGenerateNoBridgeInstructionWithoutEquivalence(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{content: "answer"}
	p := newTestPipeline(retriever, "YES", generator, nil)

	if _, err := p.Run(context.Background(), Request{Query: "murder plain"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(generator.lastReq.Messages[0].Content, "LEGAL BRIDGE DETECTED") {
		t.Error("bridge instruction present without an EQUIVALENT_TO edge in context")
	}
}

func TestGenerateLanguageInstruction(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{content: "answer"}
	p := newTestPipeline(retriever, "NO", generator, nil)

	req := Request{Query: "murder in hindi", Language: "Hindi"}
	if _, err := p.Run(context.Background(), req); err != nil {
		t.Fatalf("Run: %v", err)
	}

	system := generator.lastReq.Messages[0].Content
	if !strings.Contains(system, "Provide the final answer in **Hindi**") {
		t.Error("system prompt missing language instruction")
	}
}

func TestRunRetrievalErrorPropagates(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("index offline")}
	p := newTestPipeline(retriever, "NO", &fakeChat{content: "x"}, nil)

	_, err := p.Run(context.Background(), Request{Query: "q"})
	if err == nil || !strings.Contains(err.Error(), "index offline") {
		t.Errorf("err = %v, want wrapped retrieval failure", err)
	}
}

func TestRunGenerationErrorPropagates(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{err: errors.New("model overloaded")}
	p := newTestPipeline(retriever, "NO", generator, nil)

	_, err := p.Run(context.Background(), Request{Query: "q gen fail"})
	if err == nil || !strings.Contains(err.Error(), "generate answer") {
		t.Errorf("err = %v, want generate answer failure", err)
	}
}

func TestRetrieveTranslatesQuery(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	translatorChat := &fakeChat{content: "what is the punishment for murder"}
	p := New(
		retriever,
		retrieval.NewTranslator(translatorChat),
		expand.NewDecider(&fakeChat{content: "NO"}),
		expand.New(kg.New()),
		&fakeChat{content: "answer"},
	)

	req := Request{Query: "हत्या की सजा क्या है", InputLanguage: "Hindi"}
	res, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if retriever.lastQuery != "what is the punishment for murder" {
		t.Errorf("search query = %q, want translated form", retriever.lastQuery)
	}
	if res.Answer != "answer" {
		t.Errorf("answer = %q", res.Answer)
	}
}

func TestExpandContextCaps(t *testing.T) {
	g := kg.New()
	// One hub fanning out to 14 entities, each with 7 relationships of
	// its own, forces both caps to bite.
	for i := 0; i < 14; i++ {
		target := "Section " + string(rune('A'+i))
		g.AddEdge("Section 302", target, kg.RelReferences, "")
		for j := 0; j < 7; j++ {
			g.AddEdge(target, target+"-ref-"+string(rune('0'+j)), kg.RelReferences, "")
		}
	}

	st := &State{
		Query:         "caps",
		RetrievedDocs: sampleDocs(),
		Metadata:      make(map[string]any),
	}
	p := newTestPipeline(&fakeRetriever{}, "YES", &fakeChat{content: "x"}, g)
	p.expandContext(context.Background(), st)

	if len(st.GraphContext) > maxContextEntities {
		t.Errorf("graph context entries = %d, cap is %d", len(st.GraphContext), maxContextEntities)
	}
	for _, ec := range st.GraphContext {
		if len(ec.Relationships) > maxRelationsPerEntry {
			t.Errorf("%s has %d relationships, cap is %d", ec.Entity, len(ec.Relationships), maxRelationsPerEntry)
		}
	}
}

func TestDraftMemoPrompt(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{content: "IN THE HON'BLE COURT"}
	p := newTestPipeline(retriever, "YES", generator, nil)

	res, err := p.Draft(context.Background(), Request{Query: "accused stabbed the victim draft"})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}

	system := generator.lastReq.Messages[0].Content
	if !strings.Contains(system, "Written Submission") {
		t.Error("draft system prompt missing memo framing")
	}
	if generator.lastReq.Temperature != 0.2 {
		t.Errorf("draft temperature = %v, want 0.2", generator.lastReq.Temperature)
	}

	user := generator.lastReq.Messages[1].Content
	if !strings.Contains(user, "Facts of the Case") {
		t.Error("draft user prompt missing facts header")
	}
	if !strings.Contains(user, "Legal Cross-References") {
		t.Error("draft user prompt missing graph cross-references")
	}
	if res.Answer != "IN THE HON'BLE COURT" {
		t.Errorf("answer = %q", res.Answer)
	}
}

func TestAnswerTemperature(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	generator := &fakeChat{content: "x"}
	p := newTestPipeline(retriever, "NO", generator, nil)

	if _, err := p.Run(context.Background(), Request{Query: "temp check"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if generator.lastReq.Temperature != 0.3 {
		t.Errorf("answer temperature = %v, want 0.3", generator.lastReq.Temperature)
	}
}
