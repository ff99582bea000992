package bridge

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"

	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/llm"
)

type fakeChat struct {
	content string
	err     error
	calls   int
}

func (f *fakeChat) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content}, nil
}

func (f *fakeChat) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func newTestLinker(chat llm.Provider) *Linker {
	l := New(chat)
	l.limiter = rate.NewLimiter(rate.Inf, 1)
	return l
}

// regimeGraph has one legacy and one current node plus an unclassified
// bystander.
func regimeGraph() *kg.Graph {
	g := kg.New()
	g.AddNode("Section 302 IPC", "")
	g.AddNode("Section 103 BNS", "")
	g.AddNode("Murder", "")
	return g
}

func TestLinkAddsBidirectionalEdges(t *testing.T) {
	g := regimeGraph()
	chat := &fakeChat{content: `{"Section 302 IPC": "Section 103 BNS"}`}

	stats, err := newTestLinker(chat).Link(context.Background(), g)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	if stats.NewEdges != 1 {
		t.Errorf("new edges = %d, want 1", stats.NewEdges)
	}
	if !g.HasEdge("Section 302 IPC", "Section 103 BNS", kg.RelEquivalentTo) {
		t.Error("forward equivalence edge missing")
	}
	if !g.HasEdge("Section 103 BNS", "Section 302 IPC", kg.RelEquivalentTo) {
		t.Error("reverse equivalence edge missing")
	}
}

func TestLinkIdempotent(t *testing.T) {
	g := regimeGraph()
	chat := &fakeChat{content: `{"Section 302 IPC": "Section 103 BNS"}`}
	l := newTestLinker(chat)

	if _, err := l.Link(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	edgesAfterFirst := g.EdgeCount()

	stats, err := l.Link(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if stats.NewEdges != 0 || stats.ExistingPairs != 1 {
		t.Errorf("second run new/existing = %d/%d, want 0/1", stats.NewEdges, stats.ExistingPairs)
	}
	if g.EdgeCount() != edgesAfterFirst {
		t.Errorf("edge count grew on re-run: %d -> %d", edgesAfterFirst, g.EdgeCount())
	}
}

func TestLinkSkipsNullAndUnknownTargets(t *testing.T) {
	g := regimeGraph()
	g.AddNode("Section 420 IPC", "")
	chat := &fakeChat{content: `{"Section 302 IPC": null, "Section 420 IPC": "Section 318 BNS"}`}

	stats, err := newTestLinker(chat).Link(context.Background(), g)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	// One NULL mapping, one target that is not a graph node.
	if stats.NewEdges != 0 || stats.SkippedPairs != 2 {
		t.Errorf("new/skipped = %d/%d, want 0/2", stats.NewEdges, stats.SkippedPairs)
	}
}

func TestLinkFailedChunkYieldsNoEdges(t *testing.T) {
	g := regimeGraph()
	chat := &fakeChat{err: errors.New("model offline")}

	stats, err := newTestLinker(chat).Link(context.Background(), g)
	if err != nil {
		t.Fatalf("a failed chunk should not abort the run: %v", err)
	}
	if stats.FailedChunks != 1 || stats.NewEdges != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLinkNothingToLink(t *testing.T) {
	g := kg.New()
	g.AddNode("Murder", "")
	chat := &fakeChat{content: `{}`}

	stats, err := newTestLinker(chat).Link(context.Background(), g)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if chat.calls != 0 {
		t.Errorf("LLM called with no regime nodes: %d calls", chat.calls)
	}
	if stats.Chunks != 0 {
		t.Errorf("chunks = %d, want 0", stats.Chunks)
	}
}

func TestLinkStripsCodeFences(t *testing.T) {
	g := regimeGraph()
	chat := &fakeChat{content: "Here is the mapping:\n```json\n{\"Section 302 IPC\": \"Section 103 BNS\"}\n```"}

	stats, err := newTestLinker(chat).Link(context.Background(), g)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if stats.NewEdges != 1 {
		t.Errorf("new edges = %d, want 1", stats.NewEdges)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": "b"}`, `{"a": "b"}`, false},
		{"fenced", "```json\n{\"a\": \"b\"}\n```", `{"a": "b"}`, false},
		{"prose around", "Sure: {\"a\": \"b\"} done.", `{"a": "b"}`, false},
		{"no object", "no mapping found", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
