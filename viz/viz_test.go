package viz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dharmasetu/setu/expand"
	"github.com/dharmasetu/setu/kg"
)

func testBuilder(t *testing.T, build func(g *kg.Graph)) *Builder {
	t.Helper()
	g := kg.New()
	if build != nil {
		build(g)
	}
	return NewBuilder(expand.New(g))
}

func TestBuildNoDuplicateNodeIDs(t *testing.T) {
	b := testBuilder(t, func(g *kg.Graph) {
		g.AddEdge("Section 302", "Murder", kg.RelPunishes, "")
		g.AddEdge("Section 300", "Murder", kg.RelDefines, "")
	})

	// "Murder" is reachable from both entities and also listed directly.
	data := b.Build([]string{"Section 302", "Section 300", "Murder", "Section 302"}, nil)

	ids := make(map[string]bool)
	for _, n := range data.Nodes {
		if ids[n.ID] {
			t.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
	}
	if data.Stats.TotalNodes != len(data.Nodes) {
		t.Errorf("stats.TotalNodes = %d, want %d", data.Stats.TotalNodes, len(data.Nodes))
	}
}

func TestBuildFanOutCap(t *testing.T) {
	b := testBuilder(t, func(g *kg.Graph) {
		for i := 0; i < 9; i++ {
			g.AddEdge("Section 302", fmt.Sprintf("Section %d", 400+i), kg.RelReferences, "")
		}
	})

	data := b.Build([]string{"Section 302"}, nil)

	perSource := make(map[string]int)
	for _, e := range data.Edges {
		perSource[e.Source]++
	}
	if perSource["Section 302"] > maxEdgesPerEntity {
		t.Errorf("%d edges from Section 302, cap is %d", perSource["Section 302"], maxEdgesPerEntity)
	}
	if data.Stats.TotalEdges != len(data.Edges) {
		t.Errorf("stats.TotalEdges = %d, want %d", data.Stats.TotalEdges, len(data.Edges))
	}
}

func TestBuildCitedNodes(t *testing.T) {
	b := testBuilder(t, nil)

	data := b.Build([]string{"Section 302", "Section 300"}, map[string]string{
		"Section 302": "cite-1",
	})

	var cited, plain int
	for _, n := range data.Nodes {
		switch n.Type {
		case TypeCitedEntity:
			cited++
			if n.CitationID != "cite-1" || !n.Metadata.IsCited {
				t.Errorf("cited node metadata wrong: %+v", n)
			}
		case TypeEntity:
			plain++
			if n.Metadata.IsCited {
				t.Errorf("uncited node marked cited: %+v", n)
			}
		}
	}
	if cited != 1 || plain != 1 {
		t.Errorf("cited/plain = %d/%d, want 1/1", cited, plain)
	}
	if data.Stats.CitedNodes != 1 {
		t.Errorf("stats.CitedNodes = %d, want 1", data.Stats.CitedNodes)
	}
}

func TestBuildRelatedNodesAndTooltips(t *testing.T) {
	b := testBuilder(t, func(g *kg.Graph) {
		g.AddEdge("Section 302", "Murder", kg.RelPunishes, "")
		g.AddEdge("Section 96", "Section 302", kg.RelExceptionTo, "")
	})

	data := b.Build([]string{"Section 302"}, nil)

	byID := make(map[string]Node)
	for _, n := range data.Nodes {
		byID[n.ID] = n
	}

	primary, ok := byID["Section 302"]
	if !ok {
		t.Fatal("primary node missing")
	}
	if primary.Metadata.RelationshipCount != 2 {
		t.Errorf("relationship count = %d, want 2", primary.Metadata.RelationshipCount)
	}
	if !strings.Contains(primary.Metadata.Tooltip, "Connections: 2") {
		t.Errorf("tooltip = %q", primary.Metadata.Tooltip)
	}
	if !strings.Contains(primary.Metadata.Tooltip, "→ PUNISHES: Murder") {
		t.Errorf("tooltip missing outgoing arrow line: %q", primary.Metadata.Tooltip)
	}
	if !strings.Contains(primary.Metadata.Tooltip, "← EXCEPTION_TO: Section 96") {
		t.Errorf("tooltip missing incoming arrow line: %q", primary.Metadata.Tooltip)
	}

	related, ok := byID["Murder"]
	if !ok {
		t.Fatal("related node missing")
	}
	if related.Type != TypeRelatedEntity {
		t.Errorf("related node type = %q", related.Type)
	}
	if !strings.Contains(related.Metadata.Tooltip, "Related to Section 302") {
		t.Errorf("related tooltip = %q", related.Metadata.Tooltip)
	}
}

func TestBuildTooltipNoConnections(t *testing.T) {
	b := testBuilder(t, nil)
	data := b.Build([]string{"Section 302"}, nil)
	if len(data.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(data.Nodes))
	}
	if !strings.Contains(data.Nodes[0].Metadata.Tooltip, "No direct connections") {
		t.Errorf("tooltip = %q", data.Nodes[0].Metadata.Tooltip)
	}
}

func TestBuildStatsRelationshipTypes(t *testing.T) {
	b := testBuilder(t, func(g *kg.Graph) {
		g.AddEdge("Section 302", "Murder", kg.RelPunishes, "")
		g.AddEdge("Section 300", "Culpable Homicide", kg.RelDefines, "")
	})

	data := b.Build([]string{"Section 302", "Section 300"}, nil)

	want := []string{kg.RelDefines, kg.RelPunishes}
	got := data.Stats.RelationshipTypes
	if len(got) != len(want) {
		t.Fatalf("relationship types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("relationship types = %v, want sorted %v", got, want)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	b := testBuilder(t, nil)
	data := b.Build(nil, nil)
	if data.Stats.TotalNodes != 0 || data.Stats.TotalEdges != 0 {
		t.Errorf("empty build stats = %+v", data.Stats)
	}
}
