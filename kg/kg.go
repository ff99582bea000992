// Package kg implements the legal knowledge graph: a directed graph of
// legal entities (sections, articles, doctrines) with typed relations,
// loaded once per process and read-shared by all requests. The only
// writers are the offline construction and bridge-linking passes; serving
// code must treat a loaded Graph as immutable.
package kg

import (
	"errors"
	"strings"
)

// ErrUnavailable is returned when the graph snapshot cannot be loaded.
var ErrUnavailable = errors.New("kg: graph unavailable")

// Regime classifies a node's legal code generation.
type Regime string

const (
	RegimeLegacy  Regime = "Legacy"
	RegimeCurrent Regime = "Current"
	RegimeUnknown Regime = "Unknown"
)

// Relation type constants. Construction uses the first five; the bridge
// linker adds EQUIVALENT_TO pairs between regimes.
const (
	RelDefines      = "DEFINES"
	RelPunishes     = "PUNISHES"
	RelReferences   = "REFERENCES"
	RelPartOf       = "PART_OF"
	RelExceptionTo  = "EXCEPTION_TO"
	RelEquivalentTo = "EQUIVALENT_TO"
)

// AllowedRelations lists the relation types accepted during construction.
var AllowedRelations = []string{RelDefines, RelPunishes, RelReferences, RelPartOf, RelExceptionTo}

// Node is a legal entity keyed by its label.
type Node struct {
	Label    string `json:"label"`
	NodeType string `json:"node_type"`
	Regime   Regime `json:"regime"`
}

// Edge is a directed, labeled relation between two nodes.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relation     string `json:"relation"`
	DisplayLabel string `json:"display_label,omitempty"`
}

// edgeRec is the internal adjacency entry; peer is an arena index.
type edgeRec struct {
	peer         int
	relation     string
	displayLabel string
}

// Graph stores nodes in an arena with a label lookup table. Iteration over
// AllNodes follows insertion order, which keeps label-substring matching in
// the auditor deterministic. Neighbor lookup is O(degree).
type Graph struct {
	nodes     []Node
	index     map[string]int
	out       map[int][]edgeRec
	in        map[int][]edgeRec
	edgeCount int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		out:   make(map[int][]edgeRec),
		in:    make(map[int][]edgeRec),
	}
}

// ClassifyRegime derives a node's regime from its label text.
func ClassifyRegime(label string) Regime {
	upper := strings.ToUpper(label)
	if strings.Contains(upper, "IPC") || strings.Contains(upper, "PENAL CODE") {
		return RegimeLegacy
	}
	if strings.Contains(upper, "BNS") || strings.Contains(upper, "BHARATIYA") {
		return RegimeCurrent
	}
	return RegimeUnknown
}

// AddNode inserts a node if its label is new and returns its arena index.
// The regime is computed from the label once and cached on the node.
func (g *Graph) AddNode(label, nodeType string) int {
	if idx, ok := g.index[label]; ok {
		return idx
	}
	if nodeType == "" {
		nodeType = "entity"
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{
		Label:    label,
		NodeType: nodeType,
		Regime:   ClassifyRegime(label),
	})
	g.index[label] = idx
	return idx
}

// HasNode reports whether a node with the given label exists.
func (g *Graph) HasNode(label string) bool {
	_, ok := g.index[label]
	return ok
}

// Node returns the node for a label.
func (g *Graph) Node(label string) (Node, bool) {
	idx, ok := g.index[label]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// AddEdge inserts a directed edge, creating endpoint nodes as needed.
// Duplicate (source, target, relation) edges are not re-inserted; the
// return value reports whether a new edge was added.
func (g *Graph) AddEdge(source, target, relation, displayLabel string) bool {
	src := g.AddNode(source, "")
	tgt := g.AddNode(target, "")

	for _, e := range g.out[src] {
		if e.peer == tgt && e.relation == relation {
			return false
		}
	}

	g.out[src] = append(g.out[src], edgeRec{peer: tgt, relation: relation, displayLabel: displayLabel})
	g.in[tgt] = append(g.in[tgt], edgeRec{peer: src, relation: relation, displayLabel: displayLabel})
	g.edgeCount++
	return true
}

// AddEquivalence links a legacy provision to its current replacement with
// EQUIVALENT_TO edges in both directions, each carrying a direction-
// appropriate display label. Returns true if the forward edge was new.
// Re-linking an already-linked pair is a no-op, so the graph never holds
// an asymmetric equivalence.
func (g *Graph) AddEquivalence(legacy, current string) bool {
	added := g.AddEdge(legacy, current, RelEquivalentTo, "Equivalent To")
	g.AddEdge(current, legacy, RelEquivalentTo, "Legacy Equivalent")
	return added
}

// HasEdge reports whether a (source, target, relation) edge exists.
func (g *Graph) HasEdge(source, target, relation string) bool {
	src, ok := g.index[source]
	if !ok {
		return false
	}
	tgt, ok := g.index[target]
	if !ok {
		return false
	}
	for _, e := range g.out[src] {
		if e.peer == tgt && e.relation == relation {
			return true
		}
	}
	return false
}

// Neighbors returns the labels of a node's predecessors and successors,
// each in edge insertion order. An unknown label yields two nil slices.
func (g *Graph) Neighbors(label string) (predecessors, successors []string) {
	idx, ok := g.index[label]
	if !ok {
		return nil, nil
	}
	for _, e := range g.in[idx] {
		predecessors = append(predecessors, g.nodes[e.peer].Label)
	}
	for _, e := range g.out[idx] {
		successors = append(successors, g.nodes[e.peer].Label)
	}
	return predecessors, successors
}

// EdgesBetween returns all edges from a to b.
func (g *Graph) EdgesBetween(a, b string) []Edge {
	src, ok := g.index[a]
	if !ok {
		return nil
	}
	tgt, ok := g.index[b]
	if !ok {
		return nil
	}
	var edges []Edge
	for _, e := range g.out[src] {
		if e.peer == tgt {
			edges = append(edges, Edge{Source: a, Target: b, Relation: e.relation, DisplayLabel: e.displayLabel})
		}
	}
	return edges
}

// OutEdges returns all edges leaving the node.
func (g *Graph) OutEdges(label string) []Edge {
	idx, ok := g.index[label]
	if !ok {
		return nil
	}
	edges := make([]Edge, 0, len(g.out[idx]))
	for _, e := range g.out[idx] {
		edges = append(edges, Edge{Source: label, Target: g.nodes[e.peer].Label, Relation: e.relation, DisplayLabel: e.displayLabel})
	}
	return edges
}

// InEdges returns all edges entering the node.
func (g *Graph) InEdges(label string) []Edge {
	idx, ok := g.index[label]
	if !ok {
		return nil
	}
	edges := make([]Edge, 0, len(g.in[idx]))
	for _, e := range g.in[idx] {
		edges = append(edges, Edge{Source: g.nodes[e.peer].Label, Target: label, Relation: e.relation, DisplayLabel: e.displayLabel})
	}
	return edges
}

// AllNodes returns every node in insertion order. The returned slice is a
// copy; callers may not mutate graph state through it.
func (g *Graph) AllNodes() []Node {
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// AllEdges returns every edge, grouped by source node in insertion order.
func (g *Graph) AllEdges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for i := range g.nodes {
		for _, e := range g.out[i] {
			edges = append(edges, Edge{
				Source:       g.nodes[i].Label,
				Target:       g.nodes[e.peer].Label,
				Relation:     e.relation,
				DisplayLabel: e.displayLabel,
			})
		}
	}
	return edges
}

// NodesByRegime returns the labels of all nodes in the given regime,
// in insertion order.
func (g *Graph) NodesByRegime(r Regime) []string {
	var labels []string
	for _, n := range g.nodes {
		if n.Regime == r {
			labels = append(labels, n.Label)
		}
	}
	return labels
}
