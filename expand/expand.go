// Package expand implements graph-based context expansion: a gating
// decision on whether retrieved passages need more graph context, and a
// bounded one-hop traversal that surfaces related provisions.
package expand

import (
	"sort"

	"github.com/dharmasetu/setu/extract"
	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/retrieval"
)

// Direction of a relationship relative to the queried entity.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Relationship is one edge touching an entity, with the far node's
// attributes attached.
type Relationship struct {
	Subject   string  `json:"subject"`
	Predicate string  `json:"predicate"`
	Object    string  `json:"object"`
	Direction string  `json:"direction"`
	Other     kg.Node `json:"other_metadata"`
}

// Expander performs graph traversal over a loaded knowledge graph.
// It holds no per-request state; one Expander serves all requests.
type Expander struct {
	graph *kg.Graph
}

// New creates an Expander over g.
func New(g *kg.Graph) *Expander {
	return &Expander{graph: g}
}

// Expand extracts Section/Article seeds from every document, unions
// their graph neighbors, and returns the neighbors not already in the
// seed set, sorted. Seeds absent from the graph contribute nothing.
func (e *Expander) Expand(docs []retrieval.Document) []string {
	seeds := make(map[string]bool)
	for _, doc := range docs {
		for _, s := range extract.Seeds(doc.Text) {
			seeds[s] = true
		}
	}

	expanded := make(map[string]bool)
	for seed := range seeds {
		preds, succs := e.graph.Neighbors(seed)
		for _, n := range preds {
			expanded[n] = true
		}
		for _, n := range succs {
			expanded[n] = true
		}
	}

	var out []string
	for entity := range expanded {
		if !seeds[entity] {
			out = append(out, entity)
		}
	}
	sort.Strings(out)
	return out
}

// Relationships returns every edge touching the entity: outgoing edges
// as subject=entity, incoming edges as object=entity, each carrying the
// far node's attributes. An entity absent from the graph yields nil.
func (e *Expander) Relationships(entity string) []Relationship {
	if !e.graph.HasNode(entity) {
		return nil
	}

	var rels []Relationship
	for _, edge := range e.graph.OutEdges(entity) {
		other, _ := e.graph.Node(edge.Target)
		rels = append(rels, Relationship{
			Subject:   entity,
			Predicate: edge.Relation,
			Object:    edge.Target,
			Direction: DirectionOutgoing,
			Other:     other,
		})
	}
	for _, edge := range e.graph.InEdges(entity) {
		other, _ := e.graph.Node(edge.Source)
		rels = append(rels, Relationship{
			Subject:   edge.Source,
			Predicate: edge.Relation,
			Object:    entity,
			Direction: DirectionIncoming,
			Other:     other,
		})
	}
	return rels
}
