// Package viz assembles the deduplicated node/edge/stat structure the
// UI renders. Entities already in context become primary nodes; their
// graph neighbors come in as related nodes, capped per entity so dense
// provisions do not explode the visualization.
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dharmasetu/setu/expand"
)

// Node types.
const (
	TypeCitedEntity   = "cited_entity"
	TypeEntity        = "entity"
	TypeRelatedEntity = "related_entity"
)

// maxEdgesPerEntity caps the relationships rendered per entity.
const maxEdgesPerEntity = 5

// maxTooltipRelationships caps the relationships sampled into a tooltip.
const maxTooltipRelationships = 3

// Node is one visualization node.
type Node struct {
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	Type       string       `json:"type"`
	CitationID string       `json:"citation_uuid,omitempty"`
	Metadata   NodeMetadata `json:"metadata"`
}

// NodeMetadata carries UI hints for a node.
type NodeMetadata struct {
	Tooltip           string `json:"tooltip"`
	RelationshipCount int    `json:"relationship_count,omitempty"`
	IsCited           bool   `json:"is_cited"`
}

// Edge is one visualization edge.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
	Label    string `json:"label"`
}

// Stats summarizes the emitted graph.
type Stats struct {
	TotalNodes        int      `json:"total_nodes"`
	TotalEdges        int      `json:"total_edges"`
	CitedNodes        int      `json:"cited_nodes"`
	RelationshipTypes []string `json:"relationship_types"`
}

// Data is the full visualization payload.
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

// Builder assembles visualization data from graph relationships.
type Builder struct {
	expander *expand.Expander
}

// NewBuilder creates a Builder over the given expander.
func NewBuilder(e *expand.Expander) *Builder {
	return &Builder{expander: e}
}

// Build emits one node per distinct entity plus related nodes reachable
// through their capped relationship lists. citationIDs maps entity
// labels to the citation each was extracted from; entities with a
// citation render as cited. Entities must arrive in a deterministic
// order; the seen-set guarantees no duplicate node IDs regardless of
// how many sources mention an entity.
func (b *Builder) Build(entities []string, citationIDs map[string]string) Data {
	var nodes []Node
	var edges []Edge
	seen := make(map[string]bool)

	for _, entity := range entities {
		if seen[entity] {
			continue
		}

		citationID := citationIDs[entity]
		rels := b.expander.Relationships(entity)

		nodeType := TypeEntity
		if citationID != "" {
			nodeType = TypeCitedEntity
		}
		nodes = append(nodes, Node{
			ID:         entity,
			Label:      entity,
			Type:       nodeType,
			CitationID: citationID,
			Metadata: NodeMetadata{
				Tooltip:           tooltip(entity, rels),
				RelationshipCount: len(rels),
				IsCited:           citationID != "",
			},
		})
		seen[entity] = true

		// Fan-out cap: at most 5 edges per entity.
		capped := rels
		if len(capped) > maxEdgesPerEntity {
			capped = capped[:maxEdgesPerEntity]
		}
		for _, rel := range capped {
			edges = append(edges, Edge{
				Source:   rel.Subject,
				Target:   rel.Object,
				Relation: rel.Predicate,
				Label:    rel.Predicate,
			})

			other := rel.Object
			if rel.Direction == expand.DirectionIncoming {
				other = rel.Subject
			}
			if !seen[other] {
				nodes = append(nodes, Node{
					ID:    other,
					Label: other,
					Type:  TypeRelatedEntity,
					Metadata: NodeMetadata{
						Tooltip: fmt.Sprintf("**%s**\nRelated to %s", other, entity),
						IsCited: false,
					},
				})
				seen[other] = true
			}
		}
	}

	cited := 0
	relTypes := make(map[string]bool)
	for _, n := range nodes {
		if n.CitationID != "" {
			cited++
		}
	}
	for _, e := range edges {
		relTypes[e.Relation] = true
	}
	types := make([]string, 0, len(relTypes))
	for t := range relTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	return Data{
		Nodes: nodes,
		Edges: edges,
		Stats: Stats{
			TotalNodes:        len(nodes),
			TotalEdges:        len(edges),
			CitedNodes:        cited,
			RelationshipTypes: types,
		},
	}
}

// tooltip renders an entity's hover text: its name, connection count,
// and up to 3 relationships with directional arrows.
func tooltip(entity string, rels []expand.Relationship) string {
	lines := []string{fmt.Sprintf("**%s**", entity)}
	if len(rels) == 0 {
		lines = append(lines, "No direct connections found in graph.")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, fmt.Sprintf("Connections: %d", len(rels)))
	sampled := rels
	if len(sampled) > maxTooltipRelationships {
		sampled = sampled[:maxTooltipRelationships]
	}
	for _, rel := range sampled {
		arrow, other := "→", rel.Object
		if rel.Direction == expand.DirectionIncoming {
			arrow, other = "←", rel.Subject
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", arrow, rel.Predicate, other))
	}
	return strings.Join(lines, "\n")
}
