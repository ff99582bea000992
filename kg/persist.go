package kg

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// snapshot is the gob-encoded on-disk form of a graph.
type snapshot struct {
	Nodes []Node
	Edges []Edge
}

// nodeLink is the human-inspectable JSON form: a node-link document with
// explicit node and edge records, mirroring the binary snapshot.
type nodeLink struct {
	Directed bool   `json:"directed"`
	Nodes    []Node `json:"nodes"`
	Links    []Edge `json:"links"`
}

// Save writes the binary snapshot to path, creating parent directories.
func (g *Graph) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("kg: creating snapshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("kg: creating snapshot: %w", err)
	}
	defer f.Close()

	snap := snapshot{Nodes: g.nodes, Edges: g.AllEdges()}
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		return fmt.Errorf("kg: encoding snapshot: %w", err)
	}
	return nil
}

// SaveJSON writes the node-link JSON document to path.
func (g *Graph) SaveJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("kg: creating json dir: %w", err)
	}
	doc := nodeLink{Directed: true, Nodes: g.nodes, Links: g.AllEdges()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("kg: encoding node-link json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("kg: writing node-link json: %w", err)
	}
	return nil
}

// SaveAll writes both representations so they stay in sync after a mutation.
// jsonPath may be empty to skip the inspectable copy.
func (g *Graph) SaveAll(snapshotPath, jsonPath string) error {
	if err := g.Save(snapshotPath); err != nil {
		return err
	}
	if jsonPath != "" {
		if err := g.SaveJSON(jsonPath); err != nil {
			return err
		}
	}
	return nil
}

// fromSnapshot rebuilds a graph from decoded nodes and edges. Node regimes
// are taken from the snapshot rather than recomputed, so a bridge-linking
// pass that reclassified labels survives a reload.
func fromSnapshot(nodes []Node, edges []Edge) *Graph {
	g := New()
	for _, n := range nodes {
		idx := g.AddNode(n.Label, n.NodeType)
		g.nodes[idx].Regime = n.Regime
	}
	for _, e := range edges {
		g.AddEdge(e.Source, e.Target, e.Relation, e.DisplayLabel)
	}
	return g
}

// Load reads a binary snapshot. A missing file returns ErrUnavailable;
// offline passes that require a populated graph treat that as fatal.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("kg: opening snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("kg: decoding snapshot %s: %w", path, err)
	}
	return fromSnapshot(snap.Nodes, snap.Edges), nil
}

// LoadJSON reads a node-link JSON document.
func LoadJSON(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("kg: reading node-link json: %w", err)
	}
	var doc nodeLink
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("kg: decoding node-link json %s: %w", path, err)
	}
	return fromSnapshot(doc.Nodes, doc.Links), nil
}

// LoadOrEmpty loads a snapshot for serving. A missing or unreadable file
// degrades to an empty graph (expansion and audit matching become no-ops)
// with a warning rather than failing the process.
func LoadOrEmpty(path string) *Graph {
	g, err := Load(path)
	if err != nil {
		slog.Warn("kg: snapshot not loaded, serving with empty graph", "path", path, "error", err)
		return New()
	}
	slog.Info("kg: graph loaded", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g
}
