package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/store"
)

var (
	inspectLimit int
	inspectNode  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [query]",
	Short: "Search stored passages or look up a graph node",
	Long: `inspect runs a full-text search over the passage store, or with
--node looks up a single graph node and prints its edges.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		dbPath, graphPath, _ := cfg.Paths()

		if inspectNode != "" {
			return inspectGraphNode(graphPath, inspectNode)
		}
		if len(args) == 0 {
			return fmt.Errorf("either a search query or --node is required")
		}

		s, err := store.New(dbPath, cfg.EmbeddingDim)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer s.Close()

		results, err := s.FTSSearch(cmd.Context(), args[0], inspectLimit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No matches.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%d. [%s, p.%d] (score %.3f)\n   %s\n",
				i+1, r.SourceDoc, r.PageNumber, r.Score, snippet(r.Text))
		}
		return nil
	},
}

func inspectGraphNode(graphPath, label string) error {
	g, err := kg.Load(graphPath)
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}
	node, ok := g.Node(label)
	if !ok {
		return fmt.Errorf("node %q not found", label)
	}

	fmt.Printf("%s (%s, %s regime)\n", node.Label, node.NodeType, node.Regime)
	for _, e := range g.OutEdges(label) {
		fmt.Printf("  -> %s  [%s]\n", e.Target, e.Relation)
	}
	for _, e := range g.InEdges(label) {
		fmt.Printf("  <- %s  [%s]\n", e.Source, e.Relation)
	}
	return nil
}

// snippet keeps search output to a single readable line per hit.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge graph and corpus statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		dbPath, graphPath, _ := cfg.Paths()

		g := kg.LoadOrEmpty(graphPath)
		fmt.Printf("Graph: %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())
		fmt.Printf("  Legacy (IPC):  %d\n", len(g.NodesByRegime(kg.RegimeLegacy)))
		fmt.Printf("  Current (BNS): %d\n", len(g.NodesByRegime(kg.RegimeCurrent)))
		fmt.Printf("  Unknown:       %d\n", len(g.NodesByRegime(kg.RegimeUnknown)))

		s, err := store.New(dbPath, cfg.EmbeddingDim)
		if err != nil {
			// The graph can exist without a corpus; report what we have.
			fmt.Printf("Corpus: unavailable (%v)\n", err)
			return nil
		}
		defer s.Close()

		count, err := s.CountPassages(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting passages: %w", err)
		}
		fmt.Printf("Corpus: %d passages in %s\n", count, dbPath)
		return nil
	},
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "k", 5, "maximum number of search results")
	inspectCmd.Flags().StringVar(&inspectNode, "node", "", "graph node label to look up")
}
