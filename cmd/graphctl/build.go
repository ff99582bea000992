package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dharmasetu/setu/ingest"
	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/store"
)

var (
	buildElementsPath string
	buildDocs         []string
	buildSkipCorpus   bool
	buildSkipGraph    bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Ingest documents and construct the knowledge graph",
	Long: `build reads parsed legal documents, embeds their passages into the
store, extracts legal triples with the configured LLM, and writes the
knowledge graph snapshot plus its JSON mirror.

Input is either a parsed-elements JSON file (--elements) or one or
more source documents parsed directly (--doc).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		dbPath, graphPath, graphJSON := cfg.Paths()

		var elements []ingest.Element
		switch {
		case buildElementsPath != "":
			loaded, err := ingest.LoadElements(buildElementsPath)
			if err != nil {
				return err
			}
			elements = loaded
		case len(buildDocs) > 0:
			for _, doc := range buildDocs {
				loaded, err := ingest.ElementsFromFile(doc)
				if err != nil {
					return fmt.Errorf("parsing %s: %w", doc, err)
				}
				elements = append(elements, loaded...)
			}
		default:
			return fmt.Errorf("either --elements or --doc is required")
		}
		fmt.Fprintf(os.Stderr, "Loaded %d elements\n", len(elements))

		ctx := cmd.Context()

		if !buildSkipCorpus {
			embedLLM, err := embedProvider(cfg)
			if err != nil {
				return fmt.Errorf("creating embedding provider: %w", err)
			}
			s, err := store.New(dbPath, cfg.EmbeddingDim)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer s.Close()

			stats, err := ingest.NewIngestor(s, embedLLM).IngestElements(ctx, elements)
			if err != nil {
				return fmt.Errorf("ingesting corpus: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Corpus: %d inserted, %d duplicates, %d skipped\n",
				stats.Inserted, stats.Duplicates, stats.Skipped)
		}

		if !buildSkipGraph {
			chatLLM, err := chatProvider(cfg)
			if err != nil {
				return fmt.Errorf("creating chat provider: %w", err)
			}

			// Extend an existing graph when present so build runs are
			// incremental.
			g := kg.LoadOrEmpty(graphPath)
			stats, err := ingest.NewGraphBuilder(chatLLM).BuildInto(ctx, g, elements)
			if err != nil {
				return fmt.Errorf("building graph: %w", err)
			}
			if err := g.SaveAll(graphPath, graphJSON); err != nil {
				return fmt.Errorf("saving graph: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Graph: %d triples, %d nodes, %d edges -> %s\n",
				stats.Triples, stats.Nodes, stats.Edges, graphPath)
		}

		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildElementsPath, "elements", "", "parsed-elements JSON file")
	buildCmd.Flags().StringArrayVar(&buildDocs, "doc", nil, "source document to parse and ingest (repeatable)")
	buildCmd.Flags().BoolVar(&buildSkipCorpus, "skip-corpus", false, "skip passage embedding and storage")
	buildCmd.Flags().BoolVar(&buildSkipGraph, "skip-graph", false, "skip triple extraction and graph construction")
}
