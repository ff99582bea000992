package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dharmasetu/setu/bridge"
	"github.com/dharmasetu/setu/kg"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Link equivalent IPC and BNS provisions",
	Long: `bridge classifies every graph node as Legacy (IPC) or Current (BNS),
asks the configured LLM to pair legacy provisions with their current
equivalents, and adds bidirectional EQUIVALENT_TO edges for accepted
pairs. Re-running is safe; existing links are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		_, graphPath, graphJSON := cfg.Paths()

		// Bridging extends an existing graph; a missing snapshot is an
		// error here, not a degradation.
		g, err := kg.Load(graphPath)
		if err != nil {
			return fmt.Errorf("loading graph (run 'graphctl build' first): %w", err)
		}

		chatLLM, err := chatProvider(cfg)
		if err != nil {
			return fmt.Errorf("creating chat provider: %w", err)
		}

		stats, err := bridge.New(chatLLM).Link(cmd.Context(), g)
		if err != nil {
			return fmt.Errorf("linking: %w", err)
		}

		if err := g.SaveAll(graphPath, graphJSON); err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Bridge: %d legacy, %d current, %d new links (%d already present)\n",
			stats.LegacyNodes, stats.CurrentNodes, stats.NewEdges, stats.ExistingPairs)
		return nil
	},
}
