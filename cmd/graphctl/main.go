// graphctl is the offline tooling for the Setu engine: corpus
// ingestion, knowledge graph construction, bridge linking, and
// inspection of the stored data.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	setu "github.com/dharmasetu/setu"
	"github.com/dharmasetu/setu/llm"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "graphctl",
	Short: "Build and inspect the Setu legal knowledge graph",
	Long: `graphctl manages the offline data behind the Setu legal research
engine: it ingests parsed statute documents into the passage store,
extracts (subject, predicate, object) triples into the knowledge
graph, links equivalent IPC and BNS provisions across regimes, and
inspects the results.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.setu/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(evalCmd)
}

// initConfig reads in the config file and SETU_* environment variables.
func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".setu"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SETU")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file, and environment keys.
func loadConfig() setu.Config {
	cfg := setu.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("config unmarshal failed, using defaults", "error", err)
	}

	if v := viper.GetString("db_path"); v != "" {
		cfg.DBPath = v
	}
	if v := viper.GetString("graph_path"); v != "" {
		cfg.GraphPath = v
	}
	if cfg.Chat.APIKey == "" && cfg.Chat.Provider == "gemini" {
		cfg.Chat.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == "gemini" {
		cfg.Embedding.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	return cfg
}

func chatProvider(cfg setu.Config) (llm.Provider, error) {
	return llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	})
}

func embedProvider(cfg setu.Config) (llm.Provider, error) {
	return llm.NewProvider(llm.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		EmbedModel: cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
	})
}
