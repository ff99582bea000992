package setu

import (
	"os"
	"path/filepath"
)

// Config holds all configuration for the Setu engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.setu/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "setu".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where data files are created when explicit
	// paths are not set. Options: "home" (default) uses ~/.setu/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// GraphPath is the knowledge graph snapshot file. If empty,
	// defaults to legal_graph.gob inside the storage directory. A JSON
	// mirror is written alongside with a .json extension.
	GraphPath string `json:"graph_path" yaml:"graph_path"`

	// LLM providers. Translation is optional; it defaults to Chat.
	Chat        LLMConfig `json:"chat" yaml:"chat"`
	Embedding   LLMConfig `json:"embedding" yaml:"embedding"`
	Translation LLMConfig `json:"translation" yaml:"translation"`

	// EmbeddingDim must match the embedding model's output dimension.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // gemini, openai, ollama, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with sensible defaults. Data is stored
// in ~/.setu/ by default.
func DefaultConfig() Config {
	return Config{
		DBName:     "setu",
		StorageDir: "home",
		Chat: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash-exp",
		},
		Embedding: LLMConfig{
			Provider: "gemini",
			Model:    "text-embedding-004",
		},
		EmbeddingDim: 768,
	}
}

// Paths resolves the data file locations: the SQLite database, the
// graph snapshot, and its JSON inspection mirror.
func (c *Config) Paths() (dbPath, graphPath, graphJSON string) {
	snap := c.resolveGraphPath()
	return c.resolveDBPath(), snap, graphJSONPath(snap)
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "setu"
	}
	return filepath.Join(c.storageDir(), name+".db")
}

// resolveGraphPath computes the graph snapshot path.
func (c *Config) resolveGraphPath() string {
	if c.GraphPath != "" {
		return c.GraphPath
	}
	return filepath.Join(c.storageDir(), "legal_graph.gob")
}

// graphJSONPath is the inspection mirror written next to the snapshot.
func graphJSONPath(snapshotPath string) string {
	ext := filepath.Ext(snapshotPath)
	return snapshotPath[:len(snapshotPath)-len(ext)] + ".json"
}

func (c *Config) storageDir() string {
	switch c.StorageDir {
	case "local", "cwd":
		return "."
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		return filepath.Join(home, ".setu")
	}
}
