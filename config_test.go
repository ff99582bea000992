package setu

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveDBPath(t *testing.T) {
	explicit := Config{DBPath: "/tmp/custom.db"}
	if got := explicit.resolveDBPath(); got != "/tmp/custom.db" {
		t.Errorf("explicit path = %q", got)
	}

	local := Config{DBName: "legal", StorageDir: "local"}
	if got := local.resolveDBPath(); got != filepath.Join(".", "legal.db") {
		t.Errorf("local path = %q", got)
	}

	home := Config{}
	got := home.resolveDBPath()
	if !strings.HasSuffix(got, filepath.Join(".setu", "setu.db")) {
		t.Errorf("default path = %q, want ~/.setu/setu.db", got)
	}
}

func TestResolveGraphPath(t *testing.T) {
	explicit := Config{GraphPath: "/data/graph.gob"}
	if got := explicit.resolveGraphPath(); got != "/data/graph.gob" {
		t.Errorf("explicit graph path = %q", got)
	}

	local := Config{StorageDir: "local"}
	if got := local.resolveGraphPath(); got != filepath.Join(".", "legal_graph.gob") {
		t.Errorf("local graph path = %q", got)
	}
}

func TestGraphJSONPath(t *testing.T) {
	if got := graphJSONPath("/data/legal_graph.gob"); got != "/data/legal_graph.json" {
		t.Errorf("json mirror = %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Chat.Provider == "" || cfg.Embedding.Provider == "" {
		t.Error("defaults must configure chat and embedding providers")
	}
	if cfg.EmbeddingDim != 768 {
		t.Errorf("embedding dim = %d, want 768", cfg.EmbeddingDim)
	}
}
