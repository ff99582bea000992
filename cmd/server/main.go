package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	setu "github.com/dharmasetu/setu"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := setu.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
	}

	// Override from environment variables.
	if v := os.Getenv("SETU_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SETU_GRAPH_PATH"); v != "" {
		cfg.GraphPath = v
	}
	if v := os.Getenv("SETU_CHAT_PROVIDER"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := os.Getenv("SETU_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("SETU_CHAT_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("SETU_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("SETU_EMBED_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("SETU_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("SETU_EMBED_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("SETU_EMBED_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}

	// Fallback: check well-known provider env vars for API keys.
	applyProviderKey(&cfg.Chat)
	applyProviderKey(&cfg.Embedding)

	apiKey := os.Getenv("SETU_API_KEY")
	corsOrigins := os.Getenv("SETU_CORS_ORIGINS")

	engine, err := setu.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h := newHandler(engine)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("POST /ask", h.handleAsk)
	mux.HandleFunc("POST /draft", h.handleDraft)
	mux.HandleFunc("POST /audit", h.handleAudit)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // generation can be long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// applyProviderKey fills an empty API key from the provider's
// conventional environment variable.
func applyProviderKey(cfg *setu.LLMConfig) {
	if cfg.APIKey != "" {
		return
	}
	switch cfg.Provider {
	case "gemini":
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	case "openai":
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
