package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	setu "github.com/dharmasetu/setu"
)

type handler struct {
	engine setu.Engine
}

func newHandler(e setu.Engine) *handler {
	return &handler{engine: e}
}

// GET /
func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "Dharma-Setu Legal RAG API",
		"status":  "operational",
		"endpoints": map[string]string{
			"ask":    "/ask - POST - Submit legal queries",
			"draft":  "/draft - POST - Draft a written submission from facts",
			"audit":  "/audit - POST - Audit a document for outdated citations",
			"health": "/health - GET - Health check",
		},
	})
}

// POST /ask
func (h *handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Query            string `json:"query"`
		Language         string `json:"language,omitempty"`
		InputLanguage    string `json:"input_language,omitempty"`
		IncludeGraphData *bool  `json:"include_graph_data,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	// Graph data is included unless explicitly disabled.
	includeGraph := req.IncludeGraphData == nil || *req.IncludeGraphData

	resp, err := h.engine.Ask(ctx, setu.AskRequest{
		Query:            req.Query,
		Language:         req.Language,
		InputLanguage:    req.InputLanguage,
		IncludeGraphData: includeGraph,
	})
	if err != nil {
		if errors.Is(err, setu.ErrQueryTooShort) {
			writeError(w, http.StatusBadRequest, "query too short")
			return
		}
		writeError(w, http.StatusInternalServerError, "query failed")
		slog.Error("ask error", "query", req.Query, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /draft
func (h *handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var req struct {
		Facts         string `json:"facts"`
		Language      string `json:"language,omitempty"`
		InputLanguage string `json:"input_language,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Facts == "" {
		writeError(w, http.StatusBadRequest, "facts are required")
		return
	}

	resp, err := h.engine.Draft(ctx, setu.DraftRequest{
		Facts:         req.Facts,
		Language:      req.Language,
		InputLanguage: req.InputLanguage,
	})
	if err != nil {
		if errors.Is(err, setu.ErrQueryTooShort) {
			writeError(w, http.StatusBadRequest, "facts too short")
			return
		}
		writeError(w, http.StatusInternalServerError, "drafting failed")
		slog.Error("draft error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /audit
// Accepts multipart file upload or JSON with file path.
func (h *handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	// Try multipart upload first.
	if err := r.ParseMultipartForm(50 << 20); err == nil { // 50MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal. The client
			// name is only reported back; the file lands at a unique
			// temp path so concurrent uploads never share one. The
			// extension is kept because text extraction dispatches on it.
			safeName := filepath.Base(header.Filename)

			dst, err := os.CreateTemp("", "audit-*"+filepath.Ext(safeName))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			tmpPath := dst.Name()
			defer os.Remove(tmpPath)
			if _, err := io.Copy(dst, file); err != nil {
				dst.Close()
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			dst.Close()

			report, err := h.engine.AuditFile(tmpPath)
			if err != nil {
				writeError(w, http.StatusBadRequest, "could not extract text from document")
				slog.Error("audit error", "filename", safeName, "error", err)
				return
			}
			report.Filename = safeName
			writeJSON(w, http.StatusOK, report)
			return
		}
	}

	// Fall back to JSON body with a server-local path.
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path'")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing file")
		return
	}

	report, err := h.engine.AuditFile(absPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not extract text from document")
		slog.Error("audit error", "path", absPath, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Health())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
