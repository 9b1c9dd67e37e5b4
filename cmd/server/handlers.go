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
	"strconv"
	"time"

	"github.com/bookgraph/bookgraph"
	"github.com/bookgraph/bookgraph/store"
)

type handler struct {
	engine bookgraph.Engine
}

func newHandler(e bookgraph.Engine) *handler {
	return &handler{engine: e}
}

// POST /analyze
// Accepts multipart file upload or JSON with a file path.
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	// Try multipart upload first.
	if err := r.ParseMultipartForm(50 << 20); err == nil { // 50MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)

			tmpPath := filepath.Join(os.TempDir(), safeName)
			dst, err := os.Create(tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			if _, err := io.Copy(dst, file); err != nil {
				dst.Close()
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			dst.Close()
			defer os.Remove(tmpPath)

			h.runAnalysis(ctx, w, tmpPath)
			return
		}
	}

	// Fall back to JSON body with a path.
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

	h.runAnalysis(ctx, w, absPath)
}

func (h *handler) runAnalysis(ctx context.Context, w http.ResponseWriter, path string) {
	res, err := h.engine.AnalyzeFile(ctx, path)
	if err != nil {
		switch {
		case errors.Is(err, bookgraph.ErrUnsupportedFormat):
			writeError(w, http.StatusUnsupportedMediaType, "unsupported file format")
		case errors.Is(err, bookgraph.ErrEmptyText):
			writeError(w, http.StatusUnprocessableEntity, "document contains no text")
		default:
			writeError(w, http.StatusInternalServerError, "analysis failed")
			slog.Error("analyze error", "path", path, "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analysis_id":      res.AnalysisID,
		"name":             res.Name,
		"stats":            res.Stats,
		"skipped_mentions": res.SkippedMentions,
		"elapsed_ms":       res.Elapsed.Milliseconds(),
	})
}

// GET /analyses
func (h *handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.engine.Analyses(r.Context())
	if err != nil {
		if errors.Is(err, bookgraph.ErrStoreDisabled) {
			writeError(w, http.StatusConflict, "persistence is disabled")
			return
		}
		writeError(w, http.StatusInternalServerError, "listing analyses failed")
		slog.Error("list analyses error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": analyses})
}

// GET /analyses/{id}
func (h *handler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := analysisID(w, r)
	if !ok {
		return
	}
	s := h.engine.Store()
	if s == nil {
		writeError(w, http.StatusConflict, "persistence is disabled")
		return
	}

	analysis, err := s.GetAnalysis(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "loading analysis failed")
		slog.Error("get analysis error", "id", id, "error", err)
		return
	}
	entities, err := s.Entities(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading entities failed")
		slog.Error("get entities error", "id", id, "error", err)
		return
	}
	relations, err := s.Relations(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading relations failed")
		slog.Error("get relations error", "id", id, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analysis":  analysis,
		"entities":  entities,
		"relations": relations,
	})
}

// DELETE /analyses/{id}
func (h *handler) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := analysisID(w, r)
	if !ok {
		return
	}
	if err := h.engine.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, bookgraph.ErrAnalysisNotFound):
			writeError(w, http.StatusNotFound, "analysis not found")
		case errors.Is(err, bookgraph.ErrStoreDisabled):
			writeError(w, http.StatusConflict, "persistence is disabled")
		default:
			writeError(w, http.StatusInternalServerError, "delete failed")
			slog.Error("delete analysis error", "id", id, "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func analysisID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
