package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/regscope/regscope"
)

type handler struct {
	engine    regscope.Engine
	uploadDir string
}

func newHandler(e regscope.Engine, uploadDir string) *handler {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &handler{engine: e, uploadDir: uploadDir}
}

// POST /uploads
// Multipart form: regulation, title, new (file), old (optional file).
// The comparison cycle runs synchronously; responses carry the full
// cycle result.
func (h *handler) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(100 << 20); err != nil { // 100MB max
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}

	regulation := r.FormValue("regulation")
	title := r.FormValue("title")
	if regulation == "" || title == "" {
		writeError(w, http.StatusBadRequest, "regulation and title are required")
		return
	}

	newPath, err := h.saveFormFile(r, "new")
	if err != nil {
		writeError(w, http.StatusBadRequest, "new document file is required")
		return
	}

	oldPath, err := h.saveFormFile(r, "old")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		writeError(w, http.StatusBadRequest, "invalid old document file")
		return
	}

	uploadID, err := h.engine.CreateUpload(ctx, regscope.UploadRequest{
		Regulation: regulation,
		Title:      title,
		OldPath:    oldPath,
		NewPath:    newPath,
	})
	if err != nil {
		writeEngineError(w, err)
		slog.Error("create upload error", "error", err)
		return
	}

	result, err := h.engine.ProcessCycle(ctx, uploadID)
	if err != nil {
		writeEngineError(w, err)
		slog.Error("cycle error", "upload_id", uploadID, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// saveFormFile persists one multipart file into the upload directory.
func (h *handler) saveFormFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return h.saveFile(file, header)
}

func (h *handler) saveFile(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", err
	}

	// Sanitise filename to prevent path traversal.
	safeName := filepath.Base(header.Filename)
	path := filepath.Join(h.uploadDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), safeName))

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// GET /uploads
func (h *handler) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.engine.Store().ListUploads(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list uploads")
		slog.Error("list uploads error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"uploads": uploads})
}

// GET /uploads/{id}
func (h *handler) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	u, err := h.engine.Store().GetUpload(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "upload not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DELETE /uploads/{id}
func (h *handler) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.engine.Store().DeleteUpload(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		slog.Error("delete error", "upload_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /uploads/{id}/regenerate
// Re-runs the comparison cycle, regenerating all artifacts.
func (h *handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	result, err := h.engine.ProcessCycle(ctx, id)
	if err != nil {
		writeEngineError(w, err)
		slog.Error("cycle error", "upload_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /uploads/{id}/summary/{version}
func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	version := r.PathValue("version")
	if version != "old" && version != "new" {
		writeError(w, http.StatusBadRequest, "version must be old or new")
		return
	}

	sum, err := h.engine.Store().GetSummary(r.Context(), id, version)
	if err != nil {
		writeError(w, http.StatusNotFound, "summary not found")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /uploads/{id}/graph/{version}
// Returns the extracted payload and canonical graph JSON for one side.
func (h *handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	version := r.PathValue("version")
	if version != "old" && version != "new" {
		writeError(w, http.StatusBadRequest, "version must be old or new")
		return
	}

	eg, err := h.engine.Store().GetEntityGraph(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "graph not found")
		return
	}

	payload, canonical := eg.NewPayload, eg.NewCanonical
	if version == "old" {
		payload, canonical = eg.OldPayload, eg.OldCanonical
	}
	if payload == "" {
		writeError(w, http.StatusNotFound, "graph not found for version")
		return
	}
	if canonical == "" {
		canonical = "null"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload_id": id,
		"version":   version,
		"payload":   json.RawMessage(payload),
		"canonical": json.RawMessage(canonical),
	})
}

// GET /uploads/{id}/diagram?mode=new|old|diff
// Returns the PlantUML source as plain text.
func (h *handler) handleDiagram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "new"
	}

	uml, err := h.engine.Diagram(r.Context(), id, mode)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, uml)
}

// GET /uploads/{id}/kop
func (h *handler) handleKOP(w http.ResponseWriter, r *http.Request) {
	h.handleGeneratedDoc(w, r, h.engine.GenerateKOP)
}

// GET /uploads/{id}/brd
func (h *handler) handleBRD(w http.ResponseWriter, r *http.Request) {
	h.handleGeneratedDoc(w, r, h.engine.GenerateBRD)
}

func (h *handler) handleGeneratedDoc(w http.ResponseWriter, r *http.Request, generate func(context.Context, int64) (string, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	md, err := generate(ctx, id)
	if err != nil {
		writeEngineError(w, err)
		slog.Error("document generation error", "upload_id", id, "error", err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, md)
}

// GET /uploads/{id}/register
// Streams the obligation register workbook.
func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("regscope_register_%d.xlsx", id))
	if err := h.engine.WriteRegister(r.Context(), id, path); err != nil {
		writeEngineError(w, err)
		slog.Error("register error", "upload_id", id, "error", err)
		return
	}
	defer os.Remove(path)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="register_%d.xlsx"`, id))
	http.ServeFile(w, r, path)
}

// GET /uploads/{id}/similar?k=5
func (h *handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	k := 5
	if v := r.URL.Query().Get("k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			k = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	results, err := h.engine.SimilarCycles(ctx, id, k)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"similar": results})
}

// POST /uploads/{id}/publish
// Body: {"target": "diagram"|"kop"|"brd", "mode": "new"|"old"|"diff"}.
func (h *handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Target string `json:"target"`
		Mode   string `json:"mode,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var page interface{}
	var err error
	switch req.Target {
	case "diagram":
		mode := req.Mode
		if mode == "" {
			mode = "diff"
		}
		page, err = h.engine.PublishDiagram(ctx, id, mode)
	case "kop", "brd":
		page, err = h.engine.PublishDocument(ctx, id, req.Target)
	default:
		writeError(w, http.StatusBadRequest, "target must be diagram, kop, or brd")
		return
	}
	if err != nil {
		writeEngineError(w, err)
		slog.Error("publish error", "upload_id", id, "target", req.Target, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GET /regulations
func (h *handler) handleListRegulations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.engine.Store().ListRegulations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list regulations")
		slog.Error("list regulations error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"regulations": regs})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload id")
		return 0, false
	}
	return id, true
}

// writeEngineError maps engine sentinel errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, regscope.ErrUploadNotFound),
		errors.Is(err, regscope.ErrRegulationNotFound),
		errors.Is(err, regscope.ErrMissingArtifact):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, regscope.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, regscope.ErrParsingFailed),
		errors.Is(err, regscope.ErrNoStructuredData),
		errors.Is(err, regscope.ErrUnsupportedFormat):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
