// Package regscope compares two versions of a financial regulation:
// it parses the documents, has an LLM summarize each version and extract
// the obligation graph, diffs the graphs, renders PlantUML diagrams of
// the result, and produces KOP/BRD working documents and an obligation
// register from the new version.
package regscope

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/regscope/regscope/confluence"
	"github.com/regscope/regscope/diagram"
	"github.com/regscope/regscope/docgen"
	"github.com/regscope/regscope/extract"
	"github.com/regscope/regscope/graph"
	"github.com/regscope/regscope/llm"
	"github.com/regscope/regscope/parser"
	"github.com/regscope/regscope/report"
	"github.com/regscope/regscope/store"
)

// Engine is the main entry point for the regulation comparison engine.
type Engine interface {
	// CreateUpload registers an old/new document pair under a regulation.
	// OldPath may be empty for a first-time submission.
	CreateUpload(ctx context.Context, req UploadRequest) (int64, error)

	// ProcessCycle runs the full pipeline for an upload: parse, summarize,
	// extract, diff, render, persist. Safe to re-run; artifacts are
	// regenerated in place.
	ProcessCycle(ctx context.Context, uploadID int64) (*CycleResult, error)

	// Summarize produces the structured summary of one document text.
	// priorContext carries the previous version's summary when available.
	Summarize(ctx context.Context, text, priorContext string) (string, error)

	// ExtractRelationships pulls the obligation graph out of a summary.
	// Returns the decoded payload plus the recovered raw JSON.
	ExtractRelationships(ctx context.Context, summary, priorContext string) (*graph.Payload, []byte, error)

	// GenerateKOP produces a Key Operating Procedure in markdown from the
	// new-version summary of an upload.
	GenerateKOP(ctx context.Context, uploadID int64) (string, error)

	// GenerateBRD produces a Business Requirement Document in markdown.
	GenerateBRD(ctx context.Context, uploadID int64) (string, error)

	// Diagram returns a stored PlantUML diagram for an upload.
	// Mode is "old", "new", or "diff".
	Diagram(ctx context.Context, uploadID int64, mode string) (string, error)

	// PublishDiagram publishes a stored diagram to Confluence.
	PublishDiagram(ctx context.Context, uploadID int64, mode string) (*confluence.Page, error)

	// PublishDocument generates a KOP or BRD and publishes it to
	// Confluence as storage HTML. Kind is "kop" or "brd".
	PublishDocument(ctx context.Context, uploadID int64, kind string) (*confluence.Page, error)

	// WriteRegister writes the obligation register workbook for an upload.
	WriteRegister(ctx context.Context, uploadID int64, path string) error

	// SimilarCycles finds prior uploads whose summaries are semantically
	// close to this upload's new-version summary.
	SimilarCycles(ctx context.Context, uploadID int64, k int) ([]store.SimilarSummary, error)

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// UploadRequest registers a document pair for comparison.
type UploadRequest struct {
	Regulation string `json:"regulation"`
	Title      string `json:"title"`
	OldPath    string `json:"old_path,omitempty"`
	NewPath    string `json:"new_path"`
}

// CycleResult reports the artifacts produced by one processing cycle.
type CycleResult struct {
	UploadID    int64         `json:"upload_id"`
	OldSummary  string        `json:"old_summary,omitempty"`
	NewSummary  string        `json:"new_summary"`
	Delta       *graph.Delta  `json:"delta,omitempty"`
	DiagramOld  string        `json:"diagram_old,omitempty"`
	DiagramNew  string        `json:"diagram_new"`
	DiagramDiff string        `json:"diagram_diff,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	store    *store.Store
	chatLLM  llm.Provider
	embedLLM llm.Provider
	parsers  *parser.Registry
	wiki     *confluence.Client
}

// New creates a regscope engine with the given configuration.
func New(cfg Config) (Engine, error) {
	dbPath := cfg.resolveDBPath()

	// Apply defaults for zero values
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 768
	}
	if cfg.DiagramScale == "" {
		cfg.DiagramScale = diagram.DefaultScale
	}

	s, err := store.New(dbPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	chatLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}

	embedLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	if len(cfg.Regulations) > 0 {
		if err := s.EnsureRegulations(context.Background(), cfg.Regulations); err != nil {
			s.Close()
			return nil, fmt.Errorf("seeding regulations: %w", err)
		}
	}

	var wiki *confluence.Client
	if cfg.Confluence != nil {
		wiki = confluence.NewClient(confluence.Config{
			BaseURL:      cfg.Confluence.BaseURL,
			SpaceKey:     cfg.Confluence.SpaceKey,
			ParentPageID: cfg.Confluence.ParentPageID,
			Username:     cfg.Confluence.Username,
			APIToken:     cfg.Confluence.APIToken,
		})
	}

	return &engine{
		cfg:      cfg,
		store:    s,
		chatLLM:  chatLLM,
		embedLLM: embedLLM,
		parsers:  parser.NewRegistry(),
		wiki:     wiki,
	}, nil
}

func (e *engine) Store() *store.Store { return e.store }

func (e *engine) Close() error { return e.store.Close() }

func (e *engine) CreateUpload(ctx context.Context, req UploadRequest) (int64, error) {
	if req.NewPath == "" || req.Title == "" {
		return 0, fmt.Errorf("%w: title and new document are required", ErrInvalidConfig)
	}

	reg, err := e.store.GetRegulationByName(ctx, req.Regulation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %q", ErrRegulationNotFound, req.Regulation)
		}
		return 0, err
	}

	return e.store.CreateUpload(ctx, store.Upload{
		RegulationID: reg.ID,
		Title:        req.Title,
		OldPath:      req.OldPath,
		NewPath:      req.NewPath,
	})
}

// ProcessCycle runs the full comparison pipeline for an upload.
func (e *engine) ProcessCycle(ctx context.Context, uploadID int64) (*CycleResult, error) {
	start := time.Now()

	u, err := e.getUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateUploadStatus(ctx, uploadID, store.StatusProcessing); err != nil {
		return nil, err
	}

	res, err := e.runCycle(ctx, u)
	if err != nil {
		if stErr := e.store.UpdateUploadStatus(ctx, uploadID, store.StatusFailed); stErr != nil {
			slog.Error("marking upload failed", "upload_id", uploadID, "error", stErr)
		}
		return nil, err
	}

	if err := e.store.UpdateUploadStatus(ctx, uploadID, store.StatusComplete); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	slog.Info("cycle complete",
		"upload_id", uploadID,
		"has_old", u.OldPath != "",
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func (e *engine) runCycle(ctx context.Context, u *store.Upload) (*CycleResult, error) {
	// Parse documents.
	newDoc, err := e.parsers.Parse(ctx, u.NewPath)
	if err != nil {
		return nil, fmt.Errorf("%w: new document: %v", ErrParsingFailed, err)
	}
	slog.Debug("parsed new document", "upload_id", u.ID, "pages", newDoc.Pages)

	var oldDoc *parser.ParseResult
	if u.OldPath != "" {
		oldDoc, err = e.parsers.Parse(ctx, u.OldPath)
		if err != nil {
			return nil, fmt.Errorf("%w: old document: %v", ErrParsingFailed, err)
		}
	}

	// Summaries. The old version is summarized first so it can serve as
	// context for the new version's summary.
	var oldSummary string
	if oldDoc != nil {
		oldSummary, err = e.Summarize(ctx, oldDoc.Text, "")
		if err != nil {
			return nil, err
		}
	}
	newSummary, err := e.Summarize(ctx, newDoc.Text, oldSummary)
	if err != nil {
		return nil, err
	}

	// Obligation graphs. The old payload JSON is fed back into the new
	// extraction so entity IDs stay stable across versions.
	var oldPayload *graph.Payload
	var oldRaw []byte
	if oldDoc != nil {
		oldPayload, oldRaw, err = e.ExtractRelationships(ctx, oldSummary, "")
		if err != nil {
			return nil, err
		}
	}

	extractCtx := ""
	if oldPayload != nil {
		extractCtx = oldSummary + "\n" + string(oldRaw)
	}
	newPayload, newRaw, err := e.ExtractRelationships(ctx, newSummary, extractCtx)
	if err != nil {
		return nil, err
	}

	// Canonical forms and diagrams.
	newCanon := graph.Canonicalize(newPayload)
	renderer := diagram.NewRenderer(diagram.Options{Title: u.Title, Scale: e.cfg.DiagramScale})

	diagramNew, err := renderer.Render(newCanon)
	if err != nil {
		return nil, err
	}

	result := &CycleResult{
		UploadID:   u.ID,
		OldSummary: oldSummary,
		NewSummary: newSummary,
		DiagramNew: diagramNew,
	}
	eg := store.EntityGraph{
		UploadID:   u.ID,
		NewPayload: string(newRaw),
		DiagramNew: diagramNew,
	}
	if b, err := json.Marshal(newCanon); err == nil {
		eg.NewCanonical = string(b)
	}

	if oldPayload != nil {
		oldCanon := graph.Canonicalize(oldPayload)

		diagramOld, err := renderer.Render(oldCanon)
		if err != nil {
			return nil, err
		}
		diagramDiff, err := renderer.RenderDiff(oldCanon, newCanon)
		if err != nil {
			return nil, err
		}

		result.DiagramOld = diagramOld
		result.DiagramDiff = diagramDiff
		result.Delta = graph.Compare(graph.Build(oldPayload), graph.Build(newPayload))

		eg.OldPayload = string(oldRaw)
		eg.DiagramOld = diagramOld
		eg.DiagramDiff = diagramDiff
		if b, err := json.Marshal(oldCanon); err == nil {
			eg.OldCanonical = string(b)
		}
	}

	// Persist artifacts.
	if oldSummary != "" {
		if _, err := e.store.SaveSummary(ctx, store.Summary{
			UploadID: u.ID, Version: store.VersionOld,
			Content: oldSummary, Model: e.cfg.Chat.Model,
		}); err != nil {
			return nil, err
		}
	}
	newSumID, err := e.store.SaveSummary(ctx, store.Summary{
		UploadID: u.ID, Version: store.VersionNew,
		Content: newSummary, Model: e.cfg.Chat.Model,
	})
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveEntityGraph(ctx, eg); err != nil {
		return nil, err
	}

	// Embed the new summary for prior-cycle similarity lookup. Failure
	// here does not fail the cycle; the embedding is an enrichment.
	if vecs, err := e.embedLLM.Embed(ctx, []string{newSummary}); err != nil {
		slog.Warn("embedding summary failed", "upload_id", u.ID, "error", err)
	} else if len(vecs) == 1 {
		if err := e.store.InsertSummaryEmbedding(ctx, newSumID, vecs[0]); err != nil {
			slog.Warn("storing summary embedding failed", "upload_id", u.ID, "error", err)
		}
	}

	return result, nil
}

func (e *engine) Summarize(ctx context.Context, text, priorContext string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, text)
	if priorContext != "" {
		prompt += fmt.Sprintf(summaryContextSuffix, priorContext)
	}

	resp, err := e.chat(ctx, prompt, "")
	if err != nil {
		return "", err
	}
	return resp, nil
}

func (e *engine) ExtractRelationships(ctx context.Context, summary, priorContext string) (*graph.Payload, []byte, error) {
	prompt := fmt.Sprintf(extractionPrompt, summary)
	if priorContext != "" {
		prompt += fmt.Sprintf(extractionContextSuffix, priorContext)
	}

	resp, err := e.chat(ctx, prompt, "json_object")
	if err != nil {
		return nil, nil, err
	}

	raw, err := extract.JSON(resp)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: extraction response", ErrNoStructuredData)
	}

	payload, err := graph.ParsePayload(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding obligation payload: %w", err)
	}
	return payload, raw, nil
}

func (e *engine) GenerateKOP(ctx context.Context, uploadID int64) (string, error) {
	return e.generateDoc(ctx, uploadID, kopPrompt)
}

func (e *engine) GenerateBRD(ctx context.Context, uploadID int64) (string, error) {
	return e.generateDoc(ctx, uploadID, brdPrompt)
}

func (e *engine) generateDoc(ctx context.Context, uploadID int64, prompt string) (string, error) {
	sum, err := e.store.GetSummary(ctx, uploadID, store.VersionNew)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: new summary for upload %d", ErrMissingArtifact, uploadID)
		}
		return "", err
	}
	return e.chat(ctx, fmt.Sprintf(prompt, sum.Content), "")
}

func (e *engine) Diagram(ctx context.Context, uploadID int64, mode string) (string, error) {
	eg, err := e.store.GetEntityGraph(ctx, uploadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: graph for upload %d", ErrMissingArtifact, uploadID)
		}
		return "", err
	}

	var uml string
	switch mode {
	case "old":
		uml = eg.DiagramOld
	case "new":
		uml = eg.DiagramNew
	case "diff":
		uml = eg.DiagramDiff
	default:
		return "", fmt.Errorf("unknown diagram mode: %s", mode)
	}
	if uml == "" {
		return "", fmt.Errorf("%w: %s diagram for upload %d", ErrMissingArtifact, mode, uploadID)
	}
	return uml, nil
}

func (e *engine) PublishDiagram(ctx context.Context, uploadID int64, mode string) (*confluence.Page, error) {
	if e.wiki == nil {
		return nil, fmt.Errorf("%w: confluence not configured", ErrPublishFailed)
	}

	u, err := e.getUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	uml, err := e.Diagram(ctx, uploadID, mode)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s (%s)", u.Title, mode)
	intro := fmt.Sprintf("<p>Obligation graph (%s) for %s.</p>", mode, u.Title)
	page, err := e.wiki.PublishDiagram(ctx, title, uml, intro)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return page, nil
}

func (e *engine) PublishDocument(ctx context.Context, uploadID int64, kind string) (*confluence.Page, error) {
	if e.wiki == nil {
		return nil, fmt.Errorf("%w: confluence not configured", ErrPublishFailed)
	}

	u, err := e.getUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	var md string
	var label string
	switch kind {
	case "kop":
		label = "KOP"
		md, err = e.GenerateKOP(ctx, uploadID)
	case "brd":
		label = "BRD"
		md, err = e.GenerateBRD(ctx, uploadID)
	default:
		return nil, fmt.Errorf("unknown document kind: %s", kind)
	}
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s %s", u.Title, label)
	page, err := e.wiki.PublishPage(ctx, title, docgen.ToStorageHTML(md))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return page, nil
}

func (e *engine) WriteRegister(ctx context.Context, uploadID int64, path string) error {
	eg, err := e.store.GetEntityGraph(ctx, uploadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: graph for upload %d", ErrMissingArtifact, uploadID)
		}
		return err
	}

	var newCanon graph.CanonicalGraph
	if err := json.Unmarshal([]byte(eg.NewCanonical), &newCanon); err != nil {
		return fmt.Errorf("decoding stored canonical graph: %w", err)
	}

	var diff *graph.EdgeDiff
	if eg.OldCanonical != "" {
		var oldCanon graph.CanonicalGraph
		if err := json.Unmarshal([]byte(eg.OldCanonical), &oldCanon); err != nil {
			return fmt.Errorf("decoding stored canonical graph: %w", err)
		}
		diff = graph.TupleDiff(&oldCanon, &newCanon)
	}

	return report.WriteRegister(path, &newCanon, diff)
}

func (e *engine) SimilarCycles(ctx context.Context, uploadID int64, k int) ([]store.SimilarSummary, error) {
	sum, err := e.store.GetSummary(ctx, uploadID, store.VersionNew)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: new summary for upload %d", ErrMissingArtifact, uploadID)
		}
		return nil, err
	}

	vecs, err := e.embedLLM.Embed(ctx, []string{sum.Content})
	if err != nil || len(vecs) != 1 {
		return nil, fmt.Errorf("%w: embedding summary: %v", ErrLLMRequestFailed, err)
	}

	return e.store.FindSimilarSummaries(ctx, vecs[0], uploadID, k)
}

// chat sends a single-message completion with the deterministic
// sampling settings the extraction prompts rely on.
func (e *engine) chat(ctx context.Context, prompt, responseFormat string) (string, error) {
	resp, err := e.chatLLM.Chat(ctx, llm.ChatRequest{
		Messages:       []llm.Message{{Role: "user", Content: prompt}},
		Temperature:    0.01,
		TopP:           0.1,
		MaxTokens:      4096,
		ResponseFormat: responseFormat,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}
	return resp.Content, nil
}

func (e *engine) getUpload(ctx context.Context, id int64) (*store.Upload, error) {
	u, err := e.store.GetUpload(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrUploadNotFound, id)
		}
		return nil, err
	}
	return u, nil
}
