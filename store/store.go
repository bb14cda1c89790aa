// Package store persists regulation comparison runs in SQLite: the
// regulation registry, uploaded document pairs, per-version summaries,
// extracted graph payloads, rendered diagrams, and summary embeddings
// for prior-cycle similarity lookup.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Version labels for the two sides of a comparison.
const (
	VersionOld = "old"
	VersionNew = "new"
)

// Upload statuses, in lifecycle order.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Regulation is a row in the regulations table.
type Regulation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Upload is one old/new document pair submitted for comparison. OldPath
// is empty for first-time submissions with no prior version.
type Upload struct {
	ID           int64  `json:"id"`
	RegulationID int64  `json:"regulation_id"`
	Title        string `json:"title"`
	OldPath      string `json:"old_path,omitempty"`
	NewPath      string `json:"new_path"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// Summary is an LLM summary of one document version.
type Summary struct {
	ID        int64  `json:"id"`
	UploadID  int64  `json:"upload_id"`
	Version   string `json:"version"` // "old" or "new"
	Content   string `json:"content"`
	Model     string `json:"model,omitempty"`
	CreatedAt string `json:"created_at"`
}

// EntityGraph holds the extracted payloads and rendered diagrams for an
// upload. Old-side fields are empty when the upload had no old document.
type EntityGraph struct {
	UploadID     int64  `json:"upload_id"`
	OldPayload   string `json:"old_payload,omitempty"`
	NewPayload   string `json:"new_payload"`
	OldCanonical string `json:"old_canonical,omitempty"`
	NewCanonical string `json:"new_canonical"`
	DiagramOld   string `json:"diagram_old,omitempty"`
	DiagramNew   string `json:"diagram_new"`
	DiagramDiff  string `json:"diagram_diff,omitempty"`
	UpdatedAt    string `json:"updated_at"`
}

// SimilarSummary is a prior-cycle summary returned by vector search.
type SimilarSummary struct {
	SummaryID int64   `json:"summary_id"`
	UploadID  int64   `json:"upload_id"`
	Content   string  `json:"content"`
	Distance  float64 `json:"distance"`
}

// Store wraps the SQLite database for all regscope persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the sqlite-vec virtual table.
func New(dbPath string, embeddingDim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, embeddingDim: embeddingDim}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- Regulation operations ---

// EnsureRegulations inserts any missing regulation names. Existing rows
// are left untouched, so seeding is safe to repeat on every startup.
func (s *Store) EnsureRegulations(ctx context.Context, names []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR IGNORE INTO regulations (name) VALUES (?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, name := range names {
			if _, err := stmt.ExecContext(ctx, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRegulations returns all regulations ordered by name.
func (s *Store) ListRegulations(ctx context.Context) ([]Regulation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM regulations ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []Regulation
	for rows.Next() {
		var r Regulation
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

// GetRegulationByName looks up a regulation by exact name.
func (s *Store) GetRegulationByName(ctx context.Context, name string) (*Regulation, error) {
	r := &Regulation{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM regulations WHERE name = ?",
		name).Scan(&r.ID, &r.Name, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// --- Upload operations ---

// CreateUpload records a new document pair and returns its ID.
func (s *Store) CreateUpload(ctx context.Context, u Upload) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (regulation_id, title, old_path, new_path, status)
		VALUES (?, ?, ?, ?, ?)
	`, u.RegulationID, u.Title, nullIfEmpty(u.OldPath), u.NewPath, orDefault(u.Status, StatusPending))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUpload retrieves an upload by ID.
func (s *Store) GetUpload(ctx context.Context, id int64) (*Upload, error) {
	u := &Upload{}
	var oldPath sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, regulation_id, title, old_path, new_path, status, created_at, updated_at
		FROM uploads WHERE id = ?
	`, id).Scan(&u.ID, &u.RegulationID, &u.Title, &oldPath, &u.NewPath,
		&u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.OldPath = oldPath.String
	return u, nil
}

// ListUploads returns all uploads, newest first.
func (s *Store) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, regulation_id, title, old_path, new_path, status, created_at, updated_at
		FROM uploads ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		var oldPath sql.NullString
		if err := rows.Scan(&u.ID, &u.RegulationID, &u.Title, &oldPath, &u.NewPath,
			&u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.OldPath = oldPath.String
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// UpdateUploadStatus updates just the status field.
func (s *Store) UpdateUploadStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE uploads SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	return err
}

// DeleteUpload removes an upload and cascades to its summaries, graphs,
// and embeddings.
func (s *Store) DeleteUpload(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_summaries WHERE summary_id IN (
				SELECT id FROM summaries WHERE upload_id = ?
			)`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM summaries WHERE upload_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM entity_graphs WHERE upload_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM uploads WHERE id = ?", id)
		return err
	})
}

// --- Summary operations ---

// SaveSummary upserts the summary for one version of an upload and
// returns the summary ID. Regenerating a cycle overwrites the old row.
func (s *Store) SaveSummary(ctx context.Context, sum Summary) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (upload_id, version, content, model)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(upload_id, version) DO UPDATE SET
			content = excluded.content,
			model = excluded.model,
			created_at = CURRENT_TIMESTAMP
	`, sum.UploadID, sum.Version, sum.Content, nullIfEmpty(sum.Model))
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM summaries WHERE upload_id = ? AND version = ?",
		sum.UploadID, sum.Version).Scan(&id)
	return id, err
}

// GetSummary retrieves the summary for one version of an upload.
func (s *Store) GetSummary(ctx context.Context, uploadID int64, version string) (*Summary, error) {
	sum := &Summary{}
	var model sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, upload_id, version, content, model, created_at
		FROM summaries WHERE upload_id = ? AND version = ?
	`, uploadID, version).Scan(&sum.ID, &sum.UploadID, &sum.Version,
		&sum.Content, &model, &sum.CreatedAt)
	if err != nil {
		return nil, err
	}
	sum.Model = model.String
	return sum, nil
}

// --- Entity graph operations ---

// SaveEntityGraph upserts the full artifact set for an upload.
func (s *Store) SaveEntityGraph(ctx context.Context, g EntityGraph) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_graphs (upload_id, old_payload, new_payload,
			old_canonical, new_canonical, diagram_old, diagram_new, diagram_diff)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(upload_id) DO UPDATE SET
			old_payload = excluded.old_payload,
			new_payload = excluded.new_payload,
			old_canonical = excluded.old_canonical,
			new_canonical = excluded.new_canonical,
			diagram_old = excluded.diagram_old,
			diagram_new = excluded.diagram_new,
			diagram_diff = excluded.diagram_diff,
			updated_at = CURRENT_TIMESTAMP
	`, g.UploadID, nullIfEmpty(g.OldPayload), g.NewPayload,
		nullIfEmpty(g.OldCanonical), g.NewCanonical,
		nullIfEmpty(g.DiagramOld), g.DiagramNew, nullIfEmpty(g.DiagramDiff))
	return err
}

// GetEntityGraph retrieves the artifact set for an upload.
func (s *Store) GetEntityGraph(ctx context.Context, uploadID int64) (*EntityGraph, error) {
	g := &EntityGraph{}
	var oldPayload, oldCanonical, diagramOld, diagramDiff sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT upload_id, old_payload, new_payload, old_canonical, new_canonical,
			diagram_old, diagram_new, diagram_diff, updated_at
		FROM entity_graphs WHERE upload_id = ?
	`, uploadID).Scan(&g.UploadID, &oldPayload, &g.NewPayload,
		&oldCanonical, &g.NewCanonical,
		&diagramOld, &g.DiagramNew, &diagramDiff, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.OldPayload = oldPayload.String
	g.OldCanonical = oldCanonical.String
	g.DiagramOld = diagramOld.String
	g.DiagramDiff = diagramDiff.String
	return g, nil
}

// --- Embedding operations ---

// InsertSummaryEmbedding stores a vector embedding for a summary.
func (s *Store) InsertSummaryEmbedding(ctx context.Context, summaryID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_summaries (summary_id, embedding) VALUES (?, ?)",
		summaryID, serializeFloat32(embedding))
	return err
}

// FindSimilarSummaries performs a KNN search over prior summaries,
// excluding the given upload's own rows.
func (s *Store) FindSimilarSummaries(ctx context.Context, queryEmbedding []float32, excludeUploadID int64, k int) ([]SimilarSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.summary_id, v.distance, m.upload_id, m.content
		FROM vec_summaries v
		JOIN summaries m ON m.id = v.summary_id
		WHERE v.embedding MATCH ? AND k = ? AND m.upload_id != ?
		ORDER BY v.distance
	`, serializeFloat32(queryEmbedding), k, excludeUploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SimilarSummary
	for rows.Next() {
		var r SimilarSummary
		if err := rows.Scan(&r.SummaryID, &r.Distance, &r.UploadID, &r.Content); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
