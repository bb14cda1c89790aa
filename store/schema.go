package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Regulations that documents can be compared under
CREATE TABLE IF NOT EXISTS regulations (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One upload = one old/new document pair under a regulation
CREATE TABLE IF NOT EXISTS uploads (
    id INTEGER PRIMARY KEY,
    regulation_id INTEGER NOT NULL REFERENCES regulations(id),
    title TEXT NOT NULL,
    old_path TEXT,
    new_path TEXT NOT NULL,
    status TEXT DEFAULT 'pending',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- LLM summaries per document version
CREATE TABLE IF NOT EXISTS summaries (
    id INTEGER PRIMARY KEY,
    upload_id INTEGER NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
    version TEXT NOT NULL CHECK (version IN ('old', 'new')),
    content TEXT NOT NULL,
    model TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(upload_id, version)
);

-- Extracted graph payloads and rendered diagrams per upload
CREATE TABLE IF NOT EXISTS entity_graphs (
    id INTEGER PRIMARY KEY,
    upload_id INTEGER NOT NULL UNIQUE REFERENCES uploads(id) ON DELETE CASCADE,
    old_payload JSON,
    new_payload JSON,
    old_canonical JSON,
    new_canonical JSON,
    diagram_old TEXT,
    diagram_new TEXT,
    diagram_diff TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Summary embeddings via sqlite-vec, for prior-cycle similarity lookup
CREATE VIRTUAL TABLE IF NOT EXISTS vec_summaries USING vec0(
    summary_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_uploads_regulation ON uploads(regulation_id);
CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status);
CREATE INDEX IF NOT EXISTS idx_summaries_upload ON summaries(upload_id);
`, embeddingDim)
}
