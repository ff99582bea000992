package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Parsed legal passages (sections, articles, rules) with provenance
CREATE TABLE IF NOT EXISTS passages (
    id INTEGER PRIMARY KEY,
    text TEXT NOT NULL,
    source_doc TEXT NOT NULL,
    page_number INTEGER DEFAULT 0,
    law_type TEXT DEFAULT '',
    content_hash TEXT NOT NULL UNIQUE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Vector embeddings via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_passages USING vec0(
    passage_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Full-text search via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS passages_fts USING fts5(
    text,
    content='passages',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS passages_ai AFTER INSERT ON passages BEGIN
    INSERT INTO passages_fts(rowid, text) VALUES (new.id, new.text);
END;
CREATE TRIGGER IF NOT EXISTS passages_ad AFTER DELETE ON passages BEGIN
    INSERT INTO passages_fts(passages_fts, rowid, text) VALUES ('delete', old.id, old.text);
END;
CREATE TRIGGER IF NOT EXISTS passages_au AFTER UPDATE ON passages BEGIN
    INSERT INTO passages_fts(passages_fts, rowid, text) VALUES ('delete', old.id, old.text);
    INSERT INTO passages_fts(passages_fts, rowid, text) VALUES (new.id, new.text);
END;

-- Indexes
CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source_doc);
CREATE INDEX IF NOT EXISTS idx_passages_law_type ON passages(law_type);
`, embeddingDim)
}
