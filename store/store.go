// Package store persists parsed legal passages and their embeddings in
// SQLite, with sqlite-vec for KNN search and FTS5 for keyword lookup.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
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

// Passage represents a row in the passages table.
type Passage struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	SourceDoc   string `json:"source_doc"`
	PageNumber  int    `json:"page_number"`
	LawType     string `json:"law_type"`
	ContentHash string `json:"content_hash"`
	CreatedAt   string `json:"created_at"`
}

// SearchResult holds a passage with its retrieval score.
type SearchResult struct {
	PassageID  int64   `json:"passage_id"`
	Text       string  `json:"text"`
	SourceDoc  string  `json:"source_doc"`
	PageNumber int     `json:"page_number"`
	LawType    string  `json:"law_type"`
	Score      float64 `json:"score"`
}

// Store wraps the SQLite database for all passage persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
	// Ensure parent directory exists
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

	s := &Store{db: db, embeddingDim: embeddingDim}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
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

// --- Passage operations ---

// InsertPassage stores one passage, deduplicating on content hash.
// Returns the passage ID and whether the row was newly inserted.
func (s *Store) InsertPassage(ctx context.Context, p Passage) (int64, bool, error) {
	hash := sha256.Sum256([]byte(p.Text))
	contentHash := hex.EncodeToString(hash[:])

	var existing int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM passages WHERE content_hash = ?", contentHash).Scan(&existing)
	if err == nil {
		return existing, false, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO passages (text, source_doc, page_number, law_type, content_hash)
		VALUES (?, ?, ?, ?, ?)
	`, p.Text, p.SourceDoc, p.PageNumber, p.LawType, contentHash)
	if err != nil {
		return 0, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertPassages inserts a batch in one transaction and returns the IDs.
// Duplicates contribute their existing ID.
func (s *Store) InsertPassages(ctx context.Context, passages []Passage) ([]int64, error) {
	ids := make([]int64, len(passages))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO passages (text, source_doc, page_number, law_type, content_hash)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, p := range passages {
			hash := sha256.Sum256([]byte(p.Text))
			contentHash := hex.EncodeToString(hash[:])

			var existing int64
			err := tx.QueryRowContext(ctx,
				"SELECT id FROM passages WHERE content_hash = ?", contentHash).Scan(&existing)
			if err == nil {
				ids[i] = existing
				continue
			}
			if err != sql.ErrNoRows {
				return err
			}

			res, err := stmt.ExecContext(ctx,
				p.Text, p.SourceDoc, p.PageNumber, p.LawType, contentHash)
			if err != nil {
				return err
			}
			if ids[i], err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
	return ids, err
}

// GetPassage retrieves a passage by ID.
func (s *Store) GetPassage(ctx context.Context, id int64) (*Passage, error) {
	p := &Passage{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, text, source_doc, page_number, law_type, content_hash, created_at
		FROM passages WHERE id = ?
	`, id).Scan(&p.ID, &p.Text, &p.SourceDoc, &p.PageNumber, &p.LawType,
		&p.ContentHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CountPassages returns the number of stored passages.
func (s *Store) CountPassages(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passages").Scan(&n)
	return n, err
}

// --- Embedding operations ---

// InsertEmbedding stores a vector embedding for a passage.
func (s *Store) InsertEmbedding(ctx context.Context, passageID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_passages (passage_id, embedding) VALUES (?, ?)",
		passageID, serializeFloat32(embedding))
	return err
}

// VectorSearch performs a KNN search returning the top-k nearest passages.
func (s *Store) VectorSearch(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.passage_id, v.distance,
			p.text, p.source_doc, p.page_number, p.law_type
		FROM vec_passages v
		JOIN passages p ON p.id = v.passage_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(queryEmbedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		if err := rows.Scan(&r.PassageID, &distance,
			&r.Text, &r.SourceDoc, &r.PageNumber, &r.LawType); err != nil {
			return nil, err
		}
		// Convert distance to similarity score (1 - distance for cosine)
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// FTSSearch performs a full-text search using FTS5 BM25 ranking.
func (s *Store) FTSSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.rowid, f.rank,
			p.text, p.source_doc, p.page_number, p.law_type
		FROM passages_fts f
		JOIN passages p ON p.id = f.rowid
		WHERE passages_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var rank float64
		if err := rows.Scan(&r.PassageID, &rank,
			&r.Text, &r.SourceDoc, &r.PageNumber, &r.LawType); err != nil {
			return nil, err
		}
		// FTS5 rank is negative BM25; negate for a higher-is-better score.
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- helpers ---

// inTx runs fn inside a transaction, committing on nil and rolling back
// on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
