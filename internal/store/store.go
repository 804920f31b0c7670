// Package store provides the SQLite-backed document and embedding store.
// Each ingested document carries its extracted plain-text content, a selected
// flag used to scope retrieval, and at most one current embedding. The store
// is the only shared mutable resource in the system and must be safe for
// concurrent use.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/docbase-ai/docqa-go/internal/rag"
)

// Document is one ingested document.
type Document struct {
	// ID is the stable integer identity assigned on ingestion.
	ID int64
	// Filename is the name of the uploaded file.
	Filename string
	// Content is the extracted plain-text content. Immutable once stored.
	Content string
	// Selected scopes retrieval when the caller asks only selected documents.
	Selected bool
	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// SQLiteStore persists documents and their embeddings in a local SQLite
// database. It implements rag.CandidateStore.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// SQLiteStore must satisfy the candidate store contract used by the pipeline.
var _ rag.CandidateStore = (*SQLiteStore)(nil)

// DefaultDBPath returns the default path for the document database.
// It resolves to ~/.docqa/docqa.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docqa")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "docqa.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// modernc's driver applies pragmas via _pragma query parameters. WAL mode
	// improves concurrent read performance; busy_timeout makes a second
	// process wait up to 5s instead of failing immediately with SQLITE_BUSY.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist. The UNIQUE
// constraint on embeddings.document_id enforces the at-most-one-current-
// embedding invariant at the storage layer.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    filename    TEXT    NOT NULL,
    content     TEXT    NOT NULL,
    selected    INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE TABLE IF NOT EXISTS embeddings (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL UNIQUE REFERENCES documents(id) ON DELETE CASCADE,
    vector      TEXT    NOT NULL,  -- JSON array of floats
    dims        INTEGER NOT NULL,
    created_at  INTEGER NOT NULL
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// InsertDocument persists a new document and returns its assigned id.
func (s *SQLiteStore) InsertDocument(ctx context.Context, filename, content string) (int64, error) {
	const q = `INSERT INTO documents (filename, content, selected, created_at) VALUES (?, ?, 0, ?)`
	res, err := s.db.ExecContext(ctx, q, filename, content, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("store: insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert document id: %w", err)
	}
	return id, nil
}

// ListDocuments returns all documents ordered by id, without their vectors.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]Document, error) {
	const q = `SELECT id, filename, content, selected, created_at FROM documents ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var selected int
		var ts int64
		if err := rows.Scan(&d.ID, &d.Filename, &d.Content, &selected, &ts); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		d.Selected = selected != 0
		d.CreatedAt = time.Unix(ts, 0)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return docs, nil
}

// SetSelected marks the given documents as selected (or deselected) and
// returns the ids that were actually updated. Unknown ids are silently
// absent from the result — the caller decides whether that is an error.
func (s *SQLiteStore) SetSelected(ctx context.Context, ids []int64, selected bool) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := fmt.Sprintf(`UPDATE documents SET selected = ? WHERE id IN (%s) RETURNING id`, placeholders(len(ids)))
	args := make([]any, 0, len(ids)+1)
	args = append(args, boolInt(selected))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: set selected: %w", err)
	}
	defer rows.Close()

	var updated []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: set selected scan: %w", err)
		}
		updated = append(updated, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: set selected rows: %w", err)
	}
	return updated, nil
}

// SelectedIDs returns the ids of all currently selected documents.
func (s *SQLiteStore) SelectedIDs(ctx context.Context) ([]int64, error) {
	const q = `SELECT id FROM documents WHERE selected = 1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: selected ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: selected ids scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: selected ids rows: %w", err)
	}
	return ids, nil
}

// SaveEmbedding upserts the embedding for a document. Any prior vector for
// the document is overwritten — at most one current embedding per document
// (overwrite-latest policy). The upsert is a single atomic statement, so
// concurrent saves for different documents never interfere.
func (s *SQLiteStore) SaveEmbedding(ctx context.Context, documentID int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("store: empty vector for document %d: %w", documentID, rag.ErrInvalidInput)
	}

	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("store: encode vector: %w", err)
	}

	const q = `
INSERT INTO embeddings (document_id, vector, dims, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(document_id) DO UPDATE SET
    vector = excluded.vector,
    dims = excluded.dims,
    created_at = excluded.created_at`
	if _, err := s.db.ExecContext(ctx, q, documentID, string(raw), len(vector), time.Now().Unix()); err != nil {
		return fmt.Errorf("store: save embedding for document %d: %w", documentID, err)
	}
	return nil
}

// FetchCandidates returns all stored embeddings joined with their document
// content under a single read, so a concurrent SaveEmbedding can never mix a
// document's old and new vector within one call. A nil filter means the whole
// corpus; a non-nil filter restricts to the given ids and yields an empty
// slice when nothing matches.
func (s *SQLiteStore) FetchCandidates(ctx context.Context, filter []int64) ([]rag.Candidate, error) {
	q := `
SELECT e.document_id, d.content, e.vector
FROM   embeddings e
JOIN   documents d ON d.id = e.document_id`

	var args []any
	if filter != nil {
		if len(filter) == 0 {
			return nil, nil
		}
		q += fmt.Sprintf(" WHERE e.document_id IN (%s)", placeholders(len(filter)))
		for _, id := range filter {
			args = append(args, id)
		}
	}
	q += " ORDER BY e.document_id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: fetch candidates: %w", err)
	}
	defer rows.Close()

	var candidates []rag.Candidate
	for rows.Next() {
		var c rag.Candidate
		var raw string
		if err := rows.Scan(&c.DocumentID, &c.Content, &raw); err != nil {
			return nil, fmt.Errorf("store: fetch scan: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &c.Vector); err != nil {
			return nil, fmt.Errorf("store: decode vector for document %d: %w", c.DocumentID, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: fetch rows: %w", err)
	}
	return candidates, nil
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// placeholders returns n comma-separated SQL placeholders ("?, ?, ?").
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// boolInt converts a bool to the 0/1 representation SQLite stores.
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
