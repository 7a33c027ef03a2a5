// Package index is the vector search index behind retrieval-augmented
// question answering. Documents carry an embedding plus filterable
// metadata (source table, category); similarity queries run brute-force
// cosine over SQLite rows, which is plenty at this corpus size. An
// optional sqlite-vec build replaces the scan with ANN search.
package index

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Index stores documents and serves similarity queries.
type Index struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	log  *zap.Logger
}

// Open initializes the index database at path, creating the schema on
// first use. ":memory:" is accepted for tests.
func Open(path string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	idx := &Index{db: db, path: path, log: log}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (ix *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id    TEXT NOT NULL UNIQUE,
		source_table TEXT NOT NULL,
		category     TEXT NOT NULL,
		content      TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		embedding    TEXT,
		metadata     TEXT NOT NULL DEFAULT '{}',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_table ON documents(source_table);
	CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
	`
	if _, err := ix.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Document is one indexed record.
type Document struct {
	ID          int64
	SourceID    string
	SourceTable string
	Category    string
	Content     string
	ContentHash string
	Embedding   []float32
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// Similarity is populated by Query results only.
	Similarity float64
}

// ContentHash returns the dedup hash for document content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Upsert stores doc keyed by its source ID. When the stored content
// hash already matches, nothing is written and stored is false, so
// callers can skip re-embedding unchanged records.
func (ix *Index) Upsert(ctx context.Context, doc Document) (stored bool, err error) {
	if doc.SourceID == "" {
		return false, fmt.Errorf("document source ID must not be empty")
	}
	if doc.ContentHash == "" {
		doc.ContentHash = ContentHash(doc.Content)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var existing string
	err = ix.db.QueryRowContext(ctx,
		"SELECT content_hash FROM documents WHERE source_id = ?", doc.SourceID,
	).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing document: %w", err)
	}
	if err == nil && existing == doc.ContentHash {
		return false, nil
	}

	embJSON, err := json.Marshal(doc.Embedding)
	if err != nil {
		return false, fmt.Errorf("failed to serialize embedding: %w", err)
	}
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return false, fmt.Errorf("failed to serialize metadata: %w", err)
	}

	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO documents (source_id, source_table, category, content, content_hash, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			source_table = excluded.source_table,
			category     = excluded.category,
			content      = excluded.content,
			content_hash = excluded.content_hash,
			embedding    = excluded.embedding,
			metadata     = excluded.metadata,
			updated_at   = CURRENT_TIMESTAMP`,
		doc.SourceID, doc.SourceTable, doc.Category, doc.Content, doc.ContentHash,
		string(embJSON), string(metaJSON),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert document: %w", err)
	}
	return true, nil
}

// Unchanged reports whether a stored document already carries this
// content hash, letting ingestion skip embedding work for records that
// have not changed since the last run.
func (ix *Index) Unchanged(ctx context.Context, sourceID, contentHash string) (bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var stored string
	err := ix.db.QueryRowContext(ctx,
		"SELECT content_hash FROM documents WHERE source_id = ?", sourceID).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check document hash: %w", err)
	}
	return stored == contentHash, nil
}

// Filter restricts similarity queries by metadata.
type Filter struct {
	SourceTable string
	Category    string
}

// Query returns the topK documents most similar to the query vector,
// restricted by filter. Documents without embeddings are skipped.
func (ix *Index) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Document, error) {
	if topK <= 0 {
		topK = 10
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	query := `SELECT id, source_id, source_table, category, content, content_hash,
		embedding, metadata, created_at, updated_at
		FROM documents WHERE embedding IS NOT NULL AND embedding != '[]' AND embedding != 'null'`
	var args []interface{}
	if filter.SourceTable != "" {
		query += " AND source_table = ?"
		args = append(args, filter.SourceTable)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var candidates []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			ix.log.Debug("skipping unreadable document row", zap.Error(err))
			continue
		}
		doc.Similarity = cosineSimilarity(vector, doc.Embedding)
		candidates = append(candidates, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// All streams every document to fn in insertion order; used by audits.
// A non-nil error from fn aborts the scan.
func (ix *Index) All(ctx context.Context, fn func(Document) error) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rows, err := ix.db.QueryContext(ctx, `SELECT id, source_id, source_table, category,
		content, content_hash, embedding, metadata, created_at, updated_at
		FROM documents ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to scan documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Delete removes a document by source ID.
func (ix *Index) Delete(ctx context.Context, sourceID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, err := ix.db.ExecContext(ctx, "DELETE FROM documents WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Stats returns per-table and per-category document counts.
type Stats struct {
	Total      int
	ByTable    map[string]int
	ByCategory map[string]int
}

// Stats summarizes index contents.
func (ix *Index) Stats(ctx context.Context) (*Stats, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	s := &Stats{ByTable: map[string]int{}, ByCategory: map[string]int{}}
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&s.Total); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	rows, err := ix.db.QueryContext(ctx, "SELECT source_table, COUNT(*) FROM documents GROUP BY source_table")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var table string
		var n int
		if err := rows.Scan(&table, &n); err != nil {
			return nil, err
		}
		s.ByTable[table] = n
	}

	crows, err := ix.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM documents GROUP BY category")
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var cat string
		var n int
		if err := crows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		s.ByCategory[cat] = n
	}
	return s, nil
}

// scanDocument reads one row from either query shape above.
func scanDocument(rows *sql.Rows) (Document, error) {
	var doc Document
	var embJSON, metaJSON sql.NullString
	if err := rows.Scan(&doc.ID, &doc.SourceID, &doc.SourceTable, &doc.Category,
		&doc.Content, &doc.ContentHash, &embJSON, &metaJSON,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return Document{}, fmt.Errorf("failed to scan document: %w", err)
	}
	if embJSON.Valid && embJSON.String != "" {
		if err := json.Unmarshal([]byte(embJSON.String), &doc.Embedding); err != nil {
			return Document{}, fmt.Errorf("failed to decode embedding: %w", err)
		}
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.Metadata); err != nil {
			return Document{}, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return doc, nil
}
