// File path: internal/catalog/store.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/hybridrag/docqa/internal/common"
)

// Store keeps per-batch ingestion bookkeeping in SQLite. It is
// observability only: the in-memory indexes are rebuilt from uploads, never
// from the catalog.
type Store struct {
	db *sqlx.DB
}

// FileResult records the outcome of normalizing one uploaded file.
type FileResult struct {
	FileName     string `db:"file_name" json:"file_name"`
	DocumentType string `db:"document_type" json:"document_type"`
	Records      int    `db:"records" json:"records"`
	Error        string `db:"error" json:"error,omitempty"`
}

// Batch summarizes one ingestion run.
type Batch struct {
	ID        int64        `db:"id" json:"id"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Documents int          `db:"documents" json:"documents"`
	Chunks    int          `db:"chunks" json:"chunks"`
	QAPairs   int          `db:"qa_pairs" json:"qa_pairs"`
	Files     []FileResult `db:"-" json:"files,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS ingest_batches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL,
	documents INTEGER NOT NULL,
	chunks INTEGER NOT NULL,
	qa_pairs INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ingest_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id INTEGER NOT NULL REFERENCES ingest_batches(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	document_type TEXT NOT NULL,
	records INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_ingest_files_batch ON ingest_files(batch_id);
`

// Open constructs a Store backed by the SQLite database at the provided
// path, creating parent directories and migrating the schema as needed.
func Open(path string) (*Store, error) {
	logger := common.Logger()
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	logger.Info("catalog: store ready", "path", abs)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordBatch persists one ingestion run and its per-file outcomes.
func (s *Store) RecordBatch(ctx context.Context, batch Batch) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("catalog store not open")
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin catalog tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_batches (created_at, documents, chunks, qa_pairs) VALUES (?, ?, ?, ?)`,
		batch.CreatedAt, batch.Documents, batch.Chunks, batch.QAPairs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	batchID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("batch id: %w", err)
	}
	for _, file := range batch.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ingest_files (batch_id, file_name, document_type, records, error) VALUES (?, ?, ?, ?, ?)`,
			batchID, file.FileName, file.DocumentType, file.Records, file.Error,
		); err != nil {
			return 0, fmt.Errorf("insert file result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit catalog tx: %w", err)
	}
	return batchID, nil
}

// LastBatch returns the most recent batch with its file outcomes, or nil
// when nothing has been ingested yet.
func (s *Store) LastBatch(ctx context.Context) (*Batch, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not open")
	}
	var batch Batch
	err := s.db.GetContext(ctx, &batch,
		`SELECT id, created_at, documents, chunks, qa_pairs FROM ingest_batches ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load last batch: %w", err)
	}
	if err := s.db.SelectContext(ctx, &batch.Files,
		`SELECT file_name, document_type, records, error FROM ingest_files WHERE batch_id = ? ORDER BY id`,
		batch.ID,
	); err != nil {
		return nil, fmt.Errorf("load batch files: %w", err)
	}
	return &batch, nil
}

// BatchCount returns the number of recorded ingestion runs.
func (s *Store) BatchCount(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("catalog store not open")
	}
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM ingest_batches`); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return count, nil
}
