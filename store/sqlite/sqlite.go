/*
Package sqlite provides the SQLite-backed DocumentStore.

PURPOSE:
  Persists every collection in a single documents table keyed by
  (collection, id) with the record body stored as JSON text. The portal
  reads collections whole and writes them back as batches, so the
  schema stays deliberately flat; there is nothing to migrate when a
  new collection or a new imported column appears.

BATCH SEMANTICS:
  UpsertMany runs inside one SQL transaction: either the whole batch
  lands or none of it does. DeleteWhereIDNotIn with an empty keep list
  clears the collection.

CONCURRENCY:
  Opened in WAL mode so readers do not block the single writer. A
  sync.RWMutex serializes writes at the application level as well; the
  write rate here is tiny.

USAGE:
  docs, err := sqlite.New("./data/portal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer docs.Close()

  cache := store.NewCache(docs, 30*time.Second)

SEE ALSO:
  - store/store.go: DocumentStore interface
  - store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brillar/hr-portal/store"
)

// Store implements store.DocumentStore on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at the given path. Use ":memory:"
// for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		body TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now')),
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection
		ON documents(collection);
	`
	_, err := s.db.Exec(schema)
	return err
}

// FindAll returns every document in a collection, ordered by id for
// deterministic reads.
func (s *Store) FindAll(ctx context.Context, collection string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = ? ORDER BY id ASC",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var doc store.Document
		var body string
		if err := rows.Scan(&doc.ID, &body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		doc.Body = []byte(body)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpsertMany inserts or replaces documents atomically.
func (s *Store) UpsertMany(ctx context.Context, collection string, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, body, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(collection, id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, collection, doc.ID, string(doc.Body)); err != nil {
			return fmt.Errorf("failed to upsert %s/%s: %w", collection, doc.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteWhereIDNotIn removes every document in the collection whose id is
// not in the keep list. An empty keep list clears the collection.
func (s *Store) DeleteWhereIDNotIn(ctx context.Context, collection string, keepIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(keepIDs) == 0 {
		_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ?", collection)
		return err
	}

	placeholders := strings.Repeat("?,", len(keepIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(keepIDs)+1)
	args = append(args, collection)
	for _, id := range keepIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		"DELETE FROM documents WHERE collection = ? AND id NOT IN (%s)",
		placeholders,
	)
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
