// Package store persists parsed GEDCOM documents in SQLite.
//
// Each document is kept twice: the full tree as a CBOR blob for exact
// retrieval, and one row per individual for name search.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/gedgest/internal/gedcom"
	"github.com/dgallion1/gedgest/internal/gedtree"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("document not found")

// DocumentMeta is the summary row of a stored document.
type DocumentMeta struct {
	ID          string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title,omitempty"`
	ContentHash string    `json:"content_hash"`
	Individuals int       `json:"individuals"`
	Families    int       `json:"families"`
	Diagnostics int       `json:"diagnostics"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoredDocument is a document together with what the parser reported about it.
type StoredDocument struct {
	Meta        DocumentMeta        `json:"meta"`
	Document    *gedtree.Document   `json:"document"`
	Diagnostics []gedcom.Diagnostic `json:"diagnostics"`
}

// IndividualRow is a search hit.
type IndividualRow struct {
	DocID     string `json:"doc_id"`
	Xref      string `json:"xref"`
	Name      string `json:"name"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date,omitempty"`
	DeathDate string `json:"death_date,omitempty"`
}

// Store is a SQLite-backed document store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL,
		individuals INTEGER NOT NULL DEFAULT 0,
		families INTEGER NOT NULL DEFAULT 0,
		diagnostics INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS individuals (
		doc_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		xref TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		name_lower TEXT NOT NULL DEFAULT '',
		sex TEXT NOT NULL DEFAULT '',
		birth_date TEXT NOT NULL DEFAULT '',
		death_date TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (doc_id, position),
		FOREIGN KEY (doc_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_individuals_name ON individuals(doc_id, name_lower);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveDocument writes a document and its individual index in one transaction.
func (s *Store) SaveDocument(ctx context.Context, doc *StoredDocument) error {
	if doc.Meta.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if doc.Document == nil {
		return fmt.Errorf("document %s has no tree", doc.Meta.ID)
	}
	if doc.Meta.CreatedAt.IsZero() {
		doc.Meta.CreatedAt = time.Now()
	}
	stats := doc.Document.Stats()
	doc.Meta.Individuals = stats.Individuals
	doc.Meta.Families = stats.Families
	doc.Meta.Diagnostics = len(doc.Diagnostics)

	payload, err := marshalPayload(doc.Document, doc.Diagnostics)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	m := doc.Meta
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, title, content_hash, individuals, families, diagnostics, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Filename, m.Title, m.ContentHash, m.Individuals, m.Families, m.Diagnostics, m.CreatedAt.UnixMilli(), payload)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", m.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO individuals (doc_id, position, xref, name, name_lower, sex, birth_date, death_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare individuals: %w", err)
	}
	defer stmt.Close()

	for i, indi := range doc.Document.Individuals {
		row := individualRow(m.ID, indi)
		if _, err := stmt.ExecContext(ctx, m.ID, i, row.Xref, row.Name, strings.ToLower(row.Name), row.Sex, row.BirthDate, row.DeathDate); err != nil {
			return fmt.Errorf("insert individual %s: %w", row.Xref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetDocument loads a document with its tree. It returns ErrNotFound for an
// unknown ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*StoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, title, content_hash, individuals, families, diagnostics, created_at, payload
		FROM documents WHERE id = ?
	`, id)

	var doc StoredDocument
	var createdMs int64
	var payload []byte
	m := &doc.Meta
	err := row.Scan(&m.ID, &m.Filename, &m.Title, &m.ContentHash, &m.Individuals, &m.Families, &m.Diagnostics, &createdMs, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	m.CreatedAt = time.UnixMilli(createdMs).UTC()

	doc.Document, doc.Diagnostics, err = unmarshalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return &doc, nil
}

// ListDocuments returns document summaries, newest first.
func (s *Store) ListDocuments(ctx context.Context, limit, offset int) ([]DocumentMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, title, content_hash, individuals, families, diagnostics, created_at
		FROM documents
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentMeta{}
	for rows.Next() {
		var m DocumentMeta
		var createdMs int64
		if err := rows.Scan(&m.ID, &m.Filename, &m.Title, &m.ContentHash, &m.Individuals, &m.Families, &m.Diagnostics, &createdMs); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		m.CreatedAt = time.UnixMilli(createdMs).UTC()
		docs = append(docs, m)
	}
	return docs, rows.Err()
}

// FindByHash returns the ID of a document with the given content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM documents WHERE content_hash = ? ORDER BY created_at LIMIT 1`, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find by hash: %w", err)
	}
	return id, true, nil
}

// SearchIndividuals matches query case-insensitively against display names
// within one document. An empty query lists individuals in source order.
func (s *Store) SearchIndividuals(ctx context.Context, docID, query string, limit int) ([]IndividualRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, xref, name, sex, birth_date, death_date
		FROM individuals
		WHERE doc_id = ? AND name_lower LIKE ? ESCAPE '\'
		ORDER BY position
		LIMIT ?
	`, docID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search individuals: %w", err)
	}
	defer rows.Close()

	out := []IndividualRow{}
	for rows.Next() {
		var r IndividualRow
		if err := rows.Scan(&r.DocID, &r.Xref, &r.Name, &r.Sex, &r.BirthDate, &r.DeathDate); err != nil {
			return nil, fmt.Errorf("scan individual: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document and its index rows.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func individualRow(docID string, indi *gedtree.Individual) IndividualRow {
	row := IndividualRow{
		DocID: docID,
		Xref:  indi.Xref,
		Name:  indi.Name.Display(),
		Sex:   indi.Sex.String(),
	}
	if e := indi.FirstEvent(gedtree.EventBirth); e != nil {
		row.BirthDate = e.Date
	}
	if e := indi.FirstEvent(gedtree.EventDeath); e != nil {
		row.DeathDate = e.Date
	}
	return row
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
