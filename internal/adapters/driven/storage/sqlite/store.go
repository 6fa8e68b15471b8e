package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/shelf/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
)

// dbFileName is the database file created inside the data directory.
const dbFileName = "shelf.db"

// Store is a SQLite database that provides the document and search stores
// through wrapper types sharing one connection pool.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the store in dataDir and applies
// pending migrations. If dataDir is empty, defaults to ~/.shelf/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".shelf", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// SearchStore returns a SearchStore interface backed by this store.
func (s *Store) SearchStore() driven.SearchStore {
	return &searchStore{store: s}
}

// migrate runs all pending up migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// applyMigration executes one migration and records its version atomically.
func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// schemaVersion returns the highest applied migration version.
func (s *Store) schemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = "id, path, format, size, title, author, indexed_at, last_accessed"

// ListAll returns every document in the order it was indexed.
func (s *documentStore) ListAll(ctx context.Context) ([]domain.Document, error) {
	return s.query(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY rowid")
}

// FindByPath returns the document stored for path.
func (s *documentStore) FindByPath(ctx context.Context, path string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE path = ?", path)
	return scanDocument(row)
}

// Create inserts a new document.
func (s *documentStore) Create(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	if err := insertDocument(ctx, s.store.db, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateBatch inserts documents in one transaction.
func (s *documentStore) CreateBatch(ctx context.Context, docs []domain.Document) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, doc := range docs {
		if err := insertDocument(ctx, tx, doc); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// ListByFormat returns the documents of one format in indexing order.
func (s *documentStore) ListByFormat(ctx context.Context, format domain.Format) ([]domain.Document, error) {
	return s.query(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE format = ? ORDER BY rowid", string(format))
}

// Formats returns the distinct formats present, sorted.
func (s *documentStore) Formats(ctx context.Context) ([]domain.Format, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT DISTINCT format FROM documents ORDER BY format")
	if err != nil {
		return nil, fmt.Errorf("querying formats: %w", err)
	}
	defer rows.Close()

	var formats []domain.Format
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scanning format: %w", err)
		}
		formats = append(formats, domain.Format(f))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating formats: %w", err)
	}
	return formats, nil
}

// Touch records when the document was last opened.
func (s *documentStore) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET last_accessed = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating last accessed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *documentStore) query(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDocument(ctx context.Context, db execer, doc domain.Document) error {
	var lastAccessed any
	if doc.LastAccessed != nil {
		lastAccessed = doc.LastAccessed.UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (id, path, format, size, title, author, indexed_at, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Path, string(doc.Format), doc.Size, doc.Title, doc.Author,
		doc.IndexedAt.UTC(), lastAccessed)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, doc.Path)
	}
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var format string
	var lastAccessed sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Path, &format, &doc.Size, &doc.Title, &doc.Author,
		&doc.IndexedAt, &lastAccessed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Format = domain.Format(format)
	if lastAccessed.Valid {
		t := lastAccessed.Time
		doc.LastAccessed = &t
	}
	return &doc, nil
}

// ==================== Search Store ====================

// searchStore implements driven.SearchStore.
type searchStore struct {
	store *Store
}

var _ driven.SearchStore = (*searchStore)(nil)

// Create inserts a new query record.
func (s *searchStore) Create(ctx context.Context, record domain.QueryRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO searches (id, query, user_id, created_at, result_count)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, record.Query, record.UserID, record.CreatedAt.UTC(), record.ResultCount)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: search %s", domain.ErrAlreadyExists, record.ID)
	}
	if err != nil {
		return fmt.Errorf("saving search: %w", err)
	}
	return nil
}

// SaveSearch inserts a query record and all of its matches in one
// transaction.
func (s *searchStore) SaveSearch(ctx context.Context, record domain.QueryRecord, matches []domain.MatchRecord) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO searches (id, query, user_id, created_at, result_count)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, record.Query, record.UserID, record.CreatedAt.UTC(), len(matches))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: search %s", domain.ErrAlreadyExists, record.ID)
	}
	if err != nil {
		return fmt.Errorf("saving search: %w", err)
	}

	if err := insertMatches(ctx, tx, record.ID, matches); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveMatches inserts all matches of a query and updates its result count
// in one transaction.
func (s *searchStore) SaveMatches(ctx context.Context, queryID string, matches []domain.MatchRecord) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM searches WHERE id = ?", queryID).
		Scan(&exists); err != nil {
		return fmt.Errorf("checking search: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	if err := insertMatches(ctx, tx, queryID, matches); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE searches
		SET result_count = (SELECT COUNT(*) FROM search_results WHERE search_id = ?)
		WHERE id = ?
	`, queryID, queryID); err != nil {
		return fmt.Errorf("updating result count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertMatches(ctx context.Context, tx *sql.Tx, queryID string, matches []domain.MatchRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_results (search_id, document_id, score, snippet, rank)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err := stmt.ExecContext(ctx, queryID, m.DocumentID, m.Score, m.Snippet, m.Rank)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: match for document %s", domain.ErrAlreadyExists, m.DocumentID)
		}
		if err != nil {
			return fmt.Errorf("saving match: %w", err)
		}
	}
	return nil
}

// Get retrieves a query record by ID.
func (s *searchStore) Get(ctx context.Context, id string) (*domain.QueryRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, query, user_id, created_at, result_count
		FROM searches WHERE id = ?
	`, id)
	return scanQueryRecord(row)
}

// Matches returns the matches of a query, best score first.
func (s *searchStore) Matches(ctx context.Context, queryID string) ([]domain.MatchRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT search_id, document_id, score, snippet, rank
		FROM search_results WHERE search_id = ?
		ORDER BY score DESC, rank ASC
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.MatchRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.MatchRecord
		if err := rows.Scan(&m.QueryID, &m.DocumentID, &m.Score, &m.Snippet, &m.Rank); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

// ListByUser returns the newest query records owned by userID.
func (s *searchStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, query, user_id, created_at, result_count
		FROM searches WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var records []domain.QueryRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanQueryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating searches: %w", err)
	}
	return records, nil
}

// Delete removes a query record. Its matches are removed by cascade.
func (s *searchStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM searches WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting search: %w", err)
	}
	return nil
}

func scanQueryRecord(row rowScanner) (*domain.QueryRecord, error) {
	var r domain.QueryRecord
	if err := row.Scan(&r.ID, &r.Query, &r.UserID, &r.CreatedAt, &r.ResultCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning search: %w", err)
	}
	return &r, nil
}
