package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeller/pylens-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps insertion order deterministic and, for the
	// in-memory database, keeps every statement on the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance. Pass
// storage.InMemory for the process-lifetime index database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) InsertDefinition(ctx context.Context, defn *types.SymbolDefinition) error {
	return insertDefinition(ctx, t.tx, defn)
}

func (t *sqliteTx) InsertReference(ctx context.Context, ref *types.SymbolReference) error {
	return insertReference(ctx, t.tx, ref)
}

// InsertDefinition stores one symbol definition
func (s *SQLiteStorage) InsertDefinition(ctx context.Context, defn *types.SymbolDefinition) error {
	return insertDefinition(ctx, s.db, defn)
}

// InsertReference stores one name reference
func (s *SQLiteStorage) InsertReference(ctx context.Context, ref *types.SymbolReference) error {
	return insertReference(ctx, s.db, ref)
}

func insertDefinition(ctx context.Context, q querier, defn *types.SymbolDefinition) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO symbols (qualified_name, name, kind, type_annotation, file_path, line, col, docstring, init_docstring, source, parent_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		defn.QualifiedName, defn.Name, string(defn.Kind), defn.TypeAnnotation,
		defn.FilePath, defn.Line, defn.Column, defn.Docstring,
		defn.InitDocstring, defn.Source, defn.ParentName,
	)
	if err != nil {
		return fmt.Errorf("failed to insert definition %s: %w", defn.QualifiedName, err)
	}
	return nil
}

func insertReference(ctx context.Context, q querier, ref *types.SymbolReference) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO refs (symbol, file_path, line, col, context)
		VALUES (?, ?, ?, ?, ?)`,
		ref.Symbol, ref.FilePath, ref.Line, ref.Column, ref.Context,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reference %s: %w", ref.Symbol, err)
	}
	return nil
}

const definitionColumns = "qualified_name, name, kind, type_annotation, file_path, line, col, docstring, init_docstring, source, parent_name"

// FilterSymbols returns definitions matching every provided predicate, in
// indexing order, stopping at query.MaxResults when it is positive.
func (s *SQLiteStorage) FilterSymbols(ctx context.Context, query FilterQuery) ([]*types.SymbolDefinition, error) {
	sb := strings.Builder{}
	sb.WriteString("SELECT " + definitionColumns + " FROM symbols")

	var conds []string
	var args []interface{}

	if query.Name != "" {
		conds = append(conds, "instr(lower(name), lower(?)) > 0")
		args = append(args, query.Name)
	}
	if query.Kind != "" {
		conds = append(conds, "lower(kind) = lower(?)")
		args = append(args, query.Kind)
	}
	if query.TypeHint != "" {
		conds = append(conds, "instr(lower(type_annotation), lower(?)) > 0")
		args = append(args, query.TypeHint)
	}
	if query.FilePath != "" {
		conds = append(conds, "file_path = ?")
		args = append(args, query.FilePath)
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY id")
	if query.MaxResults > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, query.MaxResults)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter symbols: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDefinitions(rows)
}

// ListReferencesBySymbol returns all references to the given simple name
func (s *SQLiteStorage) ListReferencesBySymbol(ctx context.Context, symbol string) ([]*types.SymbolReference, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT symbol, file_path, line, col, context FROM refs WHERE symbol = ? ORDER BY id", symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to list references by symbol: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanReferences(rows)
}

// ListReferencesByFile returns all references occurring in the given file
func (s *SQLiteStorage) ListReferencesByFile(ctx context.Context, filePath string) ([]*types.SymbolReference, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT symbol, file_path, line, col, context FROM refs WHERE file_path = ? ORDER BY id", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list references by file: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanReferences(rows)
}

func scanDefinitions(rows *sql.Rows) ([]*types.SymbolDefinition, error) {
	var defs []*types.SymbolDefinition
	for rows.Next() {
		var d types.SymbolDefinition
		var kind string
		if err := rows.Scan(&d.QualifiedName, &d.Name, &kind, &d.TypeAnnotation,
			&d.FilePath, &d.Line, &d.Column, &d.Docstring, &d.InitDocstring,
			&d.Source, &d.ParentName); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		d.Kind = types.SymbolKind(kind)
		defs = append(defs, &d)
	}
	return defs, rows.Err()
}

func scanReferences(rows *sql.Rows) ([]*types.SymbolReference, error) {
	var refs []*types.SymbolReference
	for rows.Next() {
		var r types.SymbolReference
		if err := rows.Scan(&r.Symbol, &r.FilePath, &r.Line, &r.Column, &r.Context); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		refs = append(refs, &r)
	}
	return refs, rows.Err()
}
