package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/arkilian/typecast/internal/casts"
	tcerrors "github.com/arkilian/typecast/internal/errors"
	"github.com/arkilian/typecast/internal/parser"
	"github.com/arkilian/typecast/pkg/types"
)

// Catalog stores named structured types and versioned table schemas.
type Catalog interface {
	// RegisterStructuredType stores a named structured type. Nested named
	// types must already be registered.
	RegisterStructuredType(ctx context.Context, st *types.StructuredType) error

	// GetStructuredType looks up a registered structured type.
	GetStructuredType(ctx context.Context, id types.ObjectIdentifier) (*types.StructuredType, error)

	// ListStructuredTypes returns all registered types in registration order.
	ListStructuredTypes(ctx context.Context) ([]StructuredTypeRecord, error)

	// ParseType parses a type string, resolving named types against the catalog.
	ParseType(ctx context.Context, s string) (types.LogicalType, error)

	// RegisterSchema stores a new schema version for table if the columns changed.
	RegisterSchema(ctx context.Context, table string, columns []Column, mode EvolutionMode) (*SchemaVersionRecord, error)

	// GetSchemaVersion retrieves one version of a table schema.
	GetSchemaVersion(ctx context.Context, table string, version int) (*SchemaVersionRecord, error)

	// GetCurrentVersion returns the latest version number of a table, or 0.
	GetCurrentVersion(ctx context.Context, table string) (int, error)

	// ListVersions returns a table's schema history, oldest first.
	ListVersions(ctx context.Context, table string) ([]SchemaVersionRecord, error)

	// ListTables returns all table names with at least one schema version.
	ListTables(ctx context.Context) ([]string, error)

	// CheckAssignment reports whether a row of the source type can be
	// inserted into the table's current schema.
	CheckAssignment(ctx context.Context, table string, source types.LogicalType) (*AssignmentResult, error)

	// Close closes the catalog database connections.
	Close() error
}

// StructuredTypeRecord is a registered structured type with its stored form.
type StructuredTypeRecord struct {
	Type       *types.StructuredType
	Definition string
	CreatedAt  time.Time
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB // Write connection (single writer)
	readDB *sql.DB // Read connection pool (concurrent readers)
	dbPath string
	mu     sync.Mutex // Write-only lock (reads don't need this)

	resolveMu sync.RWMutex
	resolve   casts.ResolveFunc
}

var _ Catalog = (*SQLiteCatalog)(nil)

// NewCatalog opens (or creates) the catalog database at dbPath.
func NewCatalog(dbPath string, readPoolSize int) (*SQLiteCatalog, error) {
	if readPoolSize < 1 {
		readPoolSize = 4
	}

	// Write connection: single writer with WAL mode
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	catalog := &SQLiteCatalog{
		db:      db,
		dbPath:  dbPath,
		resolve: casts.Resolve,
	}

	// Schema must exist before the read-only pool opens the file.
	if err := catalog.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: failed to initialize schema: %w", err)
	}

	// Read connection pool: concurrent readers via read-only mode
	readDB, err := sql.Open("sqlite3", "file:"+dbPath+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: failed to open read database: %w", err)
	}
	readDB.SetMaxOpenConns(readPoolSize)
	readDB.SetMaxIdleConns(readPoolSize)
	readDB.SetConnMaxLifetime(5 * time.Minute)
	catalog.readDB = readDB

	return catalog, nil
}

// initSchema creates all required tables and indexes.
func (c *SQLiteCatalog) initSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// SetResolveFunc replaces the cast resolver used for schema evolution and
// assignment checks, e.g. with a caching resolver.
func (c *SQLiteCatalog) SetResolveFunc(fn casts.ResolveFunc) {
	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()
	if fn == nil {
		fn = casts.Resolve
	}
	c.resolve = fn
}

func (c *SQLiteCatalog) decide(source, target types.LogicalType) casts.Decision {
	c.resolveMu.RLock()
	fn := c.resolve
	c.resolveMu.RUnlock()
	return fn(source, target)
}

// RegisterStructuredType stores a named structured type.
func (c *SQLiteCatalog) RegisterStructuredType(ctx context.Context, st *types.StructuredType) error {
	if st == nil || st.Identifier() == nil {
		return tcerrors.NewValidationError(tcerrors.CodeInvalidName, "structured type must have an identifier")
	}
	id := st.Identifier()

	definition, err := definitionOf(st)
	if err != nil {
		return tcerrors.NewValidationError(tcerrors.CodeInvalidRequest, err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := c.insertStructuredType(ctx, tx, st, definition, time.Now()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "failed to commit structured type")
	}

	log.Printf("catalog: registered structured type %s", id.Quoted())
	return nil
}

// insertStructuredType validates references and inserts one type row
// (must be called with lock held).
func (c *SQLiteCatalog) insertStructuredType(ctx context.Context, tx *sql.Tx, st *types.StructuredType, definition string, createdAt time.Time) error {
	id := st.Identifier()

	var exists int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM structured_types WHERE identifier = ?", id.Quoted(),
	).Scan(&exists)
	if err != nil {
		return classify(err, "failed to check structured type")
	}
	if exists > 0 {
		return tcerrors.NewCatalogError(tcerrors.CodeTypeExists,
			fmt.Sprintf("structured type %s already exists", id.Quoted()), nil)
	}

	for _, child := range st.Children() {
		if err := c.checkReferences(ctx, tx, child); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO structured_types (identifier, definition, description, created_at) VALUES (?, ?, ?, ?)",
		id.Quoted(), definition, st.Description(), createdAt.Unix(),
	)
	if err != nil {
		return classify(err, "failed to insert structured type")
	}
	return nil
}

// GetStructuredType looks up a registered structured type.
func (c *SQLiteCatalog) GetStructuredType(ctx context.Context, id types.ObjectIdentifier) (*types.StructuredType, error) {
	return c.lookupStructured(ctx, c.readDB, id)
}

// Resolver returns a parser resolver backed by the catalog.
func (c *SQLiteCatalog) Resolver(ctx context.Context) parser.ResolverFunc {
	return c.resolverFor(ctx, c.readDB)
}

func (c *SQLiteCatalog) resolverFor(ctx context.Context, q queryer) parser.ResolverFunc {
	return func(id types.ObjectIdentifier) (*types.StructuredType, error) {
		return c.lookupStructured(ctx, q, id)
	}
}

// ParseType parses s, resolving named structured types in the catalog.
func (c *SQLiteCatalog) ParseType(ctx context.Context, s string) (types.LogicalType, error) {
	return c.parseWith(ctx, c.readDB, s)
}

func (c *SQLiteCatalog) parseWith(ctx context.Context, q queryer, s string) (types.LogicalType, error) {
	t, err := parser.ParseWithResolver(s, c.resolverFor(ctx, q))
	if err != nil {
		return nil, tcerrors.NewParseError(fmt.Sprintf("invalid type %q", s), err)
	}
	return t, nil
}

func (c *SQLiteCatalog) lookupStructured(ctx context.Context, q queryer, id types.ObjectIdentifier) (*types.StructuredType, error) {
	var definition, description string
	err := q.QueryRowContext(ctx,
		"SELECT definition, description FROM structured_types WHERE identifier = ?", id.Quoted(),
	).Scan(&definition, &description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tcerrors.NewCatalogError(tcerrors.CodeTypeNotFound,
				fmt.Sprintf("structured type %s not found", id.Quoted()), nil)
		}
		return nil, classify(err, "failed to read structured type")
	}
	return c.buildStructured(ctx, q, id, definition, description)
}

// buildStructured turns a stored anonymous definition back into the named type.
func (c *SQLiteCatalog) buildStructured(ctx context.Context, q queryer, id types.ObjectIdentifier, definition, description string) (*types.StructuredType, error) {
	parsed, err := parser.ParseWithResolver(definition, c.resolverFor(ctx, q))
	if err != nil {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot,
			fmt.Sprintf("stored definition of %s is unreadable", id.Quoted()), err)
	}
	anon, ok := parsed.(*types.StructuredType)
	if !ok {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot,
			fmt.Sprintf("stored definition of %s is not a structured type", id.Quoted()), nil)
	}
	st, err := types.NewStructuredType(&id, anon.Attributes()...)
	if err != nil {
		return nil, tcerrors.NewInternalError("failed to rebuild structured type", err)
	}
	return st.WithDescription(description), nil
}

// ListStructuredTypes returns all registered types in registration order.
func (c *SQLiteCatalog) ListStructuredTypes(ctx context.Context) ([]StructuredTypeRecord, error) {
	rows, err := c.readDB.QueryContext(ctx,
		"SELECT identifier, definition, description, created_at FROM structured_types ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, classify(err, "failed to list structured types")
	}

	type row struct {
		identifier, definition, description string
		createdAt                           int64
	}
	var raw []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.identifier, &r.definition, &r.description, &r.createdAt); err != nil {
			rows.Close()
			return nil, classify(err, "failed to scan structured type")
		}
		raw = append(raw, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err, "error iterating structured types")
	}

	records := make([]StructuredTypeRecord, 0, len(raw))
	for _, r := range raw {
		id, err := parseQuotedIdentifier(r.identifier)
		if err != nil {
			return nil, err
		}
		st, err := c.buildStructured(ctx, c.readDB, *id, r.definition, r.description)
		if err != nil {
			return nil, err
		}
		records = append(records, StructuredTypeRecord{
			Type:       st,
			Definition: r.definition,
			CreatedAt:  time.Unix(r.createdAt, 0),
		})
	}
	return records, nil
}

// checkReferences verifies that every named structured type inside t is
// registered with the same definition.
func (c *SQLiteCatalog) checkReferences(ctx context.Context, q queryer, t types.LogicalType) error {
	if st, ok := t.(*types.StructuredType); ok {
		if id := st.Identifier(); id != nil {
			stored, err := c.lookupStructured(ctx, q, *id)
			if err != nil {
				return err
			}
			if !types.EqualIgnoringNullability(stored, st) {
				return tcerrors.NewValidationError(tcerrors.CodeInvalidRequest,
					fmt.Sprintf("structured type %s differs from its registered definition", id.Quoted()))
			}
			return nil
		}
	}
	for _, child := range t.Children() {
		if err := c.checkReferences(ctx, q, child); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the catalog database connections.
func (c *SQLiteCatalog) Close() error {
	var firstErr error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// definitionOf renders the attributes of st as an anonymous structured type.
func definitionOf(st *types.StructuredType) (string, error) {
	anon, err := types.NewStructuredType(nil, st.Attributes()...)
	if err != nil {
		return "", err
	}
	return anon.String(), nil
}

// parseQuotedIdentifier reads a stored `catalog`.`database`.`object` key.
func parseQuotedIdentifier(s string) (*types.ObjectIdentifier, error) {
	lexer := parser.NewLexer(s)
	var parts []string
	for _, tok := range lexer.Tokenize() {
		switch tok.Type {
		case parser.TokenQuotedIdent, parser.TokenIdent:
			parts = append(parts, tok.Literal)
		case parser.TokenDot, parser.TokenEOF:
		default:
			return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot,
				fmt.Sprintf("malformed type identifier %q", s), nil)
		}
	}
	if len(parts) != 3 {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot,
			fmt.Sprintf("malformed type identifier %q", s), nil)
	}
	id, err := types.NewObjectIdentifier(parts[0], parts[1], parts[2])
	if err != nil {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot, "malformed type identifier", err)
	}
	return id, nil
}

// classify maps database errors onto catalog error codes.
func classify(err error, message string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return tcerrors.NewCatalogError(tcerrors.CodeCatalogBusy, message, err)
		}
	}
	return tcerrors.NewInternalError(message, err)
}
