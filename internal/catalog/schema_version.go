package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arkilian/typecast/internal/casts"
	tcerrors "github.com/arkilian/typecast/internal/errors"
	"github.com/arkilian/typecast/pkg/types"
)

// EvolutionMode is the cast kind a schema change must satisfy.
type EvolutionMode string

const (
	// EvolutionNone accepts any change.
	EvolutionNone EvolutionMode = "none"
	// EvolutionImplicit requires implicit casts from every kept column,
	// forbids dropping columns and requires new columns to be nullable.
	EvolutionImplicit EvolutionMode = "implicit"
	// EvolutionExplicit requires explicit casts from every kept column and
	// nullable new columns; columns may be dropped.
	EvolutionExplicit EvolutionMode = "explicit"
)

// ParseEvolutionMode validates a mode name. An empty name means implicit.
func ParseEvolutionMode(s string) (EvolutionMode, error) {
	switch EvolutionMode(strings.ToLower(s)) {
	case "", EvolutionImplicit:
		return EvolutionImplicit, nil
	case EvolutionExplicit:
		return EvolutionExplicit, nil
	case EvolutionNone:
		return EvolutionNone, nil
	default:
		return "", tcerrors.NewValidationError(tcerrors.CodeInvalidRequest,
			fmt.Sprintf("invalid evolution mode %q (must be none, implicit, or explicit)", s))
	}
}

// Column is one column of a table schema.
type Column struct {
	Name        string
	Type        types.LogicalType
	Description string
}

// columnJSON is the stored form of a column; types are summary strings.
type columnJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// SchemaVersionRecord represents a stored schema version.
type SchemaVersionRecord struct {
	Table     string
	Version   int
	ChangeID  string
	Columns   []Column
	Mode      EvolutionMode
	CreatedAt time.Time
}

// RowType returns the schema as a row type.
func (r *SchemaVersionRecord) RowType() (*types.RowType, error) {
	return rowTypeOf(r.Columns)
}

// Violation describes one column that breaks the evolution mode.
type Violation struct {
	Column string
	Reason string
}

func (v Violation) String() string {
	return v.Column + ": " + v.Reason
}

// AssignmentResult is the outcome of CheckAssignment.
type AssignmentResult struct {
	Table      string
	Version    int
	Target     types.LogicalType
	Decision   casts.Decision
	Assignable bool
	Mismatches []string
}

// RegisterSchema registers a new schema. If the columns differ from the
// current version, a new version is created with an incremented version
// number after the change passes the evolution check. If they match, the
// existing version is returned.
func (c *SQLiteCatalog) RegisterSchema(ctx context.Context, table string, columns []Column, mode EvolutionMode) (*SchemaVersionRecord, error) {
	if strings.TrimSpace(table) == "" {
		return nil, tcerrors.NewValidationError(tcerrors.CodeInvalidName, "table name is required")
	}
	if len(columns) == 0 {
		return nil, tcerrors.NewValidationError(tcerrors.CodeInvalidRequest, "schema must have at least one column")
	}
	if _, err := rowTypeOf(columns); err != nil {
		return nil, tcerrors.NewValidationError(tcerrors.CodeInvalidName, err.Error())
	}
	mode, err := ParseEvolutionMode(string(mode))
	if err != nil {
		return nil, err
	}
	columnsJSON, err := encodeColumns(columns)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, col := range columns {
		if err := c.checkReferences(ctx, tx, col.Type); err != nil {
			return nil, err
		}
	}

	currentVersion, err := c.currentVersion(ctx, tx, table)
	if err != nil {
		return nil, err
	}

	if currentVersion > 0 {
		current, err := c.schemaVersion(ctx, tx, table, currentVersion)
		if err != nil {
			return nil, err
		}
		if columnsEqual(current.Columns, columns) {
			return current, nil
		}
		if violations := checkEvolution(c.decide, current.Columns, columns, mode); len(violations) > 0 {
			names := make([]string, len(violations))
			reasons := make([]string, len(violations))
			for i, v := range violations {
				names[i] = v.Column
				reasons[i] = v.String()
			}
			return nil, tcerrors.NewValidationError(tcerrors.CodeIncompatibleSchema,
				fmt.Sprintf("schema change for %s violates %s evolution: %s", table, mode, strings.Join(reasons, "; ")),
			).WithDetails(map[string]interface{}{"columns": names, "violations": reasons})
		}
	}

	record := &SchemaVersionRecord{
		Table:     table,
		Version:   currentVersion + 1,
		ChangeID:  uuid.NewString(),
		Columns:   append([]Column(nil), columns...),
		Mode:      mode,
		CreatedAt: time.Unix(time.Now().Unix(), 0),
	}
	if err := insertVersion(ctx, tx, record, columnsJSON); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err, "failed to commit schema version")
	}

	log.Printf("catalog: registered schema %s version %d (change %s)", table, record.Version, record.ChangeID)
	return record, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, r *SchemaVersionRecord, columnsJSON string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO schema_versions (table_name, version, change_id, columns_json, evolution_mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Table, r.Version, r.ChangeID, columnsJSON, string(r.Mode), r.CreatedAt.Unix(),
	)
	if err != nil {
		return classify(err, fmt.Sprintf("failed to insert version %d of %s", r.Version, r.Table))
	}
	return nil
}

// GetCurrentVersion returns the latest schema version number of table.
// Returns 0 if no schema versions have been registered.
func (c *SQLiteCatalog) GetCurrentVersion(ctx context.Context, table string) (int, error) {
	return c.currentVersion(ctx, c.readDB, table)
}

func (c *SQLiteCatalog) currentVersion(ctx context.Context, q queryer, table string) (int, error) {
	var version int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_versions WHERE table_name = ?", table,
	).Scan(&version)
	if err != nil {
		return 0, classify(err, "failed to get current version")
	}
	return version, nil
}

// GetSchemaVersion retrieves a specific schema version record.
func (c *SQLiteCatalog) GetSchemaVersion(ctx context.Context, table string, version int) (*SchemaVersionRecord, error) {
	return c.schemaVersion(ctx, c.readDB, table, version)
}

func (c *SQLiteCatalog) schemaVersion(ctx context.Context, q queryer, table string, version int) (*SchemaVersionRecord, error) {
	var changeID, columnsJSON, mode string
	var createdAtUnix int64

	err := q.QueryRowContext(ctx,
		`SELECT change_id, columns_json, evolution_mode, created_at
		FROM schema_versions WHERE table_name = ? AND version = ?`,
		table, version,
	).Scan(&changeID, &columnsJSON, &mode, &createdAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tcerrors.NewCatalogError(tcerrors.CodeVersionNotFound,
				fmt.Sprintf("table %s has no schema version %d", table, version), nil)
		}
		return nil, classify(err, fmt.Sprintf("failed to get version %d of %s", version, table))
	}

	columns, err := c.decodeColumns(ctx, q, columnsJSON)
	if err != nil {
		return nil, err
	}

	return &SchemaVersionRecord{
		Table:     table,
		Version:   version,
		ChangeID:  changeID,
		Columns:   columns,
		Mode:      EvolutionMode(mode),
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

// ListVersions returns all schema versions of table ordered by version number.
func (c *SQLiteCatalog) ListVersions(ctx context.Context, table string) ([]SchemaVersionRecord, error) {
	rows, err := c.readDB.QueryContext(ctx,
		`SELECT version, change_id, columns_json, evolution_mode, created_at
		FROM schema_versions WHERE table_name = ? ORDER BY version ASC`,
		table,
	)
	if err != nil {
		return nil, classify(err, "failed to list versions")
	}
	defer rows.Close()

	var records []SchemaVersionRecord
	for rows.Next() {
		var version int
		var changeID, columnsJSON, mode string
		var createdAtUnix int64

		if err := rows.Scan(&version, &changeID, &columnsJSON, &mode, &createdAtUnix); err != nil {
			return nil, classify(err, "failed to scan version")
		}

		columns, err := c.decodeColumns(ctx, c.readDB, columnsJSON)
		if err != nil {
			return nil, err
		}

		records = append(records, SchemaVersionRecord{
			Table:     table,
			Version:   version,
			ChangeID:  changeID,
			Columns:   columns,
			Mode:      EvolutionMode(mode),
			CreatedAt: time.Unix(createdAtUnix, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "error iterating versions")
	}

	if len(records) == 0 {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeTableNotFound,
			fmt.Sprintf("table %s has no registered schema", table), nil)
	}
	return records, nil
}

// ListTables returns the names of all tables with a registered schema.
func (c *SQLiteCatalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.readDB.QueryContext(ctx,
		"SELECT DISTINCT table_name FROM schema_versions ORDER BY table_name",
	)
	if err != nil {
		return nil, classify(err, "failed to list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "error iterating tables")
	}
	return tables, nil
}

// CheckAssignment reports whether a value of type source can be inserted
// into table, i.e. whether it implicitly casts to the current row type.
func (c *SQLiteCatalog) CheckAssignment(ctx context.Context, table string, source types.LogicalType) (*AssignmentResult, error) {
	if source == nil {
		return nil, tcerrors.NewValidationError(tcerrors.CodeInvalidRequest, "source type is required")
	}

	version, err := c.GetCurrentVersion(ctx, table)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeTableNotFound,
			fmt.Sprintf("table %s has no registered schema", table), nil)
	}

	record, err := c.GetSchemaVersion(ctx, table, version)
	if err != nil {
		return nil, err
	}
	target, err := record.RowType()
	if err != nil {
		return nil, tcerrors.NewInternalError("failed to build row type", err)
	}

	decision := c.decide(source, target)
	result := &AssignmentResult{
		Table:      table,
		Version:    version,
		Target:     target,
		Decision:   decision,
		Assignable: decision.Implicit,
	}
	if !decision.Implicit {
		result.Mismatches = c.mismatches(source, target, record.Columns)
	}
	return result, nil
}

// mismatches explains a failed assignment column by column.
func (c *SQLiteCatalog) mismatches(source types.LogicalType, target *types.RowType, columns []Column) []string {
	if source.Root() != types.RootRow && source.Root() != types.RootStructured {
		return []string{fmt.Sprintf("%s is not a row type", source)}
	}
	if source.IsNullable() && !target.IsNullable() {
		return []string{"nullable row cannot be assigned to a NOT NULL row"}
	}

	sourceChildren := source.Children()
	if len(sourceChildren) != len(columns) {
		return []string{fmt.Sprintf("expected %d columns, got %d", len(columns), len(sourceChildren))}
	}

	var out []string
	for i, col := range columns {
		if !c.decide(sourceChildren[i], col.Type).Implicit {
			out = append(out, fmt.Sprintf("column %s: %s cannot be assigned to %s", col.Name, sourceChildren[i], col.Type))
		}
	}
	return out
}

// checkEvolution lists the columns of next that break mode relative to prev.
func checkEvolution(decide casts.ResolveFunc, prev, next []Column, mode EvolutionMode) []Violation {
	if mode == EvolutionNone {
		return nil
	}

	prevByName := make(map[string]Column, len(prev))
	for _, col := range prev {
		prevByName[col.Name] = col
	}

	var violations []Violation
	kept := make(map[string]bool, len(next))
	for _, col := range next {
		old, ok := prevByName[col.Name]
		if !ok {
			if !col.Type.IsNullable() {
				violations = append(violations, Violation{col.Name, "new column must be nullable"})
			}
			continue
		}
		kept[col.Name] = true

		d := decide(old.Type, col.Type)
		allowed := d.Implicit || (mode == EvolutionExplicit && d.Explicit)
		if !allowed {
			violations = append(violations, Violation{col.Name,
				fmt.Sprintf("%s cannot be cast %s to %s", old.Type, mode, col.Type)})
		}
	}

	if mode == EvolutionImplicit {
		for _, col := range prev {
			if !kept[col.Name] {
				violations = append(violations, Violation{col.Name, "column cannot be dropped"})
			}
		}
	}
	return violations
}

func rowTypeOf(columns []Column) (*types.RowType, error) {
	fields := make([]types.RowField, len(columns))
	for i, col := range columns {
		fields[i] = types.RowField{Name: col.Name, Type: col.Type, Description: col.Description}
	}
	return types.NewRowType(fields...)
}

func columnsEqual(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Description != b[i].Description || !types.Equal(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

func encodeColumns(columns []Column) (string, error) {
	stored := make([]columnJSON, len(columns))
	for i, col := range columns {
		stored[i] = columnJSON{Name: col.Name, Type: col.Type.String(), Description: col.Description}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", tcerrors.NewInternalError("failed to marshal columns", err)
	}
	return string(data), nil
}

func (c *SQLiteCatalog) decodeColumns(ctx context.Context, q queryer, columnsJSON string) ([]Column, error) {
	var stored []columnJSON
	if err := json.Unmarshal([]byte(columnsJSON), &stored); err != nil {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot, "failed to unmarshal columns", err)
	}

	columns := make([]Column, len(stored))
	for i, sc := range stored {
		t, err := c.parseWith(ctx, q, sc.Type)
		if err != nil {
			return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot,
				fmt.Sprintf("stored type of column %s is unreadable", sc.Name), err)
		}
		columns[i] = Column{Name: sc.Name, Type: t, Description: sc.Description}
	}
	return columns, nil
}
