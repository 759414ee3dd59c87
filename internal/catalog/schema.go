// Package catalog persists named structured types and versioned table
// schemas in SQLite, and checks schema changes and row assignments with the
// cast engine.
package catalog

// CreateStructuredTypesTableSQL creates the registry of named structured types.
// definition holds the anonymous STRUCTURED<...> summary of the attributes;
// nested named types inside it are stored by identifier.
const CreateStructuredTypesTableSQL = `
CREATE TABLE IF NOT EXISTS structured_types (
    identifier TEXT PRIMARY KEY,
    definition TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
)`

// CreateSchemaVersionsTableSQL creates the per-table schema history.
const CreateSchemaVersionsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
    table_name TEXT NOT NULL,
    version INTEGER NOT NULL,
    change_id TEXT NOT NULL UNIQUE,
    columns_json TEXT NOT NULL,
    evolution_mode TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (table_name, version)
)`

// CreateIndexesSQL creates secondary indexes.
var CreateIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_structured_types_created ON structured_types(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_schema_versions_created ON schema_versions(created_at)`,
}

// AllSchemaSQL returns all schema statements in execution order.
func AllSchemaSQL() []string {
	stmts := []string{
		CreateStructuredTypesTableSQL,
		CreateSchemaVersionsTableSQL,
	}
	return append(stmts, CreateIndexesSQL...)
}
