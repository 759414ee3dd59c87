package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang/snappy"

	tcerrors "github.com/arkilian/typecast/internal/errors"
	"github.com/arkilian/typecast/internal/storage"
)

// SnapshotFormatVersion is written into every snapshot.
const SnapshotFormatVersion = 1

// Snapshot is the JSON document stored (snappy-compressed) in object storage.
type Snapshot struct {
	FormatVersion int              `json:"format_version"`
	ExportedAt    time.Time        `json:"exported_at"`
	Types         []SnapshotType   `json:"types"`
	Schemas       []SnapshotSchema `json:"schemas"`
}

// SnapshotType is one registered structured type, in registration order.
type SnapshotType struct {
	Identifier  string `json:"identifier"`
	Definition  string `json:"definition"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// SnapshotSchema is one table schema version.
type SnapshotSchema struct {
	Table     string       `json:"table"`
	Version   int          `json:"version"`
	ChangeID  string       `json:"change_id"`
	Mode      string       `json:"evolution_mode"`
	Columns   []columnJSON `json:"columns"`
	CreatedAt int64        `json:"created_at"`
}

// SnapshotInfo summarizes an exported or imported snapshot.
type SnapshotInfo struct {
	Key       string
	ETag      string
	Types     int
	Schemas   int
	SizeBytes int
}

// ExportSnapshot writes the whole catalog to key in store.
func (c *SQLiteCatalog) ExportSnapshot(ctx context.Context, store storage.ObjectStorage, key string) (*SnapshotInfo, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, tcerrors.NewInternalError("failed to marshal snapshot", err)
	}
	compressed := snappy.Encode(nil, payload)

	etag, err := store.Put(ctx, key, compressed)
	if err != nil {
		return nil, tcerrors.NewStorageError(tcerrors.CodeUploadFailed,
			fmt.Sprintf("failed to upload snapshot %s", key), err)
	}

	log.Printf("catalog: exported snapshot %s (%d types, %d schema versions, %d bytes)",
		key, len(snap.Types), len(snap.Schemas), len(compressed))

	return &SnapshotInfo{
		Key:       key,
		ETag:      etag,
		Types:     len(snap.Types),
		Schemas:   len(snap.Schemas),
		SizeBytes: len(compressed),
	}, nil
}

// snapshot reads every row in one read-only transaction.
func (c *SQLiteCatalog) snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := c.readDB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, classify(err, "failed to begin snapshot transaction")
	}
	defer tx.Rollback()

	snap := &Snapshot{
		FormatVersion: SnapshotFormatVersion,
		ExportedAt:    time.Now().UTC(),
		Types:         []SnapshotType{},
		Schemas:       []SnapshotSchema{},
	}

	typeRows, err := tx.QueryContext(ctx,
		"SELECT identifier, definition, description, created_at FROM structured_types ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, classify(err, "failed to read structured types")
	}
	for typeRows.Next() {
		var st SnapshotType
		if err := typeRows.Scan(&st.Identifier, &st.Definition, &st.Description, &st.CreatedAt); err != nil {
			typeRows.Close()
			return nil, classify(err, "failed to scan structured type")
		}
		snap.Types = append(snap.Types, st)
	}
	typeRows.Close()
	if err := typeRows.Err(); err != nil {
		return nil, classify(err, "error iterating structured types")
	}

	schemaRows, err := tx.QueryContext(ctx,
		`SELECT table_name, version, change_id, evolution_mode, columns_json, created_at
		FROM schema_versions ORDER BY table_name, version`,
	)
	if err != nil {
		return nil, classify(err, "failed to read schema versions")
	}
	defer schemaRows.Close()
	for schemaRows.Next() {
		var ss SnapshotSchema
		var columnsJSON string
		if err := schemaRows.Scan(&ss.Table, &ss.Version, &ss.ChangeID, &ss.Mode, &columnsJSON, &ss.CreatedAt); err != nil {
			return nil, classify(err, "failed to scan schema version")
		}
		if err := json.Unmarshal([]byte(columnsJSON), &ss.Columns); err != nil {
			return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot, "failed to unmarshal columns", err)
		}
		snap.Schemas = append(snap.Schemas, ss)
	}
	if err := schemaRows.Err(); err != nil {
		return nil, classify(err, "error iterating schema versions")
	}

	return snap, nil
}

// ImportSnapshot loads a snapshot from key into an empty catalog. Every type
// and column is re-validated; the import is all-or-nothing.
func (c *SQLiteCatalog) ImportSnapshot(ctx context.Context, store storage.ObjectStorage, key string) (*SnapshotInfo, error) {
	compressed, etag, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, tcerrors.NewStorageError(tcerrors.CodeObjectNotFound,
				fmt.Sprintf("snapshot %s not found", key), err)
		}
		return nil, tcerrors.NewStorageError(tcerrors.CodeDownloadFailed,
			fmt.Sprintf("failed to download snapshot %s", key), err)
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot, "snapshot is not snappy-compressed", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot, "snapshot is not valid JSON", err)
	}
	if snap.FormatVersion != SnapshotFormatVersion {
		return nil, tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot,
			fmt.Sprintf("unsupported snapshot format version %d", snap.FormatVersion), nil)
	}

	if err := c.restore(ctx, &snap); err != nil {
		return nil, err
	}

	log.Printf("catalog: imported snapshot %s (%d types, %d schema versions)", key, len(snap.Types), len(snap.Schemas))

	return &SnapshotInfo{
		Key:       key,
		ETag:      etag,
		Types:     len(snap.Types),
		Schemas:   len(snap.Schemas),
		SizeBytes: len(compressed),
	}, nil
}

func (c *SQLiteCatalog) restore(ctx context.Context, snap *Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "failed to begin import transaction")
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM structured_types) + (SELECT COUNT(*) FROM schema_versions)",
	).Scan(&count)
	if err != nil {
		return classify(err, "failed to count catalog rows")
	}
	if count > 0 {
		return tcerrors.NewCatalogError(tcerrors.CodeCatalogNotEmpty,
			"snapshots can only be imported into an empty catalog", nil)
	}

	for _, t := range snap.Types {
		id, err := parseQuotedIdentifier(t.Identifier)
		if err != nil {
			return err
		}
		st, err := c.buildStructured(ctx, tx, *id, t.Definition, t.Description)
		if err != nil {
			return err
		}
		if err := c.insertStructuredType(ctx, tx, st, t.Definition, time.Unix(t.CreatedAt, 0)); err != nil {
			return err
		}
	}

	for _, s := range snap.Schemas {
		mode, err := ParseEvolutionMode(s.Mode)
		if err != nil {
			return err
		}
		data, err := json.Marshal(s.Columns)
		if err != nil {
			return tcerrors.NewInternalError("failed to marshal columns", err)
		}
		columns, err := c.decodeColumns(ctx, tx, string(data))
		if err != nil {
			return err
		}
		if _, err := rowTypeOf(columns); err != nil {
			return tcerrors.NewCatalogError(tcerrors.CodeCorruptSnapshot,
				fmt.Sprintf("schema %s version %d is invalid", s.Table, s.Version), err)
		}
		record := &SchemaVersionRecord{
			Table:     s.Table,
			Version:   s.Version,
			ChangeID:  s.ChangeID,
			Mode:      mode,
			CreatedAt: time.Unix(s.CreatedAt, 0),
		}
		if err := insertVersion(ctx, tx, record, string(data)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "failed to commit import")
	}
	return nil
}
