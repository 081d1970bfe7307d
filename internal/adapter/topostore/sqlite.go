// Package topostore provides topology store backends: a SQLite database
// for managed multi-tenant deployments and a YAML file for
// topology-as-code setups.
package topostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"overseer-ai/internal/domain"
)

// SQLiteStore implements domain.TopologyStore backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ domain.TopologyStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath and runs the
// schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open topology db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate topology db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS agents (
			id           TEXT PRIMARY KEY,
			tenant_id    TEXT NOT NULL,
			name         TEXT NOT NULL,
			kind         TEXT NOT NULL,
			prompt       TEXT NOT NULL DEFAULT '',
			enabled      INTEGER NOT NULL DEFAULT 1,
			metadata     TEXT NOT NULL DEFAULT '{}',
			capabilities TEXT NOT NULL DEFAULT '[]',
			parent       TEXT NOT NULL DEFAULT '',
			position     INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			UNIQUE(tenant_id, name)
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListDefinitions implements domain.TopologyStore: enabled agents for the
// tenant, supervisors before workers, siblings in declared position order.
func (s *SQLiteStore) ListDefinitions(ctx context.Context, tenantID string) ([]domain.AgentDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, kind, prompt, enabled, metadata, capabilities, parent
		FROM agents
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY CASE kind WHEN 'supervisor' THEN 0 ELSE 1 END, position, name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var defs []domain.AgentDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// Save inserts or replaces a definition. A missing ID gets a fresh ULID.
func (s *SQLiteStore) Save(ctx context.Context, d *domain.AgentDefinition, position int) error {
	if d.ID == "" {
		d.ID = ulid.Make().String()
	}
	metaJSON, err := json.Marshal(orEmptyMap(d.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	capsJSON, err := json.Marshal(orEmptySlice(d.Capabilities))
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	enabled := 0
	if d.Enabled {
		enabled = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, tenant_id, name, kind, prompt, enabled, metadata, capabilities, parent, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, name) DO UPDATE SET
			kind = excluded.kind,
			prompt = excluded.prompt,
			enabled = excluded.enabled,
			metadata = excluded.metadata,
			capabilities = excluded.capabilities,
			parent = excluded.parent,
			position = excluded.position,
			updated_at = excluded.updated_at
	`, d.ID, d.TenantID, d.Name, string(d.Kind), d.Prompt, enabled,
		string(metaJSON), string(capsJSON), d.Parent, position, now, now)
	return err
}

// Delete removes a definition by tenant and name.
func (s *SQLiteStore) Delete(ctx context.Context, tenantID, name string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM agents WHERE tenant_id = ? AND name = ?", tenantID, name)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDefinition(rows *sql.Rows) (domain.AgentDefinition, error) {
	var d domain.AgentDefinition
	var kind, metaJSON, capsJSON string
	var enabled int
	if err := rows.Scan(&d.ID, &d.TenantID, &d.Name, &kind, &d.Prompt, &enabled, &metaJSON, &capsJSON, &d.Parent); err != nil {
		return d, fmt.Errorf("scan agent: %w", err)
	}
	d.Kind = domain.AgentKind(kind)
	d.Enabled = enabled == 1
	if err := json.Unmarshal([]byte(metaJSON), &d.Metadata); err != nil {
		return d, fmt.Errorf("unmarshal metadata for %q: %w", d.Name, err)
	}
	if err := json.Unmarshal([]byte(capsJSON), &d.Capabilities); err != nil {
		return d, fmt.Errorf("unmarshal capabilities for %q: %w", d.Name, err)
	}
	return d, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
