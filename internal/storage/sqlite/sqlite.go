// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection keeps the version
	// checks below free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetGraph retrieves a group's graph with its edges in insertion order.
func (s *SQLiteStore) GetGraph(ctx context.Context, groupID string) (*models.Graph, error) {
	graph := &models.Graph{GroupID: groupID}
	err := s.db.QueryRowContext(ctx,
		"SELECT updated_at, version FROM graphs WHERE group_id = ?",
		groupID,
	).Scan(&graph.UpdatedAt, &graph.Version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("graph %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get graph: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT debtor, creditor, amount FROM edges WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.Edge
		if err := rows.Scan(&e.Debtor, &e.Creditor, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		graph.Edges = append(graph.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edges: %w", err)
	}

	return graph, nil
}

// PutGraph replaces the group's edge list if graph.Version matches the
// stored version.
func (s *SQLiteStore) PutGraph(ctx context.Context, graph *models.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		"SELECT version FROM graphs WHERE group_id = ?",
		graph.GroupID,
	).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read graph version: %w", err)
	}
	if current != graph.Version {
		return fmt.Errorf("graph %s at version %d, have %d: %w",
			graph.GroupID, current, graph.Version, storage.ErrVersionConflict)
	}

	next := graph.Version + 1
	_, err = tx.ExecContext(ctx,
		`INSERT INTO graphs (group_id, updated_at, version) VALUES (?, ?, ?)
		 ON CONFLICT(group_id) DO UPDATE SET updated_at = excluded.updated_at, version = excluded.version`,
		graph.GroupID, graph.UpdatedAt, next,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert graph: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM edges WHERE group_id = ?", graph.GroupID); err != nil {
		return fmt.Errorf("failed to clear edges: %w", err)
	}

	for i, e := range graph.Edges {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO edges (group_id, position, debtor, creditor, amount) VALUES (?, ?, ?, ?, ?)",
			graph.GroupID, i, e.Debtor, e.Creditor, e.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	graph.Version = next
	return nil
}
