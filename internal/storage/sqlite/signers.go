package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateSigner inserts a new signer into the database.
func (s *SQLiteStore) CreateSigner(ctx context.Context, signer *models.Signer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signers (id, email, display_name, address, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		signer.ID, signer.Email, signer.DisplayName, nullString(signer.Address), signer.PasswordHash, signer.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("signer %s: %w", signer.Email, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create signer: %w", err)
	}
	return nil
}

// GetSignerByEmail retrieves a signer by email address.
func (s *SQLiteStore) GetSignerByEmail(ctx context.Context, email string) (*models.Signer, error) {
	return s.getSigner(ctx, "email", email)
}

// GetSignerByID retrieves a signer by ID.
func (s *SQLiteStore) GetSignerByID(ctx context.Context, id string) (*models.Signer, error) {
	return s.getSigner(ctx, "id", id)
}

func (s *SQLiteStore) getSigner(ctx context.Context, column, value string) (*models.Signer, error) {
	signer := &models.Signer{}
	var address sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, address, password_hash, created_at FROM signers WHERE "+column+" = ?",
		value,
	).Scan(&signer.ID, &signer.Email, &signer.DisplayName, &address, &signer.PasswordHash, &signer.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("signer %s: %w", value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signer: %w", err)
	}
	signer.Address = address.String
	return signer, nil
}

// SetGroupSigners replaces the group's signer list.
func (s *SQLiteStore) SetGroupSigners(ctx context.Context, groupID string, signerIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_signers WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to clear group signers: %w", err)
	}
	for _, id := range signerIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_signers (group_id, signer_id) VALUES (?, ?)",
			groupID, id,
		)
		if err != nil {
			return fmt.Errorf("failed to add group signer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListGroupSigners returns the group's signer IDs in sorted order.
func (s *SQLiteStore) ListGroupSigners(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT signer_id FROM group_signers WHERE group_id = ?",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group signers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group signer: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group signers: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
