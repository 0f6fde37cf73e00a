package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateProposal inserts a proposal along with its escrows and signatures.
func (s *SQLiteStore) CreateProposal(ctx context.Context, proposal *models.SettlementProposal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM proposals WHERE id = ?", proposal.ID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("proposal %s: %w", proposal.ID, storage.ErrAlreadyExists)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check proposal: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO proposals (id, group_id, status, failure_reason, created_at, updated_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		proposal.ID, proposal.GroupID, string(proposal.Status), nullString(proposal.FailureReason),
		proposal.CreatedAt, proposal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}

	if err := writeProposalChildren(ctx, tx, proposal); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	proposal.Version = 1
	return nil
}

// GetProposal retrieves a proposal by ID.
func (s *SQLiteStore) GetProposal(ctx context.Context, proposalID string) (*models.SettlementProposal, error) {
	p := &models.SettlementProposal{ID: proposalID}
	var status string
	var reason sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT group_id, status, failure_reason, created_at, updated_at, version
		 FROM proposals WHERE id = ?`,
		proposalID,
	).Scan(&p.GroupID, &status, &reason, &p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	p.Status = models.ProposalStatus(status)
	p.FailureReason = reason.String

	if err := s.loadProposalChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProposal replaces a proposal if its version matches the stored one.
func (s *SQLiteStore) UpdateProposal(ctx context.Context, proposal *models.SettlementProposal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE proposals SET status = ?, failure_reason = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(proposal.Status), nullString(proposal.FailureReason), proposal.UpdatedAt,
		proposal.ID, proposal.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM proposals WHERE id = ?", proposal.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("proposal %s: %w", proposal.ID, storage.ErrNotFound)
		}
		return fmt.Errorf("proposal %s at version %d: %w", proposal.ID, proposal.Version, storage.ErrVersionConflict)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM proposal_escrows WHERE proposal_id = ?", proposal.ID); err != nil {
		return fmt.Errorf("failed to clear escrows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM proposal_signatures WHERE proposal_id = ?", proposal.ID); err != nil {
		return fmt.Errorf("failed to clear signatures: %w", err)
	}
	if err := writeProposalChildren(ctx, tx, proposal); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	proposal.Version++
	return nil
}

// ListProposalsByGroup retrieves all proposals of a group, newest first.
func (s *SQLiteStore) ListProposalsByGroup(ctx context.Context, groupID string) ([]*models.SettlementProposal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, failure_reason, created_at, updated_at, version
		 FROM proposals WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	var proposals []*models.SettlementProposal
	for rows.Next() {
		p := &models.SettlementProposal{GroupID: groupID}
		var status string
		var reason sql.NullString
		if err := rows.Scan(&p.ID, &status, &reason, &p.CreatedAt, &p.UpdatedAt, &p.Version); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		p.Status = models.ProposalStatus(status)
		p.FailureReason = reason.String
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate proposals: %w", err)
	}
	// Close before loading children; the pool holds a single connection.
	rows.Close()

	for _, p := range proposals {
		if err := s.loadProposalChildren(ctx, p); err != nil {
			return nil, err
		}
	}
	return proposals, nil
}

func writeProposalChildren(ctx context.Context, tx *sql.Tx, p *models.SettlementProposal) error {
	for i, e := range p.Escrows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO proposal_escrows
			 (proposal_id, position, payer, payee, amount, payload, cancel_after,
			  tx_hash, confirmed, executed, canceled, attempts, last_error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, e.Payment.Payer, e.Payment.Payee, e.Payment.Amount, e.Payload, e.CancelAfter,
			nullString(e.TxHash), e.Confirmed, e.Executed, e.Canceled, e.Attempts, nullString(e.LastError),
		)
		if err != nil {
			return fmt.Errorf("failed to insert escrow: %w", err)
		}
	}

	for signerID, sig := range p.Signatures {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO proposal_signatures (proposal_id, signer_id, signature) VALUES (?, ?, ?)",
			p.ID, signerID, sig,
		)
		if err != nil {
			return fmt.Errorf("failed to insert signature: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadProposalChildren(ctx context.Context, p *models.SettlementProposal) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payer, payee, amount, payload, cancel_after, tx_hash,
		        confirmed, executed, canceled, attempts, last_error
		 FROM proposal_escrows WHERE proposal_id = ? ORDER BY position`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get escrows: %w", err)
	}
	for rows.Next() {
		var e models.EscrowInstruction
		var txHash, lastErr sql.NullString
		err := rows.Scan(&e.Payment.Payer, &e.Payment.Payee, &e.Payment.Amount, &e.Payload,
			&e.CancelAfter, &txHash, &e.Confirmed, &e.Executed, &e.Canceled, &e.Attempts, &lastErr)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan escrow: %w", err)
		}
		e.TxHash = txHash.String
		e.LastError = lastErr.String
		p.Escrows = append(p.Escrows, e)
		p.Payments = append(p.Payments, e.Payment)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate escrows: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		"SELECT signer_id, signature FROM proposal_signatures WHERE proposal_id = ?",
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get signatures: %w", err)
	}
	defer rows.Close()

	p.Signatures = make(map[string]string)
	for rows.Next() {
		var signerID, sig string
		if err := rows.Scan(&signerID, &sig); err != nil {
			return fmt.Errorf("failed to scan signature: %w", err)
		}
		p.Signatures[signerID] = sig
	}
	return rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
