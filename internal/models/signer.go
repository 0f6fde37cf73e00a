package models

import (
	"time"

	"github.com/google/uuid"
)

// Signer is a registered principal that may approve settlement proposals.
type Signer struct {
	// ID is the unique identifier for the signer (UUID format).
	ID string

	// Email is the signer's login (unique).
	Email string

	// DisplayName is shown next to collected signatures.
	DisplayName string

	// Address is the signer's ledger account, if known.
	Address string

	// PasswordHash is the bcrypt hash of the signer's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the signer registered.
	CreatedAt int64
}

// NewSigner creates a signer with a fresh ID and creation time.
func NewSigner(email, displayName, address, passwordHash string) *Signer {
	return &Signer{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		Address:      address,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
