package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new signer with the given email and credential.
	// address is the signer's ledger account and may be empty.
	Register(ctx context.Context, email, displayName, address, credential string) (*models.Signer, error)

	// Authenticate verifies the signer's credentials and returns the signer if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.Signer, error)

	// Lookup returns a registered signer by ID.
	Lookup(ctx context.Context, signerID string) (*models.Signer, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
