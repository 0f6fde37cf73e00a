package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrUnknownSigner      = errors.New("unknown signer")
)

// SignerStorage defines the signer persistence the authenticator needs.
// storage.SignerStore satisfies it.
type SignerStorage interface {
	CreateSigner(ctx context.Context, signer *models.Signer) error
	GetSignerByEmail(ctx context.Context, email string) (*models.Signer, error)
	GetSignerByID(ctx context.Context, id string) (*models.Signer, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage SignerStorage
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage SignerStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new signer with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, address, credential string) (*models.Signer, error) {
	// Validate password strength
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	// Check if email already exists
	_, err := a.storage.GetSignerByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up signer: %w", err)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	signer := models.NewSigner(email, displayName, address, string(hashedPassword))

	// Save to storage; a concurrent registration may still win the email
	if err := a.storage.CreateSigner(ctx, signer); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	return signer, nil
}

// Authenticate verifies the email and password, returning the signer if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Signer, error) {
	signer, err := a.storage.GetSignerByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Compare password hash
	if err := bcrypt.CompareHashAndPassword([]byte(signer.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return signer, nil
}

// Lookup returns the signer with the given ID.
func (a *PasswordAuthenticator) Lookup(ctx context.Context, signerID string) (*models.Signer, error) {
	signer, err := a.storage.GetSignerByID(ctx, signerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownSigner
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signer: %w", err)
	}
	return signer, nil
}
