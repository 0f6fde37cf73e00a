package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/storage/memory"
)

func newTestAuthenticator() *PasswordAuthenticator {
	a := NewPasswordAuthenticator(memory.New())
	a.cost = bcrypt.MinCost
	return a
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()

	signer, err := a.Register(ctx, "alice@example.com", "Alice", "rAlice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if signer.PasswordHash == "correct horse" {
		t.Error("Password stored in clear text")
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "alice@example.com", password: "correct horse"},
		{name: "wrong password", email: "alice@example.com", password: "wrong horse", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", password: "correct horse", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Authenticate(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && got.ID != signer.ID {
				t.Errorf("Authenticated as %s, want %s", got.ID, signer.ID)
			}
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		if _, err := a.Register(ctx, "alice@example.com", "Other", "", "another password"); !errors.Is(err, ErrEmailExists) {
			t.Errorf("Expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		if _, err := a.Register(ctx, "carol@example.com", "Carol", "", "short"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := a.Lookup(ctx, signer.ID)
		if err != nil || got.Address != "rAlice" {
			t.Errorf("Lookup = %+v, %v", got, err)
		}
		if _, err := a.Lookup(ctx, "missing"); !errors.Is(err, ErrUnknownSigner) {
			t.Errorf("Expected ErrUnknownSigner, got %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	ctx := context.Background()
	signer, err := newTestAuthenticator().Register(ctx, "alice@example.com", "Alice", "", "correct horse")
	if err != nil {
		t.Fatal(err)
	}

	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.Generate(signer)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.SignerID != signer.ID || claims.Email != signer.Email {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -time.Minute)
		old, err := expired.Generate(signer)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Validate(old); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}
