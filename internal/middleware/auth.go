package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/splitledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// SignerIDKey is the context key for storing the authenticated signer ID.
	SignerIDKey contextKey = "signer_id"
	// EmailKey is the context key for storing the authenticated signer's email.
	EmailKey contextKey = "email"
)

// GetSignerID extracts the signer ID from the context.
// Returns empty string if not found.
func GetSignerID(ctx context.Context) string {
	signerID, _ := ctx.Value(SignerIDKey).(string)
	return signerID
}

// WithSigner returns a context carrying the authenticated signer.
func WithSigner(ctx context.Context, signerID, email string) context.Context {
	ctx = context.WithValue(ctx, SignerIDKey, signerID)
	return context.WithValue(ctx, EmailKey, email)
}

// GetEmail extracts the signer email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it and adds
// the signer ID and email to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			// Extract Authorization header
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}
			tokenString := parts[1]

			// Validate token
			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			// Add signer info to context
			ctx = WithSigner(ctx, claims.SignerID, claims.Email)

			// Call the next handler with enriched context
			return next(ctx, req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. Useful for services that mix public and
// signer-only procedures.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			// Extract Authorization header
			authHeader := req.Header().Get("Authorization")
			if authHeader != "" {
				// Parse Bearer token
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					tokenString := parts[1]

					// Validate token (ignore errors - optional auth)
					claims, err := jwtManager.Validate(tokenString)
					if err == nil {
						// Add signer info to context only if valid
						ctx = WithSigner(ctx, claims.SignerID, claims.Email)
					}
				}
			}

			// Call the next handler (with or without signer context)
			return next(ctx, req)
		}
	}
}

