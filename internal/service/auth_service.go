package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

var _ api.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new signer account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.SessionResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	signer, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Address, req.Msg.Password)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, connectError(err)
	}

	token, err := s.jwtManager.Generate(signer)
	if err != nil {
		s.logger.Error("Failed to generate token", "signer_id", signer.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Signer registered successfully", "signer_id", signer.ID, "email", signer.Email)
	return connect.NewResponse(&api.SessionResponse{Signer: toAPISigner(signer), Token: token}), nil
}

// Login authenticates a signer and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.SessionResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	signer, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(signer)
	if err != nil {
		s.logger.Error("Failed to generate token", "signer_id", signer.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Signer logged in successfully", "signer_id", signer.ID, "email", signer.Email)
	return connect.NewResponse(&api.SessionResponse{Signer: toAPISigner(signer), Token: token}), nil
}

// Logout is a no-op: tokens are stateless and discarded by the client.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	s.logger.Info("Logout request", "signer_id", middleware.GetSignerID(ctx))
	return connect.NewResponse(&api.LogoutResponse{}), nil
}

// GetCurrentSigner returns the authenticated signer's registration.
func (s *AuthService) GetCurrentSigner(ctx context.Context, req *connect.Request[api.GetCurrentSignerRequest]) (*connect.Response[api.GetCurrentSignerResponse], error) {
	signerID := middleware.GetSignerID(ctx)
	if signerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	signer, err := s.authenticator.Lookup(ctx, signerID)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownSigner) {
			return nil, connect.NewError(connect.CodeUnauthenticated, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetCurrentSignerResponse{Signer: toAPISigner(signer)}), nil
}
