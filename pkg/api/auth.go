package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// AuthServiceName is the fully-qualified name of the auth service.
const AuthServiceName = "netting.v1.AuthService"

const (
	AuthServiceRegisterProcedure         = "/netting.v1.AuthService/Register"
	AuthServiceLoginProcedure            = "/netting.v1.AuthService/Login"
	AuthServiceLogoutProcedure           = "/netting.v1.AuthService/Logout"
	AuthServiceGetCurrentSignerProcedure = "/netting.v1.AuthService/GetCurrentSigner"
)

type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[SessionResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error)
	Logout(context.Context, *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error)
	GetCurrentSigner(context.Context, *connect.Request[GetCurrentSignerRequest]) (*connect.Response[GetCurrentSignerResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service
// implementation and returns it with its mount path.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		AuthServiceRegisterProcedure:         connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...),
		AuthServiceLoginProcedure:            connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceLogoutProcedure:           connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...),
		AuthServiceGetCurrentSignerProcedure: connect.NewUnaryHandler(AuthServiceGetCurrentSignerProcedure, svc.GetCurrentSigner, opts...),
	}
	return "/" + AuthServiceName + "/", route(routes)
}

type AuthServiceClient struct {
	register         *connect.Client[RegisterRequest, SessionResponse]
	login            *connect.Client[LoginRequest, SessionResponse]
	logout           *connect.Client[LogoutRequest, LogoutResponse]
	getCurrentSigner *connect.Client[GetCurrentSignerRequest, GetCurrentSignerResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:         connect.NewClient[RegisterRequest, SessionResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:            connect.NewClient[LoginRequest, SessionResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		logout:           connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		getCurrentSigner: connect.NewClient[GetCurrentSignerRequest, GetCurrentSignerResponse](httpClient, baseURL+AuthServiceGetCurrentSignerProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[SessionResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentSigner(ctx context.Context, req *connect.Request[GetCurrentSignerRequest]) (*connect.Response[GetCurrentSignerResponse], error) {
	return c.getCurrentSigner.CallUnary(ctx, req)
}
