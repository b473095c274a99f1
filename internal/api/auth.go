package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

type AuthClient struct {
	core *core
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
}

type RegisterResponse struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

var errEmptyToken = errors.New("login: response has no access_token")

// Login posts credentials to /auth/login. A successful response must carry
// both a token and a user so that a session is never built from half a reply.
func (c *AuthClient) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	if err := c.core.do(ctx, "login", http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.AccessToken == "" {
		return LoginResponse{}, errEmptyToken
	}
	if err := out.User.Validate(); err != nil {
		return LoginResponse{}, errors.Join(errors.New("login: response user invalid"), err)
	}
	return out, nil
}

func (c *AuthClient) Register(ctx context.Context, reg model.Registration) (RegisterResponse, error) {
	if err := reg.Validate(); err != nil {
		return RegisterResponse{}, err
	}
	var out RegisterResponse
	if err := c.core.do(ctx, "register", http.MethodPost, "/auth/register", nil, reg, &out); err != nil {
		return RegisterResponse{}, err
	}
	return out, nil
}

// Me returns the profile for the token currently attached by the transport.
func (c *AuthClient) Me(ctx context.Context) (model.User, error) {
	var out model.User
	if err := c.core.do(ctx, "me", http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}
