package client

import (
	"context"
	"fmt"

	"github.com/nexapdf/nexa/pkg/domain"
)

// SignupRequest is the payload for creating a new account.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AuthResponse is returned by the login and signup endpoints.
type AuthResponse struct {
	User   domain.User      `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

// Login authenticates with username and password. The error payload from the
// backend is propagated unchanged (as an *APIError) so callers can map it to
// a message.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, "/auth/login/", body, &out); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &out, nil
}

// Signup registers a new account. Same contract as Login.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/auth/signup/", req, &out); err != nil {
		return nil, fmt.Errorf("client.Signup: %w", err)
	}
	return &out, nil
}

// Logout asks the backend to invalidate the refresh token. Local state is the
// caller's responsibility; this call is best-effort.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.post(ctx, "/auth/logout/", body, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// ResetGuestSession resets the backend's anonymous usage record for this
// client. Used on logout when no refresh token exists.
func (c *Client) ResetGuestSession(ctx context.Context) error {
	if err := c.post(ctx, "/auth/guest-reset/", struct{}{}, nil); err != nil {
		return fmt.Errorf("client.ResetGuestSession: %w", err)
	}
	return nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/auth/me/", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// History returns the authenticated user's processing history, newest first.
func (c *Client) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if err := c.get(ctx, "/auth/history/", &entries); err != nil {
		return nil, fmt.Errorf("client.History: %w", err)
	}
	return entries, nil
}

// RequestPasswordReset asks the backend to email a password-reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if err := c.post(ctx, "/auth/reset-password/", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("client.RequestPasswordReset: %w", err)
	}
	return nil
}

// Usage returns the current usage snapshot: authenticated accounts report
// unlimited, anonymous sessions report the daily counter and limit.
func (c *Client) Usage(ctx context.Context) (*domain.UsageInfo, error) {
	var info domain.UsageInfo
	if err := c.get(ctx, "/pdf/usage/", &info); err != nil {
		return nil, fmt.Errorf("client.Usage: %w", err)
	}
	return &info, nil
}

// Health pings the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.get(ctx, "/pdf/health/", nil); err != nil {
		return fmt.Errorf("client.Health: %w", err)
	}
	return nil
}
