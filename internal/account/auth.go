// Package account provisions the backing rows a signed-in user needs and
// resolves their current plan, status and credit balance. Persistence lives
// in the hosted backend's Postgres; this package only ensures rows exist.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized means the bearer token did not resolve to a user.
var ErrUnauthorized = errors.New("invalid or expired session token")

// User is the identity resolved from a session token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier checks session tokens against the hosted auth backend.
type Verifier struct {
	baseURL        string
	serviceRoleKey string
	client         *http.Client
}

// NewVerifier creates a token verifier. The service-role key authenticates
// this service to the auth backend; its absence is a startup-fatal condition
// checked by config validation, not here.
func NewVerifier(baseURL, serviceRoleKey string, httpClient *http.Client) *Verifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{
		baseURL:        baseURL,
		serviceRoleKey: serviceRoleKey,
		client:         httpClient,
	}
}

// Verify resolves a bearer token to its user. Any auth-backend rejection is
// ErrUnauthorized; transport problems surface as wrapped errors.
func (v *Verifier) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.serviceRoleKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth reply: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth backend error (status %d): %s", resp.StatusCode, string(body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode auth reply: %w", err)
	}
	if user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}
