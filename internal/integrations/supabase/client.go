// Package supabase talks to the hosted auth backend. Only the two auth calls
// this service needs are implemented: signup and token introspection.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

type Client struct {
	baseURL string
	anonKey string
	httpc   *http.Client
}

func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// User is the authenticated identity behind a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthError carries the upstream status so handlers can distinguish bad input
// (signup 4xx) from a dead backend.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("supabase http %d: %s", e.StatusCode, e.Message)
}

// SignUp registers a new account. The returned document is the upstream
// response body, passed through to the API caller as-is.
func (c *Client) SignUp(ctx context.Context, email, password string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, errors.Wrap(err, "marshal signup request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/signup", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode/100 != 2 {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// GetUser resolves a bearer token to the account it belongs to. Any non-2xx
// answer means the token is missing, expired or forged.
func (c *Client) GetUser(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return User{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return User{}, errors.Wrap(err, "read response")
	}

	if resp.StatusCode/100 != 2 {
		return User{}, &AuthError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, errors.Wrap(err, "decode user")
	}
	if u.Email == "" {
		return User{}, &AuthError{StatusCode: resp.StatusCode, Message: "user has no email"}
	}
	return u, nil
}

func errorMessage(raw []byte) string {
	var doc map[string]any
	if json.Unmarshal(raw, &doc) == nil {
		for _, k := range []string{"msg", "message", "error_description", "error"} {
			if s, ok := doc[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return "Unauthorized"
}
