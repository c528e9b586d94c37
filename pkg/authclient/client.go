// Package authclient is the adapter to the external auth service. Every
// method returns an error on transport failure or an unusable response;
// callers treat any error as "service unavailable" and never transition
// session state on it.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// LoginStatus is the provider's view of an in-progress login. Anything
// the decoder does not recognize becomes StatusUnknown, which callers
// must treat as a no-op.
type LoginStatus string

const (
	StatusPending LoginStatus = "pending"
	StatusGranted LoginStatus = "granted"
	StatusDenied  LoginStatus = "denied"
	StatusExpired LoginStatus = "expired"
	StatusGone    LoginStatus = "gone"
	StatusUnknown LoginStatus = "unknown"
)

// ParseLoginStatus decodes a raw provider status string.
func ParseLoginStatus(s string) LoginStatus {
	switch LoginStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending
	case StatusGranted:
		return StatusGranted
	case StatusDenied:
		return StatusDenied
	case StatusExpired:
		return StatusExpired
	case StatusGone:
		return StatusGone
	default:
		return StatusUnknown
	}
}

// CheckResult is the response to a login status check. The credential
// fields are populated only when Status is StatusGranted.
type CheckResult struct {
	Status       LoginStatus
	AccessToken  string
	RefreshToken string
	UserID       string
}

// VerifyResult is the response to a one-time-code verification.
type VerifyResult struct {
	Success      bool
	AccessToken  string
	RefreshToken string
	UserID       string
}

// TokenPair is a refreshed credential pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Client talks to the auth service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the auth service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StartLogin asks the auth service to begin a login for the given
// provider, correlated by loginToken. The response body is the link or
// code the user should be shown.
func (c *Client) StartLogin(ctx context.Context, provider, loginToken string) (string, error) {
	q := url.Values{"type": {provider}, "state": {loginToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/login?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("authclient: start login: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("authclient: start login: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("authclient: start login: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authclient: start login: status %d", resp.StatusCode)
	}
	return string(body), nil
}

// CheckLogin polls the status of an in-progress login.
func (c *Client) CheckLogin(ctx context.Context, loginToken string) (*CheckResult, error) {
	q := url.Values{"state": {loginToken}}
	var payload struct {
		Status       string `json:"status"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		UserID       string `json:"user_id"`
	}
	if err := c.getJSON(ctx, "/check?"+q.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("authclient: check login: %w", err)
	}
	return &CheckResult{
		Status:       ParseLoginStatus(payload.Status),
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		UserID:       payload.UserID,
	}, nil
}

// VerifyCode exchanges a one-time code for credentials.
func (c *Client) VerifyCode(ctx context.Context, code string) (*VerifyResult, error) {
	var payload struct {
		Success      bool   `json:"success"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		UserID       string `json:"user_id"`
	}
	if err := c.postJSON(ctx, "/verify", map[string]string{"code": code}, &payload); err != nil {
		return nil, fmt.Errorf("authclient: verify code: %w", err)
	}
	return &VerifyResult{
		Success:      payload.Success,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		UserID:       payload.UserID,
	}, nil
}

// Refresh exchanges a refresh token for a new credential pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.postJSON(ctx, "/refresh", map[string]string{"refresh_token": refreshToken}, &payload); err != nil {
		return nil, fmt.Errorf("authclient: refresh: %w", err)
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return nil, fmt.Errorf("authclient: refresh: incomplete token pair")
	}
	return &TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, nil
}

// LogoutAll revokes every refresh token of the session's user. Best
// effort: local logout proceeds regardless of the result.
func (c *Client) LogoutAll(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return fmt.Errorf("authclient: logout: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("authclient: logout: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authclient: logout: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authclient: logout: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
