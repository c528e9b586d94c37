// Package coreclient is the adapter to the core (resource) service. All
// methods return the raw HTTP status and body; an error is returned only
// for transport failure, which callers treat as "service unavailable".
package coreclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client invokes core service actions over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	demoMode bool
}

// New creates a client for the core service at baseURL. With demoMode
// set, every call succeeds locally without touching the network; this
// mirrors the development mode of the original deployment.
func New(baseURL string, timeout time.Duration, demoMode bool) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		demoMode: demoMode,
	}
}

// Invoke performs a generic authenticated action. params are appended to
// the fixed ID/JWT/Action query parameters the core expects.
func (c *Client) Invoke(ctx context.Context, userID, accessToken, action string, params map[string]string) (int, string, error) {
	if c.demoMode {
		return http.StatusOK, "demo", nil
	}

	q := url.Values{
		"ID":     {userID},
		"JWT":    {accessToken},
		"Action": {action},
	}
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/task?"+q.Encode(), nil)
	if err != nil {
		return 0, "", fmt.Errorf("coreclient: invoke %s: %w", action, err)
	}
	return c.do(req, action)
}

// GetNotifications fetches pending notifications for the token's user.
func (c *Client) GetNotifications(ctx context.Context, accessToken string) (int, string, error) {
	if c.demoMode {
		return http.StatusOK, "{}", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/notification", nil)
	if err != nil {
		return 0, "", fmt.Errorf("coreclient: notifications: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.do(req, "notifications")
}

// ClearNotifications removes delivered notifications. Best effort: sweep
// delivery does not depend on it succeeding.
func (c *Client) ClearNotifications(ctx context.Context, accessToken string) (int, string, error) {
	if c.demoMode {
		return http.StatusOK, "{}", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notification/clear", nil)
	if err != nil {
		return 0, "", fmt.Errorf("coreclient: clear notifications: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.do(req, "clear notifications")
}

func (c *Client) do(req *http.Request, what string) (int, string, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("coreclient: %s: %w", what, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("coreclient: %s: read body: %w", what, err)
	}
	return resp.StatusCode, string(body), nil
}
