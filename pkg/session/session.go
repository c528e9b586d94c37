// Package session holds the per-chat authentication session and its
// persistent store.
package session

import (
	"errors"
	"fmt"
)

// Status is the session lifecycle state. A chat with no stored session
// is unauthenticated; that state is represented by absence, not by a
// Status value.
type Status string

const (
	// StatusLoginPending means an external login was started and the
	// session holds a login token awaiting provider confirmation.
	StatusLoginPending Status = "login_pending"

	// StatusAwaitingCode means the one-time-code flow was selected and
	// the next bare message is expected to be the code.
	StatusAwaitingCode Status = "awaiting_code"

	// StatusAuthenticated means the session holds live credentials.
	StatusAuthenticated Status = "authenticated"
)

// ErrNotFound is returned by the store when no session exists for a chat.
var ErrNotFound = errors.New("session: not found")

// Session is the sole persisted entity: one record per chat identity.
// Which optional fields are meaningful is determined entirely by Status;
// use the constructors so the invariants hold by construction.
type Session struct {
	Status Status `json:"status"`

	// LoginToken correlates an in-progress external login.
	// Present only in StatusLoginPending.
	LoginToken string `json:"login_token,omitempty"`

	// AccessToken / RefreshToken / UserID are present only in
	// StatusAuthenticated.
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

// NewLoginPending creates a session waiting on provider confirmation.
func NewLoginPending(loginToken string) *Session {
	return &Session{
		Status:     StatusLoginPending,
		LoginToken: loginToken,
	}
}

// NewAwaitingCode creates a session waiting on a one-time code.
func NewAwaitingCode() *Session {
	return &Session{Status: StatusAwaitingCode}
}

// NewAuthenticated creates a session holding credentials.
func NewAuthenticated(accessToken, refreshToken, userID string) *Session {
	return &Session{
		Status:       StatusAuthenticated,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       userID,
	}
}

// Authenticate transitions the session to StatusAuthenticated with the
// given credentials and clears the now-irrelevant login token.
func (s *Session) Authenticate(accessToken, refreshToken, userID string) {
	s.Status = StatusAuthenticated
	s.AccessToken = accessToken
	s.RefreshToken = refreshToken
	s.UserID = userID
	s.LoginToken = ""
}

// SetTokens replaces the credential pair after a refresh. Only valid on
// an authenticated session.
func (s *Session) SetTokens(accessToken, refreshToken string) {
	s.AccessToken = accessToken
	s.RefreshToken = refreshToken
}

// Validate checks the status/field invariants.
func (s *Session) Validate() error {
	switch s.Status {
	case StatusLoginPending:
		if s.LoginToken == "" {
			return fmt.Errorf("session: %s without login token", s.Status)
		}
		if s.AccessToken != "" || s.RefreshToken != "" || s.UserID != "" {
			return fmt.Errorf("session: %s with credentials", s.Status)
		}
	case StatusAwaitingCode:
		if s.LoginToken != "" || s.AccessToken != "" || s.RefreshToken != "" || s.UserID != "" {
			return fmt.Errorf("session: %s with stray fields", s.Status)
		}
	case StatusAuthenticated:
		if s.AccessToken == "" || s.RefreshToken == "" || s.UserID == "" {
			return fmt.Errorf("session: %s with incomplete credentials", s.Status)
		}
		if s.LoginToken != "" {
			return fmt.Errorf("session: %s with login token", s.Status)
		}
	default:
		return fmt.Errorf("session: unknown status %q", s.Status)
	}
	return nil
}
