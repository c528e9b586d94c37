package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/versal-platform/botlogic/pkg/session"
)

var (
	// errReauth means the credentials are terminally dead: the core
	// rejected them and a refresh could not produce a working pair.
	errReauth = errors.New("bot: re-authentication required")

	// errUnavailable means the core or auth transport failed; nothing
	// about the session can be concluded.
	errUnavailable = errors.New("bot: backend unavailable")
)

// coreCall is one core request parameterized by the current credentials.
type coreCall func(ctx context.Context, userID, accessToken string) (int, string, error)

// callAuthenticated runs call with the session's credentials, applying
// the refresh-and-retry protocol: on an authorization failure it
// refreshes the token pair exactly once and retries the call exactly
// once. A successful refresh is persisted before the retry. The caller
// decides what a terminal errReauth does to the session.
func (s *Service) callAuthenticated(ctx context.Context, chatID int64, sess *session.Session, call coreCall) (int, string, error) {
	status, body, err := call(ctx, sess.UserID, sess.AccessToken)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", errUnavailable, err)
	}
	if !isAuthFailure(status, body) {
		return status, body, nil
	}

	pair, err := s.auth.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed", "chat_id", chatID, "error", err)
		return 0, "", errReauth
	}

	sess.SetTokens(pair.AccessToken, pair.RefreshToken)
	if err := s.store.Set(ctx, chatID, sess); err != nil {
		// The retry still runs with the fresh in-memory tokens; the
		// stale record only costs one extra refresh later.
		s.logger.Error("session save after refresh failed", "chat_id", chatID, "error", err)
	}

	status, body, err = call(ctx, sess.UserID, sess.AccessToken)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", errUnavailable, err)
	}
	if isAuthFailure(status, body) {
		return 0, "", errReauth
	}
	return status, body, nil
}
