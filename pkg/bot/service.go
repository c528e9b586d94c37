// Package bot implements the session lifecycle state machine, the
// command dispatcher, and the two reconciliation sweeps. It is the core
// between the chat transport and the auth/core backends.
package bot

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/versal-platform/botlogic/pkg/authclient"
	"github.com/versal-platform/botlogic/pkg/logging"
	"github.com/versal-platform/botlogic/pkg/session"
)

// AuthAPI is the identity provider adapter consumed by the service.
// Implementations never panic; any returned error means "unavailable"
// and must not cause a state transition.
type AuthAPI interface {
	StartLogin(ctx context.Context, provider, loginToken string) (string, error)
	CheckLogin(ctx context.Context, loginToken string) (*authclient.CheckResult, error)
	VerifyCode(ctx context.Context, code string) (*authclient.VerifyResult, error)
	Refresh(ctx context.Context, refreshToken string) (*authclient.TokenPair, error)
	LogoutAll(ctx context.Context, refreshToken string) error
}

// CoreAPI is the resource service adapter consumed by the service.
type CoreAPI interface {
	Invoke(ctx context.Context, userID, accessToken, action string, params map[string]string) (int, string, error)
	GetNotifications(ctx context.Context, accessToken string) (int, string, error)
	ClearNotifications(ctx context.Context, accessToken string) (int, string, error)
}

// Service dispatches chat messages and runs the reconciliation sweeps.
// It holds no per-chat state of its own; everything lives in the session
// store, so concurrent messages for different chats are independent.
type Service struct {
	store  *session.Store
	auth   AuthAPI
	core   CoreAPI
	logger logging.Logger
}

// New creates a Service.
func New(store *session.Store, auth AuthAPI, core CoreAPI, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewSimpleLogger("bot", logging.LevelInfo)
	}
	return &Service{
		store:  store,
		auth:   auth,
		core:   core,
		logger: logger.WithModule("bot"),
	}
}

var codeShape = regexp.MustCompile(`^[0-9]{4,8}$`)

// command extracts the leading command token, lowercased, or "" when the
// text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

var publicCommands = map[string]bool{
	"/start":  true,
	"/menu":   true,
	"/help":   true,
	"/me":     true,
	"/login":  true,
	"/logout": true,
}

// Handle processes one inbound chat message and returns the ordered
// reply lines. It never fails: every error path resolves to a message
// and a defined session state.
func (s *Service) Handle(ctx context.Context, chatID int64, text string) []string {
	text = strings.TrimSpace(text)
	cmd := command(text)
	s.logger.Debug("incoming message", "chat_id", chatID, "command", cmd)

	sess, err := s.store.Get(ctx, chatID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		s.logger.Error("session load failed", "chat_id", chatID, "error", err)
		return []string{msgStoreUnavailable}
	}

	if publicCommands[cmd] {
		return s.handlePublic(ctx, chatID, cmd, text, sess)
	}

	if sess == nil {
		return []string{msgNotLoggedIn, msgLoginOptions}
	}

	switch sess.Status {
	case session.StatusAwaitingCode:
		return s.handleCodeEntry(ctx, chatID, text)

	case session.StatusLoginPending:
		return s.handlePendingMessage(ctx, chatID, text, sess)

	case session.StatusAuthenticated:
		return s.dispatchAuthenticated(ctx, chatID, text, sess)

	default:
		// A record in an unknown state is as good as no session.
		s.logger.Warn("session in unknown status", "chat_id", chatID, "status", sess.Status)
		return []string{msgNotLoggedIn, msgLoginOptions}
	}
}

// handlePendingMessage reconciles a pending login inline, then either
// reports progress or, if the login just completed, dispatches the
// message against the fresh credentials.
func (s *Service) handlePendingMessage(ctx context.Context, chatID int64, text string, sess *session.Session) []string {
	if sess.LoginToken == "" {
		// Unreachable via the constructors; repair by discarding.
		if err := s.store.Delete(ctx, chatID); err != nil {
			s.logger.Error("session delete failed", "chat_id", chatID, "error", err)
		}
		return []string{msgNotLoggedIn, msgLoginOptions}
	}

	res, err := s.auth.CheckLogin(ctx, sess.LoginToken)
	if err != nil {
		s.logger.Warn("auth service unavailable", "chat_id", chatID, "error", err)
		return []string{msgAuthUnavailable, msgTryLater}
	}

	outcome := evalLogin(res)
	if outcome.verdict == verdictNoChange && outcome.message == "" {
		s.logger.Warn("unrecognized provider status ignored", "chat_id", chatID)
	}
	if err := s.applyLoginOutcome(ctx, chatID, outcome); err != nil {
		s.logger.Error("session update failed", "chat_id", chatID, "error", err)
		return []string{msgStoreUnavailable}
	}

	if outcome.verdict != verdictAuthenticated {
		if outcome.message == "" {
			return []string{msgLoginWaiting}
		}
		return []string{outcome.message}
	}
	return s.dispatchAuthenticated(ctx, chatID, text, outcome.session)
}

// handleCodeEntry expects a bare 4-8 digit code; anything else re-prompts
// without a transition.
func (s *Service) handleCodeEntry(ctx context.Context, chatID int64, text string) []string {
	if !codeShape.MatchString(text) {
		return []string{msgCodePrompt}
	}

	res, err := s.auth.VerifyCode(ctx, text)
	if err != nil {
		s.logger.Warn("auth service unavailable", "chat_id", chatID, "error", err)
		return []string{msgAuthUnavailable, msgTryLater}
	}
	if !res.Success {
		return []string{msgCodeRejected}
	}
	if res.AccessToken == "" || res.RefreshToken == "" || res.UserID == "" {
		s.logger.Error("auth service returned incomplete credentials", "chat_id", chatID)
		return []string{msgIncompleteTokens}
	}

	sess := session.NewAuthenticated(res.AccessToken, res.RefreshToken, res.UserID)
	if err := s.store.Set(ctx, chatID, sess); err != nil {
		s.logger.Error("session save failed", "chat_id", chatID, "error", err)
		return []string{msgStoreUnavailable}
	}
	return []string{msgAuthorized}
}

// handlePublic serves the commands available in every state.
func (s *Service) handlePublic(ctx context.Context, chatID int64, cmd, text string, sess *session.Session) []string {
	switch cmd {
	case "/start", "/menu", "/help":
		return helpLines()

	case "/me":
		return []string{s.statusLine(sess)}

	case "/logout":
		return s.handleLogout(ctx, chatID, text, sess)

	case "/login":
		return s.handleLogin(ctx, chatID, text)
	}
	return []string{msgUnknownCommand}
}

func (s *Service) statusLine(sess *session.Session) string {
	if sess == nil {
		return msgStatusAnonymous
	}
	switch sess.Status {
	case session.StatusLoginPending:
		return msgStatusPending
	case session.StatusAwaitingCode:
		return msgStatusAwaitingCode
	case session.StatusAuthenticated:
		return msgStatusAuthenticated
	}
	return msgStatusUnknown
}

// handleLogout deletes the session unconditionally. With "all=true" it
// also asks the provider to revoke every device, best effort.
func (s *Service) handleLogout(ctx context.Context, chatID int64, text string, sess *session.Session) []string {
	if err := s.store.Delete(ctx, chatID); err != nil {
		s.logger.Error("session delete failed", "chat_id", chatID, "error", err)
		return []string{msgStoreUnavailable}
	}
	if strings.Contains(strings.ToLower(text), "all=true") && sess != nil && sess.RefreshToken != "" {
		if err := s.auth.LogoutAll(ctx, sess.RefreshToken); err != nil {
			s.logger.Warn("provider logout-all failed", "chat_id", chatID, "error", err)
		}
	}
	return []string{msgLoggedOut}
}

// handleLogin starts a login flow, overwriting any existing session
// (last write wins).
func (s *Service) handleLogin(ctx context.Context, chatID int64, text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return []string{msgLoginOptions}
	}
	provider := strings.ToLower(fields[1])

	if provider == "code" {
		if err := s.store.Set(ctx, chatID, session.NewAwaitingCode()); err != nil {
			s.logger.Error("session save failed", "chat_id", chatID, "error", err)
			return []string{msgStoreUnavailable}
		}
		return []string{msgCodePrompt}
	}

	loginToken := uuid.NewString()
	if err := s.store.Set(ctx, chatID, session.NewLoginPending(loginToken)); err != nil {
		s.logger.Error("session save failed", "chat_id", chatID, "error", err)
		return []string{msgStoreUnavailable}
	}

	link, err := s.auth.StartLogin(ctx, provider, loginToken)
	if err != nil {
		// The pending session stays: the login sweep will pick the
		// attempt up once the auth service is reachable again.
		s.logger.Warn("auth service unavailable", "chat_id", chatID, "error", err)
		return []string{msgAuthUnavailable, msgLoginSavedAnyway}
	}

	return []string{msgLoginStarting, link, msgLoginWillConfirm}
}
