package bot

import (
	"context"

	"github.com/versal-platform/botlogic/pkg/authclient"
	"github.com/versal-platform/botlogic/pkg/session"
)

// loginVerdict is the state-machine decision for one observation of the
// provider's login status.
type loginVerdict int

const (
	// verdictNoChange leaves the session untouched (pending, or an
	// unrecognized status).
	verdictNoChange loginVerdict = iota

	// verdictAuthenticated replaces the session with an authenticated one.
	verdictAuthenticated

	// verdictDiscarded deletes the session.
	verdictDiscarded
)

// loginOutcome pairs a verdict with the replacement session (for
// verdictAuthenticated) and the user-facing message. An empty message
// with verdictNoChange marks an unrecognized provider status; sweeps
// emit nothing for it and callers log it.
type loginOutcome struct {
	verdict loginVerdict
	session *session.Session
	message string
}

// evalLogin is the pure decision logic mapping a provider response to a
// session transition. Anything the provider says that is not an exact
// known status leaves the state machine where it is.
func evalLogin(res *authclient.CheckResult) loginOutcome {
	switch res.Status {
	case authclient.StatusGranted:
		if res.AccessToken == "" || res.RefreshToken == "" || res.UserID == "" {
			// Granted without usable credentials: do not advance, the
			// next check may carry the full set.
			return loginOutcome{verdict: verdictNoChange, message: msgIncompleteTokens}
		}
		return loginOutcome{
			verdict: verdictAuthenticated,
			session: session.NewAuthenticated(res.AccessToken, res.RefreshToken, res.UserID),
			message: msgLoginConfirmed,
		}

	case authclient.StatusDenied:
		return loginOutcome{verdict: verdictDiscarded, message: msgLoginDenied}

	case authclient.StatusExpired, authclient.StatusGone:
		return loginOutcome{verdict: verdictDiscarded, message: msgLoginExpired}

	case authclient.StatusPending:
		return loginOutcome{verdict: verdictNoChange, message: msgLoginWaiting}

	default:
		return loginOutcome{verdict: verdictNoChange}
	}
}

// applyLoginOutcome persists the outcome's session effect.
func (s *Service) applyLoginOutcome(ctx context.Context, chatID int64, outcome loginOutcome) error {
	switch outcome.verdict {
	case verdictAuthenticated:
		return s.store.Set(ctx, chatID, outcome.session)
	case verdictDiscarded:
		return s.store.Delete(ctx, chatID)
	default:
		return nil
	}
}
