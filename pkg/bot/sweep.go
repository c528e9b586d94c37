package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/versal-platform/botlogic/pkg/session"
)

// Outbound is one message a sweep wants the transport to deliver.
type Outbound struct {
	ChatID  int64  `json:"chat_id"`
	Message string `json:"message"`
}

// RunLoginSweep reconciles every pending login against the identity
// provider. One session failing never stops the sweep; a sweep with
// nothing to do returns an empty list and mutates nothing.
func (s *Service) RunLoginSweep(ctx context.Context) []Outbound {
	out := make([]Outbound, 0)

	entries, err := s.store.ScanByStatus(ctx, session.StatusLoginPending)
	if err != nil {
		s.logger.Error("login sweep scan failed", "error", err)
		return out
	}

	for _, e := range entries {
		if e.Session.LoginToken == "" {
			continue
		}

		res, err := s.auth.CheckLogin(ctx, e.Session.LoginToken)
		if err != nil {
			s.logger.Warn("login sweep check failed", "chat_id", e.ChatID, "error", err)
			continue
		}

		outcome := evalLogin(res)
		if outcome.verdict == verdictNoChange {
			if outcome.message == "" {
				s.logger.Warn("unrecognized provider status ignored", "chat_id", e.ChatID)
			}
			continue
		}
		if err := s.applyLoginOutcome(ctx, e.ChatID, outcome); err != nil {
			s.logger.Error("login sweep update failed", "chat_id", e.ChatID, "error", err)
			continue
		}
		out = append(out, Outbound{ChatID: e.ChatID, Message: outcome.message})
	}
	return out
}

// RunNotificationSweep polls every authenticated session for pending
// notifications and clears them after queueing delivery. Delivery is
// at-least-once: the clear call is best effort, so a failed clear may
// repeat a notification on the next sweep.
func (s *Service) RunNotificationSweep(ctx context.Context) []Outbound {
	out := make([]Outbound, 0)

	entries, err := s.store.ScanByStatus(ctx, session.StatusAuthenticated)
	if err != nil {
		s.logger.Error("notification sweep scan failed", "error", err)
		return out
	}

	for _, e := range entries {
		if e.Session.AccessToken == "" {
			continue
		}

		items, err := s.fetchNotifications(ctx, e.ChatID, e.Session)
		switch {
		case errors.Is(err, errReauth):
			// Policy: a background sweep cannot ask the user to act,
			// so a dead session is dropped here.
			if err := s.store.Delete(ctx, e.ChatID); err != nil {
				s.logger.Error("notification sweep delete failed", "chat_id", e.ChatID, "error", err)
			}
			out = append(out, Outbound{ChatID: e.ChatID, Message: msgSessionDropped})
			continue
		case err != nil:
			s.logger.Warn("notification sweep fetch failed", "chat_id", e.ChatID, "error", err)
			continue
		}

		if len(items) == 0 {
			continue
		}
		for _, item := range items {
			out = append(out, Outbound{ChatID: e.ChatID, Message: item})
		}
		if _, _, err := s.core.ClearNotifications(ctx, e.Session.AccessToken); err != nil {
			s.logger.Warn("notification clear failed", "chat_id", e.ChatID, "error", err)
		}
	}
	return out
}

// fetchNotifications retrieves pending notifications for a session with
// the refresh-and-retry protocol and decodes them into message lines.
func (s *Service) fetchNotifications(ctx context.Context, chatID int64, sess *session.Session) ([]string, error) {
	status, body, err := s.callAuthenticated(ctx, chatID, sess, func(ctx context.Context, _, accessToken string) (int, string, error) {
		return s.core.GetNotifications(ctx, accessToken)
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: notification fetch status %d", errUnavailable, status)
	}
	return parseNotifications(body), nil
}

// parseNotifications accepts the formats the core has been seen to
// produce: a bare JSON array, or an object wrapping one under
// "notifications" or "items". Items may be strings or objects carrying
// "message" or "text". Anything undecodable yields no items.
func parseNotifications(body string) []string {
	raw := []byte(body)

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil
		}
		inner, ok := wrapper["notifications"]
		if !ok {
			inner, ok = wrapper["items"]
		}
		if !ok || json.Unmarshal(inner, &items) != nil {
			return nil
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var str string
		if json.Unmarshal(item, &str) == nil {
			out = append(out, str)
			continue
		}
		var obj map[string]interface{}
		if json.Unmarshal(item, &obj) == nil {
			if msg, ok := obj["message"].(string); ok {
				out = append(out, msg)
				continue
			}
			if txt, ok := obj["text"].(string); ok {
				out = append(out, txt)
				continue
			}
		}
		out = append(out, string(item))
	}
	return out
}
