package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versal-platform/botlogic/pkg/authclient"
	"github.com/versal-platform/botlogic/pkg/session"
)

// Scenario C: a 401 is recovered by one refresh and one retry, and the
// session ends up holding the refreshed tokens.
func TestRefreshAndRetryRecovers401(t *testing.T) {
	svc, store, auth, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	auth.refreshFn = func(refreshToken string) (*authclient.TokenPair, error) {
		assert.Equal(t, "R", refreshToken)
		return &authclient.TokenPair{AccessToken: "A2", RefreshToken: "R2"}, nil
	}
	core.invokeFn = func(inv invocation) (int, string, error) {
		if inv.AccessToken == "A" {
			return 401, "", nil
		}
		assert.Equal(t, "A2", inv.AccessToken)
		return 200, `{"name":"X"}`, nil
	}

	lines := svc.Handle(ctx, 1, "/profile_name")
	assert.Equal(t, []string{"{\n  \"name\": \"X\"\n}"}, lines)
	assert.Equal(t, 1, auth.refreshCalls)
	assert.Len(t, core.invocations, 2)

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A2", sess.AccessToken)
	assert.Equal(t, "R2", sess.RefreshToken)
	assert.Equal(t, "U1", sess.UserID)
}

func TestRefreshTriggeredByInBandMarker(t *testing.T) {
	svc, store, auth, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	auth.refreshFn = func(string) (*authclient.TokenPair, error) {
		return &authclient.TokenPair{AccessToken: "A2", RefreshToken: "R2"}, nil
	}
	core.invokeFn = func(inv invocation) (int, string, error) {
		if inv.AccessToken == "A" {
			return 200, "ERROR 401: Cannot decode token", nil
		}
		return 200, "ok", nil
	}

	assert.Equal(t, []string{"ok"}, svc.Handle(ctx, 1, "/profile_name"))
	assert.Equal(t, 1, auth.refreshCalls)
}

// Refresh failure on the interactive path surfaces a re-authenticate
// message and leaves the session alone.
func TestRefreshFailureKeepsSession(t *testing.T) {
	svc, store, _, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	core.invokeFn = func(invocation) (int, string, error) { return 401, "", nil }

	lines := svc.Handle(ctx, 1, "/profile_name")
	assert.Equal(t, []string{msgReauthenticate}, lines)

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAuthenticated, sess.Status)
	assert.Equal(t, "A", sess.AccessToken)
}

// The retry happens exactly once: a second 401 after a successful
// refresh is terminal, not another refresh.
func TestRetryHappensExactlyOnce(t *testing.T) {
	svc, store, auth, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	auth.refreshFn = func(string) (*authclient.TokenPair, error) {
		return &authclient.TokenPair{AccessToken: "A2", RefreshToken: "R2"}, nil
	}
	core.invokeFn = func(invocation) (int, string, error) { return 401, "", nil }

	lines := svc.Handle(ctx, 1, "/profile_name")
	assert.Equal(t, []string{msgReauthenticate}, lines)
	assert.Equal(t, 1, auth.refreshCalls)
	assert.Len(t, core.invocations, 2)
}

func TestTransportFailureIsNotAuthFailure(t *testing.T) {
	svc, store, auth, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	core.invokeFn = func(invocation) (int, string, error) { return 0, "", errDown }

	lines := svc.Handle(ctx, 1, "/profile_name")
	assert.Equal(t, []string{msgCoreUnavailable, msgTryLater}, lines)
	assert.Equal(t, 0, auth.refreshCalls)
}

// Domain rejections pass through the combinator without a refresh.
func TestDomainErrorIsNotRetried(t *testing.T) {
	svc, store, auth, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	core.invokeFn = func(invocation) (int, string, error) {
		return 200, "ERROR 403", nil
	}

	assert.Equal(t, []string{msgForbidden}, svc.Handle(ctx, 1, "/profile_name"))
	assert.Equal(t, 0, auth.refreshCalls)
	assert.Len(t, core.invocations, 1)
}
