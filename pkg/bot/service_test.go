package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versal-platform/botlogic/pkg/authclient"
	"github.com/versal-platform/botlogic/pkg/session"
)

func TestHelpIsAlwaysAvailable(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	for _, cmd := range []string{"/help", "/menu", "/start"} {
		lines := svc.Handle(context.Background(), 1, cmd)
		require.NotEmpty(t, lines, "command %s", cmd)
		assert.Contains(t, lines[0], "Versal")
	}
}

func TestNonCommandWithoutSession(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	lines := svc.Handle(context.Background(), 1, "hello there")
	assert.Equal(t, []string{msgNotLoggedIn, msgLoginOptions}, lines)
}

func TestMeReportsFourStates(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, []string{msgStatusAnonymous}, svc.Handle(ctx, 1, "/me"))

	require.NoError(t, store.Set(ctx, 1, session.NewLoginPending("t")))
	assert.Equal(t, []string{msgStatusPending}, svc.Handle(ctx, 1, "/me"))

	require.NoError(t, store.Set(ctx, 1, session.NewAwaitingCode()))
	assert.Equal(t, []string{msgStatusAwaitingCode}, svc.Handle(ctx, 1, "/me"))

	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U")))
	assert.Equal(t, []string{msgStatusAuthenticated}, svc.Handle(ctx, 1, "/me"))
}

// Scenario A: /login on a fresh chat creates a pending session with a
// fresh login token and shows the provider link.
func TestLoginStartsPendingSession(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()

	var seenToken string
	auth.startLoginFn = func(provider, loginToken string) (string, error) {
		assert.Equal(t, "github", provider)
		seenToken = loginToken
		return "https://auth.example/login?state=" + loginToken, nil
	}

	lines := svc.Handle(ctx, 1, "/login github")
	require.Len(t, lines, 3)
	assert.Equal(t, msgLoginStarting, lines[0])
	assert.Contains(t, lines[1], seenToken)

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLoginPending, sess.Status)
	assert.NotEmpty(t, sess.LoginToken)
	assert.Equal(t, seenToken, sess.LoginToken)
	require.NoError(t, sess.Validate())
}

// The pending session survives even when the auth service is down; the
// sweep picks the attempt up later.
func TestLoginPersistsWhenAuthDown(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	lines := svc.Handle(ctx, 1, "/login yandex")
	assert.Equal(t, []string{msgAuthUnavailable, msgLoginSavedAnyway}, lines)

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLoginPending, sess.Status)
}

func TestLoginWithoutProviderShowsOptions(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, []string{msgLoginOptions}, svc.Handle(ctx, 1, "/login"))
	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestLoginCodeEntersAwaitingCode(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, []string{msgCodePrompt}, svc.Handle(ctx, 1, "/login code"))

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAwaitingCode, sess.Status)
}

// Scenario B: a valid code in AWAITING_CODE authenticates with the
// provider's exact credentials.
func TestCodeEntryAuthenticates(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAwaitingCode()))

	auth.verifyCodeFn = func(code string) (*authclient.VerifyResult, error) {
		assert.Equal(t, "123456", code)
		return &authclient.VerifyResult{Success: true, AccessToken: "A", RefreshToken: "R", UserID: "U1"}, nil
	}

	lines := svc.Handle(ctx, 1, "123456")
	assert.Equal(t, []string{msgAuthorized}, lines)

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &session.Session{
		Status:       session.StatusAuthenticated,
		AccessToken:  "A",
		RefreshToken: "R",
		UserID:       "U1",
	}, sess)
}

func TestCodeEntryRePromptsOnWrongShape(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAwaitingCode()))

	for _, text := range []string{"123", "123456789", "12a456", "/users", "what?"} {
		assert.Equal(t, []string{msgCodePrompt}, svc.Handle(ctx, 1, text), "input %q", text)
	}

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAwaitingCode, sess.Status)
}

func TestCodeEntryRejectedKeepsWaiting(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAwaitingCode()))

	auth.verifyCodeFn = func(string) (*authclient.VerifyResult, error) {
		return &authclient.VerifyResult{Success: false}, nil
	}

	assert.Equal(t, []string{msgCodeRejected}, svc.Handle(ctx, 1, "9999"))

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAwaitingCode, sess.Status)
}

func TestPendingMessageChecksInline(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewLoginPending("tok")))

	auth.checkLoginFn = func(loginToken string) (*authclient.CheckResult, error) {
		assert.Equal(t, "tok", loginToken)
		return &authclient.CheckResult{Status: authclient.StatusPending}, nil
	}

	assert.Equal(t, []string{msgLoginWaiting}, svc.Handle(ctx, 1, "anything"))

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLoginPending, sess.Status)
}

// A granted check during an inbound command immediately dispatches the
// command with the fresh credentials.
func TestPendingGrantedDispatchesCommand(t *testing.T) {
	svc, store, auth, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewLoginPending("tok")))

	auth.checkLoginFn = func(string) (*authclient.CheckResult, error) {
		return &authclient.CheckResult{Status: authclient.StatusGranted, AccessToken: "A", RefreshToken: "R", UserID: "U1"}, nil
	}
	core.invokeFn = func(inv invocation) (int, string, error) {
		return 200, "you", nil
	}

	lines := svc.Handle(ctx, 1, "/profile_name")
	assert.Equal(t, []string{"you"}, lines)
	require.Len(t, core.invocations, 1)
	assert.Equal(t, "VIEW_OWN_NAME", core.invocations[0].Action)
	assert.Equal(t, "U1", core.invocations[0].UserID)

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAuthenticated, sess.Status)
}

func TestPendingDeniedDeletesSession(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewLoginPending("tok")))

	auth.checkLoginFn = func(string) (*authclient.CheckResult, error) {
		return &authclient.CheckResult{Status: authclient.StatusDenied}, nil
	}

	assert.Equal(t, []string{msgLoginDenied}, svc.Handle(ctx, 1, "hello"))
	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

// An unrecognized provider status must never advance or destroy state.
func TestPendingUnknownStatusIsNoOp(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewLoginPending("tok")))

	auth.checkLoginFn = func(string) (*authclient.CheckResult, error) {
		return &authclient.CheckResult{Status: authclient.StatusUnknown}, nil
	}

	assert.Equal(t, []string{msgLoginWaiting}, svc.Handle(ctx, 1, "hello"))

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLoginPending, sess.Status)
	assert.Equal(t, "tok", sess.LoginToken)
}

func TestPendingAuthUnavailable(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewLoginPending("tok")))

	lines := svc.Handle(ctx, 1, "hello")
	assert.Equal(t, []string{msgAuthUnavailable, msgTryLater}, lines)

	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusLoginPending, sess.Status)
}

// Scenario E: logout deletes the session whether or not the provider's
// logout-all call works.
func TestLogoutAllDeletesRegardlessOfProvider(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()

	auth.logoutErr = errDown
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	lines := svc.Handle(ctx, 1, "/logout all=true")
	assert.Equal(t, []string{msgLoggedOut}, lines)
	assert.Equal(t, 1, auth.logoutCalls)

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestLogoutWithoutAllSkipsProviderCall(t *testing.T) {
	svc, store, auth, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	assert.Equal(t, []string{msgLoggedOut}, svc.Handle(ctx, 1, "/logout"))
	assert.Equal(t, 0, auth.logoutCalls)
}

func TestLogoutWithoutSession(t *testing.T) {
	svc, _, auth, _ := newTestService(t)

	assert.Equal(t, []string{msgLoggedOut}, svc.Handle(context.Background(), 1, "/logout all=true"))
	assert.Equal(t, 0, auth.logoutCalls)
}

func TestAuthenticatedNonCommandText(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	assert.Equal(t, []string{msgUnknownCommand}, svc.Handle(ctx, 1, "just chatting"))
}
