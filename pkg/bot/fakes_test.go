package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/versal-platform/botlogic/pkg/authclient"
	"github.com/versal-platform/botlogic/pkg/kvs"
	"github.com/versal-platform/botlogic/pkg/logging"
	"github.com/versal-platform/botlogic/pkg/session"
)

var errDown = errors.New("fake: service down")

// fakeAuth is a programmable AuthAPI. Unset functions behave as an
// unavailable service.
type fakeAuth struct {
	startLoginFn func(provider, loginToken string) (string, error)
	checkLoginFn func(loginToken string) (*authclient.CheckResult, error)
	verifyCodeFn func(code string) (*authclient.VerifyResult, error)
	refreshFn    func(refreshToken string) (*authclient.TokenPair, error)
	logoutErr    error

	checkCalls   int
	refreshCalls int
	logoutCalls  int
}

func (f *fakeAuth) StartLogin(_ context.Context, provider, loginToken string) (string, error) {
	if f.startLoginFn == nil {
		return "", errDown
	}
	return f.startLoginFn(provider, loginToken)
}

func (f *fakeAuth) CheckLogin(_ context.Context, loginToken string) (*authclient.CheckResult, error) {
	f.checkCalls++
	if f.checkLoginFn == nil {
		return nil, errDown
	}
	return f.checkLoginFn(loginToken)
}

func (f *fakeAuth) VerifyCode(_ context.Context, code string) (*authclient.VerifyResult, error) {
	if f.verifyCodeFn == nil {
		return nil, errDown
	}
	return f.verifyCodeFn(code)
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (*authclient.TokenPair, error) {
	f.refreshCalls++
	if f.refreshFn == nil {
		return nil, errDown
	}
	return f.refreshFn(refreshToken)
}

func (f *fakeAuth) LogoutAll(_ context.Context, _ string) error {
	f.logoutCalls++
	return f.logoutErr
}

// invocation records one core Invoke call.
type invocation struct {
	UserID      string
	AccessToken string
	Action      string
	Params      map[string]string
}

// fakeCore is a programmable CoreAPI.
type fakeCore struct {
	invokeFn func(inv invocation) (int, string, error)
	notifFn  func(accessToken string) (int, string, error)
	clearFn  func(accessToken string) (int, string, error)

	invocations []invocation
	clearCalls  int
}

func (f *fakeCore) Invoke(_ context.Context, userID, accessToken, action string, params map[string]string) (int, string, error) {
	inv := invocation{UserID: userID, AccessToken: accessToken, Action: action, Params: params}
	f.invocations = append(f.invocations, inv)
	if f.invokeFn == nil {
		return 0, "", errDown
	}
	return f.invokeFn(inv)
}

func (f *fakeCore) GetNotifications(_ context.Context, accessToken string) (int, string, error) {
	if f.notifFn == nil {
		return 0, "", errDown
	}
	return f.notifFn(accessToken)
}

func (f *fakeCore) ClearNotifications(_ context.Context, accessToken string) (int, string, error) {
	f.clearCalls++
	if f.clearFn == nil {
		return 200, "{}", nil
	}
	return f.clearFn(accessToken)
}

// newTestService wires a Service over an in-memory store and fakes.
func newTestService(t *testing.T) (*Service, *session.Store, *fakeAuth, *fakeCore) {
	t.Helper()
	backend := kvs.NewMemoryStore("", kvs.MemoryConfig{})
	t.Cleanup(func() { _ = backend.Close() })

	store := session.NewStore(backend, time.Minute)
	auth := &fakeAuth{}
	core := &fakeCore{}
	svc := New(store, auth, core, logging.NewTestLogger())
	return svc, store, auth, core
}
