package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versal-platform/botlogic/pkg/session"
)

func TestParseArgsPlain(t *testing.T) {
	spec := commandTable["/course_user_add"]

	params, err := parseArgs(spec, "c1 u9")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Course_ID": "c1", "Target_ID": "u9"}, params)
}

func TestParseArgsRestOfLine(t *testing.T) {
	spec := commandTable["/test_add"]

	params, err := parseArgs(spec, "c1 Introduction to Databases")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Course_ID": "c1", "Title": "Introduction to Databases"}, params)
}

func TestParseArgsPipeComposite(t *testing.T) {
	spec := commandTable["/user_set_name"]

	params, err := parseArgs(spec, "u7 Ada|Lovelace")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Target_ID":    "u7",
		"New_name":     "Ada",
		"New_lastname": "Lovelace",
	}, params)

	// wrong field count inside the composite
	_, err = parseArgs(spec, "u7 AdaLovelace")
	assert.ErrorIs(t, err, errUsage)
}

func TestParseArgsArity(t *testing.T) {
	spec := commandTable["/answer_set"]

	_, err := parseArgs(spec, "a1 q1")
	assert.ErrorIs(t, err, errUsage)

	params, err := parseArgs(spec, "a1 q1 2")
	require.NoError(t, err)
	assert.Equal(t, "2", params["Answer_Index"])
}

func TestParseArgsZeroArgRejectsExtras(t *testing.T) {
	spec := commandTable["/users"]

	params, err := parseArgs(spec, "")
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = parseArgs(spec, "unexpected")
	assert.ErrorIs(t, err, errUsage)
}

func TestBuildCreateQuestion(t *testing.T) {
	spec := commandTable["/question_add"]

	params, err := parseArgs(spec, "Capitals|Pick the capital of France|Paris;London;Berlin|0")
	require.NoError(t, err)
	assert.Equal(t, "Capitals", params["Title"])
	assert.Equal(t, "Pick the capital of France", params["Text"])
	assert.Equal(t, `["Paris","London","Berlin"]`, params["Options"])
	assert.Equal(t, "0", params["Answer_Index"])

	_, err = parseArgs(spec, "only|three|fields")
	assert.ErrorIs(t, err, errUsage)

	_, err = parseArgs(spec, "t|x|;;|0")
	assert.ErrorIs(t, err, errUsage)
}

func TestEveryCommandMapsToAKnownAction(t *testing.T) {
	// the full action surface of the core service
	known := map[string]bool{
		"VIEW_OWN_NAME": true, "VIEW_OTHER_NAME": true, "EDIT_OWN_NAME": true,
		"EDIT_OTHER_NAME": true, "VIEW_ALL_USERS": true, "VIEW_OTHER_ROLES": true,
		"EDIT_OTHER_ROLES": true, "VIEW_BLOCKED": true, "EDIT_BLOCKED": true,
		"VIEW_OWN_DATA": true, "VIEW_OTHER_DATA": true, "CREATE_COURSE": true,
		"VIEW_ALL_COURSES": true, "VIEW_COURSE_INFO": true, "EDIT_COURSE_INFO": true,
		"VIEW_COURSE_TESTS": true, "CHECK_TEST_ACTIVE": true, "TOGGLE_TEST_ACTIVE": true,
		"CREATE_TEST": true, "DELETE_TEST": true, "VIEW_COURSE_STUDENTS": true,
		"ENROLL_STUDENT": true, "UNENROLL_STUDENT": true, "DELETE_COURSE": true,
		"VIEW_QUESTIONS": true, "VIEW_QUESTION_DETAIL": true, "CREATE_QUESTION": true,
		"DELETE_QUESTION": true, "ADD_QUESTION_TO_TEST": true, "REMOVE_QUESTION_FROM_TEST": true,
		"VIEW_TEST_ATTEMPTS": true, "CREATE_ATTEMPT": true, "VIEW_ATTEMPT": true,
		"UPDATE_ANSWER": true, "COMPLETE_ATTEMPT": true,
	}
	covered := map[string]bool{}
	for cmd, spec := range commandTable {
		assert.True(t, known[spec.action], "command %s maps to unknown action %s", cmd, spec.action)
		covered[spec.action] = true
	}
	for action := range known {
		assert.True(t, covered[action], "action %s has no command", action)
	}
}

func TestDispatchInvokesAction(t *testing.T) {
	svc, store, _, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	core.invokeFn = func(inv invocation) (int, string, error) {
		return 200, `{"users":[]}`, nil
	}

	lines := svc.Handle(ctx, 1, "/users")
	require.Len(t, lines, 1)
	require.Len(t, core.invocations, 1)
	assert.Equal(t, "VIEW_ALL_USERS", core.invocations[0].Action)
	assert.Equal(t, "U1", core.invocations[0].UserID)
	assert.Equal(t, "A", core.invocations[0].AccessToken)
}

func TestDispatchUsageHintSkipsBackend(t *testing.T) {
	svc, store, _, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	lines := svc.Handle(ctx, 1, "/user")
	assert.Equal(t, []string{"Usage: /user <id>"}, lines)
	assert.Empty(t, core.invocations)
}

func TestDispatchUnknownCommand(t *testing.T) {
	svc, store, _, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	assert.Equal(t, []string{msgUnknownCommand}, svc.Handle(ctx, 1, "/frobnicate"))
	assert.Empty(t, core.invocations)
}

func TestDispatchCoreUnavailable(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	lines := svc.Handle(ctx, 1, "/courses")
	assert.Equal(t, []string{msgCoreUnavailable, msgTryLater}, lines)

	// the failed call must not have disturbed the session
	sess, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAuthenticated, sess.Status)
}

func TestNotificationsCommand(t *testing.T) {
	svc, store, _, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	core.notifFn = func(accessToken string) (int, string, error) {
		assert.Equal(t, "A", accessToken)
		return 200, `{"notifications":["grade posted","new test open"]}`, nil
	}

	lines := svc.Handle(ctx, 1, "/notifications")
	assert.Equal(t, []string{"grade posted", "new test open"}, lines)
	assert.Equal(t, 1, core.clearCalls)
}

func TestNotificationsCommandEmpty(t *testing.T) {
	svc, store, _, core := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, 1, session.NewAuthenticated("A", "R", "U1")))

	core.notifFn = func(string) (int, string, error) { return 200, "{}", nil }

	assert.Equal(t, []string{msgNoNotifications}, svc.Handle(ctx, 1, "/notifications"))
	assert.Equal(t, 0, core.clearCalls)
}
