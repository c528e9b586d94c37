package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/versal-platform/botlogic/pkg/session"
)

// argBinding maps one positional argument onto core request parameters.
// A binding with several fields expects a pipe-separated composite and
// fans it out; the last binding of a command absorbs the rest of the
// input line, so free text does not need quoting.
type argBinding struct {
	fields []string
}

func arg(param string) argBinding {
	return argBinding{fields: []string{param}}
}

func pipeArg(params ...string) argBinding {
	return argBinding{fields: params}
}

// commandSpec describes one authenticated command: the backend action it
// invokes, its positional-argument contract, and the usage hint shown on
// a malformed invocation.
type commandSpec struct {
	action string
	args   []argBinding
	usage  string

	// build overrides the default binding logic for commands whose
	// parameters need reshaping before they go on the wire.
	build func(values []string) (map[string]string, error)
}

// commandTable is the full authenticated command surface. Composite
// conventions: pipe separates fields of one argument, semicolon
// separates items of a list-valued field.
var commandTable = map[string]commandSpec{
	"/users":          {action: "VIEW_ALL_USERS", usage: "/users"},
	"/user":           {action: "VIEW_OTHER_NAME", args: []argBinding{arg("Target_ID")}, usage: "/user <id>"},
	"/user_data":      {action: "VIEW_OTHER_DATA", args: []argBinding{arg("Target_ID")}, usage: "/user_data <id>"},
	"/user_set_name":  {action: "EDIT_OTHER_NAME", args: []argBinding{arg("Target_ID"), pipeArg("New_name", "New_lastname")}, usage: "/user_set_name <id> <name|lastname>"},
	"/user_roles":     {action: "VIEW_OTHER_ROLES", args: []argBinding{arg("Target_ID")}, usage: "/user_roles <id>"},
	"/user_set_roles": {action: "EDIT_OTHER_ROLES", args: []argBinding{arg("Target_ID"), arg("Target_ROLE")}, usage: "/user_set_roles <id> <role;role;...>"},
	"/user_block":     {action: "VIEW_BLOCKED", args: []argBinding{arg("Target_ID")}, usage: "/user_block <id>"},
	"/user_block_set": {action: "EDIT_BLOCKED", args: []argBinding{arg("Target_ID"), arg("Activate")}, usage: "/user_block_set <id> <true|false>"},

	"/profile":          {action: "VIEW_OWN_DATA", usage: "/profile"},
	"/profile_name":     {action: "VIEW_OWN_NAME", usage: "/profile_name"},
	"/profile_set_name": {action: "EDIT_OWN_NAME", args: []argBinding{pipeArg("New_name", "New_lastname")}, usage: "/profile_set_name <name|lastname>"},

	"/courses":         {action: "VIEW_ALL_COURSES", usage: "/courses"},
	"/course":          {action: "VIEW_COURSE_INFO", args: []argBinding{arg("Course_ID")}, usage: "/course <id>"},
	"/course_add":      {action: "CREATE_COURSE", args: []argBinding{arg("Target_ID"), pipeArg("Course_NAME", "Description")}, usage: "/course_add <teacher_id> <name|description>"},
	"/course_set":      {action: "EDIT_COURSE_INFO", args: []argBinding{arg("Course_ID"), pipeArg("Course_NAME", "Description")}, usage: "/course_set <id> <name|description>"},
	"/course_del":      {action: "DELETE_COURSE", args: []argBinding{arg("Course_ID")}, usage: "/course_del <id>"},
	"/course_tests":    {action: "VIEW_COURSE_TESTS", args: []argBinding{arg("Course_ID")}, usage: "/course_tests <id>"},
	"/course_users":    {action: "VIEW_COURSE_STUDENTS", args: []argBinding{arg("Course_ID")}, usage: "/course_users <id>"},
	"/course_user_add": {action: "ENROLL_STUDENT", args: []argBinding{arg("Course_ID"), arg("Target_ID")}, usage: "/course_user_add <course_id> <user_id>"},
	"/course_user_del": {action: "UNENROLL_STUDENT", args: []argBinding{arg("Course_ID"), arg("Target_ID")}, usage: "/course_user_del <course_id> <user_id>"},
	"/course_test":     {action: "CHECK_TEST_ACTIVE", args: []argBinding{arg("Course_ID"), arg("Test_ID")}, usage: "/course_test <course_id> <test_id>"},

	"/test_add":     {action: "CREATE_TEST", args: []argBinding{arg("Course_ID"), arg("Title")}, usage: "/test_add <course_id> <title>"},
	"/test_del":     {action: "DELETE_TEST", args: []argBinding{arg("Course_ID"), arg("Test_ID")}, usage: "/test_del <course_id> <test_id>"},
	"/test_active":  {action: "TOGGLE_TEST_ACTIVE", args: []argBinding{arg("Course_ID"), arg("Test_ID"), arg("Activate")}, usage: "/test_active <course_id> <test_id> <true|false>"},
	"/test_q_add":   {action: "ADD_QUESTION_TO_TEST", args: []argBinding{arg("Test_ID"), arg("Question_ID")}, usage: "/test_q_add <test_id> <question_id>"},
	"/test_q_del":   {action: "REMOVE_QUESTION_FROM_TEST", args: []argBinding{arg("Test_ID"), arg("Question_ID")}, usage: "/test_q_del <test_id> <question_id>"},
	"/test_answers": {action: "VIEW_TEST_ATTEMPTS", args: []argBinding{arg("Test_ID")}, usage: "/test_answers <test_id>"},

	"/questions":    {action: "VIEW_QUESTIONS", usage: "/questions"},
	"/question":     {action: "VIEW_QUESTION_DETAIL", args: []argBinding{arg("Question_ID")}, usage: "/question <id>"},
	"/question_del": {action: "DELETE_QUESTION", args: []argBinding{arg("Question_ID")}, usage: "/question_del <id>"},
	"/question_add": {
		action: "CREATE_QUESTION",
		args:   []argBinding{pipeArg("Title", "Text", "Options", "Answer_Index")},
		usage:  "/question_add <title|text|option;option;...|correct_index>",
		build:  buildCreateQuestion,
	},

	"/attempt_start":  {action: "CREATE_ATTEMPT", args: []argBinding{arg("Test_ID")}, usage: "/attempt_start <test_id>"},
	"/attempt":        {action: "VIEW_ATTEMPT", args: []argBinding{arg("Test_ID")}, usage: "/attempt <test_id>"},
	"/attempt_finish": {action: "COMPLETE_ATTEMPT", args: []argBinding{arg("Attempt_ID")}, usage: "/attempt_finish <attempt_id>"},

	"/answer_set": {action: "UPDATE_ANSWER", args: []argBinding{arg("Attempt_ID"), arg("Question_ID"), arg("Answer_Index")}, usage: "/answer_set <attempt_id> <question_id> <answer_index>"},
}

var errUsage = errors.New("bot: malformed arguments")

// parseArgs splits the argument portion of a command line against the
// spec. The final argument absorbs the remainder of the line.
func parseArgs(spec commandSpec, rest string) (map[string]string, error) {
	tokens := strings.Fields(rest)
	n := len(spec.args)

	if n == 0 {
		if len(tokens) != 0 {
			return nil, errUsage
		}
		return nil, nil
	}
	if len(tokens) < n {
		return nil, errUsage
	}

	values := make([]string, n)
	copy(values, tokens[:n-1])
	values[n-1] = strings.Join(tokens[n-1:], " ")

	if spec.build != nil {
		return spec.build(values)
	}

	params := make(map[string]string)
	for i, binding := range spec.args {
		if len(binding.fields) == 1 {
			params[binding.fields[0]] = values[i]
			continue
		}
		parts := strings.Split(values[i], "|")
		if len(parts) != len(binding.fields) {
			return nil, errUsage
		}
		for j, field := range binding.fields {
			params[field] = strings.TrimSpace(parts[j])
		}
	}
	return params, nil
}

// buildCreateQuestion reshapes "title|text|opt;opt;...|index" into the
// core's CREATE_QUESTION parameters, encoding the options as a JSON array.
func buildCreateQuestion(values []string) (map[string]string, error) {
	parts := strings.Split(values[0], "|")
	if len(parts) != 4 {
		return nil, errUsage
	}

	options := make([]string, 0)
	for _, opt := range strings.Split(parts[2], ";") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) == 0 {
		return nil, errUsage
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("bot: encode options: %w", err)
	}

	index := strings.TrimSpace(parts[3])
	if index == "" {
		return nil, errUsage
	}

	return map[string]string{
		"Title":        strings.TrimSpace(parts[0]),
		"Text":         strings.TrimSpace(parts[1]),
		"Options":      string(optionsJSON),
		"Answer_Index": index,
	}, nil
}

// dispatchAuthenticated routes a message from an authenticated chat.
func (s *Service) dispatchAuthenticated(ctx context.Context, chatID int64, text string, sess *session.Session) []string {
	cmd := command(text)
	if cmd == "" {
		return []string{msgUnknownCommand}
	}

	if cmd == "/notifications" {
		return s.handleNotificationsCommand(ctx, chatID, sess)
	}

	spec, ok := commandTable[cmd]
	if !ok {
		return []string{msgUnknownCommand}
	}

	rest := strings.TrimSpace(text[len(cmd):])
	params, err := parseArgs(spec, rest)
	if err != nil {
		return []string{"Usage: " + spec.usage}
	}

	status, body, err := s.callAuthenticated(ctx, chatID, sess, func(ctx context.Context, userID, accessToken string) (int, string, error) {
		return s.core.Invoke(ctx, userID, accessToken, spec.action, params)
	})
	switch {
	case errors.Is(err, errReauth):
		// Policy: the interactive path keeps the session so the user
		// can decide to /logout and /login again.
		return []string{msgReauthenticate}
	case err != nil:
		return []string{msgCoreUnavailable, msgTryLater}
	}

	return []string{renderResponse(status, body)}
}

// handleNotificationsCommand fetches and renders pending notifications,
// clearing them afterwards (best effort).
func (s *Service) handleNotificationsCommand(ctx context.Context, chatID int64, sess *session.Session) []string {
	items, err := s.fetchNotifications(ctx, chatID, sess)
	switch {
	case errors.Is(err, errReauth):
		return []string{msgReauthenticate}
	case err != nil:
		return []string{msgCoreUnavailable, msgTryLater}
	}

	if len(items) == 0 {
		return []string{msgNoNotifications}
	}

	if _, _, err := s.core.ClearNotifications(ctx, sess.AccessToken); err != nil {
		s.logger.Warn("notification clear failed", "chat_id", chatID, "error", err)
	}
	return items
}
