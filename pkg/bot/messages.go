package bot

// User-facing message text. One place so the transport always renders
// consistent wording.
const (
	msgNotLoggedIn   = "You are not logged in."
	msgLoginOptions  = "Login options: /login github | /login yandex | /login code"
	msgUnknownCommand = "Unknown command. Try /help"

	msgStoreUnavailable = "The service is temporarily unavailable. Please try again later."
	msgAuthUnavailable  = "The login service is unavailable right now."
	msgCoreUnavailable  = "The service is unavailable right now or returned an error."
	msgTryLater         = "Please try again later."

	msgLoginStarting    = "Starting login."
	msgLoginWillConfirm = "I will confirm the result automatically once you finish."
	msgLoginSavedAnyway = "Your login attempt is saved; I will pick it up as soon as the service is back."
	msgLoginWaiting     = "Waiting for login confirmation..."
	msgLoginConfirmed   = "Login confirmed. You are in!"
	msgLoginDenied      = "Login failed. Try again: /login github | /login yandex"
	msgLoginExpired     = "The login attempt expired. Try again: /login github | /login yandex"
	msgIncompleteTokens = "The login service returned incomplete credentials. Please try again."

	msgCodePrompt   = "Send me your one-time code (4-8 digits)."
	msgCodeRejected = "That code was not accepted. Check it and send it again."
	msgAuthorized   = "You are authorized."

	msgLoggedOut = "Session closed."

	msgStatusAnonymous     = "Status: not logged in."
	msgStatusPending       = "Status: login started (waiting for confirmation)."
	msgStatusAwaitingCode  = "Status: waiting for your one-time code."
	msgStatusAuthenticated = "Status: authorized."
	msgStatusUnknown       = "Status: unknown."

	msgReauthenticate  = "Your session has expired. Use /logout and then /login to sign in again."
	msgSessionDropped  = "Your session has expired and was closed. Use /login to sign in again."
	msgNoNotifications = "No new notifications."

	msgBlocked      = "Your account is blocked."
	msgForbidden    = "You do not have permission for that."
	msgUnauthorized = "The service rejected your credentials. Use /logout and /login to sign in again."
	msgDone         = "Done."
)

func helpLines() []string {
	return []string{
		"Hi! I am the Versal test bot.",
		"",
		"Auth:",
		"/login github | /login yandex | /login code - sign in",
		"/logout [all=true] - sign out (all=true revokes every device)",
		"/me - session status",
		"",
		"Users: /users, /user <id>, /user_data <id>, /user_set_name <id> <name|lastname>,",
		"  /user_roles <id>, /user_set_roles <id> <role;role>, /user_block <id>, /user_block_set <id> <true|false>",
		"Profile: /profile, /profile_name, /profile_set_name <name|lastname>",
		"Courses: /courses, /course <id>, /course_add <teacher_id> <name|description>, /course_set <id> <name|description>,",
		"  /course_del <id>, /course_tests <id>, /course_users <id>, /course_user_add <cid> <uid>, /course_user_del <cid> <uid>, /course_test <cid> <tid>",
		"Tests: /test_add <cid> <title>, /test_del <cid> <tid>, /test_active <cid> <tid> <true|false>,",
		"  /test_q_add <tid> <qid>, /test_q_del <tid> <qid>, /test_answers <tid>",
		"Questions: /questions, /question <id>, /question_add <title|text|opt;opt;opt|correct>, /question_del <id>",
		"Attempts: /attempt_start <tid>, /attempt <tid>, /attempt_finish <aid>, /answer_set <aid> <qid> <index>",
		"Other: /notifications",
	}
}
