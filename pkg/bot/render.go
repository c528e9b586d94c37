package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The core service reports application-level failures as an in-band
// marker at the start of an otherwise-successful body:
//
//	ERROR <code>
//	ERROR <code>: <detail>
var errorMarker = regexp.MustCompile(`^ERROR\s+(\d{3})(?::\s*(.*))?$`)

// parseErrorMarker decodes the in-band marker, if present.
func parseErrorMarker(body string) (code int, detail string, ok bool) {
	m := errorMarker.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		return 0, "", false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return code, m[2], true
}

// isAuthFailure reports whether a core response means the access token
// is no longer accepted, either via the HTTP status or the in-band marker.
func isAuthFailure(status int, body string) bool {
	if status == 401 {
		return true
	}
	code, _, ok := parseErrorMarker(body)
	return ok && code == 401
}

// renderResponse turns a core response into one user-facing message.
// Marker errors map to four canonical categories; structured bodies are
// pretty-printed; otherwise the raw body (or a "done" marker) is shown,
// with a non-success HTTP status surfaced as a prefix.
func renderResponse(status int, body string) string {
	body = strings.TrimSpace(body)

	var text string
	if code, detail, ok := parseErrorMarker(body); ok {
		text = categorize(code, detail)
	} else if body == "" {
		text = msgDone
	} else if json.Valid([]byte(body)) {
		text = prettyJSON(body)
	} else {
		text = body
	}

	if status < 200 || status > 299 {
		return fmt.Sprintf("HTTP %d: %s", status, text)
	}
	return text
}

func categorize(code int, detail string) string {
	switch code {
	case 418:
		return msgBlocked
	case 401:
		return msgUnauthorized
	case 403:
		return msgForbidden
	case 400:
		if detail != "" {
			return "Bad request: " + detail
		}
		return "Bad request."
	default:
		if detail != "" {
			return "The service reported an error: " + detail
		}
		return "The service reported an error."
	}
}

func prettyJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return body
	}
	return buf.String()
}
