package endpoints

import (
	"encoding/json"
	"fmt"
	"strings"
)

// errBodyLimit caps how much of an upstream error body gets carried around
// in the error value. CDN rejections are whole HTML pages.
const errBodyLimit = 2048

// APIError is a non-OK reply from the listing API.
type APIError struct {
	Status  int
	Code    any
	Message string
	Body    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	return fmt.Sprintf("api error: status=%d code=%v message=%s", e.Status, e.Code, msg)
}

// ParseAPIError pulls code and message out of a JSON error body when there
// is one; anything else is kept verbatim, trimmed to errBodyLimit.
func ParseAPIError(status int, body []byte) *APIError {
	b := strings.TrimSpace(string(body))
	if len(b) > errBodyLimit {
		b = b[:errBodyLimit]
	}
	out := &APIError{Status: status, Body: b}

	var m map[string]any
	if json.Unmarshal(body, &m) == nil {
		if v, ok := m["code"]; ok {
			out.Code = v
		}
		if v, ok := m["message"].(string); ok {
			out.Message = v
		}
	}
	return out
}
