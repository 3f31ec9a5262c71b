package regclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("registration service returned %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("registration service returned %d", e.Code)
}

// Message is the human readable text the service sent back, if any. JSON
// bodies yield their "message" (or string "error") field, anything else is
// returned as trimmed text.
func (e *StatusError) Message() string {
	raw := strings.TrimSpace(string(e.Body))
	if raw == "" {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		if msg, ok := payload["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := payload["error"].(string); ok && msg != "" {
			return msg
		}
		return ""
	}
	return raw
}

// TransportError wraps failures that never produced an HTTP status.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "registration service unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
