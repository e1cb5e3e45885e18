package k2n

import (
	"fmt"
	"net/http"
)

// DefaultAuthMessage is surfaced when the backend gives no usable reason.
const DefaultAuthMessage = "Erreur de connexion"

// AuthError reports a failed login: bad credentials or unreachable backend.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// FetchError reports that a collection could not be read.
type FetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.Resource, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SubmissionError reports that a create request was refused or failed.
type SubmissionError struct {
	Resource   string
	StatusCode int
	Reason     string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("create %s: %s", e.Resource, e.Reason)
}

// errorBody captures the error shapes the backend is known to return:
// {"detail": {"message": ...}}, {"detail": "..."} and {"message": ...}.
type errorBody struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
}

func (b *errorBody) reason() string {
	if b == nil {
		return ""
	}
	switch detail := b.Detail.(type) {
	case map[string]any:
		if msg, ok := detail["message"].(string); ok && msg != "" {
			return msg
		}
	case string:
		if b.Message == "" && detail != "" {
			return detail
		}
	}
	return b.Message
}

func statusReason(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("status %d", code)
}
