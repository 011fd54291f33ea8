package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout signals that the inference call exceeded its wait budget.
// It is distinct from NetworkError so the UI can say "took too long"
// instead of a generic connection failure.
var ErrTimeout = errors.New("inference timed out; the model may be cold-starting, try again")

// NetworkError wraps a transport-level failure reaching the endpoint.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("inference service unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response from the inference endpoint,
// carrying the remote error payload when one was provided.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inference service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("inference service returned status %d: %s", e.StatusCode, e.Message)
}

// newRemoteError extracts a message from the error payload, accepting
// the common {"detail": ...} and {"error": ...} shapes before falling
// back to the raw body.
func newRemoteError(status int, body []byte) *RemoteError {
	var payload struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Detail != "":
			msg = payload.Detail
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	return &RemoteError{StatusCode: status, Message: msg}
}
