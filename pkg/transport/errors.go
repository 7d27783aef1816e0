package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// MaxErrorBody is the number of response body bytes kept in a TransportError
const MaxErrorBody = 500

// ErrCircuitOpen is returned while the circuit breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// TransportError reports a failed SOAP call
type TransportError struct {
	Operation  string
	URL        string
	StatusCode int    // 0 when no HTTP response was received
	Body       string // response body, truncated to MaxErrorBody bytes
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Operation)
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
		if e.Body != "" {
			msg += ": " + e.Body
		}
		return msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClientError reports whether the service rejected the request with a 4xx
// status that a retry cannot fix
func (e *TransportError) ClientError() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func truncate(body []byte) string {
	if len(body) > MaxErrorBody {
		return string(body[:MaxErrorBody])
	}
	return string(body)
}
