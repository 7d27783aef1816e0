package purchase

import (
	"fmt"
)

// maxLoggedResponse bounds the raw response kept in log output
const maxLoggedResponse = 2000

// InputError reports a record that cannot be turned into a purchase order.
// No network call has been made when it is returned.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("invalid record: %s %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

// ExtractionError reports a successful create call whose response carried no
// purchase order number. The order may exist on the service side.
type ExtractionError struct {
	Operation string
	Body      []byte
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract purchase order number from %s response", e.Operation)
}

// Response returns the raw response, truncated for logging
func (e *ExtractionError) Response() string {
	if len(e.Body) > maxLoggedResponse {
		return string(e.Body[:maxLoggedResponse])
	}
	return string(e.Body)
}

// RecordError wraps any failure while processing a record with the record id
// and the stage that failed
type RecordError struct {
	RecordID string
	Stage    Stage
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s: %s: %v", e.RecordID, e.Stage, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
