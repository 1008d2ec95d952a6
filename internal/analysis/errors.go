package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies an analysis failure.
type Kind string

const (
	KindAnalysisFailed    Kind = "analysis_failed"
	KindMalformedResponse Kind = "malformed_response"
)

// User-facing messages. The underlying cause is never shown to the user.
const (
	GenericMessage   = "Failed to analyze the news text. Please try again."
	MalformedMessage = "The analysis service returned an unexpected response. Please try again."
)

var (
	// ErrAnalysisFailed matches any failure of the remote call itself.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrMalformedResponse matches a reply that does not satisfy the output schema.
	ErrMalformedResponse = errors.New("malformed model response")
)

// Error is the only error type Analyze returns.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

// UserMessage returns the text safe to show in the UI.
func (e *Error) UserMessage() string {
	if e.Kind == KindMalformedResponse {
		return MalformedMessage
	}
	return GenericMessage
}

func (e *Error) sentinel() error {
	if e.Kind == KindMalformedResponse {
		return ErrMalformedResponse
	}
	return ErrAnalysisFailed
}

func failed(cause error) *Error {
	return &Error{Kind: KindAnalysisFailed, Cause: cause}
}

func malformed(format string, args ...any) *Error {
	return &Error{Kind: KindMalformedResponse, Cause: fmt.Errorf(format, args...)}
}

// UserMessage extracts the user-facing message of err, falling back to the
// generic failure text for errors that did not come from Analyze.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return GenericMessage
}
