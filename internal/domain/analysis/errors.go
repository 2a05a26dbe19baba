package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	CodeNetwork = "NETWORK_ERROR"
	CodeUnknown = "UNKNOWN_ERROR"
)

// HTTPCode builds the code used for non-2xx responses.
func HTTPCode(status int) string {
	return fmt.Sprintf("HTTP_%d", status)
}

// APIError is the only error type produced by the transport layer.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	// Status is the HTTP status for HTTP_<status> codes, 0 otherwise.
	Status int   `json:"-"`
	Cause  error `json:"-"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *APIError) Unwrap() error { return e.Cause }

// HTTP reports whether the server answered with a non-2xx status.
func (e *APIError) HTTP() bool { return strings.HasPrefix(e.Code, "HTTP_") }

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

var (
	// ErrAnalysisFailed the remote service reported the analysis as failed.
	ErrAnalysisFailed = errors.New("analysis failed, please try again")
	// ErrPollTimeout tracking gave up before a terminal state was observed.
	ErrPollTimeout = errors.New("analysis did not finish in time")
	// ErrFixRejected the remote service returned success:false.
	ErrFixRejected = errors.New("fix rejected")
	// ErrFixNotFound the selected fix is not part of the current result.
	ErrFixNotFound = errors.New("fix not found in current result")
	// ErrUnknownStatus the status endpoint returned an unexpected value.
	ErrUnknownStatus = errors.New("unknown analysis status")
	// ErrSnapshotNotFound no local snapshot for the analysis.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// ErrorClass groups errors the way callers present them.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassTransport
	ClassAnalysisFailed
	ClassFixRejected
	ClassCancelled
	ClassTimeout
	ClassOther
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransport:
		return "transport"
	case ClassAnalysisFailed:
		return "analysis_failed"
	case ClassFixRejected:
		return "fix_rejected"
	case ClassCancelled:
		return "cancelled"
	case ClassTimeout:
		return "timeout"
	}
	return "other"
}

// Classify maps an error onto one of the disjoint error classes.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, context.Canceled):
		return ClassCancelled
	case errors.Is(err, ErrAnalysisFailed):
		return ClassAnalysisFailed
	case errors.Is(err, ErrFixRejected):
		return ClassFixRejected
	case errors.Is(err, ErrPollTimeout):
		return ClassTimeout
	}
	// a request timeout is still a transport failure
	if _, ok := AsAPIError(err); ok {
		return ClassTransport
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	return ClassOther
}
