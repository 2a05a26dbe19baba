package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	httpErr := &APIError{Code: HTTPCode(404), Message: "not found", Status: 404}
	netTimeout := &APIError{Code: CodeNetwork, Message: "cannot connect", Cause: context.DeadlineExceeded}
	netCancel := &APIError{Code: CodeNetwork, Message: "cannot connect", Cause: context.Canceled}

	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassNone},
		{"http", httpErr, ClassTransport},
		{"wrapped http", fmt.Errorf("refresh: %w", httpErr), ClassTransport},
		{"request timeout is transport", netTimeout, ClassTransport},
		{"cancelled request", netCancel, ClassCancelled},
		{"cancelled", context.Canceled, ClassCancelled},
		{"failed", ErrAnalysisFailed, ClassAnalysisFailed},
		{"rejected", fmt.Errorf("%w: no permission", ErrFixRejected), ClassFixRejected},
		{"poll timeout", ErrPollTimeout, ClassTimeout},
		{"deadline", context.DeadlineExceeded, ClassTimeout},
		{"other", errors.New("boom"), ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{Code: HTTPCode(500), Message: "HTTP 500: Internal Server Error", Status: 500}
	assert.Equal(t, "HTTP_500", err.Code)
	assert.True(t, err.HTTP())
	assert.Equal(t, "HTTP_500: HTTP 500: Internal Server Error", err.Error())

	got, ok := AsAPIError(fmt.Errorf("wrap: %w", err))
	assert.True(t, ok)
	assert.Same(t, err, got)

	assert.False(t, (&APIError{Code: CodeNetwork}).HTTP())
	_, ok = AsAPIError(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transport", ClassTransport.String())
	assert.Equal(t, "timeout", ClassTimeout.String())
	assert.Equal(t, "other", ErrorClass(99).String())
}
