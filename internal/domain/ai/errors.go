package ai

import "errors"

var (
	// ErrQuotaExceeded the model provider refused with a rate or quota limit.
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrEmptyCompletion the provider answered without any choice.
	ErrEmptyCompletion = errors.New("empty chat completion")
	// ErrMalformedBriefing the model output is not the expected JSON document.
	ErrMalformedBriefing = errors.New("malformed briefing")
)
