// Package ai integrates the external LLM: backend clients, error
// classification, prompt construction, and the help orchestrator that ties
// them to conversation state.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Message is one turn of the chat-completion conversation sent to the LLM.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client generates one completion for an ordered message list.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// ErrEmptyResponse marks a call that returned no usable content.
var ErrEmptyResponse = errors.New("empty response from AI backend")

// StatusError is an HTTP-level failure from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("AI backend returned status %d", e.Code)
	}
	return fmt.Sprintf("AI backend returned status %d: %s", e.Code, e.Message)
}

// ErrorClass buckets LLM failures for user-facing rendering. No automatic
// retry happens for any class; the user re-triggers with a refresh.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassTimeout    ErrorClass = "timeout"
	ClassServer     ErrorClass = "server"
	ClassInvalidKey ErrorClass = "invalid_key"
	ClassBalance    ErrorClass = "balance"
	ClassRateLimit  ErrorClass = "rate_limit"
	ClassEmpty      ErrorClass = "empty"

	// ClassConfig means no backend is configured at all (missing API key).
	// Unlike the other classes it is not produced by Classify; the
	// orchestrator reports it when it has no client to call.
	ClassConfig ErrorClass = "config"
)

// Classify maps a failed Generate error to its user-facing class.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == 401:
			return ClassInvalidKey
		case statusErr.Code == 402:
			return ClassBalance
		case statusErr.Code == 429:
			return ClassRateLimit
		case statusErr.Code >= 500:
			return ClassServer
		}
	}

	if errors.Is(err, ErrEmptyResponse) {
		return ClassEmpty
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTimeout
	}

	return ClassServer
}
