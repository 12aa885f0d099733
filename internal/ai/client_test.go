// Package ai_test tests error classification and prompt construction.
package ai_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stepwork/stepbot/internal/ai"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "dial tcp: connection refused" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ai.ErrorClass
	}{
		{name: "nil", err: nil, want: ai.ClassNone},
		{name: "unauthorized", err: &ai.StatusError{Code: 401}, want: ai.ClassInvalidKey},
		{name: "payment required", err: &ai.StatusError{Code: 402}, want: ai.ClassBalance},
		{name: "rate limited", err: &ai.StatusError{Code: 429}, want: ai.ClassRateLimit},
		{name: "server error", err: &ai.StatusError{Code: 503}, want: ai.ClassServer},
		{name: "wrapped status", err: fmt.Errorf("call failed: %w", &ai.StatusError{Code: 401}), want: ai.ClassInvalidKey},
		{name: "client error falls through", err: &ai.StatusError{Code: 400}, want: ai.ClassServer},
		{name: "empty response", err: ai.ErrEmptyResponse, want: ai.ClassEmpty},
		{name: "wrapped empty", err: fmt.Errorf("backend: %w", ai.ErrEmptyResponse), want: ai.ClassEmpty},
		{name: "deadline", err: context.DeadlineExceeded, want: ai.ClassTimeout},
		{name: "canceled", err: context.Canceled, want: ai.ClassTimeout},
		{name: "net error", err: fakeNetError{}, want: ai.ClassTimeout},
		{name: "anything else", err: errors.New("boom"), want: ai.ClassServer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ai.Classify(tc.err); got != tc.want {
				t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestStatusErrorMessage(t *testing.T) {
	t.Parallel()

	bare := &ai.StatusError{Code: 500}
	if bare.Error() != "AI backend returned status 500" {
		t.Errorf("bare error = %q", bare.Error())
	}

	withMsg := &ai.StatusError{Code: 429, Message: "quota exceeded"}
	if withMsg.Error() != "AI backend returned status 429: quota exceeded" {
		t.Errorf("error with message = %q", withMsg.Error())
	}
}

// Keep the timeout-class contract honest: a wrapped deadline still counts.
func TestClassifyWrappedDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := fmt.Errorf("generate: %w", ctx.Err())
	if got := ai.Classify(err); got != ai.ClassTimeout {
		t.Errorf("Classify = %q, want timeout", got)
	}
}
