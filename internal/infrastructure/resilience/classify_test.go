package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestClassifyNetwork(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"canceled", context.Canceled, ErrorClassification{}},
		{"bad gateway", &StatusError{StatusCode: http.StatusBadGateway}, ErrorClassification{Retryable: true, RecordFailure: true}},
		{"bad request", &StatusError{StatusCode: http.StatusBadRequest}, ErrorClassification{}},
		{"other", errors.New("boom"), ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		if got := ClassifyNetwork(tc.err); got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestCallReturnsValueAfterRetry(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})

	attempts := 0
	got, err := Call(context.Background(), exec, "call", func(context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", &StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return "done", nil
	}, ClassifyNetwork)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got != "done" || attempts != 2 {
		t.Fatalf("got %q after %d attempts", got, attempts)
	}
}
