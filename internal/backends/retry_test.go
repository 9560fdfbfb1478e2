package backends

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryPolicyRetriesTransientFailures(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		Retries: 2,
		Backoff: 100 * time.Millisecond,
		sleep:   func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &TransientError{Op: "send request", Status: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	// Linear backoff: base*1, base*2.
	if len(slept) != 2 || slept[0] != 100*time.Millisecond || slept[1] != 200*time.Millisecond {
		t.Fatalf("backoff schedule = %v", slept)
	}
}

func TestRetryPolicyExhaustsBudget(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		Retries: 2,
		Backoff: time.Millisecond,
		sleep:   func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	transient := &TransientError{Op: "send request", Status: 502}
	err := policy.Do(context.Background(), func() error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("final error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	// No sleep after the final attempt.
	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(slept))
	}
}

func TestRetryPolicyDoesNotRetryMalformedResponses(t *testing.T) {
	policy := RetryPolicy{
		Retries: 2,
		Backoff: time.Millisecond,
		sleep:   func(time.Duration) { t.Fatal("slept on a non-retryable error") },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return &MalformedResponseError{Op: "decode response", Err: errors.New("bad json")}
	})
	if err == nil || calls != 1 {
		t.Fatalf("err = %v, calls = %d; want one failing call", err, calls)
	}
}

func TestRetryPolicyHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := DefaultRetryPolicy()
	err := policy.Do(ctx, func() error {
		t.Fatal("fn called with cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIsTransient(t *testing.T) {
	wrapped := &TransientError{Op: "send request", Status: 500}
	if !IsTransient(wrapped) {
		t.Fatalf("TransientError not recognized")
	}
	if !IsTransient(fmt.Errorf("send failed: %w", wrapped)) {
		t.Fatalf("wrapped TransientError not recognized")
	}
	if IsTransient(&MalformedResponseError{Op: "decode"}) {
		t.Fatalf("MalformedResponseError misclassified as transient")
	}
	if IsTransient(nil) {
		t.Fatalf("nil misclassified as transient")
	}
}

func TestIsEndpointMissing(t *testing.T) {
	if !IsEndpointMissing(&TransientError{Op: "send request", Status: 404}) {
		t.Fatalf("404 not treated as missing endpoint")
	}
	if !IsEndpointMissing(&TransientError{Op: "send request", Status: 405}) {
		t.Fatalf("405 not treated as missing endpoint")
	}
	if IsEndpointMissing(&TransientError{Op: "send request", Status: 500}) {
		t.Fatalf("500 treated as missing endpoint")
	}
	if IsEndpointMissing(errors.New("plain")) {
		t.Fatalf("plain error treated as missing endpoint")
	}
}
