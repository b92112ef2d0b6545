package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"fileorg/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransfer, "transfer", "copy", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transfer", "copy", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestTerminalStateMapping(t *testing.T) {
	if state := services.TerminalState(nil); state != services.RunCompleted {
		t.Fatalf("expected completed for nil error, got %s", state)
	}
	cancelled := fmt.Errorf("organize: %w", context.Canceled)
	if state := services.TerminalState(cancelled); state != services.RunCancelled {
		t.Fatalf("expected cancelled, got %s", state)
	}
	fatal := services.Wrap(services.ErrNotFound, "preflight", "source", "missing", nil)
	if state := services.TerminalState(fatal); state != services.RunFailed {
		t.Fatalf("expected failed, got %s", state)
	}
}

func TestIsRunFatal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.Wrap(services.ErrValidation, "preflight", "dest", "bad", nil), true},
		{services.Wrap(services.ErrLocked, "preflight", "lock", "held", nil), true},
		{services.Wrap(services.ErrTransfer, "transfer", "copy", "disk full", nil), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := services.IsRunFatal(tc.err); got != tc.want {
			t.Fatalf("IsRunFatal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
