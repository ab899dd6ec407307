package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewHostErrorMapsKnownCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		sentinel error
	}{
		{"channel not running", CodeChannelNotRunning, ErrChannelNotRunning},
		{"connection closed", CodeConnectionClosed, ErrConnectionClosed},
		{"session not found", CodeSessionNotFound, ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewHostError("session/write", tt.code, "whatever the host said")
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", err)
			}
		})
	}
}

func TestNewHostErrorUnknownCodeKeepsMessage(t *testing.T) {
	err := NewHostError("session/create", -32000, "quota exceeded")

	if errors.Is(err, ErrChannelNotRunning) || errors.Is(err, ErrConnectionClosed) {
		t.Error("unknown code mapped to a sentinel")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("message lost: %v", err)
	}
}

func TestNewHostErrorEmptyMessage(t *testing.T) {
	err := NewHostError("session/create", -32000, "")
	if !strings.Contains(err.Error(), "host call failed") {
		t.Errorf("fallback message missing: %v", err)
	}
}

func TestWrapHostErrorIsConnectionClosed(t *testing.T) {
	cause := fmt.Errorf("websocket: close 1006 (abnormal closure)")
	err := WrapHostError("session/write", cause)

	// Transport failures classify as host-unreachable without string matching.
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("errors.Is(ErrConnectionClosed) = false for %v", err)
	}
	if !strings.Contains(err.Error(), "1006") {
		t.Errorf("original cause lost: %v", err)
	}
}

func TestHostErrorFormat(t *testing.T) {
	withCode := NewHostError("session/write", CodeChannelNotRunning, "")
	if !strings.Contains(withCode.Error(), "session/write") || !strings.Contains(withCode.Error(), "-32051") {
		t.Errorf("Error() = %q", withCode.Error())
	}

	noCode := WrapHostError("session/list", errors.New("dial refused"))
	if strings.Contains(noCode.Error(), "code") {
		t.Errorf("transport error mentions a code: %q", noCode.Error())
	}
}

func TestHostErrorUnwrapChain(t *testing.T) {
	var hostErr *HostError
	err := fmt.Errorf("writing input: %w", NewHostError("session/write", CodeChannelNotRunning, ""))

	if !errors.As(err, &hostErr) {
		t.Fatal("errors.As failed through wrapping")
	}
	if hostErr.Op != "session/write" {
		t.Errorf("Op = %q", hostErr.Op)
	}
	if !errors.Is(err, ErrChannelNotRunning) {
		t.Error("sentinel lost through wrapping")
	}
}
