// Package domain contains domain errors used throughout the application.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrChannelNotRunning means the session's process channel is down on the
	// host side. This is the one write-failure class that is worth a
	// client-driven reconnect attempt.
	ErrChannelNotRunning = errors.New("session channel is not running")

	// ErrConnectionClosed means the host itself is unreachable. Retrying a
	// single session is futile until the host recovers, so this never drives
	// a reconnect attempt.
	ErrConnectionClosed = errors.New("host connection closed")

	ErrSessionNotFound   = errors.New("session not found")
	ErrReconnectTimeout  = errors.New("reconnect attempt timed out")
	ErrDispatcherStopped = errors.New("event dispatcher is not running")
	ErrBridgeClosed      = errors.New("render bridge is closed")
)

// Host error codes carried on JSON-RPC errors from the process host.
const (
	CodeSessionNotFound   = -32010
	CodeChannelNotRunning = -32051
	CodeConnectionClosed  = -32052
)

// HostError represents a failed call against the process host.
type HostError struct {
	Op   string // RPC method that failed
	Code int    // JSON-RPC error code, 0 when the call never reached the host
	Err  error  // Underlying error (a sentinel when the code is recognized)
}

func (e *HostError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("host %s: code %d: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("host %s: %v", e.Op, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// NewHostError creates a HostError from a remote error code and message.
// Recognized codes map to sentinel errors so callers can classify with
// errors.Is instead of matching message strings.
func NewHostError(op string, code int, message string) *HostError {
	return &HostError{
		Op:   op,
		Code: code,
		Err:  errFromCode(code, message),
	}
}

// WrapHostError creates a HostError around a local (transport-level) failure.
// A torn websocket means the host is unreachable, so the underlying error is
// the connection-closed sentinel carrying the original cause.
func WrapHostError(op string, err error) *HostError {
	return &HostError{
		Op:  op,
		Err: fmt.Errorf("%w: %v", ErrConnectionClosed, err),
	}
}

func errFromCode(code int, message string) error {
	switch code {
	case CodeChannelNotRunning:
		return ErrChannelNotRunning
	case CodeConnectionClosed:
		return ErrConnectionClosed
	case CodeSessionNotFound:
		return ErrSessionNotFound
	default:
		if message == "" {
			message = "host call failed"
		}
		return errors.New(message)
	}
}
