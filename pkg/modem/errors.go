package modem

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout indicates no final result code is received before the
	// link becomes idle.
	ErrTimeout = errors.New("response timeout")
	// ErrNoEcho indicates the command echo is not received.
	ErrNoEcho = errors.New("no echo")
	// ErrEmptyCommand indicates an empty command.
	ErrEmptyCommand = errors.New("empty command")
	// ErrNotRegistered indicates the modem is not registered to the network.
	ErrNotRegistered = errors.New("not registered")
	// ErrRetriesExhausted indicates a command keeps failing after MaxRetries.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrNotRunning indicates the port read loop has stopped.
	ErrNotRunning = errors.New("port not running")
)

// CommandError is returned when the modem replies a failure result code.
type CommandError struct {
	Command string
	Final   string
	Detail  string
}

// Error implements error.
func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Final)
	if e.Detail != "" {
		msg = strings.TrimSuffix(msg, ":") + ": " + e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Command, msg)
}
