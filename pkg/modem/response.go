package modem

import (
	"bytes"
	"slices"
	"strings"

	"github.com/robotalks/sim800.go/pkg/match"
)

// Final result codes.
const (
	FinalOK          = "OK\r\n"
	FinalError       = "ERROR\r\n"
	FinalCMEError    = "+CME ERROR:"
	FinalConnect     = "CONNECT\r\n"
	FinalConnectOK   = "CONNECT OK\r\n"
	FinalConnectFail = "CONNECT FAIL\r\n"
	FinalAlreadyConn = "ALREADY CONNECT\r\n"
	FinalSendOK      = "SEND OK\r\n"
	FinalSendFail    = "SEND FAIL\r\n"
	FinalCloseOK     = "CLOSE OK\r\n"
	FinalShutOK      = "SHUT OK\r\n"
	FinalState       = "STATE: "
	// FinalPrompt asks for data after AT+CIPSEND, no line ending follows.
	FinalPrompt      = ">"
)

// DefaultFinals are used when a command doesn't specify final result codes.
var DefaultFinals = []string{FinalOK, FinalError, FinalCMEError}

// Response is the reply of a command.
type Response struct {
	Command string
	// Raw contains everything received after the echo.
	Raw []byte
	// Final is the final result code matched, empty on timeout.
	Final string
}

// OK indicates a final result code is received and it's not a failure.
func (r *Response) OK() bool {
	return r.Final != "" && !isFailure(r.Final)
}

// Contains reports whether marker appears anywhere in the response.
func (r *Response) Contains(marker string) bool {
	if marker == "" {
		return true
	}
	return match.NewString(marker).FindIn(slices.Values(r.Raw))
}

// Lines returns non-empty lines of the response.
func (r *Response) Lines() []string {
	var lines []string
	for _, line := range strings.Split(string(r.Raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Detail returns the text following the final result code on the same line,
// e.g. the message of "+CME ERROR: SIM not inserted".
func (r *Response) Detail() string {
	if r.Final == "" {
		return ""
	}
	pos := bytes.LastIndex(r.Raw, []byte(r.Final))
	if pos < 0 {
		return ""
	}
	return strings.TrimSpace(string(r.Raw[pos+len(r.Final):]))
}

func isFailure(final string) bool {
	return strings.Contains(final, "ERROR") || strings.Contains(final, "FAIL")
}
