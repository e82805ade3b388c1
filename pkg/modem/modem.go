package modem

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sim800.go/pkg/match"
)

// Defaults of Modem.
const (
	DefaultTimeout       = 2 * time.Second
	DefaultRetryInterval = 2 * time.Second
	DefaultGuardTime     = time.Second
)

// Modem sends AT commands and collects responses.
type Modem struct {
	// Timeout is the idle time after which a response is considered complete.
	Timeout time.Duration
	// RetryInterval is the wait between retries of a failed command.
	RetryInterval time.Duration
	// GuardTime surrounds the "+++" escape sequence.
	GuardTime time.Duration
	// MaxRetries limits retries, 0 for unlimited.
	MaxRetries int
	// Echo indicates the modem echoes commands (ATE1).
	Echo bool

	port *Port
	lock sync.Mutex
}

// New creates a Modem over a serial link.
func New(rw io.ReadWriter) *Modem {
	return &Modem{
		Timeout:       DefaultTimeout,
		RetryInterval: DefaultRetryInterval,
		GuardTime:     DefaultGuardTime,
		Echo:          true,
		port:          NewPort(rw),
	}
}

// Port returns the underlying Port.
func (m *Modem) Port() *Port {
	return m.port
}

// Name implements Named.
func (m *Modem) Name() string {
	return "modem"
}

// Run implements Runnable.
func (m *Modem) Run(ctx context.Context) error {
	return m.port.Run(ctx)
}

// Close closes the serial link if it's closable.
func (m *Modem) Close() error {
	if closer, ok := m.port.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Do sends a command and waits for one of finals, DefaultFinals if none specified.
// The Response is returned together with ErrTimeout or *CommandError.
func (m *Modem) Do(ctx context.Context, cmd string, finals ...string) (*Response, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if err := m.send(ctx, cmd); err != nil {
		return nil, err
	}
	return m.readResponse(ctx, cmd, finals)
}

// Skip consumes received bytes until text is seen.
// It returns false if the link becomes idle first.
func (m *Modem) Skip(ctx context.Context, text string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return match.NewString(text).SkipIn(m.port.Recv(ctx, m.Timeout))
}

// Find consumes received bytes until the link becomes idle and reports
// whether text is seen.
func (m *Modem) Find(ctx context.Context, text string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return match.NewString(text).FindIn(m.port.Recv(ctx, m.Timeout))
}

func (m *Modem) send(ctx context.Context, cmd string) error {
	if cmd == "" {
		return ErrEmptyCommand
	}
	if err := m.port.Err(); err != nil {
		return err
	}
	select {
	case <-m.port.Done():
		return ErrNotRunning
	default:
	}
	if n := m.port.Flush(); n > 0 {
		glog.V(2).Infof("discarded %d bytes before %q", n, cmd)
	}
	glog.V(2).Infof("CMD %q", cmd)
	if err := m.port.Write([]byte(cmd + "\r\n")); err != nil {
		return err
	}
	if m.Echo && !match.NewString(cmd).SkipIn(m.port.Recv(ctx, m.Timeout)) {
		return contextErr(ctx, ErrNoEcho)
	}
	return nil
}

func (m *Modem) readResponse(ctx context.Context, cmd string, finals []string) (*Response, error) {
	if len(finals) == 0 {
		finals = DefaultFinals
	}
	matchers := make([]*match.Matcher[byte], len(finals))
	for n, final := range finals {
		matchers[n] = match.NewString(final)
	}

	resp := &Response{Command: cmd}
	var buf bytes.Buffer
scan:
	for b := range m.port.Recv(ctx, m.Timeout) {
		buf.WriteByte(b)
		for n, matcher := range matchers {
			if matcher.Add(b) == match.ResultMatch {
				resp.Final = finals[n]
				break scan
			}
		}
	}
	if resp.Final != "" && resp.Final != FinalPrompt && !strings.HasSuffix(resp.Final, "\n") {
		m.recvUntil(ctx, match.NewString("\n"), &buf)
	}
	resp.Raw = buf.Bytes()
	glog.V(2).Infof("RSP %q: %q", cmd, resp.Raw)

	if resp.Final == "" {
		return resp, contextErr(ctx, ErrTimeout)
	}
	if isFailure(resp.Final) {
		return resp, &CommandError{Command: cmd, Final: resp.Final, Detail: resp.Detail()}
	}
	return resp, nil
}

// readLine returns the next non-empty line.
func (m *Modem) readLine(ctx context.Context) (string, error) {
	lineEnd := match.NewString("\n")
	for {
		var buf bytes.Buffer
		found := m.recvUntil(ctx, lineEnd, &buf)
		if line := strings.TrimSpace(buf.String()); line != "" {
			return line, nil
		}
		if !found {
			return "", contextErr(ctx, ErrTimeout)
		}
	}
}

// recvUntil appends received bytes to buf until pattern is matched.
func (m *Modem) recvUntil(ctx context.Context, pattern *match.Matcher[byte], buf *bytes.Buffer) bool {
	return pattern.SkipIn(func(yield func(byte) bool) {
		for b := range m.port.Recv(ctx, m.Timeout) {
			buf.WriteByte(b)
			if !yield(b) {
				return
			}
		}
	})
}

func (m *Modem) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
