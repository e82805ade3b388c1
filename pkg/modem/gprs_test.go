package modem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	replyOK    = "\r\nOK\r\n"
	replyError = "\r\nERROR\r\n"
)

func TestWaitRegistered(t *testing.T) {
	testCases := []struct {
		name    string
		replies []string
		polls   int
		err     error
	}{
		{"registered", []string{"\r\n+CREG: 0,1\r\n" + replyOK}, 1, nil},
		{"searching", []string{
			"\r\n+CREG: 0,2\r\n" + replyOK,
			"\r\n+CREG: 0,2\r\n" + replyOK,
			"\r\n+CREG: 0,1\r\n" + replyOK,
		}, 3, nil},
		{"denied", []string{"\r\n+CREG: 0,3\r\n" + replyOK}, 1, ErrNotRegistered},
		{"error", []string{replyError}, 1, ErrNotRegistered},
		{"still searching", []string{"\r\n+CREG: 0,2\r\n" + replyOK}, 5, ErrRetriesExhausted},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newModemTestEnv(t, map[string][]string{"AT+CREG?": tc.replies})
			err := env.modem.WaitRegistered(env.ctx)
			if tc.err == nil {
				require.NoError(t, err)
			} else {
				require.True(t, errors.Is(err, tc.err), "unexpected error: %v", err)
			}
			require.Len(t, env.fake.Commands(), tc.polls)
		})
	}
}

func TestDoUntilOK(t *testing.T) {
	env := newModemTestEnv(t, map[string][]string{
		"AT+CIPMODE=1": {replyError, "\r\n+CME ERROR: operation not allowed\r\n", replyOK},
		"AT+CIPSTATUS": {"\r\nOK\r\n\r\nSTATE: IP INITIAL\r\n"},
	})
	require.NoError(t, env.modem.SetTransparent(env.ctx))
	require.Equal(t, []string{
		"AT+CIPMODE=1", "AT+CIPSTATUS",
		"AT+CIPMODE=1", "AT+CIPSTATUS",
		"AT+CIPMODE=1",
	}, env.fake.Commands())
}

func TestIPStatus(t *testing.T) {
	env := newModemTestEnv(t, map[string][]string{
		"AT+CIPSTATUS": {"\r\nOK\r\n\r\nSTATE: IP INITIAL\r\n", replyError},
	})
	state, err := env.modem.IPStatus(env.ctx)
	require.NoError(t, err)
	require.Equal(t, "IP INITIAL", state)

	_, err = env.modem.IPStatus(env.ctx)
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
}

func TestRetriesExhausted(t *testing.T) {
	env := newModemTestEnv(t, map[string][]string{"AT+CGATT=1": {replyError}})
	env.modem.MaxRetries = 2
	require.Equal(t, ErrRetriesExhausted, env.modem.Attach(env.ctx))
	require.Len(t, env.fake.Commands(), 2)
}

func TestRetryCanceled(t *testing.T) {
	env := newModemTestEnv(t, map[string][]string{"AT+CGATT=1": {replyError}})
	env.modem.MaxRetries = 0
	env.modem.RetryInterval = time.Minute
	ctx, cancel := context.WithCancel(env.ctx)
	time.AfterFunc(20*time.Millisecond, cancel)
	require.Equal(t, context.Canceled, env.modem.Attach(ctx))
}

func TestLocalIP(t *testing.T) {
	env := newModemTestEnv(t, map[string][]string{"AT+CIFSR": {"\r\n10.64.12.7\r\n", replyError}})
	ip, err := env.modem.LocalIP(env.ctx)
	require.NoError(t, err)
	require.Equal(t, "10.64.12.7", ip)

	_, err = env.modem.LocalIP(env.ctx)
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, "AT+CIFSR", cmdErr.Command)
}

func TestStartTCP(t *testing.T) {
	const cmd = `AT+CIPSTART="TCP","116.228.221.51","8500"`
	testCases := []struct {
		name     string
		replies  []string
		attempts int
		err      error
	}{
		{"transparent", []string{replyOK + "\r\nCONNECT\r\n"}, 1, nil},
		{"non-transparent", []string{replyOK + "\r\nCONNECT OK\r\n"}, 1, nil},
		{"retry failed", []string{replyOK + "\r\nCONNECT FAIL\r\n", replyOK + "\r\nCONNECT OK\r\n"}, 2, nil},
		{"always error", []string{replyError}, 5, ErrRetriesExhausted},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newModemTestEnv(t, map[string][]string{cmd: tc.replies})
			require.Equal(t, tc.err, env.modem.StartTCP(env.ctx, "116.228.221.51", 8500))
			require.Len(t, env.fake.Commands(), tc.attempts)
		})
	}
}

func gprsScript() map[string][]string {
	script := map[string][]string{
		"AT+CREG?":     {"\r\n+CREG: 0,1\r\n" + replyOK},
		"AT+CGATT=1":   {replyOK},
		"AT+CIPMODE=1": {replyOK},
		"AT+CIICR":     {replyOK},
		"AT+CIFSR":     {"\r\n10.64.12.7\r\n"},
		"AT+CIPSEND":   {"\r\n> "},
		ctrlZKey:       {"\r\nSEND OK\r\n"},
		"AT+CIPCLOSE":  {"\r\nCLOSE OK\r\n"},
		"AT+CIPSHUT":   {"\r\nSHUT OK\r\n"},
	}
	script[`AT+CSTT="3g.ge"`] = []string{replyOK}
	script[`AT+CIPSTART="TCP","example.com","8500"`] = []string{replyOK + "\r\nCONNECT\r\n"}
	return script
}

func TestSendData(t *testing.T) {
	env := newModemTestEnv(t, gprsScript())
	require.NoError(t, env.modem.SendData(env.ctx, "3g.ge", "example.com", 8500, []byte("t=21.5")))
	require.Equal(t, []string{
		"AT+CREG?",
		"AT+CGATT=1",
		"AT+CIPMODE=1",
		`AT+CSTT="3g.ge"`,
		"AT+CIICR",
		"AT+CIFSR",
		`AT+CIPSTART="TCP","example.com","8500"`,
		"AT+CIPCLOSE",
		"AT+CIPSHUT",
	}, env.fake.Commands())
	require.Equal(t, "t=21.5\r\n+++", env.fake.Data())
}

func TestSendDataNotRegistered(t *testing.T) {
	script := gprsScript()
	script["AT+CREG?"] = []string{"\r\n+CREG: 0,0\r\n" + replyOK}
	env := newModemTestEnv(t, script)
	err := env.modem.SendData(env.ctx, "3g.ge", "example.com", 8500, []byte("t=21.5"))
	require.True(t, errors.Is(err, ErrNotRegistered))
	require.Equal(t, []string{"AT+CREG?"}, env.fake.Commands())
	require.Empty(t, env.fake.Data())
}

func TestSendTextData(t *testing.T) {
	env := newModemTestEnv(t, gprsScript())
	require.NoError(t, env.modem.SendTextData(env.ctx, "3g.ge", "example.com", 8500, []byte("t=21.5")))
	require.Equal(t, []string{
		"AT+CGATT=1",
		`AT+CSTT="3g.ge"`,
		"AT+CIICR",
		"AT+CIFSR",
		`AT+CIPSTART="TCP","example.com","8500"`,
		"AT+CIPSEND",
		ctrlZKey,
		"AT+CIPCLOSE",
		"AT+CIPSHUT",
	}, env.fake.Commands())
	require.Equal(t, "t=21.5\r\n", env.fake.Data())
}

func TestSendTextNoPrompt(t *testing.T) {
	testCases := []struct {
		name  string
		reply string
		check func(t *testing.T, err error)
	}{
		{"error", replyError, func(t *testing.T, err error) {
			var cmdErr *CommandError
			require.True(t, errors.As(err, &cmdErr), "unexpected error: %v", err)
			require.Equal(t, "AT+CIPSEND", cmdErr.Command)
			require.Equal(t, FinalError, cmdErr.Final)
		}},
		{"cme error", "\r\n+CME ERROR: operation not allowed\r\n", func(t *testing.T, err error) {
			var cmdErr *CommandError
			require.True(t, errors.As(err, &cmdErr), "unexpected error: %v", err)
			require.Equal(t, "operation not allowed", cmdErr.Detail)
		}},
		{"silent", "", func(t *testing.T, err error) {
			require.Equal(t, ErrTimeout, err)
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newModemTestEnv(t, map[string][]string{"AT+CIPSEND": {tc.reply}})
			env.modem.Timeout = time.Second
			if tc.reply == "" {
				env.modem.Timeout = 50 * time.Millisecond
			}
			start := time.Now()
			tc.check(t, env.modem.SendText(env.ctx, []byte("x")))
			require.True(t, time.Since(start) < time.Second, "waited until idle")
			require.Empty(t, env.fake.Data())
		})
	}
}
