package modem

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang/glog"
)

const ctrlZ = 0x1a

// SetVerboseErrors enables verbose +CME ERROR messages (AT+CMEE=2).
func (m *Modem) SetVerboseErrors(ctx context.Context) error {
	_, err := m.Do(ctx, "AT+CMEE=2")
	return err
}

// WaitRegistered polls AT+CREG? until the modem is registered to the
// home network. It fails with ErrNotRegistered if the modem isn't
// searching for an operator.
func (m *Modem) WaitRegistered(ctx context.Context) error {
	return m.retry(ctx, func() (bool, error) {
		resp, err := m.Do(ctx, "AT+CREG?")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		switch {
		case resp != nil && resp.Contains("+CREG: 0,1"):
			return true, nil
		case resp != nil && resp.Contains("+CREG: 0,2"):
			glog.V(1).Info("searching operator")
			return false, nil
		case err != nil:
			return false, fmt.Errorf("%w: %v", ErrNotRegistered, err)
		default:
			return false, fmt.Errorf("%w: %v", ErrNotRegistered, resp.Lines())
		}
	})
}

// Attach attaches to GPRS service (AT+CGATT=1).
func (m *Modem) Attach(ctx context.Context) error {
	return m.doUntilOK(ctx, "AT+CGATT=1", nil)
}

// SetTransparent selects transparent TCP/IP mode (AT+CIPMODE=1).
func (m *Modem) SetTransparent(ctx context.Context) error {
	return m.doUntilOK(ctx, "AT+CIPMODE=1", func() {
		if state, err := m.IPStatus(ctx); err == nil {
			glog.Infof("IP status: %s", state)
		}
	})
}

// IPStatus queries the connection state (AT+CIPSTATUS), e.g. "IP INITIAL".
// The state line follows OK.
func (m *Modem) IPStatus(ctx context.Context) (string, error) {
	resp, err := m.Do(ctx, "AT+CIPSTATUS", FinalState, FinalError, FinalCMEError)
	if err != nil {
		return "", err
	}
	return resp.Detail(), nil
}

// SetAPN sets the access point name (AT+CSTT).
func (m *Modem) SetAPN(ctx context.Context, apn string) error {
	return m.doUntilOK(ctx, fmt.Sprintf("AT+CSTT=%q", apn), nil)
}

// BringUp brings up the wireless connection (AT+CIICR).
func (m *Modem) BringUp(ctx context.Context) error {
	_, err := m.Do(ctx, "AT+CIICR")
	return err
}

// LocalIP gets the local IP address (AT+CIFSR).
// It's also required by the modem before starting a connection.
func (m *Modem) LocalIP(ctx context.Context) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	const cmd = "AT+CIFSR"
	if err := m.send(ctx, cmd); err != nil {
		return "", err
	}
	line, err := m.readLine(ctx)
	if err != nil {
		return "", err
	}
	if isFailure(line) {
		return "", &CommandError{Command: cmd, Final: line}
	}
	return line, nil
}

// StartTCP starts a TCP connection (AT+CIPSTART). In transparent mode,
// the modem enters data mode on success.
func (m *Modem) StartTCP(ctx context.Context, addr string, port int) error {
	cmd := fmt.Sprintf("AT+CIPSTART=\"TCP\",%q,%q", addr, strconv.Itoa(port))
	return m.retry(ctx, func() (bool, error) {
		_, err := m.Do(ctx, cmd,
			FinalConnectOK, FinalConnect, FinalAlreadyConn,
			FinalConnectFail, FinalError, FinalCMEError)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if err != nil {
			glog.Warningf("connect %s:%d failed: %v", addr, port, err)
			return false, nil
		}
		return true, nil
	})
}

// Transmit writes data in transparent mode and escapes to command mode
// with "+++" surrounded by GuardTime.
func (m *Modem) Transmit(ctx context.Context, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if err := m.port.Write(append(append([]byte(nil), data...), '\r', '\n')); err != nil {
		return err
	}
	if err := m.sleep(ctx, m.GuardTime); err != nil {
		return err
	}
	if err := m.port.Write([]byte("+++")); err != nil {
		return err
	}
	return m.sleep(ctx, m.GuardTime)
}

// SendText sends data in non-transparent mode (AT+CIPSEND), terminated by
// CTRL-Z, and waits for SEND OK.
func (m *Modem) SendText(ctx context.Context, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	const cmd = "AT+CIPSEND"
	if err := m.send(ctx, cmd); err != nil {
		return err
	}
	if _, err := m.readResponse(ctx, cmd, []string{FinalPrompt, FinalError, FinalCMEError}); err != nil {
		return err
	}
	payload := append(append([]byte(nil), data...), '\r', '\n', ctrlZ)
	if err := m.port.Write(payload); err != nil {
		return err
	}
	_, err := m.readResponse(ctx, cmd, []string{FinalSendOK, FinalSendFail, FinalError, FinalCMEError})
	return err
}

// CloseConn closes the TCP connection (AT+CIPCLOSE).
func (m *Modem) CloseConn(ctx context.Context) error {
	_, err := m.Do(ctx, "AT+CIPCLOSE", FinalCloseOK, FinalError, FinalCMEError)
	return err
}

// Shut deactivates the GPRS PDP context (AT+CIPSHUT).
func (m *Modem) Shut(ctx context.Context) error {
	_, err := m.Do(ctx, "AT+CIPSHUT", FinalShutOK, FinalError, FinalCMEError)
	return err
}

// SendData sends data to addr:port over GPRS in transparent mode.
func (m *Modem) SendData(ctx context.Context, apn, addr string, port int, data []byte) error {
	steps := []func(context.Context) error{
		m.WaitRegistered,
		m.Attach,
		m.SetTransparent,
		func(ctx context.Context) error { return m.SetAPN(ctx, apn) },
		m.BringUp,
		m.logLocalIP,
		func(ctx context.Context) error { return m.StartTCP(ctx, addr, port) },
		func(ctx context.Context) error { return m.Transmit(ctx, data) },
	}
	if err := runSteps(ctx, steps); err != nil {
		return err
	}
	return m.disconnect(ctx)
}

// SendTextData sends data to addr:port over GPRS in non-transparent mode.
func (m *Modem) SendTextData(ctx context.Context, apn, addr string, port int, data []byte) error {
	steps := []func(context.Context) error{
		m.Attach,
		func(ctx context.Context) error { return m.SetAPN(ctx, apn) },
		m.BringUp,
		m.logLocalIP,
		func(ctx context.Context) error { return m.StartTCP(ctx, addr, port) },
		func(ctx context.Context) error { return m.SendText(ctx, data) },
	}
	if err := runSteps(ctx, steps); err != nil {
		return err
	}
	return m.disconnect(ctx)
}

func (m *Modem) logLocalIP(ctx context.Context) error {
	ip, err := m.LocalIP(ctx)
	if err != nil {
		return err
	}
	glog.Infof("local IP: %s", ip)
	return nil
}

// disconnect closes the connection and shuts the PDP context.
// Failures are only logged as data has been sent.
func (m *Modem) disconnect(ctx context.Context) error {
	if err := m.CloseConn(ctx); err != nil {
		glog.Warningf("close connection: %v", err)
	}
	if err := m.Shut(ctx); err != nil {
		glog.Warningf("shut: %v", err)
	}
	return ctx.Err()
}

func runSteps(ctx context.Context, steps []func(context.Context) error) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// doUntilOK retries cmd until OK. onError is called after each failure.
func (m *Modem) doUntilOK(ctx context.Context, cmd string, onError func()) error {
	return m.retry(ctx, func() (bool, error) {
		_, err := m.Do(ctx, cmd)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if err != nil {
			glog.Warningf("%v", err)
			if onError != nil {
				onError()
			}
			return false, nil
		}
		return true, nil
	})
}

// retry calls fn until it's done or fails, waiting RetryInterval in between.
func (m *Modem) retry(ctx context.Context, fn func() (bool, error)) error {
	for attempt := 1; ; attempt++ {
		done, err := fn()
		if done || err != nil {
			return err
		}
		if m.MaxRetries > 0 && attempt >= m.MaxRetries {
			return ErrRetriesExhausted
		}
		if err := m.sleep(ctx, m.RetryInterval); err != nil {
			return err
		}
	}
}
