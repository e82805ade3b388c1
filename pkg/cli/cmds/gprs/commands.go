package gprs

import (
	"context"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sim800.go/pkg/cli/sh"
)

func stepCmd(name, help string, step func(s *sh.Session) func(context.Context) error) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			sh.ShellFrom(c).PrintResult(c, step(s)(s.Ctx))
		}),
	}
}

var (
	// RegisterCmd waits for network registration.
	RegisterCmd = stepCmd("register", "", func(s *sh.Session) func(context.Context) error {
		return s.Modem.WaitRegistered
	})

	// AttachCmd attaches GPRS service.
	AttachCmd = stepCmd("attach", "", func(s *sh.Session) func(context.Context) error {
		return s.Modem.Attach
	})

	// CloseCmd closes the TCP connection.
	CloseCmd = stepCmd("close", "", func(s *sh.Session) func(context.Context) error {
		return s.Modem.CloseConn
	})

	// ShutCmd deactivates the PDP context.
	ShutCmd = stepCmd("shut", "", func(s *sh.Session) func(context.Context) error {
		return s.Modem.Shut
	})

	// APNCmd sets APN and brings up the wireless connection.
	APNCmd = ishell.Cmd{
		Name: "apn",
		Help: "[NAME]",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			shell := sh.ShellFrom(c)
			apn := shell.Config.APN
			if len(c.Args) > 0 {
				apn = c.Args[0]
			}
			err := s.Modem.SetAPN(s.Ctx, apn)
			if err == nil {
				err = s.Modem.BringUp(s.Ctx)
			}
			shell.PrintResult(c, err)
		}),
	}

	// IPCmd prints the local IP address.
	IPCmd = ishell.Cmd{
		Name: "ip",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			shell := sh.ShellFrom(c)
			ip, err := s.Modem.LocalIP(s.Ctx)
			if shell.OutputJSON {
				out := map[string]interface{}{"ip": ip}
				if err != nil {
					out["error"] = err.Error()
				}
				shell.PrintJSON(c, out)
				return
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(ip)
		}),
	}

	// StatusCmd prints the connection state.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			shell := sh.ShellFrom(c)
			state, err := s.Modem.IPStatus(s.Ctx)
			if shell.OutputJSON {
				out := map[string]interface{}{"state": state}
				if err != nil {
					out["error"] = err.Error()
				}
				shell.PrintJSON(c, out)
				return
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(state)
		}),
	}

	// ConnectCmd starts a TCP connection.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "HOST PORT",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			host, port, err := sh.ParseAddr(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.ShellFrom(c).PrintResult(c, s.Modem.StartTCP(s.Ctx, host, port))
		}),
	}

	// SendCmd sends data in transparent mode through the full GPRS flow.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "HOST PORT DATA...",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			send(c, s, false)
		}),
	}

	// SendTextCmd sends data in non-transparent mode through the full GPRS flow.
	SendTextCmd = ishell.Cmd{
		Name: "sendtext",
		Help: "HOST PORT DATA...",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			send(c, s, true)
		}),
	}
)

func send(c *ishell.Context, s *sh.Session, text bool) {
	host, port, err := sh.ParseAddr(c.Args)
	if err != nil {
		c.Err(err)
		return
	}
	if len(c.Args) < 3 {
		c.Err(fmt.Errorf("DATA required"))
		return
	}
	shell := sh.ShellFrom(c)
	data := []byte(sh.ParseText(c.Args[2:]))
	if text {
		err = s.Modem.SendTextData(s.Ctx, shell.Config.APN, host, port, data)
	} else {
		err = s.Modem.SendData(s.Ctx, shell.Config.APN, host, port, data)
	}
	shell.PrintResult(c, err)
}

func init() {
	sh.AddCmds(
		&RegisterCmd,
		&AttachCmd,
		&APNCmd,
		&IPCmd,
		&StatusCmd,
		&ConnectCmd,
		&SendCmd,
		&SendTextCmd,
		&CloseCmd,
		&ShutCmd,
	)
}
