package at

import (
	"context"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sim800.go/pkg/cli/sh"
)

var (
	// ATCmd sends a raw AT command.
	ATCmd = ishell.Cmd{
		Name:    "at",
		Aliases: []string{"a"},
		Help:    "COMMAND",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			cmd := strings.Join(c.Args, " ")
			if !strings.HasPrefix(strings.ToUpper(cmd), "AT") {
				cmd = "AT" + cmd
			}
			resp, err := s.Modem.Do(s.Ctx, cmd)
			sh.ShellFrom(c).PrintResponse(c, resp, err)
		}),
	}

	// SkipCmd consumes modem output until TEXT is seen.
	SkipCmd = ishell.Cmd{
		Name: "skip",
		Help: "TEXT",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			scan(c, s, "skip", s.Modem.Skip)
		}),
	}

	// FindCmd consumes modem output until idle and reports whether TEXT is seen.
	FindCmd = ishell.Cmd{
		Name: "find",
		Help: "TEXT",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			scan(c, s, "find", s.Modem.Find)
		}),
	}

	// VerboseCmd enables verbose errors.
	VerboseCmd = ishell.Cmd{
		Name: "verbose",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, s *sh.Session) {
			sh.ShellFrom(c).PrintResult(c, s.Modem.SetVerboseErrors(s.Ctx))
		}),
	}
)

func scan(c *ishell.Context, s *sh.Session, name string, fn func(context.Context, string) bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("TEXT required"))
		return
	}
	text := sh.ParseText(c.Args)
	found := fn(s.Ctx, text)
	shell := sh.ShellFrom(c)
	if shell.OutputJSON {
		shell.PrintJSON(c, map[string]interface{}{name: text, "found": found})
		return
	}
	if found {
		c.Println("found")
	} else {
		c.Println("not found")
	}
}

func init() {
	sh.AddCmds(
		&ATCmd,
		&SkipCmd,
		&FindCmd,
		&VerboseCmd,
	)
}
