package sh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/golang/protobuf/jsonpb"
	structpb "github.com/golang/protobuf/ptypes/struct"

	fx "github.com/robotalks/sim800.go/pkg/framework"
	"github.com/robotalks/sim800.go/pkg/modem"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell   *ishell.Shell
	Config  *modem.Config
	Session *Session
}

// Session is a running modem.
type Session struct {
	Ctx    context.Context
	Cancel func()
	Device string
	Modem  *modem.Modem
	Runner *fx.Runner
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *modem.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open modem.
func MustBeOpen(fn func(c *ishell.Context, s *Session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c).Session
		if s == nil {
			c.Err(fmt.Errorf("modem not open"))
			return
		}
		fn(c, s)
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the modem on the configured device.
func (s *Shell) Open() error {
	s.Close()
	m, err := s.Config.Open()
	if err != nil {
		return err
	}
	session := &Session{Device: s.Config.Device, Modem: m}
	session.Ctx, session.Cancel = context.WithCancel(context.Background())
	session.Runner = fx.NewRunner().Go(m)
	s.Session = session
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", session.Device))
	return nil
}

// Close closes current modem.
func (s *Shell) Close() {
	if s.Session != nil {
		session := s.Session
		session.Cancel()
		session.Runner.Stop()
		session.Modem.Close()
		// a blocked read may not return on close, don't wait for it.
		go func() {
			if err := session.Runner.Wait(); err != nil {
				glog.Warningf("%s: %v", session.Device, err)
			}
		}()
		s.Session = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// PrintResult prints the result of a command without output.
func (s *Shell) PrintResult(c *ishell.Context, err error) {
	if s.OutputJSON {
		s.PrintJSON(c, map[string]interface{}{"ok": err == nil, "error": errString(err)})
		return
	}
	if err != nil {
		c.Err(err)
		return
	}
	c.Println("OK")
}

// PrintResponse prints a modem Response.
func (s *Shell) PrintResponse(c *ishell.Context, resp *modem.Response, err error) {
	if s.OutputJSON {
		out := map[string]interface{}{"ok": err == nil, "error": errString(err)}
		if resp != nil {
			out["command"] = resp.Command
			out["final"] = strings.TrimSpace(resp.Final)
			out["lines"] = resp.Lines()
		}
		s.PrintJSON(c, out)
		return
	}
	if resp != nil {
		for _, line := range resp.Lines() {
			c.Println(line)
		}
	}
	if err != nil {
		c.Err(err)
	}
}

// PrintJSON prints fields as a JSON object.
func (s *Shell) PrintJSON(c *ishell.Context, fields map[string]interface{}) {
	st := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	for key, val := range fields {
		st.Fields[key] = jsonValue(val)
	}
	out, err := (&jsonpb.Marshaler{}).MarshalToString(st)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(out)
}

// ParseText joins args as text, accepting Go string escapes.
func ParseText(args []string) string {
	text := strings.Join(args, " ")
	if unquoted, err := strconv.Unquote(`"` + text + `"`); err == nil {
		return unquoted
	}
	return text
}

// ParseAddr parses HOST PORT from args.
func ParseAddr(args []string) (string, int, error) {
	if len(args) < 2 {
		return "", 0, fmt.Errorf("HOST PORT required")
	}
	port, err := strconv.Atoi(args[1])
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid PORT %q", args[1])
	}
	return args[0], port, nil
}

func jsonValue(val interface{}) *structpb.Value {
	switch v := val.(type) {
	case nil:
		return &structpb.Value{Kind: &structpb.Value_NullValue{}}
	case string:
		return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
	case bool:
		return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
	case int:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: float64(v)}}
	case []string:
		items := make([]*structpb.Value, len(v))
		for n, item := range v {
			items[n] = jsonValue(item)
		}
		return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: items}}}
	default:
		return jsonValue(fmt.Sprint(v))
	}
}

func errString(err error) interface{} {
	if err == nil {
		return nil
	}
	return err.Error()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.Device != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.Device)
		}
		if err := s.Open(); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Device, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens the modem, optionally on another device.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.Device = c.Args[0]
			}
			s.PrintResult(c, s.Open())
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(modem.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
