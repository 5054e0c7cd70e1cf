package repl

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"ocontest/internal/cli/command"
	"ocontest/internal/cli/config"
	httpclient "ocontest/internal/cli/http"
	"ocontest/internal/cli/render"
	"ocontest/internal/cli/resultstore"
	"ocontest/internal/cli/state"
	pkgerrors "ocontest/pkg/errors"
	"ocontest/pkg/utils/contextkey"
	"ocontest/pkg/utils/logger"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"go.uber.org/zap"
)

const Prompt = "ocontest> "

// LineReader is the input side of the session. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
	Close() error
}

// Session holds REPL state.
type Session struct {
	client     *httpclient.Client
	commands   map[string]command.Command
	tokenState *state.TokenState
	cfg        config.Config
	store      resultstore.Store
	out        *render.Printer
	reader     LineReader
	now        func() time.Time
}

func New(client *httpclient.Client, commands map[string]command.Command, tokenState *state.TokenState, cfg config.Config, store resultstore.Store, out io.Writer) *Session {
	if store == nil {
		store = resultstore.NewLRUStore(cfg.Cache.LocalSize, cfg.Cache.TTL)
	}
	return &Session{
		client:     client,
		commands:   commands,
		tokenState: tokenState,
		cfg:        cfg,
		store:      store,
		out:        render.New(out, render.WithPrettyJSON(cfg.Pretty())),
		now:        time.Now,
	}
}

// Run reads lines until exit, EOF or interrupt at the prompt. Ctrl-C while a command
// runs cancels only that command.
func (s *Session) Run(ctx context.Context, reader LineReader) error {
	s.reader = reader
	reader.SetPrompt(Prompt)
	for {
		line, err := reader.Readline()
		if err != nil {
			if stderrors.Is(err, io.EOF) || stderrors.Is(err, readline.ErrInterrupt) {
				s.out.Line("bye")
				return nil
			}
			return pkgerrors.Wrapf(err, pkgerrors.InternalServerError, "read input failed: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		exit, err := s.Execute(cmdCtx, line)
		stop()
		if err != nil {
			s.out.Error(err)
		}
		if exit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Execute runs one input line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return false, pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "parse command failed: %v", err)
	}
	if len(tokens) == 0 {
		return false, nil
	}
	if handled, exit, err := s.handleSystemCommand(ctx, tokens); handled {
		return exit, err
	}
	return false, s.handleCommand(ctx, tokens)
}

func (s *Session) handleSystemCommand(ctx context.Context, tokens []string) (bool, bool, error) {
	switch tokens[0] {
	case "exit", "quit":
		s.out.Line("bye")
		return true, true, nil
	case "help":
		s.printHelp()
		return true, false, nil
	case "set":
		return true, false, s.handleSet(tokens[1:])
	case "show":
		return true, false, s.handleShow(ctx, tokens[1:])
	}
	return false, false, nil
}

func (s *Session) handleSet(args []string) error {
	if len(args) == 0 {
		return pkgerrors.BadRequest("usage: set base|timeout|token|scheme <value>")
	}
	value := ""
	if len(args) > 1 {
		value = args[1]
	}
	switch args[0] {
	case "base":
		if value == "" {
			return pkgerrors.BadRequest("usage: set base https://api.ocontest.ir/v1")
		}
		s.client.SetBaseURL(value)
		s.cfg.BaseURL = s.client.BaseURL()
		s.out.Success("base set to %s", s.cfg.BaseURL)
	case "timeout":
		dur, err := time.ParseDuration(value)
		if err != nil || dur <= 0 {
			return pkgerrors.BadRequest("usage: set timeout 10s")
		}
		s.client.SetTimeout(dur)
		s.cfg.Timeout = dur
		s.out.Success("timeout set to %s", dur)
	case "token":
		if value == "" {
			return pkgerrors.BadRequest("usage: set token <access_token>")
		}
		s.tokenState.AccessToken = value
		if err := state.Save(s.cfg.TokenStatePath, *s.tokenState); err != nil {
			return err
		}
		s.out.Success("token updated")
	case "scheme":
		if value == "raw" || value == "none" {
			value = ""
		}
		s.client.SetAuthScheme(value)
		s.cfg.AuthScheme = value
		if value == "" {
			s.out.Success("sending the raw token")
		} else {
			s.out.Success("auth scheme set to %s", value)
		}
	default:
		return pkgerrors.Newf(pkgerrors.UnknownCommand, "unknown set command: %s", args[0])
	}
	return nil
}

func (s *Session) handleShow(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return pkgerrors.BadRequest("usage: show token|config|cache id=<submission_id>")
	}
	switch args[0] {
	case "token":
		s.out.Token(*s.tokenState, s.now())
	case "config":
		s.out.Line("%s", s.cfg.String())
		s.out.Line("store: %s", resultstore.Name(s.store))
	case "cache":
		params, err := command.ParseArgs(args[1:])
		if err != nil {
			return err
		}
		id := params.Get("id")
		if id == "" {
			return pkgerrors.ValidationError("id", "cannot be blank")
		}
		result, ok, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			s.out.Line("no result received for %s", id)
			return nil
		}
		s.out.WatchUpdate(id, result)
		s.out.TestCases(result)
	default:
		return pkgerrors.Newf(pkgerrors.UnknownCommand, "unknown show command: %s", args[0])
	}
	return nil
}

func (s *Session) handleCommand(ctx context.Context, tokens []string) error {
	if len(tokens) < 2 {
		return pkgerrors.BadRequest("invalid command, use: <service> <action> key=value ...")
	}
	key := tokens[0] + " " + tokens[1]
	cmd, ok := s.commands[key]
	if !ok {
		return pkgerrors.Newf(pkgerrors.UnknownCommand, "unknown command: %s", key)
	}
	params, err := command.ParseArgs(tokens[2:])
	if err != nil {
		return err
	}
	params.Canonicalize(cmd.Fields)

	ctx = context.WithValue(ctx, contextkey.Command, key)
	logger.Debug(ctx, "dispatch command", zap.Int("params", len(params)))

	if cmd.Local() {
		return s.runLocal(cmd)
	}
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	if cmd.View == command.ViewWatch {
		return s.watch(ctx, params.Get("id"), req, params)
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Headers, req.Body)
	if err != nil {
		return err
	}
	return s.present(ctx, cmd, params, resp)
}

func (s *Session) runLocal(cmd command.Command) error {
	switch cmd.View {
	case command.ViewLogout:
		*s.tokenState = state.TokenState{}
		if err := state.Clear(s.cfg.TokenStatePath); err != nil {
			return err
		}
		s.out.Success("logged out")
		return nil
	}
	return pkgerrors.Newf(pkgerrors.UnknownCommand, "unknown command: %s", cmd.Key())
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	for _, field := range cmd.Fields {
		if !field.Required || strings.TrimSpace(params.Get(field.Name)) != "" {
			continue
		}
		if s.reader == nil {
			continue
		}
		value, err := s.promptValue(field)
		if err != nil {
			return err
		}
		params.Set(field.Name, value)
	}
	return nil
}

func (s *Session) promptValue(field command.Field) (string, error) {
	prompt := field.Prompt + ": "
	if field.Secret {
		secret, err := s.reader.ReadPassword(prompt)
		if err != nil {
			return "", pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "read input failed: %v", err)
		}
		return string(secret), nil
	}
	s.reader.SetPrompt(prompt)
	defer s.reader.SetPrompt(Prompt)
	line, err := s.reader.Readline()
	if err != nil {
		return "", pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "read input failed: %v", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Session) printHelp() {
	s.out.Line("usage: <service> <action> key=value ...")
	s.out.Line("system: help | exit | set base|timeout|token|scheme | show token|config|cache id=<submission_id>")
	s.out.Line("commands:")
	for _, key := range command.Keys(s.commands) {
		cmd := s.commands[key]
		marker := " "
		if cmd.RequiresAuth {
			marker = "*"
		}
		s.out.Line(" %s %s", marker, cmd.Usage)
	}
	s.out.Line("(* needs a login)")
}
