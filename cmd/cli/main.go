package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ocontest/internal/cli/command"
	"ocontest/internal/cli/config"
	httpclient "ocontest/internal/cli/http"
	"ocontest/internal/cli/repl"
	"ocontest/internal/cli/resultstore"
	"ocontest/internal/cli/state"
	"ocontest/pkg/utils/logger"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	token := flag.String("token", "", "Override access token")
	statePath := flag.String("state", "", "Override token state path")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	debug := flag.Bool("debug", false, "Fail on unrecognised verdict codes and log at debug level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}
	if *debug {
		cfg.Debug = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	tokenState, err := state.Load(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load token state failed: %v\n", err)
		return 1
	}
	if cfg.Token != "" {
		tokenState.AccessToken = cfg.Token
	}
	if *token != "" {
		tokenState.AccessToken = *token
	}

	client := httpclient.New(cfg.BaseURL, cfg.Timeout, func() string {
		return tokenState.AccessToken
	})
	client.SetAuthScheme(cfg.AuthScheme)

	store := openStore(ctx, cfg)
	defer func() { _ = store.Close() }()

	commands := command.Registry()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          repl.Prompt,
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    repl.Completer(commands),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init terminal failed: %v\n", err)
		return 1
	}
	defer func() { _ = rl.Close() }()

	session := repl.New(client, commands, &tokenState, cfg, store, rl.Stdout())
	if err := session.Run(ctx, rl); err != nil {
		logger.Error(ctx, "session ended with error", zap.Error(err))
		return 1
	}
	return 0
}

// openStore prefers Redis when configured and falls back to memory when it is unreachable.
func openStore(ctx context.Context, cfg config.Config) resultstore.Store {
	if cfg.Cache.RedisAddr == "" {
		return resultstore.NewLRUStore(cfg.Cache.LocalSize, cfg.Cache.TTL)
	}
	redisCfg := resultstore.DefaultRedisConfig()
	redisCfg.Addr = cfg.Cache.RedisAddr
	redisCfg.Password = cfg.Cache.RedisPassword
	redisCfg.DB = cfg.Cache.RedisDB
	redisCfg.TTL = cfg.Cache.TTL
	store, err := resultstore.NewRedisStore(ctx, redisCfg)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, keeping results in memory",
			zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		return resultstore.NewLRUStore(cfg.Cache.LocalSize, cfg.Cache.TTL)
	}
	return store
}
