// kvstore is an interactive REPL over the dataset engine.
//
// Usage:
//
//	kvstore [--seed N] [--db path] [--config path]
//
// Commands are the verbs listed in the command package's verb table (GET,
// SET, LPUSH, ZADD, ...); every input line is sent to the engine as-is, and
// the REPL has no built-in help command.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/config"
	"github.com/calvinalkan/kvstore/internal/engine"
	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		seed       uint32
		dbPath     string
		configPath string
		logLevel   string
	)

	fs := pflag.NewFlagSet("kvstore", pflag.ExitOnError)
	fs.Uint32Var(&seed, "seed", 0, "hash seed (default: wall-clock seconds)")
	fs.StringVar(&dbPath, "db", "", "persistence file path (default: db.json)")
	fs.StringVar(&configPath, "config", "", "explicit config file path")
	fs.StringVar(&logLevel, "log-level", "", "zap log level (debug, info, warn, error)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(workDir, configPath, config.Config{
		HashSeed:        seed,
		PersistencePath: dbPath,
		LogLevel:        logLevel,
	}, os.Environ())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	e := engine.New(cfg, logger, nil)
	if err := e.Start(); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	return runREPL(e)
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", level, err)
		}
	}

	return cfg.Build()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".kvstore_history")
}

func runREPL(e *engine.Engine) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	defer func() {
		if path := historyFile(); path != "" {
			if f, err := os.Create(path); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}
	}()

	for {
		input, err := line.Prompt("kvstore> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				e.Shutdown()

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		reply := e.Command(input)
		printReply(os.Stdout, reply)

		if strings.EqualFold(strings.Fields(input)[0], "SHUTDOWN") && !reply.IsError() {
			return nil
		}
	}
}

// printReply renders r following the formatting rules in the command
// package's reply kinds.
func printReply(w io.Writer, r command.Reply) {
	switch r.Kind {
	case command.ReplyNull:
		fmt.Fprintln(w, "(nil)")
	case command.ReplyError:
		fmt.Fprintf(w, "(error) %s\n", r.Err)
	case command.ReplyString:
		fmt.Fprintln(w, r.Str)
	case command.ReplyUnsigned:
		fmt.Fprintf(w, "(uint) %d\n", r.Unsigned)
	case command.ReplySigned:
		fmt.Fprintf(w, "(int) %d\n", r.Signed)
	case command.ReplyDouble:
		fmt.Fprintf(w, "(double) %g\n", r.Double)
	case command.ReplyBool:
		fmt.Fprintf(w, "(bool) %t\n", r.Bool)
	case command.ReplyList:
		fmt.Fprintf(w, "(list) count: %d\n", len(r.List))

		for i, item := range r.List {
			fmt.Fprintf(w, "  %d) %s\n", i+1, formatListItem(item))
		}
	}
}

func formatListItem(r command.Reply) string {
	switch r.Kind {
	case command.ReplyString:
		return r.Str
	case command.ReplyUnsigned:
		return fmt.Sprintf("%d", r.Unsigned)
	case command.ReplyDouble:
		return fmt.Sprintf("%g", r.Double)
	default:
		return ""
	}
}
