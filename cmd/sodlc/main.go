package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sodl-lang/sodlc/internal/cache"
	"github.com/sodl-lang/sodlc/internal/compiler"
	"github.com/sodl-lang/sodlc/internal/config"
	"github.com/sodl-lang/sodlc/internal/daemon"
	"github.com/sodl-lang/sodlc/internal/logger"
	"github.com/sodl-lang/sodlc/internal/mcp"
	"github.com/sodl-lang/sodlc/internal/source"
	"github.com/sodl-lang/sodlc/internal/store"
	"github.com/sodl-lang/sodlc/internal/watch"
	"github.com/sodl-lang/sodlc/pkg/version"
)

const usage = `sodlc - SODL compiler

Usage:
  sodlc check <file>...     compile files and print diagnostics
  sodlc validate <file>     syntax check only, no semantic analysis
  sodlc summary <file>      compile and print the structure summary
  sodlc watch <dir>         recompile .sodl files on change
  sodlc serve               MCP server on stdio
  sodlc daemon              JSON-RPC daemon on the unix socket
  sodlc status              query a running daemon
  sodlc version             print the version

A file argument of "-" reads from stdin.
`

func main() {
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "log format: text or json")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	logger.Init(logCfg)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "check":
		err = runCheck(args[1:])
	case "validate":
		err = runValidate(args[1:])
	case "summary":
		err = runSummary(args[1:])
	case "watch":
		err = runWatch(cfg, args[1:])
	case "serve":
		err = runServe(cfg)
	case "daemon":
		err = runDaemon(cfg)
	case "status":
		err = runStatus(cfg)
	case "version":
		fmt.Println(version.Version)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "sodlc: %v\n", err)
		os.Exit(1)
	}
}

func readInput(arg string) ([]byte, string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, "<stdin>", err
	}
	data, err := os.ReadFile(arg)
	return data, arg, err
}

func printDiagnostics(result *compiler.CompileResult) {
	for _, d := range result.Diagnostics {
		fmt.Println(d.String())
	}
}

func runCheck(files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("check: no input files")
	}

	failed := false
	for _, file := range files {
		data, name, err := readInput(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		result, err := compiler.Compile(data, name)
		if err != nil {
			return err
		}

		if len(files) > 1 {
			fmt.Printf("# %s\n", name)
		}
		printDiagnostics(result)
		if !result.Success {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	return nil
}

func runValidate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("validate: expected exactly one file")
	}

	data, name, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	text, err := source.Decode(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	syntax := compiler.ValidateSyntax(text)
	for _, d := range syntax.Diagnostics {
		fmt.Println(d.String())
	}
	if !syntax.Valid {
		fmt.Printf("invalid: %d lines\n", syntax.LineCount)
		os.Exit(1)
	}
	fmt.Printf("valid: %d lines\n", syntax.LineCount)
	return nil
}

func runSummary(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("summary: expected exactly one file")
	}

	data, name, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	result, err := compiler.Compile(data, name)
	if err != nil {
		return err
	}
	printDiagnostics(result)

	summary := compiler.StructureSummary(result.Resolved)
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func runWatch(cfg *config.Config, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare state dir: %w", err)
	}

	results, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open result store: %w", err)
	}
	defer results.Close()

	w, err := watch.New(cfg.Watch, results, func(path string, result *compiler.CompileResult) {
		fmt.Printf("# %s\n", path)
		printDiagnostics(result)
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	if err := w.AddRoot(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	return nil
}

func runServe(cfg *config.Config) error {
	results, err := cache.New(cfg.Cache.Size)
	if err != nil {
		return err
	}

	registry := mcp.NewRegistry()
	if err := mcp.RegisterDefaultTools(registry, results); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	server := mcp.NewServer(registry)
	return server.ProcessStream(os.Stdin, os.Stdout)
}

func runDaemon(cfg *config.Config) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare state dir: %w", err)
	}

	results, err := cache.New(cfg.Cache.Size)
	if err != nil {
		return err
	}

	index, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open result store: %w", err)
	}
	defer index.Close()

	d := daemon.New(cfg.SocketPath, results, index)
	return d.Start(context.Background())
}

func runStatus(cfg *config.Config) error {
	ctx := context.Background()
	client, err := daemon.Dial(ctx, cfg.SocketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := client.Status(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
