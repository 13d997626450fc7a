package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/mgomes/classcore/core"
	"github.com/mgomes/classcore/corpus"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, renderCLIError(err))
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "analyze":
		return analyzeCommand(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "session":
		return sessionCommand(args[2:])
	case "examples":
		return examplesCommand()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	entry := fs.String("entry", "", "entry point as Type.method (default Main.main or the example's entry)")
	example := fs.String("example", "", "run an embedded reference program instead of a file")
	recursionLimit := fs.Int("recursion-limit", 0, "maximum call depth (default 1024)")
	stepQuota := fs.Int("step-quota", 0, "maximum evaluation steps (default 100000000, negative for unlimited)")
	trace := fs.Bool("trace", false, "log resolution and dispatch decisions to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	source, defaultEntry, err := loadSource(*example, remaining)
	if err != nil {
		return err
	}
	if *example == "" {
		remaining = remaining[1:]
	}
	if *entry == "" {
		*entry = defaultEntry
	}

	cfg := core.Config{RecursionLimit: *recursionLimit, StepQuota: *stepQuota}
	if *trace {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	engine, err := core.NewEngine(cfg)
	if err != nil {
		return err
	}
	program, err := engine.LoadYAML(source)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	entryArgs := make([]core.Value, len(remaining))
	for i, raw := range remaining {
		entryArgs[i] = parseArgument(raw)
	}
	result, err := program.RunEntry(context.Background(), *entry, entryArgs, core.RunOptions{Output: os.Stdout})
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if !result.Value.IsNull() {
		fmt.Println(result.Value.String())
	}
	return nil
}

// loadSource reads the program named by -example or by the first
// positional argument.
func loadSource(example string, positional []string) ([]byte, string, error) {
	if example != "" {
		p, err := corpus.Lookup(example)
		if err != nil {
			return nil, "", err
		}
		source, err := p.Source()
		if err != nil {
			return nil, "", err
		}
		return source, p.Entry, nil
	}
	if len(positional) == 0 {
		return nil, "", errors.New("classcore: program path required")
	}
	path, err := filepath.Abs(positional[0])
	if err != nil {
		return nil, "", fmt.Errorf("resolve program path: %w", err)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read program: %w", err)
	}
	return source, "Main.main", nil
}

// parseArgument maps a command-line word to an int, boolean or null when
// it reads as one and to a String otherwise.
func parseArgument(raw string) core.Value {
	if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return core.NewInt(int32(n))
	}
	switch raw {
	case "true":
		return core.NewBool(true)
	case "false":
		return core.NewBool(false)
	case "null":
		return core.NewNull()
	}
	return core.NewString(raw)
}

func examplesCommand() error {
	for _, p := range corpus.All() {
		fmt.Printf("%-12s %s\n", p.Name, p.Entry)
	}
	return nil
}

func renderCLIError(err error) string {
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return theme.failure.Render(err.Error())
	}
	return err.Error()
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [args...]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run [-entry Type.method] [-example name] [-recursion-limit n] [-step-quota n] [-trace] <program.yaml> [args...]")
	fmt.Fprintln(os.Stderr, "  analyze <program.yaml>")
	fmt.Fprintln(os.Stderr, "  fmt [-w] [-check] <paths...>")
	fmt.Fprintln(os.Stderr, "  session [-example name] [program.yaml]")
	fmt.Fprintln(os.Stderr, "  examples")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
