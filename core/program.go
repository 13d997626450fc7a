package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Program is a sealed declaration set with every call site bound. It is
// read-only and may be run concurrently.
type Program struct {
	engine   *Engine
	table    *Table
	resolver *Resolver
	sites    map[Expression]*callSite
	source   string
}

type RunOptions struct {
	// Output, when set, receives each printed line as it is emitted.
	Output io.Writer
}

// Result describes one run. On a runtime error Run returns both the partial
// Result and the error.
type Result struct {
	Output   []string
	Value    Value
	MaxDepth int
	Steps    int
	RunID    string
}

func (p *Program) Table() *Table {
	return p.table
}

func (p *Program) Resolver() *Resolver {
	return p.resolver
}

// Run invokes entryType.entryMethod with args. Overload selection uses the
// runtime types of args. A static entry runs without a receiver; an
// instance entry runs on a fresh instance built through the zero-argument
// constructor. Cancelling ctx stops a run within a few evaluation steps.
func (p *Program) Run(ctx context.Context, entryType, entryMethod string, args []Value, opts RunOptions) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	argTypes := make([]string, len(args))
	for i, arg := range args {
		argTypes[i] = arg.TypeName()
	}
	decl, err := p.table.Lookup(entryType)
	if err != nil {
		return nil, err
	}
	if decl.Kind != DeclClass {
		return nil, &ResolutionError{Err: ErrNoMatchingOverload, Type: entryType, Method: entryMethod, ArgTypes: argTypes}
	}
	target, err := p.resolver.Resolve(entryType, entryMethod, argTypes)
	if err != nil {
		return nil, err
	}
	var ctor *MethodSignature
	if !target.Static {
		if ctor, err = p.resolver.ResolveConstructor(entryType, nil); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	exec := newExecution(ctx, p, opts, p.engine.logger.With(slog.String("run_id", runID)))
	exec.logger.Debug("run started", slog.String("entry", target.String()))

	result := &Result{RunID: runID, Value: NewNull()}
	val, err := exec.runEntry(decl, target, ctor, args)
	result.Output = exec.output
	result.MaxDepth = exec.maxDepth
	result.Steps = exec.steps
	if err != nil {
		exec.logger.Debug("run failed", slog.String("error", err.Error()), slog.Int("lines", len(exec.output)))
		return result, err
	}
	result.Value = val
	exec.logger.Debug("run finished", slog.Int("lines", len(exec.output)), slog.Int("max_depth", exec.maxDepth), slog.Int("steps", exec.steps))
	return result, nil
}

// RunEntry parses "Type.method" and runs it.
func (p *Program) RunEntry(ctx context.Context, entry string, args []Value, opts RunOptions) (*Result, error) {
	typeName, method, err := SplitEntry(entry)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, typeName, method, args, opts)
}

// SplitEntry splits "Type.method" at the last dot.
func SplitEntry(entry string) (string, string, error) {
	for i := len(entry) - 1; i >= 0; i-- {
		if entry[i] == '.' {
			if i == 0 || i == len(entry)-1 {
				break
			}
			return entry[:i], entry[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("entry %q must have the form Type.method", entry)
}
