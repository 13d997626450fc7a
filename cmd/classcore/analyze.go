package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mgomes/classcore/core"
)

type lintWarning struct {
	Method  string
	Pos     core.Position
	Message string
}

func analyzeCommand(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("classcore analyze: program path required")
	}

	programPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve program path: %w", err)
	}
	input, err := os.ReadFile(programPath)
	if err != nil {
		return fmt.Errorf("read program: %w", err)
	}

	program, err := core.MustNewEngine(core.Config{}).LoadYAML(input)
	if err != nil {
		return fmt.Errorf("analysis load failed: %w", err)
	}

	warnings := analyzeProgramWarnings(program)
	if len(warnings) == 0 {
		fmt.Println("No issues found")
		return nil
	}

	for _, warning := range warnings {
		line := warning.Pos.Line
		column := warning.Pos.Column
		if line <= 0 {
			line = 1
		}
		if column <= 0 {
			column = 1
		}
		fmt.Printf("%s:%d:%d: %s (%s)\n", programPath, line, column, warning.Message, warning.Method)
	}

	return fmt.Errorf("analysis found %d issue(s)", len(warnings))
}

func analyzeProgramWarnings(program *core.Program) []lintWarning {
	warnings := make([]lintWarning, 0)
	for _, decl := range program.Table().Types() {
		if decl.Kind != core.DeclClass {
			continue
		}
		methods := decl.Methods
		if decl.Constructor != nil {
			methods = append([]*core.MethodSignature{decl.Constructor}, methods...)
		}
		for _, method := range methods {
			label := method.String()
			terminated := lintStatements(label, method.Body, &warnings)
			if !terminated && method.ReturnType() != core.TypeVoid {
				warnings = append(warnings, lintWarning{
					Method:  label,
					Pos:     method.Pos(),
					Message: fmt.Sprintf("missing return; falls through to the %s default", method.ReturnType()),
				})
			}
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Pos.Line != warnings[j].Pos.Line {
			return warnings[i].Pos.Line < warnings[j].Pos.Line
		}
		if warnings[i].Pos.Column != warnings[j].Pos.Column {
			return warnings[i].Pos.Column < warnings[j].Pos.Column
		}
		return warnings[i].Method < warnings[j].Method
	})

	return warnings
}

func lintStatements(method string, statements []core.Statement, warnings *[]lintWarning) bool {
	terminated := false
	for _, stmt := range statements {
		if terminated {
			*warnings = append(*warnings, lintWarning{
				Method:  method,
				Pos:     stmt.Pos(),
				Message: "unreachable statement",
			})
			continue
		}
		if statementTerminates(method, stmt, warnings) {
			terminated = true
		}
	}
	return terminated
}

func statementTerminates(method string, stmt core.Statement, warnings *[]lintWarning) bool {
	switch typed := stmt.(type) {
	case *core.ReturnStmt:
		return true
	case *core.IfStmt:
		consequentTerminated := lintStatements(method, typed.Consequent, warnings)
		if len(typed.Alternate) == 0 {
			return false
		}
		alternateTerminated := lintStatements(method, typed.Alternate, warnings)
		return consequentTerminated && alternateTerminated
	case *core.WhileStmt:
		lintStatements(method, typed.Body, warnings)
		return false
	default:
		return false
	}
}
