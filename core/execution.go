package core

import (
	"context"
	"io"
	"log/slog"
)

// Execution is the state of one run: call stack, heap counter and emitted
// output. It is never shared between goroutines.
type Execution struct {
	ctx           context.Context
	program       *Program
	table         *Table
	quota         int
	steps         int
	instanceQuota int
	instances     int
	recursionCap  int
	callStack     []callFrame
	maxDepth      int
	output        []string
	out           io.Writer
	logger        *slog.Logger
}

type callFrame struct {
	Function string
	Pos      Position
	Receiver *Instance
}

func newExecution(ctx context.Context, p *Program, opts RunOptions, logger *slog.Logger) *Execution {
	cfg := p.engine.config
	return &Execution{
		ctx:           ctx,
		program:       p,
		table:         p.table,
		quota:         cfg.StepQuota,
		instanceQuota: cfg.InstanceQuota,
		recursionCap:  cfg.RecursionLimit,
		callStack:     make([]callFrame, 0, 16),
		out:           opts.Output,
		logger:        logger,
	}
}

func (exec *Execution) step(pos Position) error {
	exec.steps++
	if exec.quota > 0 && exec.steps > exec.quota {
		return exec.errorAt(ErrStepQuotaExceeded, pos, "executed more than %d steps", exec.quota)
	}
	if exec.ctx != nil && (exec.steps&63) == 0 {
		select {
		case <-exec.ctx.Done():
			return exec.errorAt(exec.ctx.Err(), pos, "run interrupted after %d steps", exec.steps)
		default:
		}
	}
	return nil
}

func (exec *Execution) emit(line string, pos Position) error {
	exec.output = append(exec.output, line)
	if exec.out == nil {
		return nil
	}
	if _, err := io.WriteString(exec.out, line+"\n"); err != nil {
		return exec.errorAt(err, pos, "writing output")
	}
	return nil
}

func (exec *Execution) evalStatements(stmts []Statement, env *Env) (Value, bool, error) {
	for _, stmt := range stmts {
		if err := exec.step(stmt.Pos()); err != nil {
			return NewNull(), false, err
		}
		val, returned, err := exec.evalStatement(stmt, env)
		if err != nil {
			return NewNull(), false, err
		}
		if returned {
			return val, true, nil
		}
	}
	return NewNull(), false, nil
}

func (exec *Execution) evalStatement(stmt Statement, env *Env) (Value, bool, error) {
	switch s := stmt.(type) {
	case *VarStmt:
		val := defaultValue(s.Type)
		if s.Init != nil {
			var err error
			if val, err = exec.evalExpression(s.Init, env); err != nil {
				return NewNull(), false, err
			}
		}
		env.Define(s.Name, val)
		return NewNull(), false, nil
	case *AssignStmt:
		val, err := exec.evalExpression(s.Value, env)
		if err != nil {
			return NewNull(), false, err
		}
		return NewNull(), false, exec.assign(s.Target, val, env)
	case *IfStmt:
		cond, err := exec.evalExpression(s.Condition, env)
		if err != nil {
			return NewNull(), false, err
		}
		if cond.Bool() {
			return exec.evalStatements(s.Consequent, newEnv(env))
		}
		if len(s.Alternate) > 0 {
			return exec.evalStatements(s.Alternate, newEnv(env))
		}
		return NewNull(), false, nil
	case *WhileStmt:
		return exec.evalWhileStatement(s, env)
	case *ReturnStmt:
		if s.Value == nil {
			return NewNull(), true, nil
		}
		val, err := exec.evalExpression(s.Value, env)
		return val, err == nil, err
	case *PrintStmt:
		val, err := exec.evalExpression(s.Value, env)
		if err != nil {
			return NewNull(), false, err
		}
		return NewNull(), false, exec.emit(val.String(), s.Pos())
	case *ExprStmt:
		_, err := exec.evalExpression(s.Expr, env)
		return NewNull(), false, err
	default:
		return NewNull(), false, exec.errorAt(ErrInvalidDeclaration, stmt.Pos(), "unsupported statement %T", stmt)
	}
}

func (exec *Execution) evalWhileStatement(s *WhileStmt, env *Env) (Value, bool, error) {
	for {
		cond, err := exec.evalExpression(s.Condition, env)
		if err != nil {
			return NewNull(), false, err
		}
		if !cond.Bool() {
			return NewNull(), false, nil
		}
		val, returned, err := exec.evalStatements(s.Body, newEnv(env))
		if err != nil || returned {
			return val, returned, err
		}
	}
}

func (exec *Execution) assign(target Expression, val Value, env *Env) error {
	switch t := target.(type) {
	case *LocalExpr:
		if !env.Assign(t.Name, val) {
			return exec.errorAt(ErrUnknownSymbol, t.Pos(), "assignment to undeclared local %s", t.Name)
		}
		return nil
	case *FieldExpr:
		inst, err := exec.fieldOwner(t, env)
		if err != nil {
			return err
		}
		inst.Fields[t.Name] = val
		return nil
	default:
		return exec.errorAt(ErrInvalidDeclaration, target.Pos(), "invalid assignment target")
	}
}

// fieldOwner evaluates the object of a field access, defaulting to the
// current receiver.
func (exec *Execution) fieldOwner(e *FieldExpr, env *Env) (*Instance, error) {
	if e.Object == nil {
		if inst := exec.currentReceiver(); inst != nil {
			return inst, nil
		}
		return nil, exec.errorAt(ErrNullReceiver, e.Pos(), "field %s read without a receiver", e.Name)
	}
	obj, err := exec.evalExpression(e.Object, env)
	if err != nil {
		return nil, err
	}
	inst := obj.Instance()
	if inst == nil {
		return nil, exec.errorAt(ErrNullReceiver, e.Pos(), "cannot access field %s of null", e.Name)
	}
	return inst, nil
}
