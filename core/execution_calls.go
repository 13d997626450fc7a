package core

import "log/slog"

func (exec *Execution) siteFor(expr Expression) (*callSite, error) {
	site, ok := exec.program.sites[expr]
	if !ok {
		return nil, exec.errorAt(ErrInvalidDeclaration, expr.Pos(), "call site was not bound at load time")
	}
	return site, nil
}

func (exec *Execution) evalArgs(args []Expression, env *Env) ([]Value, error) {
	values := make([]Value, len(args))
	for i, arg := range args {
		val, err := exec.evalExpression(arg, env)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	return values, nil
}

func (exec *Execution) evalCallExpr(e *CallExpr, env *Env) (Value, error) {
	site, err := exec.siteFor(e)
	if err != nil {
		return NewNull(), err
	}

	var receiver *Instance
	switch {
	case e.Receiver != nil:
		recv, err := exec.evalExpression(e.Receiver, env)
		if err != nil {
			return NewNull(), err
		}
		receiver = recv.Instance()
		if receiver == nil && !site.static {
			return NewNull(), exec.errorAt(ErrNullReceiver, e.Pos(), "cannot call %s on null", site.target.Key())
		}
	case !site.static:
		receiver = exec.currentReceiver()
	}

	args, err := exec.evalArgs(e.Args, env)
	if err != nil {
		return NewNull(), err
	}
	if site.static {
		return exec.invoke(site.target, nil, args, e.Pos())
	}
	return exec.dispatch(receiver, site.target, args, e.Pos())
}

// dispatch runs the body the receiver's runtime class answers with for the
// statically selected signature.
func (exec *Execution) dispatch(receiver *Instance, target *MethodSignature, args []Value, pos Position) (Value, error) {
	key := target.Key()
	body, ok := exec.table.Dispatch(receiver.Class.Name, key)
	if !ok {
		return NewNull(), exec.errorAt(ErrNoMatchingOverload, pos, "%s has no implementation of %s", receiver.Class.Name, key)
	}
	exec.logger.Debug("dispatch",
		slog.String("selected", target.String()),
		slog.String("runtime_class", receiver.Class.Name),
		slog.String("body", body.String()),
	)
	return exec.invoke(body, receiver, args, pos)
}

func (exec *Execution) evalStaticCallExpr(e *StaticCallExpr, env *Env) (Value, error) {
	site, err := exec.siteFor(e)
	if err != nil {
		return NewNull(), err
	}
	args, err := exec.evalArgs(e.Args, env)
	if err != nil {
		return NewNull(), err
	}
	return exec.invoke(site.target, nil, args, e.Pos())
}

func (exec *Execution) evalNewExpr(e *NewExpr, env *Env) (Value, error) {
	site, err := exec.siteFor(e)
	if err != nil {
		return NewNull(), err
	}
	args, err := exec.evalArgs(e.Args, env)
	if err != nil {
		return NewNull(), err
	}
	inst, err := exec.newInstance(e.Type, site.target, args, e.Pos())
	if err != nil {
		return NewNull(), err
	}
	return newInstanceValue(inst), nil
}

// newInstance allocates className with declared field defaults, inherited
// fields included, then runs ctor with the new instance as receiver.
func (exec *Execution) newInstance(className string, ctor *MethodSignature, args []Value, pos Position) (*Instance, error) {
	decl, err := exec.table.Lookup(className)
	if err != nil {
		return nil, exec.errorAt(ErrUnknownType, pos, "type %s is not declared", className)
	}
	exec.instances++
	if exec.instanceQuota > 0 && exec.instances > exec.instanceQuota {
		return nil, exec.errorAt(ErrInstanceQuotaExceeded, pos, "allocated more than %d instances", exec.instanceQuota)
	}
	fields := exec.table.Fields(className)
	inst := &Instance{Class: decl, Fields: make(map[string]Value, len(fields)), id: exec.instances}
	for _, f := range fields {
		inst.Fields[f.Name] = defaultValue(f.Type)
	}
	if _, err := exec.invoke(ctor, inst, args, pos); err != nil {
		return nil, err
	}
	return inst, nil
}

// invoke binds args to a fresh frame and evaluates the body. Falling off
// the end of a non-void body yields the return type's default.
func (exec *Execution) invoke(sig *MethodSignature, receiver *Instance, args []Value, pos Position) (Value, error) {
	env := newEnv(nil)
	for i, p := range sig.Params {
		env.Define(p.Name, args[i])
	}
	if err := exec.pushFrame(sig.String(), pos, receiver); err != nil {
		return NewNull(), err
	}
	val, returned, err := exec.evalStatements(sig.Body, env)
	exec.popFrame()
	if err != nil {
		return NewNull(), err
	}
	if !returned {
		return defaultValue(sig.ReturnType()), nil
	}
	return val, nil
}

// runEntry starts a run. Instance entries are invoked on a receiver built
// from ctor.
func (exec *Execution) runEntry(decl *TypeDecl, target, ctor *MethodSignature, args []Value) (Value, error) {
	if target.Static {
		return exec.invoke(target, nil, args, target.Pos())
	}
	receiver, err := exec.newInstance(decl.Name, ctor, nil, decl.Pos())
	if err != nil {
		return NewNull(), err
	}
	return exec.dispatch(receiver, target, args, target.Pos())
}
