package core

import (
	"errors"
	"fmt"
	"log/slog"
)

// callSite is the binding recorded for one call, static call or new
// expression. target is the signature chosen by overload resolution
// against declared types; the body that runs may be an override.
type callSite struct {
	target   *MethodSignature
	static   bool
	implicit bool
}

// binder walks every body once, computing the declared type of each
// expression and resolving every call site before any code runs.
type binder struct {
	table    *Table
	resolver *Resolver
	logger   *slog.Logger
	sites    map[Expression]*callSite

	owner  *TypeDecl
	method *MethodSignature
	scopes []map[string]string
}

func bindProgram(table *Table, resolver *Resolver, logger *slog.Logger) (map[Expression]*callSite, error) {
	b := &binder{
		table:    table,
		resolver: resolver,
		logger:   logger,
		sites:    make(map[Expression]*callSite),
	}
	for _, decl := range table.Types() {
		if decl.Kind != DeclClass {
			continue
		}
		if decl.Constructor != nil {
			ctor := constructorFor(decl)
			if err := b.bindMethod(decl, ctor); err != nil {
				return nil, err
			}
		}
		for _, m := range decl.Methods {
			if err := b.bindMethod(decl, m); err != nil {
				return nil, err
			}
		}
	}
	return b.sites, nil
}

func (b *binder) bindMethod(owner *TypeDecl, m *MethodSignature) error {
	b.owner = owner
	b.method = m
	b.scopes = b.scopes[:0]
	b.pushScope()
	for _, p := range m.Params {
		if _, dup := b.scopes[0][p.Name]; dup {
			return &LoadError{Err: ErrDuplicateDeclaration, Type: owner.Name, Member: m.Key(), Pos: m.position, Message: fmt.Sprintf("parameter %s is declared twice", p.Name)}
		}
		b.scopes[0][p.Name] = p.Type
	}
	return b.bindBlock(m.Body)
}

func (b *binder) pushScope() {
	b.scopes = append(b.scopes, make(map[string]string))
}

func (b *binder) popScope() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *binder) lookupLocal(name string) (string, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if typ, ok := b.scopes[i][name]; ok {
			return typ, true
		}
	}
	return "", false
}

func (b *binder) isStaticContext() bool {
	return b.method.Static
}

func (b *binder) bindBlock(stmts []Statement) error {
	for _, stmt := range stmts {
		if stmt == nil {
			return loadErrorf(ErrInvalidDeclaration, b.method.Pos(), "%s has a nil statement", b.method)
		}
		if err := b.bindStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *binder) bindNested(stmts []Statement) error {
	b.pushScope()
	defer b.popScope()
	return b.bindBlock(stmts)
}

func (b *binder) bindStatement(stmt Statement) error {
	switch s := stmt.(type) {
	case *VarStmt:
		if !b.table.knownType(s.Type) || s.Type == TypeVoid {
			return &LoadError{Err: ErrUnknownType, Type: s.Type, Pos: s.Pos(), Message: fmt.Sprintf("local %s has undeclared type %q", s.Name, s.Type)}
		}
		if _, exists := b.lookupLocal(s.Name); exists {
			return &LoadError{Err: ErrDuplicateDeclaration, Member: s.Name, Pos: s.Pos(), Message: fmt.Sprintf("local %s is already declared", s.Name)}
		}
		if s.Init != nil {
			initType, err := b.valueType(s.Init)
			if err != nil {
				return err
			}
			if !b.table.IsAssignable(initType, s.Type) {
				return loadErrorf(ErrInvalidDeclaration, s.Init.Pos(), "cannot initialize %s %s with %s", s.Type, s.Name, initType)
			}
		}
		b.scopes[len(b.scopes)-1][s.Name] = s.Type
		return nil
	case *AssignStmt:
		switch s.Target.(type) {
		case *LocalExpr, *FieldExpr:
		default:
			return loadErrorf(ErrInvalidDeclaration, s.Pos(), "assignment target must be a local or a field, got %T", s.Target)
		}
		targetType, err := b.exprType(s.Target)
		if err != nil {
			return err
		}
		valueType, err := b.valueType(s.Value)
		if err != nil {
			return err
		}
		if !b.table.IsAssignable(valueType, targetType) {
			return loadErrorf(ErrInvalidDeclaration, s.Value.Pos(), "cannot assign %s to %s", valueType, targetType)
		}
		return nil
	case *IfStmt:
		if err := b.requireType(s.Condition, TypeBoolean, "if condition"); err != nil {
			return err
		}
		if err := b.bindNested(s.Consequent); err != nil {
			return err
		}
		return b.bindNested(s.Alternate)
	case *WhileStmt:
		if err := b.requireType(s.Condition, TypeBoolean, "while condition"); err != nil {
			return err
		}
		return b.bindNested(s.Body)
	case *ReturnStmt:
		want := b.method.ReturnType()
		if s.Value == nil {
			if want != TypeVoid {
				return loadErrorf(ErrInvalidDeclaration, s.Pos(), "%s must return %s", b.method, want)
			}
			return nil
		}
		if want == TypeVoid {
			return loadErrorf(ErrInvalidDeclaration, s.Pos(), "%s is void and cannot return a value", b.method)
		}
		got, err := b.valueType(s.Value)
		if err != nil {
			return err
		}
		if !b.table.IsAssignable(got, want) {
			return loadErrorf(ErrInvalidDeclaration, s.Value.Pos(), "%s returns %s, not %s", b.method, want, got)
		}
		return nil
	case *PrintStmt:
		_, err := b.valueType(s.Value)
		return err
	case *ExprStmt:
		_, err := b.exprType(s.Expr)
		return err
	default:
		return loadErrorf(ErrInvalidDeclaration, stmt.Pos(), "unsupported statement %T", stmt)
	}
}

func (b *binder) requireType(expr Expression, want, context string) error {
	got, err := b.valueType(expr)
	if err != nil {
		return err
	}
	if got != want {
		return loadErrorf(ErrInvalidDeclaration, expr.Pos(), "%s must be %s, got %s", context, want, got)
	}
	return nil
}

// valueType is exprType for positions that consume a value.
func (b *binder) valueType(expr Expression) (string, error) {
	typ, err := b.exprType(expr)
	if err != nil {
		return "", err
	}
	if typ == TypeVoid {
		return "", loadErrorf(ErrInvalidDeclaration, expr.Pos(), "void result used as a value")
	}
	return typ, nil
}

func (b *binder) exprType(expr Expression) (string, error) {
	if expr == nil {
		return "", loadErrorf(ErrInvalidDeclaration, b.method.Pos(), "%s has a missing expression", b.method)
	}
	switch e := expr.(type) {
	case *IntegerLiteral:
		return TypeInt, nil
	case *StringLiteral:
		return TypeString, nil
	case *BoolLiteral:
		return TypeBoolean, nil
	case *NullLiteral:
		return TypeNull, nil
	case *ThisExpr:
		if b.isStaticContext() {
			return "", &LoadError{Err: ErrUnknownSymbol, Member: "this", Pos: e.Pos(), Message: fmt.Sprintf("this is not available in static %s", b.method)}
		}
		return b.owner.Name, nil
	case *LocalExpr:
		typ, ok := b.lookupLocal(e.Name)
		if !ok {
			return "", &LoadError{Err: ErrUnknownSymbol, Member: e.Name, Pos: e.Pos(), Message: fmt.Sprintf("%s is not a local of %s", e.Name, b.method)}
		}
		return typ, nil
	case *FieldExpr:
		return b.fieldType(e)
	case *CallExpr:
		return b.bindCall(e)
	case *StaticCallExpr:
		return b.bindStaticCall(e)
	case *NewExpr:
		return b.bindNew(e)
	case *BinaryExpr:
		return b.binaryType(e)
	case *UnaryExpr:
		operand, err := b.valueType(e.Operand)
		if err != nil {
			return "", err
		}
		want := TypeInt
		if e.Operator == "!" {
			want = TypeBoolean
		}
		if operand != want {
			return "", loadErrorf(ErrInvalidDeclaration, e.Pos(), "operator %s expects %s, got %s", e.Operator, want, operand)
		}
		return want, nil
	default:
		return "", loadErrorf(ErrInvalidDeclaration, expr.Pos(), "unsupported expression %T", expr)
	}
}

func (b *binder) fieldType(e *FieldExpr) (string, error) {
	objType := b.owner.Name
	if e.Object != nil {
		var err error
		if objType, err = b.valueType(e.Object); err != nil {
			return "", err
		}
	} else if b.isStaticContext() {
		return "", &LoadError{Err: ErrUnknownSymbol, Member: e.Name, Pos: e.Pos(), Message: fmt.Sprintf("field %s needs an instance in static %s", e.Name, b.method)}
	}
	typ, ok := b.table.FieldType(objType, e.Name)
	if !ok {
		return "", &LoadError{Err: ErrUnknownSymbol, Type: objType, Member: e.Name, Pos: e.Pos(), Message: fmt.Sprintf("%s has no field %s", objType, e.Name)}
	}
	return typ, nil
}

func (b *binder) argTypes(args []Expression) ([]string, error) {
	types := make([]string, len(args))
	for i, arg := range args {
		typ, err := b.valueType(arg)
		if err != nil {
			return nil, err
		}
		types[i] = typ
	}
	return types, nil
}

func (b *binder) bindCall(e *CallExpr) (string, error) {
	argTypes, err := b.argTypes(e.Args)
	if err != nil {
		return "", err
	}
	receiverType := b.owner.Name
	if e.Receiver != nil {
		if receiverType, err = b.valueType(e.Receiver); err != nil {
			return "", err
		}
	}
	if isPrimitiveType(receiverType) || receiverType == TypeString || receiverType == TypeNull {
		return "", &ResolutionError{Err: ErrNoMatchingOverload, Type: receiverType, Method: e.Method, ArgTypes: argTypes, Pos: e.Pos()}
	}
	target, err := b.resolver.Resolve(receiverType, e.Method, argTypes)
	if err != nil {
		return "", b.siteError(err, e.Pos())
	}
	if e.Receiver == nil && !target.Static && b.isStaticContext() {
		return "", &LoadError{Err: ErrUnknownSymbol, Type: b.owner.Name, Member: target.Key(), Pos: e.Pos(), Message: fmt.Sprintf("instance method %s called without a receiver in static %s", target, b.method)}
	}
	b.record(e, &callSite{target: target, static: target.Static, implicit: e.Receiver == nil})
	return target.ReturnType(), nil
}

func (b *binder) bindStaticCall(e *StaticCallExpr) (string, error) {
	argTypes, err := b.argTypes(e.Args)
	if err != nil {
		return "", err
	}
	if _, err := b.table.Lookup(e.Type); err != nil {
		return "", b.siteError(err, e.Pos())
	}
	target, err := b.resolver.Resolve(e.Type, e.Method, argTypes)
	if err != nil {
		return "", b.siteError(err, e.Pos())
	}
	if !target.Static {
		return "", &ResolutionError{Err: ErrNoMatchingOverload, Type: e.Type, Method: e.Method, ArgTypes: argTypes, Candidates: describeCandidates([]*MethodSignature{target}), Pos: e.Pos()}
	}
	b.record(e, &callSite{target: target, static: true})
	return target.ReturnType(), nil
}

func (b *binder) bindNew(e *NewExpr) (string, error) {
	argTypes, err := b.argTypes(e.Args)
	if err != nil {
		return "", err
	}
	target, err := b.resolver.ResolveConstructor(e.Type, argTypes)
	if err != nil {
		return "", b.siteError(err, e.Pos())
	}
	b.record(e, &callSite{target: target})
	return e.Type, nil
}

func (b *binder) binaryType(e *BinaryExpr) (string, error) {
	left, err := b.valueType(e.Left)
	if err != nil {
		return "", err
	}
	right, err := b.valueType(e.Right)
	if err != nil {
		return "", err
	}
	mismatch := func() (string, error) {
		return "", loadErrorf(ErrInvalidDeclaration, e.Pos(), "operator %s is not defined for %s and %s", e.Operator, left, right)
	}

	switch e.Operator {
	case "+":
		if left == TypeString || right == TypeString {
			return TypeString, nil
		}
		if left == TypeInt && right == TypeInt {
			return TypeInt, nil
		}
		return mismatch()
	case "-", "*", "/", "%":
		if left == TypeInt && right == TypeInt {
			return TypeInt, nil
		}
		return mismatch()
	case "<", "<=", ">", ">=":
		if left == TypeInt && right == TypeInt {
			return TypeBoolean, nil
		}
		return mismatch()
	case "==", "!=":
		if isPrimitiveType(left) || isPrimitiveType(right) {
			if left != right {
				return mismatch()
			}
			return TypeBoolean, nil
		}
		if !b.table.IsAssignable(left, right) && !b.table.IsAssignable(right, left) && !b.eitherInterface(left, right) {
			return mismatch()
		}
		return TypeBoolean, nil
	case "&&", "||":
		if left == TypeBoolean && right == TypeBoolean {
			return TypeBoolean, nil
		}
		return mismatch()
	default:
		return "", loadErrorf(ErrInvalidDeclaration, e.Pos(), "unknown operator %s", e.Operator)
	}
}

func (b *binder) eitherInterface(left, right string) bool {
	for _, name := range []string{left, right} {
		if decl, err := b.table.Lookup(name); err == nil && decl.Kind == DeclInterface {
			return true
		}
	}
	return false
}

func (b *binder) record(expr Expression, site *callSite) {
	b.sites[expr] = site
	b.logger.Debug("call site bound",
		slog.String("caller", b.method.String()),
		slog.String("target", site.target.String()),
		slog.Int("line", expr.Pos().Line),
	)
}

// siteError stamps the call position onto resolution failures that do not
// carry one yet.
func (b *binder) siteError(err error, pos Position) error {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		if resErr.Pos == (Position{}) {
			resErr.Pos = pos
		}
		return resErr
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Pos == (Position{}) {
			loadErr.Pos = pos
		}
		return loadErr
	}
	return err
}
