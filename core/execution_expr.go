package core

func (exec *Execution) evalExpression(expr Expression, env *Env) (Value, error) {
	if err := exec.step(expr.Pos()); err != nil {
		return NewNull(), err
	}
	switch e := expr.(type) {
	case *IntegerLiteral:
		return NewInt(e.Value), nil
	case *StringLiteral:
		return NewString(e.Value), nil
	case *BoolLiteral:
		return NewBool(e.Value), nil
	case *NullLiteral:
		return NewNull(), nil
	case *ThisExpr:
		return newInstanceValue(exec.currentReceiver()), nil
	case *LocalExpr:
		val, ok := env.Get(e.Name)
		if !ok {
			return NewNull(), exec.errorAt(ErrUnknownSymbol, e.Pos(), "undefined local %s", e.Name)
		}
		return val, nil
	case *FieldExpr:
		inst, err := exec.fieldOwner(e, env)
		if err != nil {
			return NewNull(), err
		}
		return inst.Fields[e.Name], nil
	case *CallExpr:
		return exec.evalCallExpr(e, env)
	case *StaticCallExpr:
		return exec.evalStaticCallExpr(e, env)
	case *NewExpr:
		return exec.evalNewExpr(e, env)
	case *BinaryExpr:
		return exec.evalBinaryExpr(e, env)
	case *UnaryExpr:
		return exec.evalUnaryExpr(e, env)
	default:
		return NewNull(), exec.errorAt(ErrInvalidDeclaration, expr.Pos(), "unsupported expression %T", expr)
	}
}

func (exec *Execution) evalUnaryExpr(e *UnaryExpr, env *Env) (Value, error) {
	operand, err := exec.evalExpression(e.Operand, env)
	if err != nil {
		return NewNull(), err
	}
	switch e.Operator {
	case "!":
		return NewBool(!operand.Bool()), nil
	case "-":
		return NewInt(-operand.Int()), nil
	default:
		return NewNull(), exec.errorAt(ErrInvalidDeclaration, e.Pos(), "unsupported unary operator %s", e.Operator)
	}
}

func (exec *Execution) evalBinaryExpr(e *BinaryExpr, env *Env) (Value, error) {
	left, err := exec.evalExpression(e.Left, env)
	if err != nil {
		return NewNull(), err
	}
	switch e.Operator {
	case "&&":
		if !left.Bool() {
			return NewBool(false), nil
		}
		return exec.evalExpression(e.Right, env)
	case "||":
		if left.Bool() {
			return NewBool(true), nil
		}
		return exec.evalExpression(e.Right, env)
	}

	right, err := exec.evalExpression(e.Right, env)
	if err != nil {
		return NewNull(), err
	}

	switch e.Operator {
	case "==":
		return NewBool(left.Equal(right)), nil
	case "!=":
		return NewBool(!left.Equal(right)), nil
	case "+":
		if left.Kind() == KindString || right.Kind() == KindString {
			return NewString(left.String() + right.String()), nil
		}
		return NewInt(left.Int() + right.Int()), nil
	}

	// int32 arithmetic wraps on overflow, including MinInt32 / -1.
	l, r := left.Int(), right.Int()
	switch e.Operator {
	case "-":
		return NewInt(l - r), nil
	case "*":
		return NewInt(l * r), nil
	case "/":
		if r == 0 {
			return NewNull(), exec.errorAt(ErrArithmetic, e.Pos(), "division by zero")
		}
		return NewInt(l / r), nil
	case "%":
		if r == 0 {
			return NewNull(), exec.errorAt(ErrArithmetic, e.Pos(), "modulo by zero")
		}
		return NewInt(l % r), nil
	case "<":
		return NewBool(l < r), nil
	case "<=":
		return NewBool(l <= r), nil
	case ">":
		return NewBool(l > r), nil
	case ">=":
		return NewBool(l >= r), nil
	default:
		return NewNull(), exec.errorAt(ErrInvalidDeclaration, e.Pos(), "unsupported operator %s", e.Operator)
	}
}
