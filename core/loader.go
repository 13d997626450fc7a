package core

import (
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeYAML turns a declaration document into TypeDecls. The document is a
// mapping with a single "types" sequence; each entry is keyed by "class" or
// "interface". Statement and expression nodes are structured YAML, not
// source text, so no parsing happens here beyond YAML itself.
func DecodeYAML(source []byte) ([]*TypeDecl, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, &LoadError{Err: ErrInvalidDeclaration, Message: err.Error()}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &LoadError{Err: ErrInvalidDeclaration, Message: "empty declaration document"}
	}
	root := doc.Content[0]
	fields, err := mappingFields(root, "types")
	if err != nil {
		return nil, err
	}
	typesNode, ok := fields["types"]
	if !ok {
		return nil, loadErrorf(ErrInvalidDeclaration, nodePos(root), "document must declare a types list")
	}
	items, err := sequenceItems(typesNode, "types")
	if err != nil {
		return nil, err
	}
	decls := make([]*TypeDecl, 0, len(items))
	for _, item := range items {
		decl, err := decodeTypeDecl(item)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func decodeTypeDecl(n *yaml.Node) (*TypeDecl, error) {
	fields, err := mappingFields(n, "class", "interface", "extends", "implements", "fields", "constructor", "methods")
	if err != nil {
		return nil, err
	}
	decl := &TypeDecl{position: nodePos(n)}
	classNode, isClass := fields["class"]
	ifaceNode, isIface := fields["interface"]
	switch {
	case isClass && isIface:
		return nil, loadErrorf(ErrInvalidDeclaration, decl.position, "declaration cannot be both class and interface")
	case isClass:
		decl.Kind = DeclClass
		decl.Name, err = scalarString(classNode, "class")
	case isIface:
		decl.Kind = DeclInterface
		decl.Name, err = scalarString(ifaceNode, "interface")
	default:
		return nil, loadErrorf(ErrInvalidDeclaration, decl.position, "declaration needs a class or interface key")
	}
	if err != nil {
		return nil, err
	}

	if node, ok := fields["extends"]; ok {
		if decl.Extends, err = scalarString(node, "extends"); err != nil {
			return nil, err
		}
	}
	if node, ok := fields["implements"]; ok {
		names, err := scalarList(node, "implements")
		if err != nil {
			return nil, err
		}
		decl.Implements = names
	}
	if node, ok := fields["fields"]; ok {
		items, err := sequenceItems(node, "fields")
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			f, err := decodeNameType(item, "field")
			if err != nil {
				return nil, err
			}
			decl.Fields = append(decl.Fields, FieldDecl{Name: f.Name, Type: f.Type, position: nodePos(item)})
		}
	}
	if node, ok := fields["constructor"]; ok {
		ctor, err := decodeMethod(node, true)
		if err != nil {
			return nil, err
		}
		ctor.Owner = decl.Name
		decl.Constructor = ctor
	}
	if node, ok := fields["methods"]; ok {
		items, err := sequenceItems(node, "methods")
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			m, err := decodeMethod(item, false)
			if err != nil {
				return nil, err
			}
			m.Owner = decl.Name
			decl.Methods = append(decl.Methods, m)
		}
	}
	return decl, nil
}

func decodeMethod(n *yaml.Node, constructor bool) (*MethodSignature, error) {
	allowed := []string{"name", "params", "returns", "static", "body"}
	if constructor {
		allowed = []string{"params", "body"}
	}
	fields, err := mappingFields(n, allowed...)
	if err != nil {
		return nil, err
	}
	m := &MethodSignature{position: nodePos(n)}
	if constructor {
		m.Name = constructorName
	} else {
		nameNode, ok := fields["name"]
		if !ok {
			return nil, loadErrorf(ErrInvalidDeclaration, m.position, "method needs a name")
		}
		if m.Name, err = scalarString(nameNode, "name"); err != nil {
			return nil, err
		}
	}
	if node, ok := fields["params"]; ok {
		items, err := sequenceItems(node, "params")
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			p, err := decodeNameType(item, "parameter")
			if err != nil {
				return nil, err
			}
			m.Params = append(m.Params, p)
		}
	}
	if node, ok := fields["returns"]; ok {
		if m.Returns, err = scalarString(node, "returns"); err != nil {
			return nil, err
		}
	}
	if node, ok := fields["static"]; ok {
		if err := node.Decode(&m.Static); err != nil {
			return nil, loadErrorf(ErrInvalidDeclaration, nodePos(node), "static must be a boolean")
		}
	}
	if node, ok := fields["body"]; ok {
		body, err := decodeBlock(node)
		if err != nil {
			return nil, err
		}
		m.Body = body
	}
	return m, nil
}

func decodeNameType(n *yaml.Node, what string) (Param, error) {
	fields, err := mappingFields(n, "name", "type")
	if err != nil {
		return Param{}, err
	}
	nameNode, hasName := fields["name"]
	typeNode, hasType := fields["type"]
	if !hasName || !hasType {
		return Param{}, loadErrorf(ErrInvalidDeclaration, nodePos(n), "%s needs name and type", what)
	}
	name, err := scalarString(nameNode, "name")
	if err != nil {
		return Param{}, err
	}
	typ, err := scalarString(typeNode, "type")
	if err != nil {
		return Param{}, err
	}
	return Param{Name: name, Type: typ}, nil
}

func decodeBlock(n *yaml.Node) ([]Statement, error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return []Statement{}, nil
	}
	items, err := sequenceItems(n, "body")
	if err != nil {
		return nil, err
	}
	stmts := make([]Statement, 0, len(items))
	for _, item := range items {
		stmt, err := decodeStatement(item)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

var statementKeys = []string{"var", "assign", "if", "while", "return", "println", "expr"}

func decodeStatement(n *yaml.Node) (Statement, error) {
	fields, err := mappingFields(n, statementKeys...)
	if err != nil {
		return nil, err
	}
	pos := nodePos(n)
	if len(fields) != 1 {
		return nil, loadErrorf(ErrInvalidDeclaration, pos, "statement needs exactly one of %s", strings.Join(statementKeys, ", "))
	}
	for key, value := range fields {
		switch key {
		case "var":
			return decodeVar(value, pos)
		case "assign":
			parts, err := mappingFields(value, "target", "value")
			if err != nil {
				return nil, err
			}
			target, err := requiredExpr(parts, "target", value)
			if err != nil {
				return nil, err
			}
			switch target.(type) {
			case *LocalExpr, *FieldExpr:
			default:
				return nil, loadErrorf(ErrInvalidDeclaration, target.Pos(), "assignment target must be a local or a field")
			}
			val, err := requiredExpr(parts, "value", value)
			if err != nil {
				return nil, err
			}
			return &AssignStmt{Target: target, Value: val, position: pos}, nil
		case "if":
			parts, err := mappingFields(value, "cond", "then", "else")
			if err != nil {
				return nil, err
			}
			cond, err := requiredExpr(parts, "cond", value)
			if err != nil {
				return nil, err
			}
			stmt := &IfStmt{Condition: cond, position: pos}
			if node, ok := parts["then"]; ok {
				if stmt.Consequent, err = decodeBlock(node); err != nil {
					return nil, err
				}
			}
			if node, ok := parts["else"]; ok {
				if stmt.Alternate, err = decodeBlock(node); err != nil {
					return nil, err
				}
			}
			return stmt, nil
		case "while":
			parts, err := mappingFields(value, "cond", "body")
			if err != nil {
				return nil, err
			}
			cond, err := requiredExpr(parts, "cond", value)
			if err != nil {
				return nil, err
			}
			stmt := &WhileStmt{Condition: cond, position: pos}
			if node, ok := parts["body"]; ok {
				if stmt.Body, err = decodeBlock(node); err != nil {
					return nil, err
				}
			}
			return stmt, nil
		case "return":
			if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null" && value.Style == 0 {
				return &ReturnStmt{position: pos}, nil
			}
			val, err := decodeExpr(value)
			if err != nil {
				return nil, err
			}
			return &ReturnStmt{Value: val, position: pos}, nil
		case "println":
			val, err := decodeExpr(value)
			if err != nil {
				return nil, err
			}
			return &PrintStmt{Value: val, position: pos}, nil
		case "expr":
			val, err := decodeExpr(value)
			if err != nil {
				return nil, err
			}
			return &ExprStmt{Expr: val, position: pos}, nil
		}
	}
	return nil, loadErrorf(ErrInvalidDeclaration, pos, "unsupported statement")
}

func decodeVar(n *yaml.Node, pos Position) (Statement, error) {
	parts, err := mappingFields(n, "name", "type", "init")
	if err != nil {
		return nil, err
	}
	nameNode, hasName := parts["name"]
	typeNode, hasType := parts["type"]
	if !hasName || !hasType {
		return nil, loadErrorf(ErrInvalidDeclaration, pos, "var needs name and type")
	}
	stmt := &VarStmt{position: pos}
	if stmt.Name, err = scalarString(nameNode, "name"); err != nil {
		return nil, err
	}
	if stmt.Type, err = scalarString(typeNode, "type"); err != nil {
		return nil, err
	}
	if node, ok := parts["init"]; ok {
		if stmt.Init, err = decodeExpr(node); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

var expressionKeys = []string{"int", "string", "bool", "null", "this", "local", "field", "call", "static", "new", "binary", "not", "neg"}

func decodeExpr(n *yaml.Node) (Expression, error) {
	pos := nodePos(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalarExpr(n)
	case yaml.MappingNode:
	default:
		return nil, loadErrorf(ErrInvalidDeclaration, pos, "expression must be a scalar or a mapping")
	}

	fields, err := mappingFields(n, append(slices.Clone(expressionKeys), "of", "on", "args", "type", "left", "right")...)
	if err != nil {
		return nil, err
	}
	kind := ""
	for _, key := range expressionKeys {
		if _, ok := fields[key]; !ok {
			continue
		}
		if kind != "" {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "expression mixes %s and %s", kind, key)
		}
		kind = key
	}
	value := fields[kind]

	switch kind {
	case "int":
		lit, err := decodeExpr(value)
		if err != nil {
			return nil, err
		}
		if _, ok := lit.(*IntegerLiteral); !ok {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "int literal expects an integer")
		}
		return lit, nil
	case "string":
		if value.Kind != yaml.ScalarNode {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "string literal expects a scalar")
		}
		return &StringLiteral{Value: value.Value, position: pos}, nil
	case "bool":
		var b bool
		if err := value.Decode(&b); err != nil {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "bool literal expects true or false")
		}
		return &BoolLiteral{Value: b, position: pos}, nil
	case "null":
		return &NullLiteral{position: pos}, nil
	case "this":
		return &ThisExpr{position: pos}, nil
	case "local":
		name, err := scalarString(value, "local")
		if err != nil {
			return nil, err
		}
		return &LocalExpr{Name: name, position: pos}, nil
	case "field":
		name, err := scalarString(value, "field")
		if err != nil {
			return nil, err
		}
		expr := &FieldExpr{Name: name, position: pos}
		if node, ok := fields["of"]; ok {
			if expr.Object, err = decodeExpr(node); err != nil {
				return nil, err
			}
		}
		return expr, nil
	case "call":
		method, err := scalarString(value, "call")
		if err != nil {
			return nil, err
		}
		expr := &CallExpr{Method: method, position: pos}
		if node, ok := fields["on"]; ok {
			if expr.Receiver, err = decodeExpr(node); err != nil {
				return nil, err
			}
		}
		if expr.Args, err = decodeArgs(fields); err != nil {
			return nil, err
		}
		return expr, nil
	case "static":
		method, err := scalarString(value, "static")
		if err != nil {
			return nil, err
		}
		typeNode, ok := fields["type"]
		if !ok {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "static call needs a type")
		}
		expr := &StaticCallExpr{Method: method, position: pos}
		if expr.Type, err = scalarString(typeNode, "type"); err != nil {
			return nil, err
		}
		if expr.Args, err = decodeArgs(fields); err != nil {
			return nil, err
		}
		return expr, nil
	case "new":
		typeName, err := scalarString(value, "new")
		if err != nil {
			return nil, err
		}
		expr := &NewExpr{Type: typeName, position: pos}
		if expr.Args, err = decodeArgs(fields); err != nil {
			return nil, err
		}
		return expr, nil
	case "binary":
		op, err := scalarString(value, "binary")
		if err != nil {
			return nil, err
		}
		if !slices.Contains(binaryOperators, op) {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "unknown binary operator %q", op)
		}
		left, err := requiredExpr(fields, "left", n)
		if err != nil {
			return nil, err
		}
		right, err := requiredExpr(fields, "right", n)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Operator: op, Left: left, Right: right, position: pos}, nil
	case "not", "neg":
		operand, err := decodeExpr(value)
		if err != nil {
			return nil, err
		}
		op := "!"
		if kind == "neg" {
			op = "-"
		}
		return &UnaryExpr{Operator: op, Operand: operand, position: pos}, nil
	}
	return nil, loadErrorf(ErrInvalidDeclaration, pos, "expression needs one of %s", strings.Join(expressionKeys, ", "))
}

var binaryOperators = []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||"}

// decodeScalarExpr maps bare scalars: integers, booleans and null are
// literals, quoted strings are string literals, "this" is the receiver and
// any other plain word names a local.
func decodeScalarExpr(n *yaml.Node) (Expression, error) {
	pos := nodePos(n)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		return &StringLiteral{Value: n.Value, position: pos}, nil
	}
	switch n.ShortTag() {
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 32)
		if err != nil {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "integer literal %s does not fit in int", n.Value)
		}
		return &IntegerLiteral{Value: int32(i), position: pos}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "invalid boolean %s", n.Value)
		}
		return &BoolLiteral{Value: b, position: pos}, nil
	case "!!null":
		return &NullLiteral{position: pos}, nil
	case "!!str":
		if n.Value == "this" {
			return &ThisExpr{position: pos}, nil
		}
		if !isIdentifier(n.Value) {
			return nil, loadErrorf(ErrInvalidDeclaration, pos, "%q is not a local name; quote string literals", n.Value)
		}
		return &LocalExpr{Name: n.Value, position: pos}, nil
	default:
		return nil, loadErrorf(ErrInvalidDeclaration, pos, "unsupported literal %s", n.Value)
	}
}

func decodeArgs(fields map[string]*yaml.Node) ([]Expression, error) {
	node, ok := fields["args"]
	if !ok {
		return nil, nil
	}
	items, err := sequenceItems(node, "args")
	if err != nil {
		return nil, err
	}
	args := make([]Expression, 0, len(items))
	for _, item := range items {
		arg, err := decodeExpr(item)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func requiredExpr(fields map[string]*yaml.Node, key string, parent *yaml.Node) (Expression, error) {
	node, ok := fields[key]
	if !ok {
		return nil, loadErrorf(ErrInvalidDeclaration, nodePos(parent), "missing %s", key)
	}
	return decodeExpr(node)
}

// mappingFields indexes a mapping node by key, rejecting duplicate and
// unexpected keys.
func mappingFields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, loadErrorf(ErrInvalidDeclaration, nodePos(n), "expected a mapping")
	}
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, loadErrorf(ErrInvalidDeclaration, nodePos(keyNode), "mapping keys must be scalars")
		}
		key := keyNode.Value
		if !slices.Contains(allowed, key) {
			return nil, loadErrorf(ErrInvalidDeclaration, nodePos(keyNode), "unexpected key %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, loadErrorf(ErrInvalidDeclaration, nodePos(keyNode), "duplicate key %q", key)
		}
		fields[key] = valueNode
	}
	return fields, nil
}

func sequenceItems(n *yaml.Node, what string) ([]*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, loadErrorf(ErrInvalidDeclaration, nodePos(n), "%s must be a list", what)
	}
	return n.Content, nil
}

func scalarString(n *yaml.Node, what string) (string, error) {
	if n.Kind != yaml.ScalarNode || n.Value == "" {
		return "", loadErrorf(ErrInvalidDeclaration, nodePos(n), "%s must be a non-empty scalar", what)
	}
	return n.Value, nil
}

func scalarList(n *yaml.Node, what string) ([]string, error) {
	if n.Kind == yaml.ScalarNode {
		name, err := scalarString(n, what)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}
	items, err := sequenceItems(n, what)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		name, err := scalarString(item, what)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func nodePos(n *yaml.Node) Position {
	if n == nil {
		return Position{}
	}
	return Position{Line: n.Line, Column: n.Column}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
