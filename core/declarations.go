package core

import (
	"strings"
)

type DeclKind int

const (
	DeclClass DeclKind = iota
	DeclInterface
)

func (k DeclKind) String() string {
	switch k {
	case DeclClass:
		return "class"
	case DeclInterface:
		return "interface"
	default:
		return "unknown"
	}
}

const (
	TypeInt     = "int"
	TypeBoolean = "boolean"
	TypeString  = "String"
	TypeVoid    = "void"
	TypeNull    = "null"

	constructorName = "<init>"
)

// TypeDecl is a class or interface definition. Hosts build these directly
// or decode them with DecodeYAML; once registered they must not be mutated.
type TypeDecl struct {
	Kind        DeclKind
	Name        string
	Extends     string
	Implements  []string
	Fields      []FieldDecl
	Constructor *MethodSignature
	Methods     []*MethodSignature
	position    Position
}

func (d *TypeDecl) Pos() Position { return d.position }

type FieldDecl struct {
	Name     string
	Type     string
	position Position
}

type Param struct {
	Name string
	Type string
}

// MethodSignature is one declared method or constructor. Interface methods
// carry no body.
type MethodSignature struct {
	Name     string
	Params   []Param
	Returns  string
	Static   bool
	Body     []Statement
	Owner    string
	position Position
}

func (m *MethodSignature) Pos() Position { return m.position }

// Key is the canonical name(T1,T2) form used to match overrides and
// interface implementations.
func (m *MethodSignature) Key() string {
	return signatureKey(m.Name, m.ParamTypes())
}

func (m *MethodSignature) ParamTypes() []string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	return types
}

// ReturnType reports the declared return type, treating an empty value as void.
func (m *MethodSignature) ReturnType() string {
	if m.Returns == "" {
		return TypeVoid
	}
	return m.Returns
}

func (m *MethodSignature) IsConstructor() bool {
	return m.Name == constructorName
}

// String renders Owner.name(T1,T2), or Owner(T1,T2) for constructors.
func (m *MethodSignature) String() string {
	if m.IsConstructor() {
		return m.Owner + "(" + strings.Join(m.ParamTypes(), ",") + ")"
	}
	if m.Owner == "" {
		return m.Key()
	}
	return m.Owner + "." + m.Key()
}

func signatureKey(name string, paramTypes []string) string {
	return name + "(" + strings.Join(paramTypes, ",") + ")"
}

func isBuiltinType(name string) bool {
	switch name {
	case TypeInt, TypeBoolean, TypeString, TypeVoid, TypeNull:
		return true
	default:
		return false
	}
}

func isPrimitiveType(name string) bool {
	return name == TypeInt || name == TypeBoolean
}

func isReferenceType(name string) bool {
	return name != TypeVoid && !isPrimitiveType(name)
}
