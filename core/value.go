package core

import (
	"fmt"
	"strconv"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindString
	KindInstance
)

type Value struct {
	kind ValueKind
	data any
}

func NewNull() Value           { return Value{kind: KindNull} }
func NewBool(b bool) Value     { return Value{kind: KindBool, data: b} }
func NewInt(i int32) Value     { return Value{kind: KindInt, data: i} }
func NewString(s string) Value { return Value{kind: KindString, data: s} }

func newInstanceValue(inst *Instance) Value {
	if inst == nil {
		return NewNull()
	}
	return Value{kind: KindInstance, data: inst}
}

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "int"
	case KindString:
		return "String"
	case KindInstance:
		return "instance"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.data.(bool)
	}
	return false
}

func (v Value) Int() int32 {
	if v.kind == KindInt {
		return v.data.(int32)
	}
	return 0
}

func (v Value) Instance() *Instance {
	if v.kind != KindInstance {
		return nil
	}
	return v.data.(*Instance)
}

// TypeName is the exact runtime type of v: a built-in type name, "null",
// or the class of an instance.
func (v Value) TypeName() string {
	switch v.kind {
	case KindBool:
		return TypeBoolean
	case KindInt:
		return TypeInt
	case KindString:
		return TypeString
	case KindInstance:
		return v.data.(*Instance).Class.Name
	default:
		return TypeNull
	}
}

// String renders v the way the output primitive prints it.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.data.(string)
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(int64(v.data.(int32)), 10)
	case KindInstance:
		inst := v.data.(*Instance)
		return fmt.Sprintf("%s@%x", inst.Class.Name, inst.id)
	default:
		return "null"
	}
}

// Equal compares primitives and strings by value and instances by identity.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInstance:
		return v.data.(*Instance) == other.data.(*Instance)
	default:
		return v.data == other.data
	}
}

func defaultValue(typeName string) Value {
	switch typeName {
	case TypeInt:
		return NewInt(0)
	case TypeBoolean:
		return NewBool(false)
	default:
		return NewNull()
	}
}
