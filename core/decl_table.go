package core

import (
	"fmt"
	"slices"
)

// Table holds the registered declarations. It is mutable until Seal
// succeeds and read-only afterwards, so a sealed Table may be shared by any
// number of concurrent runs.
type Table struct {
	decls  map[string]*TypeDecl
	order  []string
	info   map[string]*typeInfo
	sealed bool
}

// typeInfo is the flattened view computed at seal time: inherited fields
// and methods folded in, and a dispatch map from signature key to the body
// the class answers with.
type typeInfo struct {
	decl       *TypeDecl
	super      *typeInfo
	fields     []FieldDecl
	methods    []*MethodSignature
	dispatch   map[string]*MethodSignature
	interfaces map[string]struct{}
	ctors      []*MethodSignature
	state      int
}

const (
	flattenPending = iota
	flattenActive
	flattenDone
)

func NewTable() *Table {
	return &Table{
		decls: make(map[string]*TypeDecl),
		info:  make(map[string]*typeInfo),
	}
}

// Register adds decl to the table. Names must be unique and may not shadow
// the built-in types; a declaration may not repeat a signature.
func (t *Table) Register(decl *TypeDecl) error {
	if decl == nil {
		return loadErrorf(ErrInvalidDeclaration, Position{}, "nil declaration")
	}
	if t.sealed {
		return loadErrorf(ErrInvalidDeclaration, decl.position, "table is sealed, cannot register %s", decl.Name)
	}
	if decl.Name == "" {
		return loadErrorf(ErrInvalidDeclaration, decl.position, "%s declaration has no name", decl.Kind)
	}
	if isBuiltinType(decl.Name) {
		return &LoadError{Err: ErrDuplicateDeclaration, Type: decl.Name, Pos: decl.position, Message: fmt.Sprintf("%s is a built-in type", decl.Name)}
	}
	if _, exists := t.decls[decl.Name]; exists {
		return &LoadError{Err: ErrDuplicateDeclaration, Type: decl.Name, Pos: decl.position, Message: fmt.Sprintf("type %s is already declared", decl.Name)}
	}

	seen := make(map[string]struct{}, len(decl.Methods))
	for _, m := range decl.Methods {
		if m == nil || m.Name == "" {
			return loadErrorf(ErrInvalidDeclaration, decl.position, "%s declares a method without a name", decl.Name)
		}
		if m.Name == constructorName {
			return loadErrorf(ErrInvalidDeclaration, m.position, "%s is reserved", constructorName)
		}
		key := m.Key()
		if _, dup := seen[key]; dup {
			return &LoadError{Err: ErrDuplicateDeclaration, Type: decl.Name, Member: key, Pos: m.position, Message: fmt.Sprintf("method %s.%s is already declared", decl.Name, key)}
		}
		seen[key] = struct{}{}
	}
	fieldNames := make(map[string]struct{}, len(decl.Fields))
	for _, f := range decl.Fields {
		if _, dup := fieldNames[f.Name]; dup {
			return &LoadError{Err: ErrDuplicateDeclaration, Type: decl.Name, Member: f.Name, Pos: f.position, Message: fmt.Sprintf("field %s.%s is already declared", decl.Name, f.Name)}
		}
		fieldNames[f.Name] = struct{}{}
	}

	t.decls[decl.Name] = decl
	t.order = append(t.order, decl.Name)
	return nil
}

func (t *Table) Lookup(name string) (*TypeDecl, error) {
	decl, ok := t.decls[name]
	if !ok {
		return nil, &LoadError{Err: ErrUnknownType, Type: name, Message: fmt.Sprintf("type %s is not declared", name)}
	}
	return decl, nil
}

// Types returns the declarations in registration order.
func (t *Table) Types() []*TypeDecl {
	out := make([]*TypeDecl, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.decls[name])
	}
	return out
}

func (t *Table) Sealed() bool {
	return t.sealed
}

// ImplementsInterface reports whether interfaceName is in the capability set
// of className. Before sealing only direct declarations count; afterwards
// the set also carries interfaces inherited through the superclass chain.
func (t *Table) ImplementsInterface(className, interfaceName string) bool {
	if info, ok := t.info[className]; ok && t.sealed {
		_, found := info.interfaces[interfaceName]
		return found
	}
	decl, ok := t.decls[className]
	if !ok || decl.Kind != DeclClass {
		return false
	}
	return slices.Contains(decl.Implements, interfaceName)
}

// MethodsNamed returns every signature of typeName called methodName, in
// declaration order, as the candidate set for overload resolution.
func (t *Table) MethodsNamed(typeName, methodName string) []*MethodSignature {
	if methodName == constructorName {
		return t.Constructors(typeName)
	}
	var source []*MethodSignature
	if info, ok := t.info[typeName]; ok && t.sealed {
		source = info.methods
	} else if decl, ok := t.decls[typeName]; ok {
		source = decl.Methods
	}
	var out []*MethodSignature
	for _, m := range source {
		if m.Name == methodName {
			out = append(out, m)
		}
	}
	return out
}

// Dispatch returns the body-bearing signature className answers with for
// the given signature key. Only meaningful on a sealed table.
func (t *Table) Dispatch(className, key string) (*MethodSignature, bool) {
	info, ok := t.info[className]
	if !ok {
		return nil, false
	}
	m, ok := info.dispatch[key]
	return m, ok
}

// Fields returns the instance fields of className including inherited ones,
// superclass fields first.
func (t *Table) Fields(className string) []FieldDecl {
	if info, ok := t.info[className]; ok && t.sealed {
		return info.fields
	}
	if decl, ok := t.decls[className]; ok {
		return decl.Fields
	}
	return nil
}

func (t *Table) FieldType(className, field string) (string, bool) {
	for _, f := range t.Fields(className) {
		if f.Name == field {
			return f.Type, true
		}
	}
	return "", false
}

// IsAssignable reports whether a value of type from may be passed where to
// is declared: identity, null to any reference type, subclass to superclass,
// or class to an interface in its capability set.
func (t *Table) IsAssignable(from, to string) bool {
	if from == to {
		return true
	}
	if from == TypeNull {
		return isReferenceType(to)
	}
	info, ok := t.info[from]
	if !ok {
		return false
	}
	for sup := info.super; sup != nil; sup = sup.super {
		if sup.decl.Name == to {
			return true
		}
	}
	return t.ImplementsInterface(from, to)
}

func (t *Table) knownType(name string) bool {
	if name == TypeNull {
		return false
	}
	if isBuiltinType(name) {
		return true
	}
	_, ok := t.decls[name]
	return ok
}

// Constructors returns the normalised constructor signatures of a class,
// including the implicit no-argument one when none is declared.
func (t *Table) Constructors(typeName string) []*MethodSignature {
	if info, ok := t.info[typeName]; ok && t.sealed {
		return info.ctors
	}
	decl, ok := t.decls[typeName]
	if !ok || decl.Kind != DeclClass {
		return nil
	}
	return []*MethodSignature{constructorFor(decl)}
}

func constructorFor(decl *TypeDecl) *MethodSignature {
	if decl.Constructor != nil {
		ctor := *decl.Constructor
		ctor.Name = constructorName
		ctor.Owner = decl.Name
		ctor.Returns = TypeVoid
		return &ctor
	}
	return &MethodSignature{Name: constructorName, Owner: decl.Name, Returns: TypeVoid, position: decl.position}
}

// Seal validates cross-declaration references, flattens inheritance into
// per-class dispatch maps and checks interface completeness. Sealing an
// already sealed table is a no-op.
func (t *Table) Seal() error {
	if t.sealed {
		return nil
	}
	for _, name := range t.order {
		if err := t.validateDecl(t.decls[name]); err != nil {
			return err
		}
	}
	info := make(map[string]*typeInfo, len(t.decls))
	for _, name := range t.order {
		info[name] = &typeInfo{decl: t.decls[name]}
	}
	for _, name := range t.order {
		if err := flatten(info, info[name]); err != nil {
			return err
		}
	}
	for _, name := range t.order {
		if err := checkInterfaces(info, info[name]); err != nil {
			return err
		}
	}
	t.info = info
	t.sealed = true
	return nil
}

func (t *Table) validateDecl(decl *TypeDecl) error {
	requireType := func(name string, pos Position, context string) error {
		if name == "" || !t.knownType(name) {
			return &LoadError{Err: ErrUnknownType, Type: name, Pos: pos, Message: fmt.Sprintf("type %q used by %s is not declared", name, context)}
		}
		return nil
	}

	if decl.Kind == DeclInterface {
		if decl.Extends != "" || len(decl.Implements) > 0 {
			return loadErrorf(ErrInvalidDeclaration, decl.position, "interface %s cannot extend or implement other types", decl.Name)
		}
		if len(decl.Fields) > 0 || decl.Constructor != nil {
			return loadErrorf(ErrInvalidDeclaration, decl.position, "interface %s cannot declare fields or a constructor", decl.Name)
		}
	}
	if decl.Extends != "" {
		if err := requireType(decl.Extends, decl.position, decl.Name); err != nil {
			return err
		}
		if sup, ok := t.decls[decl.Extends]; !ok || sup.Kind != DeclClass {
			return loadErrorf(ErrInvalidDeclaration, decl.position, "%s can only extend a class, %s is not one", decl.Name, decl.Extends)
		}
	}
	for _, iface := range decl.Implements {
		if err := requireType(iface, decl.position, decl.Name); err != nil {
			return err
		}
		if target, ok := t.decls[iface]; !ok || target.Kind != DeclInterface {
			return loadErrorf(ErrInvalidDeclaration, decl.position, "%s can only implement interfaces, %s is not one", decl.Name, iface)
		}
	}
	for _, f := range decl.Fields {
		if err := requireType(f.Type, f.position, decl.Name+"."+f.Name); err != nil {
			return err
		}
		if f.Type == TypeVoid {
			return loadErrorf(ErrInvalidDeclaration, f.position, "field %s.%s cannot be void", decl.Name, f.Name)
		}
	}

	checkSignature := func(m *MethodSignature, label string) error {
		for _, p := range m.Params {
			if err := requireType(p.Type, m.position, label); err != nil {
				return err
			}
			if p.Type == TypeVoid {
				return loadErrorf(ErrInvalidDeclaration, m.position, "parameter %s of %s cannot be void", p.Name, label)
			}
		}
		if m.Returns != "" {
			if err := requireType(m.Returns, m.position, label); err != nil {
				return err
			}
		}
		return nil
	}
	if decl.Constructor != nil {
		if err := checkSignature(decl.Constructor, decl.Name+" constructor"); err != nil {
			return err
		}
	}
	for _, m := range decl.Methods {
		if err := checkSignature(m, decl.Name+"."+m.Key()); err != nil {
			return err
		}
		if decl.Kind == DeclInterface && (m.Static || len(m.Body) > 0) {
			return loadErrorf(ErrInvalidDeclaration, m.position, "interface method %s.%s must be abstract", decl.Name, m.Key())
		}
	}
	return nil
}

func flatten(all map[string]*typeInfo, info *typeInfo) error {
	switch info.state {
	case flattenDone:
		return nil
	case flattenActive:
		return loadErrorf(ErrInvalidDeclaration, info.decl.position, "inheritance cycle through %s", info.decl.Name)
	}
	info.state = flattenActive
	decl := info.decl

	info.dispatch = make(map[string]*MethodSignature)
	info.interfaces = make(map[string]struct{})
	if decl.Extends != "" {
		sup := all[decl.Extends]
		if err := flatten(all, sup); err != nil {
			return err
		}
		info.super = sup
		info.fields = append(info.fields, sup.fields...)
		info.methods = append(info.methods, sup.methods...)
		for iface := range sup.interfaces {
			info.interfaces[iface] = struct{}{}
		}
	}
	for _, f := range decl.Fields {
		for _, inherited := range info.fields {
			if inherited.Name == f.Name {
				return &LoadError{Err: ErrDuplicateDeclaration, Type: decl.Name, Member: f.Name, Pos: f.position, Message: fmt.Sprintf("field %s is already declared by a superclass of %s", f.Name, decl.Name)}
			}
		}
		info.fields = append(info.fields, f)
	}
	for _, m := range decl.Methods {
		own := *m
		own.Owner = decl.Name
		key := own.Key()
		idx := slices.IndexFunc(info.methods, func(existing *MethodSignature) bool {
			return existing.Key() == key
		})
		if idx >= 0 {
			if info.methods[idx].Static != own.Static {
				return loadErrorf(ErrInvalidDeclaration, m.position, "%s.%s changes static-ness of inherited %s", decl.Name, key, info.methods[idx])
			}
			info.methods[idx] = &own
			continue
		}
		info.methods = append(info.methods, &own)
	}
	for _, m := range info.methods {
		if !m.Static {
			info.dispatch[m.Key()] = m
		}
	}
	for _, iface := range decl.Implements {
		info.interfaces[iface] = struct{}{}
	}
	if decl.Kind == DeclClass {
		info.ctors = []*MethodSignature{constructorFor(decl)}
	}
	info.state = flattenDone
	return nil
}

func checkInterfaces(all map[string]*typeInfo, info *typeInfo) error {
	if info.decl.Kind != DeclClass {
		return nil
	}
	names := make([]string, 0, len(info.interfaces))
	for name := range info.interfaces {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		iface := all[name]
		for _, required := range iface.methods {
			key := required.Key()
			if _, ok := info.dispatch[key]; !ok {
				return &LoadError{
					Err:     ErrMissingInterfaceImplementation,
					Type:    info.decl.Name,
					Member:  key,
					Pos:     info.decl.position,
					Message: fmt.Sprintf("class %s does not implement %s.%s", info.decl.Name, name, key),
				}
			}
		}
	}
	return nil
}
