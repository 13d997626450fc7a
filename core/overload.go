package core

import "fmt"

// Resolver picks the single declared signature applicable to a call. It
// keeps no state beyond the sealed table and is safe for concurrent use.
type Resolver struct {
	table *Table
}

func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve selects among the methodName signatures of typeName. Candidates
// must match the argument count, and every argument type must be identical
// to, or widen to, the declared parameter type. Exactly one survivor is a
// success; none is ErrNoMatchingOverload and several is ErrAmbiguousOverload.
// There is no most-specific tie-breaking.
func (r *Resolver) Resolve(typeName, methodName string, argTypes []string) (*MethodSignature, error) {
	if !r.table.knownType(typeName) {
		return nil, &LoadError{Err: ErrUnknownType, Type: typeName, Message: fmt.Sprintf("type %s is not declared", typeName)}
	}
	candidates := r.table.MethodsNamed(typeName, methodName)
	matches := make([]*MethodSignature, 0, len(candidates))
	for _, candidate := range candidates {
		if r.accepts(candidate, argTypes) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, &ResolutionError{
			Err:        ErrNoMatchingOverload,
			Type:       typeName,
			Method:     methodName,
			ArgTypes:   append([]string(nil), argTypes...),
			Candidates: describeCandidates(candidates),
		}
	default:
		return nil, &ResolutionError{
			Err:        ErrAmbiguousOverload,
			Type:       typeName,
			Method:     methodName,
			ArgTypes:   append([]string(nil), argTypes...),
			Candidates: describeCandidates(matches),
		}
	}
}

// ResolveConstructor runs the same selection over the constructors of
// className. A class without a declared constructor has an implicit
// zero-argument one.
func (r *Resolver) ResolveConstructor(className string, argTypes []string) (*MethodSignature, error) {
	decl, err := r.table.Lookup(className)
	if err != nil {
		return nil, err
	}
	if decl.Kind != DeclClass {
		return nil, &ResolutionError{
			Err:      ErrNoMatchingOverload,
			Type:     className,
			Method:   constructorName,
			ArgTypes: append([]string(nil), argTypes...),
		}
	}
	return r.Resolve(className, constructorName, argTypes)
}

func (r *Resolver) accepts(candidate *MethodSignature, argTypes []string) bool {
	if len(candidate.Params) != len(argTypes) {
		return false
	}
	for i, param := range candidate.Params {
		if !r.table.IsAssignable(argTypes[i], param.Type) {
			return false
		}
	}
	return true
}

func describeCandidates(sigs []*MethodSignature) []string {
	out := make([]string, len(sigs))
	for i, sig := range sigs {
		if sig.IsConstructor() {
			out[i] = sig.String()
			continue
		}
		out[i] = sig.Key()
	}
	return out
}
