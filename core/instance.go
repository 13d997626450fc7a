package core

// Instance is a runtime object. Class is the exact, most-derived class; it
// never changes after allocation.
type Instance struct {
	Class  *TypeDecl
	Fields map[string]Value
	id     int
}

func (inst *Instance) ID() int { return inst.id }

func (inst *Instance) Field(name string) (Value, bool) {
	val, ok := inst.Fields[name]
	return val, ok
}
