// Package model defines the shared data model for the hybrid solving layer:
// variables, values, valuations, and the expression tree that the scope
// stack and simplifier operate over.
package model

import "strings"

// refSuffix is the conventional suffix that marks a symbolic variable as
// holding a reference (heap object id) rather than a primitive value.
const refSuffix = "(ref)"

// Variable is a named, typed symbolic placeholder. Its identity is its name.
type Variable struct {
	Name string
	// Type is the variable's declared/static type name, carried for
	// diagnostic purposes; it does not participate in equality.
	Type string
}

// IsReference reports whether v's name carries the "(ref)" convention.
func (v Variable) IsReference() bool {
	return strings.HasSuffix(v.Name, refSuffix)
}

// BaseName returns the last dotted segment of a reference variable's name,
// e.g. "node(ref).next(ref)" -> "next(ref)", and "head(ref)" -> "head(ref)".
// Non-dotted names are returned unchanged.
func BaseName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// HeapRef is a reference value: a heap object id, or NullRef for null.
type HeapRef int

// NullRef is the conventional encoding of a null reference.
const NullRef HeapRef = 0

// Value is a valuation entry: a primitive (bool, int64, float64, string),
// a HeapRef, or nil for "unassigned".
type Value interface{}

// Valuation is a mutable set of (Variable, Value) bindings.
type Valuation struct {
	bindings map[string]Value
}

// NewValuation returns an empty valuation.
func NewValuation() *Valuation {
	return &Valuation{bindings: make(map[string]Value)}
}

// Contains reports whether name has a binding.
func (v *Valuation) Contains(name string) bool {
	_, ok := v.bindings[name]
	return ok
}

// Get reads the binding for name.
func (v *Valuation) Get(name string) (Value, bool) {
	val, ok := v.bindings[name]
	return val, ok
}

// Set writes a binding, type-aware only in that the caller picks the Go
// type of val (HeapRef for references, NullRef for null, primitive
// otherwise).
func (v *Valuation) Set(name string, val Value) {
	v.bindings[name] = val
}

// Names returns the bound variable names, unordered.
func (v *Valuation) Names() []string {
	names := make([]string, 0, len(v.bindings))
	for n := range v.bindings {
		names = append(names, n)
	}
	return names
}

// RefValue reads name's binding as a HeapRef. Returns (NullRef, false) if
// the binding is absent or not a HeapRef.
func (v *Valuation) RefValue(name string) (HeapRef, bool) {
	val, ok := v.bindings[name]
	if !ok {
		return NullRef, false
	}
	ref, ok := val.(HeapRef)
	return ref, ok
}
