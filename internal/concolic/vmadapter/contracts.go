// Package vmadapter defines the external-collaborator contracts the hybrid
// solver depends on (underlying solver, concolic explorer, VM/class
// loader), plus the concrete in-process Heap, SymbolicObjectsContext and
// the YAML-catalog-backed StaticUniverse. Funxy traits stand in for
// interfaces and their declared implementors for concrete implementing
// classes. UnderlyingSolver and Explorer are not implemented here.
package vmadapter

import (
	"github.com/funvibe/concolic/internal/concolic/model"
)

// SolveVerdict is the three/four-way result every solver-shaped component
// returns.
type SolveVerdict int

const (
	SAT SolveVerdict = iota
	UNSAT
	UNKNOWN
	DontKnow
)

func (v SolveVerdict) String() string {
	switch v {
	case SAT:
		return "SAT"
	case UNSAT:
		return "UNSAT"
	case DontKnow:
		return "DONT_KNOW"
	default:
		return "UNKNOWN"
	}
}

// UnderlyingSolver is the numeric solver the hybrid context delegates
// "normal" (non-high-level) constraints to. Out of scope for this repo;
// consumed through this interface only.
type UnderlyingSolver interface {
	Push()
	Pop(n int)
	Add(cs []model.Expr) error
	Solve(val *model.Valuation) SolveVerdict
	Dispose()
}

// MethodRef identifies the method under analysis: its simple name, JVM-
// style signature, and fully-qualified owner.
type MethodRef struct {
	Name          string
	Signature     string
	FQN           string
	ClassName     string
	StartLine     int
	EndLine       int
	SourceFile    string
}

// Explorer is the concolic driver's contract, consumed (never
// implemented as part of the core's job) by C7/C8: it tells the hybrid
// context whether it is collecting fresh decisions or replaying a
// prefix, lets C8 record dispatch decisions, and exposes the
// constraints tree and parameter-type map C7 needs.
type Explorer interface {
	// NeedsDecisions reports whether the explorer is collecting fresh
	// decisions (true) or replaying a previously discovered prefix
	// (false, in which case decisions must match exactly).
	NeedsDecisions() bool
	// Decision records a branch taken at a dispatch site. constraints may
	// be nil on replay.
	Decision(threadID int, instruction string, branchIdx int, constraints []model.Expr)
	// ConstraintsTree enumerates all high-level decision constraints
	// recorded anywhere in the explorer's tree, including branches not on
	// the current path.
	ConstraintsTree() []model.Expr
	// ParameterTypeConstraints maps parameter name (including "this" for
	// non-static methods) to its declared static type name.
	ParameterTypeConstraints() map[string]string
	// CurrentMethod returns the method under analysis, or ok=false if
	// unavailable (callers fall back to the top stack frame's method).
	CurrentMethod() (MethodRef, bool)
	// CurrentValuation returns the live valuation for the current path.
	CurrentValuation() *model.Valuation
	// Heap returns the current heap.
	Heap() *Heap
	// SymbolicObjects returns the registry new allocations get
	// re-symbolised into.
	SymbolicObjects() *SymbolicObjectsContext
	// FrameRefs returns the current stack frame's named reference slots
	// (local variable name -> heap object id), for C3's third seeding
	// tier when no free variable in the constraints or class-name guess
	// yields a seed. May be nil if the embedding explorer does not track
	// frame slots.
	FrameRefs() map[string]model.HeapRef
}

// ClassInfo is the type-hierarchy record (spec §3): populated
// opportunistically for diagnostics, but also the authority C3/C4/C8
// consult for fields, supertypes, and interfaces.
type ClassInfo struct {
	Name            string
	TypeSig         string // "L<qualified/name>;" convention
	IsInterface     bool
	IsAbstract      bool
	IsArray         bool
	Supertype       string
	Interfaces      []string
	Fields          map[string]string // field name -> simplified type name
	SourceFile      string
	ClassStartLine  int
	ClassEndLine    int
}

// TypeUniverse resolves class/interface information and implementing-type
// enumeration. Its design target is a TypeUniverse wrapping the Funxy
// symbol table (*symbols.SymbolTable), but this repo's only wired,
// concrete implementation is StaticUniverse, loaded from a static YAML
// catalog (see DESIGN.md); the hybrid layer and dispatch instrumentation
// depend only on this interface either way.
type TypeUniverse interface {
	// ClassOf returns class info by simple or qualified name.
	ClassOf(name string) (ClassInfo, bool)
	// AncestorChain returns the full supertype chain, root-most last.
	AncestorChain(name string) []string
	// InterfaceClosure returns the full transitive interface closure.
	InterfaceClosure(name string) []string
	// Implementors returns every concrete type implementing the given
	// interface/trait that provides a concrete method (name, signature),
	// inheritance taken into account.
	Implementors(interfaceName, methodName, signature string) []string
	// IsSubtype reports whether sub is declared-type-compatible with
	// super (equal, direct supertype, or implements it).
	IsSubtype(sub, super string) bool
}
