package model

import "fmt"

// Expr is the shared interface for every node in the constraint expression
// tree. containsHighLevel walks Children(); OwnHighLevel reports whether
// this particular node is inherently high-level (only IsExactType and
// InstanceOf are).
type Expr interface {
	// OwnHighLevel reports whether this node itself is a high-level
	// predicate, independent of its children.
	OwnHighLevel() bool
	// Children returns this node's direct subexpressions, if any.
	Children() []Expr
	// Accept dispatches to the matching Visitor method.
	Accept(v Visitor)
	// String renders the stringified form sent to the oracle.
	String() string
}

// Visitor is implemented by callers that need to walk the expression tree
// without type-switching on concrete node types (simplifier, classifier,
// source-context scanner).
type Visitor interface {
	VisitIsExactType(*IsExactType)
	VisitInstanceOf(*InstanceOf)
	VisitCompound(*Compound)
	VisitNegation(*Negation)
	VisitVarRef(*VarRef)
	VisitBoolConst(*BoolConst)
	VisitLeaf(*Leaf)
}

// ContainsHighLevel returns true iff e or any transitive child has
// OwnHighLevel set. Used only when constraints are added, never during
// solving (solving works off the already-partitioned scope stack).
func ContainsHighLevel(e Expr) bool {
	if e == nil {
		return false
	}
	if e.OwnHighLevel() {
		return true
	}
	for _, c := range e.Children() {
		if ContainsHighLevel(c) {
			return true
		}
	}
	return false
}

// FreeVariables collects every VarRef reachable from e, keyed by variable
// name.
func FreeVariables(e Expr) map[string]Variable {
	out := make(map[string]Variable)
	var walk func(Expr)
	walk = func(n Expr) {
		if n == nil {
			return
		}
		if vr, ok := n.(*VarRef); ok {
			out[vr.Var.Name] = vr.Var
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(e)
	return out
}

// VarRef is a leaf node naming the occurrence of a symbolic variable,
// typically the receiver of an IsExactType/InstanceOf predicate.
type VarRef struct {
	Var Variable
}

func (r *VarRef) OwnHighLevel() bool { return false }
func (r *VarRef) Children() []Expr   { return nil }
func (r *VarRef) Accept(v Visitor)   { v.VisitVarRef(r) }
func (r *VarRef) String() string     { return r.Var.Name }

// IsExactType is the predicate "the runtime type of Ref is exactly
// TypeSig". Unreachable is a mutable flag set by the dispatch
// instrumentation when a branch is discovered unrealisable.
type IsExactType struct {
	Ref        Expr
	TypeSig    string
	unreachable bool
}

// NewIsExactType builds an IsExactType node.
func NewIsExactType(ref Expr, typeSig string) *IsExactType {
	return &IsExactType{Ref: ref, TypeSig: typeSig}
}

func (p *IsExactType) OwnHighLevel() bool { return true }
func (p *IsExactType) Children() []Expr   { return []Expr{p.Ref} }
func (p *IsExactType) Accept(v Visitor)   { v.VisitIsExactType(p) }
func (p *IsExactType) String() string {
	return fmt.Sprintf("IsExactType(%s, %s)", p.Ref.String(), p.TypeSig)
}

// Unreachable reports the mutable unreachable flag.
func (p *IsExactType) Unreachable() bool { return p.unreachable }

// SetUnreachable sets the mutable unreachable flag.
func (p *IsExactType) SetUnreachable(b bool) { p.unreachable = b }

// InstanceOf is the predicate used to encode dispatch branches: "the
// runtime type of Ref is TypeName or a subtype of it."
type InstanceOf struct {
	Ref      Expr
	TypeName string
}

// NewInstanceOf builds an InstanceOf node.
func NewInstanceOf(ref Expr, typeName string) *InstanceOf {
	return &InstanceOf{Ref: ref, TypeName: typeName}
}

func (p *InstanceOf) OwnHighLevel() bool { return true }
func (p *InstanceOf) Children() []Expr   { return []Expr{p.Ref} }
func (p *InstanceOf) Accept(v Visitor)   { v.VisitInstanceOf(p) }
func (p *InstanceOf) String() string {
	return fmt.Sprintf("InstanceOf(%s, %s)", p.Ref.String(), p.TypeName)
}

// BoolOp is the operator of a PropositionalCompound.
type BoolOp int

const (
	AND BoolOp = iota
	OR
)

func (op BoolOp) String() string {
	if op == OR {
		return "OR"
	}
	return "AND"
}

// Compound is a propositional combinator: Left <op> Right.
type Compound struct {
	Left  Expr
	Op    BoolOp
	Right Expr
}

// NewAnd builds an AND compound.
func NewAnd(left, right Expr) *Compound { return &Compound{Left: left, Op: AND, Right: right} }

// NewOr builds an OR compound.
func NewOr(left, right Expr) *Compound { return &Compound{Left: left, Op: OR, Right: right} }

func (c *Compound) OwnHighLevel() bool { return false }
func (c *Compound) Children() []Expr   { return []Expr{c.Left, c.Right} }
func (c *Compound) Accept(v Visitor)   { v.VisitCompound(c) }
func (c *Compound) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left.String(), c.Op.String(), c.Right.String())
}

// Negation is the boolean combinator NOT(Inner).
type Negation struct {
	Inner Expr
}

// NewNegation builds a negation node.
func NewNegation(inner Expr) *Negation { return &Negation{Inner: inner} }

func (n *Negation) OwnHighLevel() bool { return false }
func (n *Negation) Children() []Expr   { return []Expr{n.Inner} }
func (n *Negation) Accept(v Visitor)   { v.VisitNegation(n) }
func (n *Negation) String() string     { return fmt.Sprintf("NOT(%s)", n.Inner.String()) }

// BoolConst is the constant TRUE/FALSE node the simplifier rewrites
// unreachable predicates into.
type BoolConst struct {
	Value bool
}

// TrueExpr and FalseExpr are the two BoolConst singletons used by the
// simplifier; callers may also construct their own.
var (
	TrueExpr  = &BoolConst{Value: true}
	FalseExpr = &BoolConst{Value: false}
)

func (b *BoolConst) OwnHighLevel() bool { return false }
func (b *BoolConst) Children() []Expr   { return nil }
func (b *BoolConst) Accept(v Visitor)   { v.VisitBoolConst(b) }
func (b *BoolConst) String() string {
	if b.Value {
		return "TRUE"
	}
	return "FALSE"
}

// Leaf is an opaque node for classification purposes: arithmetic,
// equality, and any other predicate the base solver understands natively.
// Text is the node's stringified form, forwarded verbatim to the oracle
// when such a leaf participates in a high-level compound.
type Leaf struct {
	Text string
}

// NewLeaf wraps an opaque base-solver expression's textual form.
func NewLeaf(text string) *Leaf { return &Leaf{Text: text} }

func (l *Leaf) OwnHighLevel() bool { return false }
func (l *Leaf) Children() []Expr   { return nil }
func (l *Leaf) Accept(v Visitor)   { v.VisitLeaf(l) }
func (l *Leaf) String() string     { return l.Text }
