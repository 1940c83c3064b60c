// Package simplify implements the type-constraint simplifier (C2): early
// UNSAT detection over IsExactType predicates, direct conflicting-exact-
// type detection, and redundancy pruning of unreachable IsExactType
// duplicates.
package simplify

import "github.com/funvibe/concolic/internal/concolic/model"

// group collects, for one type signature, every IsExactType predicate that
// names it, gathered from a constraint list (and, for the early-UNSAT
// check, from the explorer's whole decision tree).
type group map[string][]*model.IsExactType

// collectIsExactType walks cs (not descending into IsExactType's own Ref
// subexpression, only the top-level predicate tree) gathering every
// IsExactType node reachable through AND/OR/NOT combinators.
func collectIsExactType(cs []model.Expr) group {
	g := make(group)
	var walk func(model.Expr)
	walk = func(e model.Expr) {
		switch n := e.(type) {
		case *model.IsExactType:
			g[n.TypeSig] = append(g[n.TypeSig], n)
		case *model.Compound:
			walk(n.Left)
			walk(n.Right)
		case *model.Negation:
			walk(n.Inner)
		}
	}
	for _, c := range cs {
		walk(c)
	}
	return g
}

// CheckUnreachableExpressions implements the early-UNSAT check: if some
// type T has a non-empty group where every predicate is marked
// unreachable, the merged formula cannot be satisfied.
//
// merged should be the union of the current path's high-level constraints
// and, when available, every high-level decision recorded anywhere in the
// explorer's constraints tree (duplicates tolerated).
func CheckUnreachableExpressions(merged []model.Expr) bool {
	g := collectIsExactType(merged)
	for _, preds := range g {
		if len(preds) == 0 {
			continue
		}
		allUnreachable := true
		for _, p := range preds {
			if !p.Unreachable() {
				allUnreachable = false
				break
			}
		}
		if allUnreachable {
			return true
		}
	}
	return false
}

// HasConflictingExactTypes reports whether cs contains two top-level
// IsExactType predicates with distinct type signatures: an object has
// exactly one runtime type, so two distinct exact-type claims about the
// same (or any) reference are jointly unsatisfiable.
func HasConflictingExactTypes(cs []model.Expr) bool {
	var seen []string
	for _, e := range cs {
		it, ok := e.(*model.IsExactType)
		if !ok {
			continue
		}
		for _, sig := range seen {
			if sig != it.TypeSig {
				return true
			}
		}
		seen = append(seen, it.TypeSig)
	}
	return false
}

// FilterRedundantUnreachableExpressions rewrites cs: for each type T with
// at least one reachable (unreachable=false) predicate, every unreachable
// duplicate of T is replaced by FalseExpr, and compounds/negations are
// rebuilt bottom-up so boolean constants propagate:
//
//	AND(FALSE, x) -> FALSE   AND(x, FALSE) -> FALSE
//	OR(FALSE, x)  -> x       OR(x, FALSE)  -> x
func FilterRedundantUnreachableExpressions(cs []model.Expr) []model.Expr {
	g := collectIsExactType(cs)
	hasReachable := make(map[string]bool, len(g))
	for sig, preds := range g {
		for _, p := range preds {
			if !p.Unreachable() {
				hasReachable[sig] = true
				break
			}
		}
	}

	out := make([]model.Expr, len(cs))
	for i, e := range cs {
		out[i] = rewrite(e, hasReachable)
	}
	return out
}

func rewrite(e model.Expr, hasReachable map[string]bool) model.Expr {
	switch n := e.(type) {
	case *model.IsExactType:
		if n.Unreachable() && hasReachable[n.TypeSig] {
			return model.FalseExpr
		}
		return n
	case *model.Compound:
		left := rewrite(n.Left, hasReachable)
		right := rewrite(n.Right, hasReachable)
		if n.Op == model.AND {
			if isFalse(left) || isFalse(right) {
				return model.FalseExpr
			}
		} else {
			if isFalse(left) {
				return right
			}
			if isFalse(right) {
				return left
			}
		}
		if left != n.Left || right != n.Right {
			return &model.Compound{Left: left, Op: n.Op, Right: right}
		}
		return n
	case *model.Negation:
		inner := rewrite(n.Inner, hasReachable)
		if inner != n.Inner {
			return &model.Negation{Inner: inner}
		}
		return n
	default:
		return e
	}
}

func isFalse(e model.Expr) bool {
	b, ok := e.(*model.BoolConst)
	return ok && !b.Value
}
