package simplify

import (
	"testing"

	"github.com/funvibe/concolic/internal/concolic/model"
)

func ref(name string) *model.VarRef { return &model.VarRef{Var: model.Variable{Name: name}} }

// TestConflictingExactTypes verifies property 3 / scenario C: two top-level
// IsExactType predicates with distinct type signatures are unsatisfiable.
func TestConflictingExactTypes(t *testing.T) {
	x := ref("x(ref)")
	cs := []model.Expr{
		model.NewIsExactType(x, "LDog;"),
		model.NewIsExactType(x, "LCat;"),
	}
	if !HasConflictingExactTypes(cs) {
		t.Fatalf("expected conflicting exact types to be detected")
	}
}

func TestNoConflictSameType(t *testing.T) {
	x := ref("x(ref)")
	cs := []model.Expr{
		model.NewIsExactType(x, "LDog;"),
		model.NewIsExactType(x, "LDog;"),
	}
	if HasConflictingExactTypes(cs) {
		t.Fatalf("same type repeated twice must not be flagged as conflicting")
	}
}

func TestCheckUnreachableExpressions(t *testing.T) {
	x := ref("x(ref)")
	unreachable := model.NewIsExactType(x, "LDog;")
	unreachable.SetUnreachable(true)

	if !CheckUnreachableExpressions([]model.Expr{unreachable}) {
		t.Fatalf("expected UNSAT: only unreachable variant of LDog; present")
	}

	reachable := model.NewIsExactType(x, "LDog;")
	if CheckUnreachableExpressions([]model.Expr{unreachable, reachable}) {
		t.Fatalf("expected SAT-eligible: a reachable variant exists")
	}
}

// TestUnreachablePruningIsSound verifies property 4: pruning an
// unreachable duplicate to FALSE while a reachable duplicate of the same
// type remains preserves satisfiability, and fully erases the unreachable
// branch from an OR.
func TestUnreachablePruningIsSound(t *testing.T) {
	x := ref("x(ref)")
	unreachable := model.NewIsExactType(x, "LCat;")
	unreachable.SetUnreachable(true)
	reachable := model.NewIsExactType(x, "LCat;")

	formula := model.NewOr(unreachable, model.NewAnd(reachable, model.NewLeaf("x.age > 1")))
	pruned := FilterRedundantUnreachableExpressions([]model.Expr{formula})

	got := pruned[0].String()
	want := model.NewAnd(reachable, model.NewLeaf("x.age > 1")).String()
	if got != want {
		t.Fatalf("unexpected rewrite: got %s want %s", got, want)
	}
}

// TestScenarioD mirrors end-to-end scenario D: two dispatch sites observed,
// the second marked unreachable for one discovered type; pruning removes
// the unreachable variant from the query while preserving the reachable
// one.
func TestScenarioD(t *testing.T) {
	a := ref("a(ref)")
	siteOneDog := model.NewIsExactType(a, "LDog;")
	siteTwoDogUnreachable := model.NewIsExactType(a, "LDog;")
	siteTwoDogUnreachable.SetUnreachable(true)

	all := []model.Expr{siteOneDog, siteTwoDogUnreachable}
	if CheckUnreachableExpressions(all) {
		t.Fatalf("must not be UNSAT: LDog; has a reachable occurrence")
	}

	pruned := FilterRedundantUnreachableExpressions(all)
	if pruned[0] != model.Expr(siteOneDog) {
		t.Errorf("reachable predicate must survive unchanged")
	}
	if _, ok := pruned[1].(*model.BoolConst); !ok {
		t.Errorf("unreachable duplicate must be rewritten to a boolean constant, got %T", pruned[1])
	}
}
