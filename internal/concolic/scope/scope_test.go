package scope

import (
	"testing"

	"github.com/funvibe/concolic/internal/concolic/model"
)

func ref(name string) *model.VarRef {
	return &model.VarRef{Var: model.Variable{Name: name}}
}

// TestScopeNestingInvariant verifies property 1: for any interleaving of
// push/pop/add, the depth of the high-level stack (frame count) is the
// sentinel plus pushes - pops, never dropping below the sentinel.
func TestScopeNestingInvariant(t *testing.T) {
	s := New()
	if s.Depth() != 1 {
		t.Fatalf("expected sentinel depth 1, got %d", s.Depth())
	}

	s.Push()
	s.Push()
	s.Push()
	if s.Depth() != 4 {
		t.Fatalf("expected depth 4 after 3 pushes, got %d", s.Depth())
	}

	s.Pop(2)
	if s.Depth() != 2 {
		t.Fatalf("expected depth 2 after popping 2, got %d", s.Depth())
	}

	s.Pop(10) // over-pop: must stop at the sentinel, never go to 0
	if s.Depth() != 1 {
		t.Fatalf("expected depth to settle at sentinel (1), got %d", s.Depth())
	}
}

// TestConstraintPartitioning verifies property 2: Add(E) forwards exactly
// the non-high-level subset to the caller and retains exactly the
// high-level subset in the top frame.
func TestConstraintPartitioning(t *testing.T) {
	s := New()

	highA := model.NewIsExactType(ref("x(ref)"), "LDog;")
	highB := model.NewInstanceOf(ref("y(ref)"), "Animal")
	normalA := model.NewLeaf("x > 3")
	normalB := model.NewLeaf("y == z")

	normal := s.Add([]model.Expr{highA, normalA, highB, normalB})

	if len(normal) != 2 || normal[0] != model.Expr(normalA) || normal[1] != model.Expr(normalB) {
		t.Fatalf("expected [normalA, normalB] forwarded, got %v", normal)
	}

	top := s.Top()
	if len(top.HighLevel) != 2 || top.HighLevel[0] != model.Expr(highA) || top.HighLevel[1] != model.Expr(highB) {
		t.Fatalf("expected [highA, highB] retained, got %v", top.HighLevel)
	}

	if _, ok := top.Vars["x(ref)"]; !ok {
		t.Errorf("expected x(ref) in top frame vars")
	}
	if _, ok := top.Vars["y(ref)"]; !ok {
		t.Errorf("expected y(ref) in top frame vars")
	}
}

// TestAllHighLevelSpansFrames verifies that AllHighLevel flattens every
// still-live frame's high-level constraints, root to top, not just the
// innermost one.
func TestAllHighLevelSpansFrames(t *testing.T) {
	s := New()
	root := model.NewIsExactType(ref("x(ref)"), "LDog;")
	s.Add([]model.Expr{root})

	s.Push()
	child := model.NewIsExactType(ref("x(ref)"), "LCat;")
	s.Add([]model.Expr{child})

	all := s.AllHighLevel()
	if len(all) != 2 || all[0] != model.Expr(root) || all[1] != model.Expr(child) {
		t.Fatalf("expected [root, child] across both frames, got %v", all)
	}
}

// TestReplaceAllHighLevelRedistributesPerFrame verifies that
// ReplaceAllHighLevel writes a pruned, flattened list back into the frames
// it came from, preserving each frame's share and order.
func TestReplaceAllHighLevelRedistributesPerFrame(t *testing.T) {
	s := New()
	rootA := model.NewIsExactType(ref("x(ref)"), "LDog;")
	rootB := model.NewIsExactType(ref("y(ref)"), "LBird;")
	s.Add([]model.Expr{rootA, rootB})

	s.Push()
	child := model.NewIsExactType(ref("z(ref)"), "LCat;")
	s.Add([]model.Expr{child})

	replacement := model.NewLeaf("rewritten")
	pruned := []model.Expr{model.FalseExpr, rootB, replacement}
	s.ReplaceAllHighLevel(pruned)

	frames := s.frames
	root := frames[0]
	if len(root.HighLevel) != 2 || root.HighLevel[0] != model.Expr(model.FalseExpr) || root.HighLevel[1] != model.Expr(rootB) {
		t.Fatalf("expected root frame to keep its 2-element share, got %v", root.HighLevel)
	}
	top := s.Top()
	if len(top.HighLevel) != 1 || top.HighLevel[0] != model.Expr(replacement) {
		t.Fatalf("expected child frame to keep its 1-element share, got %v", top.HighLevel)
	}
}

// TestPushInheritsVars verifies that pushing clones (not shares) the
// enclosing frame's free-variable map, and that mutations to the inner
// frame never leak outward.
func TestPushInheritsVars(t *testing.T) {
	s := New()
	s.Add([]model.Expr{model.NewIsExactType(ref("outer(ref)"), "LFoo;")})

	s.Push()
	if _, ok := s.Top().Vars["outer(ref)"]; !ok {
		t.Fatalf("expected inner frame to inherit outer(ref)")
	}

	s.Add([]model.Expr{model.NewIsExactType(ref("inner(ref)"), "LBar;")})
	s.Pop(1)

	if _, ok := s.Top().Vars["inner(ref)"]; ok {
		t.Fatalf("inner(ref) must not leak into outer frame after pop")
	}
	if _, ok := s.Top().Vars["outer(ref)"]; !ok {
		t.Fatalf("outer(ref) must still be present after pop")
	}
}
