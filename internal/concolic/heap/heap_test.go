package heap

import (
	"testing"

	"github.com/funvibe/concolic/internal/concolic/model"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
)

type fakeUniverse struct{}

func (fakeUniverse) ClassOf(name string) (vmadapter.ClassInfo, bool) {
	if name == "Node" {
		return vmadapter.ClassInfo{Name: "Node", Fields: map[string]string{"next": "Node", "val": "Int"}}, true
	}
	return vmadapter.ClassInfo{}, false
}
func (fakeUniverse) AncestorChain(string) []string                         { return nil }
func (fakeUniverse) InterfaceClosure(string) []string                     { return nil }
func (fakeUniverse) Implementors(string, string, string) []string         { return nil }
func (fakeUniverse) IsSubtype(a, b string) bool                           { return a == b }

func ref(name string) *model.VarRef { return &model.VarRef{Var: model.Variable{Name: name}} }

// TestCyclicHeapSlice mirrors scenario F: a cyclic linked list
// n0 -> n1 -> n2 -> n0, head(ref) bound to n0. The slice must contain
// exactly n0, n1, n2, modifiable_objects = {id(n0)}, and BFS must
// terminate despite the cycle.
func TestCyclicHeapSlice(t *testing.T) {
	h := vmadapter.NewHeap()
	n0 := h.Allocate("Node")
	n1 := h.Allocate("Node")
	n2 := h.Allocate("Node")
	n0.Fields["next"] = n1.ID
	n1.Fields["next"] = n2.ID
	n2.Fields["next"] = n0.ID

	val := model.NewValuation()
	val.Set("head(ref)", n0.ID)

	constraints := []model.Expr{model.NewIsExactType(ref("head(ref)"), "LNode;")}

	snap := Collect(DefaultConfig(), h, fakeUniverse{}, constraints, val, nil)

	if len(snap.Objects) != 3 {
		t.Fatalf("expected exactly 3 objects in slice, got %d", len(snap.Objects))
	}
	for _, id := range []model.HeapRef{n0.ID, n1.ID, n2.ID} {
		if _, ok := snap.Objects[id]; !ok {
			t.Errorf("expected object %d in slice", id)
		}
	}
	if len(snap.ModifiableObjects) != 1 || snap.ModifiableObjects[0] != n0.ID {
		t.Fatalf("expected modifiable_objects = {%d}, got %v", n0.ID, snap.ModifiableObjects)
	}
	if snap.Bindings["head(ref)"] != n0.ID {
		t.Fatalf("expected head(ref) bound to n0, got %v", snap.Bindings["head(ref)"])
	}
	if _, ok := snap.Schemas["Node"]; !ok {
		t.Fatalf("expected a Node schema to be emitted")
	}
}

// TestFrameFallbackSeedsFromFrameRefs covers spec §4.3's third seeding
// tier: with no free variables in the constraints at all (so neither the
// constraint-derived nor class-name-guess tiers produce a seed), the
// current stack frame's named reference slots seed the BFS.
func TestFrameFallbackSeedsFromFrameRefs(t *testing.T) {
	h := vmadapter.NewHeap()
	n := h.Allocate("Node")

	val := model.NewValuation()
	frameRefs := map[string]model.HeapRef{"this(ref)": n.ID}

	snap := Collect(DefaultConfig(), h, fakeUniverse{}, nil, val, frameRefs)
	if _, ok := snap.Objects[n.ID]; !ok {
		t.Fatalf("expected frame-ref fallback to seed object %d, got %+v", n.ID, snap.Objects)
	}
}

// TestFrameFallbackSeedsFromIntegerSymbolicVariable covers the same tier's
// other source: an integer-valued symbolic variable the constraints never
// name, whose concrete value happens to equal a live object's id.
func TestFrameFallbackSeedsFromIntegerSymbolicVariable(t *testing.T) {
	h := vmadapter.NewHeap()
	n := h.Allocate("Node")

	val := model.NewValuation()
	val.Set("someIntVar", int64(n.ID))

	snap := Collect(DefaultConfig(), h, fakeUniverse{}, nil, val, nil)
	if _, ok := snap.Objects[n.ID]; !ok {
		t.Fatalf("expected integer-symbolic-variable fallback to seed object %d, got %+v", n.ID, snap.Objects)
	}
}

func TestIrrelevantFieldsOmitted(t *testing.T) {
	h := vmadapter.NewHeap()
	n := h.Allocate("Node")
	n.Fields["val"] = int64(5)
	n.Fields["modCount"] = int64(2)

	val := model.NewValuation()
	val.Set("x(ref)", n.ID)
	constraints := []model.Expr{model.NewIsExactType(ref("x(ref)"), "LNode;")}

	snap := Collect(DefaultConfig(), h, fakeUniverse{}, constraints, val, nil)
	view := snap.Objects[n.ID]
	if _, ok := view.Fields["modCount"]; ok {
		t.Errorf("expected modCount to be omitted as an irrelevant field")
	}
	if _, ok := view.Fields["val"]; !ok {
		t.Errorf("expected val to be present")
	}
}
