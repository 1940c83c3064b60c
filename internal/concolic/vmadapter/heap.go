package vmadapter

import "github.com/funvibe/concolic/internal/concolic/model"

// Object is a heap-allocated instance: a class name plus a field map.
// Field values are either model.HeapRef (reference fields, including
// array elements) or a primitive model.Value. Grounded on the teacher's
// evaluator.DataInstance / evaluator.RecordInstance field representation,
// generalised to name-keyed fields because the spec's per-class schemas
// are field-name keyed (DataInstance is positional).
type Object struct {
	ID        model.HeapRef
	ClassName string
	IsArray   bool
	Length    int // valid when IsArray
	Fields    map[string]model.Value
}

// Heap is the in-process object store the explorer owns. Allocation
// happens on it; the hybrid layer never mutates it except through
// Allocate/re-symbolisation (C6).
type Heap struct {
	objects map[model.HeapRef]*Object
	next    model.HeapRef
}

// NewHeap returns an empty heap. Reference ids start at 1 so 0 stays the
// null sentinel.
func NewHeap() *Heap {
	return &Heap{objects: make(map[model.HeapRef]*Object), next: 1}
}

// Get looks up a live object by id.
func (h *Heap) Get(id model.HeapRef) (*Object, bool) {
	if id == model.NullRef {
		return nil, false
	}
	o, ok := h.objects[id]
	return o, ok
}

// Allocate creates a fresh object of className and returns it.
func (h *Heap) Allocate(className string) *Object {
	id := h.next
	h.next++
	o := &Object{ID: id, ClassName: className, Fields: make(map[string]model.Value)}
	h.objects[id] = o
	return o
}

// Live returns every currently allocated object, unordered.
func (h *Heap) Live() []*Object {
	out := make([]*Object, 0, len(h.objects))
	for _, o := range h.objects {
		out = append(out, o)
	}
	return out
}
