// Package heap implements the heap-reachability collector (C3): from a
// seed set of references derived from the current high-level constraints,
// it produces a depth- and object-bounded slice with per-class schemas
// and variable -> object bindings.
package heap

import (
	"sort"
	"strings"

	"github.com/funvibe/concolic/internal/concolic/model"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
)

// Config holds C3's tunables (spec §6 Configuration).
type Config struct {
	MaxDepth         int
	MaxObjects       int
	IrrelevantFields map[string]bool
}

// DefaultConfig matches spec §4.3's defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:   10,
		MaxObjects: 100,
		IrrelevantFields: map[string]bool{
			"modCount": true, "size": true, "capacity": true, "hash": true,
			"threshold": true, "loadFactor": true, "EMPTY_ELEMENTDATA": true,
		},
	}
}

// ClassSchema describes one class's non-irrelevant instance fields.
type ClassSchema struct {
	Fields map[string]string
}

// Snapshot is C3's output (spec §3 "Heap snapshot").
type Snapshot struct {
	Bindings          map[string]model.HeapRef // constraint var -> ref or NullRef
	Objects           map[model.HeapRef]ObjectView
	ModifiableObjects []model.HeapRef
	Schemas           map[string]ClassSchema
	AllowedToAllocate bool
}

// ObjectView is the per-object entry in a Snapshot.
type ObjectView struct {
	ClassName string
	Fields    map[string]model.Value // field name -> HeapRef or primitive
	IsArray   bool
	Length    int
	Elements  []model.HeapRef // capped at 10, reference-element arrays only
}

// stdlibPrefixes mirrors "classes whose qualified name starts with
// standard-library prefixes" (spec §4.3): excluded from Schemas.
var stdlibPrefixes = []string{"std/", "lib/", "java.", "builtin."}

func isStdlib(name string) bool {
	for _, p := range stdlibPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Collect runs the BFS described in spec §4.3 against h, seeding from the
// free variables of constraints (resolved against val), with the PascalCase
// and stack-frame fallbacks.
func Collect(cfg Config, h *vmadapter.Heap, universe vmadapter.TypeUniverse, constraints []model.Expr, val *model.Valuation, frameRefs map[string]model.HeapRef) *Snapshot {
	snap := &Snapshot{
		Bindings:          make(map[string]model.HeapRef),
		Objects:           make(map[model.HeapRef]ObjectView),
		Schemas:           make(map[string]ClassSchema),
		AllowedToAllocate: true,
	}

	freeVars := collectFreeVarNames(constraints)
	seeds := seedFromConstraints(freeVars, val, snap.Bindings)

	if len(seeds) == 0 {
		seeds = seedFromClassNameGuess(freeVars, h)
	}
	if len(seeds) == 0 && len(freeVars) == 0 {
		seeds = seedFromFrame(frameRefs, val, h)
	}

	visited := make(map[model.HeapRef]bool)
	queue := append([]model.HeapRef{}, seeds...)
	for _, s := range seeds {
		visited[s] = true
	}

	for depth := 0; len(queue) > 0 && len(snap.Objects) < cfg.MaxObjects; depth++ {
		if depth > cfg.MaxDepth {
			break
		}
		var next []model.HeapRef
		for _, id := range queue {
			if len(snap.Objects) >= cfg.MaxObjects {
				break
			}
			obj, ok := h.Get(id)
			if !ok {
				continue
			}
			view := toView(obj, cfg)
			snap.Objects[id] = view

			if !obj.IsArray && !isStdlib(obj.ClassName) {
				if _, already := snap.Schemas[obj.ClassName]; !already {
					snap.Schemas[obj.ClassName] = schemaFor(universe, obj.ClassName, cfg)
				}
			}

			for _, fv := range view.Fields {
				if ref, ok := fv.(model.HeapRef); ok && ref != model.NullRef && !visited[ref] {
					visited[ref] = true
					next = append(next, ref)
				}
			}
			for _, ref := range view.Elements {
				if ref != model.NullRef && !visited[ref] {
					visited[ref] = true
					next = append(next, ref)
				}
			}
		}
		queue = next
	}

	for _, ref := range snap.Bindings {
		if ref != model.NullRef {
			snap.ModifiableObjects = appendUnique(snap.ModifiableObjects, ref)
		}
	}
	sort.Slice(snap.ModifiableObjects, func(i, j int) bool { return snap.ModifiableObjects[i] < snap.ModifiableObjects[j] })

	return snap
}

func appendUnique(xs []model.HeapRef, x model.HeapRef) []model.HeapRef {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}

func toView(obj *vmadapter.Object, cfg Config) ObjectView {
	view := ObjectView{ClassName: obj.ClassName, IsArray: obj.IsArray, Length: obj.Length}
	if obj.IsArray {
		for name, val := range obj.Fields {
			if ref, ok := val.(model.HeapRef); ok {
				if len(view.Elements) >= 10 {
					break
				}
				view.Elements = append(view.Elements, ref)
				_ = name
			}
		}
		return view
	}
	view.Fields = make(map[string]model.Value, len(obj.Fields))
	for name, val := range obj.Fields {
		if cfg.IrrelevantFields[name] {
			continue
		}
		view.Fields[name] = val
	}
	return view
}

func schemaFor(universe vmadapter.TypeUniverse, className string, cfg Config) ClassSchema {
	schema := ClassSchema{Fields: make(map[string]string)}
	info, ok := universe.ClassOf(className)
	if !ok {
		return schema
	}
	for name, typ := range info.Fields {
		if cfg.IrrelevantFields[name] {
			continue
		}
		schema.Fields[name] = typ
	}
	return schema
}

// collectFreeVarNames extracts, for every free variable appearing in
// constraints, its last-dotted-segment base name followed by its full name
// (once each, in first-seen order).
func collectFreeVarNames(constraints []model.Expr) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range constraints {
		for name := range model.FreeVariables(c) {
			base := model.BaseName(name)
			if !seen[base] {
				seen[base] = true
				names = append(names, base)
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func seedFromConstraints(names []string, val *model.Valuation, bindings map[string]model.HeapRef) []model.HeapRef {
	var seeds []model.HeapRef
	for _, name := range names {
		ref, ok := val.RefValue(name)
		if !ok {
			continue
		}
		bindings[name] = ref
		if ref != model.NullRef {
			seeds = append(seeds, ref)
		}
	}
	return seeds
}

// pascalCase upper-cases the first rune of a last-segment base name, e.g.
// "head(ref)" -> "head" -> "Head".
func pascalCase(baseName string) string {
	name := strings.TrimSuffix(baseName, "(ref)")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func seedFromClassNameGuess(names []string, h *vmadapter.Heap) []model.HeapRef {
	candidates := make(map[string]bool)
	for _, n := range names {
		candidates[pascalCase(n)] = true
	}
	var seeds []model.HeapRef
	for _, obj := range h.Live() {
		simple := obj.ClassName
		if idx := strings.LastIndex(simple, "."); idx >= 0 {
			simple = simple[idx+1:]
		}
		if candidates[obj.ClassName] || candidates[simple] {
			seeds = append(seeds, obj.ID)
		}
	}
	return seeds
}

// seedFromFrame implements spec §4.3's third seeding tier: the current
// stack frame's reference slots, plus any integer-valued symbolic variable
// in val that happens to resolve to a live object id (a variable the
// constraints never mention by name, but whose concrete value was already
// chosen as a heap reference by an earlier allocation).
func seedFromFrame(frameRefs map[string]model.HeapRef, val *model.Valuation, h *vmadapter.Heap) []model.HeapRef {
	var seeds []model.HeapRef
	for _, ref := range frameRefs {
		if ref == model.NullRef {
			continue
		}
		if _, ok := h.Get(ref); ok {
			seeds = append(seeds, ref)
		}
	}
	for _, name := range val.Names() {
		v, _ := val.Get(name)
		n, ok := v.(int64)
		if !ok {
			continue
		}
		ref := model.HeapRef(n)
		if ref == model.NullRef {
			continue
		}
		if _, ok := h.Get(ref); ok {
			seeds = append(seeds, ref)
		}
	}
	return seeds
}
