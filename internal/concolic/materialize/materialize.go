// Package materialize implements the valuation materialiser (C6): given
// an oracle assignment naming a target type for a reference variable, it
// allocates an object of that type on the heap, rebinds the variable, and
// re-symbolises the new object's fields.
package materialize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/concolic/internal/concolic/model"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
)

var descriptorPattern = regexp.MustCompile(`^L[\w/$]+;$`)

// Materialiser implements C6 against a heap, type universe, and
// symbolic-objects registry.
type Materialiser struct {
	heap     *vmadapter.Heap
	universe vmadapter.TypeUniverse
	symbolic *vmadapter.SymbolicObjectsContext
	log      *logrus.Entry
}

// New builds a Materialiser.
func New(heap *vmadapter.Heap, universe vmadapter.TypeUniverse, symbolic *vmadapter.SymbolicObjectsContext, log *logrus.Entry) *Materialiser {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Materialiser{heap: heap, universe: universe, symbolic: symbolic, log: log}
}

// Apply walks entries (one oracle valuation object's key/value pairs, or
// the flattened array) and writes into val. knownVars is the union of the
// explorer's valuation variables and the current scope's free-vars map;
// an entry naming an unknown variable is skipped with a warning (spec
// §4.6 step 1 / §7).
func (m *Materialiser) Apply(entries map[string]interface{}, knownVars map[string]model.Variable, val *model.Valuation) {
	for varName, raw := range entries {
		if _, ok := knownVars[varName]; !ok {
			m.log.WithField("var", varName).Warn("materialise: unknown variable name in oracle valuation, skipping")
			continue
		}
		m.applyOne(varName, raw, val)
	}
}

func (m *Materialiser) applyOne(varName string, raw interface{}, val *model.Valuation) {
	str, isNull := coerceToString(raw)
	if isNull || str == "null" {
		val.Set(varName, model.NullRef)
		return
	}

	if descriptorPattern.MatchString(str) {
		m.materialiseReference(varName, str, val)
		return
	}

	// Any other string is currently ignored per spec §6.
}

func coerceToString(raw interface{}) (s string, isNull bool) {
	if raw == nil {
		return "", true
	}
	if str, ok := raw.(string); ok {
		return str, false
	}
	return fmt.Sprintf("%v", raw), false
}

func descriptorToClassName(desc string) string {
	return strings.TrimSuffix(strings.TrimPrefix(desc, "L"), ";")
}

// materialiseReference implements spec §4.6 step 3: strip the descriptor,
// keep an existing live reference of the same runtime class untouched,
// otherwise resolve the class, allocate, write the fresh id, and
// re-symbolise.
func (m *Materialiser) materialiseReference(varName, descriptor string, val *model.Valuation) {
	className := descriptorToClassName(descriptor)

	if existing, ok := val.RefValue(varName); ok && existing != model.NullRef {
		if obj, ok := m.heap.Get(existing); ok && obj.ClassName == className {
			// Property 7: already the right runtime type, no new
			// allocation, value unchanged.
			return
		}
	}

	info, ok := m.universe.ClassOf(className)
	if !ok {
		m.log.WithField("class", className).Warn("materialise: class resolution failed, skipping")
		return
	}

	obj := m.heap.Allocate(className)
	val.Set(varName, obj.ID)

	m.symbolic.ProcessPolymorphicObject(obj, varName, info)
}
