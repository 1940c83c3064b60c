package vmadapter

import (
	"fmt"

	"github.com/funvibe/concolic/internal/concolic/model"
)

// primitiveTypeNames are the declared field types that do not get the
// "(ref)" suffix when re-symbolised.
var primitiveTypeNames = map[string]bool{
	"Int": true, "Float": true, "Bool": true, "Char": true, "Bits": true,
}

// SymbolicObjectsContext is the registry re-symbolisation (C6 step 3)
// populates: a fresh object's declared fields get fresh symbolic names
// under a dotted-path convention, e.g. "head(ref)" -> "head(ref).next(ref)".
type SymbolicObjectsContext struct {
	registered map[string]model.Variable
}

// NewSymbolicObjectsContext returns an empty registry.
func NewSymbolicObjectsContext() *SymbolicObjectsContext {
	return &SymbolicObjectsContext{registered: make(map[string]model.Variable)}
}

// ProcessPolymorphicObject walks obj's declared instance fields (from
// classInfo.Fields) and registers a fresh symbolic variable name for each,
// under varName's dotted-path convention. Reference-typed fields keep the
// "(ref)" suffix; primitive fields do not. Returns the registered
// variables so the caller can seed a fresh valuation if desired.
func (c *SymbolicObjectsContext) ProcessPolymorphicObject(obj *Object, varName string, classInfo ClassInfo) []model.Variable {
	fresh := make([]model.Variable, 0, len(classInfo.Fields))
	for fieldName, typeName := range classInfo.Fields {
		suffix := ""
		if !primitiveTypeNames[typeName] {
			suffix = "(ref)"
		}
		dotted := fmt.Sprintf("%s.%s%s", varName, fieldName, suffix)
		v := model.Variable{Name: dotted, Type: typeName}
		c.registered[dotted] = v
		fresh = append(fresh, v)
	}
	return fresh
}

// Lookup returns a previously registered symbolic variable by its dotted
// path name.
func (c *SymbolicObjectsContext) Lookup(name string) (model.Variable, bool) {
	v, ok := c.registered[name]
	return v, ok
}

// All returns every registered variable, unordered.
func (c *SymbolicObjectsContext) All() map[string]model.Variable {
	return c.registered
}
