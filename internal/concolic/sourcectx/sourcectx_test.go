package sourcectx

import (
	"testing"

	"github.com/funvibe/concolic/internal/concolic/model"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
)

type fakeIndex struct {
	files map[string]string
}

func (f fakeIndex) SourceFor(className string) (string, bool) {
	s, ok := f.files[className]
	return s, ok
}

func ref(name string) *model.VarRef { return &model.VarRef{Var: model.Variable{Name: name}} }

func TestCollectMethodExcerpt(t *testing.T) {
	src := "line1\nline2\nfun f(a Animal) {\n  a.makeSound()\n}\nline6\n"
	idx := fakeIndex{files: map[string]string{"Main": src}}
	c := NewCollector(DefaultConfig(), idx, nil)

	method := vmadapter.MethodRef{
		Name: "f", Signature: "(Animal)->Unit", FQN: "Main.f",
		ClassName: "Main", StartLine: 3, EndLine: 5,
	}
	ctx := c.Collect(method, nil, nil, nil)

	if ctx.LineNumbers.MethodStart != 3 || ctx.LineNumbers.MethodEnd != 5 {
		t.Fatalf("unexpected line numbers: %+v", ctx.LineNumbers)
	}
	if ctx.MethodSource == "" {
		t.Fatalf("expected non-empty method source")
	}
}

func TestRelatedClassesFromDescriptor(t *testing.T) {
	idx := fakeIndex{files: map[string]string{
		"Dog": "other\nclass Dog {\n  fun bark() {}\n}\ntrailer\n",
	}}
	c := NewCollector(DefaultConfig(), idx, nil)

	constraints := []model.Expr{model.NewIsExactType(ref("a(ref)"), "LDog;")}
	related := c.relatedClasses(constraints, nil)
	if len(related) != 1 || related[0].Name != "Dog" {
		t.Fatalf("expected related class Dog, got %+v", related)
	}
	if related[0].Source == "" {
		t.Fatalf("expected non-empty extracted class block")
	}
}

func TestFallbackMethodUsedWhenCurrentUnavailable(t *testing.T) {
	idx := fakeIndex{files: map[string]string{"Main": "fun g() {}\n"}}
	c := NewCollector(DefaultConfig(), idx, nil)
	fallback := &vmadapter.MethodRef{Name: "g", FQN: "Main.g", ClassName: "Main", StartLine: 1, EndLine: 1}

	ctx := c.Collect(vmadapter.MethodRef{}, fallback, nil, nil)
	if ctx.MethodName != "g" {
		t.Fatalf("expected fallback method to be used, got %q", ctx.MethodName)
	}
}
