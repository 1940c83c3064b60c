package vmadapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogEntry is one class/trait record in a YAML type catalog, the
// static stand-in cmd/concolic uses when no live class loader (a
// TypeUniverse backed by an analyzed Funxy program's symbol table) is
// available. Grounded on the teacher's internal/ext.Config yaml.v3
// loading idiom (LoadConfig/ParseConfig/validate).
type catalogEntry struct {
	Name         string            `yaml:"name"`
	IsInterface  bool              `yaml:"is_interface,omitempty"`
	Interfaces   []string          `yaml:"interfaces,omitempty"`
	Fields       map[string]string `yaml:"fields,omitempty"`
	Implementors []string          `yaml:"implementors,omitempty"`
}

type catalog struct {
	Classes []catalogEntry `yaml:"classes"`
}

// StaticUniverse implements TypeUniverse from a fixed, file-loaded
// catalog rather than a live class loader. It never changes once loaded,
// so it has no discovery fallback beyond what the file declares.
type StaticUniverse struct {
	classes map[string]catalogEntry
}

// LoadStaticUniverse reads a YAML type catalog from path.
func LoadStaticUniverse(path string) (*StaticUniverse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type catalog %s: %w", path, err)
	}
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing type catalog %s: %w", path, err)
	}
	u := &StaticUniverse{classes: make(map[string]catalogEntry, len(c.Classes))}
	for _, entry := range c.Classes {
		u.classes[entry.Name] = entry
	}
	return u, nil
}

func (u *StaticUniverse) ClassOf(name string) (ClassInfo, bool) {
	entry, ok := u.classes[name]
	if !ok {
		return ClassInfo{}, false
	}
	return ClassInfo{
		Name:        entry.Name,
		TypeSig:     "L" + entry.Name + ";",
		IsInterface: entry.IsInterface,
		Interfaces:  entry.Interfaces,
		Fields:      entry.Fields,
	}, true
}

// AncestorChain is always empty: the catalog format only records
// interfaces, matching Funxy's trait-only substrate (no class
// inheritance, only trait implementation).
func (u *StaticUniverse) AncestorChain(name string) []string { return nil }

func (u *StaticUniverse) InterfaceClosure(name string) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(string)
	walk = func(n string) {
		entry, ok := u.classes[n]
		if !ok {
			return
		}
		for _, iface := range entry.Interfaces {
			if seen[iface] {
				continue
			}
			seen[iface] = true
			out = append(out, iface)
			walk(iface)
		}
	}
	walk(name)
	return out
}

func (u *StaticUniverse) Implementors(interfaceName, methodName, signature string) []string {
	entry, ok := u.classes[interfaceName]
	if !ok {
		return nil
	}
	return entry.Implementors
}

func (u *StaticUniverse) IsSubtype(sub, super string) bool {
	if sub == super {
		return true
	}
	for _, iface := range u.InterfaceClosure(sub) {
		if iface == super {
			return true
		}
	}
	return false
}

// KnownTypeNames returns every class/trait name in the catalog.
func (u *StaticUniverse) KnownTypeNames() []string {
	names := make([]string, 0, len(u.classes))
	for name := range u.classes {
		names = append(names, name)
	}
	return names
}
