// Package dispatch implements the polymorphic dispatch instrumentation
// (C8): at virtual/interface call sites it enumerates implementing types,
// emits mutually-exclusive type-discrimination constraints, and records a
// branch decision indexed into that enumeration. It runs before the real
// dispatch and never alters it.
package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/concolic/internal/concolic/model"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
)

// CallSiteKey identifies a dispatch point across replays (spec §3
// "Call-site descriptor").
type CallSiteKey struct {
	CallerFQN  string
	BytecodePos int
	TargetDesc string // declaredClass + "." + methodName + signature
}

func (k CallSiteKey) String() string {
	return fmt.Sprintf("%s@%d/%s", k.CallerFQN, k.BytecodePos, k.TargetDesc)
}

// CallSiteCache is the process-global-shaped but session-owned cache: its
// entries are created on first dispatch and never invalidated during a
// run, only explicitly cleared at the start of a new analysis (spec
// §3/§5). Modeled as an owned map with a handle passed to the
// instrumentation, per the DESIGN NOTES "cross-replay shared cache"
// re-architecture guidance, rather than a package-level singleton.
type CallSiteCache struct {
	mu      sync.Mutex
	entries map[CallSiteKey][]string
}

// NewCallSiteCache returns an empty cache.
func NewCallSiteCache() *CallSiteCache {
	return &CallSiteCache{entries: make(map[CallSiteKey][]string)}
}

// Clear empties the cache; call at the start of a new analysis session.
func (c *CallSiteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CallSiteKey][]string)
}

func (c *CallSiteCache) get(key CallSiteKey) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	types, ok := c.entries[key]
	return types, ok
}

func (c *CallSiteCache) freeze(key CallSiteKey, types []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = types
}

// FilterConfig configures the optional inclusion filter (spec §6
// "polymorphic_filter_enabled" / "polymorphic_packages").
type FilterConfig struct {
	Enabled  bool
	Packages []string // "*", exact class name, or "pkg.*"
}

// Matches reports whether declaredType passes the filter. An empty or
// disabled filter matches everything.
func (f FilterConfig) Matches(declaredType string) bool {
	if !f.Enabled || len(f.Packages) == 0 {
		return true
	}
	for _, p := range f.Packages {
		switch {
		case p == "*":
			return true
		case p == declaredType:
			return true
		case strings.HasSuffix(p, ".*") && strings.HasPrefix(declaredType, strings.TrimSuffix(p, "*")):
			return true
		}
	}
	return false
}

// CallSite describes one dispatch site occurrence (spec §4.8 step 1).
type CallSite struct {
	CallerFQN    string
	BytecodePos  int
	DeclaredType string
	ActualType   string
	MethodName   string
	Signature    string
	Receiver     model.Expr // the symbolic expression attached to the receiver slot
	ThreadID     int
	Instruction  string
}

func (s CallSite) key() CallSiteKey {
	return CallSiteKey{
		CallerFQN:  s.CallerFQN,
		BytecodePos: s.BytecodePos,
		TargetDesc: s.DeclaredType + "." + s.MethodName + s.Signature,
	}
}

// Instrumentor implements C8 against a TypeUniverse (enumeration) and an
// Explorer (decision recording).
type Instrumentor struct {
	cache    *CallSiteCache
	universe vmadapter.TypeUniverse
	filter   FilterConfig
	log      *logrus.Entry
}

// New builds an Instrumentor.
func New(cache *CallSiteCache, universe vmadapter.TypeUniverse, filter FilterConfig, log *logrus.Entry) *Instrumentor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Instrumentor{cache: cache, universe: universe, filter: filter, log: log}
}

// Fire runs the algorithm of spec §4.8 and records a decision on explorer.
// It returns the branch index selected, and ok=false if the filter
// excluded this site (no instrumentation, no decision recorded).
func (d *Instrumentor) Fire(site CallSite, explorer vmadapter.Explorer) (branchIdx int, ok bool) {
	if !d.filter.Matches(site.DeclaredType) {
		return 0, false
	}

	key := site.key()
	types, cached := d.cache.get(key)

	var constraints []model.Expr
	if !cached {
		types = d.enumerate(site)
		types = unionSorted(types, site.ActualType, d.universe)
		d.cache.freeze(key, types)
		constraints = buildExclusiveConstraints(site.Receiver, types)
	} else if !contains(types, site.ActualType) {
		types = unionSorted(types, site.ActualType, d.universe)
		d.cache.freeze(key, types)
		d.log.WithField("site", key.String()).Warn("dispatch: cache hit but actual type unseen, extending and re-sorting")
	}

	idx := indexOf(types, site.ActualType)
	if idx < 0 {
		d.log.WithFields(logrus.Fields{"site": key.String(), "actualType": site.ActualType}).
			Warn("dispatch: actual type not found among enumerated types, defaulting to branch 0")
		idx = 0
	}

	explorer.Decision(site.ThreadID, site.Instruction, idx, constraints)
	return idx, true
}

// enumerate implements the preferred/fallback discovery of spec §4.8: the
// universe's Implementors already folds classpath-scan-then-loaded-class
// fallback behind one call.
func (d *Instrumentor) enumerate(site CallSite) []string {
	types := d.universe.Implementors(site.DeclaredType, site.MethodName, site.Signature)
	if len(types) == 0 {
		d.log.WithField("declaredType", site.DeclaredType).
			Warn("dispatch: no implementing types found, using declared type as placeholder")
		types = []string{site.DeclaredType}
	}
	return types
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func indexOf(xs []string, x string) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}

// unionSorted adds actualType if missing and (re-)sorts by the stable
// order: primary key inheritance depth from root (deeper first), using the
// type universe's interface closure size plus ancestor chain length as the
// depth (StaticUniverse's ancestor chain is always empty, so there it is
// the closure size alone); secondary key lexicographic. The ordering only
// needs to be stable across replays of the *same* program, which it is.
func unionSorted(types []string, actualType string, universe vmadapter.TypeUniverse) []string {
	out := append([]string{}, types...)
	if actualType != "" && !contains(out, actualType) {
		out = append(out, actualType)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := depthOf(out[i], universe), depthOf(out[j], universe)
		if di != dj {
			return di > dj
		}
		return out[i] < out[j]
	})
	return out
}

func depthOf(typeName string, universe vmadapter.TypeUniverse) int {
	if universe == nil {
		return 0
	}
	return len(universe.InterfaceClosure(typeName)) + len(universe.AncestorChain(typeName))
}

// buildExclusiveConstraints builds, for ordered types [T0..Tn-1], the
// cascade c_i = InstanceOf(receiver, Ti) AND NOT InstanceOf(receiver, T0)
// AND ... AND NOT InstanceOf(receiver, Ti-1), per spec §4.8 step 6.
func buildExclusiveConstraints(receiver model.Expr, types []string) []model.Expr {
	constraints := make([]model.Expr, 0, len(types))
	for i, t := range types {
		clause := model.Expr(model.NewInstanceOf(receiver, t))
		for j := 0; j < i; j++ {
			clause = model.NewAnd(clause, model.NewNegation(model.NewInstanceOf(receiver, types[j])))
		}
		constraints = append(constraints, clause)
	}
	return constraints
}
