// Package hybrid implements the hybrid solver context (C7): it
// orchestrates C1 (scope), C2 (simplifier), C3 (heap), C4 (source
// context), C5 (oracle), and C6 (materialiser) on top of an underlying
// numeric solver, implementing the push/pop/add/solve contract the
// concolic explorer drives.
package hybrid

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/concolic/internal/concolic/heap"
	"github.com/funvibe/concolic/internal/concolic/materialize"
	"github.com/funvibe/concolic/internal/concolic/model"
	"github.com/funvibe/concolic/internal/concolic/oracle"
	"github.com/funvibe/concolic/internal/concolic/scope"
	"github.com/funvibe/concolic/internal/concolic/simplify"
	"github.com/funvibe/concolic/internal/concolic/sourcectx"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
)

// SessionRecorder receives a (request, verdict) pair after every solve()
// call, for audit purposes only; never consulted by Solve itself (caching
// queries across runs is an explicit non-goal).
type SessionRecorder interface {
	Record(req oracle.Request, result oracle.Result)
}

// Config bundles C3/C4's tunables, loaded by the caller from
// internal/concolic/config.
type Config struct {
	Heap   heap.Config
	Source sourcectx.Config
}

// Context is the hybrid solver context.
type Context struct {
	underlying vmadapter.UnderlyingSolver
	scope      *scope.Stack
	universe   vmadapter.TypeUniverse
	sourceIdx  sourcectx.SourceIndex
	oracle     *oracle.Client
	explorer   vmadapter.Explorer // may be nil outside a live analysis
	cfg        Config
	recorder   SessionRecorder // may be nil
	log        *logrus.Entry
}

// New builds a Context. explorer and recorder may be nil.
func New(
	underlying vmadapter.UnderlyingSolver,
	universe vmadapter.TypeUniverse,
	sourceIdx sourcectx.SourceIndex,
	oracleClient *oracle.Client,
	explorer vmadapter.Explorer,
	cfg Config,
	recorder SessionRecorder,
	log *logrus.Entry,
) *Context {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Context{
		underlying: underlying,
		scope:      scope.New(),
		universe:   universe,
		sourceIdx:  sourceIdx,
		oracle:     oracleClient,
		explorer:   explorer,
		cfg:        cfg,
		recorder:   recorder,
		log:        log,
	}
}

// Push opens a new scope on both the high-level stack and the underlying
// solver.
func (c *Context) Push() {
	c.scope.Push()
	c.underlying.Push()
}

// Pop closes the top n scopes on both stacks.
func (c *Context) Pop(n int) {
	c.scope.Pop(n)
	c.underlying.Pop(n)
}

// Add partitions cs via C1 and forwards the normal subset to the
// underlying solver immediately.
func (c *Context) Add(cs []model.Expr) error {
	normal := c.scope.Add(cs)
	if len(normal) == 0 {
		return nil
	}
	return c.underlying.Add(normal)
}

// Dispose releases the underlying solver.
func (c *Context) Dispose() {
	c.underlying.Dispose()
}

// Solve implements spec §4.7's eleven steps.
func (c *Context) Solve(ctx context.Context, val *model.Valuation) vmadapter.SolveVerdict {
	// Step 1: no high-level constraints anywhere -> delegate entirely.
	if !c.scope.HasHighLevel() {
		return c.underlying.Solve(val)
	}

	// Step 2: base solver first; short-circuit on anything but SAT.
	base := c.underlying.Solve(val)
	if base != vmadapter.SAT {
		return base
	}

	// Step 3: merge current-path high-level constraints with the
	// explorer's whole decision tree, when available.
	merged := append([]model.Expr{}, c.scope.AllHighLevel()...)
	if c.explorer != nil {
		merged = append(merged, c.explorer.ConstraintsTree()...)
	}

	// Step 4: early UNSAT over the merged view.
	if simplify.CheckUnreachableExpressions(merged) {
		return vmadapter.UNSAT
	}

	// Step 5: redundancy-prune the current path's full high-level list,
	// which spans every still-live frame, not just the innermost one.
	pruned := simplify.FilterRedundantUnreachableExpressions(c.scope.AllHighLevel())
	c.scope.ReplaceAllHighLevel(pruned)

	// Step 6: direct conflict check on the pruned list.
	if simplify.HasConflictingExactTypes(pruned) {
		return vmadapter.UNSAT
	}

	// Step 7: parameter type constraints.
	var paramTypes map[string]string
	if c.explorer != nil {
		paramTypes = c.explorer.ParameterTypeConstraints()
	}

	// Step 8: source context and heap state, each collector failure
	// swallowed independently.
	srcCtx := c.collectSourceContext(paramTypes)
	heapSnap := c.collectHeapSnapshot(pruned, val)

	constraintStrings := make([]string, len(pruned))
	for i, e := range pruned {
		constraintStrings[i] = e.String()
	}

	// Step 9: call the oracle.
	req := oracle.Request{
		Constraints:              constraintStrings,
		HeapState:                heapSnap,
		ParameterTypeConstraints: paramTypes,
		SourceContext:            srcCtx,
	}
	resp := c.oracle.Solve(ctx, req)
	if c.recorder != nil {
		c.recorder.Record(req, resp.Result)
	}

	switch resp.Result {
	case oracle.ResultUNSAT:
		return vmadapter.UNSAT
	case oracle.ResultUNKNOWN:
		return vmadapter.UNKNOWN
	case oracle.ResultSAT:
		// Step 10: materialise, if a valuation came back.
		if len(resp.Valuation) > 0 {
			c.applyValuation(resp.Valuation, val)
		}
		return vmadapter.SAT
	default: // DONT_KNOW: network/parse failure. Step 11: fall back to
		// the base verdict, which is SAT here — exploration continues as
		// if nothing happened. val is left as the base solver produced it.
		c.log.Debug("hybrid: oracle returned DONT_KNOW, falling back to base SAT verdict")
		return vmadapter.SAT
	}
}

func (c *Context) collectSourceContext(paramTypes map[string]string) (result *sourcectx.Context) {
	if c.sourceIdx == nil || c.explorer == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Warn("hybrid: source-context collection failed, omitting field")
			result = nil
		}
	}()
	collector := sourcectx.NewCollector(c.cfg.Source, c.sourceIdx, c.universe)
	method, _ := c.explorer.CurrentMethod()
	ctx := collector.Collect(method, nil, c.scope.AllHighLevel(), paramTypes)
	return &ctx
}

func (c *Context) collectHeapSnapshot(pruned []model.Expr, val *model.Valuation) (result *heap.Snapshot) {
	if c.explorer == nil || c.explorer.Heap() == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Warn("hybrid: heap collection failed, omitting field")
			result = nil
		}
	}()
	snap := heap.Collect(c.cfg.Heap, c.explorer.Heap(), c.universe, pruned, val, c.explorer.FrameRefs())
	return snap
}

func (c *Context) applyValuation(valuationEntries []map[string]interface{}, val *model.Valuation) {
	if c.explorer == nil {
		return
	}
	known := make(map[string]model.Variable)
	for _, name := range val.Names() {
		known[name] = model.Variable{Name: name}
	}
	for name, v := range c.scope.Top().Vars {
		known[name] = v
	}

	m := materialize.New(c.explorer.Heap(), c.universe, c.explorer.SymbolicObjects(), c.log)
	for _, entry := range valuationEntries {
		m.Apply(entry, known, val)
	}
}
