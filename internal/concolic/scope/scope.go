// Package scope implements the expression classifier and scope stack (C1):
// it decides which added constraints are "high-level" (held back for the
// oracle) versus "normal" (forwarded to the underlying solver), and keeps
// per-push frames of high-level constraints and their free variables.
//
// Classification only happens on add(); solving never reclassifies.
package scope

import "github.com/funvibe/concolic/internal/concolic/model"

// Frame owns the high-level constraints added within one scope and the
// free variables those constraints reference.
type Frame struct {
	HighLevel []model.Expr
	Vars      map[string]model.Variable
}

// Stack is an ordered stack of Frames. A sentinel frame is always present
// at the bottom so that Pop never has to reason about an empty stack; this
// resolves the spec's open question about over-pop in favor of keeping a
// live frame, matching the source variant that guards against it.
type Stack struct {
	frames []*Frame
}

// New returns a stack with a single sentinel frame.
func New() *Stack {
	return &Stack{frames: []*Frame{{Vars: make(map[string]model.Variable)}}}
}

// Depth returns the number of frames, including the sentinel.
func (s *Stack) Depth() int { return len(s.frames) }

// Top returns the innermost frame.
func (s *Stack) Top() *Frame { return s.frames[len(s.frames)-1] }

// Push starts a new scope: a fresh empty high-level list, and a
// free-variables map cloned from the current top so inherited variables
// stay in scope for inner frames.
func (s *Stack) Push() {
	top := s.Top()
	cloned := make(map[string]model.Variable, len(top.Vars))
	for k, v := range top.Vars {
		cloned[k] = v
	}
	s.frames = append(s.frames, &Frame{Vars: cloned})
}

// Pop removes the top n frames. Popping past the sentinel is a no-op: the
// sentinel is never removed, keeping Depth() >= 1 always.
func (s *Stack) Pop(n int) {
	for i := 0; i < n && len(s.frames) > 1; i++ {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Add partitions cs into normal (no high-level content) and high-level
// (added to the top frame, free variables unioned in). It returns the
// normal subset for the caller to forward to the underlying solver.
func (s *Stack) Add(cs []model.Expr) []model.Expr {
	top := s.Top()
	normal := make([]model.Expr, 0, len(cs))
	for _, e := range cs {
		if model.ContainsHighLevel(e) {
			top.HighLevel = append(top.HighLevel, e)
			for name, v := range model.FreeVariables(e) {
				top.Vars[name] = v
			}
			continue
		}
		normal = append(normal, e)
	}
	return normal
}

// HasHighLevel reports whether any frame currently holds a high-level
// constraint.
func (s *Stack) HasHighLevel() bool {
	for _, f := range s.frames {
		if len(f.HighLevel) > 0 {
			return true
		}
	}
	return false
}

// AllHighLevel flattens every frame's high-level constraints, root to top.
func (s *Stack) AllHighLevel() []model.Expr {
	var all []model.Expr
	for _, f := range s.frames {
		all = append(all, f.HighLevel...)
	}
	return all
}

// ReplaceAllHighLevel writes back the result of pruning AllHighLevel(): the
// simplifier's redundancy pruning (spec §4.2) rewrites the current path's
// constraints, which span every still-live frame, not just the top one.
// pruned must have come from FilterRedundantUnreachableExpressions(AllHighLevel()),
// so it has exactly one output per input, in the same root-to-top,
// frame-by-frame order AllHighLevel produced; this redistributes each
// frame's share back into that frame.
func (s *Stack) ReplaceAllHighLevel(pruned []model.Expr) {
	i := 0
	for _, f := range s.frames {
		n := len(f.HighLevel)
		f.HighLevel = append([]model.Expr(nil), pruned[i:i+n]...)
		i += n
	}
}
