// Package sourcectx implements the source-context collector (C4): given
// the method under analysis and the classes mentioned in constraints, it
// extracts annotated source excerpts for the oracle.
package sourcectx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/funvibe/concolic/internal/concolic/model"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
)

// Config holds C4's tunables (spec §6 Configuration).
type Config struct {
	ContextLines          int
	IncludeFullClass      bool
	MaxMethodSourceLength int
	MaxClassSourceLength  int
	MaxRelatedClassLength int
	NumberLines           bool
}

// DefaultConfig gives reasonable, conservative caps.
func DefaultConfig() Config {
	return Config{
		ContextLines:          3,
		IncludeFullClass:      false,
		MaxMethodSourceLength: 4000,
		MaxClassSourceLength:  8000,
		MaxRelatedClassLength: 2000,
		NumberLines:           true,
	}
}

// LineNumbers is the method_start/method_end pair reported alongside the
// excerpt.
type LineNumbers struct {
	MethodStart int
	MethodEnd   int
}

// RelatedClass is a trimmed class-definition block for a class referenced
// by a constraint or a parameter type.
type RelatedClass struct {
	Name   string
	Source string
}

// Context is C4's output (spec §4.4).
type Context struct {
	MethodName     string
	Signature      string
	FQN            string
	ClassName      string
	SimpleName     string
	MethodSource   string
	ClassSource    string // empty unless IncludeFullClass
	LineNumbers    LineNumbers
	SourceFile     string
	RelatedClasses []RelatedClass
}

// SourceIndex resolves a class's full source text, keyed by class name or
// source file basename. Satisfied by whatever owns the parsed program;
// kept as a tiny interface so the collector has no frontend dependency.
type SourceIndex interface {
	// SourceFor returns the full text of the file associated with
	// className, and ok=false if unknown.
	SourceFor(className string) (text string, ok bool)
}

// descriptorPattern matches JVM-style descriptor tokens "L<qualified/name>;"
// embedded in a stringified constraint, per spec §4.4.
var descriptorPattern = regexp.MustCompile(`L[\w/$]+;`)

// cache avoids re-reading/re-splitting the same class's source repeatedly
// within one Collector's lifetime.
type cache struct {
	lines map[string][]string
}

// Collector implements C4 against a SourceIndex and a vmadapter.TypeUniverse
// for related-class resolution.
type Collector struct {
	cfg      Config
	index    SourceIndex
	universe vmadapter.TypeUniverse
	cache    cache
}

// NewCollector builds a Collector.
func NewCollector(cfg Config, index SourceIndex, universe vmadapter.TypeUniverse) *Collector {
	return &Collector{cfg: cfg, index: index, universe: universe, cache: cache{lines: make(map[string][]string)}}
}

func (c *Collector) linesOf(className string) ([]string, bool) {
	if ls, ok := c.cache.lines[className]; ok {
		return ls, true
	}
	text, ok := c.index.SourceFor(className)
	if !ok {
		return nil, false
	}
	ls := strings.Split(text, "\n")
	c.cache.lines[className] = ls
	return ls, true
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

func numbered(lines []string, startLine int) string {
	var b strings.Builder
	for i, l := range lines {
		b.WriteString(strconv.Itoa(startLine + i))
		b.WriteString(": ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Collect resolves method's source excerpt (falling back to
// fallbackMethod, the top stack frame's method, when method.FQN is
// empty), plus related classes mentioned in constraints and
// parameterTypes.
func (c *Collector) Collect(method vmadapter.MethodRef, fallbackMethod *vmadapter.MethodRef, constraints []model.Expr, parameterTypes map[string]string) Context {
	m := method
	if m.FQN == "" && fallbackMethod != nil {
		m = *fallbackMethod
	}

	ctx := Context{
		MethodName: m.Name,
		Signature:  m.Signature,
		FQN:        m.FQN,
		ClassName:  m.ClassName,
		SimpleName: simpleName(m.ClassName),
		SourceFile: m.SourceFile,
		LineNumbers: LineNumbers{
			MethodStart: m.StartLine,
			MethodEnd:   m.EndLine,
		},
	}

	if lines, ok := c.linesOf(m.ClassName); ok {
		lo := max(0, m.StartLine-c.cfg.ContextLines-1)
		hi := min(len(lines), m.EndLine+c.cfg.ContextLines)
		if lo < hi {
			excerpt := lines[lo:hi]
			var src string
			if c.cfg.NumberLines {
				src = numbered(excerpt, lo+1)
			} else {
				src = strings.Join(excerpt, "\n")
			}
			ctx.MethodSource = truncate(src, c.cfg.MaxMethodSourceLength)
		}
		if c.cfg.IncludeFullClass {
			ctx.ClassSource = truncate(strings.Join(lines, "\n"), c.cfg.MaxClassSourceLength)
		}
	}

	ctx.RelatedClasses = c.relatedClasses(constraints, parameterTypes)
	return ctx
}

func simpleName(className string) string {
	if idx := strings.LastIndex(className, "."); idx >= 0 {
		return className[idx+1:]
	}
	return className
}

func descriptorToName(desc string) string {
	return strings.TrimSuffix(strings.TrimPrefix(desc, "L"), ";")
}

func (c *Collector) relatedClasses(constraints []model.Expr, parameterTypes map[string]string) []RelatedClass {
	names := make(map[string]bool)
	for _, e := range constraints {
		for _, tok := range descriptorPattern.FindAllString(e.String(), -1) {
			names[descriptorToName(tok)] = true
		}
	}
	for _, declared := range parameterTypes {
		names["L"+declared+";"] = true
		names[declared] = true
	}
	// normalize: strip the L...; wrapper uniformly
	clean := make(map[string]bool)
	for n := range names {
		clean[descriptorToName(n)] = true
	}

	var out []RelatedClass
	for name := range clean {
		lines, ok := c.linesOf(name)
		if !ok {
			continue
		}
		block := extractClassBlock(lines, name)
		if block == "" {
			continue
		}
		out = append(out, RelatedClass{Name: name, Source: truncate(block, c.cfg.MaxRelatedClassLength)})
	}
	return out
}

// extractClassBlock finds "class <name>" (or "type <name>" in Funxy's own
// surface syntax) and returns the block up to its matching closing brace,
// capped at 200 lines.
func extractClassBlock(lines []string, name string) string {
	start := -1
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.Contains(trimmed, "class "+name) || strings.Contains(trimmed, "type "+name) {
			start = i
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	opened := false
	end := len(lines) - 1
	for i := start; i < len(lines) && i < start+200; i++ {
		for _, r := range lines[i] {
			if r == '{' {
				depth++
				opened = true
			} else if r == '}' {
				depth--
			}
		}
		if opened && depth <= 0 {
			end = i
			break
		}
	}
	if end-start >= 200 {
		end = start + 199
	}
	return strings.Join(lines[start:end+1], "\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
