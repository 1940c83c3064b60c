// Package config loads the hybrid solving layer's tunables: built-in
// defaults, overridden by environment variables, overridden again by an
// optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/concolic/internal/concolic/heap"
	"github.com/funvibe/concolic/internal/concolic/sourcectx"
)

// SolverServiceConfig holds the oracle client's network settings.
type SolverServiceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DispatchConfig holds C8's optional inclusion filter.
type DispatchConfig struct {
	FilterEnabled bool     `yaml:"filter_enabled"`
	Packages      []string `yaml:"packages"`
}

// Config is the complete set of tunables threaded through C3/C4/C5/C8.
type Config struct {
	SolverService SolverServiceConfig `yaml:"solver_service"`
	Heap          heap.Config         `yaml:"-"`
	Source        sourcectx.Config    `yaml:"-"`
	Dispatch      DispatchConfig      `yaml:"dispatch"`

	// yamlHeap/yamlSource mirror heap.Config/sourcectx.Config in
	// YAML-friendly shape; heap.Config.IrrelevantFields is a set, which
	// yaml.v3 cannot unmarshal directly into, and the two packages'
	// structs aren't annotated with yaml tags since they're not meant to
	// depend on this package.
	yamlHeap   yamlHeapConfig   `yaml:"heap"`
	yamlSource yamlSourceConfig `yaml:"source_context"`
}

type yamlHeapConfig struct {
	MaxDepth         int      `yaml:"max_depth"`
	MaxObjects       int      `yaml:"max_objects"`
	IrrelevantFields []string `yaml:"irrelevant_fields"`
}

type yamlSourceConfig struct {
	ContextLines          int  `yaml:"context_lines"`
	IncludeFullClass      bool `yaml:"include_full_class"`
	MaxMethodSourceLength int  `yaml:"max_method_source_length"`
	MaxClassSourceLength  int  `yaml:"max_class_source_length"`
	MaxRelatedClassLength int  `yaml:"max_related_class_length"`
	NumberLines           bool `yaml:"number_lines"`
}

// Default returns the built-in defaults, matching spec §6 and C3/C4's own
// DefaultConfig functions.
func Default() Config {
	return Config{
		SolverService: SolverServiceConfig{URL: "http://127.0.0.1:8000/solve", Timeout: 60 * time.Second},
		Heap:          heap.DefaultConfig(),
		Source:        sourcectx.DefaultConfig(),
		Dispatch:      DispatchConfig{},
	}
}

// FromEnv applies SERVICE_URL / TIMEOUT_SECONDS overrides on top of cfg, per
// spec §4.5.
func FromEnv(cfg Config) Config {
	if url := os.Getenv("SERVICE_URL"); url != "" {
		cfg.SolverService.URL = url
	}
	if raw := os.Getenv("TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.SolverService.Timeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

// Load builds the effective configuration: defaults, then environment
// variables, then path's contents if path is non-empty and the file
// exists. A missing path is not an error (an override file is optional);
// a present-but-malformed file is.
func Load(path string) (Config, error) {
	cfg := FromEnv(Default())
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg.yamlHeap = toYAMLHeap(cfg.Heap)
	cfg.yamlSource = toYAMLSource(cfg.Source)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	// yaml.v3 skips unexported fields, so the heap and source_context
	// sections are decoded through an overlay pointing at the mirrors.
	overlay := struct {
		Heap   *yamlHeapConfig   `yaml:"heap"`
		Source *yamlSourceConfig `yaml:"source_context"`
	}{Heap: &cfg.yamlHeap, Source: &cfg.yamlSource}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Heap = fromYAMLHeap(cfg.yamlHeap)
	cfg.Source = fromYAMLSource(cfg.yamlSource)
	return cfg, nil
}

func toYAMLHeap(c heap.Config) yamlHeapConfig {
	fields := make([]string, 0, len(c.IrrelevantFields))
	for name := range c.IrrelevantFields {
		fields = append(fields, name)
	}
	return yamlHeapConfig{MaxDepth: c.MaxDepth, MaxObjects: c.MaxObjects, IrrelevantFields: fields}
}

func fromYAMLHeap(y yamlHeapConfig) heap.Config {
	fields := make(map[string]bool, len(y.IrrelevantFields))
	for _, name := range y.IrrelevantFields {
		fields[name] = true
	}
	return heap.Config{MaxDepth: y.MaxDepth, MaxObjects: y.MaxObjects, IrrelevantFields: fields}
}

func toYAMLSource(c sourcectx.Config) yamlSourceConfig {
	return yamlSourceConfig{
		ContextLines:          c.ContextLines,
		IncludeFullClass:      c.IncludeFullClass,
		MaxMethodSourceLength: c.MaxMethodSourceLength,
		MaxClassSourceLength:  c.MaxClassSourceLength,
		MaxRelatedClassLength: c.MaxRelatedClassLength,
		NumberLines:           c.NumberLines,
	}
}

func fromYAMLSource(y yamlSourceConfig) sourcectx.Config {
	return sourcectx.Config{
		ContextLines:          y.ContextLines,
		IncludeFullClass:      y.IncludeFullClass,
		MaxMethodSourceLength: y.MaxMethodSourceLength,
		MaxClassSourceLength:  y.MaxClassSourceLength,
		MaxRelatedClassLength: y.MaxRelatedClassLength,
		NumberLines:           y.NumberLines,
	}
}
