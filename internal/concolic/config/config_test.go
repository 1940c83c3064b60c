package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultMatchesComponentDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Heap.MaxDepth != 10 || cfg.Heap.MaxObjects != 100 {
		t.Fatalf("expected heap defaults to match C3's own DefaultConfig, got %+v", cfg.Heap)
	}
	if cfg.Source.ContextLines != 3 {
		t.Fatalf("expected source-context defaults to match C4's own DefaultConfig, got %+v", cfg.Source)
	}
	if cfg.SolverService.URL != "http://127.0.0.1:8000/solve" {
		t.Fatalf("unexpected default solver URL: %s", cfg.SolverService.URL)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVICE_URL", "http://oracle.internal:9001/solve")
	t.Setenv("TIMEOUT_SECONDS", "15")

	cfg := FromEnv(Default())
	if cfg.SolverService.URL != "http://oracle.internal:9001/solve" {
		t.Fatalf("expected SERVICE_URL override, got %s", cfg.SolverService.URL)
	}
	if cfg.SolverService.Timeout != 15*time.Second {
		t.Fatalf("expected TIMEOUT_SECONDS override, got %s", cfg.SolverService.Timeout)
	}
}

func TestLoadFileOverridesHeapAndDispatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "concolic.yaml")
	contents := `
heap:
  max_depth: 4
  max_objects: 25
  irrelevant_fields: ["cachedHash"]
dispatch:
  filter_enabled: true
  packages: ["com.example.*"]
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Heap.MaxDepth != 4 || cfg.Heap.MaxObjects != 25 {
		t.Fatalf("expected heap overrides applied, got %+v", cfg.Heap)
	}
	if !cfg.Heap.IrrelevantFields["cachedHash"] {
		t.Fatalf("expected cachedHash to be marked irrelevant")
	}
	if !cfg.Dispatch.FilterEnabled || len(cfg.Dispatch.Packages) != 1 {
		t.Fatalf("expected dispatch override applied, got %+v", cfg.Dispatch)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected a missing override file to be tolerated, got %v", err)
	}
	if cfg.Heap.MaxDepth != 10 {
		t.Fatalf("expected defaults when no override file present, got %+v", cfg.Heap)
	}
}
