package sessionlog

import (
	"path/filepath"
	"testing"

	"github.com/funvibe/concolic/internal/concolic/oracle"
)

func TestRecordAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.sqlite")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	store.Record(oracle.Request{Constraints: []string{"IsExactType(a, LDog;)"}, Hint: "solve-1"}, oracle.ResultSAT)
	store.Record(oracle.Request{Constraints: []string{"IsExactType(a, LCat;)"}, Hint: "solve-2"}, oracle.ResultUNSAT)

	entries, err := store.All()
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 recorded entries, got %d", len(entries))
	}
	if entries[0].Hint != "solve-1" || entries[0].Result != "SAT" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Hint != "solve-2" || entries[1].Result != "UNSAT" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestReopenPreservesPriorEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.sqlite")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	store.Record(oracle.Request{Hint: "solve-1"}, oracle.ResultSAT)
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.All()
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected schema and data to persist across reopen, got %d entries", len(entries))
	}
}
