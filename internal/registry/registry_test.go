package registry

import (
	"testing"

	"hoteval/internal/binding"
	"hoteval/internal/value"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test registry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestStoreAndLoadRoundTrip(t *testing.T) {
	r := openTestRegistry(t)

	table := binding.New()
	if err := table.AddVariable("x", value.I32); err != nil {
		t.Fatalf("AddVariable failed: %v", err)
	}
	if err := binding.AddConst(table, "limit", int32(100)); err != nil {
		t.Fatalf("AddConst failed: %v", err)
	}

	desc := Describe(table)
	if err := r.Store("clamp", "x < limit ? x : limit", desc); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	entry, err := r.Load("clamp")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if entry.Source != "x < limit ? x : limit" {
		t.Errorf("unexpected source: %q", entry.Source)
	}
	if len(entry.Table.Variables) != 1 || entry.Table.Variables[0].Name != "x" {
		t.Errorf("unexpected variables: %+v", entry.Table.Variables)
	}
	if len(entry.Table.Consts) != 1 || entry.Table.Consts[0].Name != "limit" {
		t.Errorf("unexpected consts: %+v", entry.Table.Consts)
	}

	rebuilt := binding.New()
	if err := entry.Table.Apply(rebuilt); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	b, ok := rebuilt.GetBinding("limit")
	if !ok || b.ConstValue.I32() != 100 {
		t.Errorf("expected limit=100 after Apply, got %+v", b)
	}
}

func TestStoreAndLoadNegativeConst(t *testing.T) {
	r := openTestRegistry(t)

	table := binding.New()
	if err := binding.AddConst(table, "offset", int32(-5)); err != nil {
		t.Fatalf("AddConst failed: %v", err)
	}

	if err := r.Store("neg", "offset", Describe(table)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	entry, err := r.Load("neg")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rebuilt := binding.New()
	if err := entry.Table.Apply(rebuilt); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	b, ok := rebuilt.GetBinding("offset")
	if !ok || b.ConstValue.I32() != -5 {
		t.Errorf("expected offset=-5 after round-trip, got %+v", b)
	}
}

func TestLoadMissingEntry(t *testing.T) {
	r := openTestRegistry(t)
	if _, err := r.Load("does-not-exist"); err == nil {
		t.Error("expected Load to fail for a missing entry")
	}
}

func TestStoreOverwritesExisting(t *testing.T) {
	r := openTestRegistry(t)
	if err := r.Store("e", "1 + 1", TableDescription{}); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	if err := r.Store("e", "2 + 2", TableDescription{}); err != nil {
		t.Fatalf("second Store failed: %v", err)
	}
	entry, err := r.Load("e")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if entry.Source != "2 + 2" {
		t.Errorf("expected overwrite to win, got %q", entry.Source)
	}
}

func TestListAndDelete(t *testing.T) {
	r := openTestRegistry(t)
	r.Store("a", "1", TableDescription{})
	r.Store("b", "2", TableDescription{})

	names, err := r.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(names))
	}

	if err := r.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := r.Load("a"); err == nil {
		t.Error("expected Load to fail after Delete")
	}
}
