package autodisc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/iter"
	"github.com/bt2go/bt2/plugin"
)

func stubIterInit(self *component.Component, out *component.Port) (*iter.Iterator, error) { return nil, nil }

func sourceClassWithWeight(t *testing.T, name string, weight float64, group *string) *component.Class {
	t.Helper()
	query := func(class *component.Class, object string, params bt2.Value, interrupter component.Interrupter) (bt2.Value, error) {
		if weight < 0 {
			return bt2.NewUnsignedInt(0), nil
		}
		if group == nil {
			return bt2.NewReal(weight), nil
		}
		m := bt2.NewMap()
		m.MapSet("weight", bt2.NewReal(weight))
		m.MapSet("group", bt2.NewString(*group))
		return m, nil
	}
	class, err := component.NewClass(component.KindSource, name, "", "", component.Methods{
		MessageIteratorInit: stubIterInit,
		Query:               query,
	})
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	return class
}

func TestDiscoverWeightedWinner(t *testing.T) {
	r := plugin.New()
	r.Register("utils", sourceClassWithWeight(t, "low", 0.2, nil))
	r.Register("utils", sourceClassWithWeight(t, "high", 0.8, nil))
	r.Register("utils", sourceClassWithWeight(t, "mid", 0.5, nil))

	dir := t.TempDir()

	results, err := Discover(context.Background(), r, []string{dir}, "", "", nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].SourceClass != "high" {
		t.Fatalf("winner = %q, want %q", results[0].SourceClass, "high")
	}
	if len(results[0].Inputs) != 1 || results[0].Inputs[0] != dir {
		t.Fatalf("Inputs = %v, want [%s]", results[0].Inputs, dir)
	}
}

func TestDiscoverGroupsCoalesce(t *testing.T) {
	r := plugin.New()
	group := "mygroup"
	r.Register("utils", sourceClassWithWeight(t, "grouped", 0.9, &group))

	dirA := t.TempDir()
	dirB := t.TempDir()

	results, err := Discover(context.Background(), r, []string{dirA, dirB}, "", "", nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1 (inputs should coalesce by group)", len(results))
	}
	if len(results[0].Inputs) != 2 {
		t.Fatalf("Inputs = %v, want 2 entries", results[0].Inputs)
	}
	if len(results[0].OriginalInputIndices) != 2 || results[0].OriginalInputIndices[0] != 0 || results[0].OriginalInputIndices[1] != 1 {
		t.Fatalf("OriginalInputIndices = %v, want [0 1]", results[0].OriginalInputIndices)
	}
}

func TestDiscoverRecursesIntoDirectory(t *testing.T) {
	r := plugin.New()
	// Claims regular files only, so neither the string pass nor the
	// directory query claims the top-level input.
	fileOnly := func(class *component.Class, object string, params bt2.Value, interrupter component.Interrupter) (bt2.Value, error) {
		if tv, ok := params.MapGet("type"); ok {
			if typ, _ := tv.AsString(); typ == string(SupportInfoTypeFile) {
				return bt2.NewReal(0.7), nil
			}
		}
		return bt2.NewReal(0), nil
	}
	class, err := component.NewClass(component.KindSource, "filesrc", "", "", component.Methods{
		MessageIteratorInit: stubIterInit,
		Query:               fileOnly,
	})
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	r.Register("utils", class)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("y"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	results, err := Discover(context.Background(), r, []string{dir}, "", "", nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if len(results[0].Inputs) != 2 {
		t.Fatalf("Inputs = %v, want 2 recursed file matches", results[0].Inputs)
	}
	for _, idx := range results[0].OriginalInputIndices {
		if idx != 0 {
			t.Fatalf("OriginalInputIndices = %v, want all 0 (single top-level dir input)", results[0].OriginalInputIndices)
		}
	}
}

func TestDiscoverRejectsOutOfRangeWeight(t *testing.T) {
	r := plugin.New()
	r.Register("utils", sourceClassWithWeight(t, "bogus", 1.5, nil))

	dir := t.TempDir()
	results, err := Discover(context.Background(), r, []string{dir}, "", "", nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("len(results) = %d, want 0 (out-of-range weight must be rejected)", len(results))
	}
}

func TestDiscoverIdempotent(t *testing.T) {
	r := plugin.New()
	r.Register("utils", sourceClassWithWeight(t, "low", 0.2, nil))
	r.Register("utils", sourceClassWithWeight(t, "high", 0.8, nil))

	dir := t.TempDir()

	a, err := Discover(context.Background(), r, []string{dir}, "", "", nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	b, err := Discover(context.Background(), r, []string{dir}, "", "", nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	SortResultsForTest(a)
	SortResultsForTest(b)
	if len(a) != len(b) || len(a) != 1 || a[0].SourceClass != b[0].SourceClass {
		t.Fatalf("Discover is not idempotent: %v vs %v", a, b)
	}
}
