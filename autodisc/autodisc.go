// Package autodisc implements auto-source discovery (spec.md §4.6): the
// support-info query protocol and the weighted, grouping resolver that
// turns user-supplied input strings into a set of source component
// instances.
//
// Grounded on
// _examples/original_source/src/cli/babeltrace2-cfg-src-auto-disc.c's
// auto_source_discovery_add (grouping by (plugin, class, group) key) and
// convert_weight_value (the [0,1] weight range check).
package autodisc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/graph"
	"github.com/bt2go/bt2/plugin"
)

// SupportInfoType is the closed set of "type" params passed in a
// support-info query.
type SupportInfoType string

const (
	SupportInfoTypeString    SupportInfoType = "string"
	SupportInfoTypeFile      SupportInfoType = "file"
	SupportInfoTypeDirectory SupportInfoType = "directory"
)

// Result groups one or more user inputs that resolved to the same
// (plugin, source class, group) triple, intended to be materialized as a
// single source component instance by the CLI.
type Result struct {
	Plugin      string
	SourceClass string

	// Group is nil when the winning support-info response carried no group
	// (or an explicit null group, which is the same "no group" sentinel per
	// spec.md §4.6) -- distinct from any non-nil string group, including "".
	Group *string

	Inputs               []string
	OriginalInputIndices []int
}

func (r Result) groupKey() string {
	if r.Group == nil {
		return "\x00nogroup"
	}
	return "g:" + *r.Group
}

func (r Result) resultKey() string {
	return r.Plugin + "\x00" + r.SourceClass + "\x00" + r.groupKey()
}

type match struct {
	plugin string
	class  string
	group  *string
	input  string
}

// Discover runs auto-source discovery over inputs against every source
// class classes exposes, restricted to pluginFilter/classFilter when
// non-empty. interrupter may be nil.
func Discover(ctx context.Context, classes *plugin.Registry, inputs []string, pluginFilter, classFilter string, interrupter *graph.Interrupter) ([]Result, error) {
	candidates := classes.ClassesByKind(component.KindSource)
	if pluginFilter != "" {
		candidates = filterEntries(candidates, func(e plugin.Entry) bool { return e.Plugin == pluginFilter })
	}
	if classFilter != "" {
		candidates = filterEntries(candidates, func(e plugin.Entry) bool { return e.Class.Name() == classFilter })
	}

	order := make([]string, 0)
	results := make(map[string]*Result)

	for idx, input := range inputs {
		matches, err := discoverForInput(ctx, candidates, input, interrupter)
		if err != nil {
			return nil, fmt.Errorf("bt2/autodisc: input %q: %w", input, err)
		}
		for _, m := range matches {
			r := Result{Plugin: m.plugin, SourceClass: m.class, Group: m.group}
			key := r.resultKey()
			existing, ok := results[key]
			if !ok {
				existing = &r
				results[key] = existing
				order = append(order, key)
			}
			existing.Inputs = append(existing.Inputs, m.input)
			existing.OriginalInputIndices = append(existing.OriginalInputIndices, idx)
		}
	}

	out := make([]Result, len(order))
	for i, key := range order {
		out[i] = *results[key]
	}
	return out, nil
}

func filterEntries(entries []plugin.Entry, keep func(plugin.Entry) bool) []plugin.Entry {
	out := make([]plugin.Entry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// discoverForInput runs the string pass, then (only if it found nothing)
// the path pass, for a single user input.
func discoverForInput(ctx context.Context, candidates []plugin.Entry, input string, interrupter *graph.Interrupter) ([]match, error) {
	m, err := queryWinner(ctx, candidates, input, SupportInfoTypeString, interrupter)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return []match{{plugin: m.plugin, class: m.class, group: m.group, input: input}}, nil
	}
	return pathPass(ctx, candidates, input, interrupter)
}

// pathPass implements the recursive file/directory half of §4.6: it
// queries by type=file or type=directory, and for an unclaimed directory
// recurses into each entry, applying this same path pass (never the
// string pass) to it. Access-denied errors on recursion are non-fatal and
// just skip that subtree; symlink loops are the caller's problem, per
// spec.md §4.6.
func pathPass(ctx context.Context, candidates []plugin.Entry, input string, interrupter *graph.Interrupter) ([]match, error) {
	info, err := os.Stat(input)
	if err != nil {
		// Not a path on disk at all: an arbitrary string the string pass
		// already failed to claim. No match.
		return nil, nil
	}

	if info.Mode().IsRegular() {
		m, err := queryWinner(ctx, candidates, input, SupportInfoTypeFile, interrupter)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, nil
		}
		return []match{{plugin: m.plugin, class: m.class, group: m.group, input: input}}, nil
	}

	if !info.IsDir() {
		return nil, nil
	}

	m, err := queryWinner(ctx, candidates, input, SupportInfoTypeDirectory, interrupter)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return []match{{plugin: m.plugin, class: m.class, group: m.group, input: input}}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, nil
		}
		return nil, err
	}

	var all []match
	for _, entry := range entries {
		child := filepath.Join(input, entry.Name())
		sub, err := pathPass(ctx, candidates, child, interrupter)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				continue
			}
			return nil, err
		}
		all = append(all, sub...)
	}
	return all, nil
}

// winner is an accepted support-info response: a weight in [0, 1] and an
// optional group.
type winner struct {
	plugin string
	class  string
	group  *string
	weight float64
}

// queryWinner runs a support-info query of the given type against input
// across every candidate, fanning the calls out with an errgroup (ties are
// still broken by encounter order over the original candidates slice, not
// goroutine completion order, preserving the idempotence/grouping
// invariants of spec.md §8).
func queryWinner(ctx context.Context, candidates []plugin.Entry, input string, typ SupportInfoType, interrupter *graph.Interrupter) (*winner, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	params := bt2.NewMap()
	params.MapSet("input", bt2.NewString(input))
	params.MapSet("type", bt2.NewString(string(typ)))

	responses := make([]bt2.Value, len(candidates))
	haveResponse := make([]bool, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	for i, entry := range candidates {
		i, entry := i, entry
		g.Go(func() error {
			if entry.Class.Methods().Query == nil {
				return nil
			}
			result, err := graph.Execute(entry.Class, graph.QueryObjectSupportInfo, params, interrupter)
			if err != nil {
				// A class that errors on support-info is treated as a
				// non-candidate for this input, not a fatal discovery
				// failure: a sibling plugin should still get a chance.
				return nil
			}
			responses[i] = result
			haveResponse[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *winner
	for i, entry := range candidates {
		if !haveResponse[i] {
			continue
		}
		weight, group, ok := parseSupportInfoResponse(responses[i])
		if !ok {
			continue
		}
		if weight < 0 || weight > 1 {
			continue // out-of-range weight: warning-worthy, treated as rejection
		}
		if weight == 0 {
			continue
		}
		if best == nil || weight > best.weight {
			best = &winner{plugin: entry.Plugin, class: entry.Class.Name(), group: group, weight: weight}
		}
	}
	return best, nil
}

// parseSupportInfoResponse accepts either a bare number (the weight) or a
// map {weight: real|int, group?: string|null}, per spec.md §4.6.
func parseSupportInfoResponse(v bt2.Value) (weight float64, group *string, ok bool) {
	if w, ok := numericValue(v); ok {
		return w, nil, true
	}
	if v.Kind() != bt2.ValueMap {
		return 0, nil, false
	}
	wv, ok := v.MapGet("weight")
	if !ok {
		return 0, nil, false
	}
	weight, ok = numericValue(wv)
	if !ok {
		return 0, nil, false
	}
	if gv, ok := v.MapGet("group"); ok && gv.Kind() == bt2.ValueString {
		g, _ := gv.AsString()
		group = &g
	}
	return weight, group, true
}

func numericValue(v bt2.Value) (float64, bool) {
	switch v.Kind() {
	case bt2.ValueReal:
		f, _ := v.AsReal()
		return f, true
	case bt2.ValueUnsignedInt:
		u, _ := v.AsUnsignedInt()
		return float64(u), true
	case bt2.ValueSignedInt:
		i, _ := v.AsSignedInt()
		return float64(i), true
	default:
		return 0, false
	}
}

// SortResultsForTest orders results deterministically (by plugin, class,
// group, first input) -- exported for table-driven tests that compare
// discovery output as a bag (spec.md §8 "auto-discovery idempotence").
func SortResultsForTest(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Plugin != b.Plugin {
			return a.Plugin < b.Plugin
		}
		if a.SourceClass != b.SourceClass {
			return a.SourceClass < b.SourceClass
		}
		if a.groupKey() != b.groupKey() {
			return a.groupKey() < b.groupKey()
		}
		return len(a.Inputs) > 0 && len(b.Inputs) > 0 && a.Inputs[0] < b.Inputs[0]
	})
}
