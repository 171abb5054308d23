package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/oklog/run"
	"github.com/oklog/ulid/v2"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/autodisc"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/graph"
	"github.com/bt2go/bt2/internal/errchain"
)

// graphPoolCapacity bounds each hot-kind message pool a converted graph
// allocates.
const graphPoolCapacity = 256

type convertConfig struct {
	*rootConfig

	Sources []string `ff:" long: source | placeholder: PLUGIN.CLASS[:PARAMS] | usage: explicit source component (repeatable) "`
	Filters []string `ff:" long: filter | placeholder: PLUGIN.CLASS[:PARAMS] | usage: explicit filter component, chained in order (repeatable) "`
	Sink    string   `ff:" long: sink | default: utils.dummy | placeholder: PLUGIN.CLASS[:PARAMS] | usage: sink component "`

	Inputs       []string `ff:" short: i | long: input | placeholder: PATH | usage: input to resolve via auto-source-discovery (repeatable) "`
	PluginFilter string   `ff:"          | long: plugin | placeholder: NAME | usage: restrict auto-discovery to this plugin "`
	ClassFilter  string   `ff:"          | long: component-class | placeholder: NAME | usage: restrict auto-discovery to this source class "`

	Begin string `ff:" long: begin | placeholder: TS | usage: drop events before this timestamp ([-]seconds.nanoseconds); requires --end "`
	End   string `ff:" long: end | placeholder: TS | usage: drop events after this timestamp ([-]seconds.nanoseconds); requires --begin "`
}

func (cfg *convertConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{LongName: "source", Value: ffval.NewUniqueList(&cfg.Sources), Usage: "explicit source component (repeatable)", Placeholder: "PLUGIN.CLASS[:PARAMS]"})
	fs.AddFlag(ff.FlagConfig{LongName: "filter", Value: ffval.NewUniqueList(&cfg.Filters), Usage: "explicit filter component, chained in order (repeatable)", Placeholder: "PLUGIN.CLASS[:PARAMS]"})
	fs.AddFlag(ff.FlagConfig{LongName: "sink", Value: ffval.NewValueDefault(&cfg.Sink, "utils.dummy"), Usage: "sink component", Placeholder: "PLUGIN.CLASS[:PARAMS]"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'i', LongName: "input", Value: ffval.NewUniqueList(&cfg.Inputs), Usage: "input to resolve via auto-source-discovery (repeatable)", Placeholder: "PATH"})
	fs.AddFlag(ff.FlagConfig{LongName: "plugin", Value: ffval.NewValue(&cfg.PluginFilter), Usage: "restrict auto-discovery to this plugin", Placeholder: "NAME"})
	fs.AddFlag(ff.FlagConfig{LongName: "component-class", Value: ffval.NewValue(&cfg.ClassFilter), Usage: "restrict auto-discovery to this source class", Placeholder: "NAME"})
	fs.AddFlag(ff.FlagConfig{LongName: "begin", Value: ffval.NewValue(&cfg.Begin), Usage: "drop events before this timestamp ([-]seconds.nanoseconds); requires --end", Placeholder: "TS"})
	fs.AddFlag(ff.FlagConfig{LongName: "end", Value: ffval.NewValue(&cfg.End), Usage: "drop events after this timestamp ([-]seconds.nanoseconds); requires --begin", Placeholder: "TS"})
}

func (cfg *convertConfig) Exec(ctx context.Context, args []string) error {
	if (cfg.Begin == "") != (cfg.End == "") {
		return fmt.Errorf("--begin and --end must be given together")
	}

	interrupter := graph.NewInterrupter()
	token := ulid.Make()
	g := graph.New(uint64(token.Time()), graphPoolCapacity)
	g.AddInterrupter(interrupter)

	if err := cfg.wireSources(ctx, g); err != nil {
		return err
	}
	sinkInput, err := cfg.wireFilters(g)
	if err != nil {
		return err
	}
	if err := cfg.wireSink(g, sinkInput); err != nil {
		return err
	}

	var runErr error
	var rg run.Group
	rg.Add(func() error {
		runErr = runGraph(g, uint64(cfg.RetryDurationUs))
		return runErr
	}, func(error) {
		interrupter.Set()
	})
	rg.Add(run.SignalHandler(ctx, osInterruptSignals()...))

	if err := rg.Run(); err != nil {
		var sigErr run.SignalError
		if errors.As(err, &sigErr) {
			return nil
		}
		if runErr != nil {
			return runErr
		}
		return err
	}
	return nil
}

// wireSources adds every explicitly-named --source component, then runs
// auto-discovery over --input and adds one source component per resulting
// group, each using the ULID-suffixed name the CLI makes up for it.
func (cfg *convertConfig) wireSources(ctx context.Context, g *graph.Graph) error {
	if len(cfg.Sources) == 0 && len(cfg.Inputs) == 0 {
		return fmt.Errorf("at least one --source or --input is required")
	}

	for i, spec := range cfg.Sources {
		pluginName, className, params, err := parseComponentSpec(spec)
		if err != nil {
			return err
		}
		class, ok := cfg.registry.Lookup(pluginName, component.KindSource, className)
		if !ok {
			return fmt.Errorf("--source %q: no registered source class %s.%s", spec, pluginName, className)
		}
		if _, err := g.AddSourceComponent(class, fmt.Sprintf("source-%d", i), params); err != nil {
			return fmt.Errorf("--source %q: %w", spec, err)
		}
	}

	if len(cfg.Inputs) == 0 {
		return nil
	}

	results, err := autodisc.Discover(ctx, cfg.registry, cfg.Inputs, cfg.PluginFilter, cfg.ClassFilter, nil)
	if err != nil {
		return fmt.Errorf("auto-source-discovery: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("auto-source-discovery found no matching source class for any of %v", cfg.Inputs)
	}
	for _, r := range results {
		class, ok := cfg.registry.Lookup(r.Plugin, component.KindSource, r.SourceClass)
		if !ok {
			return fmt.Errorf("internal: discovered class %s.%s vanished from the registry", r.Plugin, r.SourceClass)
		}
		params := bt2.NewMap()
		inputs := make([]bt2.Value, len(r.Inputs))
		for i, in := range r.Inputs {
			inputs[i] = bt2.NewString(in)
		}
		params.MapSet("inputs", bt2.NewArray(inputs...))
		name := fmt.Sprintf("%s-%s", r.SourceClass, ulid.Make().String())
		if _, err := g.AddSourceComponent(class, name, params); err != nil {
			return fmt.Errorf("discovered source %s.%s: %w", r.Plugin, r.SourceClass, err)
		}
	}
	return nil
}

// wireFilters adds every explicit --filter component in order, then (if
// --begin/--end were given) one trimmer at the end of the chain, connecting
// each source's sole output port to the first filter's input and chaining
// filters output-to-input. It returns the component/port the sink should
// connect from.
//
// This applies the same begin/end range to every source, a scoped-down
// stand-in for full stream-intersection mode (spec.md §6), which computes a
// distinct per-source range from each source's trace-info query result --
// not implementable here since no bundled source class produces real
// trace-info (see DESIGN.md).
func (cfg *convertConfig) wireFilters(g *graph.Graph) (*component.Port, error) {
	sources := sourceComponents(g)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no source components were added")
	}

	specs := append([]string(nil), cfg.Filters...)
	if cfg.Begin != "" {
		params := bt2.NewMap()
		params.MapSet("begin", bt2.NewString(cfg.Begin))
		params.MapSet("end", bt2.NewString(cfg.End))
		specs = append(specs, "utils.trimmer")
		return cfg.chainFilters(g, sources, specs, map[int]bt2.Value{len(specs) - 1: params})
	}
	return cfg.chainFilters(g, sources, specs, nil)
}

func (cfg *convertConfig) chainFilters(g *graph.Graph, sources []*component.Component, specs []string, overrideParams map[int]bt2.Value) (*component.Port, error) {
	upstream := make([]*component.Port, len(sources))
	for i, s := range sources {
		out, ok := s.OutputPortByName("out")
		if !ok {
			return nil, fmt.Errorf("source %q has no \"out\" port", s.Name())
		}
		upstream[i] = out
	}

	for fi, spec := range specs {
		pluginName, className, params, err := parseComponentSpec(spec)
		if err != nil {
			return nil, err
		}
		if override, ok := overrideParams[fi]; ok {
			params = override
		}
		class, ok := cfg.registry.Lookup(pluginName, component.KindFilter, className)
		if !ok {
			return nil, fmt.Errorf("--filter %q: no registered filter class %s.%s", spec, pluginName, className)
		}

		if len(upstream) == 1 {
			name := fmt.Sprintf("filter-%d", fi)
			filter, err := g.AddFilterComponent(class, name, params)
			if err != nil {
				return nil, fmt.Errorf("--filter %q: %w", spec, err)
			}
			in, ok := filter.InputPortByName("in")
			if !ok {
				return nil, fmt.Errorf("filter %q has no \"in\" port", name)
			}
			if _, err := g.ConnectPorts(upstream[0], in); err != nil {
				return nil, fmt.Errorf("connect %q: %w", name, err)
			}
			out, ok := filter.OutputPortByName("out")
			if !ok {
				return nil, fmt.Errorf("filter %q has no \"out\" port", name)
			}
			upstream = []*component.Port{out}
			continue
		}

		// Multiple sources feeding one filter spec: instantiate the filter
		// once per source, matching a fan-in-by-replication of the filter
		// stage (there is no muxer component in this core; see DESIGN.md).
		next := make([]*component.Port, len(upstream))
		for i, up := range upstream {
			name := fmt.Sprintf("filter-%d-%d", fi, i)
			filter, err := g.AddFilterComponent(class, name, params)
			if err != nil {
				return nil, fmt.Errorf("--filter %q: %w", spec, err)
			}
			in, ok := filter.InputPortByName("in")
			if !ok {
				return nil, fmt.Errorf("filter %q has no \"in\" port", name)
			}
			if _, err := g.ConnectPorts(up, in); err != nil {
				return nil, fmt.Errorf("connect %q: %w", name, err)
			}
			out, ok := filter.OutputPortByName("out")
			if !ok {
				return nil, fmt.Errorf("filter %q has no \"out\" port", name)
			}
			next[i] = out
		}
		upstream = next
	}

	if len(upstream) != 1 {
		return nil, fmt.Errorf("convert requires exactly one upstream port feeding the sink after filtering, got %d (this core has no muxer component; use exactly one --source or --input group, or chain a --filter that reduces to one)", len(upstream))
	}
	return upstream[0], nil
}

func (cfg *convertConfig) wireSink(g *graph.Graph, sinkInput *component.Port) error {
	pluginName, className, params, err := parseComponentSpec(cfg.Sink)
	if err != nil {
		return err
	}
	class, ok := cfg.registry.Lookup(pluginName, component.KindSink, className)
	if !ok {
		return fmt.Errorf("--sink %q: no registered sink class %s.%s", cfg.Sink, pluginName, className)
	}
	sink, err := g.AddSinkComponent(class, "sink", params)
	if err != nil {
		return fmt.Errorf("--sink %q: %w", cfg.Sink, err)
	}
	in, ok := sink.InputPortByName("in")
	if !ok {
		return fmt.Errorf("sink %q has no \"in\" port", sink.Name())
	}
	if _, err := g.ConnectPorts(sinkInput, in); err != nil {
		return fmt.Errorf("connect sink: %w", err)
	}
	return nil
}

func sourceComponents(g *graph.Graph) []*component.Component {
	var out []*component.Component
	for _, c := range g.Components() {
		if c.Class().Kind() == component.KindSource {
			out = append(out, c)
		}
	}
	return out
}

var errAgain = errors.New("bt2: graph step returned Again")

// runGraph drives the graph to completion, sleeping retryDurationUs between
// whole-step Again results via retry.Do instead of a bare time.Sleep loop
// (spec.md §6's "the CLI driver, on top, may usleep(retry_duration_us)
// between whole-graph Again results").
func runGraph(g *graph.Graph, retryDurationUs uint64) error {
	delay := time.Duration(retryDurationUs) * time.Microsecond
	for {
		status, err := stepWithRetry(g, delay)
		switch status {
		case errchain.End:
			return nil
		case errchain.Canceled:
			return fmt.Errorf("convert: canceled")
		case errchain.Error:
			return err
		}
		// Ok: keep driving.
	}
}

// stepWithRetry runs one graph.Consume step, retrying (with a fixed delay)
// for as long as it keeps returning Again.
func stepWithRetry(g *graph.Graph, delay time.Duration) (errchain.Status, error) {
	var status errchain.Status
	var stepErr error
	err := retry.Do(
		func() error {
			status, stepErr = g.Consume()
			if status == errchain.Again {
				return errAgain
			}
			return nil
		},
		retry.Attempts(0),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errAgain) }),
		retry.LastErrorOnly(true),
	)
	if err != nil && !errors.Is(err, errAgain) {
		return errchain.Error, err
	}
	return status, stepErr
}
