package main

import (
	"context"
	"fmt"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/bt2go/bt2"
	"github.com/bt2go/bt2/component"
	"github.com/bt2go/bt2/graph"
)

// printCtfMetadataConfig and printLTTngLiveSessionsConfig are thin query
// wrappers: they resolve --component and call a fixed query object against
// it. Since no CTF or LTTng-live source class ships with this core (those
// source classes are a non-goal; see DESIGN.md), running either against one
// of the bundled plugins/utils/* classes fails with graph.Execute's
// "does not support queries" error, since none of them has a Query method.
type printCtfMetadataConfig struct {
	*rootConfig
	Component string `ff:" long: component | placeholder: PLUGIN.CLASS | usage: component class to query for metadata-info "`
}

func (cfg *printCtfMetadataConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{LongName: "component", Value: ffval.NewValue(&cfg.Component), Usage: "component class to query for metadata-info", Placeholder: "PLUGIN.CLASS"})
}

func (cfg *printCtfMetadataConfig) Exec(ctx context.Context, args []string) error {
	return runFixedQuery(cfg.rootConfig, cfg.Component, graph.QueryObjectMetadataInfo)
}

type printLTTngLiveSessionsConfig struct {
	*rootConfig
	Component string `ff:" long: component | placeholder: PLUGIN.CLASS | usage: component class to query for sessions "`
}

func (cfg *printLTTngLiveSessionsConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{LongName: "component", Value: ffval.NewValue(&cfg.Component), Usage: "component class to query for sessions", Placeholder: "PLUGIN.CLASS"})
}

func (cfg *printLTTngLiveSessionsConfig) Exec(ctx context.Context, args []string) error {
	return runFixedQuery(cfg.rootConfig, cfg.Component, "sessions")
}

func runFixedQuery(cfg *rootConfig, componentSpec, object string) error {
	if componentSpec == "" {
		return fmt.Errorf("--component is required")
	}
	pluginName, className, err := splitPluginClass(componentSpec)
	if err != nil {
		return err
	}
	for _, kind := range []component.Kind{component.KindSource, component.KindFilter, component.KindSink} {
		if c, ok := cfg.registry.Lookup(pluginName, kind, className); ok {
			result, err := graph.Execute(c, object, bt2.NewNull(), nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cfg.stdout, result.String())
			return nil
		}
	}
	return fmt.Errorf("no registered component class %s.%s", pluginName, className)
}
