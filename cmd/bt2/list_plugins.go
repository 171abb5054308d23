package main

import (
	"context"
	"fmt"

	"github.com/peterbourgon/ff/v4"
)

type listPluginsConfig struct {
	*rootConfig
}

func (cfg *listPluginsConfig) register(fs *ff.FlagSet) {}

func (cfg *listPluginsConfig) Exec(ctx context.Context, args []string) error {
	for _, pluginName := range cfg.registry.Plugins() {
		fmt.Fprintf(cfg.stdout, "%s:\n", pluginName)
		for _, entry := range cfg.registry.ClassesOf(pluginName) {
			fmt.Fprintf(cfg.stdout, "  %s (%s): %s\n", entry.Class.Name(), entry.Class.Kind(), entry.Class.Description())
		}
	}
	return nil
}
