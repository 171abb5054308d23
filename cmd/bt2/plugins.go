package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bt2go/bt2/plugin"
	"github.com/bt2go/bt2/plugins/utils/counter"
	"github.com/bt2go/bt2/plugins/utils/dummy"
	"github.com/bt2go/bt2/plugins/utils/trimmer"
)

// builtinPlugins registers every component class this binary ships with.
// There is no dynamic .so-loading plugin system (see bt2/plugin's doc
// comment); a fuller implementation's --plugin-path would call Register
// here too, once loaded.
func builtinPlugins(logger *zap.Logger) (*plugin.Registry, error) {
	r := plugin.New()

	dummyClass, err := dummy.NewClass()
	if err != nil {
		return nil, fmt.Errorf("register utils.dummy: %w", err)
	}
	if err := r.Register("utils", dummyClass); err != nil {
		return nil, err
	}

	counterClass, err := counter.NewClass(logger.Named("utils.counter"))
	if err != nil {
		return nil, fmt.Errorf("register utils.counter: %w", err)
	}
	if err := r.Register("utils", counterClass); err != nil {
		return nil, err
	}

	trimmerClass, err := trimmer.NewClass()
	if err != nil {
		return nil, fmt.Errorf("register utils.trimmer: %w", err)
	}
	if err := r.Register("utils", trimmerClass); err != nil {
		return nil, err
	}

	return r, nil
}
