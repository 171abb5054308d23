package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bt2go/bt2"
)

// splitPluginClass splits the "plugin.class" half of a component spec (no
// params) into its plugin and class names.
func splitPluginClass(name string) (pluginName, className string, err error) {
	dot := strings.IndexByte(name, '.')
	if dot < 0 {
		return "", "", fmt.Errorf("invalid component name %q: expected PLUGIN.CLASS", name)
	}
	pluginName, className = name[:dot], name[dot+1:]
	if pluginName == "" || className == "" {
		return "", "", fmt.Errorf("invalid component name %q: empty plugin or class name", name)
	}
	return pluginName, className, nil
}

// parseComponentSpec splits a "plugin.class" or "plugin.class:JSON" CLI
// argument (the --source/--filter/--sink component specification format)
// into its plugin name, class name, and decoded params value.
func parseComponentSpec(spec string) (pluginName, className string, params bt2.Value, err error) {
	name, jsonParams, hasParams := strings.Cut(spec, ":")
	pluginName, className, err = splitPluginClass(name)
	if err != nil {
		return "", "", bt2.Value{}, fmt.Errorf("invalid component spec %q: %w", spec, err)
	}
	if !hasParams || jsonParams == "" {
		return pluginName, className, bt2.NewNull(), nil
	}
	params, err = jsonToValue(jsonParams)
	if err != nil {
		return "", "", bt2.Value{}, fmt.Errorf("invalid component spec %q: params: %w", spec, err)
	}
	return pluginName, className, params, nil
}

// jsonToValue decodes a JSON document into a bt2.Value tree. Only the JSON
// types with a direct Value counterpart are accepted: objects become Map,
// arrays become Array, numbers become SignedInt when they round-trip
// exactly, otherwise Real, strings become String, booleans become Bool, and
// null becomes Null.
func jsonToValue(doc string) (bt2.Value, error) {
	var decoded any
	if err := json.Unmarshal([]byte(doc), &decoded); err != nil {
		return bt2.Value{}, err
	}
	return anyToValue(decoded)
}

func anyToValue(v any) (bt2.Value, error) {
	switch x := v.(type) {
	case nil:
		return bt2.NewNull(), nil
	case bool:
		return bt2.NewBool(x), nil
	case string:
		return bt2.NewString(x), nil
	case float64:
		if i := int64(x); float64(i) == x {
			return bt2.NewSignedInt(i), nil
		}
		return bt2.NewReal(x), nil
	case []any:
		elems := make([]bt2.Value, len(x))
		for i, e := range x {
			ev, err := anyToValue(e)
			if err != nil {
				return bt2.Value{}, err
			}
			elems[i] = ev
		}
		return bt2.NewArray(elems...), nil
	case map[string]any:
		m := bt2.NewMap()
		for k, e := range x {
			ev, err := anyToValue(e)
			if err != nil {
				return bt2.Value{}, err
			}
			m.MapSet(k, ev)
		}
		return m, nil
	default:
		return bt2.Value{}, fmt.Errorf("unsupported JSON value of type %T", v)
	}
}
