// Package plugin implements the component-class registry: a concurrent
// index of plugin name -> component classes, backing the CLI's
// list-plugins data and the auto-source-discovery resolver's
// "every candidate source class" enumeration (spec.md §4.6).
//
// Unlike the original's dynamic .so-loading plugin system, plugins here are
// just Go packages that construct and register their component classes at
// process start (component-class registration is itself a non-goal of
// spec.md's core, which treats plugins as thin collaborators -- see §1).
package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alphadose/haxmap"

	"github.com/bt2go/bt2/component"
)

// Entry pairs a registered component class with the plugin name it was
// registered under.
type Entry struct {
	Plugin string
	Class  *component.Class
}

func (e Entry) key() string {
	return entryKey(e.Plugin, e.Class.Kind(), e.Class.Name())
}

func entryKey(plugin string, kind component.Kind, name string) string {
	return plugin + "\x00" + kind.String() + "\x00" + name
}

// Registry is a concurrent, read-heavy index of component classes grouped
// by plugin. Registration typically happens once at startup; Lookup/All are
// safe to call concurrently with further registration, which is what lets
// the CLI's query executor and auto-discovery's fan-out both read it while
// a late-registering plugin (e.g. one discovered via --plugin-path in a
// fuller implementation) is still being added.
type Registry struct {
	entries     *haxmap.Map[string, Entry]
	pluginNames *haxmap.Map[string, struct{}]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries:     haxmap.New[string, Entry](),
		pluginNames: haxmap.New[string, struct{}](),
	}
}

// Register adds class under plugin. It fails if a class of the same kind
// and name is already registered under that plugin.
func (r *Registry) Register(plugin string, class *component.Class) error {
	if plugin == "" {
		return fmt.Errorf("bt2/plugin: plugin name must not be empty")
	}
	e := Entry{Plugin: plugin, Class: class}
	if _, exists := r.entries.Get(e.key()); exists {
		return fmt.Errorf("bt2/plugin: %s.%s (%s) is already registered", plugin, class.Name(), class.Kind())
	}
	r.entries.Set(e.key(), e)
	r.pluginNames.Set(plugin, struct{}{})
	return nil
}

// Lookup finds a registered class by plugin name, kind and class name.
func (r *Registry) Lookup(plugin string, kind component.Kind, className string) (*component.Class, bool) {
	e, ok := r.entries.Get(entryKey(plugin, kind, className))
	if !ok {
		return nil, false
	}
	return e.Class, true
}

// Plugins returns every plugin name that has at least one registered class,
// sorted for reproducible CLI output (list-plugins).
func (r *Registry) Plugins() []string {
	names := make([]string, 0)
	r.pluginNames.ForEach(func(name string, _ struct{}) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// ClassesOf returns every class registered under plugin, sorted by
// kind then name.
func (r *Registry) ClassesOf(plugin string) []Entry {
	return r.filter(func(e Entry) bool { return e.Plugin == plugin })
}

// ClassesByKind returns every registered class of the given kind across all
// plugins, sorted by plugin then name. Used by auto-discovery to enumerate
// every candidate source class for the support-info query protocol.
func (r *Registry) ClassesByKind(kind component.Kind) []Entry {
	return r.filter(func(e Entry) bool { return e.Class.Kind() == kind })
}

// All returns every registered entry, sorted by plugin, then kind, then
// name.
func (r *Registry) All() []Entry {
	return r.filter(func(Entry) bool { return true })
}

func (r *Registry) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	r.entries.ForEach(func(_ string, e Entry) bool {
		if keep(e) {
			out = append(out, e)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plugin != out[j].Plugin {
			return out[i].Plugin < out[j].Plugin
		}
		if out[i].Class.Kind() != out[j].Class.Kind() {
			return out[i].Class.Kind() < out[j].Class.Kind()
		}
		return out[i].Class.Name() < out[j].Class.Name()
	})
	return out
}

// Describe renders a one-line "plugin.class (kind)" identity.
func (e Entry) Describe() string {
	return strings.Join([]string{e.Plugin, e.Class.Name()}, ".") + " (" + e.Class.Kind().String() + ")"
}
