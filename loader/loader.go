// Package loader executes materialized script units with a yaegi
// interpreter. Each load runs in a fresh interpreter whose source filesystem
// is the blob store, so the rewritten import locators inside a unit resolve
// back into the store rather than to anything on disk.
package loader

import (
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/kingrea/strand/blob"
	"github.com/kingrea/strand/parse"
)

// Module is the executable unit a successful load produces: the entry
// package's name and its exported symbols.
type Module struct {
	Package string
	Symbols map[string]reflect.Value
}

// Lookup returns the exported symbol with the given name.
func (m *Module) Lookup(name string) (reflect.Value, bool) {
	v, ok := m.Symbols[name]
	return v, ok
}

// Interp loads compiled units from a blob store.
type Interp struct {
	store *blob.Store
}

// New returns a loader reading from store.
func New(store *blob.Store) *Interp {
	return &Interp{store: store}
}

// Load evaluates the unit behind locator and returns its exports. It
// satisfies the compiler's Loader contract; the locator is resolved at call
// time, never earlier.
func (l *Interp) Load(locator string) (any, error) {
	src, ok := l.store.Read(locator)
	if !ok {
		return nil, fmt.Errorf("loader: unknown locator %s", locator)
	}
	tree, err := parse.Parse(locator, src)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	i := interp.New(interp.Options{
		GoPath:               "/",
		SourcecodeFilesystem: l.store.FS(),
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loader: install stdlib symbols: %w", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("loader: eval %s: %w", locator, err)
	}

	// Fetch each exported value by name. The interpreter stays scoped to
	// main after the eval, so names in any other package must be qualified.
	pkg := tree.PackageName()
	exports := map[string]reflect.Value{}
	for _, name := range tree.ExportedNames() {
		expr := name
		if pkg != "main" {
			expr = pkg + "." + name
		}
		value, err := i.Eval(expr)
		if err != nil {
			return nil, fmt.Errorf("loader: fetch %s from %s: %w", name, locator, err)
		}
		exports[name] = value
	}
	return &Module{Package: pkg, Symbols: exports}, nil
}
