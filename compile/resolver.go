package compile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kingrea/strand/parse"
	"github.com/kingrea/strand/script"
)

// sourceMIME is the content type recorded for materialized script units.
const sourceMIME = "text/x-go"

// resolver performs one resolution pass: a synchronous recursive traversal
// of a root script's import graph that rewrites import specifiers to fresh
// resource locators and materializes every visited script.
type resolver struct {
	scripts  *script.Collection
	store    ResourceStore
	log      *log.Logger
	annotate bool
}

// resolve returns the handle sequence for s, leaf-first, with s's own handle
// last. seen is the active resolution chain, root first; s must not already
// be on it. On failure every handle accumulated by this frame is disposed
// before the error is returned; frames below have already done the same for
// theirs, so a failed pass leaks nothing.
func (r *resolver) resolve(s *script.Script, seen *[]*script.Script) ([]*script.URL, error) {
	for _, ancestor := range *seen {
		if ancestor == s {
			return nil, &CycleError{Chain: chainKeys(*seen, s)}
		}
		s.AddDependent(ancestor.Key())
	}
	*seen = append(*seen, s)
	defer func() { *seen = (*seen)[:len(*seen)-1] }()

	src := []byte(s.Source())
	tree, err := parse.Parse(s.Filename(), src)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", s.Key(), err)
	}

	var imports []parse.Import
	tree.VisitImports(func(im parse.Import) {
		imports = append(imports, im)
	})
	// Rewrite back to front so pending spans keep their recorded offsets.
	sort.Slice(imports, func(i, j int) bool { return imports[i].Start > imports[j].Start })

	var out []*script.URL
	rollback := func(err error) ([]*script.URL, error) {
		for _, u := range out {
			if derr := u.Dispose(r.store); derr != nil && r.log != nil {
				r.log.Warn("rollback dispose failed", "locator", u.Locator(), "err", derr)
			}
		}
		return nil, err
	}

	for _, im := range imports {
		specifier := strings.TrimPrefix(im.Specifier, "./")
		dep, ok := r.scripts.Find(specifier)
		if !ok {
			// Unknown specifiers are presumed to resolve outside the
			// collection (builtins); leave them untouched.
			continue
		}
		sub, err := r.resolve(dep, seen)
		if err != nil {
			return rollback(err)
		}
		out = append(out, sub...)
		root := sub[len(sub)-1]
		src = splice(src, im.Start, im.End, strconv.Quote(root.Locator()))
		if r.log != nil {
			r.log.Debug("rewrote import",
				"script", s.Key().String(), "specifier", im.Specifier, "locator", root.Locator())
		}
	}

	if r.annotate {
		src = append(src, []byte("\n// source: "+s.Server()+"/"+s.Filename()+"\n")...)
	}

	locator, err := r.store.Create(src, sourceMIME)
	if err != nil {
		return rollback(&ResourceError{Op: "create", Err: err})
	}
	out = append(out, script.NewURL(s.Filename(), locator, s.SequenceNumber()))
	return out, nil
}

// splice replaces src[start:end] with repl, leaving src unaliased.
func splice(src []byte, start, end int, repl string) []byte {
	out := make([]byte, 0, len(src)-(end-start)+len(repl))
	out = append(out, src[:start]...)
	out = append(out, repl...)
	out = append(out, src[end:]...)
	return out
}

func chainKeys(seen []*script.Script, repeat *script.Script) []script.Key {
	keys := make([]script.Key, 0, len(seen)+1)
	for _, s := range seen {
		keys = append(keys, s.Key())
	}
	return append(keys, repeat.Key())
}
