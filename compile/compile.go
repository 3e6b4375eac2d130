// Package compile turns collections of interdependent scripts into loadable
// modules, recompiling only what changed since the last compile. It owns the
// full lifecycle of the ephemeral resources backing compiled units: a
// successful compile atomically supersedes (and disposes) the handles from
// the previous one, and a failed resolution pass disposes everything it
// created before reporting the error.
package compile

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/strand/script"
)

// ResourceStore materializes rewritten script units and releases them. The
// blob store is the production implementation.
type ResourceStore interface {
	Create(content []byte, mime string) (string, error)
	Dispose(locator string) error
}

// Loader turns a live resource locator into an executable module object. The
// orchestrator begins the load in the background and installs the pending
// handle immediately; Load itself may block. Implementations must resolve
// locators dynamically at load time, never ahead of it.
type Loader interface {
	Load(locator string) (any, error)
}

// Options configures a Compiler.
type Options struct {
	// Store materializes compiled units. Required.
	Store ResourceStore
	// Loader executes the root unit of a compile. Required.
	Loader Loader
	// Logger receives debug/warn events. Nil disables logging.
	Logger *log.Logger
	// NoSourceAnnotation suppresses the trailing source attribution comment
	// appended to every rewritten unit.
	NoSourceAnnotation bool
}

// Compiler is the compile orchestrator and the sole entry point of the
// package. A per-script lock serializes compile attempts: callers that
// arrive while a compile is in flight block until it returns, then re-check
// staleness against its result, so at most one resolution pass runs per
// change and every caller observes a module no older than its own request.
type Compiler struct {
	store    ResourceStore
	loader   Loader
	log      *log.Logger
	annotate bool

	mu    sync.Mutex
	locks map[*script.Script]*sync.Mutex
}

// New returns a Compiler.
func New(opts Options) (*Compiler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("compile: resource store is required")
	}
	if opts.Loader == nil {
		return nil, fmt.Errorf("compile: module loader is required")
	}
	return &Compiler{
		store:    opts.Store,
		loader:   opts.Loader,
		log:      opts.Logger,
		annotate: !opts.NoSourceAnnotation,
		locks:    map[*script.Script]*sync.Mutex{},
	}, nil
}

func (c *Compiler) lock(s *script.Script) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	mu, ok := c.locks[s]
	if !ok {
		mu = &sync.Mutex{}
		c.locks[s] = mu
	}
	return mu
}

// Compile returns a module for s, reusing the cached one when it is still
// current. The returned module is pending until the loader finishes; await
// it for the value. Resolution failures are returned directly and leave the
// previously cached module authoritative (unless the staleness check already
// invalidated it, in which case the next call recompiles).
func (c *Compiler) Compile(ctx context.Context, s *script.Script, scripts *script.Collection) (*script.Module, error) {
	mu := c.lock(s)
	mu.Lock()
	defer mu.Unlock()

	// Holding the lock, a stale verdict implies the cached module is gone
	// (the staleness check clears it as a side effect), so this caller owns
	// the fresh compile. A caller that blocked behind someone else's compile
	// re-checks here against that compile's module, and recompiles itself
	// only if the earlier attempt failed or was already superseded.
	if !ShouldCompile(s, scripts) {
		if c.log != nil {
			c.log.Debug("cache hit", "script", s.Key().String())
		}
		return s.Module(), nil
	}

	if c.log != nil {
		c.log.Debug("compiling", "script", s.Key().String(), "seq", s.SequenceNumber())
	}
	r := &resolver{scripts: scripts, store: c.store, log: c.log, annotate: c.annotate}
	seen := make([]*script.Script, 0, 8)
	urls, err := r.resolve(s, &seen)
	if err != nil {
		return nil, err
	}

	// The last handle is the root script's own; everything previously
	// recorded is now superseded. The old root handle also appears at the
	// end of the old dependency list, which is why handle disposal is
	// guarded to fire at most once.
	root := urls[len(urls)-1]
	if old := s.URL(); old != nil && old.Locator() != root.Locator() {
		c.dispose(old)
	}
	for _, dep := range s.Dependencies() {
		c.dispose(dep)
	}

	m := script.NewModule()
	s.SetCompiled(m, root, urls)
	go func() {
		m.Settle(c.loader.Load(root.Locator()))
	}()
	return m, nil
}

// CompileAll compiles every script currently in the collection, each as its
// own root. Compilation of distinct scripts proceeds concurrently; requests
// for the same script still coalesce through the per-script state.
func (c *Compiler) CompileAll(ctx context.Context, scripts *script.Collection) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range scripts.All() {
		s := s
		g.Go(func() error {
			_, err := c.Compile(ctx, s, scripts)
			return err
		})
	}
	return g.Wait()
}

func (c *Compiler) dispose(u *script.URL) {
	if err := u.Dispose(c.store); err != nil && c.log != nil {
		c.log.Warn("dispose superseded handle", "locator", u.Locator(), "err", err)
	}
}
