// Package strand is an in-memory, incremental module compiler for
// collections of interdependent scripts. It resolves a script's import
// graph, rewrites import specifiers to point at freshly materialized
// executable blobs, and produces a loadable module for the requested entry
// script, recompiling only what changed since the last compile.
//
// The compile core lives in the compile package; script, parse, blob and
// loader provide the data model and the default collaborator
// implementations. This package wires them together for callers that want
// the whole stack with one call.
package strand

import (
	"context"
	"fmt"
	"io"

	"github.com/kingrea/strand/blob"
	"github.com/kingrea/strand/compile"
	"github.com/kingrea/strand/config"
	"github.com/kingrea/strand/loader"
	"github.com/kingrea/strand/script"
)

// Engine bundles a compiler with its default collaborators: an in-memory
// blob store and a yaegi-backed module loader reading from it.
type Engine struct {
	cfg      config.Config
	Store    *blob.Store
	Loader   *loader.Interp
	Compiler *compile.Compiler
}

// New builds an engine from cfg, logging to logw (pass io.Discard to
// silence it).
func New(cfg config.Config, logw io.Writer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strand: %w", err)
	}
	store := blob.NewStore()
	ld := loader.New(store)
	c, err := compile.New(compile.Options{
		Store:              store,
		Loader:             ld,
		Logger:             cfg.Logger(logw),
		NoSourceAnnotation: !cfg.SourceAnnotations,
	})
	if err != nil {
		return nil, fmt.Errorf("strand: %w", err)
	}
	return &Engine{cfg: cfg, Store: store, Loader: ld, Compiler: c}, nil
}

// NewCollection returns an empty script collection for server, using the
// engine's name-equality policy.
func (e *Engine) NewCollection(server string) *script.Collection {
	return script.NewCollection(server, e.cfg.Policy())
}

// Compile compiles s against scripts and returns the (possibly pending)
// module handle.
func (e *Engine) Compile(ctx context.Context, s *script.Script, scripts *script.Collection) (*script.Module, error) {
	return e.Compiler.Compile(ctx, s, scripts)
}

// CompileAll compiles every script in the collection concurrently.
func (e *Engine) CompileAll(ctx context.Context, scripts *script.Collection) error {
	return e.Compiler.CompileAll(ctx, scripts)
}
