// Package script holds the data model for the compiler: named, versioned
// source units, the collections they live in, and the ephemeral resource
// handles produced by compiling them.
package script

import (
	"sort"
	"sync"
)

// Key identifies a script: the server it lives on and its filename. A Key is
// immutable for the script's lifetime.
type Key struct {
	Server   string
	Filename string
}

func (k Key) String() string {
	return k.Server + "/" + k.Filename
}

// Script is a single source unit tracked by the compiler. Source text and the
// sequence number are mutated by editing (through the owning Collection); the
// cached module, resource handle, and dependency list are mutated exclusively
// by the compile orchestrator.
type Script struct {
	key Key

	mu         sync.Mutex
	code       string
	seq        uint64
	module     *Module
	url        *URL
	deps       []*URL
	dependents map[Key]struct{}
}

func newScript(key Key, code string, seq uint64) *Script {
	return &Script{
		key:        key,
		code:       code,
		seq:        seq,
		dependents: map[Key]struct{}{},
	}
}

// Key returns the script's identity.
func (s *Script) Key() Key { return s.key }

// Server returns the server component of the script's identity.
func (s *Script) Server() string { return s.key.Server }

// Filename returns the filename component of the script's identity.
func (s *Script) Filename() string { return s.key.Filename }

// Source returns the current source text.
func (s *Script) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// SequenceNumber returns the staleness watermark assigned by the last edit.
func (s *Script) SequenceNumber() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Module returns the cached compile result, or nil if the script has never
// been compiled (or its cache was invalidated).
func (s *Script) Module() *Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.module
}

// ClearModule drops the cached module. The staleness check uses this to
// signal the orchestrator that the cache must not be served again.
func (s *Script) ClearModule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.module = nil
}

// URL returns the resource handle currently backing the cached module.
func (s *Script) URL() *URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Dependencies returns the handle sequence recorded by the most recent
// successful compile, leaf-first with the script's own handle last.
func (s *Script) Dependencies() []*URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*URL{}, s.deps...)
}

// SetCompiled installs a fresh compile result: the pending module, the root
// resource handle, and the full resolved handle sequence. Superseded handles
// must already have been disposed by the caller.
func (s *Script) SetCompiled(m *Module, root *URL, deps []*URL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.module = m
	s.url = root
	s.deps = append([]*URL{}, deps...)
}

// AddDependent records that the script identified by k transitively imported
// this one during its last compile. Pure bookkeeping; never consulted for
// staleness.
func (s *Script) AddDependent(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dependents[k] = struct{}{}
}

// Dependents returns the recorded dependent identities, sorted for stable
// iteration.
func (s *Script) Dependents() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.dependents))
	for k := range s.dependents {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Server != keys[j].Server {
			return keys[i].Server < keys[j].Server
		}
		return keys[i].Filename < keys[j].Filename
	})
	return keys
}

// setSource applies an external edit: new text, a fresh sequence number from
// the collection's counter, and an invalidated module cache.
func (s *Script) setSource(code string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	s.seq = seq
	s.module = nil
}
