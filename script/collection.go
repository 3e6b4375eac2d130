package script

import (
	"fmt"
	"sort"
	"sync"
)

// Collection is the script table for a single server. It owns the monotonic
// sequence counter: every edit stamps the script with the next value, so a
// script edited later always carries a higher watermark than one edited
// earlier, regardless of which script it is.
type Collection struct {
	server string
	policy NamePolicy

	mu      sync.RWMutex
	scripts map[string]*Script
	seq     uint64
}

// NewCollection returns an empty collection for server. A nil policy falls
// back to DefaultPolicy.
func NewCollection(server string, policy NamePolicy) *Collection {
	if policy == nil {
		policy = DefaultPolicy{}
	}
	return &Collection{
		server:  server,
		policy:  policy,
		scripts: map[string]*Script{},
	}
}

// Server returns the server this collection belongs to.
func (c *Collection) Server() string { return c.server }

// Add creates and registers a script. The filename must be unused.
func (c *Collection) Add(filename, code string) (*Script, error) {
	if filename == "" {
		return nil, fmt.Errorf("script: filename is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.scripts[filename]; exists {
		return nil, fmt.Errorf("script: %s already exists on %s", filename, c.server)
	}
	c.seq++
	s := newScript(Key{Server: c.server, Filename: filename}, code, c.seq)
	c.scripts[filename] = s
	return s, nil
}

// Remove drops the script from the collection and reports whether it was
// present. The script object itself stays valid for holders of a reference.
func (c *Collection) Remove(filename string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.scripts[filename]
	delete(c.scripts, filename)
	return ok
}

// Lookup returns the script registered under exactly filename.
func (c *Collection) Lookup(filename string) (*Script, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scripts[filename]
	return s, ok
}

// Find matches an import specifier against the known filenames using the
// collection's name-equality policy. Filenames are scanned in sorted order so
// an ambiguous specifier resolves deterministically.
func (c *Collection) Find(specifier string) (*Script, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.scripts))
	for name := range c.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c.policy.Equal(name, specifier) {
			return c.scripts[name], true
		}
	}
	return nil, false
}

// Update applies an external edit to a registered script: new source text, a
// fresh sequence number, and an invalidated module cache.
func (c *Collection) Update(filename, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scripts[filename]
	if !ok {
		return fmt.Errorf("script: %s not found on %s", filename, c.server)
	}
	c.seq++
	s.setSource(code, c.seq)
	return nil
}

// All returns the registered scripts sorted by filename.
func (c *Collection) All() []*Script {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Script, 0, len(c.scripts))
	for _, s := range c.scripts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename() < out[j].Filename() })
	return out
}

// Len returns the number of registered scripts.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scripts)
}
