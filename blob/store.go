// Package blob provides the resource primitives behind compiled script
// units: an in-memory store that materializes rewritten source as
// locator-addressed blobs and releases them on disposal. The store doubles as
// an fs.FS so the module loader can resolve rewritten import locators back
// into it.
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sync"
)

// locatorPrefix namespaces every locator minted by a Store.
const locatorPrefix = "blob/"

type entry struct {
	content []byte
	mime    string
}

// Store holds materialized blobs keyed by locator. Every Create mints a
// fresh locator, even for identical content, so a recompile always yields a
// handle distinct from the one it supersedes.
type Store struct {
	mu    sync.Mutex
	next  uint64
	blobs map[string]entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{blobs: map[string]entry{}}
}

// Create materializes content and returns its locator.
func (s *Store) Create(content []byte, mime string) (string, error) {
	sum := sha256.Sum256(content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	locator := fmt.Sprintf("%s%d-%s", locatorPrefix, s.next, hex.EncodeToString(sum[:4]))
	s.blobs[locator] = entry{content: append([]byte{}, content...), mime: mime}
	return locator, nil
}

// Dispose releases the blob behind locator. Disposing a locator that is not
// live is an error: it means a handle was dereferenced or freed after
// disposal, which the handle layer is supposed to prevent.
func (s *Store) Dispose(locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[locator]; !ok {
		return fmt.Errorf("blob: dispose unknown locator %s", locator)
	}
	delete(s.blobs, locator)
	return nil
}

// Read returns the content behind a live locator.
func (s *Store) Read(locator string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.blobs[locator]
	if !ok {
		return nil, false
	}
	return append([]byte{}, e.content...), true
}

// MIME returns the content type recorded for a live locator.
func (s *Store) MIME(locator string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.blobs[locator]
	return e.mime, ok
}

// Len returns the number of live blobs. Tests use it to assert that failed
// resolution passes leak nothing.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Locators returns the live locators in unspecified order.
func (s *Store) Locators() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.blobs))
	for loc := range s.blobs {
		out = append(out, loc)
	}
	return out
}

// FS returns a read-only filesystem view of the store: each live blob
// appears as src/<locator>/module.go. The view reads through to the store,
// so blobs created after the call are visible.
func (s *Store) FS() fs.FS {
	return &storeFS{store: s}
}
