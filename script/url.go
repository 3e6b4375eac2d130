package script

import "sync"

// Disposer releases the resource behind a locator. The blob store satisfies
// this; tests substitute recording fakes.
type Disposer interface {
	Dispose(locator string) error
}

// URL is a disposable handle to one compiled unit's executable content. It
// records which script produced it and the sequence number the script carried
// at resolution time. Once disposed the locator must never be dereferenced.
type URL struct {
	filename string
	locator  string
	seq      uint64

	mu       sync.Mutex
	disposed bool
}

// NewURL wraps a freshly created resource locator in a handle.
func NewURL(filename, locator string, seq uint64) *URL {
	return &URL{filename: filename, locator: locator, seq: seq}
}

// Filename returns the owning script's filename.
func (u *URL) Filename() string { return u.filename }

// Locator returns the live resource locator.
func (u *URL) Locator() string { return u.locator }

// SequenceNumber returns the watermark of the script this handle was built
// from.
func (u *URL) SequenceNumber() uint64 { return u.seq }

// Disposed reports whether the handle has been released.
func (u *URL) Disposed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.disposed
}

// Dispose releases the underlying resource through d. The underlying
// primitive is invoked at most once per handle; repeat calls are no-ops, so a
// handle reachable from more than one bookkeeping slot can be released from
// each without double-freeing.
func (u *URL) Dispose(d Disposer) error {
	u.mu.Lock()
	if u.disposed {
		u.mu.Unlock()
		return nil
	}
	u.disposed = true
	u.mu.Unlock()
	return d.Dispose(u.locator)
}
