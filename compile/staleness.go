package compile

import "github.com/kingrea/strand/script"

// ShouldCompile reports whether s needs a fresh compile, and invalidates the
// cached module when it does. A script with no cached module always
// compiles. Otherwise each handle recorded by the last compile is checked
// against the collection: a dependency that no longer exists is out of date
// (so its compile error surfaces instead of a stale module being served
// silently), as is one whose current sequence number exceeds the root
// script's own.
//
// The comparison is deliberately one level deep and measured against the
// root's watermark, not each dependency's watermark at resolution time.
// Every script is independently checked when it is itself the compile root,
// which is what keeps the collection converging; do not tighten this rule.
func ShouldCompile(s *script.Script, scripts *script.Collection) bool {
	if s.Module() == nil {
		return true
	}
	stale := false
	for _, dep := range s.Dependencies() {
		cur, ok := scripts.Lookup(dep.Filename())
		if !ok {
			stale = true
			break
		}
		if cur.SequenceNumber() > s.SequenceNumber() {
			stale = true
			break
		}
	}
	if stale {
		// Side channel to the orchestrator: the cache must not be served
		// again, even by a caller that skips the staleness check.
		s.ClearModule()
	}
	return stale
}
