package script

import (
	"path"
	"strings"
)

// NamePolicy decides whether an import specifier refers to a known script.
// It encapsulates the in-game filename rules (case folding, default
// extension) so the resolver never needs to know them.
type NamePolicy interface {
	Equal(knownFilename, specifier string) bool
}

// DefaultPolicy matches specifiers against filenames verbatim, optionally
// folding case and appending a default extension to extensionless
// specifiers.
type DefaultPolicy struct {
	// CaseInsensitive folds case before comparing.
	CaseInsensitive bool
	// DefaultExtension is appended to specifiers that carry no extension,
	// e.g. ".go" lets `import "utils"` match utils.go. Empty disables it.
	DefaultExtension string
}

// Equal implements NamePolicy.
func (p DefaultPolicy) Equal(knownFilename, specifier string) bool {
	if p.DefaultExtension != "" && path.Ext(specifier) == "" {
		specifier += p.DefaultExtension
	}
	if p.CaseInsensitive {
		return strings.EqualFold(knownFilename, specifier)
	}
	return knownFilename == specifier
}
