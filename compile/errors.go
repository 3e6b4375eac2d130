package compile

import (
	"fmt"
	"strings"

	"github.com/kingrea/strand/script"
)

// CycleError reports an import cycle discovered during resolution. Chain
// holds the scripts on the active resolution path, root first, ending with
// the script that closed the cycle.
type CycleError struct {
	Chain []script.Key
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Chain))
	for i, k := range e.Chain {
		names[i] = k.String()
	}
	return fmt.Sprintf("compile: import cycle: %s", strings.Join(names, " -> "))
}

// ResourceError reports a failed resource primitive.
type ResourceError struct {
	Op      string // "create" or "dispose"
	Locator string // empty for failed creations
	Err     error
}

func (e *ResourceError) Error() string {
	if e.Locator == "" {
		return fmt.Sprintf("compile: resource %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("compile: resource %s %s: %v", e.Op, e.Locator, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
