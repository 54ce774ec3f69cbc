package workflow

import (
	"fmt"
	"strings"
)

// CycleError reports a step graph that cannot be linearized. Remaining
// holds, in declaration order, the step names left unresolved when the
// scan stalled.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf(
		"workflow has cyclic dependencies among steps: %s",
		strings.Join(e.Remaining, ", "),
	)
}
