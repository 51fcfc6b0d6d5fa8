// errors.go - Pipeline-level failure types the HTTP layer maps to statuses

package pipeline

import (
	"fmt"
	"strings"
)

// ExtractionError means both extraction attempts returned text that could
// not be parsed as a JSON object. The raw replies are kept for diagnostics.
type ExtractionError struct {
	StrictRaw string // empty when the strict attempt was skipped or failed upstream
	LooseRaw  string
}

func (e *ExtractionError) Error() string {
	return "model output could not be parsed as a table state"
}

// IncompleteStateError means the parsed state is missing required top-level
// fields even after correction. The partial state is kept so the client can
// see what was read.
type IncompleteStateError struct {
	Missing []string
	Partial map[string]interface{}
}

func (e *IncompleteStateError) Error() string {
	return fmt.Sprintf("extracted state is missing required fields: %s", strings.Join(e.Missing, ", "))
}
