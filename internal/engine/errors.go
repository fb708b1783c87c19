package engine

import (
	"fmt"
	"strings"

	"github.com/syngen-dev/syngen/internal/spec"
)

// ValidationError aggregates every hard violation found in a config. The
// engine never generates from a partially-invalid config; callers get the
// complete list up front so a corrective loop can fix everything in one pass.
type ValidationError struct {
	Violations []spec.Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("invalid config (%d violations): %s", len(e.Violations), strings.Join(msgs, "; "))
}

// UnknownFeatureError reports a correlation or expression referencing a
// feature the table does not carry. The validator catches this for validated
// configs; reaching it at generation time is a defect upstream.
type UnknownFeatureError struct {
	Feature string
	Context string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("%s references unknown feature %q", e.Context, e.Feature)
}

// ExpressionError reports a target expression failing at synthesis time,
// with the row where evaluation broke.
type ExpressionError struct {
	Expression string
	Row        int
	Err        error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("target expression %q failed at row %d: %v", e.Expression, e.Row, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// SeasonalityError reports a degenerate multiplier array reaching synthesis.
type SeasonalityError struct {
	Field  string
	Detail string
}

func (e *SeasonalityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}
