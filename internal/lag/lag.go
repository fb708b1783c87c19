// Package lag derives lagged copies of features. A lag-k column holds the
// source feature's value from k rows earlier; the first k rows have no prior
// value and are filled with NaN. NaN (rather than back-filling the first
// valid value) keeps the derived column honest: a back-filled value never
// occurred at that row and would silently bias any target expression that
// references the lag column.
package lag

import (
	"fmt"
	"math"

	"github.com/syngen-dev/syngen/internal/spec"
	"github.com/syngen-dev/syngen/internal/table"
)

// Expand appends one derived column per (feature, lag) pair declared in the
// specs, named with spec.LagColumnName, after all base columns. Lag sources
// must be numeric; the validator guarantees that for validated configs.
func Expand(tbl *table.Table, features []spec.Feature) error {
	for i := range features {
		f := &features[i]
		if len(f.Lags) == 0 {
			continue
		}
		src := tbl.Column(f.Name)
		if src == nil {
			return fmt.Errorf("lagged feature %q has no column", f.Name)
		}
		if src.Kind != table.Numeric {
			return fmt.Errorf("lagged feature %q is not numeric", f.Name)
		}
		for _, offset := range f.Lags {
			if offset <= 0 {
				return fmt.Errorf("feature %q: lag offset must be positive, got %d", f.Name, offset)
			}
			if err := tbl.AddNumeric(spec.LagColumnName(f.Name, offset), Shift(src.Floats, offset)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Shift returns values moved forward by offset rows, with the leading offset
// rows set to NaN.
func Shift(values []float64, offset int) []float64 {
	out := make([]float64, len(values))
	for i := 0; i < offset && i < len(out); i++ {
		out[i] = math.NaN()
	}
	for i := offset; i < len(values); i++ {
		out[i] = values[i-offset]
	}
	return out
}
