package engine

import (
	"math"

	"github.com/syngen-dev/syngen/internal/correlate"
	"github.com/syngen-dev/syngen/internal/spec"
	"github.com/syngen-dev/syngen/internal/table"
)

// CorrelationDiagnostic pairs a requested coefficient with the one measured
// on the finished table, so callers can judge how much smoothing and clipping
// moved it.
type CorrelationDiagnostic struct {
	FeatureA  string  `json:"feature_a"`
	FeatureB  string  `json:"feature_b"`
	Requested float64 `json:"requested"`
	Realized  float64 `json:"realized"`
}

// Report summarizes one generation run.
type Report struct {
	Dataset      string                  `json:"dataset"`
	Seed         int64                   `json:"seed"`
	TimeSeries   bool                    `json:"time_series"`
	Rows         int                     `json:"rows"`
	Columns      int                     `json:"columns"`
	Correlations []CorrelationDiagnostic `json:"correlations,omitempty"`
	Warnings     []string                `json:"warnings,omitempty"`
}

func correlationDiagnostics(tbl *table.Table, specs []spec.Correlation) []CorrelationDiagnostic {
	if len(specs) == 0 {
		return nil
	}
	realized := correlate.Realized(tbl, specs)
	out := make([]CorrelationDiagnostic, len(specs))
	for i, s := range specs {
		r := realized[i]
		if math.IsNaN(r) {
			r = 0
		}
		out[i] = CorrelationDiagnostic{
			FeatureA:  s.FeatureA,
			FeatureB:  s.FeatureB,
			Requested: s.Coefficient,
			Realized:  r,
		}
	}
	return out
}
