// Package engine runs the full generation pipeline for one dataset config:
// validate, sample, impose correlations, smooth time-series paths, expand
// lags, inject outliers and missing values, map categorical deciles, and
// synthesize the target column. One Generate call owns one seeded stream, so
// equal configs always produce byte-equal tables.
package engine

import (
	"io"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/syngen-dev/syngen/internal/correlate"
	"github.com/syngen-dev/syngen/internal/expr"
	"github.com/syngen-dev/syngen/internal/lag"
	"github.com/syngen-dev/syngen/internal/rng"
	"github.com/syngen-dev/syngen/internal/sample"
	"github.com/syngen-dev/syngen/internal/smooth"
	"github.com/syngen-dev/syngen/internal/spec"
	"github.com/syngen-dev/syngen/internal/table"
)

// defaultOutlierMultiplier is the IQR multiple used when a config requests
// outliers without naming a multiplier.
const defaultOutlierMultiplier = 3.0

// Generator runs generation pipelines. Safe for reuse across configs; all
// per-run state lives on the stack of Generate.
type Generator struct {
	log *slog.Logger
}

// New returns a Generator logging to log. A nil logger discards output.
func New(log *slog.Logger) *Generator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{log: log}
}

// Generate produces the full table for cfg along with a run report. The
// config is validated first; any hard violation aborts before sampling.
// Correlation repair and long seasonality arrays surface as report warnings,
// not errors.
func (g *Generator) Generate(cfg *spec.Config) (*table.Table, *Report, error) {
	violations := spec.Validate(cfg)
	if errs := spec.Errors(violations); len(errs) > 0 {
		return nil, nil, &ValidationError{Violations: errs}
	}

	report := &Report{
		Dataset:    cfg.Name,
		Seed:       cfg.RandomSeed,
		TimeSeries: cfg.TimeSeries(),
		Rows:       cfg.NRows,
	}
	for _, w := range spec.Warnings(violations) {
		report.Warnings = append(report.Warnings, w.String())
	}

	stream := rng.New(cfg.RandomSeed)
	g.log.Info("sampling features",
		"dataset", cfg.Name, "rows", cfg.NRows, "seed", cfg.RandomSeed, "time_series", report.TimeSeries)

	tbl, err := sample.Features(cfg, stream)
	if err != nil {
		return nil, nil, err
	}

	corrWarnings, err := correlate.Impose(tbl, cfg.Correlations, stream)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range corrWarnings {
		g.log.Warn("correlation matrix repaired", "features", w.Features)
		report.Warnings = append(report.Warnings, w.String())
	}

	// Rank reordering shuffles time-series paths; smoothing restores their
	// continuity at the cost of a small drift in the realized coefficient.
	if report.TimeSeries && len(cfg.Correlations) > 0 {
		names := correlatedNames(cfg.Correlations)
		smooth.Columns(tbl, names, smooth.DefaultAlpha)
		g.log.Debug("smoothed correlated features", "features", names)
	}

	report.Correlations = correlationDiagnostics(tbl, cfg.Correlations)

	if err := lag.Expand(tbl, cfg.Features); err != nil {
		return nil, nil, err
	}

	g.injectFeatureOutliers(cfg, tbl, stream)
	roundIntFeatures(cfg, tbl)
	if err := mapCategoricalFeatures(cfg, tbl); err != nil {
		return nil, nil, err
	}
	injectFeatureMissing(cfg, tbl, stream)

	if err := g.synthesizeTarget(cfg, tbl, stream); err != nil {
		return nil, nil, err
	}

	report.Columns = tbl.NumCols()
	g.log.Info("generation complete", "dataset", cfg.Name, "columns", report.Columns)
	return tbl, report, nil
}

// correlatedNames returns every feature named by a correlation spec, in first
// appearance order, without duplicates.
func correlatedNames(specs []spec.Correlation) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range specs {
		for _, name := range []string{s.FeatureA, s.FeatureB} {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func (g *Generator) injectFeatureOutliers(cfg *spec.Config, tbl *table.Table, stream *rng.Stream) {
	for i := range cfg.Features {
		f := &cfg.Features[i]
		if f.OutlierRate <= 0 || f.DataType == spec.TypeCategorical || f.DataType == spec.TypeDatetime {
			continue
		}
		n := injectOutliers(tbl.Column(f.Name).Floats, f.OutlierRate, f.OutlierMethod, f.OutlierMultiplier, stream)
		if n > 0 {
			g.log.Debug("injected outliers", "feature", f.Name, "count", n, "method", f.OutlierMethod)
		}
	}
}

// injectOutliers overwrites a random subset of values with IQR-based extremes
// and returns how many were placed. The high value is q3 + multiplier*IQR,
// the low value q1 - multiplier*IQR; extreme_both splits the subset between
// them.
func injectOutliers(values []float64, rate float64, method spec.OutlierMethod, multiplier float64, stream *rng.Stream) int {
	n := int(float64(len(values)) * rate)
	if n == 0 {
		return 0
	}
	finite := finiteValues(values)
	if len(finite) == 0 {
		return 0
	}
	if multiplier == 0 {
		multiplier = defaultOutlierMultiplier
	}
	sort.Float64s(finite)
	q1 := stat.Quantile(0.25, stat.LinInterp, finite, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, finite, nil)
	iqr := q3 - q1

	idx := stream.Pick(len(values), n)
	switch method {
	case spec.OutlierLow:
		for _, i := range idx {
			values[i] = q1 - multiplier*iqr
		}
	case spec.OutlierBoth:
		nHigh := n / 2
		for _, i := range idx[:nHigh] {
			values[i] = q3 + multiplier*iqr
		}
		for _, i := range idx[nHigh:] {
			values[i] = q1 - multiplier*iqr
		}
	default:
		for _, i := range idx {
			values[i] = q3 + multiplier*iqr
		}
	}
	return n
}

// roundIntFeatures rounds int-typed features to whole numbers. Values stay in
// float storage so missing injection can still use NaN.
func roundIntFeatures(cfg *spec.Config, tbl *table.Table) {
	for i := range cfg.Features {
		f := &cfg.Features[i]
		if f.DataType != spec.TypeInt {
			continue
		}
		roundValues(tbl.Column(f.Name).Floats)
	}
}

func roundValues(values []float64) {
	for i, v := range values {
		values[i] = math.Round(v)
	}
}

// mapCategoricalFeatures converts each categorical feature's sampled numeric
// values into its declared labels by equal-frequency deciles.
func mapCategoricalFeatures(cfg *spec.Config, tbl *table.Table) error {
	for i := range cfg.Features {
		f := &cfg.Features[i]
		if f.DataType != spec.TypeCategorical {
			continue
		}
		labels := decileLabels(tbl.Column(f.Name).Floats, f.Categories)
		if err := tbl.Relabel(f.Name, labels); err != nil {
			return err
		}
	}
	return nil
}

// decileLabels maps values onto categories by rank: the lowest tenth of the
// finite values gets categories[0], the highest tenth categories[9]. NaN rows
// get an empty label. A constant column collapses every decile, so all rows
// get the middle category.
func decileLabels(values []float64, categories []string) []string {
	labels := make([]string, len(values))
	var finite []int
	for i, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, i)
		}
	}
	if len(finite) == 0 {
		return labels
	}

	lo, hi := values[finite[0]], values[finite[0]]
	for _, i := range finite {
		lo = math.Min(lo, values[i])
		hi = math.Max(hi, values[i])
	}
	if lo == hi {
		mid := categories[(spec.CategoryCount-1)/2]
		for _, i := range finite {
			labels[i] = mid
		}
		return labels
	}

	sort.SliceStable(finite, func(a, b int) bool {
		return values[finite[a]] < values[finite[b]]
	})
	for pos, i := range finite {
		labels[i] = categories[pos*spec.CategoryCount/len(finite)]
	}
	return labels
}

// injectFeatureMissing blanks a random subset of each feature's rows.
// Datetime features are skipped; a gapped time index is never useful. Lag
// columns keep their pre-injection values.
func injectFeatureMissing(cfg *spec.Config, tbl *table.Table, stream *rng.Stream) {
	for i := range cfg.Features {
		f := &cfg.Features[i]
		if f.MissingRate <= 0 || f.DataType == spec.TypeDatetime {
			continue
		}
		col := tbl.Column(f.Name)
		if col.Kind == table.Categorical {
			injectMissingLabels(col.Labels, f.MissingRate, stream)
		} else {
			injectMissingNumeric(col.Floats, f.MissingRate, stream)
		}
	}
}

func injectMissingNumeric(values []float64, rate float64, stream *rng.Stream) {
	n := int(float64(len(values)) * rate)
	if n == 0 {
		return
	}
	for _, i := range stream.Pick(len(values), n) {
		values[i] = math.NaN()
	}
}

func injectMissingLabels(labels []string, rate float64, stream *rng.Stream) {
	n := int(float64(len(labels)) * rate)
	if n == 0 {
		return
	}
	for _, i := range stream.Pick(len(labels), n) {
		labels[i] = ""
	}
}

// synthesizeTarget evaluates the target expression row by row over the
// numeric columns, applies seasonality cycles and range-scaled noise, then
// runs the target through the same outlier, rounding, decile, and missing
// stages the features get.
func (g *Generator) synthesizeTarget(cfg *spec.Config, tbl *table.Table, stream *rng.Stream) error {
	t := &cfg.Target
	ex, err := expr.Parse(t.Expression)
	if err != nil {
		return &ExpressionError{Expression: t.Expression, Row: -1, Err: err}
	}

	vars := ex.Variables()
	cols := make(map[string][]float64, len(vars))
	for _, v := range vars {
		c := tbl.Column(v)
		if c == nil || c.Kind != table.Numeric {
			return &UnknownFeatureError{Feature: v, Context: "target expression"}
		}
		cols[v] = c.Floats
	}

	n := tbl.NumRows()
	raw := make([]float64, n)
	scope := make(map[string]float64, len(vars))
	for row := 0; row < n; row++ {
		for name, vals := range cols {
			scope[name] = vals[row]
		}
		v, err := ex.Eval(scope)
		if err != nil {
			return &ExpressionError{Expression: t.Expression, Row: row, Err: err}
		}
		raw[row] = v
	}

	if err := applySeasonality(raw, t.SeasonalityMultipliers, "target.seasonality_multipliers"); err != nil {
		return err
	}
	if err := applySeasonality(raw, t.SecondarySeasonalityMultipliers, "target.secondary_seasonality_multipliers"); err != nil {
		return err
	}
	addNoise(raw, t.NoisePercent, stream)

	if t.DataType == spec.TypeCategorical {
		labels := decileLabels(raw, t.Categories)
		injectMissingLabels(labels, t.MissingRate, stream)
		return tbl.AddCategorical(t.Name, labels)
	}

	if t.DataType == spec.TypeInt {
		roundValues(raw)
	}
	if n := injectOutliers(raw, t.OutlierRate, t.OutlierMethod, t.OutlierMultiplier, stream); n > 0 {
		g.log.Debug("injected outliers", "feature", t.Name, "count", n, "method", t.OutlierMethod)
	}
	injectMissingNumeric(raw, t.MissingRate, stream)
	return tbl.AddNumeric(t.Name, raw)
}

// applySeasonality scales values in place by a cycling multiplier array:
// values[i] *= multipliers[i mod len].
func applySeasonality(values, multipliers []float64, field string) error {
	if len(multipliers) == 0 {
		return nil
	}
	for _, m := range multipliers {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return &SeasonalityError{Field: field, Detail: "multipliers must be finite"}
		}
	}
	period := len(multipliers)
	for i := range values {
		values[i] *= multipliers[i%period]
	}
	return nil
}

// addNoise adds zero-mean gaussian noise with std equal to percent% of the
// finite value range. A constant or all-missing column gets no noise.
func addNoise(values []float64, percent float64, stream *rng.Stream) {
	if percent <= 0 {
		return
	}
	lo, hi, ok := finiteRange(values)
	if !ok || hi == lo {
		return
	}
	dist := distuv.Normal{Mu: 0, Sigma: percent / 100 * (hi - lo), Src: stream.Source()}
	for i, v := range values {
		values[i] = v + dist.Rand()
	}
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func finiteRange(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}
