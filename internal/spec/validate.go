package spec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/syngen-dev/syngen/internal/expr"
)

// Severity separates hard violations from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation kinds. Machine-parseable so an external corrective loop can
// target a fix without re-deriving context.
const (
	KindMissingField        = "missing_field"
	KindInvalidName         = "invalid_name"
	KindInvalidValue        = "invalid_value"
	KindDuplicateName       = "duplicate_name"
	KindUnknownDistribution = "unknown_distribution"
	KindMissingParameter    = "missing_parameter"
	KindInvalidParameter    = "invalid_parameter"
	KindCategoryCount       = "category_count"
	KindUnknownFeature      = "unknown_feature"
	KindInvalidCorrelation  = "invalid_correlation"
	KindInvalidExpression   = "invalid_expression"
	KindSeasonality         = "seasonality"
)

// Violation is one validation finding: what rule broke, where, and why.
type Violation struct {
	Kind     string   `json:"kind"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Kind, v.Field, v.Message)
}

// Errors filters the list down to hard errors.
func Errors(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Warnings filters the list down to advisory findings.
func Warnings(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Severity == SeverityWarning {
			out = append(out, v)
		}
	}
	return out
}

// seasonalityFlagLength is the period length above which a multiplier array
// is flagged as a probable data-entry mistake. 366 covers day-of-year cycles;
// anything longer has no calendar reading.
const seasonalityFlagLength = 366

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks a decoded config against every schema rule and returns all
// findings at once, never just the first. An empty result (or one with only
// warnings) means the config may be generated. Pure function: cfg is not
// modified.
func Validate(cfg *Config) []Violation {
	v := &validator{}

	if cfg.Name == "" {
		v.errorf(KindMissingField, "name", "dataset name is required")
	} else if !identRe.MatchString(cfg.Name) {
		v.errorf(KindInvalidName, "name", "invalid name %q: must be letters, digits, and underscores, not starting with a digit", cfg.Name)
	}
	if cfg.NRows <= 0 {
		v.errorf(KindInvalidValue, "n_rows", "n_rows must be a positive integer, got %d", cfg.NRows)
	}
	if len(cfg.Features) == 0 {
		v.errorf(KindMissingField, "features", "at least one feature is required")
	}

	seen := map[string]bool{}
	for i := range cfg.Features {
		f := &cfg.Features[i]
		field := fmt.Sprintf("features[%d]", i)
		if f.Name != "" {
			field = fmt.Sprintf("features.%s", f.Name)
			if seen[f.Name] {
				v.errorf(KindDuplicateName, field, "duplicate feature name %q", f.Name)
			}
			seen[f.Name] = true
		}
		v.feature(f, field)
	}

	v.correlations(cfg)
	v.target(cfg)
	v.columns(cfg)

	return v.violations
}

// columns checks the projected output schema: base features, derived lag
// columns, and the target must all land on distinct column names. Duplicate
// feature names and target-vs-feature collisions are reported elsewhere; this
// catches collisions involving lag columns.
func (v *validator) columns(cfg *Config) {
	features := map[string]bool{}
	for _, f := range cfg.Features {
		features[f.Name] = true
	}

	lagOwner := map[string]string{}
	for _, f := range cfg.Features {
		if f.Name == "" {
			continue
		}
		field := fmt.Sprintf("features.%s.lags", f.Name)
		for _, lag := range f.Lags {
			if lag <= 0 {
				continue
			}
			name := LagColumnName(f.Name, lag)
			if features[name] {
				v.errorf(KindDuplicateName, field, "lag column %q collides with a declared feature", name)
				continue
			}
			if owner, ok := lagOwner[name]; ok {
				v.errorf(KindDuplicateName, field, "lag column %q collides with a lag column of %q", name, owner)
				continue
			}
			lagOwner[name] = f.Name
		}
	}

	if owner, ok := lagOwner[cfg.Target.Name]; ok {
		v.errorf(KindDuplicateName, "target.name", "target name %q collides with a lag column of %q", cfg.Target.Name, owner)
	}
}

type validator struct {
	violations []Violation
}

func (v *validator) errorf(kind, field, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Kind:     kind,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

func (v *validator) warnf(kind, field, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Kind:     kind,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

func (v *validator) feature(f *Feature, field string) {
	if f.Name == "" {
		v.errorf(KindMissingField, field, "feature name is required")
	} else if !identRe.MatchString(f.Name) {
		v.errorf(KindInvalidName, field, "invalid feature name %q", f.Name)
	}

	switch f.DataType {
	case TypeFloat, TypeInt, TypeCategorical, TypeDatetime:
	case "":
		v.errorf(KindMissingField, field+".data_type", "data_type is required")
	default:
		v.errorf(KindInvalidValue, field+".data_type", "invalid data_type %q (want float, int, categorical, or datetime)", f.DataType)
	}

	v.distribution(&f.Distribution, f.DataType, field+".distribution")

	if f.DataType == TypeCategorical {
		if len(f.Categories) == 0 {
			v.errorf(KindCategoryCount, field+".categories", "categorical feature requires a categories array")
		} else if len(f.Categories) != CategoryCount {
			v.errorf(KindCategoryCount, field+".categories", "categories array must have exactly %d labels, got %d", CategoryCount, len(f.Categories))
		}
	} else if len(f.Categories) > 0 {
		v.errorf(KindInvalidValue, field+".categories", "categories are only valid on categorical features")
	}

	v.rate(f.MissingRate, field+".missing_rate")
	v.rate(f.OutlierRate, field+".outlier_rate")
	v.outlierMethod(f.OutlierRate, f.OutlierMethod, f.OutlierMultiplier, field)

	for _, lag := range f.Lags {
		if lag <= 0 {
			v.errorf(KindInvalidValue, field+".lags", "lag offsets must be positive integers, got %d", lag)
		}
	}
	if len(f.Lags) > 0 && (f.DataType == TypeCategorical || f.DataType == TypeDatetime) {
		v.errorf(KindInvalidValue, field+".lags", "lags are only valid on numeric features")
	}
}

func (v *validator) rate(rate float64, field string) {
	if rate < 0 || rate > 1 {
		v.errorf(KindInvalidValue, field, "rate must be between 0 and 1, got %g", rate)
	}
}

func (v *validator) outlierMethod(rate float64, method OutlierMethod, multiplier float64, field string) {
	if rate <= 0 {
		return
	}
	switch method {
	case "", OutlierHigh, OutlierLow, OutlierBoth:
	default:
		v.errorf(KindInvalidValue, field+".outlier_method", "invalid outlier_method %q (want extreme_high, extreme_low, or extreme_both)", method)
	}
	if multiplier < 0 {
		v.errorf(KindInvalidValue, field+".outlier_multiplier", "outlier_multiplier must be non-negative, got %g", multiplier)
	}
}

func (v *validator) distribution(d *Distribution, dataType DataType, field string) {
	if d.Type == "" {
		v.errorf(KindMissingField, field+".type", "distribution type is required")
		return
	}

	// Datetime column type and sequential_datetime distribution imply each
	// other.
	if dataType == TypeDatetime && d.Type != DistSequentialDatetime {
		v.errorf(KindInvalidValue, field, "datetime data_type requires distribution type sequential_datetime")
	}
	if d.Type == DistSequentialDatetime && dataType != TypeDatetime && dataType != "" {
		v.errorf(KindInvalidValue, field, "sequential_datetime distribution requires data_type datetime")
	}

	switch d.Type {
	case DistUniform:
		if d.Min == nil || d.Max == nil {
			v.errorf(KindMissingParameter, field, "uniform requires min and max")
		} else if *d.Min >= *d.Max {
			v.errorf(KindInvalidParameter, field, "uniform min (%g) must be less than max (%g)", *d.Min, *d.Max)
		}
	case DistNormal:
		if d.Mean == nil || d.Std == nil {
			v.errorf(KindMissingParameter, field, "normal requires mean and std")
		} else if *d.Std < 0 {
			v.errorf(KindInvalidParameter, field, "normal std must be non-negative, got %g", *d.Std)
		}
		if d.MinClip != nil && d.MaxClip != nil && *d.MinClip > *d.MaxClip {
			v.errorf(KindInvalidParameter, field, "min_clip (%g) must not exceed max_clip (%g)", *d.MinClip, *d.MaxClip)
		}
	case DistWeibull:
		if d.Shape == nil || d.Scale == nil {
			v.errorf(KindMissingParameter, field, "weibull requires shape and scale")
		} else if *d.Shape <= 0 || *d.Scale <= 0 {
			v.errorf(KindInvalidParameter, field, "weibull shape and scale must be positive, got shape=%g scale=%g", *d.Shape, *d.Scale)
		}
	case DistRandomWalk:
		if d.Start == nil || d.StepSize == nil {
			v.errorf(KindMissingParameter, field, "random_walk requires start and step_size")
		} else if *d.StepSize <= 0 {
			v.errorf(KindInvalidParameter, field, "random_walk step_size must be positive, got %g", *d.StepSize)
		}
	case DistSequential:
		if d.Start == nil || d.Step == nil {
			v.errorf(KindMissingParameter, field, "sequential requires start and step")
		} else if *d.Step == 0 {
			v.errorf(KindInvalidParameter, field, "sequential step cannot be zero")
		}
	case DistSequentialDatetime:
		if d.StartDate == "" {
			v.errorf(KindMissingParameter, field, "sequential_datetime requires start (ISO datetime string)")
		} else if _, err := d.StartTime(); err != nil {
			v.errorf(KindInvalidParameter, field, "%v", err)
		}
		switch d.Interval {
		case IntervalHourly, IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
		case "":
			v.errorf(KindMissingParameter, field, "sequential_datetime requires interval")
		default:
			v.errorf(KindInvalidParameter, field, "invalid interval %q (want hourly, daily, weekly, monthly, quarterly, or yearly)", d.Interval)
		}
	default:
		v.errorf(KindUnknownDistribution, field+".type", "unknown distribution type %q", d.Type)
	}
}

// correlatable reports whether a feature may appear in a correlation spec.
// Deterministic progressions (sequential kinds) and datetime columns carry no
// reorderable randomness.
func correlatable(f *Feature) bool {
	switch f.Distribution.Type {
	case DistSequential, DistSequentialDatetime:
		return false
	}
	return f.DataType != TypeDatetime
}

func (v *validator) correlations(cfg *Config) {
	type pairKey struct{ a, b string }
	seen := map[pairKey]bool{}

	for i, c := range cfg.Correlations {
		field := fmt.Sprintf("correlations[%d]", i)

		if c.FeatureA == "" || c.FeatureB == "" {
			v.errorf(KindMissingField, field, "correlation requires feature_a and feature_b")
			continue
		}
		if c.FeatureA == c.FeatureB {
			v.errorf(KindInvalidCorrelation, field, "correlation pairs a feature with itself (%q)", c.FeatureA)
			continue
		}
		for _, name := range []string{c.FeatureA, c.FeatureB} {
			f := cfg.Feature(name)
			if f == nil {
				v.errorf(KindUnknownFeature, field, "unknown feature %q", name)
			} else if !correlatable(f) {
				v.errorf(KindInvalidCorrelation, field, "feature %q cannot be correlated: %s features follow a fixed progression", name, f.Distribution.Type)
			}
		}
		if c.Coefficient < -1 || c.Coefficient > 1 {
			v.errorf(KindInvalidCorrelation, field, "coefficient must be between -1 and 1, got %g", c.Coefficient)
		}

		key := pairKey{a: c.FeatureA, b: c.FeatureB}
		if key.a > key.b {
			key.a, key.b = key.b, key.a
		}
		if seen[key] {
			v.errorf(KindInvalidCorrelation, field, "duplicate correlation pair (%s, %s)", key.a, key.b)
		}
		seen[key] = true
	}
}

func (v *validator) target(cfg *Config) {
	t := &cfg.Target
	field := "target"

	if t.Name == "" {
		v.errorf(KindMissingField, field+".name", "target name is required")
	} else if !identRe.MatchString(t.Name) {
		v.errorf(KindInvalidName, field+".name", "invalid target name %q", t.Name)
	} else if cfg.Feature(t.Name) != nil {
		v.errorf(KindDuplicateName, field+".name", "target name %q collides with a feature", t.Name)
	}

	switch t.DataType {
	case TypeFloat, TypeInt, TypeCategorical:
	case "":
		v.errorf(KindMissingField, field+".data_type", "target data_type is required")
	default:
		v.errorf(KindInvalidValue, field+".data_type", "invalid target data_type %q (want float, int, or categorical)", t.DataType)
	}

	if t.DataType == TypeCategorical {
		if len(t.Categories) != CategoryCount {
			v.errorf(KindCategoryCount, field+".categories", "categories array must have exactly %d labels, got %d", CategoryCount, len(t.Categories))
		}
	}

	if t.Expression == "" {
		v.errorf(KindMissingField, field+".expression", "target expression is required")
	} else {
		v.expression(cfg, t.Expression, field+".expression")
	}

	if t.NoisePercent < 0 || t.NoisePercent > 100 {
		v.errorf(KindInvalidValue, field+".noise_percent", "noise_percent must be between 0 and 100, got %g", t.NoisePercent)
	}

	v.seasonality(t.SeasonalityMultipliers, field+".seasonality_multipliers")
	v.seasonality(t.SecondarySeasonalityMultipliers, field+".secondary_seasonality_multipliers")

	v.rate(t.MissingRate, field+".missing_rate")
	v.rate(t.OutlierRate, field+".outlier_rate")
	v.outlierMethod(t.OutlierRate, t.OutlierMethod, t.OutlierMultiplier, field)
}

func (v *validator) expression(cfg *Config, src, field string) {
	scope := cfg.ExpressionScope()

	// Report unknown references even when the expression has syntax errors,
	// using the token scan; then report the syntax error from a real parse.
	var unknown []string
	for _, name := range expr.Identifiers(src) {
		if !scope[name] && !expr.IsFunction(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		v.errorf(KindUnknownFeature, field, "expression references undeclared features: %s", strings.Join(unknown, ", "))
	}

	if _, err := expr.Parse(src); err != nil {
		v.errorf(KindInvalidExpression, field, "%v", err)
	}
}

func (v *validator) seasonality(multipliers []float64, field string) {
	if multipliers == nil {
		return
	}
	if len(multipliers) == 0 {
		v.errorf(KindSeasonality, field, "multiplier array must not be empty")
		return
	}
	for i, m := range multipliers {
		if m <= 0 {
			v.errorf(KindSeasonality, field, "multiplier[%d] must be positive, got %g", i, m)
		}
	}
	if len(multipliers) > seasonalityFlagLength {
		v.warnf(KindSeasonality, field, "period of %d entries looks like a data-entry mistake; longest calendar cycle is %d", len(multipliers), seasonalityFlagLength)
	}
}
