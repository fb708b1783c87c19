// Package spec defines the dataset configuration model and its validation.
// A Config is decoded from a JSON or YAML definition file, validated in
// aggregate, and treated as immutable by everything downstream.
package spec

import (
	"fmt"
	"time"
)

// DataType is the declared column type of a feature or target.
type DataType string

const (
	TypeFloat       DataType = "float"
	TypeInt         DataType = "int"
	TypeCategorical DataType = "categorical"
	TypeDatetime    DataType = "datetime"
)

// DistKind identifies a distribution variant. The set is closed: every
// consumer switches exhaustively and treats anything else as a validator
// defect.
type DistKind string

const (
	DistUniform            DistKind = "uniform"
	DistNormal             DistKind = "normal"
	DistWeibull            DistKind = "weibull"
	DistRandomWalk         DistKind = "random_walk"
	DistSequential         DistKind = "sequential"
	DistSequentialDatetime DistKind = "sequential_datetime"
)

// Interval is the calendar step of a sequential_datetime feature.
type Interval string

const (
	IntervalHourly    Interval = "hourly"
	IntervalDaily     Interval = "daily"
	IntervalWeekly    Interval = "weekly"
	IntervalMonthly   Interval = "monthly"
	IntervalQuarterly Interval = "quarterly"
	IntervalYearly    Interval = "yearly"
)

// OutlierMethod selects where injected outliers land relative to the IQR.
type OutlierMethod string

const (
	OutlierHigh OutlierMethod = "extreme_high"
	OutlierLow  OutlierMethod = "extreme_low"
	OutlierBoth OutlierMethod = "extreme_both"
)

// CategoryCount is the required number of labels for categorical columns.
// Values are mapped onto equal-frequency deciles, so the label count is fixed.
const CategoryCount = 10

// Config is a full dataset definition. Immutable once validated; owned by a
// single generation run.
type Config struct {
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	NRows        int           `json:"n_rows" yaml:"n_rows"`
	RandomSeed   int64         `json:"random_seed" yaml:"random_seed"`
	Features     []Feature     `json:"features" yaml:"features"`
	Correlations []Correlation `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Target       Target        `json:"target" yaml:"target"`
}

// Feature declares one base column of the dataset.
type Feature struct {
	Name         string       `json:"name" yaml:"name"`
	DataType     DataType     `json:"data_type" yaml:"data_type"`
	Distribution Distribution `json:"distribution" yaml:"distribution"`

	// Lags lists positive row offsets; each produces a derived
	// "<name>_lag<k>" column.
	Lags []int `json:"lags,omitempty" yaml:"lags,omitempty"`

	// Categories holds exactly CategoryCount labels for categorical features.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	MissingRate       float64       `json:"missing_rate,omitempty" yaml:"missing_rate,omitempty"`
	OutlierRate       float64       `json:"outlier_rate,omitempty" yaml:"outlier_rate,omitempty"`
	OutlierMethod     OutlierMethod `json:"outlier_method,omitempty" yaml:"outlier_method,omitempty"`
	OutlierMultiplier float64       `json:"outlier_multiplier,omitempty" yaml:"outlier_multiplier,omitempty"`
}

// Distribution is the tagged variant over distribution kinds. Only the fields
// for the declared Type are meaningful; pointer fields distinguish "absent"
// from zero. The "start" key is polymorphic on the wire (number for
// sequential/random_walk, ISO-8601 string for sequential_datetime), so
// decoding goes through custom unmarshalers in decode.go.
type Distribution struct {
	Type DistKind

	// uniform
	Min *float64
	Max *float64

	// normal
	Mean    *float64
	Std     *float64
	MinClip *float64
	MaxClip *float64

	// weibull
	Shape    *float64
	Scale    *float64
	Location *float64

	// random_walk, sequential
	Start    *float64
	Step     *float64
	StepSize *float64
	Drift    *float64

	// sequential_datetime
	StartDate string
	Interval  Interval
}

// Correlation requests a pairwise Pearson coefficient between two features.
type Correlation struct {
	FeatureA    string  `json:"feature_a" yaml:"feature_a"`
	FeatureB    string  `json:"feature_b" yaml:"feature_b"`
	Coefficient float64 `json:"coefficient" yaml:"coefficient"`
}

// Target declares the synthesized target column.
type Target struct {
	Name       string   `json:"name" yaml:"name"`
	DataType   DataType `json:"data_type" yaml:"data_type"`
	Expression string   `json:"expression" yaml:"expression"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// SeasonalityMultipliers cycle over rows (index t mod len) and scale the
	// raw target before noise. Secondary applies a second, independent cycle.
	SeasonalityMultipliers          []float64 `json:"seasonality_multipliers,omitempty" yaml:"seasonality_multipliers,omitempty"`
	SecondarySeasonalityMultipliers []float64 `json:"secondary_seasonality_multipliers,omitempty" yaml:"secondary_seasonality_multipliers,omitempty"`

	// NoisePercent sets the injected noise std as a percentage of the target's
	// finite value range.
	NoisePercent float64 `json:"noise_percent,omitempty" yaml:"noise_percent,omitempty"`

	MissingRate       float64       `json:"missing_rate,omitempty" yaml:"missing_rate,omitempty"`
	OutlierRate       float64       `json:"outlier_rate,omitempty" yaml:"outlier_rate,omitempty"`
	OutlierMethod     OutlierMethod `json:"outlier_method,omitempty" yaml:"outlier_method,omitempty"`
	OutlierMultiplier float64       `json:"outlier_multiplier,omitempty" yaml:"outlier_multiplier,omitempty"`
}

// LagColumnName builds the derived column name for a lagged feature.
func LagColumnName(feature string, lag int) string {
	return fmt.Sprintf("%s_lag%d", feature, lag)
}

// TimeSeries reports whether the config describes a time-series run: one with
// at least one sequential_datetime feature. The classification is fixed for
// the whole run.
func (c *Config) TimeSeries() bool {
	for _, f := range c.Features {
		if f.Distribution.Type == DistSequentialDatetime {
			return true
		}
	}
	return false
}

// Feature returns the named feature spec, or nil.
func (c *Config) Feature(name string) *Feature {
	for i := range c.Features {
		if c.Features[i].Name == name {
			return &c.Features[i]
		}
	}
	return nil
}

// ColumnNames returns every name the generated table will carry: base features
// in declared order, then lag columns, then the target.
func (c *Config) ColumnNames() []string {
	names := make([]string, 0, len(c.Features)+1)
	for _, f := range c.Features {
		names = append(names, f.Name)
	}
	for _, f := range c.Features {
		for _, lag := range f.Lags {
			names = append(names, LagColumnName(f.Name, lag))
		}
	}
	return append(names, c.Target.Name)
}

// ExpressionScope returns the names an expression may reference: base numeric
// features plus their lag columns. Datetime and categorical features are
// excluded; they carry no numeric value at synthesis time.
func (c *Config) ExpressionScope() map[string]bool {
	scope := make(map[string]bool)
	for _, f := range c.Features {
		if f.DataType == TypeDatetime || f.DataType == TypeCategorical {
			continue
		}
		scope[f.Name] = true
		for _, lag := range f.Lags {
			scope[LagColumnName(f.Name, lag)] = true
		}
	}
	return scope
}

// StartTime parses the sequential_datetime start. Accepts a date or a full
// RFC 3339 timestamp.
func (d *Distribution) StartTime() (time.Time, error) {
	if t, err := time.Parse("2006-01-02", d.StartDate); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", d.StartDate); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, d.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %q: use ISO format such as 2024-01-01 or 2024-01-01T00:00:00", d.StartDate)
	}
	return t, nil
}
