package spec

import (
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

// baseConfig returns a minimal valid cross-sectional config that individual
// tests mutate to provoke violations.
func baseConfig() *Config {
	return &Config{
		Name:       "weather",
		NRows:      100,
		RandomSeed: 42,
		Features: []Feature{
			{
				Name:     "temperature",
				DataType: TypeFloat,
				Distribution: Distribution{
					Type: DistNormal,
					Mean: f64(20),
					Std:  f64(5),
				},
			},
			{
				Name:     "humidity",
				DataType: TypeFloat,
				Distribution: Distribution{
					Type: DistUniform,
					Min:  f64(0),
					Max:  f64(1),
				},
			},
		},
		Target: Target{
			Name:       "energy_use",
			DataType:   TypeFloat,
			Expression: "temperature*2+100",
		},
	}
}

func tenCategories() []string {
	return []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9"}
}

func TestValidateAccepts(t *testing.T) {
	cfg := baseConfig()
	if violations := Validate(cfg); len(violations) != 0 {
		t.Fatalf("Validate returned violations for a valid config: %v", violations)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantKind string
	}{
		{
			name:     "missing name",
			mutate:   func(c *Config) { c.Name = "" },
			wantKind: KindMissingField,
		},
		{
			name:     "name with spaces",
			mutate:   func(c *Config) { c.Name = "my dataset" },
			wantKind: KindInvalidName,
		},
		{
			name:     "zero rows",
			mutate:   func(c *Config) { c.NRows = 0 },
			wantKind: KindInvalidValue,
		},
		{
			name:     "no features",
			mutate:   func(c *Config) { c.Features = nil },
			wantKind: KindMissingField,
		},
		{
			name: "duplicate feature names",
			mutate: func(c *Config) {
				c.Features = append(c.Features, c.Features[0])
			},
			wantKind: KindDuplicateName,
		},
		{
			name: "negative std",
			mutate: func(c *Config) {
				c.Features[0].Distribution.Std = f64(-1)
			},
			wantKind: KindInvalidParameter,
		},
		{
			name: "uniform min above max",
			mutate: func(c *Config) {
				c.Features[1].Distribution.Min = f64(2)
			},
			wantKind: KindInvalidParameter,
		},
		{
			name: "weibull non-positive shape",
			mutate: func(c *Config) {
				c.Features[0].Distribution = Distribution{
					Type:  DistWeibull,
					Shape: f64(0),
					Scale: f64(1),
				}
			},
			wantKind: KindInvalidParameter,
		},
		{
			name: "unknown distribution",
			mutate: func(c *Config) {
				c.Features[0].Distribution.Type = "poisson"
			},
			wantKind: KindUnknownDistribution,
		},
		{
			name: "categorical with nine categories",
			mutate: func(c *Config) {
				c.Features[0].DataType = TypeCategorical
				c.Features[0].Categories = tenCategories()[:9]
			},
			wantKind: KindCategoryCount,
		},
		{
			name: "datetime without sequential_datetime",
			mutate: func(c *Config) {
				c.Features[0].DataType = TypeDatetime
			},
			wantKind: KindInvalidValue,
		},
		{
			name: "correlation with unknown feature",
			mutate: func(c *Config) {
				c.Correlations = []Correlation{{FeatureA: "temperature", FeatureB: "pressure", Coefficient: 0.5}}
			},
			wantKind: KindUnknownFeature,
		},
		{
			name: "correlation self pair",
			mutate: func(c *Config) {
				c.Correlations = []Correlation{{FeatureA: "temperature", FeatureB: "temperature", Coefficient: 0.5}}
			},
			wantKind: KindInvalidCorrelation,
		},
		{
			name: "correlation duplicate pair",
			mutate: func(c *Config) {
				c.Correlations = []Correlation{
					{FeatureA: "temperature", FeatureB: "humidity", Coefficient: 0.5},
					{FeatureA: "humidity", FeatureB: "temperature", Coefficient: -0.2},
				}
			},
			wantKind: KindInvalidCorrelation,
		},
		{
			name: "correlation coefficient out of range",
			mutate: func(c *Config) {
				c.Correlations = []Correlation{{FeatureA: "temperature", FeatureB: "humidity", Coefficient: 1.5}}
			},
			wantKind: KindInvalidCorrelation,
		},
		{
			name: "expression references undeclared feature",
			mutate: func(c *Config) {
				c.Target.Expression = "temperature + wind_speed"
			},
			wantKind: KindUnknownFeature,
		},
		{
			name: "expression syntax error",
			mutate: func(c *Config) {
				c.Target.Expression = "temperature * "
			},
			wantKind: KindInvalidExpression,
		},
		{
			name: "target name collides with feature",
			mutate: func(c *Config) {
				c.Target.Name = "temperature"
			},
			wantKind: KindDuplicateName,
		},
		{
			name: "non-positive seasonality multiplier",
			mutate: func(c *Config) {
				c.Target.SeasonalityMultipliers = []float64{1.2, 0, 0.8}
			},
			wantKind: KindSeasonality,
		},
		{
			name: "missing rate out of range",
			mutate: func(c *Config) {
				c.Features[0].MissingRate = 1.5
			},
			wantKind: KindInvalidValue,
		},
		{
			name: "negative lag",
			mutate: func(c *Config) {
				c.Features[0].Lags = []int{-1}
			},
			wantKind: KindInvalidValue,
		},
		{
			name: "noise percent out of range",
			mutate: func(c *Config) {
				c.Target.NoisePercent = 150
			},
			wantKind: KindInvalidValue,
		},
		{
			name: "feature collides with lag column",
			mutate: func(c *Config) {
				c.Features[0].Lags = []int{1}
				c.Features[1].Name = "temperature_lag1"
			},
			wantKind: KindDuplicateName,
		},
		{
			name: "target collides with lag column",
			mutate: func(c *Config) {
				c.Features[0].Lags = []int{1}
				c.Target.Name = "temperature_lag1"
			},
			wantKind: KindDuplicateName,
		},
		{
			name: "repeated lag offset",
			mutate: func(c *Config) {
				c.Features[0].Lags = []int{1, 1}
			},
			wantKind: KindDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			violations := Errors(Validate(cfg))
			if len(violations) == 0 {
				t.Fatal("Validate accepted an invalid config")
			}
			found := false
			for _, v := range violations {
				if v.Kind == tt.wantKind {
					found = true
				}
			}
			if !found {
				t.Errorf("no violation of kind %q in %v", tt.wantKind, violations)
			}
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := baseConfig()
	cfg.Name = ""
	cfg.NRows = -5
	cfg.Features[0].Distribution.Std = f64(-1)
	cfg.Target.Expression = "nope + 1"

	violations := Errors(Validate(cfg))
	if len(violations) < 4 {
		t.Errorf("expected at least 4 violations, got %d: %v", len(violations), violations)
	}
}

func TestValidateCategoricalFeatureIdentified(t *testing.T) {
	cfg := baseConfig()
	cfg.Features[0].DataType = TypeCategorical
	cfg.Features[0].Categories = []string{"low", "high"}

	violations := Errors(Validate(cfg))
	found := false
	for _, v := range violations {
		if v.Kind == KindCategoryCount && strings.Contains(v.Field, "temperature") {
			found = true
		}
	}
	if !found {
		t.Errorf("violation does not identify the offending feature: %v", violations)
	}
}

func TestValidateSeasonalityLengthWarning(t *testing.T) {
	cfg := baseConfig()
	long := make([]float64, 500)
	for i := range long {
		long[i] = 1
	}
	cfg.Target.SeasonalityMultipliers = long

	violations := Validate(cfg)
	if len(Errors(violations)) != 0 {
		t.Errorf("long seasonality array must flag, not reject: %v", Errors(violations))
	}
	if len(Warnings(violations)) == 0 {
		t.Error("expected a warning for a 500-entry seasonality array")
	}
}

func TestValidateCorrelationOnSequentialRejected(t *testing.T) {
	cfg := baseConfig()
	cfg.Features[1] = Feature{
		Name:     "day_index",
		DataType: TypeFloat,
		Distribution: Distribution{
			Type:  DistSequential,
			Start: f64(0),
			Step:  f64(1),
		},
	}
	cfg.Correlations = []Correlation{{FeatureA: "temperature", FeatureB: "day_index", Coefficient: 0.7}}

	if violations := Errors(Validate(cfg)); len(violations) == 0 {
		t.Error("correlating a sequential feature must be rejected")
	}
}

func TestTimeSeriesClassification(t *testing.T) {
	cfg := baseConfig()
	if cfg.TimeSeries() {
		t.Error("config without sequential_datetime classified as time-series")
	}
	cfg.Features = append(cfg.Features, Feature{
		Name:     "date",
		DataType: TypeDatetime,
		Distribution: Distribution{
			Type:      DistSequentialDatetime,
			StartDate: "2024-01-01",
			Interval:  IntervalDaily,
		},
	})
	if !cfg.TimeSeries() {
		t.Error("config with sequential_datetime not classified as time-series")
	}
}

func TestColumnNamesOrder(t *testing.T) {
	cfg := baseConfig()
	cfg.Features[0].Lags = []int{1, 7}

	got := cfg.ColumnNames()
	want := []string{"temperature", "humidity", "temperature_lag1", "temperature_lag7", "energy_use"}
	if len(got) != len(want) {
		t.Fatalf("ColumnNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ColumnNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpressionMayReferenceLagColumns(t *testing.T) {
	cfg := baseConfig()
	cfg.Features[0].Lags = []int{7}
	cfg.Target.Expression = "temperature_lag7 * 2"

	if violations := Errors(Validate(cfg)); len(violations) != 0 {
		t.Errorf("lag column reference rejected: %v", violations)
	}
}
