package spec

import (
	"os"
	"path/filepath"
	"testing"
)

const jsonDefinition = `{
  "dataset_config": {
    "name": "daily_sales",
    "n_rows": 365,
    "random_seed": 7,
    "features": [
      {
        "name": "date",
        "data_type": "datetime",
        "distribution": {"type": "sequential_datetime", "start": "2024-01-01", "interval": "daily"}
      },
      {
        "name": "temperature",
        "data_type": "float",
        "distribution": {"type": "normal", "mean": 20, "std": 5},
        "lags": [7]
      },
      {
        "name": "day_index",
        "data_type": "int",
        "distribution": {"type": "sequential", "start": 1, "step": 1}
      }
    ],
    "correlations": [],
    "target": {
      "name": "sales",
      "data_type": "float",
      "expression": "temperature*2+100",
      "seasonality_multipliers": [0.8, 0.9, 1.0, 1.1, 1.2, 1.3, 1.3, 1.2, 1.1, 1.0, 0.9, 0.8],
      "noise_percent": 5
    }
  }
}`

const yamlDefinition = `
dataset_config:
  name: daily_sales
  n_rows: 365
  random_seed: 7
  features:
    - name: date
      data_type: datetime
      distribution:
        type: sequential_datetime
        start: "2024-01-01"
        interval: daily
    - name: temperature
      data_type: float
      distribution:
        type: normal
        mean: 20
        std: 5
      lags: [7]
    - name: day_index
      data_type: int
      distribution:
        type: sequential
        start: 1
        step: 1
  target:
    name: sales
    data_type: float
    expression: temperature*2+100
    noise_percent: 5
`

func checkDecoded(t *testing.T, cfg *Config) {
	t.Helper()
	if cfg.Name != "daily_sales" || cfg.NRows != 365 || cfg.RandomSeed != 7 {
		t.Errorf("header fields wrong: %+v", cfg)
	}
	if len(cfg.Features) != 3 {
		t.Fatalf("got %d features, want 3", len(cfg.Features))
	}

	date := cfg.Features[0].Distribution
	if date.Type != DistSequentialDatetime || date.StartDate != "2024-01-01" || date.Interval != IntervalDaily {
		t.Errorf("datetime distribution decoded wrong: %+v", date)
	}
	if date.Start != nil {
		t.Error("datetime start leaked into the numeric field")
	}

	temp := cfg.Features[1].Distribution
	if temp.Type != DistNormal || temp.Mean == nil || *temp.Mean != 20 || temp.Std == nil || *temp.Std != 5 {
		t.Errorf("normal distribution decoded wrong: %+v", temp)
	}
	if got := cfg.Features[1].Lags; len(got) != 1 || got[0] != 7 {
		t.Errorf("lags decoded wrong: %v", got)
	}

	seq := cfg.Features[2].Distribution
	if seq.Type != DistSequential || seq.Start == nil || *seq.Start != 1 || seq.Step == nil || *seq.Step != 1 {
		t.Errorf("sequential distribution decoded wrong: %+v", seq)
	}
	if seq.StartDate != "" {
		t.Errorf("numeric start leaked into the datetime field: %q", seq.StartDate)
	}

	if violations := Errors(Validate(cfg)); len(violations) != 0 {
		t.Errorf("decoded definition fails validation: %v", violations)
	}
}

func TestParseJSON(t *testing.T) {
	cfg, err := ParseJSON([]byte(jsonDefinition))
	if err != nil {
		t.Fatal(err)
	}
	checkDecoded(t, cfg)
	if cfg.Target.SeasonalityMultipliers[0] != 0.8 || len(cfg.Target.SeasonalityMultipliers) != 12 {
		t.Errorf("seasonality decoded wrong: %v", cfg.Target.SeasonalityMultipliers)
	}
}

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte(yamlDefinition))
	if err != nil {
		t.Fatal(err)
	}
	checkDecoded(t, cfg)
}

func TestParseJSONMissingEnvelope(t *testing.T) {
	if _, err := ParseJSON([]byte(`{"name": "x"}`)); err == nil {
		t.Error("definition without dataset_config accepted")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "def.json")
	if err := os.WriteFile(jsonPath, []byte(jsonDefinition), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(jsonPath); err != nil {
		t.Errorf("LoadFile(json): %v", err)
	}

	yamlPath := filepath.Join(dir, "def.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlDefinition), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(yamlPath); err != nil {
		t.Errorf("LoadFile(yaml): %v", err)
	}

	if _, err := LoadFile(filepath.Join(dir, "def.txt")); err == nil {
		t.Error("unsupported extension accepted")
	}
}
