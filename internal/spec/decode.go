package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// envelope matches the on-disk definition layout: the config nests under a
// single dataset_config key.
type envelope struct {
	DatasetConfig *Config `json:"dataset_config" yaml:"dataset_config"`
}

// LoadFile reads and decodes a dataset definition. The format is chosen by
// extension: .json, or .yaml/.yml. The config is decoded but not validated;
// call Validate separately.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	}
	return nil, fmt.Errorf("unsupported definition format %q (want .json, .yaml, or .yml)", filepath.Ext(path))
}

// ParseJSON decodes a JSON definition with the dataset_config envelope.
func ParseJSON(data []byte) (*Config, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing definition: %w", err)
	}
	if env.DatasetConfig == nil {
		return nil, fmt.Errorf("definition missing dataset_config")
	}
	return env.DatasetConfig, nil
}

// ParseYAML decodes a YAML definition with the dataset_config envelope.
func ParseYAML(data []byte) (*Config, error) {
	var env envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing definition: %w", err)
	}
	if env.DatasetConfig == nil {
		return nil, fmt.Errorf("definition missing dataset_config")
	}
	return env.DatasetConfig, nil
}

// distWire is the flat wire form of a Distribution. Start is polymorphic:
// a number for sequential/random_walk, an ISO-8601 string for
// sequential_datetime.
type distWire struct {
	Type     DistKind `json:"type" yaml:"type"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Mean     *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std      *float64 `json:"std,omitempty" yaml:"std,omitempty"`
	MinClip  *float64 `json:"min_clip,omitempty" yaml:"min_clip,omitempty"`
	MaxClip  *float64 `json:"max_clip,omitempty" yaml:"max_clip,omitempty"`
	Shape    *float64 `json:"shape,omitempty" yaml:"shape,omitempty"`
	Scale    *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Location *float64 `json:"location,omitempty" yaml:"location,omitempty"`
	Start    any      `json:"start,omitempty" yaml:"start,omitempty"`
	Step     *float64 `json:"step,omitempty" yaml:"step,omitempty"`
	StepSize *float64 `json:"step_size,omitempty" yaml:"step_size,omitempty"`
	Drift    *float64 `json:"drift,omitempty" yaml:"drift,omitempty"`
	Interval Interval `json:"interval,omitempty" yaml:"interval,omitempty"`
}

func (d *Distribution) fromWire(w distWire) error {
	*d = Distribution{
		Type:     w.Type,
		Min:      w.Min,
		Max:      w.Max,
		Mean:     w.Mean,
		Std:      w.Std,
		MinClip:  w.MinClip,
		MaxClip:  w.MaxClip,
		Shape:    w.Shape,
		Scale:    w.Scale,
		Location: w.Location,
		Step:     w.Step,
		StepSize: w.StepSize,
		Drift:    w.Drift,
		Interval: w.Interval,
	}
	switch start := w.Start.(type) {
	case nil:
	case string:
		d.StartDate = start
	case float64:
		v := start
		d.Start = &v
	case int:
		v := float64(start)
		d.Start = &v
	case int64:
		v := float64(start)
		d.Start = &v
	case json.Number:
		f, err := start.Float64()
		if err != nil {
			return fmt.Errorf("distribution start: %w", err)
		}
		d.Start = &f
	default:
		return fmt.Errorf("distribution start: unsupported value %v (want number or datetime string)", w.Start)
	}
	return nil
}

func (d *Distribution) toWire() distWire {
	w := distWire{
		Type:     d.Type,
		Min:      d.Min,
		Max:      d.Max,
		Mean:     d.Mean,
		Std:      d.Std,
		MinClip:  d.MinClip,
		MaxClip:  d.MaxClip,
		Shape:    d.Shape,
		Scale:    d.Scale,
		Location: d.Location,
		Step:     d.Step,
		StepSize: d.StepSize,
		Drift:    d.Drift,
		Interval: d.Interval,
	}
	if d.StartDate != "" {
		w.Start = d.StartDate
	} else if d.Start != nil {
		w.Start = *d.Start
	}
	return w
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var w distWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return d.fromWire(w)
}

// MarshalJSON implements json.Marshaler.
func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toWire())
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Distribution) UnmarshalYAML(node *yaml.Node) error {
	var w distWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	return d.fromWire(w)
}

// MarshalYAML implements yaml.Marshaler.
func (d Distribution) MarshalYAML() (any, error) {
	return d.toWire(), nil
}
