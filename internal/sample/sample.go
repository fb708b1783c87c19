// Package sample draws raw per-feature value sequences from configured
// distributions. For a cross-sectional run every random feature is sampled
// independently per row. For a time-series run (any run with a
// sequential_datetime feature) random features instead follow a
// difference-based construction: one starting value from the full
// distribution, then n-1 small deltas from a scaled-down version of the same
// family, accumulated into a path. Sampling each point independently would
// give unrealistic point-to-point jumps; accumulating small increments gives
// the smooth trajectories real time series have.
package sample

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/syngen-dev/syngen/internal/rng"
	"github.com/syngen-dev/syngen/internal/spec"
	"github.com/syngen-dev/syngen/internal/table"
)

// Delta scale factors for the time-series construction. Deltas come from the
// feature's own distribution family, shrunk so one step moves a small
// fraction of the configured spread.
const (
	// normalDeltaScale shrinks a normal feature's std to 5% for deltas.
	normalDeltaScale = 0.05
	// uniformDeltaScale sizes uniform deltas at 2% of the configured width.
	uniformDeltaScale = 0.02
	// weibullDeltaScale shrinks weibull deltas to 5% of the scale parameter.
	weibullDeltaScale = 0.05
)

// ParameterError reports a malformed distribution reaching the sampler. The
// validator guarantees this never happens for a validated config; hitting it
// means a defect upstream, so generation fails fatally.
type ParameterError struct {
	Feature string
	Kind    spec.DistKind
	Detail  string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("feature %q: bad %s distribution: %s", e.Feature, e.Kind, e.Detail)
}

// Features samples every feature of cfg into a new table, in declared order,
// drawing from the run's stream. Categorical features are sampled numerically
// here and mapped to labels later in the pipeline.
func Features(cfg *spec.Config, stream *rng.Stream) (*table.Table, error) {
	tbl := table.New(cfg.NRows)
	timeSeries := cfg.TimeSeries()

	for i := range cfg.Features {
		f := &cfg.Features[i]
		if f.Distribution.Type == spec.DistSequentialDatetime {
			times, err := datetimeSequence(f, cfg.NRows)
			if err != nil {
				return nil, err
			}
			if err := tbl.AddDatetime(f.Name, times); err != nil {
				return nil, err
			}
			continue
		}

		values, err := Feature(f, cfg.NRows, timeSeries, stream)
		if err != nil {
			return nil, err
		}
		if err := tbl.AddNumeric(f.Name, values); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// Feature samples one numeric feature. Sequential and random_walk features
// are inherently ordered and ignore the timeSeries flag; uniform, normal, and
// weibull features switch between direct and difference-based construction.
func Feature(f *spec.Feature, n int, timeSeries bool, stream *rng.Stream) ([]float64, error) {
	d := &f.Distribution
	switch d.Type {
	case spec.DistUniform:
		if d.Min == nil || d.Max == nil {
			return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: "min and max required"}
		}
		return uniform(*d.Min, *d.Max, n, timeSeries, stream), nil

	case spec.DistNormal:
		if d.Mean == nil || d.Std == nil {
			return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: "mean and std required"}
		}
		values := normal(*d.Mean, *d.Std, n, timeSeries, stream)
		clip(values, d.MinClip, d.MaxClip)
		return values, nil

	case spec.DistWeibull:
		if d.Shape == nil || d.Scale == nil || *d.Shape <= 0 || *d.Scale <= 0 {
			return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: "positive shape and scale required"}
		}
		location := 0.0
		if d.Location != nil {
			location = *d.Location
		}
		return weibull(*d.Shape, *d.Scale, location, n, timeSeries, stream), nil

	case spec.DistRandomWalk:
		if d.Start == nil || d.StepSize == nil {
			return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: "start and step_size required"}
		}
		drift := 0.0
		if d.Drift != nil {
			drift = *d.Drift
		}
		return randomWalk(*d.Start, *d.StepSize, drift, n, stream), nil

	case spec.DistSequential:
		if d.Start == nil || d.Step == nil {
			return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: "start and step required"}
		}
		return sequence(*d.Start, *d.Step, n), nil
	}

	return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: "unknown distribution kind"}
}

func uniform(low, high float64, n int, timeSeries bool, stream *rng.Stream) []float64 {
	values := make([]float64, n)
	if !timeSeries {
		for i := range values {
			values[i] = stream.Uniform(low, high)
		}
		return values
	}

	// Start anywhere in the range, then wander in steps of ±1% of the width
	// (2% total span per step).
	width := high - low
	halfStep := width * uniformDeltaScale / 2
	values[0] = stream.Uniform(low, high)
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + stream.Uniform(-halfStep, halfStep)
	}
	return values
}

func normal(mean, std float64, n int, timeSeries bool, stream *rng.Stream) []float64 {
	values := make([]float64, n)
	if std == 0 {
		for i := range values {
			values[i] = mean
		}
		return values
	}

	dist := distuv.Normal{Mu: mean, Sigma: std, Src: stream.Source()}
	if !timeSeries {
		for i := range values {
			values[i] = dist.Rand()
		}
		return values
	}

	delta := distuv.Normal{Mu: 0, Sigma: std * normalDeltaScale, Src: stream.Source()}
	values[0] = dist.Rand()
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + delta.Rand()
	}
	return values
}

func weibull(shape, scale, location float64, n int, timeSeries bool, stream *rng.Stream) []float64 {
	values := make([]float64, n)
	dist := distuv.Weibull{K: shape, Lambda: scale, Src: stream.Source()}
	if !timeSeries {
		for i := range values {
			values[i] = location + dist.Rand()
		}
		return values
	}

	// Deltas: centered unit-scale weibull draws, shrunk to a fraction of the
	// configured scale. Subtracting the unit mean keeps the path driftless.
	unit := distuv.Weibull{K: shape, Lambda: 1, Src: stream.Source()}
	unitMean := math.Gamma(1 + 1/shape)
	values[0] = location + dist.Rand()
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + scale*weibullDeltaScale*(unit.Rand()-unitMean)
	}
	return values
}

func randomWalk(start, stepSize, drift float64, n int, stream *rng.Stream) []float64 {
	// Already delta-based: accumulate uniform steps regardless of run kind.
	values := make([]float64, n)
	sum := 0.0
	for i := range values {
		sum += stream.Uniform(-stepSize, stepSize) + drift
		values[i] = start + sum
	}
	return values
}

func sequence(start, step float64, n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values
}

func clip(values []float64, minClip, maxClip *float64) {
	if minClip == nil && maxClip == nil {
		return
	}
	for i, v := range values {
		if minClip != nil && v < *minClip {
			values[i] = *minClip
		}
		if maxClip != nil && v > *maxClip {
			values[i] = *maxClip
		}
	}
}

func datetimeSequence(f *spec.Feature, n int) ([]time.Time, error) {
	d := &f.Distribution
	start, err := d.StartTime()
	if err != nil {
		return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: err.Error()}
	}

	times := make([]time.Time, n)
	cur := start
	for i := 0; i < n; i++ {
		times[i] = cur
		switch d.Interval {
		case spec.IntervalHourly:
			cur = cur.Add(time.Hour)
		case spec.IntervalDaily:
			cur = cur.AddDate(0, 0, 1)
		case spec.IntervalWeekly:
			cur = cur.AddDate(0, 0, 7)
		case spec.IntervalMonthly:
			cur = cur.AddDate(0, 1, 0)
		case spec.IntervalQuarterly:
			cur = cur.AddDate(0, 3, 0)
		case spec.IntervalYearly:
			cur = cur.AddDate(1, 0, 0)
		default:
			return nil, &ParameterError{Feature: f.Name, Kind: d.Type, Detail: fmt.Sprintf("unknown interval %q", d.Interval)}
		}
	}
	return times, nil
}
