package lag

import (
	"math"
	"testing"

	"github.com/syngen-dev/syngen/internal/spec"
	"github.com/syngen-dev/syngen/internal/table"
)

func TestShift(t *testing.T) {
	got := Shift([]float64{10, 20, 30, 40, 50}, 2)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("leading rows not NaN: %v", got[:2])
	}
	want := []float64{10, 20, 30}
	for i, w := range want {
		if got[i+2] != w {
			t.Errorf("got[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
}

func TestShiftOffsetBeyondLength(t *testing.T) {
	got := Shift([]float64{1, 2}, 5)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Errorf("got[%d] = %v, want NaN", i, v)
		}
	}
}

func TestExpand(t *testing.T) {
	tbl := table.New(5)
	if err := tbl.AddNumeric("temperature", []float64{1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddNumeric("humidity", []float64{9, 8, 7, 6, 5}); err != nil {
		t.Fatal(err)
	}

	features := []spec.Feature{
		{Name: "temperature", Lags: []int{1, 3}},
		{Name: "humidity"},
	}
	if err := Expand(tbl, features); err != nil {
		t.Fatal(err)
	}

	names := tbl.Names()
	want := []string{"temperature", "humidity", "temperature_lag1", "temperature_lag3"}
	if len(names) != len(want) {
		t.Fatalf("columns %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	// Lag correctness: row i >= k matches source row i-k.
	src := tbl.Column("temperature").Floats
	for _, k := range []int{1, 3} {
		lagged := tbl.Column(spec.LagColumnName("temperature", k)).Floats
		for i := k; i < len(lagged); i++ {
			if lagged[i] != src[i-k] {
				t.Errorf("lag%d[%d] = %v, want %v", k, i, lagged[i], src[i-k])
			}
		}
		for i := 0; i < k; i++ {
			if !math.IsNaN(lagged[i]) {
				t.Errorf("lag%d[%d] = %v, want NaN", k, i, lagged[i])
			}
		}
	}
}

func TestExpandRejectsNonNumericSource(t *testing.T) {
	tbl := table.New(2)
	if err := tbl.AddCategorical("c", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if err := Expand(tbl, []spec.Feature{{Name: "c", Lags: []int{1}}}); err == nil {
		t.Error("lag on a categorical column accepted")
	}
}
