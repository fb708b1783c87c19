package expr

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestEval(t *testing.T) {
	vars := map[string]float64{
		"temperature": 20,
		"humidity":    0.5,
		"price":       -3,
	}

	tests := []struct {
		name string
		src  string
		want float64
	}{
		{name: "linear", src: "temperature*2+100", want: 140},
		{name: "precedence", src: "2+3*4", want: 14},
		{name: "parens", src: "(2+3)*4", want: 20},
		{name: "unary minus", src: "-temperature+5", want: -15},
		{name: "power operator", src: "2**10", want: 1024},
		{name: "power right assoc", src: "2**3**2", want: 512},
		{name: "pow function", src: "pow(temperature, 2)", want: 400},
		{name: "nested call", src: "sqrt(abs(price))*2", want: 2 * math.Sqrt(3)},
		{name: "two arg min", src: "min(temperature, humidity)", want: 0.5},
		{name: "modulo", src: "17 % 5", want: 2},
		{name: "scientific literal", src: "1.5e2 + temperature", want: 170},
		{name: "division", src: "temperature / 4", want: 5},
		{name: "trig", src: "sin(0) + cos(0)", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.src, err)
			}
			got, err := e.Eval(vars)
			if err != nil {
				t.Fatalf("Eval(%q): %v", tt.src, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Eval(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty", src: ""},
		{name: "trailing operator", src: "temperature +"},
		{name: "unbalanced paren", src: "(temperature * 2"},
		{name: "unknown function", src: "median(temperature)"},
		{name: "wrong arity", src: "sqrt(temperature, 2)"},
		{name: "illegal character", src: "temperature @ 2"},
		{name: "double operator", src: "temperature * / 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.src); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.src)
			} else {
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("Parse(%q) returned %T, want *ParseError", tt.src, err)
				}
			}
		})
	}
}

func TestEvalDomainErrors(t *testing.T) {
	vars := map[string]float64{"x": -4, "zero": 0}

	tests := []struct {
		name string
		src  string
	}{
		{name: "sqrt negative", src: "sqrt(x)"},
		{name: "log zero", src: "log(zero)"},
		{name: "division by zero", src: "1 / zero"},
		{name: "modulo by zero", src: "x % zero"},
		{name: "negative fractional power", src: "x ** 0.5"},
		{name: "missing variable", src: "x + y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.src, err)
			}
			if _, err := e.Eval(vars); err == nil {
				t.Errorf("Eval(%q) succeeded, want domain error", tt.src)
			} else {
				var eerr *EvalError
				if !errors.As(err, &eerr) {
					t.Errorf("Eval(%q) returned %T, want *EvalError", tt.src, err)
				}
			}
		})
	}
}

func TestNaNPropagation(t *testing.T) {
	// Missing values enter the expression as NaN and must flow through
	// rather than abort the row.
	vars := map[string]float64{"x": math.NaN(), "y": 2}

	for _, src := range []string{"x + y", "x * 3", "sqrt(x)", "log(x)", "pow(x, 2)", "-x"} {
		e, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		got, err := e.Eval(vars)
		if err != nil {
			t.Fatalf("Eval(%q): %v", src, err)
		}
		if !math.IsNaN(got) {
			t.Errorf("Eval(%q) = %v, want NaN", src, got)
		}
	}
}

func TestVariables(t *testing.T) {
	e, err := Parse("sqrt(temperature) * humidity_lag7 + temperature - 3")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"humidity_lag7", "temperature"}
	if got := e.Variables(); !reflect.DeepEqual(got, want) {
		t.Errorf("Variables() = %v, want %v", got, want)
	}
}

func TestIdentifiers(t *testing.T) {
	// Identifiers must work on unparseable input too: validation reports
	// unknown references alongside syntax errors.
	got := Identifiers("sqrt(temp) ** + bogus_feature @")
	want := []string{"bogus_feature", "sqrt", "temp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Identifiers() = %v, want %v", got, want)
	}
}
