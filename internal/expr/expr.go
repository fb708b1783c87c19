// Package expr parses and evaluates target expressions over feature columns.
// The grammar is a fixed arithmetic whitelist: binary + - * / % and ** (power),
// unary minus, parentheses, numeric literals, feature identifiers, and a bounded
// set of named math functions. There is no assignment, no indexing, and no way
// to reach outside the provided variable map.
package expr

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Node is a parsed expression tree node.
type Node interface {
	eval(vars map[string]float64) (float64, error)
}

// Expr is a parsed, reusable expression. Safe for repeated evaluation.
type Expr struct {
	src  string
	root Node
}

// ParseError reports a syntax problem in the expression source.
type ParseError struct {
	Expr   string
	Pos    int
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d in %q: %s", e.Pos, e.Expr, e.Detail)
}

// EvalError reports a math domain problem hit during evaluation.
type EvalError struct {
	Expr   string
	Detail string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q: %s", e.Expr, e.Detail)
}

type numNode float64

type varNode string

type unaryNode struct {
	op      byte
	operand Node
}

type binaryNode struct {
	op          string
	left, right Node
}

type callNode struct {
	name string
	args []Node
}

// funcSpec describes a whitelisted function: its arity and implementation.
type funcSpec struct {
	arity int
	fn    func(args []float64) (float64, error)
}

var functions = map[string]funcSpec{
	"exp":   {1, func(a []float64) (float64, error) { return math.Exp(a[0]), nil }},
	"log":   {1, domainUnary(math.Log, func(x float64) bool { return x > 0 }, "log of non-positive value")},
	"sqrt":  {1, domainUnary(math.Sqrt, func(x float64) bool { return x >= 0 }, "sqrt of negative value")},
	"sin":   {1, func(a []float64) (float64, error) { return math.Sin(a[0]), nil }},
	"cos":   {1, func(a []float64) (float64, error) { return math.Cos(a[0]), nil }},
	"tan":   {1, func(a []float64) (float64, error) { return math.Tan(a[0]), nil }},
	"abs":   {1, func(a []float64) (float64, error) { return math.Abs(a[0]), nil }},
	"floor": {1, func(a []float64) (float64, error) { return math.Floor(a[0]), nil }},
	"ceil":  {1, func(a []float64) (float64, error) { return math.Ceil(a[0]), nil }},
	"round": {1, func(a []float64) (float64, error) { return math.Round(a[0]), nil }},
	"pow":   {2, func(a []float64) (float64, error) { return power(a[0], a[1]) }},
	"min":   {2, func(a []float64) (float64, error) { return math.Min(a[0], a[1]), nil }},
	"max":   {2, func(a []float64) (float64, error) { return math.Max(a[0], a[1]), nil }},
}

// domainUnary wraps a unary math function with a domain check. NaN inputs pass
// through unchecked so missing values propagate instead of aborting the run.
func domainUnary(fn func(float64) float64, ok func(float64) bool, msg string) func([]float64) (float64, error) {
	return func(a []float64) (float64, error) {
		x := a[0]
		if math.IsNaN(x) {
			return math.NaN(), nil
		}
		if !ok(x) {
			return 0, fmt.Errorf("%s (%g)", msg, x)
		}
		return fn(x), nil
	}
}

func power(base, exp float64) (float64, error) {
	if math.IsNaN(base) || math.IsNaN(exp) {
		return math.NaN(), nil
	}
	v := math.Pow(base, exp)
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("power overflow (%g ** %g)", base, exp)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("invalid power (%g ** %g)", base, exp)
	}
	return v, nil
}

// IsFunction reports whether name is a whitelisted function name.
func IsFunction(name string) bool {
	_, ok := functions[name]
	return ok
}

// FunctionNames returns the sorted whitelist of function names.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variables returns the sorted distinct feature identifiers the expression
// references. Function names are not included.
func (e *Expr) Variables() []string {
	seen := map[string]bool{}
	collectVars(e.root, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectVars(n Node, seen map[string]bool) {
	switch node := n.(type) {
	case varNode:
		seen[string(node)] = true
	case unaryNode:
		collectVars(node.operand, seen)
	case binaryNode:
		collectVars(node.left, seen)
		collectVars(node.right, seen)
	case callNode:
		for _, arg := range node.args {
			collectVars(arg, seen)
		}
	}
}

// String returns the original expression source.
func (e *Expr) String() string { return e.src }

// Eval evaluates the expression against a variable binding. Missing variables
// are an error; NaN bindings propagate NaN through arithmetic and most
// functions. Math domain violations (log/sqrt of negatives, division by zero,
// power overflow) return an *EvalError.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return 0, &EvalError{Expr: e.src, Detail: err.Error()}
	}
	return v, nil
}

func (n numNode) eval(map[string]float64) (float64, error) { return float64(n), nil }

func (n varNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(n)]
	if !ok {
		return 0, fmt.Errorf("unknown feature %q", string(n))
	}
	return v, nil
}

func (n unaryNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n binaryNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero (%g / %g)", l, r)
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, fmt.Errorf("modulo by zero (%g %% %g)", l, r)
		}
		return math.Mod(l, r), nil
	case "**":
		return power(l, r)
	}
	return 0, fmt.Errorf("unknown operator %q", n.op)
}

func (n callNode) eval(vars map[string]float64) (float64, error) {
	spec := functions[n.name]
	args := make([]float64, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(vars)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	v, err := spec.fn(args)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", n.name, err)
	}
	return v, nil
}

// identLike reports whether s could be a variable or function identifier.
func identLike(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Identifiers extracts every identifier-shaped token from src without fully
// parsing it. Used by validation to report unknown references even when the
// expression also has syntax errors.
func Identifiers(src string) []string {
	seen := map[string]bool{}
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tok := cur.String()
			if identLike(tok) {
				seen[tok] = true
			}
			cur.Reset()
		}
	}
	for _, r := range src {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (cur.Len() > 0 && r >= '0' && r <= '9') {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
