// Package correlate reshapes sampled feature columns to approximate a
// requested pairwise correlation structure. It uses a rank-matching transform
// in the Iman-Conover family: draw a correlated multivariate-normal latent
// structure, then reorder each feature's existing values by the rank order of
// the corresponding latent column. The reorder preserves every feature's
// marginal distribution exactly (same multiset of values) and achieves the
// requested correlations only approximately, which is the documented
// trade-off.
package correlate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/syngen-dev/syngen/internal/rng"
	"github.com/syngen-dev/syngen/internal/spec"
	"github.com/syngen-dev/syngen/internal/table"
)

// minEigenvalue is the floor applied when repairing a non-positive-definite
// target matrix. Slightly above zero so the Cholesky after repair succeeds.
const minEigenvalue = 1e-10

// Warning records a recoverable inconsistency found while imposing
// correlations, such as a target matrix that needed PSD repair.
type Warning struct {
	Features []string `json:"features"`
	Detail   string   `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("correlation group %v: %s", w.Features, w.Detail)
}

// Impose reorders the named feature columns of tbl in place so their pairwise
// Pearson correlations approximate the requested coefficients. Features not
// named in any spec are untouched. Returns warnings for target matrices that
// required repair; such runs still generate.
func Impose(tbl *table.Table, specs []spec.Correlation, stream *rng.Stream) ([]Warning, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	var warnings []Warning
	for _, group := range components(specs) {
		if len(group.features) < 2 {
			continue
		}
		w, err := imposeGroup(tbl, group, stream)
		if err != nil {
			return warnings, err
		}
		warnings = append(warnings, w...)
	}
	return warnings, nil
}

// group is one connected component of the correlation graph: the features it
// spans and the specs among them.
type group struct {
	features []string
	specs    []spec.Correlation
}

// components splits the correlation specs into connected components, so
// unrelated groups are imposed independently. Feature order within a
// component is first-seen order, which keeps the whole transform
// deterministic.
func components(specs []spec.Correlation) []group {
	adj := map[string][]string{}
	var order []string
	seen := map[string]bool{}
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, s := range specs {
		note(s.FeatureA)
		note(s.FeatureB)
		adj[s.FeatureA] = append(adj[s.FeatureA], s.FeatureB)
		adj[s.FeatureB] = append(adj[s.FeatureB], s.FeatureA)
	}

	assigned := map[string]int{}
	var groups []group
	for _, start := range order {
		if _, ok := assigned[start]; ok {
			continue
		}
		id := len(groups)
		queue := []string{start}
		assigned[start] = id
		var members []string
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, next := range adj[cur] {
				if _, ok := assigned[next]; !ok {
					assigned[next] = id
					queue = append(queue, next)
				}
			}
		}
		groups = append(groups, group{features: members})
	}

	for _, s := range specs {
		id := assigned[s.FeatureA]
		groups[id].specs = append(groups[id].specs, s)
	}
	return groups
}

func imposeGroup(tbl *table.Table, g group, stream *rng.Stream) ([]Warning, error) {
	k := len(g.features)
	target := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		target.SetSym(i, i, 1)
	}
	idx := map[string]int{}
	for i, name := range g.features {
		idx[name] = i
	}
	for _, s := range g.specs {
		target.SetSym(idx[s.FeatureA], idx[s.FeatureB], s.Coefficient)
	}

	var warnings []Warning
	var chol mat.Cholesky
	if !chol.Factorize(target) {
		repaired, err := nearestPSD(target)
		if err != nil {
			return nil, fmt.Errorf("repairing correlation matrix for %v: %w", g.features, err)
		}
		warnings = append(warnings, Warning{
			Features: append([]string(nil), g.features...),
			Detail:   "requested correlation matrix is not positive semi-definite; projected to the nearest valid matrix",
		})
		if !chol.Factorize(repaired) {
			return nil, fmt.Errorf("correlation matrix for %v not factorizable after repair", g.features)
		}
	}

	var lower mat.TriDense
	chol.LTo(&lower)

	// Latent structure: n×k standard normal draws, correlated through L.
	// Column draw order is feature-major so the stream consumption order is
	// well defined.
	n := tbl.NumRows()
	std := distuv.Normal{Mu: 0, Sigma: 1, Src: stream.Source()}
	z := mat.NewDense(n, k, nil)
	for col := 0; col < k; col++ {
		for row := 0; row < n; row++ {
			z.Set(row, col, std.Rand())
		}
	}
	var latent mat.Dense
	latent.Mul(z, lower.T())

	// Reorder each column's existing values to follow the latent ranks.
	for i, name := range g.features {
		col := tbl.Column(name)
		if col == nil || col.Kind != table.Numeric {
			return nil, fmt.Errorf("correlated feature %q is not a numeric column", name)
		}
		reorderByRank(col.Floats, mat.Col(nil, i, &latent))
	}
	return warnings, nil
}

// reorderByRank permutes values in place so that the row holding the r-th
// smallest latent value holds the r-th smallest original value. Marginals are
// preserved exactly.
func reorderByRank(values, latent []float64) {
	n := len(values)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return latent[perm[a]] < latent[perm[b]] })

	// perm[r] is the row with latent rank r; give it the r-th smallest value.
	for r, row := range perm {
		values[row] = sorted[r]
	}
}

// nearestPSD projects a symmetric matrix to the nearest positive
// semi-definite correlation matrix: clip negative eigenvalues, rebuild, and
// rescale the diagonal back to ones.
func nearestPSD(m *mat.SymDense) (*mat.SymDense, error) {
	var eig mat.EigenSym
	if !eig.Factorize(m, true) {
		return nil, fmt.Errorf("eigendecomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	k := len(values)
	for i, v := range values {
		if v < minEigenvalue {
			values[i] = minEigenvalue
		}
	}

	// Rebuild V * diag(values) * Vᵀ.
	scaled := mat.NewDense(k, k, nil)
	for col := 0; col < k; col++ {
		for row := 0; row < k; row++ {
			scaled.Set(row, col, vectors.At(row, col)*values[col])
		}
	}
	var rebuilt mat.Dense
	rebuilt.Mul(scaled, vectors.T())

	out := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			v := (rebuilt.At(i, j) + rebuilt.At(j, i)) / 2
			// Renormalize so the diagonal stays exactly 1.
			norm := v / (sqrtAt(&rebuilt, i) * sqrtAt(&rebuilt, j))
			out.SetSym(i, j, norm)
		}
	}
	return out, nil
}

func sqrtAt(m *mat.Dense, i int) float64 {
	v := m.At(i, i)
	if v <= 0 {
		return 1
	}
	return math.Sqrt(v)
}

// Realized computes the realized Pearson correlation for each requested pair,
// for diagnostics. Columns that are no longer numeric report NaN.
func Realized(tbl *table.Table, specs []spec.Correlation) []float64 {
	out := make([]float64, len(specs))
	for i, s := range specs {
		a, b := tbl.Column(s.FeatureA), tbl.Column(s.FeatureB)
		if a == nil || b == nil || a.Kind != table.Numeric || b.Kind != table.Numeric {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Correlation(a.Floats, b.Floats, nil)
	}
	return out
}
