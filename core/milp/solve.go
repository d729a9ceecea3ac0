package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var (
	// ErrInfeasible indicates that no integral point satisfies the model.
	ErrInfeasible = errors.New("milp: infeasible")
	// ErrUnbounded indicates an objective that can grow without limit.
	ErrUnbounded = errors.New("milp: unbounded")
	// ErrNodeLimit indicates the search stopped before proving optimality.
	ErrNodeLimit = errors.New("milp: node limit reached")
)

// Options tunes the branch-and-bound search.
type Options struct {
	// Tolerance is passed to the simplex solver.
	Tolerance float64 `json:"tolerance"`
	// IntegralityTol is the distance to an integer under which a value is
	// considered integral.
	IntegralityTol float64 `json:"integrality_tolerance"`
	// MaxNodes bounds the number of explored nodes. Zero means unlimited.
	MaxNodes int `json:"max_nodes"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Tolerance: 1e-9, IntegralityTol: 1e-6, MaxNodes: 200000}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.IntegralityTol <= 0 {
		o.IntegralityTol = d.IntegralityTol
	}
	return o
}

// lpSolve points to the simplex routine. It can be overridden in tests to
// simulate solver failures.
var lpSolve = lp.Simplex

type node struct {
	lower []float64
	upper []float64
}

// Solve runs a depth-first branch-and-bound on m. The call blocks until the
// search finishes; there are no partial results.
func Solve(m *Model, opts Options) (*Solution, error) {
	opts = opts.withDefaults()
	lower, upper := m.bounds()
	stack := []node{{lower: lower, upper: upper}}

	var (
		best     []float64
		bestGain = math.Inf(-1)
		nodes    int
	)
	for len(stack) > 0 {
		if opts.MaxNodes > 0 && nodes >= opts.MaxNodes {
			return nil, fmt.Errorf("%w after %d nodes", ErrNodeLimit, nodes)
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++
		nodesExplored.Inc()

		obj, x, err := relax(m, n.lower, n.upper, opts.Tolerance)
		if errors.Is(err, ErrInfeasible) {
			lpSolves.WithLabelValues("infeasible").Inc()
			continue
		}
		if err != nil {
			lpSolves.WithLabelValues("error").Inc()
			return nil, err
		}
		lpSolves.WithLabelValues("optimal").Inc()

		gain := obj
		if m.sense == Minimize {
			gain = -obj
		}
		if best != nil && gain <= bestGain+1e-9 {
			continue
		}
		j := branchVar(m, x, opts.IntegralityTol)
		if j < 0 {
			best, bestGain = roundIntegral(m, x), gain
			continue
		}
		f := math.Floor(x[j])
		down := node{lower: n.lower, upper: cloneWith(n.upper, j, f)}
		up := node{lower: cloneWith(n.lower, j, f+1), upper: n.upper}
		stack = append(stack, down, up)
	}
	if best == nil {
		return nil, ErrInfeasible
	}
	return &Solution{Objective: evaluate(m.objective, best), Nodes: nodes, values: best}, nil
}

// branchVar returns the integer variable farthest from integrality, or -1
// when x is integral. Ties go to the lowest index.
func branchVar(m *Model, x []float64, tol float64) int {
	idx, worst := -1, tol
	for i, d := range m.vars {
		if !d.integer {
			continue
		}
		frac := math.Abs(x[i] - math.Round(x[i]))
		if frac > worst {
			idx, worst = i, frac
		}
	}
	return idx
}

func roundIntegral(m *Model, x []float64) []float64 {
	out := append([]float64(nil), x...)
	for i, d := range m.vars {
		if d.integer {
			out[i] = math.Round(out[i])
		}
	}
	return out
}

func cloneWith(src []float64, i int, v float64) []float64 {
	out := append([]float64(nil), src...)
	out[i] = v
	return out
}

func evaluate(e Expr, x []float64) float64 {
	v := e.Const
	for _, t := range e.Terms {
		v += t.Coef * x[t.Var]
	}
	return v
}

type row struct {
	coef map[int]float64
	rhs  float64
	eq   bool
}

// relax solves the LP relaxation of m under the given bounds. Fixed
// variables are substituted and the others shifted to be non-negative.
// Inequalities get a slack column each and linearly dependent equalities are
// dropped. The simplex starts from an identity basis of slack and artificial
// columns instead of searching for one.
func relax(m *Model, lower, upper []float64, tol float64) (float64, []float64, error) {
	const eps = 1e-9
	x := make([]float64, len(m.vars))
	col := make([]int, len(m.vars))
	var free []int
	for i := range m.vars {
		switch {
		case upper[i] < lower[i]-eps:
			return 0, nil, ErrInfeasible
		case upper[i]-lower[i] <= eps:
			x[i] = lower[i]
			col[i] = -1
		default:
			x[i] = lower[i]
			col[i] = len(free)
			free = append(free, i)
		}
	}

	var ineq, eq []row
	for _, c := range m.cons {
		r := row{coef: make(map[int]float64), rhs: c.RHS - c.Expr.Const, eq: c.Op == EQ}
		for _, t := range c.Expr.Terms {
			r.rhs -= t.Coef * x[t.Var]
			if k := col[t.Var]; k >= 0 {
				r.coef[k] += t.Coef
			}
		}
		for k, v := range r.coef {
			if v == 0 {
				delete(r.coef, k)
			}
		}
		if c.Op == GE {
			r.rhs = -r.rhs
			for k := range r.coef {
				r.coef[k] = -r.coef[k]
			}
		}
		if len(r.coef) == 0 {
			if (r.eq && math.Abs(r.rhs) > 1e-7) || (!r.eq && r.rhs < -1e-7) {
				return 0, nil, ErrInfeasible
			}
			continue
		}
		if r.eq {
			eq = append(eq, r)
		} else {
			ineq = append(ineq, r)
		}
	}
	for k, i := range free {
		if !math.IsInf(upper[i], 1) {
			ineq = append(ineq, row{coef: map[int]float64{k: 1}, rhs: upper[i] - lower[i]})
		}
	}
	eq, err := independentRows(eq, len(free))
	if err != nil {
		return 0, nil, err
	}

	sign := 1.0
	if m.sense == Maximize {
		sign = -1
	}
	cost := make([]float64, len(free))
	for _, t := range m.objective.Terms {
		if k := col[t.Var]; k >= 0 {
			cost[k] += sign * t.Coef
		}
	}

	// Columns that appear in no row stay at their lower bound unless the
	// objective pushes them up without limit.
	used := make([]bool, len(free))
	for _, rs := range [][]row{ineq, eq} {
		for _, r := range rs {
			for k := range r.coef {
				used[k] = true
			}
		}
	}
	var cols []int
	for k := range free {
		if used[k] {
			cols = append(cols, k)
		} else if cost[k] < 0 {
			return 0, nil, ErrUnbounded
		}
	}

	if nr := len(ineq) + len(eq); nr > 0 {
		pos := make(map[int]int, len(cols))
		for p, k := range cols {
			pos[k] = p
		}
		rows := append(ineq, eq...)
		a, b, basis, nArt := standardForm(rows, pos, len(cols), len(ineq))
		c := make([]float64, len(cols)+len(ineq)+nArt)
		for p, k := range cols {
			c[p] = cost[k]
		}
		sol, err := solveStandard(a, b, c, nArt, basis, tol)
		if err != nil && !errors.Is(err, ErrInfeasible) && !errors.Is(err, ErrUnbounded) {
			// Degenerate pivots can leave the basis near-singular. A slightly
			// shifted right-hand side breaks the ties.
			sol, err = solveStandard(a, perturb(b), c, nArt, basis, tol)
		}
		if err != nil {
			return 0, nil, err
		}
		for p, k := range cols {
			v := sol[p]
			if v < 0 {
				v = 0
			}
			x[free[k]] = lower[free[k]] + v
		}
	}
	return evaluate(m.objective, x), x, nil
}

// standardForm lays rows out as a·x = b with b ≥ 0. Columns are the nc
// structural ones, one slack per inequality (the first ns rows), then one
// artificial column for every row whose slack cannot start in the basis. The
// returned basis is the identity made of those slack and artificial columns.
func standardForm(rows []row, pos map[int]int, nc, ns int) (*mat.Dense, []float64, []int, int) {
	nr := len(rows)
	sign := make([]float64, nr)
	b := make([]float64, nr)
	var art []int
	for i, r := range rows {
		sign[i] = 1
		if r.rhs < 0 {
			sign[i] = -1
		}
		b[i] = sign[i] * r.rhs
		if i >= ns || sign[i] < 0 {
			art = append(art, i)
		}
	}
	a := mat.NewDense(nr, nc+ns+len(art), nil)
	basis := make([]int, nr)
	for i, r := range rows {
		for k, v := range r.coef {
			a.Set(i, pos[k], sign[i]*v)
		}
		if i < ns {
			a.Set(i, nc+i, sign[i])
			basis[i] = nc + i
		}
	}
	for j, i := range art {
		a.Set(i, nc+ns+j, 1)
		basis[i] = nc + ns + j
	}
	return a, b, basis, len(art)
}

// solveStandard minimises c·x subject to a·x = b, x ≥ 0, starting from the
// identity basis. The last nArt columns are artificial: they are priced out
// with a penalty, and a phase-one solve tells an infeasible system apart from
// a penalty that was too small.
func solveStandard(a *mat.Dense, b, c []float64, nArt int, basis []int, tol float64) ([]float64, error) {
	if nArt == 0 {
		return simplex(c, a, b, tol, basis)
	}
	n := len(c)
	first := n - nArt
	feasTol := 1e-7 * (1 + maxAbs(b))
	penalty := 1e3 * (1 + maxAbs(c)) * (1 + maxAbs(b))
	checked := false
	for attempt := 0; attempt < 3; attempt++ {
		priced := append([]float64(nil), c...)
		for j := first; j < n; j++ {
			priced[j] = penalty
		}
		x, err := simplex(priced, a, b, tol, basis)
		if err == nil && artificialLoad(x, first) <= feasTol {
			return x, nil
		}
		if err != nil && !errors.Is(err, ErrUnbounded) {
			return nil, err
		}
		if !checked {
			phase1 := make([]float64, n)
			for j := first; j < n; j++ {
				phase1[j] = 1
			}
			x1, err1 := simplex(phase1, a, b, tol, basis)
			if err1 != nil {
				return nil, err1
			}
			if artificialLoad(x1, first) > feasTol {
				return nil, ErrInfeasible
			}
			checked = true
		}
		if err != nil {
			return nil, err
		}
		penalty *= 1e3
	}
	return nil, fmt.Errorf("simplex: artificial columns still basic after penalty %g", penalty)
}

// simplex calls lpSolve, mapping its sentinels and turning panics on bad
// input into errors.
func simplex(c []float64, a mat.Matrix, b []float64, tol float64, basis []int) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("simplex: %v", r)
		}
	}()
	_, x, err = lpSolve(c, a, b, tol, basis)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, ErrInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return nil, ErrUnbounded
	case err != nil:
		return nil, fmt.Errorf("simplex: %w", err)
	}
	return x, nil
}

func artificialLoad(x []float64, first int) float64 {
	var sum float64
	for _, v := range x[first:] {
		sum += math.Abs(v)
	}
	return sum
}

func perturb(b []float64) []float64 {
	scale := 1e-8 * (1 + maxAbs(b))
	out := make([]float64, len(b))
	for i, v := range b {
		out[i] = v + scale*float64(1+i%7)
	}
	return out
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

// independentRows drops equality rows that are linear combinations of the
// previous ones. A dependent row with an inconsistent right-hand side makes
// the system infeasible.
func independentRows(rows []row, n int) ([]row, error) {
	type basisVec struct {
		v     []float64
		rhs   float64
		pivot int
	}
	var (
		basis []basisVec
		kept  []row
	)
	for _, r := range rows {
		v := make([]float64, n)
		for k, c := range r.coef {
			v[k] = c
		}
		rhs := r.rhs
		for _, b := range basis {
			if f := v[b.pivot]; f != 0 {
				f /= b.v[b.pivot]
				for j := range v {
					v[j] -= f * b.v[j]
				}
				rhs -= f * b.rhs
			}
		}
		p := 0
		for j := range v {
			if math.Abs(v[j]) > math.Abs(v[p]) {
				p = j
			}
		}
		if n == 0 || math.Abs(v[p]) < 1e-9 {
			if math.Abs(rhs) > 1e-7 {
				return nil, ErrInfeasible
			}
			continue
		}
		basis = append(basis, basisVec{v: v, rhs: rhs, pivot: p})
		kept = append(kept, r)
	}
	return kept, nil
}
