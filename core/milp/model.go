// Package milp builds small mixed-integer linear programs and solves them by
// branch-and-bound over the gonum simplex implementation.
package milp

import (
	"fmt"
	"math"
)

// Sense selects the optimisation direction.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// Op is the comparison operator of a constraint.
type Op int

const (
	LE Op = iota
	GE
	EQ
)

func (o Op) String() string {
	switch o {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	}
	return "?"
}

// Var references a decision variable of a Model.
type Var int

type varDef struct {
	name    string
	lower   float64
	upper   float64
	integer bool
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression Σ coef·var + Const.
type Expr struct {
	Terms []Term
	Const float64
}

// Sum returns the expression adding every variable with coefficient 1.
func Sum(vs ...Var) Expr {
	e := Expr{Terms: make([]Term, 0, len(vs))}
	for _, v := range vs {
		e.Terms = append(e.Terms, Term{Var: v, Coef: 1})
	}
	return e
}

// Add appends coef·v to the expression.
func (e *Expr) Add(v Var, coef float64) *Expr {
	if coef != 0 {
		e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	}
	return e
}

// AddConst adds a constant offset.
func (e *Expr) AddConst(c float64) *Expr {
	e.Const += c
	return e
}

// Constraint is Expr Op RHS.
type Constraint struct {
	Name string
	Expr Expr
	Op   Op
	RHS  float64
}

// Model is a mixed-integer linear program. Every variable must have a finite
// lower bound.
type Model struct {
	sense     Sense
	vars      []varDef
	cons      []Constraint
	objective Expr
}

// NewModel returns an empty model with the given optimisation sense.
func NewModel(sense Sense) *Model { return &Model{sense: sense} }

func (m *Model) add(name string, lower, upper float64, integer bool) Var {
	if math.IsInf(lower, 0) || math.IsNaN(lower) {
		panic(fmt.Sprintf("milp: variable %s needs a finite lower bound", name))
	}
	if upper < lower {
		panic(fmt.Sprintf("milp: variable %s has upper %v < lower %v", name, upper, lower))
	}
	m.vars = append(m.vars, varDef{name: name, lower: lower, upper: upper, integer: integer})
	return Var(len(m.vars) - 1)
}

// Binary adds a 0/1 variable.
func (m *Model) Binary(name string) Var { return m.add(name, 0, 1, true) }

// Integer adds an integer variable bounded by [lower, upper]. Upper may be
// +Inf.
func (m *Model) Integer(name string, lower, upper float64) Var {
	return m.add(name, lower, upper, true)
}

// Continuous adds a real variable bounded by [lower, upper]. Upper may be
// +Inf.
func (m *Model) Continuous(name string, lower, upper float64) Var {
	return m.add(name, lower, upper, false)
}

// Fix pins v to value.
func (m *Model) Fix(v Var, value float64) {
	d := &m.vars[v]
	d.lower, d.upper = value, value
}

// Constrain adds the constraint e op rhs.
func (m *Model) Constrain(name string, e Expr, op Op, rhs float64) {
	m.cons = append(m.cons, Constraint{Name: name, Expr: e, Op: op, RHS: rhs})
}

// SetObjective replaces the objective expression.
func (m *Model) SetObjective(e Expr) { m.objective = e }

// Name returns the name given to v.
func (m *Model) Name(v Var) string { return m.vars[v].name }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.cons) }

func (m *Model) bounds() (lower, upper []float64) {
	lower = make([]float64, len(m.vars))
	upper = make([]float64, len(m.vars))
	for i, d := range m.vars {
		lower[i], upper[i] = d.lower, d.upper
	}
	return lower, upper
}

// Solution holds the variable values of an optimal integral point.
type Solution struct {
	Objective float64
	Nodes     int
	values    []float64
}

// Value returns the value of v.
func (s *Solution) Value(v Var) float64 { return s.values[v] }

// IsSet reports whether a binary variable is at 1.
func (s *Solution) IsSet(v Var) bool { return s.values[v] > 0.5 }
