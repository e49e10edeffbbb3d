package solver

import (
	"fmt"

	sat "github.com/crillab/gophersat/solver"
)

// RawSolution is the oracle's answer: Status 0 means an optimum was
// found, any other value is a solver-internal failure. Values[i] is
// the {0,1} assignment of variable i+1 and Objective the weighted sum
// of the assignment.
type RawSolution struct {
	Status    int
	Objective int
	Values    []int
}

// Oracle minimizes a problem's objective subject to its conditions.
// Implementations are pure: no heuristics, bounding or warm starts
// are part of the contract.
type Oracle interface {
	Minimize(p *Problem) (*RawSolution, error)
}

type OracleError struct {
	Status int
}

func (e OracleError) Error() string {
	return fmt.Sprintf("ilp solver failed with status %d", e.Status)
}

// PBOracle adapts the gophersat pseudo-boolean optimizer to the
// Oracle contract.
type PBOracle struct{}

func NewPBOracle() *PBOracle {
	return &PBOracle{}
}

func (o *PBOracle) Minimize(p *Problem) (*RawSolution, error) {
	total := p.Total()
	if total == 0 {
		return &RawSolution{}, nil
	}

	constrs := make([]sat.PBConstr, 0, len(p.Conds)+total)
	// tautologies so every variable exists even if unconstrained
	for v := 1; v <= total; v++ {
		constrs = append(constrs, sat.GtEq([]int{v, -v}, []int{1, 1}, 1))
	}
	for i := range p.Conds {
		cond := &p.Conds[i]
		// the constructors normalize negative weights in place, so
		// hand each one its own copy
		lits := append([]int(nil), cond.Vars...)
		coefs := append([]int(nil), cond.Coefs...)
		switch cond.Op {
		case "==":
			constrs = append(constrs, sat.Eq(lits, coefs, cond.RHS)...)
		case "<=":
			constrs = append(constrs, sat.LtEq(lits, coefs, cond.RHS))
		case ">=":
			constrs = append(constrs, sat.GtEq(lits, coefs, cond.RHS))
		default:
			return nil, fmt.Errorf("condition %d has unsupported operator %q", i, cond.Op)
		}
	}

	problem := sat.ParsePBConstrs(constrs)
	costLits := make([]sat.Lit, total)
	for v := 0; v < total; v++ {
		costLits[v] = sat.IntToLit(int32(v + 1))
	}
	problem.SetCostFunc(costLits, append([]int(nil), p.Obj...))

	s := sat.New(problem)
	cost := s.Minimize()
	if cost < 0 {
		// the encoding is always feasible thanks to the slack
		// variables, so UNSAT signals solver trouble
		return &RawSolution{Status: 1}, nil
	}

	model := s.Model()
	values := make([]int, total)
	for v := 0; v < total && v < len(model); v++ {
		if model[v] {
			values[v] = 1
		}
	}
	return &RawSolution{Status: 0, Objective: cost, Values: values}, nil
}
