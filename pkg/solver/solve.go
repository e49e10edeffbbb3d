// Package solver selects a minimal, mutually consistent subset of
// resolved package candidates that satisfies all direct requests and
// their transitive dependencies. The candidate table and policy are
// encoded as an integer linear program; an oracle minimizes it; when
// the optimum shows a direct request left unsatisfied, the blame
// tracer turns the violated constraints into a failure report instead
// of an error.
package solver

import (
	"context"

	"go.uber.org/zap"

	"github.com/perdasilva/planr/pkg/resolution"
)

// Status is the overall outcome of a solve call.
type Status string

const (
	StatusOK     Status = "OK"
	StatusFailed Status = "FAILED"
)

// Result is a solve outcome. Selected holds the chosen candidate
// indices into the input table, ascending. Failures is set only when
// Status is StatusFailed.
type Result struct {
	Status   Status
	Selected []int
	Problem  *Problem
	Raw      *RawSolution
	Failures *FailureReport
}

type Option func(*Solver)

func WithPolicy(policy Policy) Option {
	return func(s *Solver) {
		s.policy = policy
	}
}

func WithOracle(oracle Oracle) Option {
	return func(s *Solver) {
		s.oracle = oracle
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithBasePackages overrides the runtime's base package set.
func WithBasePackages(pkgs []string) Option {
	return func(s *Solver) {
		set := make(map[string]bool, len(pkgs))
		for _, pkg := range pkgs {
			set[pkg] = true
		}
		s.base = set
	}
}

// WithBinaryMarker overrides the mirror substring that marks an
// alternate binary source.
func WithBinaryMarker(marker string) Option {
	return func(s *Solver) {
		s.marker = marker
	}
}

// Solver runs the single-pass pipeline: problem construction, oracle
// minimization, failure attribution. A Solver is immutable after New
// and safe to reuse; each Solve call owns its problem end to end.
type Solver struct {
	policy Policy
	oracle Oracle
	logger *zap.Logger
	base   map[string]bool
	marker string
}

func New(opts ...Option) (*Solver, error) {
	s := &Solver{
		policy: PolicyLazy,
		oracle: NewPBOracle(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy != PolicyLazy && s.policy != PolicyUpgrade {
		return nil, UnknownPolicyError{Policy: s.policy}
	}
	return s, nil
}

func (s *Solver) Solve(ctx context.Context, res *resolution.Resolution) (*Result, error) {
	cands := res.Candidates()
	problem, err := NewProblem(s.policy, cands, s.base, s.marker)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("problem built",
		zap.String("policy", string(s.policy)),
		zap.Int("candidates", problem.NumCandidates()),
		zap.Int("direct", problem.NumDirect()),
		zap.Int("conditions", len(problem.Conds)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.oracle.Minimize(problem)
	if err != nil {
		return nil, err
	}
	if raw.Status != 0 {
		return nil, OracleError{Status: raw.Status}
	}

	result := &Result{
		Status:  StatusOK,
		Problem: problem,
		Raw:     raw,
	}
	for i := 0; i < problem.NumCandidates(); i++ {
		if raw.Values[i] == 1 {
			result.Selected = append(result.Selected, i)
		}
	}
	if raw.Objective >= DummyCost-1 {
		result.Status = StatusFailed
		result.Failures = traceFailures(problem, raw.Values)
		s.logger.Info("solve failed",
			zap.Int("failures", len(result.Failures.Failures)))
		return result, nil
	}
	s.logger.Info("solve succeeded",
		zap.Int("selected", len(result.Selected)),
		zap.Int("objective", raw.Objective))
	return result, nil
}
