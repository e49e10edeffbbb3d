// Package planner is the configured facade over the solver core: it
// checks that a target library is set and that the resolution
// snapshot is still valid, then delegates to the solver.
package planner

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/perdasilva/planr/pkg/resolution"
	"github.com/perdasilva/planr/pkg/solver"
)

var (
	// ErrNoLibrary is returned when solving without a configured
	// target library.
	ErrNoLibrary = errors.New("no package library configured")
	// ErrStaleResolution is returned when the candidate table was
	// invalidated after resolution; the caller must re-resolve.
	ErrStaleResolution = errors.New("resolution is stale, re-resolve before solving")
)

type Option func(*Planner)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

type Planner struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, opts ...Option) *Planner {
	p := &Planner{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Solve validates the call and runs the solver pipeline on the
// snapshot. Infeasible plans come back as a failed result with a
// failure report, not as an error.
func (p *Planner) Solve(ctx context.Context, res *resolution.Resolution) (*solver.Result, error) {
	if p.cfg.Library == "" {
		return nil, ErrNoLibrary
	}
	if res.Stale() {
		return nil, ErrStaleResolution
	}

	opts := []solver.Option{
		solver.WithPolicy(p.cfg.SolvePolicy()),
		solver.WithLogger(p.logger),
	}
	if len(p.cfg.BasePackages) > 0 {
		opts = append(opts, solver.WithBasePackages(p.cfg.BasePackages))
	}
	if p.cfg.BinaryMarker != "" {
		opts = append(opts, solver.WithBinaryMarker(p.cfg.BinaryMarker))
	}
	s, err := solver.New(opts...)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("solving",
		zap.String("library", p.cfg.Library),
		zap.Int("candidates", len(res.Candidates())))
	return s.Solve(ctx, res)
}
