package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdasilva/planr/pkg/resolution"
)

type stubOracle struct {
	raw *RawSolution
	err error
}

func (o stubOracle) Minimize(_ *Problem) (*RawSolution, error) {
	return o.raw, o.err
}

func mustSolve(t *testing.T, policy Policy, cands []resolution.Candidate) *Result {
	t.Helper()
	s, err := New(WithPolicy(policy))
	require.NoError(t, err)
	result, err := s.Solve(context.Background(), resolution.NewResolution(cands))
	require.NoError(t, err)
	return result
}

func selectedRefs(result *Result) []string {
	var refs []string
	for _, i := range result.Selected {
		refs = append(refs, result.Problem.Candidates[i].Ref)
	}
	return refs
}

func TestSolveTrivialInstalled(t *testing.T) {
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(installedCand("A", "1.0", "cran")),
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []int{0}, result.Selected)
	assert.Equal(t, 0, result.Raw.Objective)
	assert.Nil(t, result.Failures)
}

func TestSolveEmptyTable(t *testing.T) {
	result := mustSolve(t, PolicyLazy, nil)
	assert.Equal(t, StatusOK, result.Status)
	assert.Empty(t, result.Selected)
	assert.Equal(t, 0, result.Problem.Total())
}

func TestSolvePrefersBinary(t *testing.T) {
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(sourceCand("A", "1.0")),
		direct(binaryCand("A", "1.0")),
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []int{1}, result.Selected, "the binary artifact wins")
	assert.NotEmpty(t, condsOfType(result.Problem, CondPreferBinary))
	assert.Equal(t, 1, result.Raw.Objective)
}

func TestSolveUpgradePicksNewest(t *testing.T) {
	cands := []resolution.Candidate{
		direct(binaryCand("A", "1.0")),
		direct(binaryCand("A", "2.0")),
		direct(binaryCand("A", "3.0")),
	}

	result := mustSolve(t, PolicyUpgrade, cands)
	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []int{2}, result.Selected, "upgrade selects 3.0")

	lazy := mustSolve(t, PolicyLazy, cands)
	assert.Equal(t, StatusOK, lazy.Status)
	assert.Len(t, lazy.Selected, 1, "lazy picks exactly one, whichever ties break to")
}

func TestSolveDependencyChain(t *testing.T) {
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(withDep(binaryCand("A", "1.0"), "B", "imports", "", "")),
		withDep(binaryCand("B", "1.0"), "C", "imports", "", ""),
		binaryCand("C", "1.0"),
	})

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []int{0, 1, 2}, result.Selected)
	assert.Equal(t, []string{"cran::A", "cran::B", "cran::C"}, selectedRefs(result))
	assert.Equal(t, 3, result.Raw.Objective)
}

func TestSolveVersionConflict(t *testing.T) {
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(withDep(binaryCand("A", "1.0"), "B", "imports", ">=", "2.0")),
		binaryCand("B", "1.0"),
	})

	assert.Equal(t, StatusFailed, result.Status)
	require.NotNil(t, result.Failures)

	assert.Equal(t, StateDepFailed, result.Failures.State(0))
	assert.Equal(t, StateCouldBe, result.Failures.State(1), "B itself is viable, just not wanted")

	require.Len(t, result.Failures.Failures, 1)
	failure := result.Failures.Failures[0]
	assert.Equal(t, "cran::A", failure.Ref)
	assert.Equal(t, StateDepFailed, failure.Type)
	assert.Equal(t, []string{"B"}, failure.Down)
	require.NotEmpty(t, failure.Messages)
	assert.Contains(t, failure.Messages[0], "Cannot install dependency cran::B")
}

func TestSolveTransitiveFailure(t *testing.T) {
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(withDep(binaryCand("A", "1.0"), "B", "imports", "", "")),
		withDep(binaryCand("B", "1.0"), "C", "imports", "", ""),
		failed(binaryCand("C", "1.0"), "ref not found"),
	})

	assert.Equal(t, StatusFailed, result.Status)
	require.NotNil(t, result.Failures)

	assert.Equal(t, StateDepFailed, result.Failures.State(0))
	assert.Equal(t, StateDepFailed, result.Failures.State(1))
	assert.Equal(t, StateFailedRes, result.Failures.State(2))

	require.Len(t, result.Failures.Failures, 3)
	assert.Equal(t, []string{"B"}, result.Failures.Failures[0].Down)
	assert.Equal(t, []string{"C"}, result.Failures.Failures[1].Down)
	assert.Contains(t, result.Failures.Failures[2].Messages[0], "ref not found")

	// rendering walks the whole chain from the direct failure
	out := result.Failures.String()
	assert.Contains(t, out, "* cran::A")
	assert.Contains(t, out, "* cran::B")
	assert.Contains(t, out, "* cran::C")
}

func TestSolveConflictingDirects(t *testing.T) {
	gh := resolution.Candidate{
		Ref:      "github::r-lib/A",
		Package:  "A",
		Version:  "2.0",
		Type:     resolution.SourceGithub,
		Platform: resolution.PlatformSource,
		Status:   resolution.StatusOK,
		DepTypes: defaultDepTypes,
		Direct:   true,
	}
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(binaryCand("A", "1.0")),
		gh,
	})

	assert.Equal(t, StatusFailed, result.Status)
	require.NotNil(t, result.Failures)
	assert.Equal(t, StateSatisfyDirect, result.Failures.State(0))
	assert.Equal(t, StateSatisfyDirect, result.Failures.State(1))

	// the slack variable for A absorbed the request
	slack := result.Raw.Values[result.Problem.NumCandidates()]
	assert.Equal(t, 1, slack)
}

func TestSolveAllFailed(t *testing.T) {
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(failed(binaryCand("A", ""), "download failed")),
		failed(binaryCand("B", ""), "parse error"),
	})

	assert.Equal(t, StatusFailed, result.Status)
	require.NotNil(t, result.Failures)
	assert.Equal(t, StateFailedRes, result.Failures.State(0))
	assert.Equal(t, StateFailedRes, result.Failures.State(1))
	assert.Contains(t, result.Failures.String(), "download failed")
}

func TestSolveIdempotent(t *testing.T) {
	cands := []resolution.Candidate{
		direct(withDep(binaryCand("A", "1.0"), "B", "imports", "", "")),
		binaryCand("B", "1.0"),
		binaryCand("B", "2.0"),
	}
	first := mustSolve(t, PolicyUpgrade, cands)
	second := mustSolve(t, PolicyUpgrade, cands)
	assert.Equal(t, first.Selected, second.Selected)
	assert.Equal(t, first.Raw.Objective, second.Raw.Objective)
}

func TestSolveSelectionsAreConsistent(t *testing.T) {
	// invariants 2-4: every selected candidate resolved OK and every
	// honored dependency of a selected candidate is satisfied by
	// another selected candidate
	result := mustSolve(t, PolicyLazy, []resolution.Candidate{
		direct(withDep(binaryCand("A", "1.0"), "B", "imports", ">=", "1.5")),
		binaryCand("B", "1.0"),
		binaryCand("B", "2.0"),
		failed(binaryCand("Z", ""), "nope"),
	})
	require.Equal(t, StatusOK, result.Status)

	selected := map[string]resolution.Candidate{}
	for _, i := range result.Selected {
		c := result.Problem.Candidates[i]
		assert.Equal(t, resolution.StatusOK, c.Status)
		_, dup := selected[c.Package]
		assert.False(t, dup, "at most one candidate per package")
		selected[c.Package] = c
	}
	b, ok := selected["B"]
	require.True(t, ok)
	assert.Equal(t, "2.0", b.Version)
}

func TestSolveUnknownPolicy(t *testing.T) {
	_, err := New(WithPolicy("eager"))
	assert.Equal(t, UnknownPolicyError{Policy: "eager"}, err)
}

func TestSolveOracleFailure(t *testing.T) {
	s, err := New(WithOracle(stubOracle{raw: &RawSolution{Status: 3}}))
	require.NoError(t, err)
	_, err = s.Solve(context.Background(), resolution.NewResolution([]resolution.Candidate{
		direct(binaryCand("A", "1.0")),
	}))
	assert.Equal(t, OracleError{Status: 3}, err)
	assert.Contains(t, err.Error(), "status 3")
}

func TestSolveCancelledContext(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Solve(ctx, resolution.NewResolution([]resolution.Candidate{
		direct(binaryCand("A", "1.0")),
	}))
	assert.ErrorIs(t, err, context.Canceled)
}
