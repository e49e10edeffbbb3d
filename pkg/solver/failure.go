package solver

import (
	"fmt"
	"strings"

	"github.com/perdasilva/planr/pkg/resolution"
)

// CandidateState is the blame tracer's per-candidate verdict. All
// transitions start from StateMaybeGood; every other state is
// terminal.
type CandidateState string

const (
	StateMaybeGood     CandidateState = "maybe-good"
	StateInstalled     CandidateState = "installed"
	StateFailedRes     CandidateState = "failed-res"
	StateSatisfyDirect CandidateState = "satisfy-direct"
	StateConflict      CandidateState = "conflict"
	StateDepFailed     CandidateState = "dep-failed"
	StateCouldBe       CandidateState = "could-be"
)

func failedState(s CandidateState) bool {
	switch s {
	case StateFailedRes, StateSatisfyDirect, StateConflict, StateDepFailed:
		return true
	}
	return false
}

// Failure is one annotated failed candidate of the report.
type Failure struct {
	Candidate int
	Ref       string
	Type      CandidateState
	Messages  []string
	Down      []string // packages required by this candidate but unreachable
}

// FailureReport explains why the solution left at least one direct
// request unsatisfied, tracing blame through the dependency graph.
type FailureReport struct {
	Failures []Failure

	problem    *Problem
	states     []CandidateState
	notes      [][]string
	downstream map[int][]string // candidate -> dep refs that cannot be installed
}

// State returns the traced state of candidate i.
func (r *FailureReport) State(i int) CandidateState {
	return r.states[i]
}

// traceFailures reconstructs per-candidate failure states by replaying
// the problem's conditions against the raw solution, then closes over
// dependency chains until a fixed point.
func traceFailures(p *Problem, values []int) *FailureReport {
	n := p.NumCandidates()
	states := make([]CandidateState, n)
	notes := make([][]string, n)
	downstream := map[int][]string{}
	for i := range states {
		states[i] = StateMaybeGood
	}
	for i := 0; i < n; i++ {
		if values[i] == 1 {
			states[i] = StateInstalled
		}
	}

	for i := range p.Conds {
		c := &p.Conds[i]
		if c.Type != CondOKResolution || states[c.Subject] != StateMaybeGood {
			continue
		}
		states[c.Subject] = StateFailedRes
		msg := c.Message
		if msg == "" {
			msg = "resolution failed"
		}
		notes[c.Subject] = append(notes[c.Subject], msg)
	}

	for i := range p.Conds {
		c := &p.Conds[i]
		if c.Type != CondSatisfyRefs || states[c.Subject] != StateMaybeGood {
			continue
		}
		states[c.Subject] = StateSatisfyDirect
		notes[c.Subject] = append(notes[c.Subject],
			fmt.Sprintf("does not satisfy direct request %s", p.Candidates[c.Wanted].Ref))
	}

	for i := range p.Conds {
		c := &p.Conds[i]
		if c.Type != CondAtMostOnce {
			continue
		}
		winner := -1
		for _, v := range c.Vars {
			if v <= n && values[v-1] == 1 {
				winner = v - 1
				break
			}
		}
		if winner < 0 {
			continue
		}
		for _, v := range c.Vars {
			j := v - 1
			if j == winner || j >= n || states[j] != StateMaybeGood {
				continue
			}
			states[j] = StateConflict
			notes[j] = append(notes[j], fmt.Sprintf("conflicts with selected %s", p.Candidates[winner].Ref))
		}
	}

	// dependency transitive closure
	type depPair struct {
		upstream int
		ref      string
		good     []int
	}
	var pairs []depPair
	for i := range p.Conds {
		c := &p.Conds[i]
		if c.Type != CondDependency {
			continue
		}
		pairs = append(pairs, depPair{
			upstream: c.Subject,
			ref:      c.DepRef,
			good:     append([]int(nil), c.GoodCands...),
		})
	}
	markDepFailed := func(upstream int, ref string) {
		states[upstream] = StateDepFailed
		notes[upstream] = append(notes[upstream], fmt.Sprintf("Cannot install dependency %s", ref))
		downstream[upstream] = append(downstream[upstream], ref)
	}
	for i := range pairs {
		if len(pairs[i].good) == 0 && states[pairs[i].upstream] == StateMaybeGood {
			markDepFailed(pairs[i].upstream, pairs[i].ref)
		}
	}
	for changed := true; changed; {
		changed = false
		for i := range pairs {
			pair := &pairs[i]
			if len(pair.good) == 0 {
				continue
			}
			kept := pair.good[:0]
			for _, j := range pair.good {
				if !failedState(states[j]) {
					kept = append(kept, j)
				}
			}
			pair.good = kept
			if len(pair.good) == 0 && states[pair.upstream] == StateMaybeGood {
				markDepFailed(pair.upstream, pair.ref)
				changed = true
			}
		}
	}

	for i := range states {
		if states[i] == StateMaybeGood {
			states[i] = StateCouldBe
		}
	}

	report := &FailureReport{
		problem:    p,
		states:     states,
		notes:      notes,
		downstream: downstream,
	}
	for i := range states {
		if !failedState(states[i]) {
			continue
		}
		report.Failures = append(report.Failures, Failure{
			Candidate: i,
			Ref:       p.Candidates[i].Ref,
			Type:      states[i],
			Messages:  notes[i],
			Down:      downPackages(downstream[i]),
		})
	}
	return report
}

func downPackages(refs []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, ref := range refs {
		_, pkg := resolution.ParseRef(ref)
		if pkg == "" || seen[pkg] {
			continue
		}
		seen[pkg] = true
		out = append(out, pkg)
	}
	return out
}

// String renders the report: depth-first from the failed direct
// candidates through their unreachable dependencies, one bullet per
// candidate, deduplicated by index.
func (r *FailureReport) String() string {
	var sb strings.Builder
	seen := map[int]bool{}
	var walk func(i int)
	walk = func(i int) {
		if seen[i] {
			return
		}
		seen[i] = true
		fmt.Fprintf(&sb, "* %s: %s\n", r.problem.Candidates[i].Ref, strings.Join(r.notes[i], "; "))
		for _, ref := range r.downstream[i] {
			_, pkg := resolution.ParseRef(ref)
			for _, j := range r.problem.CandidatesOf(pkg) {
				if failedState(r.states[j]) {
					walk(j)
				}
			}
		}
	}
	for i := range r.problem.Candidates {
		if r.problem.Candidates[i].Direct && failedState(r.states[i]) {
			walk(i)
		}
	}
	return sb.String()
}
