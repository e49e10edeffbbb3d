package solver

import (
	"fmt"

	"github.com/iancoleman/orderedmap"

	"github.com/perdasilva/planr/pkg/resolution"
	"github.com/perdasilva/planr/pkg/rversion"
)

// Policy selects the objective function used to rank feasible plans.
type Policy string

const (
	// PolicyLazy prefers whatever is cheapest to obtain: installed
	// copies first, then binaries, then source builds.
	PolicyLazy Policy = "lazy"
	// PolicyUpgrade prefers the newest version of every package.
	PolicyUpgrade Policy = "upgrade"
)

// DummyCost is the objective coefficient of every slack variable. A
// raw objective at or above DummyCost-1 means at least one direct
// request could not be satisfied.
const DummyCost = 1_000_000_000

type UnknownPolicyError struct {
	Policy Policy
}

func (e UnknownPolicyError) Error() string {
	return fmt.Sprintf("unknown solve policy %q", string(e.Policy))
}

// objective computes the candidate part of the objective vector; the
// caller appends the slack coefficients.
func objective(policy Policy, cands []resolution.Candidate) ([]int, error) {
	switch policy {
	case PolicyLazy:
		return lazyObjective(cands), nil
	case PolicyUpgrade:
		return upgradeObjective(cands), nil
	}
	return nil, UnknownPolicyError{Policy: policy}
}

func lazyObjective(cands []resolution.Candidate) []int {
	obj := make([]int, len(cands))
	for i := range cands {
		switch {
		case cands[i].Type == resolution.SourceInstalled:
			obj[i] = 0
		case cands[i].SourcePlatform():
			obj[i] = 5
		default:
			obj[i] = 1
		}
	}
	return obj
}

// upgradeObjective makes newer versions cost less. Within each
// package, versions are ranked oldest to newest, ties sharing the
// minimum rank, and the newest candidates end up with coefficient 0
// before the type tiebreaker is applied.
func upgradeObjective(cands []resolution.Candidate) []int {
	n := len(cands)
	obj := make([]int, n)
	for i := range obj {
		obj[i] = (n + 1) * 100
	}

	groups := orderedmap.New()
	for i := range cands {
		if cands[i].Status != resolution.StatusOK || cands[i].Version == "" {
			continue
		}
		members := []int{i}
		if prev, ok := groups.Get(cands[i].Package); ok {
			members = append(prev.([]int), i)
		}
		groups.Set(cands[i].Package, members)
	}

	for _, pkg := range groups.Keys() {
		value, _ := groups.Get(pkg)
		members := value.([]int)

		maxRank := 0
		ranks := make([]int, len(members))
		for a, i := range members {
			rank := 1
			for _, j := range members {
				if rversion.Compare(cands[j].Version, cands[i].Version) < 0 {
					rank++
				}
			}
			ranks[a] = rank
			if rank > maxRank {
				maxRank = rank
			}
		}

		pkgMin := 0
		for a, i := range members {
			obj[i] = (maxRank - ranks[a] + 1) * 100
			if a == 0 || obj[i] < pkgMin {
				pkgMin = obj[i]
			}
		}
		for _, i := range members {
			obj[i] -= pkgMin
		}
	}

	for i := range cands {
		switch {
		case cands[i].Type == resolution.SourceInstalled:
			obj[i] += 1
		case cands[i].SourcePlatform():
			obj[i] += 3
		default:
			obj[i] += 2
		}
	}

	if n > 0 {
		min := obj[0]
		for _, v := range obj {
			if v < min {
				min = v
			}
		}
		for i := range obj {
			obj[i] -= min
		}
	}
	return obj
}
