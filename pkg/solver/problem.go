package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/orderedmap"

	"github.com/perdasilva/planr/pkg/resolution"
	"github.com/perdasilva/planr/pkg/rversion"
)

// ConditionType discriminates the linear constraint families the
// builder emits. The blame tracer scans conditions by type.
type ConditionType string

const (
	CondExactlyOnce     ConditionType = "exactly-once"
	CondAtMostOnce      ConditionType = "at-most-once"
	CondSatisfyRefs     ConditionType = "satisfy-refs"
	CondDependency      ConditionType = "dependency"
	CondOKResolution    ConditionType = "ok-resolution"
	CondPreferInstalled ConditionType = "prefer-installed"
	CondPreferBinary    ConditionType = "prefer-binary"
)

// Condition is one linear constraint over the problem's binary
// variables. Vars holds 1-based variable indices in [1, Total]; the
// note fields (Subject, Wanted, Cands, GoodCands) hold 0-based
// candidate indices for the blame tracer and the renderer.
type Condition struct {
	Vars  []int
	Coefs []int
	Op    string // "==", "<=" or ">="
	RHS   int
	Type  ConditionType

	Package   string // exactly-once, at-most-once
	Subject   int    // candidate the condition constrains
	Wanted    int    // satisfy-refs, prefer-*: candidate it yields to
	DepRef    string // dependency: the dependency's ref
	Cands     []int  // dependency: all candidates of the dep's package
	GoodCands []int  // dependency: the satisfying subset
	Message   string // pre-rendered human text
}

// Problem is the ILP encoding of one solve call: variables 1..N are
// candidates in table order, variables N+1..N+D are slack variables,
// one per direct package in first-appearance order.
type Problem struct {
	Policy         Policy
	Candidates     []resolution.Candidate
	DirectPackages []string
	Obj            []int
	Conds          []Condition

	ruledOut     map[int]bool
	packageIndex map[string][]int
}

func (p *Problem) NumCandidates() int { return len(p.Candidates) }
func (p *Problem) NumDirect() int     { return len(p.DirectPackages) }
func (p *Problem) Total() int         { return len(p.Candidates) + len(p.DirectPackages) }

// RuledOut returns the candidate indices statically forced to zero,
// ascending.
func (p *Problem) RuledOut() []int {
	out := make([]int, 0, len(p.ruledOut))
	for i := range p.ruledOut {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// CandidatesOf returns the candidate indices of a package in table
// order.
func (p *Problem) CandidatesOf(pkg string) []int {
	return p.packageIndex[pkg]
}

type problemBuilder struct {
	policy Policy
	cands  []resolution.Candidate
	base   map[string]bool
	marker string

	byPackage *orderedmap.OrderedMap // package -> []int, table order
	byRef     map[string]int
	direct    []string
	obj       []int
	conds     []Condition
	ruledOut  map[int]bool
}

// NewProblem encodes the candidate table and policy as an ILP
// problem. The seven build phases run in a fixed order and iterate the
// table in its natural order, so identical inputs produce identical
// problems.
func NewProblem(policy Policy, cands []resolution.Candidate, base map[string]bool, marker string) (*Problem, error) {
	if base == nil {
		base = resolution.BasePackages()
	}
	if marker == "" {
		marker = DefaultBinaryMarker
	}
	b := &problemBuilder{
		policy:    policy,
		cands:     cands,
		base:      base,
		marker:    marker,
		byPackage: orderedmap.New(),
		byRef:     make(map[string]int, len(cands)),
		ruledOut:  map[int]bool{},
	}
	for i := range cands {
		members := []int{i}
		if prev, ok := b.byPackage.Get(cands[i].Package); ok {
			members = append(prev.([]int), i)
		}
		b.byPackage.Set(cands[i].Package, members)
		if _, ok := b.byRef[cands[i].Ref]; !ok {
			b.byRef[cands[i].Ref] = i
		}
	}
	seen := map[string]bool{}
	for i := range cands {
		if cands[i].Direct && !seen[cands[i].Package] {
			seen[cands[i].Package] = true
			b.direct = append(b.direct, cands[i].Package)
		}
	}
	return b.build()
}

func (b *problemBuilder) build() (*Problem, error) {
	if err := b.buildObjective(); err != nil {
		return nil, err
	}
	b.cardinality()
	b.satisfyDirectRefs()
	b.failedResolutions()
	b.preferInstalled()
	b.preferBinaries()
	b.dependencies()

	packageIndex := make(map[string][]int, len(b.byPackage.Keys()))
	for _, pkg := range b.byPackage.Keys() {
		members, _ := b.byPackage.Get(pkg)
		packageIndex[pkg] = members.([]int)
	}
	return &Problem{
		Policy:         b.policy,
		Candidates:     b.cands,
		DirectPackages: b.direct,
		Obj:            b.obj,
		Conds:          b.conds,
		ruledOut:       b.ruledOut,
		packageIndex:   packageIndex,
	}, nil
}

func (b *problemBuilder) members(pkg string) []int {
	if members, ok := b.byPackage.Get(pkg); ok {
		return members.([]int)
	}
	return nil
}

func (b *problemBuilder) emit(c Condition) {
	b.conds = append(b.conds, c)
}

// ruleOut forces candidate i to zero and records it as disqualified.
func (b *problemBuilder) ruleOut(i int, c Condition) {
	b.emit(c)
	b.ruledOut[i] = true
}

func (b *problemBuilder) buildObjective() error {
	obj, err := objective(b.policy, b.cands)
	if err != nil {
		return err
	}
	for range b.direct {
		obj = append(obj, DummyCost)
	}
	b.obj = obj
	return nil
}

// cardinality emits exactly-once rows (candidates plus slack sum to
// one) for direct packages and at-most-once rows for the rest.
func (b *problemBuilder) cardinality() {
	n := len(b.cands)
	isDirect := make(map[string]bool, len(b.direct))
	for d, pkg := range b.direct {
		isDirect[pkg] = true
		members := b.members(pkg)
		vars := make([]int, 0, len(members)+1)
		coefs := make([]int, 0, len(members)+1)
		for _, i := range members {
			vars = append(vars, i+1)
			coefs = append(coefs, 1)
		}
		vars = append(vars, n+d+1)
		coefs = append(coefs, 1)
		b.emit(Condition{
			Vars:    vars,
			Coefs:   coefs,
			Op:      "==",
			RHS:     1,
			Type:    CondExactlyOnce,
			Package: pkg,
		})
	}
	for _, pkg := range b.byPackage.Keys() {
		if isDirect[pkg] {
			continue
		}
		members := b.members(pkg)
		vars := make([]int, 0, len(members))
		coefs := make([]int, 0, len(members))
		for _, i := range members {
			vars = append(vars, i+1)
			coefs = append(coefs, 1)
		}
		b.emit(Condition{
			Vars:    vars,
			Coefs:   coefs,
			Op:      "<=",
			RHS:     1,
			Type:    CondAtMostOnce,
			Package: pkg,
		})
	}
}

// satisfyDirectRefs forces to zero every candidate that cannot stand
// in for a directly requested ref of its package.
func (b *problemBuilder) satisfyDirectRefs() {
	for i := range b.cands {
		if !b.cands[i].Direct {
			continue
		}
		for _, j := range b.members(b.cands[i].Package) {
			if j == i || resolution.SatisfiesRemote(&b.cands[i], &b.cands[j]) {
				continue
			}
			b.emit(Condition{
				Vars:    []int{j + 1},
				Coefs:   []int{1},
				Op:      "==",
				RHS:     0,
				Type:    CondSatisfyRefs,
				Subject: j,
				Wanted:  i,
				Message: fmt.Sprintf("%s does not satisfy direct request %s", b.cands[j].Ref, b.cands[i].Ref),
			})
		}
	}
}

func (b *problemBuilder) failedResolutions() {
	for i := range b.cands {
		if b.cands[i].Status != resolution.StatusFailed {
			continue
		}
		b.ruleOut(i, Condition{
			Vars:    []int{i + 1},
			Coefs:   []int{1},
			Op:      "==",
			RHS:     0,
			Type:    CondOKResolution,
			Subject: i,
			Message: b.cands[i].Error,
		})
	}
}

// preferInstalled rules out cran, bioc and standard copies of a
// version that is already installed from cran or bioc, whichever of
// those registries the copy comes from.
func (b *problemBuilder) preferInstalled() {
	for i := range b.cands {
		c := &b.cands[i]
		if c.Type != resolution.SourceInstalled {
			continue
		}
		if c.RepoType != string(resolution.SourceCRAN) && c.RepoType != string(resolution.SourceBioc) {
			continue
		}
		for _, j := range b.members(c.Package) {
			if j == i {
				continue
			}
			o := &b.cands[j]
			switch o.Type {
			case resolution.SourceCRAN, resolution.SourceBioc, resolution.SourceStandard:
			default:
				continue
			}
			if rversion.Compare(o.Version, c.Version) != 0 {
				continue
			}
			b.ruleOut(j, Condition{
				Vars:    []int{j + 1},
				Coefs:   []int{1},
				Op:      "==",
				RHS:     0,
				Type:    CondPreferInstalled,
				Subject: j,
				Wanted:  i,
				Message: fmt.Sprintf("%s is already installed as %s", o.Ref, c.Ref),
			})
		}
	}
}

// DefaultBinaryMarker is the mirror substring that identifies an
// alternate binary source. This is an explicit stopgap; callers who
// need platform-aware matching supply their own marker.
const DefaultBinaryMarker = "__linux__"

// preferBinaries partitions registry candidates by (type, package,
// version) and rules out everything but the preferred member: the
// first binary, or failing that the first candidate served from a
// binary mirror.
func (b *problemBuilder) preferBinaries() {
	parts := orderedmap.New()
	for i := range b.cands {
		c := &b.cands[i]
		switch c.Type {
		case resolution.SourceCRAN, resolution.SourceBioc, resolution.SourceStandard:
		default:
			continue
		}
		key := string(c.Type) + "\x00" + c.Package + "\x00" + c.Version
		members := []int{i}
		if prev, ok := parts.Get(key); ok {
			members = append(prev.([]int), i)
		}
		parts.Set(key, members)
	}
	for _, key := range parts.Keys() {
		value, _ := parts.Get(key)
		members := value.([]int)
		preferred := -1
		for _, i := range members {
			if !b.cands[i].SourcePlatform() {
				preferred = i
				break
			}
		}
		if preferred < 0 {
			for _, i := range members {
				if strings.Contains(b.cands[i].Mirror, b.marker) {
					preferred = i
					break
				}
			}
		}
		if preferred < 0 {
			continue
		}
		for _, i := range members {
			if i == preferred {
				continue
			}
			b.ruleOut(i, Condition{
				Vars:    []int{i + 1},
				Coefs:   []int{1},
				Op:      "==",
				RHS:     0,
				Type:    CondPreferBinary,
				Subject: i,
				Wanted:  preferred,
				Message: fmt.Sprintf("%s is shadowed by binary %s", b.cands[i].Ref, b.cands[preferred].Ref),
			})
		}
	}
}

// dependencies emits, for every usable candidate and every honored
// dependency edge, the row x_c - sum(x_good) <= 0: choosing c forces
// at least one satisfying candidate of the dependency.
func (b *problemBuilder) dependencies() {
	for i := range b.cands {
		c := &b.cands[i]
		if c.Status != resolution.StatusOK || b.ruledOut[i] {
			continue
		}
		for _, d := range b.filteredDeps(c) {
			members := b.members(d.Package)
			wanted := b.requestFor(d.Ref)
			var good []int
			for _, j := range members {
				o := &b.cands[j]
				if o.Status != resolution.StatusOK {
					continue
				}
				if !resolution.SatisfiesRemote(wanted, o) {
					continue
				}
				if d.Op != "" && !rversion.Satisfies(o.Version, d.Op, d.Version) {
					continue
				}
				good = append(good, j)
			}

			vars := make([]int, 0, len(good)+1)
			coefs := make([]int, 0, len(good)+1)
			vars = append(vars, i+1)
			coefs = append(coefs, 1)
			for _, j := range good {
				vars = append(vars, j+1)
				coefs = append(coefs, -1)
			}

			msg := fmt.Sprintf("%s depends on %s", c.Ref, d.Describe())
			if len(good) == 0 {
				msg += ", but no candidate can satisfy it"
			} else {
				refs := make([]string, len(good))
				for k, j := range good {
					refs[k] = b.cands[j].Ref
				}
				msg += ": needs one of " + strings.Join(refs, ", ")
			}
			b.emit(Condition{
				Vars:      vars,
				Coefs:     coefs,
				Op:        "<=",
				RHS:       0,
				Type:      CondDependency,
				Subject:   i,
				DepRef:    d.Ref,
				Cands:     append([]int(nil), members...),
				GoodCands: good,
				Message:   msg,
			})
		}
	}
}

// filteredDeps drops the language pseudo-dependency, base packages,
// kinds the candidate does not honor and, for binaries, linkingto
// edges.
func (b *problemBuilder) filteredDeps(c *resolution.Candidate) []resolution.DepEdge {
	binary := !c.SourcePlatform()
	var out []resolution.DepEdge
	for _, d := range c.Deps {
		if d.Ref == "R" || d.Package == "R" {
			continue
		}
		if b.base[d.Package] {
			continue
		}
		if !c.WantsDepKind(d.Kind) {
			continue
		}
		if binary && strings.EqualFold(d.Kind, "linkingto") {
			continue
		}
		out = append(out, d)
	}
	return out
}

// requestFor resolves a dependency ref to its candidate row, or to a
// synthetic request when the resolver produced no row for it.
func (b *problemBuilder) requestFor(ref string) *resolution.Candidate {
	if i, ok := b.byRef[ref]; ok {
		return &b.cands[i]
	}
	return resolution.RequestForRef(ref)
}

// String renders the problem: one line per candidate ref, then one
// line per condition. The rendering is stable for identical inputs.
func (p *Problem) String() string {
	var sb strings.Builder
	for i := range p.Candidates {
		fmt.Fprintf(&sb, "%d: %s\n", i+1, p.Candidates[i].Ref)
	}
	for d, pkg := range p.DirectPackages {
		fmt.Fprintf(&sb, "%d: <%s dummy>\n", p.NumCandidates()+d+1, pkg)
	}
	for i := range p.Conds {
		fmt.Fprintf(&sb, "%s\n", p.describe(&p.Conds[i]))
	}
	return sb.String()
}

func (p *Problem) describe(c *Condition) string {
	switch c.Type {
	case CondExactlyOnce:
		return fmt.Sprintf("%s: select exactly one of %s", c.Package, p.refList(c.Vars, true))
	case CondAtMostOnce:
		return fmt.Sprintf("%s: select at most one of %s", c.Package, p.refList(c.Vars, false))
	case CondSatisfyRefs, CondDependency, CondOKResolution, CondPreferInstalled, CondPreferBinary:
		if c.Type == CondOKResolution && c.Message == "" {
			return fmt.Sprintf("%s failed to resolve", p.Candidates[c.Subject].Ref)
		}
		if c.Type == CondOKResolution {
			return fmt.Sprintf("%s failed to resolve: %s", p.Candidates[c.Subject].Ref, c.Message)
		}
		return c.Message
	}
	return string(c.Type)
}

func (p *Problem) refList(vars []int, withDummies bool) string {
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		if v <= p.NumCandidates() {
			names = append(names, p.Candidates[v-1].Ref)
		} else if withDummies {
			names = append(names, "<none>")
		}
	}
	return strings.Join(names, ", ")
}
