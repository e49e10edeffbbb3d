package planner_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/perdasilva/planr/pkg/planner"
	"github.com/perdasilva/planr/pkg/resolution"
	"github.com/perdasilva/planr/pkg/solver"
)

func candidateTable() []resolution.Candidate {
	return []resolution.Candidate{
		{
			Ref:      "cran::pkgA",
			Package:  "pkgA",
			Version:  "1.0",
			Type:     resolution.SourceCRAN,
			Platform: "x86_64-pc-linux-gnu",
			Direct:   true,
			Status:   resolution.StatusOK,
			DepTypes: []string{"depends", "imports", "linkingto"},
			Deps: []resolution.DepEdge{
				{Ref: "cran::pkgB", Package: "pkgB", Kind: "imports"},
			},
		},
		{
			Ref:      "cran::pkgB",
			Package:  "pkgB",
			Version:  "2.0",
			Type:     resolution.SourceCRAN,
			Platform: "x86_64-pc-linux-gnu",
			Status:   resolution.StatusOK,
			DepTypes: []string{"depends", "imports", "linkingto"},
		},
	}
}

var _ = Describe("Planner", func() {
	var (
		cfg planner.Config
		res *resolution.Resolution
	)

	BeforeEach(func() {
		cfg = planner.Config{Library: "/tmp/lib", Policy: "lazy"}
		res = resolution.NewResolution(candidateTable())
	})

	It("refuses to solve without a library", func() {
		p := planner.New(planner.Config{})
		_, err := p.Solve(context.Background(), res)
		Expect(err).To(MatchError(planner.ErrNoLibrary))
	})

	It("refuses stale resolutions", func() {
		res.Invalidate()
		p := planner.New(cfg)
		_, err := p.Solve(context.Background(), res)
		Expect(err).To(MatchError(planner.ErrStaleResolution))
	})

	It("rejects unknown policies", func() {
		cfg.Policy = "eager"
		p := planner.New(cfg)
		_, err := p.Solve(context.Background(), res)
		Expect(err).To(Equal(solver.UnknownPolicyError{Policy: "eager"}))
	})

	It("solves a consistent table", func() {
		p := planner.New(cfg)
		result, err := p.Solve(context.Background(), res)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(solver.StatusOK))
		Expect(result.Selected).To(Equal([]int{0, 1}))
	})

	It("recovers infeasibility into a failure report", func() {
		table := candidateTable()
		table[1].Status = resolution.StatusFailed
		table[1].Error = "mirror timeout"
		p := planner.New(cfg)
		result, err := p.Solve(context.Background(), resolution.NewResolution(table))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(solver.StatusFailed))
		Expect(result.Failures).NotTo(BeNil())
		Expect(result.Failures.String()).To(ContainSubstring("Cannot install dependency cran::pkgB"))
	})
})

var _ = Describe("Config", func() {
	It("loads from yaml", func() {
		dir, err := os.MkdirTemp("", "planr")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "planr.yaml")
		Expect(os.WriteFile(path, []byte(
			"library: /usr/lib/R/library\npolicy: upgrade\nbase_packages: [base, stats]\nbinary_marker: __focal__\n",
		), 0o644)).To(Succeed())

		cfg, err := planner.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Library).To(Equal("/usr/lib/R/library"))
		Expect(cfg.SolvePolicy()).To(Equal(solver.PolicyUpgrade))
		Expect(cfg.BasePackages).To(Equal([]string{"base", "stats"}))
		Expect(cfg.BinaryMarker).To(Equal("__focal__"))
	})

	It("defaults the policy to lazy", func() {
		cfg := planner.Config{}
		Expect(cfg.SolvePolicy()).To(Equal(solver.PolicyLazy))
	})

	It("fails on a missing file", func() {
		_, err := planner.LoadConfig("/does/not/exist.yaml")
		Expect(err).To(HaveOccurred())
	})
})
