package resolution

import "strings"

// Status is the outcome of resolving a single candidate.
type Status string

const (
	StatusOK     Status = "OK"
	StatusFailed Status = "FAILED"
)

// SourceType identifies where a candidate can be obtained from.
type SourceType string

const (
	SourceInstalled SourceType = "installed"
	SourceCRAN      SourceType = "cran"
	SourceBioc      SourceType = "bioc"
	SourceStandard  SourceType = "standard"
	SourceGithub    SourceType = "github"
	SourceURL       SourceType = "url"
	SourceLocal     SourceType = "local"
	SourceDeps      SourceType = "deps"
)

// PlatformSource marks a candidate that has to be built from source.
const PlatformSource = "source"

// DepEdge is one outgoing dependency of a candidate: the dependency's
// resolved ref, its package name, the dependency kind (depends,
// imports, linkingto, suggests) and an optional version requirement.
type DepEdge struct {
	Ref     string `json:"ref" yaml:"ref"`
	Package string `json:"package" yaml:"package"`
	Kind    string `json:"type" yaml:"type"`
	Op      string `json:"op,omitempty" yaml:"op,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Describe renders the edge the way it appears in failure messages.
func (d DepEdge) Describe() string {
	if d.Op == "" {
		return d.Ref
	}
	return d.Ref + " (" + d.Op + " " + d.Version + ")"
}

// Candidate is one concrete offer of one package version from one
// source. Candidates are produced by the upstream resolver and are
// read-only to the solver.
type Candidate struct {
	Ref      string     `json:"ref" yaml:"ref"`
	Package  string     `json:"package" yaml:"package"`
	Version  string     `json:"version,omitempty" yaml:"version,omitempty"`
	Type     SourceType `json:"type" yaml:"type"`
	Platform string     `json:"platform,omitempty" yaml:"platform,omitempty"`
	Mirror   string     `json:"mirror,omitempty" yaml:"mirror,omitempty"`
	Direct   bool       `json:"direct,omitempty" yaml:"direct,omitempty"`
	Status   Status     `json:"status" yaml:"status"`
	Deps     []DepEdge  `json:"deps,omitempty" yaml:"deps,omitempty"`
	DepTypes []string   `json:"dep_types,omitempty" yaml:"dep_types,omitempty"`
	RepoType string     `json:"repotype,omitempty" yaml:"repotype,omitempty"`
	Error    string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// SourcePlatform reports whether the candidate is a source artifact.
// An empty platform counts as source.
func (c *Candidate) SourcePlatform() bool {
	return c.Platform == "" || c.Platform == PlatformSource
}

// WantsDepKind reports whether the candidate honors dependency edges
// of the given kind. Kinds compare case-insensitively.
func (c *Candidate) WantsDepKind(kind string) bool {
	for _, k := range c.DepTypes {
		if strings.EqualFold(k, kind) {
			return true
		}
	}
	return false
}
