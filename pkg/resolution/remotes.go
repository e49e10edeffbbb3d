package resolution

// Predicate evaluates one candidate.
type Predicate func(c *Candidate) bool

// And composes predicates; all must hold.
func And(predicates ...Predicate) Predicate {
	return func(c *Candidate) bool {
		for _, predicate := range predicates {
			if !predicate(c) {
				return false
			}
		}
		return true
	}
}

// WithPackage matches candidates of the given package.
func WithPackage(pkg string) Predicate {
	return func(c *Candidate) bool {
		return c.Package == pkg
	}
}

// WithStatus matches candidates with the given resolution status.
func WithStatus(status Status) Predicate {
	return func(c *Candidate) bool {
		return c.Status == status
	}
}

// SatisfiesRemote reports whether other is an acceptable substitute
// for the candidate wanted. The predicate is part of the resolver
// contract and is deterministic:
//
//   - identical refs always satisfy;
//   - a standard request (and the virtual deps request) is satisfied
//     by any registry candidate or an installed copy;
//   - a cran or bioc request is satisfied by its own registry or an
//     installed copy recorded as coming from that registry;
//   - pinned sources (github, url, local) are satisfied only by an
//     identical ref or an installed copy of the same package.
func SatisfiesRemote(wanted, other *Candidate) bool {
	if wanted.Ref == other.Ref {
		return true
	}
	if wanted.Package != other.Package {
		return false
	}
	switch wanted.Type {
	case SourceStandard, SourceDeps:
		switch other.Type {
		case SourceCRAN, SourceBioc, SourceStandard, SourceInstalled:
			return true
		}
		return false
	case SourceCRAN:
		return other.Type == SourceCRAN ||
			(other.Type == SourceInstalled && other.RepoType == string(SourceCRAN))
	case SourceBioc:
		return other.Type == SourceBioc ||
			(other.Type == SourceInstalled && other.RepoType == string(SourceBioc))
	case SourceGithub, SourceURL, SourceLocal:
		return other.Type == SourceInstalled
	case SourceInstalled:
		return false
	}
	return false
}

// basePackages ships with the R runtime and is never installed by the
// planner.
var basePackages = []string{
	"base", "compiler", "datasets", "graphics", "grDevices", "grid",
	"methods", "parallel", "splines", "stats", "stats4", "tcltk",
	"tools", "utils",
}

// BasePackages returns the set of package names that must never
// appear in dependency constraints.
func BasePackages() map[string]bool {
	set := make(map[string]bool, len(basePackages))
	for _, pkg := range basePackages {
		set[pkg] = true
	}
	return set
}
