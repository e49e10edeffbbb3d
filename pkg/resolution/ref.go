package resolution

import "strings"

// ParseRef splits a candidate ref into its source type and package
// name. Refs look like "cran::pkg", "bioc::pkg", "github::user/repo",
// "github::user/repo@sha", "url::https://...", "local::/path/pkg" or a
// bare package name, which is a standard request.
func ParseRef(ref string) (SourceType, string) {
	idx := strings.Index(ref, "::")
	if idx < 0 {
		return SourceStandard, trimVersion(ref)
	}
	typ := SourceType(ref[:idx])
	rest := ref[idx+2:]
	switch typ {
	case SourceInstalled, SourceCRAN, SourceBioc, SourceStandard, SourceGithub, SourceURL, SourceLocal, SourceDeps:
	default:
		return SourceStandard, trimVersion(rest)
	}
	return typ, refPackage(typ, rest)
}

func refPackage(typ SourceType, rest string) string {
	switch typ {
	case SourceGithub, SourceInstalled, SourceLocal:
		// user/repo[@sha], lib/pkg, /path/to/pkg
		if i := strings.LastIndex(rest, "/"); i >= 0 {
			rest = rest[i+1:]
		}
	case SourceURL:
		if i := strings.LastIndex(rest, "/"); i >= 0 {
			rest = rest[i+1:]
		}
		for _, suffix := range []string{".tar.gz", ".tgz", ".zip"} {
			rest = strings.TrimSuffix(rest, suffix)
		}
	}
	return trimVersion(rest)
}

func trimVersion(name string) string {
	if i := strings.Index(name, "@"); i >= 0 {
		return name[:i]
	}
	return name
}

// RequestForRef builds a synthetic request candidate for a dependency
// ref that has no row of its own in the candidate table, so remote
// satisfaction can still be checked against it.
func RequestForRef(ref string) *Candidate {
	typ, pkg := ParseRef(ref)
	return &Candidate{
		Ref:     ref,
		Package: pkg,
		Type:    typ,
		Status:  StatusOK,
	}
}
