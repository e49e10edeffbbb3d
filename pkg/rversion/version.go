// Package rversion compares R package version strings. R versions are
// sequences of two to four non-negative integers separated by dots or
// dashes; the dash carries no special meaning and compares like a dot.
package rversion

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var zero = goversion.Must(goversion.NewVersion("0"))

func parse(v string) *goversion.Version {
	parsed, err := goversion.NewVersion(strings.ReplaceAll(v, "-", "."))
	if err != nil {
		return zero
	}
	return parsed
}

// Compare returns -1, 0 or 1 if a sorts before, equal to or after b.
// Components are compared left to right numerically, the shorter
// version padded with zeros. Unparseable versions compare as "0".
func Compare(a, b string) int {
	return parse(a).Compare(parse(b))
}

// Satisfies reports whether version v satisfies the requirement
// "op req". An empty op is always satisfied. Unknown operators are
// never satisfied.
func Satisfies(v, op, req string) bool {
	if op == "" {
		return true
	}
	cmp := Compare(v, req)
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}
