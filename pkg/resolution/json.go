package resolution

import (
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// LoadTable reads a resolver-emitted candidate table from a JSON file.
func LoadTable(path string) (*Resolution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read resolution table %s", path)
	}
	res, err := ParseTable(data)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse resolution table %s", path)
	}
	return res, nil
}

// ParseTable parses a candidate table from resolver JSON. The table
// is either a bare array of candidate rows or an object with a
// "candidates" array.
func ParseTable(data []byte) (*Resolution, error) {
	root := gjson.ParseBytes(data)
	rows := root
	if root.IsObject() {
		rows = root.Get("candidates")
	}
	if !rows.IsArray() {
		return nil, errors.New("expected a candidate array")
	}

	var candidates []Candidate
	var parseErr error
	rows.ForEach(func(_, row gjson.Result) bool {
		c := Candidate{
			Ref:      row.Get("ref").String(),
			Package:  row.Get("package").String(),
			Version:  row.Get("version").String(),
			Type:     SourceType(row.Get("type").String()),
			Platform: row.Get("platform").String(),
			Mirror:   row.Get("mirror").String(),
			Direct:   row.Get("direct").Bool(),
			Status:   Status(row.Get("status").String()),
			RepoType: row.Get("extra.repotype").String(),
			Error:    row.Get("error").String(),
		}
		if c.Ref == "" {
			parseErr = errors.Errorf("candidate %d has no ref", len(candidates))
			return false
		}
		if c.Package == "" {
			_, c.Package = ParseRef(c.Ref)
		}
		if c.Status == "" {
			c.Status = StatusOK
		}
		row.Get("dep_types").ForEach(func(_, kind gjson.Result) bool {
			c.DepTypes = append(c.DepTypes, kind.String())
			return true
		})
		row.Get("deps").ForEach(func(_, dep gjson.Result) bool {
			edge := DepEdge{
				Ref:     dep.Get("ref").String(),
				Package: dep.Get("package").String(),
				Kind:    dep.Get("type").String(),
				Op:      dep.Get("op").String(),
				Version: dep.Get("version").String(),
			}
			if edge.Package == "" {
				_, edge.Package = ParseRef(edge.Ref)
			}
			c.Deps = append(c.Deps, edge)
			return true
		})
		candidates = append(candidates, c)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return NewResolution(candidates), nil
}
