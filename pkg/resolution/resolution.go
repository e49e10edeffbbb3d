package resolution

// Resolution is an immutable snapshot of the candidate table produced
// by the upstream resolver. A snapshot can be invalidated when the
// library it was resolved against changes; a stale snapshot must be
// re-resolved before solving.
type Resolution struct {
	candidates []Candidate
	stale      bool
}

func NewResolution(candidates []Candidate) *Resolution {
	snapshot := make([]Candidate, len(candidates))
	copy(snapshot, candidates)
	return &Resolution{candidates: snapshot}
}

// Candidates returns the snapshot's candidate table in resolver order.
func (r *Resolution) Candidates() []Candidate {
	return r.candidates
}

// Invalidate marks the snapshot stale.
func (r *Resolution) Invalidate() {
	r.stale = true
}

func (r *Resolution) Stale() bool {
	return r.stale
}

// ByRef returns the first candidate with the given ref, or nil.
func (r *Resolution) ByRef(ref string) *Candidate {
	for i := range r.candidates {
		if r.candidates[i].Ref == ref {
			return &r.candidates[i]
		}
	}
	return nil
}

// Search returns the indices of candidates matching the predicate, in
// table order.
func (r *Resolution) Search(predicate Predicate) []int {
	var out []int
	for i := range r.candidates {
		if predicate(&r.candidates[i]) {
			out = append(out, i)
		}
	}
	return out
}
