package mapping

// Family groups the mappings produced by several matchers for the same
// pair of ontologies.
type Family struct {
	ids      []string
	mappings map[string]Mapping
}

// NewFamily returns an empty family.
func NewFamily() *Family {
	return &Family{mappings: make(map[string]Mapping)}
}

// Add registers the mapping of one matcher. Adding the same id again
// replaces its mapping.
func (f *Family) Add(matcher string, m Mapping) {
	if _, ok := f.mappings[matcher]; !ok {
		f.ids = append(f.ids, matcher)
	}
	f.mappings[matcher] = m.Copy()
}

// Len returns the number of matchers.
func (f *Family) Len() int { return len(f.ids) }

// MergeByVote merges the family so that a correspondence found by more
// matchers always ranks above one found by fewer, and among equal votes
// the higher confidence total wins. Inputs are rescaled to [0,1] first;
// the result is rescaled to [0,1] and sorted by descending confidence.
func (f *Family) MergeByVote() Mapping {
	k := float64(len(f.ids))
	if k == 0 {
		return nil
	}
	var out Mapping
	votes := make(map[string]int)
	totals := make(map[string]float64)
	for _, id := range f.ids {
		m := f.mappings[id].Copy()
		_ = m.Rescale(0, 1)
		for _, c := range m {
			key := c.Key()
			if _, ok := votes[key]; !ok {
				out = append(out, c)
			}
			votes[key]++
			totals[key] += c.Confidence
		}
	}

	perVote := 1 / k
	perConf := perVote / (k + 1)
	for i, c := range out {
		key := c.Key()
		out[i].Confidence = float64(votes[key]-1)*perVote + totals[key]*perConf
	}
	_ = out.Rescale(0, 1)
	out.SortByConfidence()
	return out
}
