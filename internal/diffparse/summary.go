package diffparse

// Summary aggregates counts over a set of parsed changes.
type Summary struct {
	TotalFiles     int                `json:"total_files"`
	TotalAdditions int                `json:"total_additions"`
	TotalDeletions int                `json:"total_deletions"`
	ByChangeType   map[ChangeType]int `json:"by_change_type"`
	ByExtension    map[string]int     `json:"by_extension"`
	MostComplex    *ParsedChange      `json:"most_complex,omitempty"`
}

// Summarize computes totals, per-type and per-extension counts, and the
// single highest-complexity change. Complexity ties break by input order
// (first maximum wins); MostComplex is nil for empty input.
func Summarize(changes []ParsedChange) Summary {
	s := Summary{
		TotalFiles:   len(changes),
		ByChangeType: make(map[ChangeType]int),
		ByExtension:  make(map[string]int),
	}

	for i := range changes {
		c := &changes[i]
		s.TotalAdditions += c.Additions
		s.TotalDeletions += c.Deletions
		s.ByChangeType[c.ChangeType]++

		ext := c.Extension
		if ext == "" {
			ext = UnknownExtension
		}
		s.ByExtension[ext]++

		if s.MostComplex == nil || c.Complexity > s.MostComplex.Complexity {
			cc := *c
			s.MostComplex = &cc
		}
	}
	return s
}
