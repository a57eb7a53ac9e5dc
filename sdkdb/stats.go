package sdkdb

// Stats holds statistical metadata about a comparison. A Stats value is
// written to by a single comparison & isn't safe for concurrent use
type Stats struct {
	Nodes   int `json:"nodes"`   // count of Compare calls, one per visited node pair
	Targets int `json:"targets"` // count of target lists compared

	Entries    int `json:"entries"`              // count of entries compared
	Mismatched int `json:"mismatched,omitempty"` // entries whose comparison failed
	Skipped    int `json:"skipped,omitempty"`    // baseline entries with an empty install name
	Missing    int `json:"missing,omitempty"`    // baseline entries missing from the candidate
}

// Failed reports whether any entry or list comparison diverged
func (s Stats) Failed() bool {
	return s.Mismatched > 0 || s.Missing > 0
}

// PctMismatched returns a value from 0.0 to 1.0 representing the share of
// compared entries that diverged
func (s Stats) PctMismatched() float64 {
	if s.Entries == 0 {
		return 0
	}
	return float64(s.Mismatched) / float64(s.Entries)
}
