// Package issue defines the core domain types for goosereview.
package issue

import "sort"

// Source identifies which analyzer produced an issue.
type Source string

// Known issue sources. Merged issues are produced by the merge engine when a
// server finding and an AI finding describe the same problem.
const (
	SourceServer Source = "server"
	SourceAI     Source = "ai"
	SourceMerged Source = "merged"
)

// Severity is an issue severity level, ordered from INFO up to BLOCKER.
type Severity string

// Severity levels, matching the analysis server's taxonomy.
const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityInfo     Severity = "INFO"
)

// Type categorizes what kind of problem an issue describes.
type Type string

// Issue types, matching the analysis server's taxonomy.
const (
	TypeBug             Type = "BUG"
	TypeVulnerability   Type = "VULNERABILITY"
	TypeCodeSmell       Type = "CODE_SMELL"
	TypeSecurityHotspot Type = "SECURITY_HOTSPOT"
)

// Issue is a single finding tied to a file location.
type Issue struct {
	Source   Source   `json:"source"`
	Severity Severity `json:"severity"`
	Type     Type     `json:"type"`
	File     string   `json:"file"`
	Line     int      `json:"line"` // 0 means file-level
	Message  string   `json:"message"`
	Rule     string   `json:"rule,omitempty"`   // analyzer rule id, when known
	Effort   string   `json:"effort,omitempty"` // remediation estimate, e.g. "5min"
}

// severityRank orders severities for sorting and comparison.
// Unknown severities rank below INFO.
var severityRank = map[Severity]int{
	SeverityBlocker:  5,
	SeverityCritical: 4,
	SeverityMajor:    3,
	SeverityMinor:    2,
	SeverityInfo:     1,
}

// Rank returns a sortable weight for s; higher means more severe.
// Unrecognized severities return 0.
func (s Severity) Rank() int {
	return severityRank[s]
}

// MoreSevere returns whichever of a and b ranks higher. Ties return a.
func MoreSevere(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// SortBySeverity orders issues most severe first. The sort is stable so
// issues of equal severity keep their input order.
func SortBySeverity(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Rank() > issues[j].Severity.Rank()
	})
}

// CountBySeverity folds issues into a severity→count map. Severities with no
// occurrences are absent from the map, not present with a zero count.
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := make(map[Severity]int)
	for _, is := range issues {
		counts[is.Severity]++
	}
	return counts
}

// CountByType folds issues into a type→count map. Types with no occurrences
// are absent from the map.
func CountByType(issues []Issue) map[Type]int {
	counts := make(map[Type]int)
	for _, is := range issues {
		counts[is.Type]++
	}
	return counts
}
