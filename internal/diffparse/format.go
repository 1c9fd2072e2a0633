package diffparse

import (
	"fmt"
	"strings"
)

// FormatForAnalysis renders one change for downstream analyzer consumption.
// With metadata enabled it prefixes the raw diff with an annotation block:
// file path, change type, resolved language, add/delete counts, and for
// renames the prior path. Without metadata it returns the raw diff alone.
func FormatForAnalysis(change ParsedChange, includeMetadata bool) string {
	if !includeMetadata {
		return change.Diff
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", change.File)
	fmt.Fprintf(&b, "Change: %s\n", change.ChangeType)
	fmt.Fprintf(&b, "Language: %s\n", Language(change.Extension))
	fmt.Fprintf(&b, "Lines: +%d -%d\n", change.Additions, change.Deletions)
	if change.ChangeType == ChangeRenamed && change.OldPath != "" {
		fmt.Fprintf(&b, "Renamed from: %s\n", change.OldPath)
	}
	b.WriteString("\n")
	b.WriteString(change.Diff)
	return b.String()
}
