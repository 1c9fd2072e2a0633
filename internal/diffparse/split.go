package diffparse

import "strings"

const diffHeaderPrefix = "diff --git "

// SplitDiff segments a whole unified-diff text into per-file blocks, split on
// file-header boundaries and keyed by each file's new path. Content before
// the first header (commit headers from `git show`, for example) is dropped.
// Empty input yields zero blocks.
func SplitDiff(fullDiff string) map[string]string {
	blocks := make(map[string]string)
	if strings.TrimSpace(fullDiff) == "" {
		return blocks
	}

	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		block := strings.Join(current, "\n")
		if p := blockNewPath(block); p != "" {
			blocks[p] = block
		}
		current = nil
	}

	for _, line := range strings.Split(fullDiff, "\n") {
		if strings.HasPrefix(line, diffHeaderPrefix) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return blocks
}

// blockNewPath extracts the new-side path of one per-file diff block.
// The "+++ b/" line is authoritative; deleted files carry "+++ /dev/null",
// so those fall back to the b side of the "diff --git a/X b/Y" header.
func blockNewPath(block string) string {
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
	}

	header, _, _ := strings.Cut(block, "\n")
	if !strings.HasPrefix(header, diffHeaderPrefix) {
		return ""
	}
	if idx := strings.LastIndex(header, " b/"); idx >= 0 {
		return header[idx+len(" b/"):]
	}
	return ""
}
