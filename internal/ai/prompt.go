// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package ai

import "strings"

// systemPrompt instructs the model to act as a code reviewer and emit the
// strict JSON shape parseFindings expects.
const systemPrompt = `You are an expert code reviewer analyzing source-code changes.

Review the provided diffs for bugs, vulnerabilities, security hotspots, and
code smells. Report only findings you are confident about; do not pad the
list. Respond with a single JSON object and nothing else:

{
  "issues": [
    {
      "severity": "BLOCKER|CRITICAL|MAJOR|MINOR|INFO",
      "type": "BUG|VULNERABILITY|CODE_SMELL|SECURITY_HOTSPOT",
      "file": "path as shown in the diff",
      "line": 42,
      "message": "one-sentence description of the problem",
      "effort": "estimated fix time, e.g. 5min"
    }
  ],
  "summary": "one-paragraph overall assessment of the change"
}

Use line 0 for file-level findings. Use line numbers from the new side of
the diff.`

// buildPrompt wraps packed diff content into the user message.
func buildPrompt(content string) string {
	var b strings.Builder
	b.WriteString("Review the following source-code changes:\n\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
