package main

// Exit codes for the goosereview CLI.
const (
	ExitOK              = 0 // Review completed; nothing at or above --fail-on.
	ExitInvalidArgs     = 1 // Invalid arguments, bad path, or unusable config.
	ExitIssuesFound     = 2 // Findings at or above the --fail-on severity.
	ExitAnalysisFailure = 3 // An analyzer failed; no report produced.
)
