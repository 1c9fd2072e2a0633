package main

import "github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/testable"

// cmdFS is the file system implementation used by CLI commands.
// Override in tests with a testable.MockFileSystem.
var cmdFS testable.FileSystem = testable.DefaultFS
