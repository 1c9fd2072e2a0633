// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package scanner runs the sonar-scanner CLI and turns its output into the
// task handle the analysis client polls on. It is the production
// implementation of the sonarqube.ScanRunner primitive.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/sonarqube"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/testable"
)

// DefaultTimeout bounds one scanner invocation.
const DefaultTimeout = 10 * time.Minute

// reportTaskFile is where the scanner CLI writes the compute-engine task
// handle, relative to the scanned directory.
const reportTaskFile = ".scannerwork/report-task.txt"

// Scanner invokes the sonar-scanner binary for one project directory.
type Scanner struct {
	exec       testable.CommandExecutor
	workDir    string
	projectKey string
	serverURL  string
	token      string
	timeout    time.Duration
	extraProps map[string]string
}

// Compile-time check that Scanner implements the scan primitive.
var _ sonarqube.ScanRunner = (*Scanner)(nil)

// Option configures a Scanner.
type Option func(*Scanner)

// WithExecutor replaces the command executor. Used by tests.
func WithExecutor(exec testable.CommandExecutor) Option {
	return func(s *Scanner) {
		s.exec = exec
	}
}

// WithToken sets the authentication token passed to the scanner.
func WithToken(token string) Option {
	return func(s *Scanner) {
		s.token = token
	}
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithProperty adds an extra -D analysis property.
func WithProperty(key, value string) Option {
	return func(s *Scanner) {
		s.extraProps[key] = value
	}
}

// New creates a Scanner for the given project directory, project key, and
// server URL.
func New(workDir, projectKey, serverURL string, opts ...Option) *Scanner {
	s := &Scanner{
		exec:       testable.DefaultExecutor(),
		workDir:    workDir,
		projectKey: projectKey,
		serverURL:  serverURL,
		timeout:    DefaultTimeout,
		extraProps: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes sonar-scanner and parses the resulting report-task file into
// a ScanTask. The error embeds trimmed scanner stderr when the process fails.
func (s *Scanner) Run(ctx context.Context) (sonarqube.ScanTask, error) {
	binPath, err := s.exec.LookPath("sonar-scanner")
	if err != nil {
		return sonarqube.ScanTask{}, fmt.Errorf("scanner: sonar-scanner not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := s.exec.CommandContext(ctx, binPath, s.args()...)
	cmd.Dir = s.workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("scanner: running sonar-scanner", "dir", s.workDir, "project", s.projectKey)
	if err := cmd.Run(); err != nil {
		return sonarqube.ScanTask{}, fmt.Errorf("scanner: sonar-scanner failed: %w: %s",
			err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(filepath.Join(s.workDir, reportTaskFile)) //nolint:gosec // path under the scanned directory
	if err != nil {
		return sonarqube.ScanTask{}, fmt.Errorf("scanner: reading %s: %w", reportTaskFile, err)
	}

	task, err := ParseReportTask(data)
	if err != nil {
		return sonarqube.ScanTask{}, err
	}

	slog.Debug("scanner: scan complete", "task_id", task.TaskID)
	return task, nil
}

// args assembles the -D property flags for one invocation. Extra properties
// are appended in sorted-insertion order after the fixed set.
func (s *Scanner) args() []string {
	args := []string{
		"-Dsonar.projectKey=" + s.projectKey,
		"-Dsonar.host.url=" + s.serverURL,
	}
	if s.token != "" {
		args = append(args, "-Dsonar.token="+s.token)
	}
	for key, value := range s.extraProps {
		args = append(args, "-D"+key+"="+value)
	}
	return args
}

// ParseReportTask extracts the compute-engine task id and dashboard URL from
// the scanner's report-task.txt, a line-based key=value file.
func ParseReportTask(data []byte) (sonarqube.ScanTask, error) {
	var task sonarqube.ScanTask
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "ceTaskId":
			task.TaskID = value
		case "dashboardUrl":
			task.DashboardURL = value
		}
	}

	if task.TaskID == "" {
		return sonarqube.ScanTask{}, fmt.Errorf("scanner: report task file has no ceTaskId")
	}
	return task, nil
}
