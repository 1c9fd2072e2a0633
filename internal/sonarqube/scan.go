// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package sonarqube

import (
	"context"
	"log/slog"
	"time"
)

// ScanTask is the handle returned by a triggered remote scan. TaskID is the
// poll key for WaitForAnalysis.
type ScanTask struct {
	TaskID       string `json:"task_id"`
	DashboardURL string `json:"dashboard_url"`
}

// ScanRunner is the external scan-execution primitive. It performs the
// actual source scan and resolves exactly once with a task handle or an
// error. The scanner package provides the production implementation.
type ScanRunner interface {
	Run(ctx context.Context) (ScanTask, error)
}

// ScanRunnerFunc adapts a function to the ScanRunner interface.
type ScanRunnerFunc func(ctx context.Context) (ScanTask, error)

// Run invokes f.
func (f ScanRunnerFunc) Run(ctx context.Context) (ScanTask, error) {
	return f(ctx)
}

// ScanResult wraps both outcomes of a scan trigger. Failures are reported in
// the result, never as a Go error.
type ScanResult struct {
	Success       bool          `json:"success"`
	TaskID        string        `json:"task_id,omitempty"`
	DashboardURL  string        `json:"dashboard_url,omitempty"`
	Err           string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// RunScan triggers the external scan primitive and wraps its outcome.
// It fails immediately with a "not available" result if the client has not
// been promoted to SERVER mode by a successful probe.
func (c *Client) RunScan(ctx context.Context, runner ScanRunner) ScanResult {
	start := time.Now()

	if c.mode != ModeServer {
		return ScanResult{
			Err:           ErrNotAvailable.Error(),
			ExecutionTime: time.Since(start),
		}
	}

	task, err := runner.Run(ctx)
	if err != nil {
		slog.Debug("sonarqube: scan failed", "error", err)
		return ScanResult{
			Err:           err.Error(),
			ExecutionTime: time.Since(start),
		}
	}

	slog.Debug("sonarqube: scan triggered", "task_id", task.TaskID)
	return ScanResult{
		Success:       true,
		TaskID:        task.TaskID,
		DashboardURL:  task.DashboardURL,
		ExecutionTime: time.Since(start),
	}
}
