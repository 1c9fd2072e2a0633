// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package sonarqube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// TaskStatus is a server-reported analysis task state.
type TaskStatus string

// Task statuses. SUCCESS, FAILED, and CANCELED are terminal.
const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskSuccess    TaskStatus = "SUCCESS"
	TaskFailed     TaskStatus = "FAILED"
	TaskCanceled   TaskStatus = "CANCELED"
)

// Default polling parameters, applied when the caller passes zero values.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 5 * time.Minute
)

// AnalysisFailedError reports a terminal FAILED or CANCELED task, carrying
// the server's own message when one was provided.
type AnalysisFailedError struct {
	TaskID  string
	Status  TaskStatus
	Message string
}

func (e *AnalysisFailedError) Error() string {
	if e.Status == TaskCanceled {
		return fmt.Sprintf("sonarqube: analysis task %s was CANCELED", e.TaskID)
	}
	if e.Message != "" {
		return fmt.Sprintf("sonarqube: analysis task %s failed: %s", e.TaskID, e.Message)
	}
	return fmt.Sprintf("sonarqube: analysis task %s failed", e.TaskID)
}

// WaitForAnalysis polls the task-status endpoint at a fixed interval until
// the task reaches a terminal status or the overall timeout elapses. The loop
// is bounded by the timeout budget, not a retry count: interval and budget
// are independent configuration values.
//
// SUCCESS returns nil. FAILED and CANCELED return an *AnalysisFailedError.
// Exceeding the budget while the status remains non-terminal returns a
// timeout error. Any transport or API error while polling returns a "failed
// to check task status" error.
func (c *Client) WaitForAnalysis(ctx context.Context, taskID string, timeout, interval time.Duration) error {
	if c.mode != ModeServer {
		return ErrNotAvailable
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		status, errMsg, err := c.taskStatus(ctx, taskID)
		if err != nil {
			return fmt.Errorf("sonarqube: failed to check task status: %w", err)
		}

		slog.Debug("sonarqube: poll", "task_id", taskID, "status", status)

		switch status {
		case TaskSuccess:
			return nil
		case TaskFailed, TaskCanceled:
			return &AnalysisFailedError{TaskID: taskID, Status: status, Message: errMsg}
		}

		if time.Now().Add(interval).After(deadline) {
			return fmt.Errorf("sonarqube: timeout waiting for analysis task %s after %s (last status %s)",
				taskID, timeout, status)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("sonarqube: timeout waiting for analysis task %s after %s", taskID, timeout)
		case <-time.After(interval):
		}
	}
}

// taskStatus queries one task's current status and error message.
func (c *Client) taskStatus(ctx context.Context, taskID string) (TaskStatus, string, error) {
	query := url.Values{"id": {taskID}}
	var resp ceTaskResponse
	if err := c.getJSON(ctx, "/api/ce/task", query, &resp); err != nil {
		return "", "", err
	}
	return TaskStatus(resp.Task.Status), resp.Task.ErrorMessage, nil
}

// --- compute-engine endpoint wire types ---

type ceTaskResponse struct {
	Task ceTask `json:"task"`
}

type ceTask struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
}
