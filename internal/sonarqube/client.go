// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package sonarqube drives a remote SonarQube server through the analysis
// lifecycle: connection probe, scan trigger, asynchronous task polling, and
// multi-endpoint result aggregation.
//
// A Client is owned by one logical review session. Its mode field is written
// only by Probe as a whole-value replacement, so no locking is required by
// contract.
package sonarqube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultProbeTimeout bounds the connection probe when no override is
	// configured.
	DefaultProbeTimeout = 3 * time.Second

	// issuesPageSize is the fixed page size for the issue-search endpoint.
	issuesPageSize = 100

	// maxResponseBytes caps how much of any server response is decoded.
	maxResponseBytes = 10 * 1024 * 1024 // 10 MiB
)

// Mode gates the client's operations. A client starts DISABLED and is
// promoted to SERVER by a successful probe.
type Mode string

// Client modes.
const (
	ModeDisabled Mode = "DISABLED"
	ModeServer   Mode = "SERVER"
)

// ErrNotAvailable is returned by operations that require a successful probe
// while the client is still (or again) DISABLED.
var ErrNotAvailable = errors.New("sonarqube: server analysis is not available")

// ConnectionProbe is the outcome of a single health check. Transient failures
// are reported here, never as Go errors, so callers can degrade gracefully.
type ConnectionProbe struct {
	Success      bool   `json:"success"`
	Version      string `json:"version,omitempty"`
	Err          string `json:"error,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

// Client talks to one SonarQube server on behalf of one review session.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	probeTimeout time.Duration
	mode         Mode
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithProbeTimeout overrides the probe's bounded timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the server at baseURL. The URL must be
// well-formed and absolute; the client starts in DISABLED mode until a
// probe succeeds.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("sonarqube: invalid server URL %q", baseURL)
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		probeTimeout: DefaultProbeTimeout,
		mode:         ModeDisabled,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mode returns the client's current operating mode.
func (c *Client) Mode() Mode {
	return c.mode
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Probe issues a bounded-time health check against the server's system-status
// endpoint. Success requires both a 2xx transport result and a reported
// status of "UP"; "DOWN" is an explicit failure regardless of transport
// success. The client's mode is set to SERVER on success and DISABLED on
// failure. Probe never returns a Go error.
func (c *Client) Probe(ctx context.Context) ConnectionProbe {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	start := time.Now()
	fail := func(err string) ConnectionProbe {
		c.mode = ModeDisabled
		slog.Debug("sonarqube: probe failed", "url", c.baseURL, "error", err)
		return ConnectionProbe{Err: err, ResponseTime: time.Since(start).Milliseconds()}
	}

	var status systemStatusResponse
	if err := c.getJSON(ctx, "/api/system/status", nil, &status); err != nil {
		return fail(err.Error())
	}

	if status.Status == "DOWN" {
		return fail(fmt.Sprintf("sonarqube: server at %s reports status DOWN", c.baseURL))
	}
	if status.Status != "UP" {
		return fail(fmt.Sprintf("sonarqube: server at %s reports status %q", c.baseURL, status.Status))
	}

	c.mode = ModeServer
	slog.Debug("sonarqube: probe succeeded", "url", c.baseURL, "version", status.Version)
	return ConnectionProbe{
		Success:      true,
		Version:      status.Version,
		ResponseTime: time.Since(start).Milliseconds(),
	}
}

// getJSON issues an authenticated GET and decodes a 2xx JSON response into
// out. Non-2xx responses yield an error embedding the numeric status.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s: %w", reqURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("sonarqube api %s returned %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// --- system endpoint wire types ---

type systemStatusResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Status  string `json:"status"` // UP, DOWN, STARTING, ...
}
