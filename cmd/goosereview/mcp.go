// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/mcpserver"
)

// mcpCmd is the parent command for MCP-related subcommands.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
	Long:  "Commands for running goosereview as an MCP server, exposing its detection, review, and server-issue tools to AI agents.",
}

// mcpServeCmd runs the MCP server over stdio.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout, exposing goosereview's core tools:
  - detect_mode:         Resolve which analysis providers are usable
  - review_changes:      Review a change set with every available analyzer
  - fetch_server_issues: Fetch issues and the quality gate from SonarQube

The server communicates using the Model Context Protocol (MCP) over stdio
transport, enabling AI agents to call goosereview tools directly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcpserver.Run(cmd.Context(), Version, &mcp.StdioTransport{})
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
