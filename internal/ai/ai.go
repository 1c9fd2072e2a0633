// Package ai provides the AI-reviewer capability contract and
// implementations. A Provider accepts packed diff content and returns
// structured per-file findings plus an impact summary.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/tokens"
)

// Provider abstracts an AI reviewer behind a single analysis method. Any AI
// backend must satisfy this contract explicitly; there is no runtime shape
// sniffing.
type Provider interface {
	// Analyze reviews one batch of packed diff content.
	// Implementations must respect context cancellation and deadlines.
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// Request describes one analysis request over packed content.
type Request struct {
	// Content is the formatted diff content for one batch.
	Content string

	// Model overrides the provider's default model. If empty, the provider
	// uses its configured default.
	Model string

	// MaxTokens limits the response length. If zero, the provider uses its
	// own default.
	MaxTokens int
}

// Result holds one analysis response: findings tagged with Source "ai" and
// an overall impact summary in prose.
type Result struct {
	Issues  []issue.Issue
	Summary string
	Model   string
	Usage   Usage
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultParallelism bounds concurrent batch analysis in AnalyzeBatches.
const DefaultParallelism = 3

// AnalyzeBatches fans out one Analyze call per content batch with bounded
// parallelism and combines the results in batch order. Summaries of all
// batches are concatenated; any batch failing aborts the whole call with an
// error naming the batch.
func AnalyzeBatches(ctx context.Context, provider Provider, batches []tokens.ContentBatch, parallelism int) (*Result, error) {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	results := make([]*Result, len(batches))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, batch := range batches {
		g.Go(func() error {
			content := ""
			for _, item := range batch.Items {
				content += item + "\n"
			}

			res, err := provider.Analyze(gctx, Request{Content: content})
			if err != nil {
				return fmt.Errorf("ai: batch %d failed: %w", batch.BatchIndex, err)
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := &Result{}
	for _, res := range results {
		if res == nil {
			continue
		}
		combined.Issues = append(combined.Issues, res.Issues...)
		if res.Summary != "" {
			if combined.Summary != "" {
				combined.Summary += "\n"
			}
			combined.Summary += res.Summary
		}
		combined.Model = res.Model
		combined.Usage.InputTokens += res.Usage.InputTokens
		combined.Usage.OutputTokens += res.Usage.OutputTokens
	}

	slog.Debug("ai: analyzed batches",
		"batches", len(batches),
		"issues", len(combined.Issues),
		"input_tokens", combined.Usage.InputTokens,
		"output_tokens", combined.Usage.OutputTokens)
	return combined, nil
}
