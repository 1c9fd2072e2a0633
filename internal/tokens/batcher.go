// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package tokens packs text content into token-budget-safe batches for
// AI-provider submission. Token counts are approximations (four characters
// per token, rounded up), never exact tokenizer output.
package tokens

import (
	"fmt"
	"strings"
)

// Defaults applied by NewBatcher when the corresponding option is not given.
const (
	DefaultSafetyMargin    = 0.9
	DefaultRatePerThousand = 0.002
	defaultChunkSeparator  = "\n"
	wordSeparator          = " "
)

// Batcher splits and groups content so every produced batch fits within an
// effective token budget. A Batcher is immutable after construction and safe
// for concurrent use.
type Batcher struct {
	maxTokens       int
	safetyMargin    float64
	ratePerThousand float64
}

// ContentBatch is an ordered group of content items whose combined token
// estimate fits the effective budget. BatchIndex increases monotonically
// from 0 across the batches returned by a single CreateBatches call.
type ContentBatch struct {
	Items       []string `json:"items"`
	TotalTokens int      `json:"total_tokens"`
	BatchIndex  int      `json:"batch_index"`
}

// Statistics summarizes a batch list. All fields are zero for empty input.
type Statistics struct {
	BatchCount    int     `json:"batch_count"`
	ItemCount     int     `json:"item_count"`
	TotalTokens   int     `json:"total_tokens"`
	AvgTokens     int     `json:"avg_tokens"`
	MaxTokens     int     `json:"max_tokens"`
	MinTokens     int     `json:"min_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithSafetyMargin sets the fraction of the token limit actually used for
// packing. Must be in (0, 1]; validated by NewBatcher.
func WithSafetyMargin(margin float64) Option {
	return func(b *Batcher) {
		b.safetyMargin = margin
	}
}

// WithRatePerThousand sets the dollar cost per thousand tokens used by
// Statistics.
func WithRatePerThousand(rate float64) Option {
	return func(b *Batcher) {
		b.ratePerThousand = rate
	}
}

// NewBatcher creates a Batcher with the given hard token limit per batch.
// maxTokensPerBatch must be positive and the safety margin must be in (0, 1].
func NewBatcher(maxTokensPerBatch int, opts ...Option) (*Batcher, error) {
	b := &Batcher{
		maxTokens:       maxTokensPerBatch,
		safetyMargin:    DefaultSafetyMargin,
		ratePerThousand: DefaultRatePerThousand,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.maxTokens <= 0 {
		return nil, fmt.Errorf("tokens: max tokens per batch must be positive (got %d)", b.maxTokens)
	}
	if b.safetyMargin <= 0 || b.safetyMargin > 1 {
		return nil, fmt.Errorf("tokens: safety margin must be in (0, 1] (got %g)", b.safetyMargin)
	}
	return b, nil
}

// EstimateTokens approximates the token count of text as ceil(len(text)/4).
// The estimate is deliberately conservative: it rounds up, never down.
// Empty text estimates to zero.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// EffectiveBudget is the real packing ceiling: the configured limit reduced
// by the safety margin, floored.
func (b *Batcher) EffectiveBudget() int {
	return int(float64(b.maxTokens) * b.safetyMargin)
}

// ExceedsLimit reports whether text's token estimate exceeds the effective
// budget.
func (b *Batcher) ExceedsLimit(text string) bool {
	return EstimateTokens(text) > b.EffectiveBudget()
}

// SplitIntoChunks splits text into chunks that each fit the effective budget.
// An empty separator means newline. Text that already fits is returned
// unchanged as the only chunk.
//
// Oversized pieces fall back recursively: separator → words → raw characters.
// The character fallback guarantees termination for arbitrarily pathological
// input such as one giant separator-free string. Chunks preserve original
// content order; separator whitespace trailing a chunk is dropped and empty
// chunks are discarded.
func (b *Batcher) SplitIntoChunks(text, separator string) []string {
	if text == "" {
		return nil
	}
	if separator == "" {
		separator = defaultChunkSeparator
	}
	if !b.ExceedsLimit(text) {
		return []string{text}
	}

	seps := []string{separator, wordSeparator}
	if separator == wordSeparator {
		seps = []string{wordSeparator}
	}
	return b.split(text, seps)
}

// split greedily accumulates separator-delimited parts into chunks, recursing
// into the next separator in seps for parts that alone exceed the budget.
// With no separators left it falls back to raw character slicing.
func (b *Batcher) split(text string, seps []string) []string {
	if len(seps) == 0 {
		return b.splitByChars(text)
	}

	sep := seps[0]
	budget := b.EffectiveBudget()
	parts := strings.Split(text, sep)

	var chunks []string
	var current string
	flush := func() {
		if c := trimChunk(current, sep); c != "" {
			chunks = append(chunks, c)
		}
		current = ""
	}

	for _, part := range parts {
		candidate := part
		if current != "" {
			candidate = current + sep + part
		}
		if EstimateTokens(candidate) <= budget {
			current = candidate
			continue
		}

		flush()

		if EstimateTokens(part) > budget {
			chunks = append(chunks, b.split(part, seps[1:])...)
			continue
		}
		current = part
	}
	flush()

	return chunks
}

// splitByChars slices text into budget-sized runs of raw bytes. This is the
// terminal fallback; each emitted run fits the budget exactly because the
// estimate is length-derived.
func (b *Batcher) splitByChars(text string) []string {
	budget := b.EffectiveBudget()
	maxLen := budget * 4
	if maxLen < 1 {
		maxLen = 1
	}

	var chunks []string
	for len(text) > 0 {
		n := maxLen
		if n > len(text) {
			n = len(text)
		}
		chunks = append(chunks, text[:n])
		text = text[n:]
	}
	return chunks
}

// trimChunk drops trailing separator whitespace from a flushed chunk.
// Non-whitespace separators are left intact.
func trimChunk(chunk, sep string) string {
	if sep == "" || strings.TrimSpace(sep) != "" {
		return chunk
	}
	for strings.HasSuffix(chunk, sep) {
		chunk = strings.TrimSuffix(chunk, sep)
	}
	return chunk
}

// CreateBatches greedily packs whole items into batches under the effective
// budget, starting a new batch whenever the next item would overflow.
// An item that alone exceeds the budget never shares a batch: the current
// batch is flushed and the item is split into chunks, each becoming its own
// single-item batch. Every input item is represented in the output, in
// original order, possibly re-split.
func (b *Batcher) CreateBatches(items []string) []ContentBatch {
	budget := b.EffectiveBudget()

	var batches []ContentBatch
	var current []string
	currentTokens := 0

	appendBatch := func(batchItems []string, total int) {
		batches = append(batches, ContentBatch{
			Items:       batchItems,
			TotalTokens: total,
			BatchIndex:  len(batches),
		})
	}
	flush := func() {
		if len(current) > 0 {
			appendBatch(current, currentTokens)
			current = nil
			currentTokens = 0
		}
	}

	for _, item := range items {
		est := EstimateTokens(item)

		if est > budget {
			flush()
			for _, chunk := range b.SplitIntoChunks(item, "") {
				appendBatch([]string{chunk}, EstimateTokens(chunk))
			}
			continue
		}

		if currentTokens+est > budget {
			flush()
		}
		current = append(current, item)
		currentTokens += est
	}
	flush()

	return batches
}

// Statistics computes summary numbers over a batch list, including the
// estimated monetary cost at the configured per-thousand-token rate.
func (b *Batcher) Statistics(batches []ContentBatch) Statistics {
	if len(batches) == 0 {
		return Statistics{}
	}

	stats := Statistics{
		BatchCount: len(batches),
		MinTokens:  batches[0].TotalTokens,
	}
	for _, batch := range batches {
		stats.ItemCount += len(batch.Items)
		stats.TotalTokens += batch.TotalTokens
		if batch.TotalTokens > stats.MaxTokens {
			stats.MaxTokens = batch.TotalTokens
		}
		if batch.TotalTokens < stats.MinTokens {
			stats.MinTokens = batch.TotalTokens
		}
	}
	stats.AvgTokens = stats.TotalTokens / len(batches)
	stats.EstimatedCost = float64(stats.TotalTokens) / 1000 * b.ratePerThousand
	return stats
}
