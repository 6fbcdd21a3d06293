// Package store keeps the usage ledger: one record per model invocation.
//
// DESIGN: Records are append-only and expire after a retention window.
//   - MemoryStore: map + cleanup goroutine, for single-process deployments
//   - SQLiteStore: modernc.org/sqlite (pure Go), survives restarts
//
// Both implement Store; the gateway only sees the interface.
package store

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("store closed")

// UsageRecord is one model invocation.
type UsageRecord struct {
	RequestID    string        `json:"request_id"`
	ModelID      string        `json:"model_id"`
	Adapter      string        `json:"adapter"`
	Streaming    bool          `json:"streaming"`
	Latency      time.Duration `json:"latency"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Summary aggregates records for one model.
type Summary struct {
	ModelID      string `json:"model_id"`
	Invocations  int    `json:"invocations"`
	Failures     int    `json:"failures"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Store defines the usage ledger.
type Store interface {
	// Record appends a usage record. A zero CreatedAt is set to now.
	Record(ctx context.Context, rec UsageRecord) error

	// Recent returns up to limit unexpired records, newest first.
	Recent(ctx context.Context, limit int) ([]UsageRecord, error)

	// Summaries aggregates unexpired records per model, ordered by model ID.
	Summaries(ctx context.Context) ([]Summary, error)

	// Close cleans up resources.
	Close() error
}

// summarize folds records into per-model summaries ordered by model ID.
func summarize(records []UsageRecord) []Summary {
	byModel := make(map[string]*Summary)
	var order []string
	for _, r := range records {
		s, ok := byModel[r.ModelID]
		if !ok {
			s = &Summary{ModelID: r.ModelID}
			byModel[r.ModelID] = s
			order = append(order, r.ModelID)
		}
		s.Invocations++
		if r.Error != "" {
			s.Failures++
		}
		s.InputTokens += r.InputTokens
		s.OutputTokens += r.OutputTokens
	}
	sort.Strings(order)
	out := make([]Summary, 0, len(order))
	for _, id := range order {
		out = append(out, *byModel[id])
	}
	return out
}
