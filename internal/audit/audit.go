// Package audit records completed pipeline runs for later review. Recording
// is best-effort: a failed write is logged by the caller and never fails the
// request that produced it.
package audit

import (
	"context"
	"time"
)

type Record struct {
	TraceID      string    `json:"trace_id"`
	Question     string    `json:"question"`
	SQL          string    `json:"sql"`
	UsedFallback bool      `json:"used_fallback"`
	Outcome      string    `json:"outcome"`
	RowCount     int       `json:"row_count"`
	DurationMS   int64     `json:"duration_ms"`
	Explanation  string    `json:"explanation"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	OutcomeOK         = "ok"
	OutcomeExecFailed = "execution_failed"
)

type Recorder interface {
	Record(ctx context.Context, record Record) error
}
