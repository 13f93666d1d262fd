package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

const (
	RunKindCargo = "cargo"
	RunKindRoute = "route"

	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// RunStore records one audit row per analysis. The pgx store satisfies it.
type RunStore interface {
	CreateRun(ctx context.Context, kind string) (string, error)
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
}

type RunSummary struct {
	Events []map[string]any `json:"events"`
	Counts map[string]any   `json:"counts"`
}

func newSummary() *RunSummary {
	return &RunSummary{Events: []map[string]any{}, Counts: map[string]any{}}
}

func (s *RunSummary) event(typ string, fields map[string]any) {
	fields["type"] = typ
	fields["time"] = time.Now().UTC()
	s.Events = append(s.Events, fields)
}

// run tracks one audit row. A nil store or a failed insert leaves it inert;
// auditing never fails the request.
type run struct {
	store  RunStore
	id     string
	start  time.Time
	logger zerolog.Logger
}

func startRun(ctx context.Context, store RunStore, kind string, logger zerolog.Logger) *run {
	r := &run{store: store, start: time.Now(), logger: logger}
	if store == nil {
		return r
	}
	id, err := store.CreateRun(ctx, kind)
	if err != nil {
		logger.Error().Err(err).Str("kind", kind).Msg("failed to create run")
		return r
	}
	r.id = id
	return r
}

func (r *run) finish(ctx context.Context, summary *RunSummary, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
		summary.event("error", map[string]any{"message": err.Error()})
	}
	summary.Counts["elapsed_ms"] = time.Since(r.start).Milliseconds()
	if r.store == nil || r.id == "" {
		return
	}
	b, _ := json.Marshal(summary)
	// The request context may already be cancelled on timeout.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
	}
	if finishErr := r.store.FinishRun(ctx, r.id, status, b); finishErr != nil {
		r.logger.Error().Err(finishErr).Str("run_id", r.id).Msg("failed to finish run")
	}
}
