package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/permit"
)

type RouteService struct {
	Analyzer *permit.Analyzer
	Runs     RunStore
	Logger   zerolog.Logger
}

func (s *RouteService) Analyze(ctx context.Context, req permit.Request) (models.RouteAnalysis, error) {
	rec := startRun(ctx, s.Runs, RunKindRoute, s.Logger)
	summary := newSummary()

	out, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		rec.finish(ctx, summary, err)
		return models.RouteAnalysis{}, err
	}

	summary.event("route", map[string]any{
		"origin":      req.Origin,
		"destination": req.Destination,
		"miles":       out.TotalDistanceMiles,
		"states":      out.StatesTraversed,
	})
	summary.Counts["segments"] = len(out.StateSegments)
	summary.Counts["warnings"] = len(out.Warnings)

	s.Logger.Info().
		Float64("miles", out.TotalDistanceMiles).
		Strs("states", out.StatesTraversed).
		Msg("route analyzed")

	rec.finish(ctx, summary, nil)
	return out, nil
}
