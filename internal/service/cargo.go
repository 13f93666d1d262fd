package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/heavyhaul/backend/internal/cargo"
	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/planner"
	"github.com/heavyhaul/backend/internal/trucks"
	"github.com/heavyhaul/backend/internal/units"
)

// LegalCheck compares the load envelope with the road-legal limits.
type LegalCheck struct {
	Oversize   bool     `json:"oversize"`
	Overweight bool     `json:"overweight"`
	Exceeded   []string `json:"exceeded"`
}

type CargoResponse struct {
	Success         bool                         `json:"success"`
	ParsedLoad      models.ParsedLoad            `json:"parsedLoad"`
	Recommendations []models.TruckRecommendation `json:"recommendations"`
	LoadPlan        *models.LoadPlan             `json:"loadPlan,omitempty"`
	Legal           LegalCheck                   `json:"legal"`
	Metadata        *models.ParseMetadata        `json:"metadata"`
	Warning         string                       `json:"warning,omitempty"`
}

type CargoService struct {
	Extractor *cargo.Extractor
	Runs      RunStore
	Limits    models.Dimensions
	Logger    zerolog.Logger
}

// Analyze extracts the load, ranks trucks and plans the loads. The plan is
// omitted when no item is usable.
func (s *CargoService) Analyze(ctx context.Context, in cargo.Input) (CargoResponse, error) {
	rec := startRun(ctx, s.Runs, RunKindCargo, s.Logger)
	summary := newSummary()

	res, err := s.Extractor.Extract(ctx, in)
	if err != nil {
		rec.finish(ctx, summary, err)
		return CargoResponse{}, err
	}
	summary.event("extraction", map[string]any{
		"method":     in.Kind.String(),
		"items":      len(res.Load.Items),
		"valid":      len(res.Valid),
		"confidence": res.Load.Confidence,
	})

	limits := s.Limits
	if limits == (models.Dimensions{}) {
		limits = units.DefaultLimits
	}

	resp := CargoResponse{
		Success:         true,
		ParsedLoad:      res.Load,
		Recommendations: trucks.SelectTrucks(res.Load),
		Metadata:        res.Load.Metadata,
		Warning:         res.Warning,
		Legal: LegalCheck{
			Oversize:   units.IsOversize(res.Load.Length, res.Load.Width, res.Load.Height, limits),
			Overweight: units.IsOverweight(res.Load.Weight, limits),
			Exceeded:   units.OversizeDimensions(res.Load.Length, res.Load.Width, res.Load.Height, limits),
		},
	}
	if resp.Legal.Overweight {
		resp.Legal.Exceeded = append(resp.Legal.Exceeded, "weight")
	}
	if resp.Legal.Exceeded == nil {
		resp.Legal.Exceeded = []string{}
	}
	summary.event("truck_selection", map[string]any{"recommendations": len(resp.Recommendations)})

	if len(res.Valid) > 0 {
		plan, err := planner.PlanLoads(ctx, res.Load)
		if err != nil {
			rec.finish(ctx, summary, err)
			return CargoResponse{}, err
		}
		resp.LoadPlan = &plan
		unplaced := 0
		for _, u := range plan.Unplaced {
			unplaced += u.Item.Quantity
		}
		summary.event("load_plan", map[string]any{"trucks": plan.TruckCount, "unplaced": unplaced})
		summary.Counts["trucks"] = plan.TruckCount
		summary.Counts["unplaced"] = unplaced
	}
	summary.Counts["items"] = len(res.Load.Items)
	summary.Counts["valid_items"] = len(res.Valid)

	s.Logger.Info().
		Str("method", in.Kind.String()).
		Int("items", len(res.Load.Items)).
		Int("valid", len(res.Valid)).
		Int("recommendations", len(resp.Recommendations)).
		Msg("cargo analyzed")

	rec.finish(ctx, summary, nil)
	return resp, nil
}
