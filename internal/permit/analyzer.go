// Package permit splits a driving route into per-state stretches so the
// states that must issue oversize permits can be listed with their mileage.
//
// One call runs a single pass through Idle, PolylineDecoded, StatesSampled,
// SegmentsBuilt and Done. Nothing is retried inside a pass.
package permit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/heavyhaul/backend/internal/geocode"
	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/polyline"
	"github.com/heavyhaul/backend/internal/routing"
	"github.com/heavyhaul/backend/internal/utils"
)

const metersToMiles = 0.000621371

var (
	ErrTimeout        = errors.New("route analysis timed out")
	ErrInvalidRequest = errors.New("origin and destination are required")
)

type Stage int

const (
	StageIdle Stage = iota
	StagePolylineDecoded
	StageStatesSampled
	StageSegmentsBuilt
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StagePolylineDecoded:
		return "polyline_decoded"
	case StageStatesSampled:
		return "states_sampled"
	case StageSegmentsBuilt:
		return "segments_built"
	case StageDone:
		return "done"
	}
	return "unknown"
}

type Request struct {
	Origin      string   `json:"origin" validate:"required"`
	Destination string   `json:"destination" validate:"required"`
	Waypoints   []string `json:"waypoints"`
}

type Config struct {
	SampleTarget   int
	Concurrency    int
	LongRouteMiles float64
	MaxStates      int
}

var DefaultConfig = Config{SampleTarget: 30, Concurrency: 1, LongRouteMiles: 2000, MaxStates: 5}

type Analyzer struct {
	router   routing.Router
	geocoder geocode.ReverseGeocoder
	cfg      Config
	log      zerolog.Logger

	// OnStage, when set, observes every stage transition.
	OnStage func(Stage)
}

func NewAnalyzer(router routing.Router, geocoder geocode.ReverseGeocoder, cfg Config, log zerolog.Logger) *Analyzer {
	if cfg.SampleTarget <= 0 {
		cfg.SampleTarget = DefaultConfig.SampleTarget
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig.Concurrency
	}
	if cfg.LongRouteMiles <= 0 {
		cfg.LongRouteMiles = DefaultConfig.LongRouteMiles
	}
	if cfg.MaxStates <= 0 {
		cfg.MaxStates = DefaultConfig.MaxStates
	}
	return &Analyzer{router: router, geocoder: geocoder, cfg: cfg, log: log}
}

// sample is the per-point geocode outcome. ok is false when the lookup
// failed (err is set) or the area is not a U.S. state.
type sample struct {
	index int
	code  string
	name  string
	ok    bool
	err   error
}

func (a *Analyzer) Analyze(ctx context.Context, req Request) (models.RouteAnalysis, error) {
	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		return models.RouteAnalysis{}, ErrInvalidRequest
	}
	waypoints := make([]string, 0, len(req.Waypoints))
	for _, w := range req.Waypoints {
		if w = strings.TrimSpace(w); w != "" {
			waypoints = append(waypoints, w)
		}
	}

	a.enter(StageIdle)

	route, err := a.router.Route(ctx, origin, destination, waypoints)
	if err != nil {
		if ctx.Err() != nil {
			return models.RouteAnalysis{}, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return models.RouteAnalysis{}, fmt.Errorf("route: %w", err)
	}

	var meters, seconds int
	for _, leg := range route.Legs {
		meters += leg.DistanceMeters
		seconds += leg.DurationSeconds
	}
	out := models.RouteAnalysis{
		TotalDistanceMiles:   utils.Round1(float64(meters) * metersToMiles),
		TotalDurationMinutes: int(math.Round(float64(seconds) / 60)),
		StatesTraversed:      []string{},
		StateSegments:        []models.StateSegment{},
		StateDistances:       map[string]float64{},
		RoutePolyline:        route.OverviewPolyline,
		Waypoints:            waypoints,
		Warnings:             []string{},
	}
	out.EstimatedDriveTime = FormatDriveTime(out.TotalDurationMinutes)

	points, err := polyline.Decode(route.OverviewPolyline)
	if err != nil {
		return models.RouteAnalysis{}, fmt.Errorf("decode route polyline: %w", err)
	}
	a.enter(StagePolylineDecoded)

	samples, err := a.sampleStates(ctx, points)
	if err != nil {
		return models.RouteAnalysis{}, err
	}
	a.enter(StageStatesSampled)

	segments := buildSegments(points, samples)
	raw := map[string]float64{}
	for _, seg := range segments {
		if _, seen := raw[seg.State]; !seen {
			out.StatesTraversed = append(out.StatesTraversed, seg.State)
		}
		raw[seg.State] += seg.Distance
	}
	for code, miles := range raw {
		out.StateDistances[code] = utils.Round1(miles)
	}
	for i := range segments {
		segments[i].Distance = utils.Round1(segments[i].Distance)
	}
	out.StateSegments = segments
	a.enter(StageSegmentsBuilt)

	if len(points) > 0 && len(segments) == 0 {
		out.Warnings = append(out.Warnings, "States along this route could not be determined; verify permit requirements manually.")
	}
	if out.TotalDistanceMiles > a.cfg.LongRouteMiles {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Route is %.1f miles; plan for multi-day driving and hours-of-service rest stops.", out.TotalDistanceMiles))
	}
	if n := len(out.StatesTraversed); n > a.cfg.MaxStates {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Route crosses %d states; an oversize permit is needed from each one.", n))
	}
	a.enter(StageDone)
	return out, nil
}

func (a *Analyzer) enter(s Stage) {
	a.log.Debug().Str("stage", s.String()).Msg("route analysis stage")
	if a.OnStage != nil {
		a.OnStage(s)
	}
}

// SampleIndexes returns every step-th point index plus the final point,
// where step = max(1, n/target).
func SampleIndexes(n, target int) []int {
	if n == 0 {
		return nil
	}
	if target <= 0 {
		target = DefaultConfig.SampleTarget
	}
	step := n / target
	if step < 1 {
		step = 1
	}
	out := make([]int, 0, n/step+1)
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	if out[len(out)-1] != n-1 {
		out = append(out, n-1)
	}
	return out
}

// sampleStates geocodes the sampled points with at most cfg.Concurrency
// calls in flight. Results land in their sample slot, so completion order
// never affects segment order. A single failed lookup only marks its slot;
// a cancelled or expired context fails the whole pass.
func (a *Analyzer) sampleStates(ctx context.Context, points []models.LatLng) ([]sample, error) {
	indexes := SampleIndexes(len(points), a.cfg.SampleTarget)
	results := make([]sample, len(indexes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for slot, idx := range indexes {
		slot, idx := slot, idx
		g.Go(func() error {
			results[slot] = sample{index: idx}
			if err := gctx.Err(); err != nil {
				return err
			}
			p := points[idx]
			area, err := a.geocoder.ReverseGeocode(gctx, p.Lat, p.Lng)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				a.log.Warn().Err(err).Int("point", idx).Float64("lat", p.Lat).Float64("lng", p.Lng).Msg("reverse geocode failed, skipping sample")
				results[slot].err = err
				return nil
			}
			code, ok := StateCode(area.ShortName, area.LongName)
			if !ok {
				a.log.Warn().Int("point", idx).Str("area", area.LongName).Msg("sample is not in a U.S. state")
				return nil
			}
			name := StateName(code)
			if name == "" {
				name = area.LongName
			}
			results[slot] = sample{index: idx, code: code, name: name, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return nil, err
	}
	return results, nil
}

// buildSegments walks the route once, accumulating Haversine miles, and
// starts a new segment at each sample whose state differs from the current
// one. Miles before the first resolved sample belong to that first state.
// Failed samples are passed over as if no boundary was seen there.
func buildSegments(points []models.LatLng, samples []sample) []models.StateSegment {
	segments := []models.StateSegment{}
	if len(points) == 0 {
		return segments
	}
	at := make(map[int]sample, len(samples))
	for _, s := range samples {
		if s.ok {
			at[s.index] = s
		}
	}
	if len(at) == 0 {
		return segments
	}

	var (
		current sample
		entry   = points[0]
		running float64
		started bool
	)
	for i := range points {
		if i > 0 {
			running += utils.HaversineMiles(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
		}
		s, ok := at[i]
		if !ok {
			continue
		}
		switch {
		case !started:
			current, started = s, true
		case s.code != current.code:
			segments = append(segments, models.StateSegment{
				State:    current.code,
				Name:     current.name,
				Entry:    entry,
				Exit:     points[i],
				Distance: running,
				Order:    len(segments),
			})
			current, entry, running = s, points[i], 0
		}
	}
	segments = append(segments, models.StateSegment{
		State:    current.code,
		Name:     current.name,
		Entry:    entry,
		Exit:     points[len(points)-1],
		Distance: running,
		Order:    len(segments),
	})
	return segments
}

// FormatDriveTime renders minutes as "Xh Ym".
func FormatDriveTime(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
