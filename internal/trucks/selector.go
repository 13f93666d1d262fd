// Package trucks holds the trailer catalog and ranks trailer types
// against a cargo envelope.
package trucks

import (
	"math"
	"sort"

	"github.com/heavyhaul/backend/internal/models"
)

// Classify compares dims against the legal envelope of spec first, then the
// max envelope. Violations name the dimensions over legal for a
// permit-required fit, and those over max for does-not-fit.
func Classify(spec models.TruckSpec, dims models.Dimensions) models.TruckRecommendation {
	rec := models.TruckRecommendation{Truck: spec}
	switch {
	case dims.Fits(spec.Legal):
		rec.Fit = models.FitLegal
	case dims.Fits(spec.Max):
		rec.Fit = models.FitPermitRequired
		rec.Violations = dims.Exceeded(spec.Legal)
	default:
		rec.Fit = models.FitDoesNotFit
		rec.Violations = dims.Exceeded(spec.Max)
	}
	return rec
}

// SelectTrucks ranks the catalog for load: legal fits first with the tightest
// fit leading, then permit-required fits. Trailers that cannot carry the
// load at all are left out. A load without a plannable item gets no
// recommendations.
func SelectTrucks(load models.ParsedLoad) []models.TruckRecommendation {
	return SelectFrom(catalog[:], load)
}

// SelectFrom is SelectTrucks over an arbitrary catalog.
func SelectFrom(specs []models.TruckSpec, load models.ParsedLoad) []models.TruckRecommendation {
	out := []models.TruckRecommendation{}
	if !hasValidItem(load) {
		return out
	}
	for _, rec := range classifyAll(specs, envelope(load)) {
		if rec.Fit != models.FitDoesNotFit {
			out = append(out, rec)
		}
	}
	return out
}

// Diagnose classifies every catalog entry, including those that do not fit.
func Diagnose(load models.ParsedLoad) []models.TruckRecommendation {
	if !hasValidItem(load) {
		return []models.TruckRecommendation{}
	}
	return classifyAll(catalog[:], envelope(load))
}

// Rank classifies and orders specs for a single envelope, does-not-fit last.
func Rank(specs []models.TruckSpec, dims models.Dimensions) []models.TruckRecommendation {
	return classifyAll(specs, dims)
}

// classifyAll orders legal fits by least slack against the legal envelope,
// permit-required fits by least excess over legal, and does-not-fit by least
// excess over max.
func classifyAll(specs []models.TruckSpec, dims models.Dimensions) []models.TruckRecommendation {
	type scored struct {
		rec   models.TruckRecommendation
		score float64
		pos   int
	}
	all := make([]scored, 0, len(specs))
	for i, spec := range specs {
		rec := Classify(spec, dims)
		var score float64
		switch rec.Fit {
		case models.FitLegal:
			score = slack(dims, spec.Legal)
		case models.FitPermitRequired:
			score = excess(dims, spec.Legal)
		default:
			score = excess(dims, spec.Max)
		}
		all = append(all, scored{rec: rec, score: score, pos: i})
	}
	sort.SliceStable(all, func(i, j int) bool {
		ri, rj := fitRank(all[i].rec.Fit), fitRank(all[j].rec.Fit)
		if ri != rj {
			return ri < rj
		}
		if all[i].score != all[j].score {
			return all[i].score < all[j].score
		}
		return all[i].pos < all[j].pos
	})
	out := make([]models.TruckRecommendation, 0, len(all))
	for _, s := range all {
		out = append(out, s.rec)
	}
	return out
}

func fitRank(f models.FitClass) int {
	switch f {
	case models.FitLegal:
		return 0
	case models.FitPermitRequired:
		return 1
	default:
		return 2
	}
}

// slack is the unused share of limit summed over the four measures.
func slack(dims, limit models.Dimensions) float64 {
	return ratio(limit.Length-dims.Length, limit.Length) +
		ratio(limit.Width-dims.Width, limit.Width) +
		ratio(limit.Height-dims.Height, limit.Height) +
		ratio(limit.Weight-dims.Weight, limit.Weight)
}

// excess is the overrun beyond limit as a share of limit, summed over the
// measures that exceed it.
func excess(dims, limit models.Dimensions) float64 {
	return ratio(math.Max(0, dims.Length-limit.Length), limit.Length) +
		ratio(math.Max(0, dims.Width-limit.Width), limit.Width) +
		ratio(math.Max(0, dims.Height-limit.Height), limit.Height) +
		ratio(math.Max(0, dims.Weight-limit.Weight), limit.Weight)
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

func envelope(load models.ParsedLoad) models.Dimensions {
	return models.Dimensions{Length: load.Length, Width: load.Width, Height: load.Height, Weight: load.Weight}
}

func hasValidItem(load models.ParsedLoad) bool {
	for _, item := range load.Items {
		if item.Valid() {
			return true
		}
	}
	return false
}
