package trucks

import (
	"reflect"
	"testing"

	"github.com/heavyhaul/backend/internal/models"
)

func loadOf(l, w, h, wt float64) models.ParsedLoad {
	item := models.CargoItem{ID: "1", Description: "unit", Quantity: 1, Length: l, Width: w, Height: h, Weight: wt}
	return models.ParsedLoad{Length: l, Width: w, Height: h, Weight: wt, Items: []models.CargoItem{item}, Confidence: 100}
}

func findRec(recs []models.TruckRecommendation, id string) (models.TruckRecommendation, bool) {
	for _, r := range recs {
		if r.Truck.ID == id {
			return r, true
		}
	}
	return models.TruckRecommendation{}, false
}

func TestCatalogLegalWithinMax(t *testing.T) {
	for _, spec := range Catalog() {
		if !spec.Legal.Fits(spec.Max) {
			t.Fatalf("%s legal envelope exceeds max", spec.ID)
		}
	}
}

func TestFlatbedLegalFit(t *testing.T) {
	recs := SelectTrucks(loadOf(600, 100, 100, 40000))
	rec, ok := findRec(recs, IDFlatbed)
	if !ok {
		t.Fatalf("expected flatbed in recommendations")
	}
	if rec.Fit != models.FitLegal {
		t.Fatalf("expected legal-fit, got %s", rec.Fit)
	}
	if recs[0].Fit != models.FitLegal {
		t.Fatalf("expected legal fits first, got %+v", recs[0])
	}
}

func TestFlatbedPermitRequiredOnLength(t *testing.T) {
	recs := Diagnose(loadOf(620, 100, 100, 45000))
	rec, ok := findRec(recs, IDFlatbed)
	if !ok {
		t.Fatalf("expected flatbed in diagnosis")
	}
	if rec.Fit != models.FitPermitRequired {
		t.Fatalf("expected permit-required, got %s", rec.Fit)
	}
	if len(rec.Violations) == 0 || rec.Violations[0] != "length" {
		t.Fatalf("expected length flagged, got %v", rec.Violations)
	}
}

func TestExcavatorNeedsPermitTrailer(t *testing.T) {
	recs := SelectTrucks(loadOf(384, 120, 132, 48000))
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %+v", recs)
	}
	for _, id := range []string{IDRGN, IDLowboy} {
		rec, ok := findRec(recs, id)
		if !ok {
			t.Fatalf("expected %s recommended", id)
		}
		if rec.Fit != models.FitPermitRequired {
			t.Fatalf("%s: expected permit-required, got %s", id, rec.Fit)
		}
		if !contains(rec.Violations, "weight") {
			t.Fatalf("%s: expected weight violation, got %v", id, rec.Violations)
		}
	}
	for _, id := range []string{IDFlatbed, IDStepDeck} {
		if _, ok := findRec(recs, id); ok {
			t.Fatalf("%s should be excluded", id)
		}
	}
	diag := Diagnose(loadOf(384, 120, 132, 48000))
	rec, _ := findRec(diag, IDStepDeck)
	if rec.Fit != models.FitDoesNotFit || !contains(rec.Violations, "weight") {
		t.Fatalf("expected step deck over max weight, got %+v", rec)
	}
}

func TestSelectTrucksEmptyLoad(t *testing.T) {
	if recs := SelectTrucks(models.ParsedLoad{}); len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(recs))
	}
	invalid := models.ParsedLoad{Items: []models.CargoItem{{ID: "x", Quantity: 1, Length: 10}}}
	if recs := SelectTrucks(invalid); len(recs) != 0 {
		t.Fatalf("expected no recommendations for invalid items, got %d", len(recs))
	}
}

func TestSelectTrucksIdempotent(t *testing.T) {
	load := loadOf(500, 96, 90, 30000)
	if !reflect.DeepEqual(SelectTrucks(load), SelectTrucks(load)) {
		t.Fatalf("expected identical results")
	}
}

func TestCatalogReturnsCopy(t *testing.T) {
	c := Catalog()
	c[0].Legal.Weight = 1
	spec, ok := Find(IDFlatbed)
	if !ok || spec.Legal.Weight == 1 {
		t.Fatalf("catalog must not be mutable through Catalog()")
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func cube(id string, legal, max float64) models.TruckSpec {
	return models.TruckSpec{
		ID:    id,
		Legal: models.Dimensions{Length: legal, Width: legal, Height: legal, Weight: legal},
		Max:   models.Dimensions{Length: max, Width: max, Height: max, Weight: max},
	}
}

func ids(recs []models.TruckRecommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Truck.ID)
	}
	return out
}

func TestSelectFromOrdering(t *testing.T) {
	cases := []struct {
		name  string
		specs []models.TruckSpec
		load  float64
		want  []string
		fit   models.FitClass
	}{
		{
			name:  "legal fits tightest first",
			specs: []models.TruckSpec{cube("big", 300, 400), cube("small", 100, 400), cube("mid", 200, 400)},
			load:  90,
			want:  []string{"small", "mid", "big"},
			fit:   models.FitLegal,
		},
		{
			name:  "permit fits by least excess over legal",
			specs: []models.TruckSpec{cube("far", 100, 300), cube("near", 140, 300), cube("between", 120, 160)},
			load:  150,
			want:  []string{"near", "between", "far"},
			fit:   models.FitPermitRequired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs := SelectFrom(tc.specs, loadOf(tc.load, tc.load, tc.load, tc.load))
			if got := ids(recs); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for _, r := range recs {
				if r.Fit != tc.fit {
					t.Fatalf("%s: expected %s, got %s", r.Truck.ID, tc.fit, r.Fit)
				}
			}
		})
	}
}

func TestSelectFromLegalBeforePermit(t *testing.T) {
	specs := []models.TruckSpec{cube("permit", 100, 300), cube("legal", 400, 500), cube("none", 50, 60)}
	recs := SelectFrom(specs, loadOf(150, 150, 150, 150))
	if got := ids(recs); !reflect.DeepEqual(got, []string{"legal", "permit"}) {
		t.Fatalf("expected legal then permit, got %v", got)
	}
}
