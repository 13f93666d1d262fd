package trucks

import "github.com/heavyhaul/backend/internal/models"

const (
	IDFlatbed  = "flatbed"
	IDStepDeck = "step-deck"
	IDRGN      = "rgn"
	IDLowboy   = "lowboy"
)

// catalog is the fixed trailer table, ordered smallest to largest envelope.
// Callers only ever receive copies.
var catalog = [...]models.TruckSpec{
	{
		ID:    IDFlatbed,
		Name:  "Flatbed",
		Legal: models.Dimensions{Length: 600, Width: 102, Height: 102, Weight: 45000},
		Max:   models.Dimensions{Length: 636, Width: 144, Height: 120, Weight: 47000},
	},
	{
		ID:    IDStepDeck,
		Name:  "Step Deck",
		Legal: models.Dimensions{Length: 636, Width: 102, Height: 120, Weight: 43000},
		Max:   models.Dimensions{Length: 660, Width: 144, Height: 138, Weight: 46000},
	},
	{
		ID:    IDRGN,
		Name:  "RGN (Removable Gooseneck)",
		Legal: models.Dimensions{Length: 576, Width: 102, Height: 138, Weight: 42000},
		Max:   models.Dimensions{Length: 780, Width: 168, Height: 168, Weight: 150000},
	},
	{
		ID:    IDLowboy,
		Name:  "Lowboy",
		Legal: models.Dimensions{Length: 576, Width: 102, Height: 144, Weight: 40000},
		Max:   models.Dimensions{Length: 720, Width: 192, Height: 180, Weight: 150000},
	},
}

// Catalog returns a copy of the fixed trailer table.
func Catalog() []models.TruckSpec {
	out := make([]models.TruckSpec, len(catalog))
	copy(out, catalog[:])
	return out
}

func Find(id string) (models.TruckSpec, bool) {
	for _, spec := range catalog {
		if spec.ID == id {
			return spec, true
		}
	}
	return models.TruckSpec{}, false
}
