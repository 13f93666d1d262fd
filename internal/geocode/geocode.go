// Package geocode resolves coordinates to the U.S. state they fall in.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/heavyhaul/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (models.AdminArea, error)
}

// CacheKey rounds to three decimals (about 100 m), which is far finer than
// any state boundary decision needs.
func CacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lng)
}
