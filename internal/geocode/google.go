package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heavyhaul/backend/internal/models"
)

// GoogleGeocoder uses the Google Geocoding API reverse lookup restricted to
// administrative_area_level_1 results.
type GoogleGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

type googleComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		AddressComponents []googleComponent `json:"address_components"`
	} `json:"results"`
}

func (g GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (models.AdminArea, error) {
	if strings.TrimSpace(g.APIKey) == "" {
		return models.AdminArea{}, fmt.Errorf("GOOGLE_MAPS_API_KEY is not set")
	}
	if g.Client == nil {
		g.Client = &http.Client{Timeout: 10 * time.Second}
	}
	base := g.BaseURL
	if base == "" {
		base = "https://maps.googleapis.com"
	}

	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("result_type", "administrative_area_level_1")
	q.Set("key", g.APIKey)
	endpoint := strings.TrimRight(base, "/") + "/maps/api/geocode/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.AdminArea{}, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return models.AdminArea{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.AdminArea{}, fmt.Errorf("geocode http error: %s", resp.Status)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.AdminArea{}, err
	}
	return parseGoogleResponse(body)
}

func parseGoogleResponse(body googleResponse) (models.AdminArea, error) {
	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return models.AdminArea{}, ErrNotFound
	default:
		return models.AdminArea{}, fmt.Errorf("geocode status %s: %s", body.Status, body.ErrorMessage)
	}
	for _, r := range body.Results {
		for _, c := range r.AddressComponents {
			for _, t := range c.Types {
				if t == "administrative_area_level_1" {
					return models.AdminArea{ShortName: c.ShortName, LongName: c.LongName}, nil
				}
			}
		}
	}
	return models.AdminArea{}, ErrNotFound
}
