package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/heavyhaul/backend/internal/models"
)

// NominatimGeocoder reverse geocodes against an OSM Nominatim instance. The
// public instance allows one request per second, so calls are spaced by
// MinInterval.
type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
}

type nominatimReverse struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (models.AdminArea, error) {
	client, baseURL, userAgent := g.Client, g.BaseURL, g.UserAgent
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "heavyhaul-route-analyzer"
	}

	if err := g.wait(ctx); err != nil {
		return models.AdminArea{}, err
	}

	endpoint := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json&zoom=5&addressdetails=1", strings.TrimRight(baseURL, "/"), lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.AdminArea{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return models.AdminArea{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.AdminArea{}, fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	var item nominatimReverse
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return models.AdminArea{}, err
	}
	return parseNominatimReverse(item)
}

// wait reserves the next request slot and sleeps until it arrives.
func (g *NominatimGeocoder) wait(ctx context.Context) error {
	interval := g.MinInterval
	if interval <= 0 {
		interval = time.Second
	}
	g.mu.Lock()
	slot := g.lastReqAt.Add(interval)
	now := time.Now()
	if slot.Before(now) {
		slot = now
	}
	g.lastReqAt = slot
	g.mu.Unlock()

	d := time.Until(slot)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseNominatimReverse(item nominatimReverse) (models.AdminArea, error) {
	if item.Error != "" {
		return models.AdminArea{}, ErrNotFound
	}
	state := strings.TrimSpace(item.Address["state"])
	if state == "" {
		return models.AdminArea{}, ErrNotFound
	}
	area := models.AdminArea{ShortName: state, LongName: state}
	if iso := item.Address["ISO3166-2-lvl4"]; strings.HasPrefix(iso, "US-") {
		area.ShortName = strings.TrimPrefix(iso, "US-")
	}
	return area, nil
}
