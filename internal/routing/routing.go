// Package routing fetches driving routes from the Google Directions API.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heavyhaul/backend/internal/models"
)

var ErrNoRoute = errors.New("no route found")

type Router interface {
	Route(ctx context.Context, origin, destination string, waypoints []string) (models.RouteResult, error)
}

type GoogleDirections struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

func (g GoogleDirections) Route(ctx context.Context, origin, destination string, waypoints []string) (models.RouteResult, error) {
	if strings.TrimSpace(g.APIKey) == "" {
		return models.RouteResult{}, fmt.Errorf("GOOGLE_MAPS_API_KEY is not set")
	}
	if g.Client == nil {
		g.Client = &http.Client{Timeout: 20 * time.Second}
	}
	base := g.BaseURL
	if base == "" {
		base = "https://maps.googleapis.com"
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", "driving")
	q.Set("key", g.APIKey)
	if len(waypoints) > 0 {
		q.Set("waypoints", strings.Join(waypoints, "|"))
	}
	endpoint := strings.TrimRight(base, "/") + "/maps/api/directions/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.RouteResult{}, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return models.RouteResult{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.RouteResult{}, fmt.Errorf("directions http error: %s", resp.Status)
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.RouteResult{}, fmt.Errorf("decode directions: %w", err)
	}
	return toResult(body)
}

func toResult(body directionsResponse) (models.RouteResult, error) {
	switch body.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return models.RouteResult{}, ErrNoRoute
	default:
		return models.RouteResult{}, fmt.Errorf("directions status %s: %s", body.Status, body.ErrorMessage)
	}
	if len(body.Routes) == 0 {
		return models.RouteResult{}, ErrNoRoute
	}

	route := body.Routes[0]
	res := models.RouteResult{
		Legs:             make([]models.RouteLeg, 0, len(route.Legs)),
		OverviewPolyline: route.OverviewPolyline.Points,
	}
	for _, leg := range route.Legs {
		res.Legs = append(res.Legs, models.RouteLeg{
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		})
	}
	return res, nil
}
