package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/heavyhaul/backend/internal/models"
)

func TestParseGoogleResponse(t *testing.T) {
	body := googleResponse{Status: "OK"}
	body.Results = append(body.Results, struct {
		AddressComponents []googleComponent `json:"address_components"`
	}{AddressComponents: []googleComponent{
		{LongName: "United States", ShortName: "US", Types: []string{"country", "political"}},
		{LongName: "Texas", ShortName: "TX", Types: []string{"administrative_area_level_1", "political"}},
	}})
	area, err := parseGoogleResponse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area.ShortName != "TX" || area.LongName != "Texas" {
		t.Fatalf("unexpected area: %+v", area)
	}

	if _, err := parseGoogleResponse(googleResponse{Status: "ZERO_RESULTS"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := parseGoogleResponse(googleResponse{Status: "OVER_QUERY_LIMIT"}); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestGoogleGeocoderRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("result_type") != "administrative_area_level_1" {
			t.Errorf("missing result_type filter")
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"address_components":[{"long_name":"Oklahoma","short_name":"OK","types":["administrative_area_level_1"]}]}]}`))
	}))
	defer srv.Close()

	area, err := GoogleGeocoder{APIKey: "k", BaseURL: srv.URL}.ReverseGeocode(context.Background(), 35.4676, -97.5164)
	if err != nil || area.ShortName != "OK" {
		t.Fatalf("unexpected result %+v, %v", area, err)
	}
}

func TestParseNominatimReverse(t *testing.T) {
	area, err := parseNominatimReverse(nominatimReverse{Address: map[string]string{
		"state":          "New Mexico",
		"ISO3166-2-lvl4": "US-NM",
		"country_code":   "us",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area.ShortName != "NM" || area.LongName != "New Mexico" {
		t.Fatalf("unexpected area: %+v", area)
	}

	area, err = parseNominatimReverse(nominatimReverse{Address: map[string]string{"state": "Colorado"}})
	if err != nil || area.ShortName != "Colorado" {
		t.Fatalf("expected long name fallback, got %+v, %v", area, err)
	}

	if _, err := parseNominatimReverse(nominatimReverse{Error: "Unable to geocode"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNominatimWaitHonorsContext(t *testing.T) {
	g := &NominatimGeocoder{MinInterval: time.Hour, lastReqAt: time.Now()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type countingGeocoder struct {
	calls int
	area  models.AdminArea
	err   error
}

func (c *countingGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (models.AdminArea, error) {
	c.calls++
	return c.area, c.err
}

type memStore struct {
	m    map[string]models.AdminArea
	puts int
}

func (s *memStore) GetReverseGeocode(ctx context.Context, key string) (models.AdminArea, bool, error) {
	a, ok := s.m[key]
	return a, ok, nil
}

func (s *memStore) PutReverseGeocode(ctx context.Context, key string, area models.AdminArea) error {
	s.m[key] = area
	s.puts++
	return nil
}

func TestCachedGeocoderMemoizes(t *testing.T) {
	next := &countingGeocoder{area: models.AdminArea{ShortName: "KS", LongName: "Kansas"}}
	store := &memStore{m: map[string]models.AdminArea{}}
	c := NewCached(next, store, zerolog.Nop())

	for i := 0; i < 3; i++ {
		area, err := c.ReverseGeocode(context.Background(), 38.50001, -98.00002)
		if err != nil || area.ShortName != "KS" {
			t.Fatalf("unexpected result %+v, %v", area, err)
		}
	}
	if next.calls != 1 || store.puts != 1 {
		t.Fatalf("expected one upstream call and one store write, got %d and %d", next.calls, store.puts)
	}

	fresh := NewCached(next, store, zerolog.Nop())
	if _, err := fresh.ReverseGeocode(context.Background(), 38.5, -98.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected store hit, upstream called %d times", next.calls)
	}
}

func TestCachedGeocoderDoesNotCacheFailures(t *testing.T) {
	next := &countingGeocoder{err: ErrNotFound}
	c := NewCached(next, nil, zerolog.Nop())
	for i := 0; i < 2; i++ {
		if _, err := c.ReverseGeocode(context.Background(), 0, 0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("failures must not be cached, got %d calls", next.calls)
	}
}

func TestCacheKey(t *testing.T) {
	if CacheKey(38.50001, -98.00002) != "38.500,-98.000" {
		t.Fatalf("unexpected key %s", CacheKey(38.50001, -98.00002))
	}
}
