package config

import (
	"os"
	"testing"
	"time"

	"github.com/heavyhaul/backend/internal/units"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.RequestTimeout != 60*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LegalLimits() != units.DefaultLimits {
		t.Fatalf("unexpected limits %+v", cfg.LegalLimits())
	}
	if cfg.Thresholds() != units.DefaultThresholds {
		t.Fatalf("unexpected thresholds %+v", cfg.Thresholds())
	}
	if cfg.GeocodeSampleTarget != 30 || cfg.GeocodeConcurrency != 1 || cfg.Geocoder != "google" {
		t.Fatalf("unexpected geocode defaults: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("GEOCODER", " Nominatim ")
	t.Setenv("GEOCODE_CONCURRENCY", "4")
	t.Setenv("LEGAL_MAX_WEIGHT_LBS", "80000")
	t.Setenv("REQUEST_TIMEOUT", "45s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.Geocoder != "nominatim" || cfg.GeocodeConcurrency != 4 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.LegalLimits().Weight != 80000 || cfg.RequestTimeout != 45*time.Second {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
