package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/heavyhaul/backend/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	kind := "test-" + time.Now().Format("150405.000000")
	if _, err := s.GetLatestRun(ctx, kind); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	id, err := s.CreateRun(ctx, kind)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := s.FinishRun(ctx, id, "SUCCESS", []byte(`{"trucks":2}`)); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	run, err := s.GetLatestRun(ctx, kind)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if run.ID != id || run.Status != "SUCCESS" || run.FinishedAt.IsZero() {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestReverseGeocodeCache(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := "test:" + time.Now().Format("150405.000000")

	if _, ok, err := s.GetReverseGeocode(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got %v, %v", ok, err)
	}
	if err := s.PutReverseGeocode(ctx, key, models.AdminArea{ShortName: "NE", LongName: "Nebraska"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutReverseGeocode(ctx, key, models.AdminArea{ShortName: "NE", LongName: "Nebraska"}); err != nil {
		t.Fatalf("second put should upsert: %v", err)
	}
	area, ok, err := s.GetReverseGeocode(ctx, key)
	if err != nil || !ok || area.ShortName != "NE" {
		t.Fatalf("unexpected hit %+v, %v, %v", area, ok, err)
	}
}
