package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/heavyhaul/backend/internal/ai"
	"github.com/heavyhaul/backend/internal/cargo"
	"github.com/heavyhaul/backend/internal/config"
	"github.com/heavyhaul/backend/internal/db"
	"github.com/heavyhaul/backend/internal/geocode"
	httpapi "github.com/heavyhaul/backend/internal/http"
	"github.com/heavyhaul/backend/internal/permit"
	"github.com/heavyhaul/backend/internal/routing"
	"github.com/heavyhaul/backend/internal/service"
	"github.com/heavyhaul/backend/internal/spreadsheet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "heavyhaul-backend").Logger()

	ctx := context.Background()

	var store *db.Store
	if cfg.DatabaseURL != "" {
		store, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
	} else {
		logger.Info().Msg("DATABASE_URL not set, run history and persistent geocode cache disabled")
	}

	var (
		extractor ai.Extractor
		mapper    spreadsheet.ColumnMapper
	)
	switch {
	case cfg.AIBaseURL != "" && cfg.AIModel != "":
		openai := ai.OpenAIExtractor{
			BaseURL:   cfg.AIBaseURL,
			Model:     cfg.AIModel,
			APIKey:    cfg.AIAPIKey,
			MaxTokens: cfg.AIMaxTokens,
		}
		extractor = openai
		if cfg.SpreadsheetAIColumns {
			mapper = openai
		}
		logger.Info().Str("model", cfg.AIModel).Msg("using openai-compatible extractor")
	case cfg.AIURL != "":
		extractor = ai.HTTPAdapter{BaseURL: cfg.AIURL}
	default:
		extractor = ai.MockAdapter{}
		logger.Info().Msg("using mock AI adapter")
	}
	sheets := spreadsheet.ExcelParser{Mapper: mapper, Thresholds: cfg.Thresholds()}

	var reverse geocode.ReverseGeocoder
	switch cfg.Geocoder {
	case "nominatim":
		reverse = &geocode.NominatimGeocoder{BaseURL: cfg.NominatimURL}
	default:
		reverse = geocode.GoogleGeocoder{APIKey: cfg.GoogleMapsAPIKey, BaseURL: cfg.RoutingBaseURL}
	}
	var geocodeStore geocode.Store
	if store != nil {
		geocodeStore = store
	}
	cached := geocode.NewCached(reverse, geocodeStore, logger)

	router := routing.GoogleDirections{APIKey: cfg.GoogleMapsAPIKey, BaseURL: cfg.RoutingBaseURL}
	if cfg.GoogleMapsAPIKey == "" {
		logger.Warn().Msg("GOOGLE_MAPS_API_KEY not set, route analysis will fail")
	}

	analyzer := permit.NewAnalyzer(router, cached, permit.Config{
		SampleTarget: cfg.GeocodeSampleTarget,
		Concurrency:  cfg.GeocodeConcurrency,
	}, logger)

	var runs service.RunStore
	if store != nil {
		runs = store
	}
	cargoSvc := &service.CargoService{
		Extractor: cargo.NewExtractor(extractor, sheets),
		Runs:      runs,
		Limits:    cfg.LegalLimits(),
		Logger:    logger,
	}
	routeSvc := &service.RouteService{Analyzer: analyzer, Runs: runs, Logger: logger}

	engine := httpapi.Router(cfg, cargoSvc, routeSvc, store, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
