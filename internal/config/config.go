package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/units"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	AIURL                string `mapstructure:"AI_URL"`
	AIBaseURL            string `mapstructure:"AI_BASE_URL"`
	AIModel              string `mapstructure:"AI_MODEL"`
	AIAPIKey             string `mapstructure:"AI_API_KEY"`
	AIMaxTokens          int    `mapstructure:"AI_MAX_TOKENS"`
	SpreadsheetAIColumns bool   `mapstructure:"SPREADSHEET_AI_COLUMNS"`

	GoogleMapsAPIKey    string `mapstructure:"GOOGLE_MAPS_API_KEY"`
	RoutingBaseURL      string `mapstructure:"ROUTING_BASE_URL"`
	Geocoder            string `mapstructure:"GEOCODER"`
	NominatimURL        string `mapstructure:"NOMINATIM_URL"`
	GeocodeConcurrency  int    `mapstructure:"GEOCODE_CONCURRENCY"`
	GeocodeSampleTarget int    `mapstructure:"GEOCODE_SAMPLE_TARGET"`

	LegalMaxLengthIn  float64 `mapstructure:"LEGAL_MAX_LENGTH_IN"`
	LegalMaxWidthIn   float64 `mapstructure:"LEGAL_MAX_WIDTH_IN"`
	LegalMaxHeightIn  float64 `mapstructure:"LEGAL_MAX_HEIGHT_IN"`
	LegalMaxWeightLbs float64 `mapstructure:"LEGAL_MAX_WEIGHT_LBS"`
	LengthThreshold   float64 `mapstructure:"LENGTH_THRESHOLD"`
	WidthThreshold    float64 `mapstructure:"WIDTH_THRESHOLD"`
	HeightThreshold   float64 `mapstructure:"HEIGHT_THRESHOLD"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)

	v.SetDefault("AI_URL", "")
	v.SetDefault("AI_BASE_URL", "")
	v.SetDefault("AI_MODEL", "")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MAX_TOKENS", 2000)
	v.SetDefault("SPREADSHEET_AI_COLUMNS", false)

	v.SetDefault("GOOGLE_MAPS_API_KEY", "")
	v.SetDefault("ROUTING_BASE_URL", "https://maps.googleapis.com")
	v.SetDefault("GEOCODER", "google")
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODE_CONCURRENCY", 1)
	v.SetDefault("GEOCODE_SAMPLE_TARGET", 30)

	v.SetDefault("LEGAL_MAX_LENGTH_IN", units.DefaultLimits.Length)
	v.SetDefault("LEGAL_MAX_WIDTH_IN", units.DefaultLimits.Width)
	v.SetDefault("LEGAL_MAX_HEIGHT_IN", units.DefaultLimits.Height)
	v.SetDefault("LEGAL_MAX_WEIGHT_LBS", units.DefaultLimits.Weight)
	v.SetDefault("LENGTH_THRESHOLD", units.DefaultThresholds.Length)
	v.SetDefault("WIDTH_THRESHOLD", units.DefaultThresholds.Width)
	v.SetDefault("HEIGHT_THRESHOLD", units.DefaultThresholds.Height)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Geocoder = strings.ToLower(strings.TrimSpace(cfg.Geocoder))
	return cfg, nil
}

func (c Config) LegalLimits() models.Dimensions {
	return models.Dimensions{
		Length: c.LegalMaxLengthIn,
		Width:  c.LegalMaxWidthIn,
		Height: c.LegalMaxHeightIn,
		Weight: c.LegalMaxWeightLbs,
	}
}

func (c Config) Thresholds() units.Thresholds {
	return units.Thresholds{Length: c.LengthThreshold, Width: c.WidthThreshold, Height: c.HeightThreshold}
}
