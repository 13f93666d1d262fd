package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/heavyhaul/backend/internal/config"
	"github.com/heavyhaul/backend/internal/db"
	"github.com/heavyhaul/backend/internal/http/handlers"
	"github.com/heavyhaul/backend/internal/http/middleware"

	_ "github.com/heavyhaul/backend/docs"
)

// Router wires the API. store may be nil, which disables health pings
// against the database and run history.
func Router(cfg config.Config, cargo handlers.CargoAnalyzer, route handlers.RouteAnalyzer, store *db.Store, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		for _, o := range strings.Split(cfg.CORSAllowed, ",") {
			if o = strings.TrimSpace(o); o != "" {
				corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, o)
			}
		}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Cargo:          cargo,
		Route:          route,
		Validator:      validator.New(),
		Logger:         logger,
		Limits:         cfg.LegalLimits(),
		RequestTimeout: cfg.RequestTimeout,
		MaxUploadBytes: cfg.MaxUploadSizeMB << 20,
	}
	if store != nil {
		h.Runs = store
		h.DB = store
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/trucks", h.Trucks)
		api.POST("/cargo/analyze", h.AnalyzeCargo)
		api.POST("/route/analyze", h.AnalyzeRoute)
		api.POST("/units/parse", h.ParseUnits)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.GET("/runs/latest", h.RunsLatest)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
