package handlers

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/heavyhaul/backend/internal/ai"
	"github.com/heavyhaul/backend/internal/cargo"
	"github.com/heavyhaul/backend/internal/db"
	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/permit"
	"github.com/heavyhaul/backend/internal/routing"
	"github.com/heavyhaul/backend/internal/service"
	"github.com/heavyhaul/backend/internal/spreadsheet"
	"github.com/heavyhaul/backend/internal/trucks"
	"github.com/heavyhaul/backend/internal/units"
)

type CargoAnalyzer interface {
	Analyze(ctx context.Context, in cargo.Input) (service.CargoResponse, error)
}

type RouteAnalyzer interface {
	Analyze(ctx context.Context, req permit.Request) (models.RouteAnalysis, error)
}

type RunReader interface {
	GetLatestRun(ctx context.Context, kind string) (models.Run, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API. Runs and DB are nil when no database is
// configured.
type Handler struct {
	Cargo          CargoAnalyzer
	Route          RouteAnalyzer
	Runs           RunReader
	DB             Pinger
	Validator      *validator.Validate
	Logger         zerolog.Logger
	Limits         models.Dimensions
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

// @Summary Truck catalog
// @Tags trucks
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/trucks [get]
func (h *Handler) Trucks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "trucks": trucks.Catalog()})
}

// CargoRequest is the JSON form of a cargo analysis. Exactly one of the
// payload fields is expected; items win over rows, rows over image, image
// over text.
type CargoRequest struct {
	Text     *string            `json:"text"`
	Image    string             `json:"image"`
	MimeType string             `json:"mimeType"`
	Items    []models.CargoItem `json:"items"`
	Rows     []cargo.Row        `json:"rows"`
}

func (r CargoRequest) input() (cargo.Input, error) {
	switch {
	case r.Items != nil:
		return cargo.ItemsInput(r.Items), nil
	case r.Rows != nil:
		return cargo.RowsInput(r.Rows), nil
	case r.Image != "":
		return cargo.ImageInput(r.Image, r.MimeType), nil
	case r.Text != nil:
		return cargo.TextInput(*r.Text), nil
	}
	return cargo.Input{}, cargo.ErrInvalidRequest
}

// @Summary Analyze cargo
// @Description Extract cargo from text, an image, a spreadsheet/PDF upload, rows or items; recommend trucks and plan loads
// @Tags cargo
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param request body CargoRequest false "JSON payload"
// @Param file formData file false "spreadsheet, image or pdf"
// @Success 200 {object} service.CargoResponse
// @Failure 400 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Failure 504 {object} map[string]any
// @Router /api/cargo/analyze [post]
func (h *Handler) AnalyzeCargo(c *gin.Context) {
	var (
		in  cargo.Input
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = h.multipartInput(c)
		if err != nil {
			if errors.Is(err, errTooLarge) {
				writeError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Uploaded file is too large", nil)
				return
			}
			h.writeServiceError(c, err)
			return
		}
	} else {
		if h.MaxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
		}
		var req CargoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body is too large", nil)
				return
			}
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
		in, err = req.input()
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
	}

	ctx, cancel := h.withTimeout(c.Request.Context())
	defer cancel()

	resp, err := h.Cargo.Analyze(ctx, in)
	if err != nil {
		h.Logger.Error().Err(err).Str("method", in.Kind.String()).Msg("cargo analysis failed")
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

var errTooLarge = errors.New("upload too large")

func (h *Handler) multipartInput(c *gin.Context) (cargo.Input, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if text, ok := c.GetPostForm("text"); ok {
			return cargo.TextInput(text), nil
		}
		return cargo.Input{}, cargo.ErrInvalidRequest
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return cargo.Input{}, errTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return cargo.Input{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if h.MaxUploadBytes > 0 {
		r = io.LimitReader(f, h.MaxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return cargo.Input{}, err
	}
	if h.MaxUploadBytes > 0 && int64(len(data)) > h.MaxUploadBytes {
		return cargo.Input{}, errTooLarge
	}
	if len(data) == 0 {
		return cargo.Input{}, cargo.ErrInvalidRequest
	}
	return cargo.FileInput(data, fh.Filename, fh.Header.Get("Content-Type"))
}

// @Summary Analyze route
// @Description Route between two places and report the states crossed with per-state mileage
// @Tags route
// @Accept json
// @Produce json
// @Param request body permit.Request true "origin, destination and optional waypoints"
// @Success 200 {object} RouteResponse
// @Failure 400 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Failure 504 {object} map[string]any
// @Router /api/route/analyze [post]
func (h *Handler) AnalyzeRoute(c *gin.Context) {
	var req permit.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(c.Request.Context())
	defer cancel()

	out, err := h.Route.Analyze(ctx, req)
	if err != nil {
		h.Logger.Error().Err(err).Str("origin", req.Origin).Str("destination", req.Destination).Msg("route analysis failed")
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, RouteResponse{Success: true, RouteAnalysis: out})
}

// RouteResponse flattens the analysis next to the success flag.
type RouteResponse struct {
	Success bool `json:"success"`
	models.RouteAnalysis
}

type UnitsRequest struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
	Weight string `json:"weight"`
}

type ParsedDimension struct {
	Input   string `json:"input"`
	Inches  int    `json:"inches"`
	Display string `json:"display"`
}

type ParsedWeight struct {
	Input  string `json:"input"`
	Pounds int    `json:"pounds"`
}

type UnitsResponse struct {
	Success    bool             `json:"success"`
	Length     *ParsedDimension `json:"length,omitempty"`
	Width      *ParsedDimension `json:"width,omitempty"`
	Height     *ParsedDimension `json:"height,omitempty"`
	Weight     *ParsedWeight    `json:"weight,omitempty"`
	Oversize   bool             `json:"oversize"`
	Overweight bool             `json:"overweight"`
	Exceeded   []string         `json:"exceeded"`
}

// @Summary Parse dimensions
// @Description Normalize free-text dimensions (10'6", 10-6, 126) and weights (24 tons, 48,000 lbs)
// @Tags units
// @Accept json
// @Produce json
// @Param request body UnitsRequest true "free-text measures"
// @Success 200 {object} UnitsResponse
// @Failure 400 {object} map[string]any
// @Router /api/units/parse [post]
func (h *Handler) ParseUnits(c *gin.Context) {
	var req UnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if strings.TrimSpace(req.Length+req.Width+req.Height+req.Weight) == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "At least one measure is required", nil)
		return
	}

	resp := UnitsResponse{
		Success: true,
		Length:  parseDimension(req.Length),
		Width:   parseDimension(req.Width),
		Height:  parseDimension(req.Height),
	}
	var d models.Dimensions
	if resp.Length != nil {
		d.Length = float64(resp.Length.Inches)
	}
	if resp.Width != nil {
		d.Width = float64(resp.Width.Inches)
	}
	if resp.Height != nil {
		d.Height = float64(resp.Height.Inches)
	}
	if s := strings.TrimSpace(req.Weight); s != "" {
		resp.Weight = &ParsedWeight{Input: s, Pounds: units.ParseWeightString(s)}
		d.Weight = float64(resp.Weight.Pounds)
	}

	limits := h.limits()
	resp.Oversize = units.IsOversize(d.Length, d.Width, d.Height, limits)
	resp.Overweight = units.IsOverweight(d.Weight, limits)
	resp.Exceeded = d.Exceeded(limits)
	if resp.Exceeded == nil {
		resp.Exceeded = []string{}
	}
	c.JSON(http.StatusOK, resp)
}

func parseDimension(s string) *ParsedDimension {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	inches := units.ParseDimensionString(s)
	return &ParsedDimension{Input: s, Inches: inches, Display: units.FormatFeetInches(inches)}
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Param kind query string false "cargo or route"
// @Success 200 {object} models.Run
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	if h.Runs == nil {
		writeError(c, http.StatusServiceUnavailable, "STORE_DISABLED", "Run history requires a database", nil)
		return
	}
	kind := strings.ToLower(strings.TrimSpace(c.Query("kind")))
	if kind != "" && kind != service.RunKindCargo && kind != service.RunKindRoute {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "kind must be cargo or route", nil)
		return
	}
	result, err := h.Runs.GetLatestRun(c.Request.Context(), kind)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.RequestTimeout)
}

func (h *Handler) limits() models.Dimensions {
	if h.Limits == (models.Dimensions{}) {
		return units.DefaultLimits
	}
	return h.Limits
}

// writeServiceError maps domain errors onto the error envelope. Order
// matters: a deadline wrapped inside an extraction failure is still a
// timeout.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	var (
		unsupported cargo.UnsupportedTypeError
		limited     ai.RateLimitError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, permit.ErrTimeout):
		writeError(c, http.StatusGatewayTimeout, "TIMEOUT", "Analysis timed out", err.Error())
	case errors.As(err, &limited):
		details := gin.H{}
		if limited.RetryAfter > 0 {
			details["retry_after_seconds"] = int(math.Ceil(limited.RetryAfter.Seconds()))
		}
		writeError(c, http.StatusTooManyRequests, "RATE_LIMITED", "AI provider rate limit reached", details)
	case errors.Is(err, cargo.ErrTextTooShort):
		writeError(c, http.StatusBadRequest, "TEXT_TOO_SHORT", err.Error(), nil)
	case errors.As(err, &unsupported):
		writeError(c, http.StatusBadRequest, "UNSUPPORTED_TYPE", err.Error(), unsupported.Type)
	case errors.Is(err, cargo.ErrInvalidRequest), errors.Is(err, permit.ErrInvalidRequest):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, spreadsheet.ErrNoText), errors.Is(err, spreadsheet.ErrEmpty),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat), errors.Is(err, spreadsheet.ErrUnreadable):
		writeError(c, http.StatusBadRequest, "UNREADABLE_FILE", "Could not read the uploaded file", err.Error())
	case errors.Is(err, routing.ErrNoRoute):
		writeError(c, http.StatusUnprocessableEntity, "NO_ROUTE", "No route found between origin and destination", nil)
	case errors.Is(err, cargo.ErrExtractionFailed):
		writeError(c, http.StatusBadGateway, "EXTRACTION_FAILED", "Cargo extraction failed", err.Error())
	default:
		writeError(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Upstream service failed", err.Error())
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
