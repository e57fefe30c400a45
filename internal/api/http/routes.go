package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/climate-data-aggregation/internal/audit"
	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/colors"
	"github.com/i474232898/climate-data-aggregation/internal/earthengine"
	"github.com/i474232898/climate-data-aggregation/internal/store"
)

var validate = validator.New()

// ClimateService is the part of climate.Service the handlers use.
type ClimateService interface {
	FetchClimateDataForLocation(ctx context.Context, q climate.Query) (climate.ClimateRecord, error)
	PollutionHistory(ctx context.Context, lat, lon float64, from, to time.Time) ([]climate.PollutionSample, climate.SourceOutcome, error)
	SourceStatuses() []climate.SourceStatus
	SourceStatusHistory(name string, from, to time.Time) ([]climate.SourceStatus, error)
}

// EarthEngine is the part of earthengine.Session the handlers use.
type EarthEngine interface {
	Init(ctx context.Context) error
	SampleNDVI(ctx context.Context, req earthengine.SampleRequest) ([]earthengine.VoxelPoint, error)
}

// AuditLog lists recent feed outcomes.
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
	DegradedSince(ctx context.Context, t time.Time) (int, error)
}

// Deps are the collaborators of the HTTP handlers. Audit may be nil.
type Deps struct {
	Climate        ClimateService
	EarthEngine    EarthEngine
	Audit          AuditLog
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewApp creates the Fiber app with the centralized error response.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}
	h := &handlers{deps: deps}

	ee := app.Group("/api/earth-engine")
	ee.Get("/health", h.earthEngineHealth)
	ee.Get("/earth-data", h.earthData)
	ee.Post("/ndvi", h.ndviGrid)

	v1 := app.Group("/api/v1")
	v1.Get("/climate", h.climate)
	v1.Get("/climate/pollution/history", h.pollutionHistory)
	v1.Get("/colors/:kind", h.colorScale)
	v1.Get("/colors/:kind/value", h.colorValue)
	v1.Get("/sources/status", h.sourceStatus)
	v1.Get("/sources/status/:name/history", h.sourceStatusHistory)
	v1.Get("/sources/audit", h.auditLog)
}

type handlers struct {
	deps Deps
}

func (h *handlers) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.deps.RequestTimeout)
}

func (h *handlers) climate(c *fiber.Ctx) error {
	var req climateQuery
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	record, err := h.deps.Climate.FetchClimateDataForLocation(ctx, req.toQuery())
	if err != nil {
		if errors.Is(err, climate.ErrInvalidQuery) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate climate data: "+err.Error())
	}
	return c.JSON(record)
}

func (h *handlers) pollutionHistory(c *fiber.Ctx) error {
	var req pollutionHistoryQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	samples, outcome, err := h.deps.Climate.PollutionHistory(ctx, req.Lat, req.Lon, req.From, req.To)
	if err != nil {
		if errors.Is(err, climate.ErrInvalidQuery) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch pollution history")
	}
	return c.JSON(fiber.Map{
		"lat":     req.Lat,
		"lon":     req.Lon,
		"from":    req.From,
		"to":      req.To,
		"source":  outcome,
		"samples": samples,
	})
}

func (h *handlers) colorScale(c *fiber.Ctx) error {
	var req colorScaleQuery
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Steps == 0 {
		req.Steps = 10
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	kind := colors.Kind(c.Params("kind"))
	swatches, err := colors.Scale(kind, req.Steps)
	if err != nil {
		if errors.Is(err, colors.ErrUnknownKind) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(fiber.Map{"kind": kind, "scale": swatches})
}

func (h *handlers) colorValue(c *fiber.Ctx) error {
	var req colorValueQuery
	if err := c.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	swatch, err := colors.Color(colors.Kind(c.Params("kind")), *req.Value)
	if err != nil {
		if errors.Is(err, colors.ErrUnknownKind) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(swatch)
}

func (h *handlers) sourceStatus(c *fiber.Ctx) error {
	statuses := h.deps.Climate.SourceStatuses()
	if statuses == nil {
		statuses = []climate.SourceStatus{}
	}
	return c.JSON(fiber.Map{"sources": statuses})
}

func (h *handlers) sourceStatusHistory(c *fiber.Ctx) error {
	name := c.Params("name")
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	var err error
	if s := c.Query("from"); s != "" {
		if from, err = parseTime(s); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = parseTime(s); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if to.Before(from) {
		return fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
	}

	statuses, err := h.deps.Climate.SourceStatusHistory(name, from, to)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, climate.ErrNotConfigured) {
			return fiber.NewError(fiber.StatusNotFound, "no probe history for requested source")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch probe history")
	}
	return c.JSON(fiber.Map{
		"name":     name,
		"from":     from,
		"to":       to,
		"statuses": statuses,
	})
}

func (h *handlers) auditLog(c *fiber.Ctx) error {
	if h.deps.Audit == nil {
		return fiber.NewError(fiber.StatusNotFound, "audit log is disabled")
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 1000 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 1000")
	}

	entries, err := h.deps.Audit.Recent(c.UserContext(), limit)
	if err != nil {
		h.deps.Logger.Error("reading audit log failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read audit log")
	}
	degraded, err := h.deps.Audit.DegradedSince(c.UserContext(), time.Now().Add(-24*time.Hour))
	if err != nil {
		h.deps.Logger.Error("counting degraded records failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read audit log")
	}
	return c.JSON(fiber.Map{"entries": entries, "degradedLast24h": degraded})
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
