package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/climate-data-aggregation/internal/earthengine"
)

// Earth Engine endpoints keep their own response shapes instead of the
// centralized {error, message} body.

func (h *handlers) earthEngineHealth(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.deps.EarthEngine.Init(ctx); err != nil {
		h.deps.Logger.Error("earth engine health check failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "Google Earth Engine",
		"message": "Connection successful",
	})
}

func (h *handlers) earthData(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.deps.EarthEngine.Init(ctx); err != nil {
		h.deps.Logger.Error("earth engine init failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	points, err := h.deps.EarthEngine.SampleNDVI(ctx, earthengine.DefaultGlobalSample)
	if err != nil {
		h.deps.Logger.Error("earth engine sampling failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(points)
}

func (h *handlers) ndviGrid(c *fiber.Ctx) error {
	var req ndviRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to generate NDVI grid",
			"details": err.Error(),
		})
	}

	grid, err := earthengine.Grid(req.Date, req.Resolution)
	if err != nil {
		if errors.Is(err, earthengine.ErrInvalidDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(grid)
}
