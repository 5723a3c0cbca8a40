package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"memoir/internal/gallery"
	"memoir/internal/index"
	"memoir/internal/model"
	"memoir/internal/telemetry"
)

// Gallery is the read surface consumed by the HTTP handlers.
type Gallery interface {
	Years(ctx context.Context) (*model.YearsResponse, error)
	PhotosByYear(ctx context.Context, year int, cursor string, limit int) (*model.PhotosResponse, error)
	PhotoByID(ctx context.Context, id string) (*model.PhotoDetail, error)
}

// EventTracker records frontend telemetry events.
type EventTracker interface {
	Track(ctx context.Context, ev model.TelemetryEvent, client telemetry.ClientInfo)
}

// HealthCheck reports whether the blob store behind the index is reachable.
func HealthCheck(idx index.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if _, err := idx.Partitions(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// GetYears lists the years that contain at least one photo.
func GetYears(svc Gallery) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Years(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetPhotos serves one cursor page of a year's photos grouped by quarter.
func GetPhotos(svc Gallery) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := strconv.Atoi(c.Params("year"))
		if err != nil || year < 1000 || year > 9999 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_YEAR", "invalid year")
		}

		limit := gallery.DefaultPageSize
		if limitStr := c.Query("limit"); limitStr != "" {
			limit, err = strconv.Atoi(limitStr)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
		}

		res, err := svc.PhotosByYear(c.UserContext(), year, c.Query("cursor"), limit)
		if err != nil {
			if errors.Is(err, gallery.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "year not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetPhoto serves the lightbox view of a single photo by id.
func GetPhoto(svc Gallery) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.PhotoByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, gallery.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "photo not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// PostTelemetry accepts fire-and-forget frontend events. A malformed body
// is the only client error; tracking itself never fails the request.
func PostTelemetry(tracker EventTracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ev model.TelemetryEvent
		if err := c.BodyParser(&ev); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if ev.Event == "" {
			return writeError(c, fiber.StatusBadRequest, "EVENT_REQUIRED", "event is required")
		}

		tracker.Track(c.UserContext(), ev, telemetry.ClientInfo{
			IP:        clientIP(c),
			Country:   c.Get("CF-IPCountry"),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})

		return c.SendStatus(fiber.StatusAccepted)
	}
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return c.IP()
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, idx index.Store, svc Gallery, tracker EventTracker) {
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/health", HealthCheck(idx))
	api.Get("/years", GetYears(svc))
	api.Get("/photos/:year", GetPhotos(svc))
	api.Get("/photo/:id", GetPhoto(svc))
	api.Post("/telemetry", PostTelemetry(tracker))
}
