package httpapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-monitor/internal/store"
	"github.com/i474232898/weather-monitor/internal/weather"
)

var validate = validator.New()

// Reader is the read side of the weather service used by the handlers.
type Reader interface {
	LatestSummary(ctx context.Context, location string) (weather.DailySummary, error)
	LatestObservation(ctx context.Context, location string) (weather.Observation, error)
}

// Deps bundles what the routes need.
type Deps struct {
	Reader     Reader
	Thresholds *weather.ThresholdConfig
	Alerts     *weather.AlertHistory
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Post("/set-threshold", func(c *fiber.Ctx) error {
		var req weather.ThresholdUpdate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid threshold payload")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		current := deps.Thresholds.Apply(req)
		return c.JSON(fiber.Map{
			"message":    "Thresholds updated successfully",
			"thresholds": current,
		})
	})

	app.Get("/thresholds", func(c *fiber.Ctx) error {
		return c.JSON(deps.Thresholds.Snapshot())
	})

	app.Get("/daily-summary/:city", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}

		summary, err := deps.Reader.LatestSummary(c.UserContext(), city)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "No daily summary found for city "+city)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch daily summary")
		}
		return c.JSON(summary)
	})

	app.Get("/weather/stored/:city", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}

		obs, err := deps.Reader.LatestObservation(c.UserContext(), city)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "No stored data found for city "+city)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch stored weather")
		}
		return c.JSON(obs)
	})

	app.Get("/alerts", func(c *fiber.Ctx) error {
		limit := 0
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
			}
			limit = n
		}

		alerts := []weather.Alert{}
		if deps.Alerts != nil {
			alerts = append(alerts, deps.Alerts.Recent(limit)...)
		}
		return c.JSON(fiber.Map{"alerts": alerts})
	})
}

// cityQuery holds the path parameter identifying a location.
type cityQuery struct {
	City string `validate:"required"`
}

func cityParam(c *fiber.Ctx) (string, error) {
	raw := c.Params("city")
	city, err := url.PathUnescape(raw)
	if err != nil {
		city = raw
	}

	q := cityQuery{City: city}
	if err := validate.Struct(q); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q.City, nil
}
