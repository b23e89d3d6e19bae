package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/bom-weather/internal/weather"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("stationcode", func(fl validator.FieldLevel) bool {
		return weather.StationCode(fl.Field().String()).Validate() == nil
	})
	return v
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, client *weather.Client) {
	v1 := app.Group("/api/v1")

	v1.Get("/stations/:code", func(c *fiber.Ctx) error {
		q, err := parseStationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		record, err := client.GetStation(c.UserContext(), q.code(), q.Refresh)
		if err != nil {
			return toFiberError(err)
		}

		return c.JSON(record)
	})

	v1.Get("/stations/:code/observations", func(c *fiber.Ctx) error {
		q, err := parseStationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := client.GetStationTable(c.UserContext(), q.code(), q.Refresh)
		if err != nil {
			return toFiberError(err)
		}

		return c.JSON(fiber.Map{
			"station":      q.Code,
			"count":        len(rows),
			"observations": rows,
		})
	})

	v1.Get("/stations/:code/latest", func(c *fiber.Ctx) error {
		q, err := parseStationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		row, err := client.GetLastUpdate(c.UserContext(), q.code(), q.Refresh)
		if err != nil {
			return toFiberError(err)
		}

		return c.JSON(row)
	})

	v1.Get("/cache", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"ttlSeconds": client.TTL().Seconds(),
			"entries":    client.Entries(),
		})
	})
}

// stationQuery holds the path and query parameters shared by the station endpoints.
type stationQuery struct {
	Code    string `validate:"required,stationcode"`
	Refresh bool
}

func (q stationQuery) code() weather.StationCode {
	return weather.StationCode(q.Code)
}

func parseStationQuery(c *fiber.Ctx) (stationQuery, error) {
	var q stationQuery

	// Params points into the request buffer, which fiber reuses; the code outlives the request as a cache key.
	q.Code = utils.CopyString(c.Params("code"))
	q.Refresh = c.QueryBool("refresh", false)

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// toFiberError maps client errors to HTTP statuses.
func toFiberError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidStationCode):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrEmptyRecord):
		return fiber.NewError(fiber.StatusNotFound, "no observations for requested station")
	case errors.Is(err, weather.ErrNetwork):
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch station data")
	case errors.Is(err, weather.ErrDecode),
		errors.Is(err, weather.ErrMalformedRecord),
		errors.Is(err, weather.ErrTimestampParse):
		return fiber.NewError(fiber.StatusBadGateway, "upstream returned unusable station data")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get station data")
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
