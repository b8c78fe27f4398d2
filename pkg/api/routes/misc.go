package routes

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

// getServiceDate reads the date query, defaulting to the current service day
// of the model's timezone
func getServiceDate(c *fiber.Ctx, model *ctdf.TransitModel, now func() time.Time) (ctdf.ServiceDate, error) {
	date := c.Query("date")
	if date == "" {
		return ctdf.ServiceDateOf(now().In(model.TimeZone)), nil
	}

	serviceDate, err := ctdf.ParseServiceDate(date)
	if err != nil {
		return ctdf.ServiceDate{}, errors.New("Date must be formatted as YYYYMMDD or YYYY-MM-DD")
	}

	return serviceDate, nil
}

func detailGroups(c *fiber.Ctx) []string {
	if c.QueryBool("detailed") {
		return []string{"basic", "detailed"}
	}

	return []string{"basic"}
}

func sendReduced(c *fiber.Ctx, value interface{}) error {
	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: detailGroups(c),
	}, value)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce response",
		})
	}

	return c.JSON(reduced)
}

func sendError(c *fiber.Ctx, status int, message string) error {
	c.SendStatus(status)
	return c.JSON(fiber.Map{
		"error": message,
	})
}
