package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
)

func SnapshotRouter(router fiber.Router, manager *snapshot.Manager) {
	router.Get("/", func(c *fiber.Ctx) error {
		current := manager.Snapshot()

		return c.JSON(fiber.Map{
			"sequence":  current.Sequence,
			"committed": current.Committed,
			"trips":     current.Size(),
			"empty":     current.IsEmpty(),
		})
	})
}
