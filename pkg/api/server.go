// Package api serves the committed realtime snapshot over HTTP.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/travigo/timetable-realtime/pkg/api/routes"
	"github.com/travigo/timetable-realtime/pkg/realtime/applier"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
)

func NewApp(manager *snapshot.Manager, metrics *applier.Metrics, now func() time.Time) *fiber.App {
	webApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	webApp.Use(NewLogger())

	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	group := webApp.Group("/realtime")

	group.Get("version", routes.APIVersion)

	routes.SnapshotRouter(group.Group("/snapshot"), manager)
	routes.TripsRouter(group.Group("/trips"), manager, now)
	routes.AddedTripsRouter(group.Group("/added_trips"), manager)

	return webApp
}

func SetupServer(listen string, manager *snapshot.Manager, metrics *applier.Metrics) error {
	return NewApp(manager, metrics, time.Now).Listen(listen)
}
