package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YaniKolev/momo-scheduler/internal/handler"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	Job       *handler.JobHandler
	Execution *handler.ExecutionHandler
	Schedule  *handler.ScheduleHandler
	Health    *handler.HealthHandler
}

// SetupRouter configures the Fiber router.
func SetupRouter(app *fiber.App, h *Handlers) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)
	app.Get("/live", h.Health.Live)

	v1 := app.Group("/api/v1")

	jobs := v1.Group("/jobs")
	jobs.Get("/", h.Job.List)
	jobs.Get("/:name", h.Job.Get)
	jobs.Delete("/:name", h.Job.Delete)
	jobs.Post("/:name/trigger", h.Job.Trigger)
	jobs.Get("/:name/errors", h.Job.UnexpectedErrors)
	jobs.Get("/:name/executions", h.Execution.Get)

	v1.Get("/schedule", h.Schedule.Status)
}
