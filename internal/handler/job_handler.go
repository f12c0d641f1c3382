package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/YaniKolev/momo-scheduler/internal/service"
)

// JobHandler handles job-related HTTP requests. Job creation is not
// exposed here: handlers are in-process Go functions (Non-goal:
// dynamic handler code loading), so jobs are registered via
// Scheduler.Define from host application code, not over HTTP. The
// admin API covers introspection, lifecycle, and manual triggering.
type JobHandler struct {
	jobService *service.JobService
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobService *service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// List lists every defined job's description.
// @Summary List jobs
// @Description List every defined job's persisted definition and live status
// @Tags jobs
// @Produce json
// @Success 200 {object} Response
// @Failure 500 {object} Response
// @Router /api/v1/jobs [get]
func (h *JobHandler) List(c *fiber.Ctx) error {
	jobs, err := h.jobService.List(c.Context())
	if err != nil {
		return InternalError(c, err.Error())
	}
	return Success(c, jobs)
}

// Get retrieves one job's description by name.
// @Summary Get a job
// @Description Get a job's persisted definition and live status by name
// @Tags jobs
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/jobs/{name} [get]
func (h *JobHandler) Get(c *fiber.Ctx) error {
	name := c.Params("name")

	job, err := h.jobService.Get(c.Context(), name)
	if err != nil {
		return InternalError(c, err.Error())
	}
	if job == nil {
		return NotFound(c, "job not found")
	}
	return Success(c, job)
}

// Delete stops and removes a job by name.
// @Summary Delete a job
// @Description Stop a job's scheduler and delete its persisted definition
// @Tags jobs
// @Param name path string true "Job name"
// @Success 204
// @Failure 500 {object} Response
// @Router /api/v1/jobs/{name} [delete]
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	name := c.Params("name")

	if err := h.jobService.Delete(c.Context(), name); err != nil {
		return InternalError(c, err.Error())
	}
	return NoContent(c)
}

// Trigger runs one attempt of a job's handler synchronously.
// @Summary Trigger a job
// @Description Run one attempt of a job's handler immediately, subject to admission rules
// @Tags jobs
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {object} Response
// @Failure 500 {object} Response
// @Router /api/v1/jobs/{name}/trigger [post]
func (h *JobHandler) Trigger(c *fiber.Ctx) error {
	name := c.Params("name")

	result, err := h.jobService.Trigger(c.Context(), name)
	if err != nil {
		return InternalError(c, err.Error())
	}
	return Success(c, result)
}

// UnexpectedErrors returns a job's unexpected-error counter.
// @Summary Get a job's unexpected error count
// @Description Get the count of unexpected errors caught during a job's tick loop
// @Tags jobs
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {object} Response
// @Router /api/v1/jobs/{name}/errors [get]
func (h *JobHandler) UnexpectedErrors(c *fiber.Ctx) error {
	name := c.Params("name")
	return Success(c, fiber.Map{"name": name, "unexpectedErrorCount": h.jobService.UnexpectedErrorCount(name)})
}
