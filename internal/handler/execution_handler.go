package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/YaniKolev/momo-scheduler/internal/service"
)

// ExecutionHandler inspects a job's current execution state. There is
// no persisted history beyond the last attempt, so this reports the
// live running count plus the most recent recorded result, not a log
// of past runs.
type ExecutionHandler struct {
	jobService *service.JobService
}

// NewExecutionHandler creates a new execution handler.
func NewExecutionHandler(jobService *service.JobService) *ExecutionHandler {
	return &ExecutionHandler{jobService: jobService}
}

// Get returns a job's execution state.
// @Summary Get a job's execution state
// @Description Get a job's current running count and most recent execution result
// @Tags executions
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/jobs/{name}/executions [get]
func (h *ExecutionHandler) Get(c *fiber.Ctx) error {
	name := c.Params("name")

	job, err := h.jobService.Get(c.Context(), name)
	if err != nil {
		return InternalError(c, err.Error())
	}
	if job == nil {
		return NotFound(c, "job not found")
	}

	running := 0
	if job.SchedulerStatus != nil {
		running = job.SchedulerStatus.Running
	}

	return Success(c, fiber.Map{
		"jobName":       job.Name,
		"running":       running,
		"executionInfo": job.ExecutionInfo,
	})
}
