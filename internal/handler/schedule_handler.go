package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/YaniKolev/momo-scheduler/internal/service"
)

// ScheduleHandler reports SchedulePing/cluster status: which instance
// currently holds leadership and which instances are live.
type ScheduleHandler struct {
	jobService *service.JobService
}

// NewScheduleHandler creates a new schedule status handler.
func NewScheduleHandler(jobService *service.JobService) *ScheduleHandler {
	return &ScheduleHandler{jobService: jobService}
}

// Status returns this instance's schedule coordination state.
// @Summary Get cluster schedule status
// @Description Get this instance's scheduleId, leadership status, and live cluster membership
// @Tags schedule
// @Produce json
// @Success 200 {object} Response
// @Failure 500 {object} Response
// @Router /api/v1/schedule [get]
func (h *ScheduleHandler) Status(c *fiber.Ctx) error {
	status, err := h.jobService.ClusterStatus(c.Context())
	if err != nil {
		return InternalError(c, err.Error())
	}
	return Success(c, status)
}
