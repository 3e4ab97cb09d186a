package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/logger"
	"fintrack/internal/services"
)

// PipelineHandler exposes operator-triggered batch jobs.
type PipelineHandler struct {
	notificationService services.NotificationServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(notificationService services.NotificationServicer) *PipelineHandler {
	return &PipelineHandler{notificationService: notificationService}
}

// RunReminders handles one pass of the due-reminder pipeline
// @Summary     Run due reminders
// @Description Creates reminders for every active rule due in one or two days and queues their emails. Safe to call repeatedly.
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Success     200 {object} services.ReminderRun "Run summary"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/reminders [post]
func (h *PipelineHandler) RunReminders(c *gin.Context) {
	run, err := h.notificationService.RunReminders(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Named("pipeline").Infow("reminder run complete",
		"users", run.Users,
		"rules_due", run.RulesDue,
		"notifications_created", run.NotificationsCreated,
		"emails_queued", run.EmailsQueued,
	)
	c.JSON(http.StatusOK, run)
}
