package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/analytics"
	"fintrack/internal/services"
	"fintrack/internal/types"
)

// AnalyticsHandler handles derived financial metrics.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
	now              func() time.Time
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, now: time.Now}
}

// GetSummary handles the analytics summary
// @Summary     Financial summary
// @Description Income, expenses, savings rate, category breakdown, trend and health score over a date window. Defaults to the current month.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       from     query string false "Window start (YYYY-MM-DD)"
// @Param       to       query string false "Window end, inclusive (YYYY-MM-DD)"
// @Param       category query string false "Category name or glob pattern such as Food*"
// @Success     200 {object} analytics.Metrics "Metrics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	window := analytics.MonthWindow(h.now())
	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}
	switch {
	case from != nil && to != nil:
		window = analytics.Window{Start: *from, End: *to}
	case from != nil:
		window = analytics.Window{Start: *from, End: types.DateOf(h.now())}
	case to != nil:
		window = analytics.MonthWindow(*to)
		window.End = *to
	}

	filter := analytics.Filter{Category: strings.TrimSpace(c.Query("category"))}
	metrics, err := h.analyticsService.GetSummary(c.Request.Context(), userID, window, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}
