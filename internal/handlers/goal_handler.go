package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
	"fintrack/internal/types"
)

// GoalHandler handles savings goals and contributions.
type GoalHandler struct {
	goalService services.GoalServicer
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// GoalRequest represents the request payload for creating or updating a goal
type GoalRequest struct {
	GoalName     string              `json:"goal_name" binding:"required,max=255"`
	TargetAmount decimal.Decimal     `json:"target_amount" binding:"gt=0" swaggertype:"number"`
	SavedAmount  *decimal.Decimal    `json:"saved_amount" binding:"omitempty,gte=0" swaggertype:"number"`
	TargetDate   *types.Date         `json:"target_date" swaggertype:"string" example:"2024-12-31"`
	Priority     models.GoalPriority `json:"priority" binding:"omitempty,goal_priority" example:"Medium"`
}

func (r GoalRequest) input() services.GoalInput {
	return services.GoalInput{
		GoalName:     r.GoalName,
		TargetAmount: r.TargetAmount,
		SavedAmount:  r.SavedAmount,
		TargetDate:   r.TargetDate.TimePtr(),
		Priority:     r.Priority,
	}
}

// ContributionRequest represents a deposit towards a goal
type ContributionRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"gt=0" swaggertype:"number"`
	Date   *types.Date     `json:"date" swaggertype:"string" example:"2024-05-10"`
	Note   string          `json:"note" binding:"max=500"`
}

// CreateGoal handles the creation of a savings goal
// @Summary     Create a savings goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body GoalRequest true "Goal details"
// @Success     201 {object} map[string]services.GoalView "Goal created with its progress"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	goal, err := h.goalService.CreateGoal(c.Request.Context(), userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// GetUserGoals handles listing the user's goals
// @Summary     List savings goals
// @Description Goals with their progress, highest priority first
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]services.GoalView "Goals"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals [get]
func (h *GoalHandler) GetUserGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goals, err := h.goalService.GetUserGoals(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// GetGoalByID handles the retrieval of one goal
// @Summary     Get savings goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} map[string]services.GoalView "Goal"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoalByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.GetGoalByID(c.Request.Context(), userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoal handles updating a goal
// @Summary     Update savings goal
// @Description Omitting saved_amount keeps the current total
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string      true "Goal ID"
// @Param       request body GoalRequest true "Goal details"
// @Success     200 {object} map[string]services.GoalView "Goal updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	goal, err := h.goalService.UpdateGoal(c.Request.Context(), userID, goalID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal handles deleting a goal
// @Summary     Delete savings goal
// @Description Deletes the goal and its contributions
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} MessageResponse "Goal deleted"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.goalService.DeleteGoal(c.Request.Context(), userID, goalID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Goal deleted successfully"})
}

// AddContribution handles a deposit towards a goal
// @Summary     Add contribution
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Goal ID"
// @Param       request body ContributionRequest true "Contribution"
// @Success     201 {object} map[string]interface{} "Contribution and the updated goal"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/contributions [post]
func (h *GoalHandler) AddContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	contribution, goal, err := h.goalService.AddContribution(c.Request.Context(), userID, goalID, services.ContributionInput{
		Amount: req.Amount,
		Date:   req.Date.TimePtr(),
		Note:   req.Note,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contribution": contribution, "goal": goal})
}

// GetContributions handles listing a goal's contributions
// @Summary     List contributions
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Goal ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Contribution] "Contributions, newest first"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/contributions [get]
func (h *GoalHandler) GetContributions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.goalService.GetContributions(c.Request.Context(), userID, goalID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
