package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/types"
)

const defaultUpcomingDays = 30

// RecurringHandler handles recurring transaction rules.
type RecurringHandler struct {
	recurringService services.RecurringServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

// RecurringRequest represents the request payload for creating or replacing a rule
type RecurringRequest struct {
	Title     string                 `json:"title" binding:"required,max=255"`
	Amount    *decimal.Decimal       `json:"amount" binding:"required,gte=0"`
	Category  *string                `json:"category" binding:"omitempty,max=100"`
	Type      models.TransactionType `json:"type" binding:"required,transaction_type"`
	Frequency string                 `json:"frequency" binding:"required,frequency" example:"monthly"`
	StartDate types.Date             `json:"start_date" swaggertype:"string" example:"2024-05-01"`
	EndDate   *types.Date            `json:"end_date" swaggertype:"string" example:"2024-12-31"`
	IsActive  *bool                  `json:"is_active"`
}

func (r RecurringRequest) input() services.RecurringInput {
	return services.RecurringInput{
		Title:     r.Title,
		Amount:    *r.Amount,
		Category:  r.Category,
		Type:      r.Type,
		Frequency: r.Frequency,
		StartDate: r.StartDate.Time,
		EndDate:   r.EndDate.TimePtr(),
		IsActive:  r.IsActive,
	}
}

// CreateRule handles the creation of a recurring rule
// @Summary     Create a recurring transaction
// @Description The first due date is one frequency step after the start date
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecurringRequest true "Rule details"
// @Success     201 {object} map[string]services.RuleView "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [post]
func (h *RecurringHandler) CreateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule, err := h.recurringService.CreateRule(c.Request.Context(), userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recurring_rule": rule})
}

// GetUserRules handles listing the user's rules
// @Summary     List recurring transactions
// @Description Rules with their due status, soonest due first
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]services.RuleView "Rules"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [get]
func (h *RecurringHandler) GetUserRules(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rules, err := h.recurringService.GetUserRules(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring_rules": rules})
}

// GetUpcoming handles the upcoming occurrences view
// @Summary     Upcoming recurring transactions
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       days query int false "Horizon in days (default 30, max 366)"
// @Success     200 {object} map[string][]services.UpcomingOccurrence "Occurrences in date order"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /recurring/upcoming [get]
func (h *RecurringHandler) GetUpcoming(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	days, err := parseIntQuery(c, "days", defaultUpcomingDays)
	if err != nil {
		respondWithError(c, err)
		return
	}

	upcoming, err := h.recurringService.GetUpcoming(c.Request.Context(), userID, days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming, "days": days})
}

// GetRuleByID handles the retrieval of one rule
// @Summary     Get recurring transaction
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} map[string]services.RuleView "Rule"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /recurring/{id} [get]
func (h *RecurringHandler) GetRuleByID(c *gin.Context) {
	userID, ruleID, ok := h.ids(c)
	if !ok {
		return
	}

	rule, err := h.recurringService.GetRuleByID(c.Request.Context(), userID, ruleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring_rule": rule})
}

// UpdateRule handles replacing a rule
// @Summary     Replace recurring transaction
// @Description Changing the frequency or start date recomputes the next due date
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Rule ID"
// @Param       request body RecurringRequest true "Rule details"
// @Success     200 {object} map[string]services.RuleView "Rule updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /recurring/{id} [put]
func (h *RecurringHandler) UpdateRule(c *gin.Context) {
	userID, ruleID, ok := h.ids(c)
	if !ok {
		return
	}

	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule, err := h.recurringService.UpdateRule(c.Request.Context(), userID, ruleID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring_rule": rule})
}

// ToggleRule handles pausing and resuming a rule
// @Summary     Pause or resume recurring transaction
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} map[string]services.RuleView "Rule with flipped active flag"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /recurring/{id}/toggle [patch]
func (h *RecurringHandler) ToggleRule(c *gin.Context) {
	userID, ruleID, ok := h.ids(c)
	if !ok {
		return
	}

	rule, err := h.recurringService.ToggleRule(c.Request.Context(), userID, ruleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring_rule": rule})
}

// RecordOccurrence handles materializing the rule's due transaction
// @Summary     Record occurrence
// @Description Create the transaction for the current due date and advance the rule by one step
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     201 {object} map[string]interface{} "Created transaction and updated rule"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     409 {object} ErrorResponse "Rule is not active"
// @Router      /recurring/{id}/occurrences [post]
func (h *RecurringHandler) RecordOccurrence(c *gin.Context) {
	userID, ruleID, ok := h.ids(c)
	if !ok {
		return
	}

	transaction, rule, err := h.recurringService.RecordOccurrence(c.Request.Context(), userID, ruleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction, "recurring_rule": rule})
}

// DeleteRule handles deleting a rule
// @Summary     Delete recurring transaction
// @Description Transactions already recorded from the rule are kept
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} MessageResponse "Rule deleted"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /recurring/{id} [delete]
func (h *RecurringHandler) DeleteRule(c *gin.Context) {
	userID, ruleID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.recurringService.DeleteRule(c.Request.Context(), userID, ruleID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Recurring transaction deleted successfully"})
}

// ids reads the user and rule ids, writing the error response when either is missing.
func (h *RecurringHandler) ids(c *gin.Context) (string, string, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid recurring rule id"))
		return "", "", false
	}
	return userID, ruleID, true
}
