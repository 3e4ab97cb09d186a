package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/services"
)

// ProfileHandler handles user settings.
type ProfileHandler struct {
	profileService services.ProfileServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService services.ProfileServicer) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// ProfileRequest represents the full set of user settings
type ProfileRequest struct {
	DisplayName          string          `json:"display_name" binding:"max=255"`
	Email                string          `json:"email" binding:"omitempty,email,max=255"`
	Currency             string          `json:"currency" binding:"omitempty,iso4217" example:"USD"`
	MonthlyBudget        decimal.Decimal `json:"monthly_budget" binding:"gte=0" swaggertype:"number"`
	WarningThresholdPct  int             `json:"warning_threshold_pct" binding:"required,min=1,max=1000" example:"80"`
	CriticalThresholdPct int             `json:"critical_threshold_pct" binding:"required,min=1,max=1000,gtefield=WarningThresholdPct" example:"100"`
	EmailNotifications   bool            `json:"email_notifications"`
}

// GetProfile handles reading the user's settings
// @Summary     Get profile
// @Description Returns the user's settings, creating the defaults on first use
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]models.Profile "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfile handles replacing the user's settings
// @Summary     Update profile
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ProfileRequest true "Settings"
// @Success     200 {object} map[string]models.Profile "Profile updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, services.ProfileInput{
		DisplayName:          req.DisplayName,
		Email:                req.Email,
		Currency:             req.Currency,
		MonthlyBudget:        req.MonthlyBudget,
		WarningThresholdPct:  req.WarningThresholdPct,
		CriticalThresholdPct: req.CriticalThresholdPct,
		EmailNotifications:   req.EmailNotifications,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
