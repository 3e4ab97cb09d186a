package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/types"
	"fintrack/internal/uuid"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseDateQuery reads an optional YYYY-MM-DD (or RFC 3339) query parameter.
func parseDateQuery(c *gin.Context, param string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(param))
	if v == "" {
		return nil, nil
	}
	if t, err := types.ParseDate(v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+param+" format, use YYYY-MM-DD")
	}
	d := types.DateOf(t)
	return &d, nil
}

// parseIntQuery reads an optional integer query parameter.
func parseIntQuery(c *gin.Context, param string, fallback int) (int, error) {
	v := c.Query(param)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+param)
	}
	return n, nil
}

// respondWithError writes a consistent JSON error response. AppErrors keep
// their status code, code and message; anything else becomes a generic
// internal error. Internal causes are logged and never returned.
func respondWithError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr.Internal != nil {
		logger.Get().Errorw("request failed",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"request_id", requestid.Get(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
	c.JSON(appErr.StatusCode, ErrorResponse{
		Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message},
	})
}

// bindError turns a binding failure into an INVALID_INPUT response.
func bindError(c *gin.Context, err error) {
	respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
}
