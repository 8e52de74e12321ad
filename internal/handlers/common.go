package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BrightPath-Learning/course-progress-service/internal/bank"
	"github.com/BrightPath-Learning/course-progress-service/internal/progress"
	"github.com/BrightPath-Learning/course-progress-service/internal/quiz"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthCheck responds with service health status
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "course-progress-service",
	})
}

// HandleServiceError maps domain errors onto HTTP status codes.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bank.ErrModuleNotFound),
		errors.Is(err, progress.ErrModuleNotTracked),
		errors.Is(err, quiz.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error(), Code: "not_found"})
	case errors.Is(err, progress.ErrInvalidScore):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "bad_request"})
	case errors.Is(err, bank.ErrBankCorrupt):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error(), Code: "data_corrupt"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error", Code: "internal"})
	}
}

// ParseStringIDParam extracts and trims a path parameter, writing a 400
// response when it is empty.
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}
