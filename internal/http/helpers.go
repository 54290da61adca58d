package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lectorflow/server/internal/auth"
	"github.com/lectorflow/server/internal/database/records"
	"github.com/lectorflow/server/internal/progress"
)

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns auth.DefaultUserID (0) when auth is disabled.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.IndentedJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.IndentedJSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and hides it from the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.IndentedJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func respondError(c *gin.Context, status int, message string) {
	c.IndentedJSON(status, ErrorResponse{Error: message})
}

// respondRecordError maps the errors the record endpoints share: progress
// rule violations become 400, duplicate or already-in-list conflicts 409,
// missing rows 404. Anything else is an internal error.
func respondRecordError(c *gin.Context, err error, context string) {
	var validation *progress.ValidationError
	switch {
	case errors.As(err, &validation):
		respondBadRequest(c, validation.Error())
	case errors.Is(err, progress.ErrAlreadyInList):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, records.ErrDuplicateRecord):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "record")
	default:
		respondInternalError(c, err, context)
	}
}

// parseIDParam extracts and validates an unsigned integer ID from URL
// parameters. Responds with a 400 and returns false on bad input.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseDateValue parses an optional YYYY-MM-DD value from a request body.
func parseDateValue(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
