package response

import (
	"net/http"

	"realtime-threads/internal/models"

	"github.com/gin-gonic/gin"
)

// Messages for the error codes returned most often.
var msg = map[int]string{
	http.StatusBadRequest:            "invalid request",
	http.StatusUnauthorized:          "authentication required",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "not found",
	http.StatusRequestEntityTooLarge: "payload too large",
	http.StatusTooManyRequests:       "rate limit exceeded",
	http.StatusInternalServerError:   "internal server error",
}

// Message returns the default message for an HTTP status code.
func Message(code int) string {
	if m, ok := msg[code]; ok {
		return m
	}
	return http.StatusText(code)
}

// OK writes data wrapped in {"data": ...}.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.DataResponse{Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, models.DataResponse{Data: data})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts the request with a models.ErrorResponse. An empty message
// uses the default for the status code.
func Error(c *gin.Context, code int, message string, details string) {
	if message == "" {
		message = Message(code)
	}
	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
