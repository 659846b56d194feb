package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"realtime-threads/internal/api/middleware"
	"realtime-threads/internal/service"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

func currentUserID(c *gin.Context) uint {
	return c.MustGet(middleware.ContextUserID).(uint)
}

// pathID parses a positive integer path parameter, writing a 400 when it is
// not one.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, "invalid "+name, "")
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid "+name, "")
		return 0, false
	}
	return n, true
}

// serviceError maps service errors onto HTTP responses.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "", err.Error())
	case errors.Is(err, service.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, "", "")
	case errors.Is(err, service.ErrForbidden):
		response.Error(c, http.StatusForbidden, "", err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrThreadNotFound),
		errors.Is(err, service.ErrReplyNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), "")
	default:
		slog.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		response.Error(c, http.StatusInternalServerError, "", "")
	}
}
