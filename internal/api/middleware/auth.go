package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"realtime-threads/internal/service"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by RequireAuth.
const (
	ContextUserID   = "user_id"
	ContextIdentity = "identity"
)

type AuthMiddleware struct {
	identity service.IdentityService
}

func NewAuthMiddleware(identity service.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{identity: identity}
}

// RequireAuth resolves the bearer credential to a local user and stores its
// id under ContextUserID.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "authorization header is required", "")
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, "authorization header must be a bearer token", "")
			return
		}

		identity, err := am.identity.ResolveUser(c.Request.Context(), token)
		if err != nil {
			if service.IsAuthError(err) {
				response.Error(c, http.StatusUnauthorized, "invalid token", "")
				return
			}
			slog.Error("Failed to resolve identity", "error", err)
			response.Error(c, http.StatusInternalServerError, "", "")
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextIdentity, identity)
		c.Next()
	}
}
