package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
)

func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, claims.Role)

		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(min models.Role) drift.HandlerFunc {
	return func(c *drift.Context) {
		if !GetRole(c).AtLeast(min) {
			abort(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetRole(c *drift.Context) models.Role {
	if role, ok := c.Get(UserRoleKey); ok {
		if r, ok := role.(models.Role); ok {
			return r
		}
	}
	return 0
}

func abort(c *drift.Context, status int, detail string) {
	_ = c.JSON(status, map[string]string{"detail": detail})
	c.Abort()
}
