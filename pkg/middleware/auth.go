package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/jwt"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/response"
)

const (
	UserIDKey      = "user_id"
	DisplayNameKey = "display_name"
	TierKey        = "tier"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// AuthMiddleware validates identity tokens on the HTTP read surface.
type AuthMiddleware struct {
	verifier *jwt.Verifier
}

// NewAuthMiddleware creates an auth middleware backed by the shared verifier.
func NewAuthMiddleware(verifier *jwt.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth aborts the request unless a valid bearer token is present.
// On success the identity claims are stored in the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" || !strings.HasPrefix(header, BearerPrefix) {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := m.verifier.Verify(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(DisplayNameKey, claims.DisplayName)
		c.Set(TierKey, claims.Tier)
		c.Next()
	}
}

// GetUserID returns the authenticated user id from the gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetDisplayName returns the authenticated display name from the gin context.
func GetDisplayName(c *gin.Context) string {
	return c.GetString(DisplayNameKey)
}

// GetTier returns the authenticated membership tier from the gin context.
func GetTier(c *gin.Context) string {
	return c.GetString(TierKey)
}
