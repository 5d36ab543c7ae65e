package middleware

import (
	"net/http"
	"strings"

	profileRepo "tradocs/database/repository/profile"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by JWTAuthMiddleware.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
	ContextEmail  = "email"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// QueryTokenAuth lets a GET route take its token from ?token=, for EventSource
// clients that cannot set headers. Mount it only on the routes that need it,
// ahead of JWTAuthMiddleware. The token is moved into the Authorization header
// and removed from the URL.
func QueryTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		q := c.Request.URL.Query()
		token := strings.TrimSpace(q.Get("token"))
		if token == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") == "" {
			c.Request.Header.Set("Authorization", "Bearer "+token)
		}
		q.Del("token")
		c.Request.URL.RawQuery = q.Encode()
		c.Next()
	}
}

func unauthorized(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Insufficient authorization", Details: details})
}

// JWTAuthMiddleware validates the bearer token and checks that it is the
// profile's active session, first against the auth cache, then the profile itself.
func JWTAuthMiddleware(profiles profileRepo.ProfileRepository, cache utils.AuthCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			unauthorized(c, "missing bearer token")
			return
		}
		claims, err := utils.ExtractClaims(tokenString)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		ctx := c.Request.Context()
		hash := utils.HashToken(tokenString)
		logger := utils.GetLogger()

		if cache != nil {
			cached, err := cache.Get(ctx, claims.Subject)
			switch {
			case err != nil:
				logger.Warn("auth cache unavailable, falling back to profile lookup", zap.Error(err))
			case cached == hash:
				setIdentity(c, claims.Subject, claims.Role, claims.Email)
				c.Next()
				return
			case cached != "":
				unauthorized(c, "session has ended")
				return
			}
		}

		profile, err := profiles.GetByID(ctx, claims.Subject)
		if err != nil || profile == nil {
			unauthorized(c, "account not found")
			return
		}
		if profile.TokenHash == "" || profile.TokenHash != hash {
			unauthorized(c, "session has ended")
			return
		}
		if cache != nil {
			if err := cache.Set(ctx, profile.ID, hash); err != nil {
				logger.Warn("failed to repopulate auth cache", zap.String("userID", profile.ID), zap.Error(err))
			}
		}
		setIdentity(c, profile.ID, profile.Role, profile.Email)
		c.Next()
	}
}

func setIdentity(c *gin.Context, userID, role, email string) {
	c.Set(ContextUserID, userID)
	c.Set(ContextRole, role)
	c.Set(ContextEmail, email)
}

// CurrentUserID returns the authenticated profile id, or "".
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// CurrentRole returns the authenticated profile role, or "".
func CurrentRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}
