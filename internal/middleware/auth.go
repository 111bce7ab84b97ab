package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/config"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/security"
	"lensfolio/api/internal/service"
)

const (
	// TokenCookie carries the access token for browser clients that cannot
	// set an Authorization header.
	TokenCookie = "lf_token"

	ContextUser   = "current_user"
	ContextClaims = "access_claims"
)

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

func resolveUser(c *gin.Context, cfg *config.AppConfig, users service.UserStore, sessions service.SessionStore, tokenStr string) (models.User, security.AccessClaims, bool) {
	claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
	if err != nil {
		return models.User{}, security.AccessClaims{}, false
	}

	session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
	if err != nil || session.UserID != claims.UserID {
		return models.User{}, security.AccessClaims{}, false
	}

	user, err := users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || user.Status != models.UserStatusActive {
		return models.User{}, security.AccessClaims{}, false
	}

	_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

	// The hash never leaves this package.
	user.PasswordHash = nil
	return user, *claims, true
}

// Auth rejects requests without a valid bearer token (header or cookie) and
// attaches the resolved user to the context.
func Auth(cfg *config.AppConfig, users service.UserStore, sessions service.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing token"})
			return
		}

		user, claims, ok := resolveUser(c, cfg, users, sessions, tokenStr)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present but lets the
// request through either way.
func OptionalAuth(cfg *config.AppConfig, users service.UserStore, sessions service.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := extractToken(c); tokenStr != "" {
			if user, claims, ok := resolveUser(c, cfg, users, sessions, tokenStr); ok {
				c.Set(ContextUser, user)
				c.Set(ContextClaims, claims)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user attached by Auth/OptionalAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(ContextUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

// Claims returns the parsed access claims for the current request.
func Claims(c *gin.Context) (security.AccessClaims, bool) {
	val, exists := c.Get(ContextClaims)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := val.(security.AccessClaims)
	return claims, ok
}
