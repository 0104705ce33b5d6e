package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tourismhub/api/utils"
)

const (
	JWTCookieName = "jwt_token"

	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

func tokenFromRequest(c *gin.Context) string {
	if tokenString, err := c.Cookie(JWTCookieName); err == nil && tokenString != "" {
		return tokenString
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserEmail, claims.Email)
	c.Set(ctxUserRole, claims.Role)
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise lets the request through as anonymous.
func OptionalAuth(issuer *utils.JWTIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			claims, err := issuer.ValidateJWT(tokenString)
			if err != nil {
				log.Debug().Err(err).Msg("OptionalAuth: ignoring invalid token")
			} else {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// AuthRequired rejects requests without a valid token. When roles are given
// the caller's role must be one of them.
func AuthRequired(issuer *utils.JWTIssuer, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		claims, err := issuer.ValidateJWT(tokenString)
		if err != nil {
			log.Info().Err(err).Msg("AuthRequired: invalid JWT token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: role not allowed"})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// UserFromContext returns the authenticated user id and role, empty for anonymous callers.
func UserFromContext(c *gin.Context) (userID, role string) {
	return c.GetString(ctxUserID), c.GetString(ctxUserRole)
}
