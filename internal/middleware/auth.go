package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"avenue/internal/auth"
	"avenue/internal/logger"
)

const claimsKey = "claims"

// TokenParser is satisfied by *auth.Tokens.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func sessionClaims(c *gin.Context, tokens TokenParser) (*auth.Claims, bool) {
	raw, ok := bearerToken(c)
	if !ok {
		return nil, false
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// AdminOnly rejects every request without an admin session with 403 before
// the handler runs.
func AdminOnly(tokens TokenParser, logg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c, tokens)
		if !ok || !claims.IsAdmin() {
			if logg != nil {
				logg.Warn(c.Request.Context(), "auth.admin.forbidden", nil)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		setSession(c, logg, claims)
		c.Next()
	}
}

func setSession(c *gin.Context, logg *logger.Logger, claims *auth.Claims) {
	c.Set(claimsKey, claims)
	c.Set(userIDKey, claims.UserID)
	if logg != nil {
		c.Request = c.Request.WithContext(logg.WithUserID(c.Request.Context(), claims.UserID.Hex()))
	}
}

// Claims returns the session stored by AdminOnly or UserAuth.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
