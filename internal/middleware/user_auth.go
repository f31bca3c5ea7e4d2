package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/logger"
)

const userIDKey = "userId"

// UserAuth validates the session token and injects the userId into the context.
func UserAuth(tokens TokenParser, logg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		setSession(c, logg, claims)
		c.Next()
	}
}

func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}
