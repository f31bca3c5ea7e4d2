package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"avenue/internal/logger"
)

func Recoverer(logg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				if logg != nil {
					ctx := logg.WithFields(c.Request.Context(), map[string]any{"panic": fmt.Sprint(rec)})
					logg.Error(ctx, "panic.recovered", fmt.Errorf("panic: %v", rec))
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			}
		}()
		c.Next()
	}
}
