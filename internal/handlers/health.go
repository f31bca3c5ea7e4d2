package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing service. A nil Pinger is reported as disabled.
type Pinger func(ctx context.Context) error

func Health(mongo Pinger, cache Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{"mongo": "up", "cache": "disabled"}
		status := http.StatusOK

		if mongo == nil {
			checks["mongo"] = "disabled"
		} else if err := mongo(c.Request.Context()); err != nil {
			_ = c.Error(err)
			checks["mongo"] = "down"
			status = http.StatusServiceUnavailable
		}
		if cache != nil {
			checks["cache"] = "up"
			if err := cache(c.Request.Context()); err != nil {
				_ = c.Error(err)
				checks["cache"] = "down"
			}
		}

		message := "ok"
		if status != http.StatusOK {
			message = "database unavailable"
		}
		c.JSON(status, gin.H{"message": message, "data": checks})
	}
}
