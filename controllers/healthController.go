package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Churchly/initializers"

	"github.com/gin-gonic/gin"
)

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Health pings both stores.
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"postgres": "ok", "mongo": "ok"}
	healthy := true

	if initializers.DB == nil {
		status["postgres"] = "unavailable"
		healthy = false
	} else if _, err := initializers.DB.ExecContext(ctx, "SELECT 1"); err != nil {
		status["postgres"] = "unavailable"
		healthy = false
	}

	if initializers.Mongo == nil || initializers.Mongo.Client().Ping(ctx, nil) != nil {
		status["mongo"] = "unavailable"
		healthy = false
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
