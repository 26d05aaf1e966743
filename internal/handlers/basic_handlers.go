package handlers

import (
	"net/http"

	"paybridge/internal/db"

	"github.com/gin-gonic/gin"
)

// HealthCheckHandler reports liveness.
// GET /api/health
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "paybridge",
		"api":     "healthy",
	})
}

// DatabaseHealthCheckHandler reports database connectivity.
// GET /api/health/db
func DatabaseHealthCheckHandler(c *gin.Context) {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"db":     "unreachable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"db":     "healthy",
	})
}
