package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			failWith(c, err, http.StatusServiceUnavailable, "Database unavailable.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
