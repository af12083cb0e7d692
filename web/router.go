package web

import (
	"biotrack.com.au/biotrack/web/handlers"
	"biotrack.com.au/biotrack/web/middlewares"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the admin/status API. Everything under /api requires a
// Bearer token; /ping stays open for load balancer checks.
func NewRouter(jwtSecret []byte, h *handlers.Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		protected.GET("/status", h.GetStatus)
		protected.GET("/mappings", h.GetMappings)
		protected.PUT("/mappings", h.PutMapping)
		protected.GET("/attendance", h.GetAttendance)
	}

	return r
}
