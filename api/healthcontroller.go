package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterHealthRoutes registers health check endpoints.
func RegisterHealthRoutes(r *gin.Engine, s Scheduler) {
	r.GET("/api/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if s != nil {
			body["state"] = s.State()
		}
		c.JSON(http.StatusOK, body)
	})
}

// RegisterMetricsRoutes exposes the registry in the Prometheus text format.
func RegisterMetricsRoutes(r *gin.Engine, reg *prometheus.Registry) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}
