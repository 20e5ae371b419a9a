package httpapi

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(gin.Recovery(), requestID(), s.ginLogger(), corsMiddleware(), s.metricsMiddleware())

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/overview", s.handleOverview)
	dashboard.GET("/devices", s.handleDevices)
	dashboard.GET("/machines", s.handleMachines)
	dashboard.GET("/summary", s.handleSummary)

	query := api.Group("/query")
	query.GET("/averages", s.handleQueryAverages)
	query.GET("/totals", s.handleQueryTotals)

	api.GET("/details", s.handleDetails)
	api.GET("/aggregate", s.handleAggregate)
	api.GET("/export", s.handleExport)

	api.POST("/admin/sync", s.handleSync)
}
