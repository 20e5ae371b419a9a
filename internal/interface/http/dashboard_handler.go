package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleOverview(c *gin.Context) {
	out, err := s.reports.BuildOverview(c.Request.Context())
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"generated_at": out.GeneratedAt,
		"records":      out.Records,
		"overall":      out.Overall,
	})
}

func (s *Server) handleDevices(c *gin.Context) {
	out, err := s.reports.BuildDeviceDashboards(c.Request.Context())
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "devices": out})
}

func (s *Server) handleMachines(c *gin.Context) {
	out, err := s.reports.BuildMachineDashboards(c.Request.Context())
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "machines": out})
}

func (s *Server) handleSummary(c *gin.Context) {
	out, err := s.reports.BuildYesterdaySummary(c.Request.Context())
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": out})
}
