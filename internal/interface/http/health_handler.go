package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
		"status":    "alive",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "ok"
	if s.db != nil {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			dbStatus = "error: " + err.Error()
		}
	} else {
		dbStatus = "using_memory"
	}

	records, err := s.repo.CountRecords(c.Request.Context())
	if err != nil {
		records = -1
	}

	resp := gin.H{
		"success": true,
		"health":  "ok",
		"db":      dbStatus,
		"records": records,
		"source":  s.source != nil,
		"time":    s.engine.Now().Format(time.RFC3339),
	}
	if last, ok := s.store.LastSync(); ok && s.db == nil {
		resp["last_sync"] = last.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}
