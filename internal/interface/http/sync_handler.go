package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleSync 立即向後端重新抓取全部紀錄。
func (s *Server) handleSync(c *gin.Context) {
	res, err := s.syncUC.Sync(c.Request.Context())
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"fetched": res.Fetched,
		"stored":  res.Stored,
		"skipped": res.Skipped,
		"at":      res.At,
	})
}
