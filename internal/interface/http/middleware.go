package httpapi

import (
	"time"

	"aoi-dashboard/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// requestID 沿用或產生 X-Request-Id，並放入 request context 供 log.GetLogger 使用。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(log.HttpXRequestId)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(log.HttpXRequestId, id)
		c.Set(log.CtxRequestId, id)
		c.Request = c.Request.WithContext(log.WithRequestId(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		entry := log.GetLogger(c.Request.Context()).WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"method":  c.Request.Method,
			"path":    path,
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Info("request")
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.metrics.ObserveRequest(c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-Id, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Request-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
