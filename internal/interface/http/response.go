package httpapi

import (
	"errors"
	"net/http"

	"aoi-dashboard/internal/application/dataingestion"
	"aoi-dashboard/internal/application/reports"
	"aoi-dashboard/internal/infrastructure/external/aoisource"
	"aoi-dashboard/pkg/log"

	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest   = "BAD_REQUEST"
	errCodeNotFound     = "NOT_FOUND"
	errCodeDataNotReady = "DATA_NOT_READY"
	errCodeUpstream     = "UPSTREAM_ERROR"
	errCodeInternal     = "INTERNAL_ERROR"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Success:   false,
		Error:     msg,
		ErrorCode: code,
	})
}

// writeFailure 將用例錯誤對應到 HTTP 狀態與錯誤碼。
func writeFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reports.ErrInvalidQuery):
		writeError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
	case errors.Is(err, reports.ErrDataNotReady):
		writeError(c, http.StatusServiceUnavailable, errCodeDataNotReady, err.Error())
	case errors.Is(err, dataingestion.ErrNoSource):
		writeError(c, http.StatusServiceUnavailable, errCodeUpstream, err.Error())
	case errors.Is(err, aoisource.ErrUpstream):
		writeError(c, http.StatusBadGateway, errCodeUpstream, err.Error())
	default:
		log.GetLogger(c.Request.Context()).WithError(err).Error("request failed")
		writeError(c, http.StatusInternalServerError, errCodeInternal, "internal error")
	}
	_ = c.Error(err)
}
