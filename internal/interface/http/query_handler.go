package httpapi

import (
	"net/http"
	"strings"

	"aoi-dashboard/internal/application/reports"
	"aoi-dashboard/internal/domain/inspection"
	reportDomain "aoi-dashboard/internal/domain/reports"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleQueryAverages(c *gin.Context) {
	out, err := s.reports.QueryAverages(c.Request.Context(), queryFromRequest(c))
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": out})
}

func (s *Server) handleQueryTotals(c *gin.Context) {
	out, err := s.reports.QueryTotals(c.Request.Context(), queryFromRequest(c))
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": out})
}

func (s *Server) handleDetails(c *gin.Context) {
	period, err := inspection.ParsePeriod(c.DefaultQuery("period", string(inspection.PeriodDaily)))
	if err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}
	q := reports.DetailQuery{
		DeviceID: strings.TrimSpace(c.Query("device")),
		Key:      strings.TrimSpace(c.Query("key")),
		Period:   period,
	}
	var out reportDomain.BucketDetail
	if c.Query("source") == "upstream" {
		fetcher, ok := s.source.(reports.DetailFetcher)
		if !ok {
			writeError(c, http.StatusServiceUnavailable, errCodeUpstream, "upstream details not available")
			return
		}
		out, err = s.reports.UpstreamBucketDetails(c.Request.Context(), fetcher, q)
	} else {
		out, err = s.reports.BucketDetails(c.Request.Context(), q)
	}
	if err != nil {
		writeFailure(c, err)
		return
	}
	if len(out.Records) == 0 {
		writeError(c, http.StatusNotFound, errCodeNotFound, "no records in bucket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "detail": out})
}

// handleAggregate 直接以 period/range/n 呼叫聚合引擎。
func (s *Server) handleAggregate(c *gin.Context) {
	period, err := inspection.ParsePeriod(c.DefaultQuery("period", string(inspection.PeriodDaily)))
	if err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}
	q := reports.AggregateQuery{
		Query:  queryFromRequest(c),
		Period: period,
		N:      parseIntDefault(c.Query("n"), 0),
	}
	if raw := c.Query("range"); raw != "" {
		rng, err := inspection.ParsePeriod(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
			return
		}
		q.Range = rng
	}

	switch kind := c.DefaultQuery("kind", "avg"); kind {
	case "avg":
		out, err := s.reports.Averages(c.Request.Context(), q)
		if err != nil {
			writeFailure(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "kind": kind, "results": out})
	case "sum":
		out, err := s.reports.Totals(c.Request.Context(), q)
		if err != nil {
			writeFailure(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "kind": kind, "results": out})
	default:
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "kind must be avg or sum")
	}
}
