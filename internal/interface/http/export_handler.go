package httpapi

import (
	"bytes"
	"net/http"

	"aoi-dashboard/internal/application/reports"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExport(c *gin.Context) {
	q := queryFromRequest(c)
	format := c.DefaultQuery("format", "xlsx")
	if format != "csv" && format != "xlsx" {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "format must be csv or xlsx")
		return
	}

	rows, err := s.reports.ExportRows(c.Request.Context(), q)
	if err != nil {
		writeFailure(c, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	if format == "csv" {
		err = reports.WriteCSV(&buf, rows)
		contentType = "text/csv; charset=utf-8"
	} else {
		err = reports.WriteXLSX(&buf, rows)
		contentType = xlsxContentType
	}
	if err != nil {
		writeFailure(c, err)
		return
	}

	c.Header("Content-Disposition", contentDisposition(reports.ExportFileName(q)+"."+format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
