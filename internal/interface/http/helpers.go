package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"aoi-dashboard/internal/application/reports"

	"github.com/gin-gonic/gin"
)

func queryFromRequest(c *gin.Context) reports.Query {
	return reports.Query{
		DrawingNo: strings.TrimSpace(c.Query("drawing")),
		MachineID: strings.TrimSpace(c.Query("machine")),
	}
}

func parseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// contentDisposition 產生含 UTF-8 檔名的下載標頭。
func contentDisposition(name string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > 127 || r == '"' {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, url.PathEscape(name))
}
