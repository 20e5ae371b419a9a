package alert

import (
	"fmt"
	"strings"

	"aoi-dashboard/internal/domain/reports"
)

// Notification 封裝 overkill 派報內容。
type Notification struct {
	Date          string
	Threshold     float64
	NeedsDispatch bool
	Rows          []reports.SummaryRow
	Omitted       int
}

// Text 組出推送用的純文字內容。
func (n Notification) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "AOI Overkill 日報 %s（門檻 %s%%）\n", n.Date, trimFloat(n.Threshold))
	if n.NeedsDispatch {
		b.WriteString("需要派報: Y\n")
	} else {
		b.WriteString("需要派報: N\n")
	}
	for _, r := range n.Rows {
		fmt.Fprintf(&b, "- %s / %s  Pass %s%%  Overkill %s%%\n", r.DrawingNo, r.DeviceID, r.PassRate, r.OverkillRate)
	}
	if n.Omitted > 0 {
		fmt.Fprintf(&b, "...另有 %d 筆\n", n.Omitted)
	}
	return strings.TrimRight(b.String(), "\n")
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
