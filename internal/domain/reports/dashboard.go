package reports

import (
	"encoding/json"
	"math"
	"time"

	"aoi-dashboard/internal/domain/inspection"
)

// BucketAggregate 為單一週期區間的指標平均值，數值以固定小數位字串表示。
type BucketAggregate struct {
	Key                 string            `json:"key"`
	PeriodType          inspection.Period `json:"periodType"`
	Dates               []string          `json:"date"`
	AverageFailPpm      string            `json:"averageFailPpm"`
	AverageOverkillRate string            `json:"averageOverkillRate"`
	AveragePassRate     string            `json:"averagePassRate"`
}

// BucketKey 實作排序所需介面。
func (b BucketAggregate) BucketKey() string { return b.Key }

// BucketDates 實作排序所需介面。
func (b BucketAggregate) BucketDates() []string { return b.Dates }

// MachineTotals 為單一機台或圖號在區間內的作業數量總計。
type MachineTotals struct {
	TotalAoiDefect float64
	TotalFailCount float64
	TotalPassCount float64
	TotalStrip     int
}

// MarshalJSON 將 NaN/Inf 輸出為 null。
func (m MachineTotals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalAoiDefect *float64 `json:"totalAoiDefect"`
		TotalFailCount *float64 `json:"totalFailCount"`
		TotalPassCount *float64 `json:"totalPassCount"`
		TotalStrip     int      `json:"totalStrip"`
	}{
		TotalAoiDefect: finite(m.TotalAoiDefect),
		TotalFailCount: finite(m.TotalFailCount),
		TotalPassCount: finite(m.TotalPassCount),
		TotalStrip:     m.TotalStrip,
	})
}

// BucketTotals 為單一週期區間依機台與圖號分組的總計。
type BucketTotals struct {
	Key            string                   `json:"key"`
	PeriodType     inspection.Period        `json:"periodType"`
	Dates          []string                 `json:"date"`
	Machine        map[string]MachineTotals `json:"machine"`
	BondingDrawing map[string]MachineTotals `json:"bondingDrawing"`
}

// BucketKey 實作排序所需介面。
func (b BucketTotals) BucketKey() string { return b.Key }

// BucketDates 實作排序所需介面。
func (b BucketTotals) BucketDates() []string { return b.Dates }

// OverkillPoint 為盒鬚圖的單點資料。
type OverkillPoint struct {
	Key          string            `json:"key"`
	PeriodType   inspection.Period `json:"periodType"`
	StripNo      string            `json:"stripNo"`
	OverkillRate float64           `json:"-"`
}

// MarshalJSON 將 NaN 的 overkillRate 輸出為 null。
func (p OverkillPoint) MarshalJSON() ([]byte, error) {
	type alias OverkillPoint
	return json.Marshal(struct {
		alias
		OverkillRate *float64 `json:"overkillRate"`
	}{alias: alias(p), OverkillRate: finite(p.OverkillRate)})
}

// DrawingSeries 收集單一圖號的 overkill 分布。
type DrawingSeries struct {
	DrawingNo string          `json:"drawingNo"`
	Results   []OverkillPoint `json:"results"`
}

// PeriodAverages 為日/週/月三組平均值序列。
type PeriodAverages struct {
	Daily   []BucketAggregate `json:"daily"`
	Weekly  []BucketAggregate `json:"weekly"`
	Monthly []BucketAggregate `json:"monthly"`
}

// PeriodDrawingSeries 為日/週/月三組盒鬚圖序列。
type PeriodDrawingSeries struct {
	Daily   []DrawingSeries `json:"daily"`
	Weekly  []DrawingSeries `json:"weekly"`
	Monthly []DrawingSeries `json:"monthly"`
}

// Overview 為總覽圖表資料。
type Overview struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Records     int            `json:"records"`
	Overall     PeriodAverages `json:"overall"`
}

// DeviceDashboard 為單一 Device 的指標序列。
type DeviceDashboard struct {
	DeviceID string         `json:"device_id"`
	Series   PeriodAverages `json:"series"`
}

// MachineDashboard 為單一機台的盒鬚圖資料。
type MachineDashboard struct {
	MachineID string              `json:"machine_id"`
	Series    PeriodDrawingSeries `json:"series"`
}

// SummaryRow 為昨日摘要中單一圖號 + Device 的平均。
type SummaryRow struct {
	DrawingNo    string `json:"drawing_no"`
	DeviceID     string `json:"device_id"`
	PassRate     string `json:"pass_rate"`
	OverkillRate string `json:"overkill_rate"`
	Exceeded     bool   `json:"exceeded"`
}

// YesterdaySummary 為派報用的昨日異常摘要。
type YesterdaySummary struct {
	Date                string       `json:"date"`
	Rows                []SummaryRow `json:"rows"`
	AveragePassRate     float64      `json:"average_pass_rate"`
	AverageOverkillRate float64      `json:"average_overkill_rate"`
	Threshold           float64      `json:"threshold"`
	NeedsDispatch       bool         `json:"needs_dispatch"`
}

// MarshalJSON 將無法計算的平均輸出為 null。
func (s YesterdaySummary) MarshalJSON() ([]byte, error) {
	type alias YesterdaySummary
	return json.Marshal(struct {
		alias
		AveragePassRate     *float64 `json:"average_pass_rate"`
		AverageOverkillRate *float64 `json:"average_overkill_rate"`
	}{alias: alias(s), AveragePassRate: finite(s.AveragePassRate), AverageOverkillRate: finite(s.AverageOverkillRate)})
}

// ExceededRows 回傳超過門檻的列。
func (s YesterdaySummary) ExceededRows() []SummaryRow {
	var out []SummaryRow
	for _, r := range s.Rows {
		if r.Exceeded {
			out = append(out, r)
		}
	}
	return out
}

// BucketDetail 為點擊圖表後的明細。
type BucketDetail struct {
	DeviceID            string              `json:"device_id"`
	Key                 string              `json:"key"`
	PeriodType          inspection.Period   `json:"periodType"`
	Records             []inspection.Record `json:"records"`
	AveragePassRate     string              `json:"average_pass_rate"`
	AverageOverkillRate string              `json:"average_overkill_rate"`
	Machines            []MachineBrief      `json:"machines"`
}

// MachineBrief 為明細中依機台彙整的條數與平均 overkill。
type MachineBrief struct {
	MachineID           string `json:"machine_id"`
	Strips              int    `json:"strips"`
	AverageOverkillRate string `json:"average_overkill_rate"`
}

// ExportRow 為匯出檔的一列。
type ExportRow struct {
	Timestamp    string
	LotNo        string
	StripNo      float64
	FailPpm      float64
	PassRate     float64
	OverkillRate float64
	MachineID    string
	DeviceID     string
	DrawingNo    string
	WeekNumber   string
}

// ExportHeaders 為匯出檔標題列。
var ExportHeaders = []string{"日期", "Schedule", "條號", "Fail Ppm", "Pass Rate(%)", "Overkill Rate(%)", "機台 No.", "Device Id", "圖號", "週別"}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
