package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"aoi-dashboard/internal/domain/inspection"
	reportsDomain "aoi-dashboard/internal/domain/reports"

	"github.com/xuri/excelize/v2"
)

const exportBaseName = "3rdAoiData_(Security C)"

// ExportFileName 依查詢條件組出匯出檔名（不含副檔名）。
func ExportFileName(q Query) string {
	switch {
	case q.DrawingNo != "" && q.MachineID != "":
		return q.DrawingNo + "_" + q.MachineID + "_" + exportBaseName
	case q.DrawingNo != "":
		return q.DrawingNo + "_" + exportBaseName
	case q.MachineID != "":
		return q.MachineID + "_" + exportBaseName
	}
	return exportBaseName
}

// ExportRows 回傳依時間排序的匯出列；良率與 overkill 轉為小數比例。
func (u *UseCase) ExportRows(ctx context.Context, q Query) ([]reportsDomain.ExportRow, error) {
	records, err := u.load(ctx, q.filter())
	if err != nil {
		return nil, err
	}
	e := u.engine

	type keyed struct {
		t   int64
		ok  bool
		rec inspection.Record
	}
	items := make([]keyed, 0, len(records))
	for _, r := range records {
		t, ok := e.ParseTime(r.Timestamp)
		items = append(items, keyed{t: t.UnixNano(), ok: ok, rec: r})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		return items[i].t < items[j].t
	})

	out := make([]reportsDomain.ExportRow, 0, len(items))
	for _, it := range items {
		r := it.rec
		out = append(out, reportsDomain.ExportRow{
			Timestamp:    r.Timestamp,
			LotNo:        r.LotNo,
			StripNo:      math.Trunc(inspection.ParseNumber(r.StripNo)),
			FailPpm:      inspection.ParseNumber(r.FailPpm),
			PassRate:     fraction(r.PassRate),
			OverkillRate: fraction(r.OverkillRate),
			MachineID:    r.MachineID,
			DeviceID:     r.DeviceID,
			DrawingNo:    r.DrawingNo,
			WeekNumber:   e.WeekNumber(r.Timestamp),
		})
	}
	return out, nil
}

// fraction 空值視為 0，其餘除以 100。
func fraction(s string) float64 {
	if s == "" {
		return 0
	}
	return inspection.ParseNumber(s) / 100
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func exportRecord(r reportsDomain.ExportRow) []string {
	return []string{
		r.Timestamp,
		r.LotNo,
		formatNumber(r.StripNo),
		formatNumber(r.FailPpm),
		formatNumber(r.PassRate),
		formatNumber(r.OverkillRate),
		r.MachineID,
		r.DeviceID,
		r.DrawingNo,
		r.WeekNumber,
	}
}

// WriteCSV 以 CSV 輸出匯出列（含標題列）。
func WriteCSV(w io.Writer, rows []reportsDomain.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportsDomain.ExportHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(exportRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX 以 Excel 格式輸出，標題列粗體置中黃底，資料列加框線。
func WriteXLSX(w io.Writer, rows []reportsDomain.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	border := []excelize.Border{
		{Type: "top", Color: "000000", Style: 1},
		{Type: "left", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
		Border:    border,
	})
	if err != nil {
		return err
	}
	intFmt := "0"
	pctFmt := "0.0%"
	textStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return err
	}
	intStyle, err := f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &intFmt})
	if err != nil {
		return err
	}
	pctStyle, err := f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &pctFmt})
	if err != nil {
		return err
	}
	columnStyles := []int{textStyle, textStyle, intStyle, intStyle, pctStyle, pctStyle, textStyle, textStyle, textStyle, textStyle}

	widths := make([]int, len(reportsDomain.ExportHeaders))
	for i, h := range reportsDomain.ExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		widths[i] = len([]rune(h))
	}
	if err := f.SetCellStyle(sheet, "A1", "J1", headerStyle); err != nil {
		return err
	}

	for ri, r := range rows {
		row := ri + 2
		values := []interface{}{
			r.Timestamp,
			r.LotNo,
			cellNumber(r.StripNo),
			cellNumber(r.FailPpm),
			cellNumber(r.PassRate),
			cellNumber(r.OverkillRate),
			r.MachineID,
			r.DeviceID,
			r.DrawingNo,
			r.WeekNumber,
		}
		for ci, v := range values {
			cell, _ := excelize.CoordinatesToCellName(ci+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, columnStyles[ci]); err != nil {
				return err
			}
			if l := len([]rune(fmt.Sprint(v))); l > widths[ci] {
				widths[ci] = l
			}
		}
	}

	for i, wdt := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(max(wdt+2, 10))); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}

// cellNumber NaN 以空白儲存格寫入。
func cellNumber(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}
