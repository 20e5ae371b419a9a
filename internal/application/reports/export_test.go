package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"testing"

	reportsDomain "aoi-dashboard/internal/domain/reports"

	"github.com/xuri/excelize/v2"
)

func TestExportFileName(t *testing.T) {
	cases := []struct {
		q    Query
		want string
	}{
		{Query{}, "3rdAoiData_(Security C)"},
		{Query{DrawingNo: "D1"}, "D1_3rdAoiData_(Security C)"},
		{Query{MachineID: "M1"}, "M1_3rdAoiData_(Security C)"},
		{Query{DrawingNo: "D1", MachineID: "M1"}, "D1_M1_3rdAoiData_(Security C)"},
	}
	for _, tc := range cases {
		if got := ExportFileName(tc.q); got != tc.want {
			t.Errorf("ExportFileName(%+v) = %q, want %q", tc.q, got, tc.want)
		}
	}
}

func TestUseCase_ExportRows(t *testing.T) {
	uc := newTestUseCase(sampleRecords(), 5)
	rows, err := uc.ExportRows(context.Background(), Query{MachineID: "M2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Timestamp != "2024-08-10 10:00:00" {
		t.Errorf("rows must be sorted by time, got %s first", rows[0].Timestamp)
	}
	if rows[0].WeekNumber != "W32" || rows[1].WeekNumber != "W34" {
		t.Errorf("unexpected week numbers %s %s", rows[0].WeekNumber, rows[1].WeekNumber)
	}
	if rows[0].StripNo != 3 || rows[0].FailPpm != 700 {
		t.Errorf("unexpected numeric columns %+v", rows[0])
	}
	if math.Abs(rows[0].PassRate-0.0097) > 1e-12 {
		t.Errorf("pass rate must be divided by 100, got %v", rows[0].PassRate)
	}
}

func TestExportRowsEmptyRatesAreZero(t *testing.T) {
	uc := newTestUseCase(sampleRecords()[:1], 5)
	recs := sampleRecords()[:1]
	recs[0].PassRate = ""
	uc.reader = fakeReader{records: recs}

	rows, err := uc.ExportRows(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].PassRate != 0 {
		t.Errorf("empty pass rate must export as 0, got %v", rows[0].PassRate)
	}
}

func sampleExportRows() []reportsDomain.ExportRow {
	return []reportsDomain.ExportRow{
		{Timestamp: "2024-08-10 10:00:00", LotNo: "L0", StripNo: 3, FailPpm: 700, PassRate: 0.0097, OverkillRate: 0.0003, MachineID: "M2", DeviceID: "DEV2", DrawingNo: "D2", WeekNumber: "W32"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleExportRows()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if records[0][0] != "日期" || records[0][9] != "週別" {
		t.Errorf("unexpected header %v", records[0])
	}
	want := []string{"2024-08-10 10:00:00", "L0", "3", "700", "0.0097", "0.0003", "M2", "DEV2", "D2", "W32"}
	for i, v := range want {
		if records[1][i] != v {
			t.Errorf("column %d: got %q want %q", i, records[1][i], v)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleExportRows()); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("invalid xlsx: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"A1": "日期",
		"H1": "Device Id",
		"A2": "2024-08-10 10:00:00",
		"B2": "L0",
		"J2": "W32",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue("Sheet1", cell)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s: got %q want %q", cell, got, want)
		}
	}
}
