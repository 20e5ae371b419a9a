package inspection

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Period 列舉統計週期。
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod 將字串轉為 Period，空字串視為 daily。
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	}
	return "", fmt.Errorf("unsupported period %q", s)
}

// Record 為 AOI 後端回傳的單筆檢測紀錄，數值欄位維持字串原貌。
type Record struct {
	Timestamp      string `json:"Ao_Time_Start"`
	DrawingNo      string `json:"Drawing_No"`
	MachineID      string `json:"Machine_Id"`
	DeviceID       string `json:"Device_Id,omitempty"`
	LotNo          string `json:"Lot_No,omitempty"`
	FailPpm        string `json:"Fail_Ppm"`
	PassRate       string `json:"Pass_Rate"`
	OverkillRate   string `json:"Overkill_Rate"`
	AoiDefectCount string `json:"Aoi_Defect"`
	FailCount      string `json:"Fail_Count"`
	PassCount      string `json:"Pass_Count"`
	StripNo        string `json:"Strip_No"`

	// WeekNumber 只由週區間篩選填入。
	WeekNumber string `json:"weekNumber,omitempty"`
}

// Day 回傳時間字串的日期部分（前 10 碼）。
func (r Record) Day() string {
	return DayOf(r.Timestamp)
}

// DayOf 取前 10 碼，長度不足則回傳原字串。
func DayOf(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

// ValidationError 收集多個驗證失敗原因。
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("inspection record validation failed: %v", e.Reasons)
}

// Validate 只檢查時間；圖號與機台可為空（歸入空字串分組），數值欄位允許為空，交由聚合傳遞 NaN。
func (r Record) Validate(loc *time.Location) error {
	var reasons []string
	if _, ok := ParseTimestamp(r.Timestamp, loc); !ok {
		reasons = append(reasons, "Ao_Time_Start is not a valid timestamp")
	}
	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseTimestamp 解析紀錄時間；無時區的格式以 loc 解讀。ok 為 false 時相當於 Invalid Date。
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber 依 parseFloat 規則讀取字串開頭的數值；無法解析時回傳 NaN。
func ParseNumber(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f\u00a0\ufeff")
	if s == "" {
		return math.NaN()
	}

	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			expDigits++
		}
		if expDigits > 0 {
			end = j
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		// 超出範圍時 ParseFloat 仍回傳 ±Inf
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v
		}
		return math.NaN()
	}
	return v
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
