package aggregation

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ToFixed 以 Number.prototype.toFixed 的語意輸出固定小數位：依 float64 的實際二進位值四捨五入。
func ToFixed(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', 30, 64))
	if err != nil {
		d = decimal.NewFromFloat(v)
	}
	return d.StringFixed(places)
}

// RoundTo 等同 parseFloat(v.toFixed(places))。
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := strconv.ParseFloat(ToFixed(v, places), 64)
	return f
}
