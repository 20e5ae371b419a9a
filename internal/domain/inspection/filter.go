package inspection

// Filter 以圖號、機台、Device 篩選紀錄；空字串代表不限制。
type Filter struct {
	DrawingNo string
	MachineID string
	DeviceID  string
}

// Match 判斷紀錄是否符合條件。
func (f Filter) Match(r Record) bool {
	if f.DrawingNo != "" && r.DrawingNo != f.DrawingNo {
		return false
	}
	if f.MachineID != "" && r.MachineID != f.MachineID {
		return false
	}
	if f.DeviceID != "" && r.DeviceID != f.DeviceID {
		return false
	}
	return true
}

// Apply 回傳符合條件的新切片。
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Identity 為紀錄的唯一鍵：機台 + 開始時間 + 條號。
func (r Record) Identity() string {
	return r.MachineID + "|" + r.Timestamp + "|" + r.StripNo
}
