package aoisource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"aoi-dashboard/internal/domain/inspection"
)

// ErrUpstream 表示後端回傳 success=false。
var ErrUpstream = errors.New("aoi backend error")

// Client 呼叫 AOI 後端的 action-based JSON API：POST {"action": ..., ...params}。
type Client struct {
	endpoint   string
	action     string
	httpClient *http.Client
}

// NewClient 建立後端客戶端；action 為取得全部紀錄所用的動作名稱。
func NewClient(endpoint, action string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		action:     action,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Results json.RawMessage `json:"results"`
	Msg     string          `json:"msg"`
}

// Call 送出單一 action，成功時將 results 解碼至 out。
func (c *Client) Call(ctx context.Context, action string, params map[string]interface{}, out interface{}) error {
	if c == nil || c.endpoint == "" {
		return fmt.Errorf("aoi source endpoint not configured")
	}
	payload := map[string]interface{}{"action": action}
	for k, v := range params {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode aoi response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", ErrUpstream, env.Msg)
	}
	if out == nil || len(env.Results) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Results, out); err != nil {
		return fmt.Errorf("decode aoi results: %w", err)
	}
	return nil
}

// FetchAll 取得後端全部檢測紀錄。
func (c *Client) FetchAll(ctx context.Context) ([]inspection.Record, error) {
	var rows []wireRecord
	if err := c.Call(ctx, c.action, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]inspection.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// FetchDetails 取得單一 Device 在指定區間的明細（後端 getDetailsByDate）。
func (c *Client) FetchDetails(ctx context.Context, deviceID, date string, period inspection.Period) ([]inspection.Record, error) {
	var rows []wireRecord
	params := map[string]interface{}{
		"deviceId":   deviceID,
		"date":       date,
		"periodType": string(period),
	}
	if err := c.Call(ctx, "getDetailsByDate", params, &rows); err != nil {
		return nil, err
	}
	out := make([]inspection.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// flexString 接受字串、數字或 null。
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("unsupported value %s", string(b))
	}
	*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

type wireRecord struct {
	Timestamp      flexString `json:"Ao_Time_Start"`
	DrawingNo      flexString `json:"Drawing_No"`
	MachineID      flexString `json:"Machine_Id"`
	DeviceID       flexString `json:"Device_Id"`
	LotNo          flexString `json:"Lot_No"`
	FailPpm        flexString `json:"Fail_Ppm"`
	PassRate       flexString `json:"Pass_Rate"`
	OverkillRate   flexString `json:"Overkill_Rate"`
	AoiDefectCount flexString `json:"Aoi_Defect"`
	FailCount      flexString `json:"Fail_Count"`
	PassCount      flexString `json:"Pass_Count"`
	StripNo        flexString `json:"Strip_No"`
}

func (w wireRecord) record() inspection.Record {
	return inspection.Record{
		Timestamp:      string(w.Timestamp),
		DrawingNo:      string(w.DrawingNo),
		MachineID:      string(w.MachineID),
		DeviceID:       string(w.DeviceID),
		LotNo:          string(w.LotNo),
		FailPpm:        string(w.FailPpm),
		PassRate:       string(w.PassRate),
		OverkillRate:   string(w.OverkillRate),
		AoiDefectCount: string(w.AoiDefectCount),
		FailCount:      string(w.FailCount),
		PassCount:      string(w.PassCount),
		StripNo:        string(w.StripNo),
	}
}
