package alert

import (
	"context"
	"fmt"
	"time"

	alertDomain "aoi-dashboard/internal/domain/alert"
	reportsDomain "aoi-dashboard/internal/domain/reports"

	"github.com/sirupsen/logrus"
)

// SummaryBuilder 產出昨日摘要。
type SummaryBuilder interface {
	BuildYesterdaySummary(ctx context.Context) (reportsDomain.YesterdaySummary, error)
}

// Notifier 寄送通知。
type Notifier interface {
	Send(ctx context.Context, notification alertDomain.Notification) error
}

// SentCounter 記錄已送出的通知數。
type SentCounter interface {
	AlertSent()
}

// Engine 檢查昨日 overkill，超過門檻時推送派報通知。
type Engine struct {
	summary  SummaryBuilder
	notifier Notifier
	counter  SentCounter
	topN     int
	lastDate string
}

// NewEngine 建立通知引擎。
func NewEngine(summary SummaryBuilder, notifier Notifier) *Engine {
	return &Engine{
		summary:  summary,
		notifier: notifier,
		topN:     10,
	}
}

// WithCounter 設定送出計數器。
func (e *Engine) WithCounter(c SentCounter) *Engine {
	e.counter = c
	return e
}

// Run 執行一次檢查；同一日期只送一次。回傳是否送出通知。
func (e *Engine) Run(ctx context.Context) (bool, error) {
	summary, err := e.summary.BuildYesterdaySummary(ctx)
	if err != nil {
		return false, fmt.Errorf("build summary: %w", err)
	}

	exceeded := summary.ExceededRows()
	if len(exceeded) == 0 && !summary.NeedsDispatch {
		return false, nil
	}
	if summary.Date == e.lastDate {
		return false, nil
	}

	n := alertDomain.Notification{
		Date:          summary.Date,
		Threshold:     summary.Threshold,
		NeedsDispatch: summary.NeedsDispatch,
		Rows:          exceeded,
	}
	if len(n.Rows) > e.topN {
		n.Omitted = len(n.Rows) - e.topN
		n.Rows = n.Rows[:e.topN]
	}

	if e.notifier == nil {
		return false, fmt.Errorf("notifier not configured")
	}
	if err := e.notifier.Send(ctx, n); err != nil {
		return false, fmt.Errorf("send notification: %w", err)
	}
	e.lastDate = summary.Date
	if e.counter != nil {
		e.counter.AlertSent()
	}
	logrus.WithFields(logrus.Fields{
		"date":     summary.Date,
		"exceeded": len(exceeded),
	}).Info("overkill alert sent")
	return true, nil
}

// Start 每 interval 檢查一次，直到 ctx 結束。
func (e *Engine) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.Run(ctx); err != nil {
				logrus.WithError(err).Warn("overkill alert failed")
			}
		case <-ctx.Done():
			return
		}
	}
}
