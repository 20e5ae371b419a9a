package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"aoi-dashboard/internal"
	"aoi-dashboard/internal/application/aggregation"
	"aoi-dashboard/internal/application/alert"
	"aoi-dashboard/internal/application/dataingestion"
	"aoi-dashboard/internal/application/reports"
	"aoi-dashboard/internal/infra/memory"
	"aoi-dashboard/internal/infrastructure/config"
	"aoi-dashboard/internal/infrastructure/external/aoisource"
	"aoi-dashboard/internal/infrastructure/metrics"
	"aoi-dashboard/internal/infrastructure/notify"
	"aoi-dashboard/internal/infrastructure/persistence/postgres"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const countTimeout = 2 * time.Second

// RecordStore 為伺服器使用的紀錄儲存：同步寫入、報表讀取與計數。
type RecordStore interface {
	dataingestion.RecordRepository
	CountRecords(ctx context.Context) (int, error)
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	router   *gin.Engine
	cfg      config.Config
	db       *sql.DB
	store    *memory.Store
	repo     RecordStore
	source   dataingestion.RecordSource
	engine   *aggregation.Engine
	reports  *reports.UseCase
	syncUC   *dataingestion.SyncUseCase
	alerts   *alert.Engine
	notifier alert.Notifier
	metrics  *metrics.Metrics
}

// Option 調整 Server 依賴，主要供測試注入。
type Option func(*Server)

// WithSource 以自訂資料來源取代 HTTP 後端客戶端。
func WithSource(src dataingestion.RecordSource) Option {
	return func(s *Server) { s.source = src }
}

// WithEngine 注入聚合引擎（例如固定時鐘）。
func WithEngine(e *aggregation.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// WithNotifier 以自訂通知通道取代 Telegram。
func WithNotifier(n alert.Notifier) Option {
	return func(s *Server) { s.notifier = n }
}

// NewServer 建立 API 伺服器；db 為 nil 時使用記憶體儲存。
func NewServer(cfg config.Config, db *sql.DB, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		store:   memory.NewStore(),
		metrics: metrics.New(),
	}
	if db != nil {
		s.repo = postgres.NewRecordRepo(db)
	} else {
		s.repo = s.store
	}
	if cfg.Source.Endpoint != "" {
		s.source = aoisource.NewClient(cfg.Source.Endpoint, cfg.Source.Action, cfg.Source.Timeout)
	}
	tg := cfg.Notifier.Telegram
	if tg.Enabled && tg.Token != "" && tg.ChatID != 0 {
		s.notifier = notify.NewTelegramClient(tg.Token, tg.ChatID, tg.Prefix)
	}
	for _, opt := range opts {
		opt(s)
	}
	if internal.IsNil(s.source) {
		s.source = nil
	}
	if internal.IsNil(s.notifier) {
		s.notifier = nil
	}
	if s.engine == nil {
		s.engine = NewEngine(cfg.Dashboard)
	}

	loc := s.engine.Location()
	s.syncUC = dataingestion.NewSyncUseCase(s.source, s.repo, loc).WithObserver(s.metrics)
	s.reports = reports.NewUseCase(s.repo, s.engine, reports.Windows{
		Days:   cfg.Dashboard.TrailingDays,
		Weeks:  cfg.Dashboard.TrailingWeeks,
		Months: cfg.Dashboard.TrailingMonths,
	}, cfg.Dashboard.OverkillThreshold)
	s.alerts = alert.NewEngine(s.reports, s.notifier).WithCounter(s.metrics)
	s.metrics.RegisterRecordCount(func() (int, error) {
		ctx, cancel := context.WithTimeout(context.Background(), countTimeout)
		defer cancel()
		return s.repo.CountRecords(ctx)
	})

	s.router = gin.New()
	s.registerRoutes()
	return s
}

// NewEngine 依儀表板設定建立聚合引擎。
func NewEngine(cfg config.DashboardConfig) *aggregation.Engine {
	opts := []aggregation.Option{aggregation.WithLocation(cfg.Location())}
	if cfg.NumericWeekOrder {
		opts = append(opts, aggregation.WithWeekOrder(aggregation.WeekOrderNumeric))
	}
	if cfg.NaNAsZero {
		opts = append(opts, aggregation.WithNaNPolicy(aggregation.NaNAsZero))
	}
	return aggregation.NewEngine(opts...)
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store 主要用於測試注入初始資料。
func (s *Server) Store() *memory.Store {
	return s.store
}

// Reports 回傳報表用例，供 CLI 共用。
func (s *Server) Reports() *reports.UseCase {
	return s.reports
}

// Sync 回傳同步用例。
func (s *Server) Sync() *dataingestion.SyncUseCase {
	return s.syncUC
}

// Alerts 回傳派報引擎。
func (s *Server) Alerts() *alert.Engine {
	return s.alerts
}

// StartJobs 啟動背景同步與派報排程，直到 ctx 結束。
func (s *Server) StartJobs(ctx context.Context) {
	if s.source != nil {
		go s.syncUC.Run(ctx, s.cfg.Source.SyncInterval)
	} else {
		logrus.Warn("aoi source endpoint not configured; background sync disabled")
	}
	if s.notifier != nil {
		go s.alerts.Start(ctx, s.cfg.Notifier.Telegram.Interval)
	}
}
