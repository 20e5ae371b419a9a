package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API、資料來源與儀表板的執行設定。
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	DB        DBConfig        `yaml:"db"`
	Source    SourceConfig    `yaml:"source"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

// SourceConfig 描述 AOI 後端（action-based JSON RPC）。
type SourceConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Action       string        `yaml:"action"`
	Timeout      time.Duration `yaml:"timeout"`
	SyncInterval time.Duration `yaml:"sync_interval"`
}

type DashboardConfig struct {
	Timezone          string  `yaml:"timezone"`
	TrailingDays      int     `yaml:"trailing_days"`
	TrailingWeeks     int     `yaml:"trailing_weeks"`
	TrailingMonths    int     `yaml:"trailing_months"`
	OverkillThreshold float64 `yaml:"overkill_threshold"`
	NumericWeekOrder  bool    `yaml:"numeric_week_order"`
	NaNAsZero         bool    `yaml:"nan_as_zero"`
}

type NotifierConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Token    string        `yaml:"token"`
	ChatID   int64         `yaml:"chat_id"`
	Interval time.Duration `yaml:"interval"`
	Prefix   string        `yaml:"prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Location 解析儀表板時區，失敗時退回 time.Local。
func (c DashboardConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		if c.Timezone == "Asia/Taipei" {
			return time.FixedZone("Asia/Taipei", 8*3600)
		}
		return time.Local
	}
	return loc
}

// LoadFromFile 從 YAML 組態檔載入設定，檔案不存在時僅使用預設值與環境變數。
func LoadFromFile(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Source.Action == "" {
		cfg.Source.Action = "get3oaoidata"
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 30 * time.Second
	}
	if cfg.Source.SyncInterval == 0 {
		cfg.Source.SyncInterval = 10 * time.Minute
	}
	if cfg.Dashboard.Timezone == "" {
		cfg.Dashboard.Timezone = "Asia/Taipei"
	}
	if cfg.Dashboard.TrailingDays == 0 {
		cfg.Dashboard.TrailingDays = 7
	}
	if cfg.Dashboard.TrailingWeeks == 0 {
		cfg.Dashboard.TrailingWeeks = 5
	}
	if cfg.Dashboard.TrailingMonths == 0 {
		cfg.Dashboard.TrailingMonths = 3
	}
	if cfg.Dashboard.OverkillThreshold == 0 {
		cfg.Dashboard.OverkillThreshold = 5
	}
	if cfg.Notifier.Telegram.Interval == 0 {
		cfg.Notifier.Telegram.Interval = 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AOI_ENDPOINT"); val != "" {
		cfg.Source.Endpoint = val
	}
	if val := os.Getenv("AOI_SYNC_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Source.SyncInterval = d
		}
	}
	if val := os.Getenv("DASHBOARD_TZ"); val != "" {
		cfg.Dashboard.Timezone = val
	}
	if val := os.Getenv("OVERKILL_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Dashboard.OverkillThreshold = f
		}
	}
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Notifier.Telegram.Token = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Notifier.Telegram.ChatID = id
		}
	}
	if val := os.Getenv("TELEGRAM_ENABLED"); val != "" {
		cfg.Notifier.Telegram.Enabled = (val == "true")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	return cfg
}
