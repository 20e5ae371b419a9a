package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"aoi-dashboard/internal/infrastructure/config"
	"aoi-dashboard/internal/infrastructure/db"
	httpapi "aoi-dashboard/internal/interface/http"
	"aoi-dashboard/pkg/log"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "aoi-dashboard",
	Short: "AOI manufacturing quality dashboard",
	Long:  `Aggregates AOI inspection records into daily, weekly and monthly quality metrics.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error, fatal); overrides config")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to config file")

	rootCmd.AddCommand(serveCommand)
	rootCmd.AddCommand(exportCommand)
	rootCmd.AddCommand(summaryCommand)
}

// loadConfig 讀取組態並初始化 logrus；--log-level 優先於組態。
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return config.Config{}, err
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log.InitLog(level)
	return cfg, nil
}

// connectDB 連線失敗時退回記憶體儲存。
func connectDB(cfg config.Config) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, cfg.DB)
	switch {
	case err != nil:
		logrus.Warnf("database connection failed, falling back to in-memory store: %v", err)
		return nil
	case pool == nil:
		logrus.Info("no DB_DSN provided; running with in-memory store only")
	}
	return pool
}

// bootstrap 建立離線指令使用的伺服器依賴；記憶體模式下先向後端同步一次。
func bootstrap(ctx context.Context) (*httpapi.Server, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	pool := connectDB(cfg)
	cleanup := func() {
		if pool != nil {
			pool.Close()
		}
	}
	srv := httpapi.NewServer(cfg, pool)
	if pool == nil {
		if _, err := srv.Sync().Sync(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return srv, cleanup, nil
}
