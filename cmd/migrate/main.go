package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"aoi-dashboard/internal/infrastructure/config"
	"aoi-dashboard/pkg/log"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	migrationsPath := flag.String("dir", "db/migrations", "path to migrations directory")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		logrus.Fatalf("讀取組態失敗: %v", err)
	}
	log.InitLog(cfg.Log.Level)

	if cfg.DB.DSN == "" {
		logrus.Fatal("db.dsn 未設定，無法執行 migration")
	}

	files, err := migrationFiles(*migrationsPath)
	if err != nil {
		logrus.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		logrus.Fatalf("連線資料庫失敗: %v", err)
	}
	defer db.Close()

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			logrus.Fatalf("讀取檔案 %s 失敗: %v", f, err)
		}
		logrus.WithField("file", filepath.Base(f)).Info("執行 migration")
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			logrus.Fatalf("執行 %s 失敗: %v", filepath.Base(f), err)
		}
	}

	fmt.Println("Migration 完成")
}

// migrationFiles 回傳目錄下依檔名排序的 .sql 檔。
func migrationFiles(dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("解析 migrations 路徑失敗: %w", err)
	}
	if _, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("migrations 目錄不存在: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(absDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("讀取 migrations 失敗: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("找不到任何 .sql migration 檔案")
	}
	sort.Strings(files)
	return files, nil
}
