package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "aoi-dashboard/internal/interface/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func runServe() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("load config failed: %v", err)
	}
	logrus.WithField("addr", cfg.HTTP.Addr).Info("configuration loaded")

	pool := connectDB(cfg)
	if pool != nil {
		defer pool.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer := httpapi.NewServer(cfg, pool)
	apiServer.StartJobs(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("starting HTTP server on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server stopped: %v", err)
		}
	}()

	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
	<-termChan

	logrus.Info("server is shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("shutdown failed: %v", err)
	}
}
