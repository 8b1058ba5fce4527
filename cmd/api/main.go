package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/hgpartners/ledger-analytics/internal/cache"
	"github.com/hgpartners/ledger-analytics/internal/config"
	"github.com/hgpartners/ledger-analytics/internal/handler"
	"github.com/hgpartners/ledger-analytics/internal/middleware"
	"github.com/hgpartners/ledger-analytics/internal/notify"
	"github.com/hgpartners/ledger-analytics/internal/quality"
	"github.com/hgpartners/ledger-analytics/internal/repository"
	"github.com/hgpartners/ledger-analytics/internal/service"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	resultCache := cache.NewMemory(cfg.CacheSweepInterval)
	defer resultCache.Close()
	recorder := quality.NewRecorder(logger)
	svc := service.NewService(repo, resultCache, recorder, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Data-quality digest on a schedule
	sender := notify.NewSender(cfg, logger)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.DigestSchedule, func() {
		if err := sender.SendDataQualityDigest(recorder.Flush()); err != nil {
			logger.Errorf("Digest delivery failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule digest: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestIDMiddleware(logger))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Ping(r.Context()); err != nil {
			http.Error(w, fmt.Sprintf("Database unreachable: %v", err), http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/api/v1").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/wip/analytics", h.WIPAnalytics).Methods("GET")
	authRouter.HandleFunc("/wip/cache", h.InvalidateWIPCache).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
