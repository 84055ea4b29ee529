package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/openwitness/witness-backend/internal/app"
	"github.com/openwitness/witness-backend/internal/config"
	"github.com/openwitness/witness-backend/internal/interface/http/handler"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/scheduler"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logLevel := cfg.LogLevel
	if cfg.Env == "development" {
		logLevel = "debug"
	}
	logger.Init(logLevel, cfg.Env)
	mainLog := logger.Component("main")

	store, dbConn, err := app.OpenStore(ctx, cfg)
	if err != nil {
		mainLog.WithError(err).Fatal("Не удалось открыть хранилище")
	}
	defer safeClose(dbConn)

	// nil *sqlx.DB в интерфейсе не равен nil, поэтому передаём явно.
	var pinger handler.Pinger
	if dbConn != nil {
		pinger = dbConn
	}

	application, err := app.New(ctx, cfg, store, pinger)
	if err != nil {
		mainLog.WithError(err).Fatal("Не удалось собрать приложение")
	}
	if err := application.Start(ctx); err != nil {
		mainLog.WithError(err).Fatal("Не удалось запустить фоновые задачи")
	}
	defer application.Stop()

	if cfg.SeedSampleData {
		if _, err := application.Seeder.SeedData(ctx); err != nil {
			mainLog.WithError(err).Warn("Демонстрационные данные не загружены")
		}
	}

	if cfg.IngestionEnabled && application.Ingestion != nil {
		go func() {
			err := application.Scheduler.Trigger(app.JobIngestion)
			switch {
			case errors.Is(err, scheduler.ErrJobRunning):
				mainLog.Info("Импорт уже выполняется по расписанию")
			case err != nil:
				mainLog.WithError(err).Warn("Первичный импорт не выполнен")
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			mainLog.WithError(err).Error("Ошибка остановки http сервера")
		}
	}()

	mainLog.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
	}).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		mainLog.WithError(err).Fatal("Сервер завершился с ошибкой")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка закрытия соединения с базой")
	}
}
