package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/api"
	"github.com/jgirmay/radlearn/internal/assistant"
	"github.com/jgirmay/radlearn/internal/common/health"
	"github.com/jgirmay/radlearn/internal/learner/services"
	"github.com/jgirmay/radlearn/internal/metrics"
	"github.com/jgirmay/radlearn/internal/ops"
	"github.com/jgirmay/radlearn/internal/quiz"
	"github.com/jgirmay/radlearn/internal/storage"
	"github.com/jgirmay/radlearn/pkg/config"
	"github.com/jgirmay/radlearn/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	logConfiguration(cfg, zlog)

	if cfg.Storage.Backend == "gorm" && cfg.Database.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return err
		}
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := storage.Open(startCtx, storage.Options{
		Backend: cfg.Storage.Backend,
		DBType:  cfg.Database.Type,
		DSN:     cfg.Database.DSN,
		Redis: storage.RedisOptions{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		},
	})
	cancel()
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Auth.AdminAccessCode == "" {
		zlog.Warn("ADMIN_ACCESS_CODE is empty; admin logins are disabled")
	}

	bank, err := quiz.Default()
	if err != nil {
		return err
	}

	m := metrics.New()
	auth := services.NewAuthService(services.AuthConfig{
		AdminAccessCode:   cfg.Auth.AdminAccessCode,
		Delay:             cfg.Auth.Delay,
		AdminSessionTTL:   cfg.Auth.AdminSessionTTL,
		DefaultSessionTTL: cfg.Auth.DefaultSessionTTL,
	}, logger.Named(zlog, "auth"), m, nil)

	if cfg.Server.Env == "production" || cfg.Server.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Store:    store,
		Auth:     auth,
		Progress: services.NewProgressService(logger.Named(zlog, "progress"), m, nil),
		Quizzes:  bank,
		Tutor:    assistant.NewTutor(assistant.Offline{}, assistant.Offline{}, logger.Named(zlog, "assistant"), m),
		Metrics:  m,
		Logger:   logger.Named(zlog, "http"),
		Version:  version,
	})

	servers := []*http.Server{{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
	if addr := cfg.OpsAddress(); addr != "" {
		servers = append(servers, &http.Server{
			Addr:              addr,
			Handler:           ops.NewRouter(m, health.NewHealthChecker(store, version)),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			zlog.Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		zlog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		zlog.Error("listener failed", zap.Error(serveErr))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("server shutdown error", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
	zlog.Info("graceful shutdown complete")
	return serveErr
}

func logConfiguration(cfg *config.Config, zlog *zap.Logger) {
	fields := []zap.Field{
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Address()),
		zap.String("ops_addr", cfg.OpsAddress()),
		zap.String("storage", cfg.Storage.Backend),
		zap.Duration("auth_delay", cfg.Auth.Delay),
		zap.Duration("admin_session_ttl", cfg.Auth.AdminSessionTTL),
		zap.Duration("session_ttl", cfg.Auth.DefaultSessionTTL),
	}
	switch cfg.Storage.Backend {
	case "gorm":
		fields = append(fields, zap.String("db_type", cfg.Database.Type), zap.String("dsn", maskDSN(cfg.Database.DSN)))
	case "redis":
		fields = append(fields, zap.String("redis_addr", cfg.Storage.RedisAddr), zap.Int("redis_db", cfg.Storage.RedisDB))
	}
	zlog.Info("configuration loaded", fields...)
}

// maskDSN keeps only the ends of a connection string.
func maskDSN(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:10] + "..." + dsn[len(dsn)-10:]
	}
	return "***"
}
