package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/permcache/pkg/api"
	"github.com/platinummonkey/permcache/pkg/config"
	"github.com/platinummonkey/permcache/pkg/observability"
	"github.com/platinummonkey/permcache/pkg/rbac"
	"github.com/platinummonkey/permcache/pkg/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("permcached exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	if err := store.RunMigrations(ctx, db); err != nil {
		return err
	}
	logger.Info("migrations applied")

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	s := store.NewStore(db)
	manager := rbac.NewManager(db, rbac.Config{CacheTTL: cfg.Cache.TTL}, logger, metrics)
	manager.RegisterHooks(s)

	router := mux.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(api.LoggingMiddleware(logger))
	if cfg.Observability.MetricsEnabled {
		router.Use(api.MetricsMiddleware(metrics))
		router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	api.NewHandlers(s, manager, logger).RegisterRoutes(router)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var sched *cron.Cron
	if cfg.Cache.IndexSweepSchedule != "" {
		sched = cron.New()
		_, err := sched.AddFunc(cfg.Cache.IndexSweepSchedule, func() {
			removed := manager.SweepIndex()
			logger.WithField("removed", removed).Info("dependency index sweep complete")
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", server.Addr).Info("permcached listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
