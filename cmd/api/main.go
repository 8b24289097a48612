package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/audit"
	"voice-receptionist/internal/auth"
	"voice-receptionist/internal/calls"
	"voice-receptionist/internal/config"
	"voice-receptionist/internal/metrics"
	"voice-receptionist/internal/notify"
	"voice-receptionist/internal/reconcile"
	"voice-receptionist/internal/reporting"
	"voice-receptionist/internal/schema"
	"voice-receptionist/pkg/logger"
	"voice-receptionist/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := schema.Apply(rootCtx, db); err != nil {
		log.Error("schema apply failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	validate := validator.New()

	agentRepo := agents.NewPostgresRepo(db)
	callStore := calls.NewPostgresStore(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	var mailer notify.Mailer = notify.LogMailer{Log: log}
	if cfg.Email.APIURL != "" {
		mailer = notify.NewHTTPMailer(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.From)
	} else {
		log.Warn("EMAIL_API_URL not set, booking notifications will only be logged")
	}
	dispatcher := notify.NewDispatcher(mailer, notify.Config{
		QueueSize: cfg.Notify.QueueSize,
		Workers:   cfg.Notify.Workers,
	}, log, m)

	// Stopped only after the HTTP server has drained, so tool calls finishing
	// during shutdown can still enqueue notices.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()

	reconciler, err := reconcile.NewService(reconcile.Deps{
		Agents:          agentRepo,
		Calls:           callStore,
		Locker:          reconcile.NewRedisLocker(rdb),
		Notifier:        dispatcher,
		Flags:           auditSvc,
		Metrics:         m,
		Validate:        validate,
		DefaultLocation: cfg.Location(),
	})
	if err != nil {
		log.Error("reconciler init failed", "err", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())

	registerRoutes(r, routeDeps{
		cfg:        cfg,
		auth:       authManager,
		db:         db,
		redis:      rdb,
		metrics:    m,
		agents:     agents.NewService(agentRepo, validate),
		resolver:   agents.NewResolver(agentRepo),
		calls:      callStore,
		reconciler: reconciler,
		reports:    reporting.NewService(callStore, agentRepo),
		audit:      auditSvc,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "base_url", cfg.App.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	stopDispatch()
	select {
	case <-dispatchDone:
		log.Info("notification queue drained")
	case <-shutdownCtx.Done():
		log.Warn("notification drain timed out", "pending", dispatcher.Pending())
	}
}
