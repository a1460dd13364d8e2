// cmd/intake-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"recruit-intake/internal/api"
	"recruit-intake/internal/common/aws"
	"recruit-intake/internal/common/config"
	"recruit-intake/internal/common/database"
	"recruit-intake/internal/common/logger"
	"recruit-intake/internal/common/observability"
	"recruit-intake/internal/intake"
	"recruit-intake/internal/notify"
	"recruit-intake/internal/provision"
	"recruit-intake/internal/store"
	"recruit-intake/internal/unique"
	"recruit-intake/pkg/registry"
)

const teamsFile = "configs/teams.json"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting intake server",
		zap.String("environment", cfg.App.Environment),
		zap.String("storeDriver", cfg.Database.Driver),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Team registry ---
	teams := registry.Default()
	if _, statErr := os.Stat(teamsFile); statErr == nil {
		teams, err = registry.Load(teamsFile)
		if err != nil {
			zapLog.Fatal("team registry load failed", zap.Error(err))
		}
	}

	// --- Tabular store ---
	var tabStore store.TabularStore
	switch cfg.Database.Driver {
	case "memory":
		tabStore = store.NewMemoryStore()
	default:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres init failed", zap.Error(err))
		}
		defer pg.Close()

		err = retryWithBackoff(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return pg.Ping(pingCtx)
		}, 10, 2*time.Second, zapLog, "postgres connection")
		if err != nil {
			zapLog.Fatal("postgres unreachable", zap.Error(err))
		}

		pgStore := store.NewPostgresStore(pg.GetDB())
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("store schema setup failed", zap.Error(err))
		}
		tabStore = pgStore
	}

	// --- Identifier cache (optional fast path) ---
	var cache *database.RedisClient
	if cfg.Database.Redis.Enabled {
		cache, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer cache.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			zapLog.Warn("redis unreachable, continuing without identifier cache", zap.Error(err))
			cache = nil
		}
		cancel()
	}

	// --- Notifications (both optional) ---
	var mailer *notify.Mailer
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		mailer = notify.NewMailer(sesClient, cfg.Integrations.AWS.SES.FromEmail, log)
	}

	var alerter provision.Alerter
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		alerter = notify.NewAlerter(snsClient, cfg.Integrations.AWS.SNS.AlertTopicARN, log)
	}

	// --- Intake pipeline ---
	provisioner := provision.NewProvisioner(tabStore, teams, alerter, log)
	checker := unique.NewChecker(tabStore, teams, cache, log)
	service := intake.NewService(teams, tabStore, provisioner, checker, log, intake.Options{
		Mailer:               mailer,
		Observability:        obs,
		SerializeSubmissions: cfg.Intake.SerializeSubmissions,
	})

	apiSrv := api.NewAPI(service, log, time.Duration(cfg.Intake.RequestTimeout)*time.Millisecond)
	router := api.NewRouter(apiSrv)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		zapLog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("server shutdown failed", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	zapLog.Info("intake server listening", zap.Int("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zapLog.Fatal("server failed", zap.Error(err))
	}
	<-idleConnsClosed
}
