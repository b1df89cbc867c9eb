package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cyvadra/tv-relay/internal/config"
	"github.com/Cyvadra/tv-relay/internal/database"
	"github.com/Cyvadra/tv-relay/internal/handlers"
	"github.com/Cyvadra/tv-relay/internal/routes"
	"github.com/Cyvadra/tv-relay/internal/services"
	"github.com/Cyvadra/tv-relay/internal/telegram"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// A missing .env is fine, the environment may already be populated
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env")
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	setupLogging(cfg.Log)

	if len(cfg.Telegram.AdminIDs) == 0 {
		log.Warn("no admin ids configured, every command will be rejected")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("service exited with error")
	}
	log.Info("service stopped")
}

func setupLogging(cfg config.LogConfig) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithError(err).Warnf("unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// run wires the services and blocks until ctx is cancelled or a component fails
func run(ctx context.Context, cfg *config.Config) error {
	store := config.NewSettingsStore(cfg.Relay.SettingsFile)
	if _, err := store.Load(); err != nil {
		// Every request reloads the file, so a fix on disk is picked up without a restart.
		log.WithError(err).Warn("settings file is not readable yet")
	}

	gate := services.NewAdminGate(cfg.Telegram.AdminIDs)
	router := services.NewCommandRouter(store)

	bot, err := telegram.NewBot(cfg.Telegram, gate.Guard(router.Dispatch), router.Commands())
	if err != nil {
		return err
	}

	sender := services.NewRoutingSender(bot, services.NewWebhookSender(cfg.Telegram.SendTimeout))
	relay := services.NewRelayService(store, services.NewForwardService(sender), services.RelayOptions{
		RawDebug:        cfg.Relay.RawDebug,
		RawPreviewLimit: cfg.Relay.RawPreviewLimit,
	})

	db, alertService := setupHistory(cfg.Database)
	if db != nil {
		defer func() {
			if err := database.Close(db); err != nil {
				log.WithError(err).Warn("failed to close database")
			}
		}()
		relay.SetRecorder(alertService)
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.NewEngine()
	routes.SetupRoutes(r, handlers.NewWebhookHandler(relay), handlers.NewAlertHandler(alertService))

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		bot.Start()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		bot.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// setupHistory opens the alert history database. History is optional: failures only disable it.
func setupHistory(cfg config.DatabaseConfig) (*gorm.DB, *services.AlertService) {
	if cfg.DSN == "" {
		log.Info("alert history disabled")
		return nil, nil
	}

	db, err := database.InitDatabase(cfg.DSN)
	if err != nil {
		log.WithError(err).Warn("alert history disabled")
		return nil, nil
	}
	return db, services.NewAlertService(db)
}
