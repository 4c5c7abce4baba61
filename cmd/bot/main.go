// Package main is the entry point of KuliahBot, a WhatsApp class-schedule
// assistant: it answers /jadwal and /tugas commands, turns sent images into
// stickers, broadcasts a morning schedule digest and warns every chat a few
// minutes before a class starts.
//
// The layout follows Clean Architecture:
// - Domain: schedule document, notification contracts, error taxonomy
// - Infrastructure: persistence, WhatsApp transport, scheduler, services
// - Interface: WhatsApp message router, HTTP status endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/faturroziq/bot-atechh/config"

	// Infrastructure layer
	waclient "github.com/faturroziq/bot-atechh/internal/infrastructure/external/whatsapp"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/persistence/file"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/persistence/memory"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/persistence/postgres"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/persistence/redis"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/scheduler"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/scheduler/jobs"
	"github.com/faturroziq/bot-atechh/internal/infrastructure/service"

	// Domain layer
	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
	"github.com/faturroziq/bot-atechh/internal/domain/notification"

	// Interface layer
	httpserver "github.com/faturroziq/bot-atechh/internal/interface/http"
	wabot "github.com/faturroziq/bot-atechh/internal/interface/whatsapp"
	"github.com/faturroziq/bot-atechh/internal/interface/whatsapp/handler"

	// Packages
	"github.com/faturroziq/bot-atechh/pkg/logger"
	"github.com/faturroziq/bot-atechh/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting KuliahBot",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"store", cfg.Store.Backend,
		"timezone", timeutil.WIB.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SCHEDULE DOCUMENT STORE
	// ─────────────────────────────────────────────────────────────────────────
	var store kuliah.Store

	switch cfg.Store.Backend {
	case config.StorePostgres:
		log.Info("connecting to database...")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()

		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("running database migrations...")
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		store = postgres.NewDocumentStore(conn)

	default:
		log.Info("using file document store", "path", cfg.Store.FilePath)
		store = file.NewStore(cfg.Store.FilePath)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REMINDER LEDGER + CHAT DIRECTORY (Redis optional)
	// ─────────────────────────────────────────────────────────────────────────
	var ledger notification.ReminderLedger = memory.NewReminderLedger()
	var directory notification.ChatDirectory = memory.NewChatDirectory()

	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...", "addr", cfg.Redis.Addr())
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, using in-memory state", "error", err)
		} else {
			defer cache.Close()
			ledger = redis.NewReminderLedger(cache)
			directory = redis.NewChatDirectory(cache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. WHATSAPP CLIENT + SESSION MANAGER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing WhatsApp client...", "session_db", cfg.WhatsApp.SessionDB)

	clientCfg := waclient.DefaultClientConfig(cfg.WhatsApp.SessionDB)
	clientCfg.PairPhone = cfg.WhatsApp.PairPhone
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug

	client, err := waclient.NewClient(clientCfg)
	if err != nil {
		return fmt.Errorf("failed to create WhatsApp client: %w", err)
	}

	session := waclient.NewSessionManager(client, log,
		waclient.WithReconnectPolicy(cfg.WhatsApp.ReconnectMaxAttempts, cfg.WhatsApp.ReconnectMaxDelay),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	broadcast := service.NewBroadcastService(client, directory, log)
	stickers := service.NewStickerService(client, client, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. MESSAGE ROUTER
	// ─────────────────────────────────────────────────────────────────────────
	router := wabot.NewRouter(wabot.RouterConfig{
		Logger: log,
		Debug:  cfg.App.Debug,
	}, broadcast, directory, stickers)

	router.RegisterCommand("jadwal", handler.NewJadwalHandler(store))
	router.RegisterCommand("tugas", handler.NewTugasHandler(store))

	client.SetMessageHandler(router.HandleMessage)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. CRON SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	cron := scheduler.NewCronScheduler(
		scheduler.WithLocation(timeutil.WIB),
		scheduler.WithCronLogger(log),
	)

	digest := jobs.NewMorningDigestJob(store, broadcast, ledger, log)
	if err := cron.AddJob(digest.Name(), cfg.Scheduler.DigestCron, digest); err != nil {
		return fmt.Errorf("failed to schedule morning digest: %w", err)
	}

	alert := jobs.NewClassAlertJob(store, broadcast, ledger, cfg.Scheduler.AlertLeadMinutes, log)
	if err := cron.AddJob(alert.Name(), cfg.Scheduler.AlertCron, alert); err != nil {
		return fmt.Errorf("failed to schedule class alerts: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP STATUS SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port

	httpSrv := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		Health: &healthAdapter{session: session, store: store},
		Logger: logger.Default(),
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 10. START SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting services...")

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("failed to start WhatsApp session: %w", err)
	}

	if err := cron.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	httpErr := httpSrv.StartAsync()

	log.Info("KuliahBot is running",
		"http_address", httpSrv.Address(),
		"digest_cron", cfg.Scheduler.DigestCron,
		"alert_lead_minutes", cfg.Scheduler.AlertLeadMinutes,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-session.Fatal():
		log.Error("whatsapp session is unrecoverable", "error", err)
		runErr = err
	case err := <-httpErr:
		if err != nil {
			log.Error("http server error", "error", err)
			runErr = err
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	cron.Stop()
	session.Close()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		log.Warn("shutdown completed with errors")
		return runErr
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging for the process.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// ══════════════════════════════════════════════════════════════════════════════

// healthAdapter exposes session and store health to the HTTP server.
type healthAdapter struct {
	session *waclient.SessionManager
	store   kuliah.Store
}

// SessionState implements httpserver.HealthChecker.
func (h *healthAdapter) SessionState() string {
	return h.session.State().String()
}

// StoreOK implements httpserver.HealthChecker.
func (h *healthAdapter) StoreOK(ctx context.Context) bool {
	_, err := h.store.Load(ctx)
	return err == nil
}
