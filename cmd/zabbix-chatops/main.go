package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	_ "time/tzdata"

	"zabbix-chatops/internal/bot"
	"zabbix-chatops/internal/bot/mock"
	"zabbix-chatops/internal/catalog"
	"zabbix-chatops/internal/config"
	"zabbix-chatops/internal/formatter"
	"zabbix-chatops/internal/renderer/chart"
	"zabbix-chatops/internal/renderer/script"
	"zabbix-chatops/internal/server"
	"zabbix-chatops/internal/service"
	storage_gorm "zabbix-chatops/internal/storage/gorm"
	"zabbix-chatops/internal/storage/inmemory"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// transport is what the gateway and the status endpoint need from the chat side.
type transport interface {
	service.Sender
	server.StatusProvider
}

func main() {
	configPath := flag.String("config", "config.json", "Path to the configuration file")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("Invalid log level %q, using info", cfg.Log.Level)
	}
	log := logrus.WithField("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	alertCatalog, err := catalog.Load(cfg.Alerts.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load alert catalog: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	// --- Audit log ---
	auditRepo, err := openAuditRepository(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize audit log: %v", err)
	}

	// --- Renderer ---
	if err := os.MkdirAll(cfg.Renderer.GraphsDir, 0o755); err != nil {
		log.Fatalf("Failed to create graphs directory: %v", err)
	}
	var renderer service.Renderer
	switch cfg.Renderer.Mode {
	case config.RendererChart:
		renderer = chart.NewRenderer()
	case config.RendererScript:
		renderer = script.NewRenderer(cfg.Renderer.Interpreter, cfg.Renderer.ScriptPath, cfg.Renderer.ResolutionScriptPath)
	default:
		log.Info("Chart rendering disabled, notifications will be text only.")
	}

	// --- Messaging transport ---
	var (
		sender      transport
		telegramBot *bot.Bot
	)
	if cfg.Telegram.UseMock || cfg.Telegram.BotToken == "" {
		log.Warn("Telegram bot token is not set or mock requested. Outbound messages will only be logged.")
		sender = mock.NewSenderMock(logrus.WithField("component", "sender"))
	} else {
		telegramBot, err = bot.NewBot(bot.Settings{
			Token:          cfg.Telegram.BotToken,
			AllowedChatIDs: cfg.Telegram.AllowedChatIDs,
			URL:            cfg.Telegram.APIURL,
			PollTimeout:    cfg.PollTimeout(),
		}, logrus.WithField("component", "bot"))
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		sender = telegramBot
	}

	// --- Core ---
	f := formatter.New(loc)
	store := service.NewAlertStore()
	interpreter := service.NewInterpreter(store, f, cfg.Alerts.HistoryLimit)
	gateway := service.NewGateway(store, interpreter, f, sender, renderer, auditRepo, service.GatewayConfig{
		GraphsDir:     cfg.Renderer.GraphsDir,
		RenderTimeout: cfg.RenderTimeout(),
	}, logrus.WithField("component", "gateway"))

	var wg sync.WaitGroup

	// --- Audit retention job ---
	wg.Add(1)
	go func() {
		defer wg.Done()
		service.RunAuditCleanup(ctx, auditRepo, cfg.AuditRetention(), cfg.AuditCleanupInterval(), logrus.WithField("component", "audit"))
	}()

	// --- Telegram bot ---
	if telegramBot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			telegramBot.Start(gateway)
		}()
		go func() {
			<-ctx.Done()
			telegramBot.Stop()
		}()
	}

	// --- HTTP server ---
	router := server.NewRouter(server.Deps{
		Gateway:        gateway,
		Catalog:        alertCatalog,
		Status:         sender,
		Audit:          auditRepo,
		GraphsDir:      cfg.Renderer.GraphsDir,
		WebhookToken:   cfg.Server.WebhookToken,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logrus.WithField("component", "http"),
	})
	log.Info("Application started. Press Ctrl+C to exit.")
	if err := server.Start(ctx, server.Addr(cfg.Server.Port), router, cfg.ShutdownTimeout(), logrus.WithField("component", "http")); err != nil {
		log.Errorf("HTTP server stopped: %v", err)
		stop()
	}

	wg.Wait()
	gateway.Close()
	log.Info("Shutdown complete.")
}

func openAuditRepository(cfg *config.Config, log *logrus.Entry) (service.AuditRepository, error) {
	if cfg.DB.DSN == "" {
		log.Info("No database configured, audit log kept in memory.")
		return inmemory.NewAuditRepository(), nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.DB.MigrationsPath, "sqlite3", driver)
	if err != nil {
		return nil, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, err
	}
	log.Info("Database migrations applied successfully.")

	return storage_gorm.NewGormAuditRepository(db)
}
