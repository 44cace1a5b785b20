// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/eventdesk/internal/auth"
	"github.com/olegiv/eventdesk/internal/config"
	"github.com/olegiv/eventdesk/internal/logging"
	"github.com/olegiv/eventdesk/internal/mail"
	"github.com/olegiv/eventdesk/internal/middleware"
	"github.com/olegiv/eventdesk/internal/render"
	"github.com/olegiv/eventdesk/internal/scheduler"
	"github.com/olegiv/eventdesk/internal/service"
	"github.com/olegiv/eventdesk/internal/session"
	"github.com/olegiv/eventdesk/internal/store"
	"github.com/olegiv/eventdesk/internal/version"
	"github.com/olegiv/eventdesk/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// redisKeyPrefix namespaces login attempt counters in a shared Redis.
const redisKeyPrefix = "eventdesk:login:"

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	seedSample := flag.Bool("seed-sample", false, "Replace users, events and registrations with sample data, then exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "eventdesk - event registration desk\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_SECRET_KEY         Session, CSRF and reset token key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_DB_DRIVER          sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_DB_PATH            SQLite database path (default: ./data/eventdesk.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_ADMIN_PASSWORD     Password for the reserved admin account on first start\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_SMTP_HOST          SMTP relay for reset mails (optional, logs links when unset)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVD_REDIS_URL          Redis URL for shared login attempt counters (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo, *seedSample); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info, seedSample bool) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	db, dataDir, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations", "driver", cfg.DBDriver)
	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the activity log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewActivityHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("activity log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.SeedAdmin(ctx, db, store.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	}); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	if seedSample {
		rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
		stats, err := store.SeedSample(ctx, db, rng, time.Now())
		if err != nil {
			return fmt.Errorf("seeding sample data: %w", err)
		}
		slog.Info("sample data inserted",
			"users", stats.Users,
			"events", stats.Events,
			"registrations", stats.Registrations,
		)
		return nil
	}

	sessionManager := session.New(db, cfg.DBDriver, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	var mailer mail.Mailer
	if cfg.SMTPEnabled() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		slog.Info("mail initialized", "backend", "smtp", "host", cfg.SMTPHost)
	} else {
		mailer = mail.NewLogMailer(logger)
		slog.Info("mail initialized", "backend", "log")
	}

	// Login attempt counters: Redis when configured so lockouts hold across instances
	lpConfig := middleware.DefaultLoginProtectionConfig()
	var memoryAttempts *middleware.MemoryAttemptStore
	if cfg.UseRedis() {
		redisAttempts, err := middleware.NewRedisAttemptStore(ctx, cfg.RedisURL, redisKeyPrefix)
		if err != nil {
			return fmt.Errorf("initializing redis attempt store: %w", err)
		}
		defer func() { _ = redisAttempts.Close() }()
		lpConfig.Store = redisAttempts
		slog.Info("login attempt store initialized", "backend", "redis")
	} else {
		memoryAttempts = middleware.NewMemoryAttemptStore()
		lpConfig.Store = memoryAttempts
		slog.Info("login attempt store initialized", "backend", "memory")
	}
	loginProtection := middleware.NewLoginProtection(lpConfig)
	slog.Info("login protection initialized",
		"ip_rate_limit", lpConfig.IPRateLimit,
		"max_failed_attempts", lpConfig.MaxFailedAttempts,
		"lockout_duration", lpConfig.LockoutDuration,
	)

	resetTokens := auth.NewResetTokens(cfg.SecretKey, cfg.ResetTokenMaxAge())
	activity := service.NewActivityService(db)

	sched := scheduler.New(logger)
	jobs := []scheduler.Job{
		scheduler.PurgeResetTokens(db, logger),
		scheduler.PurgeActivity(activity, cfg.ActivityRetention(), logger),
	}
	if memoryAttempts != nil {
		jobs = append(jobs, scheduler.CleanupLoginAttempts(memoryAttempts))
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("registering job: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	a := &app{
		cfg:             cfg,
		db:              db,
		dataDir:         dataDir,
		version:         versionInfo,
		sessionManager:  sessionManager,
		renderer:        renderer,
		loginProtection: loginProtection,
		scheduler:       sched,
		accounts:        service.NewAccountService(db, resetTokens, mailer, cfg.PublicURL()),
		events:          service.NewEventService(db, cfg.RequireEventTime),
		registrations:   service.NewRegistrationService(db),
		activity:        activity,
	}

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           a.routes(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second, // Short idle timeout to mitigate slowloris attacks
		MaxHeaderBytes:    1 << 20,          // 1MB max header size
	}

	slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Short())

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return serve(srv, quit)
}

// serve runs srv until quit fires, then shuts it down gracefully. A failed
// listen returns straight away instead of waiting for a signal.
func serve(srv *http.Server, quit <-chan os.Signal) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openDatabase connects to the configured database. For SQLite it also
// returns the data directory, which the health check watches for free space.
func openDatabase(cfg *config.Config) (*sql.DB, string, error) {
	if cfg.DBDriver == config.DriverMySQL {
		slog.Info("initializing database", "driver", cfg.DBDriver, "host", cfg.DBHost, "name", cfg.DBName)
		db, err := store.NewMySQL(cfg.DSN())
		if err != nil {
			return nil, "", fmt.Errorf("initializing database: %w", err)
		}
		return db, "", nil
	}

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, "", fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "driver", cfg.DBDriver, "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, "", fmt.Errorf("initializing database: %w", err)
	}
	return db, dbDir, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
