package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"fleetdesk/internal/config"
	"fleetdesk/internal/contact"
	"fleetdesk/internal/database"
	"fleetdesk/internal/handler"
	"fleetdesk/internal/jwtauth"
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/notify"
	"fleetdesk/internal/org"
	"fleetdesk/internal/ratelimit"
	"fleetdesk/internal/session"
	"fleetdesk/internal/user"
	"fleetdesk/internal/verification"
)

// Login throttle: attempts per client IP within the window.
const (
	loginRateLimit  = 10
	loginRateWindow = 15 * time.Minute
)

func main() {
	// Optional .env for local development; environment wins in production.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing database connection: %v", err)
		}
	}()
	log.Println("database connection established")

	migrationsPath := getMigrationsPath()
	if err := db.MigrateUp(migrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	version, dirty, err := db.MigrateVersion(migrationsPath)
	if err != nil {
		log.Printf("WARNING: failed to get migration version: %v", err)
	} else if dirty {
		log.Printf("WARNING: database is in dirty state at version %d - a previous migration failed and manual intervention is required", version)
	} else {
		log.Printf("database migrations complete (version: %d)", version)
	}

	// Optional Redis for shared blacklist and rate-limit state. Without
	// it both fall back to per-process implementations, which is fine
	// for a single instance.
	var (
		blacklist    jwtauth.Blacklist = jwtauth.NewMemoryBlacklist()
		loginLimiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(loginRateLimit, loginRateWindow)
		resendLimit  ratelimit.Limiter
	)
	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
		}
		defer rdb.Close()
		blacklist = jwtauth.NewRedisBlacklist(rdb)
		loginLimiter = ratelimit.NewRedisLimiter(rdb, loginRateLimit, loginRateWindow)
		resendLimit = ratelimit.NewRedisLimiter(rdb, 3, time.Hour)
		log.Printf("redis connected at %s", cfg.Redis.Addr)
	}

	notifier := buildNotifier(cfg.Notify)
	if closer, ok := notifier.(io.Closer); ok {
		defer closer.Close()
	}

	userManager := user.NewManager(user.NewDatastore(db.DB))
	sessionManager := session.NewManager(session.NewDatastore(db.DB), userManager,
		cfg.Session.MaxAge, cfg.IsProduction())
	tokenService := jwtauth.NewService(cfg.JWT.Secret, cfg.JWT.ExpiresIn, blacklist)
	verificationManager := verification.NewManager(verification.NewDatastore(db.DB),
		userManager, notifier, cfg.Notify.AppBaseURL)
	if resendLimit != nil {
		verificationManager.WithResendLimiter(resendLimit)
	}
	orgManager := org.NewManager(org.NewDatastore(db.DB))
	contactManager := contact.NewManager(contact.NewDatastore(db.DB), orgManager)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = userManager.EnsureAdmin(seedCtx, cfg.AdminSeed.Email, cfg.AdminSeed.Password, cfg.AdminSeed.FullName)
	cancel()
	if err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}

	deps := handler.Deps{
		DB:            db,
		Users:         userManager,
		Sessions:      sessionManager,
		Tokens:        tokenService,
		Verifications: verificationManager,
		Orgs:          orgManager,
		Contacts:      contactManager,
		Notifier:      notifier,
		Auth:          middleware.NewAuth(sessionManager, tokenService, userManager),
		LoginLimiter:  loginLimiter,
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, deps)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	purgeDone := make(chan struct{})
	go purgeSessionsLoop(sessionManager, purgeDone)
	defer close(purgeDone)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		log.Printf("FleetDesk server starting on :%s (env: %s)", cfg.Port, cfg.Environment)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-shutdown:
		log.Printf("received signal %v, initiating graceful shutdown...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Println("waiting for in-flight requests to complete...")
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v, forcing shutdown", err)
			if err := server.Close(); err != nil {
				log.Fatalf("forced shutdown failed: %v", err)
			}
		}

		log.Println("server shutdown complete")
	}
}

// purgeSessionsLoop deletes expired session rows hourly until done is
// closed.
func purgeSessionsLoop(sessions *session.Manager, done <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := sessions.PurgeExpired(ctx)
			cancel()
			if err != nil {
				log.Printf("session purge failed: %v", err)
			} else if n > 0 {
				log.Printf("purged %d expired sessions", n)
			}
		case <-done:
			return
		}
	}
}

// buildNotifier picks the email delivery path: Kafka when brokers are
// configured, direct HTTP when an API key is set, and a logging no-op
// otherwise.
func buildNotifier(cfg config.NotifyConfig) notify.Sender {
	if len(cfg.KafkaBrokers) > 0 {
		log.Printf("notifications publishing to kafka topic %s via %v", notify.Topic, cfg.KafkaBrokers)
		return notify.NewKafkaSender(cfg.KafkaBrokers)
	}
	if cfg.APIKey != "" {
		log.Printf("notifications delivered via %s", cfg.BaseURL)
		return notify.NewHTTPSender(cfg.APIKey, cfg.BaseURL)
	}
	log.Println("no notification provider configured, emails will be logged only")
	return notify.LogSender{}
}

// getMigrationsPath returns the path to the migrations directory,
// checking the environment, the working directory, and the executable's
// directory in that order.
func getMigrationsPath() string {
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		return path
	}

	if _, err := os.Stat("migrations"); err == nil {
		absPath, _ := filepath.Abs("migrations")
		return absPath
	}

	execPath, err := os.Executable()
	if err == nil {
		execDir := filepath.Dir(execPath)
		migrationsPath := filepath.Join(execDir, "migrations")
		if _, err := os.Stat(migrationsPath); err == nil {
			return migrationsPath
		}
	}

	return "/app/migrations"
}
