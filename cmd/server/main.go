package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/api"
	"github.com/charlesng35/storefront/internal/app"
	"github.com/charlesng35/storefront/internal/app/maintenance"
	iauth "github.com/charlesng35/storefront/internal/auth"
	"github.com/charlesng35/storefront/internal/auth/providers"
	"github.com/charlesng35/storefront/internal/database"
	"github.com/charlesng35/storefront/internal/handlers"
	"github.com/charlesng35/storefront/internal/services"
	"github.com/charlesng35/storefront/internal/storage"
	"github.com/charlesng35/storefront/pkg/logger"
	"github.com/charlesng35/storefront/pkg/mail"
)

const defaultShutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("storefront-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	sessionJWT, err := iauth.NewJWTService(cfg.Auth.SessionJWTConfig())
	if err != nil {
		return fmt.Errorf("initialise session jwt: %w", err)
	}
	adminJWT, err := iauth.NewJWTService(cfg.Auth.AdminJWTConfig())
	if err != nil {
		return fmt.Errorf("initialise admin jwt: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}

	dispatcher, err := services.NewMailDispatcher(mailer)
	if err != nil {
		return fmt.Errorf("initialise mail dispatcher: %w", err)
	}
	defer dispatcher.Close()

	verifications, err := services.NewEmailVerificationService(db,
		services.WithVerificationBaseURL(cfg.Frontend.BaseURL),
	)
	if err != nil {
		return fmt.Errorf("initialise verification service: %w", err)
	}

	userSvc, err := services.NewUserService(db, verifications, dispatcher)
	if err != nil {
		return fmt.Errorf("initialise user service: %w", err)
	}
	categorySvc, err := services.NewCategoryService(db)
	if err != nil {
		return fmt.Errorf("initialise category service: %w", err)
	}
	productSvc, err := services.NewProductService(db)
	if err != nil {
		return fmt.Errorf("initialise product service: %w", err)
	}
	cartSvc, err := services.NewCartService(db)
	if err != nil {
		return fmt.Errorf("initialise cart service: %w", err)
	}

	localProvider, err := providers.NewLocalProvider(db)
	if err != nil {
		return fmt.Errorf("initialise local auth provider: %w", err)
	}

	var googleProvider providers.IDTokenVerifier
	if clientID := strings.TrimSpace(cfg.Auth.Google.ClientID); clientID != "" {
		provider, googleErr := providers.NewGoogleProvider(providers.GoogleOptions{ClientID: clientID})
		if googleErr != nil {
			return fmt.Errorf("initialise google provider: %w", googleErr)
		}
		googleProvider = provider
	} else {
		log.Info("google sign-in disabled: no client id configured")
	}

	imageStore, err := storage.NewImageStore(cfg.Storage.ImagesDir, cfg.Storage.PublicBase)
	if err != nil {
		return fmt.Errorf("initialise image store: %w", err)
	}

	cleaner := maintenance.NewCleaner(verifications)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	router, err := api.NewRouter(api.Dependencies{
		Users:      userSvc,
		Categories: categorySvc,
		Products:   productSvc,
		Cart:       cartSvc,
		Local:      localProvider,
		Google:     googleProvider,
		SessionJWT: sessionJWT,
		AdminJWT:   adminJWT,
		Admin: handlers.AdminIdentity{
			Email:        cfg.Auth.Admin.Email,
			PasswordHash: cfg.Auth.Admin.PasswordHash,
		},
		Images: imageStore,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("database handle unavailable during shutdown", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}
}
