package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	appauth "atrium/internal/application/auth"
	"atrium/internal/domain/user"
	infraauth "atrium/internal/infrastructure/auth"
	"atrium/internal/infrastructure/cache"
	"atrium/internal/infrastructure/config"
	"atrium/internal/infrastructure/database"
	"atrium/internal/infrastructure/email"
	"atrium/internal/infrastructure/identity"
	"atrium/internal/infrastructure/migration"
	"atrium/internal/infrastructure/repository"
	httpRouter "atrium/internal/interfaces/http"
	"atrium/internal/shared/db"
	"atrium/internal/shared/goroutine"
	"atrium/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Atrium authentication server with the specified configuration.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()
	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate || env == "development" || env == "dev" {
		if env == "production" {
			log.Warnw("auto-migration enabled in production environment")
		}
		migrationManager := migration.NewManager(env)
		if err := migrationManager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("migrations applied")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	facade, err := buildAuthStack(cfg, redisClient, log)
	if err != nil {
		return fmt.Errorf("failed to assemble auth stack: %w", err)
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	startSessionJanitor(janitorCtx, repository.NewSessionRepository(database.Get(), log), log)

	router := httpRouter.NewRouter(facade, cfg.Server.AllowedOrigins, log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func buildAuthStack(cfg *config.Config, redisClient *redis.Client, log logger.Interface) (*appauth.Facade, error) {
	gdb := database.Get()

	userRepo := repository.NewUserRepository(gdb, log)
	credentialRepo := repository.NewCredentialRepository(gdb, log)
	sessionRepo := repository.NewSessionRepository(gdb, log)
	tokenRepo := repository.NewOneShotTokenRepository(gdb, log)
	oauthAccountRepo := repository.NewOAuthAccountRepository(gdb, log)
	settingRepo := repository.NewAuthSettingRepository(gdb, log)

	hasher := infraauth.NewArgon2idHasher(
		cfg.Auth.Password.MemoryKiB,
		cfg.Auth.Password.Iterations,
		cfg.Auth.Password.Parallelism,
	)
	issuer := infraauth.NewTokenIssuer(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	txManager := db.NewTransactionManager(gdb)

	oauthManager := infraauth.NewOAuthManager(cfg.OAuth, log)
	stateStore := cache.NewOAuthStateStore(redisClient, 10*time.Minute)

	var mailer email.Sender
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPassword,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			BaseURL:     cfg.Server.BaseURL,
		})
	} else {
		log.Warnw("smtp not configured, outgoing emails will be dropped")
		mailer = email.NoopSender{}
	}

	policy := &user.SecurityPolicy{
		RequireEmailVerification: cfg.Auth.Policy.RequireEmailVerification,
		LockoutThreshold:         cfg.Auth.Policy.LockoutThreshold,
		LockoutDurationMinutes:   cfg.Auth.Policy.LockoutDurationMinutes,
		SessionDurationHours:     cfg.Auth.Session.DurationHours,
	}

	localProvider := appauth.NewLocalProvider(appauth.LocalProviderDeps{
		Users:        userRepo,
		Credentials:  credentialRepo,
		Sessions:     sessionRepo,
		Tokens:       tokenRepo,
		OAuthLinks:   oauthAccountRepo,
		Hasher:       hasher,
		Issuer:       issuer,
		TxManager:    txManager,
		OAuthManager: oauthManager,
		StateStore:   stateStore,
		Mailer:       mailer,
		Policy:       policy,
		TokenTTL: appauth.TokenTTL{
			Verification: time.Duration(cfg.Auth.Token.VerificationExpiresHours) * time.Hour,
			Reset:        time.Duration(cfg.Auth.Token.ResetExpiresMinutes) * time.Minute,
		},
		Logger: log,
	})

	var managedProvider *appauth.ManagedProvider
	if cfg.Managed.IsConfigured() {
		platform := identity.NewHTTPPlatformClient(cfg.Managed.URL, cfg.Managed.ServiceKey, log)
		managedProvider = appauth.NewManagedProvider(platform, userRepo, txManager, log)
		log.Infow("managed identity platform client configured", "url", cfg.Managed.URL)
	}

	facade := appauth.NewFacade(localProvider, managedProvider, settingRepo, cfg.Managed, log)
	if err := facade.Resolve(context.Background()); err != nil {
		log.Warnw("auth provider resolution failed, staying on local", "error", err)
	}

	return facade, nil
}

// startSessionJanitor periodically prunes expired session rows.
func startSessionJanitor(ctx context.Context, sessions user.SessionRepository, log logger.Interface) {
	goroutine.SafeGo(log, "session-janitor", func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sessions.DeleteExpired(ctx); err != nil {
					log.Warnw("failed to prune expired sessions", "error", err)
				}
			}
		}
	})
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
