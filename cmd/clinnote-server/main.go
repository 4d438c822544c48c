package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinnote/clinnote/internal/config"
	"github.com/clinnote/clinnote/internal/domain/account"
	"github.com/clinnote/clinnote/internal/domain/assist"
	"github.com/clinnote/clinnote/internal/domain/billing"
	"github.com/clinnote/clinnote/internal/domain/documents"
	"github.com/clinnote/clinnote/internal/domain/patient"
	"github.com/clinnote/clinnote/internal/platform/ai"
	"github.com/clinnote/clinnote/internal/platform/auth"
	"github.com/clinnote/clinnote/internal/platform/db"
	"github.com/clinnote/clinnote/internal/platform/middleware"
	"github.com/clinnote/clinnote/internal/platform/payments"
	"github.com/clinnote/clinnote/internal/platform/pdf"
)

// defaultJWKSURL is the identity provider's published signing key set, used
// when AUTH_JWKS_URL is not overridden.
const defaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinnote-server",
		Short: "Clinical documentation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Token verifier. Development uses a shared HMAC key; production verifies
	// against the provider's key set and actively checks revocation.
	verifierCfg := auth.VerifierConfig{ProjectID: cfg.AuthProjectID}
	if cfg.IsDev() && cfg.AuthSigningKey != "" {
		verifierCfg.SigningKey = []byte(cfg.AuthSigningKey)
	} else {
		verifierCfg.JWKSURL = cfg.AuthJWKSURL
		if verifierCfg.JWKSURL == "" {
			verifierCfg.JWKSURL = defaultJWKSURL
		}
		if cfg.AuthCredentialsFile != "" {
			creds, err := auth.LoadCredentials(cfg.AuthCredentialsFile)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to load identity provider credentials")
			}
			verifierCfg.Revocations = auth.NewRevocationChecker(creds, "")
		}
	}
	verifier := auth.NewVerifier(verifierCfg)
	policy := auth.NewAllowPolicy(cfg.AllowedEmails, cfg.AllowedDomains)

	// Repositories and services
	accountRepo := account.NewRepo(pool)
	patientRepo := patient.NewRepo(pool)
	patientSvc := patient.NewService(patientRepo)

	stripeClient := payments.NewStripeClient(cfg.StripeSecretKey, cfg.StripePriceID)
	billingSvc := billing.NewService(stripeClient, accountRepo, cfg.SiteURL)

	completer := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	assistSvc := assist.NewService(completer)

	renderer := pdf.NewRenderer(cfg.PDFLogoFile)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Identity-only group: a verified, authorized caller that may not be
	// entitled yet. Account status and billing live here so a caller can pay.
	authed := e.Group("", auth.Authenticate(verifier, policy, accountRepo))
	authed.Use(middleware.RateLimit(rateLimitCfg))

	account.NewHandler().RegisterRoutes(authed)
	billing.NewHandler(billingSvc).RegisterRoutes(authed)

	// Entitlement-gated group: everything clinical requires an active plan.
	api := authed.Group("/api", auth.RequireEntitlement())

	patient.NewHandler(patientSvc).RegisterRoutes(api)
	assist.NewHandler(assistSvc).RegisterRoutes(api)
	documents.NewHandler(renderer).RegisterRoutes(api)

	// Health checks stay open
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
