package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicops/clinicops/internal/config"
	"github.com/clinicops/clinicops/internal/domain/appointment"
	"github.com/clinicops/clinicops/internal/domain/membership"
	"github.com/clinicops/clinicops/internal/domain/queue"
	"github.com/clinicops/clinicops/internal/domain/room"
	"github.com/clinicops/clinicops/internal/platform/auth"
	"github.com/clinicops/clinicops/internal/platform/broadcast"
	"github.com/clinicops/clinicops/internal/platform/db"
	"github.com/clinicops/clinicops/internal/platform/middleware"
	"github.com/clinicops/clinicops/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic operations API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(roleCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

func roleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage role assignments",
	}

	grantCmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a role to a user, for bootstrapping a clinic's first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			userRaw, _ := cmd.Flags().GetString("user")
			clinicRaw, _ := cmd.Flags().GetString("clinic")
			roleRaw, _ := cmd.Flags().GetString("role")

			userID, err := uuid.Parse(userRaw)
			if err != nil {
				return fmt.Errorf("--user must be a UUID: %w", err)
			}

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

			repo := membership.NewRepoPG(pool)

			// A grant without a clinic creates the global ADMIN row.
			if clinicRaw == "" {
				if auth.Role(roleRaw) != auth.RoleAdmin {
					return fmt.Errorf("only the %s role can be granted globally", auth.RoleAdmin)
				}
				m := &membership.Membership{UserID: userID, Role: auth.RoleAdmin}
				if err := repo.Upsert(ctx, m); err != nil {
					return err
				}
				fmt.Printf("Granted global ADMIN to %s\n", userID)
				return nil
			}

			clinicID, err := uuid.Parse(clinicRaw)
			if err != nil {
				return fmt.Errorf("--clinic must be a UUID: %w", err)
			}

			svc := membership.NewService(repo)
			m, err := svc.Grant(ctx, clinicID, userID, auth.Role(roleRaw))
			if err != nil {
				return err
			}
			fmt.Printf("Granted %s to %s in clinic %s\n", m.Role, userID, clinicID)
			return nil
		},
	}
	grantCmd.Flags().String("user", "", "User UUID")
	grantCmd.Flags().String("clinic", "", "Clinic UUID (omit for a global ADMIN grant)")
	grantCmd.Flags().String("role", string(auth.RoleClinicAdmin), "Role to grant")
	cmd.AddCommand(grantCmd)

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
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Broadcast: the in-process hub always receives snapshots; Redis pub/sub
	// is an optional second sink for other instances and external consumers.
	hub := websocket.NewHub()
	sinks := []broadcast.Publisher{hub}

	var redisSink *broadcast.RedisSink
	if cfg.RedisURL != "" {
		redisSink, err = broadcast.NewRedisSink(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, queue broadcasts stay in-process only")
		} else {
			defer redisSink.Close()
			sinks = append(sinks, redisSink)
			logger.Info().Msg("connected to redis")
		}
	}
	publisher := broadcast.NewComposite(logger, sinks...)

	// Repositories and services
	apptRepo := appointment.NewRepoPG(pool)
	roomRepo := room.NewRepoPG(pool)
	memberRepo := membership.NewRepoPG(pool)

	memberSvc := membership.NewService(memberRepo)
	composer := queue.NewComposer(apptRepo, roomRepo)
	queuePub := queue.NewPublisher(composer, publisher, logger)
	apptSvc := appointment.NewService(apptRepo, queuePub)
	roomSvc := room.NewService(roomRepo, queuePub)

	authorizer := auth.NewAuthorizer(auth.DefaultPolicy(), memberSvc)

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
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Clinic-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	// Clinic-scoped API
	clinics := e.Group("/api/v1/clinics/:clinicId", auth.ClinicContextMiddleware())

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	clinics.Use(middleware.RateLimit(rateLimitCfg))

	appointment.NewHandler(apptSvc).RegisterRoutes(clinics, authorizer)
	room.NewHandler(roomSvc).RegisterRoutes(clinics, authorizer)
	queue.NewHandler(composer).RegisterRoutes(clinics, authorizer)
	membership.NewHandler(memberSvc).RegisterRoutes(clinics, authorizer)

	// Live queue updates, gated like any other queue read.
	wsHandler := websocket.NewWebSocketHandler(hub)
	wsHandler.RegisterRoutes(clinics, authorizer.Require(auth.OpQueueRead))

	// Health checks
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
		logger.Info().Str("addr", addr).Msg("starting server")
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
