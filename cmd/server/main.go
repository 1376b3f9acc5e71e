package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"hospital-management-api/internal/auth"
	"hospital-management-api/internal/booking"
	"hospital-management-api/internal/config"
	"hospital-management-api/internal/handler"
	"hospital-management-api/internal/health"
	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/notify"
	"hospital-management-api/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Hospital management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := store.New(pool).Migrate(ctx, dir)
			for _, name := range applied {
				fmt.Printf("applied %s\n", name)
			}
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("%d migration(s) applied\n", len(applied))
			return nil
		},
	}
	cmd.Flags().String("dir", "", "migrations directory (default MIGRATIONS_DIR)")
	return cmd
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" || username == "" {
				return errors.New("--email and --username are required")
			}
			if len(password) < auth.MinPasswordLen {
				return fmt.Errorf("--password must be at least %d characters", auth.MinPasswordLen)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u := &model.User{
				ID:           uuid.New().String(),
				Username:     username,
				Email:        email,
				PasswordHash: hash,
				Role:         model.RoleAdmin,
			}
			if err := store.New(pool).CreateUser(ctx, u); err != nil {
				if errors.Is(err, store.ErrEmailTaken) {
					return fmt.Errorf("a user with email %s already exists", email)
				}
				return err
			}
			fmt.Printf("admin %s created (id %s)\n", email, u.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "admin email")
	cmd.Flags().String("username", "", "display name")
	cmd.Flags().String("password", "", "password")
	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)
	// both checked by Validate
	loc, _ := cfg.Location()
	proxies, _ := cfg.ProxyNets()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	st := store.New(pool)
	if applied, err := st.Migrate(ctx, cfg.MigrationsDir); err != nil {
		logger.Warn().Err(err).Msg("migrations not applied")
	} else if len(applied) > 0 {
		logger.Info().Strs("files", applied).Msg("migrations applied")
	}

	// background workers stop with ctx
	hub := notify.NewHub(logger.With().Str("component", "notify").Logger())
	go hub.Run(ctx)

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rl.Cleanup(ctx)

	checker := health.NewChecker(st, cfg.HealthInterval, logger.With().Str("component", "health").Logger())
	go checker.Run(ctx)

	svc := booking.NewService(st, loc, booking.WithNotifier(hub))
	h := handler.New(st, svc, cfg.JWTSecret, cfg.TokenTTL, hub, logger)

	// http
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.IPExtractor = middleware.ClientIP(proxies)

	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))

	e.GET("/healthz", health.Handler(st, pool))
	h.Routes(e, rl)

	// grpc health
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	gs := grpc.NewServer()
	checker.Register(gs)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
		if err := gs.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("grpc server error")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("server error")
		stop()
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// health Watch streams never end on their own
	grpcDone := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(grpcDone)
	}()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	select {
	case <-grpcDone:
	case <-shutdownCtx.Done():
		gs.Stop()
	}

	logger.Info().Msg("server stopped")
	return serveErr
}
