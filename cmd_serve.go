package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/handlers"
	customMiddleware "github.com/Madhav-Gupta-28/olist-insights/middleware"
	"github.com/Madhav-Gupta-28/olist-insights/reports"
	"github.com/Madhav-Gupta-28/olist-insights/routes"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	warmConcurrency = 4
	shutdownTimeout = 10 * time.Second
)

var warm bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report menu and results over HTTP",
	Long: `Starts the HTTP API:
  GET /health             liveness
  GET /metrics            Prometheus metrics
  GET /api/queries        the report menu
  GET /api/queries/:id    one report by number or slug (?format=csv for CSV)

When JWT_SECRET is set, /api requires a bearer token (see the token command).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&warm, "warm", false, "Run every report once at startup to fill the cache")
}

func newServer(src reports.Source) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(customMiddleware.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	routes.SetupRoutes(e, handlers.New(src, cfg.QueryTimeout, logger), cfg.JWTSecret)
	return e
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = b.close(context.Background()) }()

	src, closeCache := newSource(ctx, b)
	defer func() { _ = closeCache() }()

	if warm {
		go func() {
			start := time.Now()
			if err := reports.Warm(ctx, src, warmConcurrency); err != nil {
				logger.Warn("Cache warm-up failed", zap.Error(err))
				return
			}
			logger.Info("Cache warmed", zap.Duration("took", time.Since(start)))
		}()
	}

	e := newServer(src)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return e.Shutdown(shutdownCtx)
}
