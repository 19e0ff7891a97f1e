package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	handler "github.com/jpp0ca/TrackFetch/internal/adapters/http"
	"github.com/jpp0ca/TrackFetch/internal/bootstrap"
	"github.com/jpp0ca/TrackFetch/internal/config"
	"github.com/jpp0ca/TrackFetch/internal/logging"

	_ "github.com/jpp0ca/TrackFetch/docs"
)

// @title			TrackFetch API
// @version		1.0
// @description	API for resolving album tracks against a video catalog and fetching them as audio files.
// @description	Batches run on a configurable worker pool with ranked fallback per track.

// @contact.name	TrackFetch API Support
// @license.name	MIT

// @host		localhost:8080
// @BasePath	/
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := cfg.RequireSearchCredentials(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	h := handler.NewHandler(rt.Service)
	h.RegisterRoutes(r)

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	logger.Info("starting TrackFetch API",
		"addr", addr,
		"workers", cfg.Workers,
		"materializer", rt.Materializer.Name(),
		"sources", rt.Sources.Available(),
		"output_dir", cfg.OutputDir,
		"swagger", "http://localhost"+addr+"/swagger/index.html",
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
