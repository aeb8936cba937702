package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"carteira/internal/amqp"
	"carteira/internal/auth"
	"carteira/internal/backend"
	"carteira/internal/config"
	"carteira/internal/export"
	apphttp "carteira/internal/http"
	"carteira/internal/log"
	"carteira/internal/session"
)

func main() {
	// .env is for local development only, absence is fine
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := backend.NewFactory(logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("gateway initialization failed", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer gw.Close()

	// Alert fan-out over AMQP is optional. A broker that is down must
	// not keep the app from serving.
	var broker *amqp.Client
	if cfg.AMQPURL != "" {
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("amqp unavailable, limit alerts stay local", log.FieldError, err)
		} else {
			defer broker.Close()
			logger.Info("amqp connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var exporter *export.Exporter
	if cfg.ExportEnabled() {
		exporter, err = export.New(ctx, cfg, logger)
		if err != nil {
			logger.Error("sheet exporter initialization failed", log.FieldError, err)
			os.Exit(1)
		}
	}

	sessions := session.NewStore(gw, cfg, logger, broker)
	provider := auth.NewProvider(gw, logger)
	srv := apphttp.NewServer(cfg, sessions, provider, gw, exporter, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sessions.Close(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
