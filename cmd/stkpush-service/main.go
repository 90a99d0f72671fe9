package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/LavaJover/shvark-stkpush-service/internal/app/setup"
	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "stkpush-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}
	// Reading config
	cfg := config.MustLoad()

	zlog, err := logger.New(serviceName, cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.StkPushConfig, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(cfg, zlog)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			zlog.Warn("closing dependencies", zap.Error(err))
		}
	}()

	ucs, err := setup.InitializeUseCases(deps)
	if err != nil {
		return fmt.Errorf("init usecases: %w", err)
	}

	// gRPC health
	grpcLis, err := net.Listen("tcp", net.JoinHostPort(cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	grpcServer := grpcapi.NewServer(zlog)
	healthServer := grpcapi.NewHealthServer()
	healthServer.Register(grpcServer)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      ucs.Router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		zlog.Info("grpc server started", zap.String("addr", grpcLis.Addr().String()))
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		zlog.Info("http server started",
			zap.String("addr", httpServer.Addr),
			zap.String("environment", cfg.Gateway.Environment),
			zap.String("short_code", cfg.Gateway.EffectiveShortCode()),
			zap.String("callback_url", cfg.Gateway.CallbackURL),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	sweepDone := ucs.Background.StartAll(ctx)
	healthServer.SetServing()

	var serveErr error
	select {
	case <-ctx.Done():
		zlog.Info("shutdown signal received")
	case serveErr = <-errCh:
		zlog.Error("server failed", zap.Error(serveErr))
	}
	stop()

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	<-sweepDone

	// callbacks already acknowledged are finished before exit
	if err := ucs.Dispatcher.Close(shutdownCtx); err != nil {
		zlog.Warn("dispatcher did not drain", zap.Int("pending_keys", ucs.Dispatcher.Pending()), zap.Error(err))
	}

	zlog.Info("service stopped")
	return serveErr
}
