package setup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/daraja"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const connectTimeout = 5 * time.Second

// Dependencies holds the infrastructure adapters. Optional backends fall
// back to in-process implementations when they are not configured.
type Dependencies struct {
	Config         *config.StkPushConfig
	Logger         *zap.Logger
	DB             *gorm.DB
	Redis          *goredis.Client
	Publisher      domain.EventPublisher
	Audit          domain.AuditLogger
	DLQ            domain.DeadLetterQueue
	TokenCache     domain.TokenCache
	Metrics        *metrics.PaymentMetrics
	MetricsHandler http.Handler
}

func InitializeDependencies(cfg *config.StkPushConfig, log *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:         cfg,
		Logger:         log,
		Metrics:        metrics.NewPaymentMetrics(prometheus.DefaultRegisterer),
		MetricsHandler: promhttp.Handler(),
	}

	if err := deps.initAudit(); err != nil {
		return nil, err
	}
	if err := deps.initRedis(); err != nil {
		deps.Close()
		return nil, err
	}
	deps.initPublisher()
	return deps, nil
}

func (d *Dependencies) initAudit() error {
	if d.Config.AuditDB.Dsn == "" {
		d.Logger.Info("audit database not configured, audit goes to the log")
		d.Audit = logger.NewZapAuditLogger(d.Logger)
		return nil
	}

	db, err := postgres.OpenAuditDB(d.Config)
	if err != nil {
		return err
	}
	if path := d.Config.AuditDB.MigrationsPath; path != "" {
		if err := migrate.RunMigrations(db, path, d.Logger); err != nil {
			return fmt.Errorf("audit migrations: %w", err)
		}
	}
	d.DB = db
	d.Audit = logger.NewPGAuditLogger(db)
	return nil
}

func (d *Dependencies) initRedis() error {
	if d.Config.Redis.Addr == "" {
		d.Logger.Info("redis not configured, token cache and dead letters stay in process")
		d.TokenCache = daraja.NewMemoryTokenCache()
		d.DLQ = redis.NewLogDeadLetterQueue(d.Logger)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := redis.Connect(ctx, d.Config.Redis.Addr, d.Config.Redis.Password, d.Config.Redis.DB)
	if err != nil {
		return err
	}
	d.Redis = client
	d.TokenCache = redis.NewTokenCache(client, d.Config.Redis.KeyPrefix)
	d.DLQ = redis.NewDeadLetterQueue(client, d.Logger, d.Config.Redis.KeyPrefix)
	return nil
}

func (d *Dependencies) initPublisher() {
	if !d.Config.KafkaService.Enabled() {
		d.Logger.Info("kafka not configured, transaction events are dropped")
		d.Publisher = kafka.NoopPublisher{}
		return
	}
	d.Publisher = kafka.NewTransactionPublisher(d.Config.KafkaService.Brokers, d.Config.KafkaService.Topic)
}

// Close releases every open connection.
func (d *Dependencies) Close() error {
	var errs []error
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close audit db: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
