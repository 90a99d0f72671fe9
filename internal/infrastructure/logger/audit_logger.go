package logger

import (
	"context"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/postgres/mappers"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PGAuditLogger writes callback and transition history to the audit database.
type PGAuditLogger struct {
	db *gorm.DB
}

func NewPGAuditLogger(db *gorm.DB) *PGAuditLogger {
	return &PGAuditLogger{db: db}
}

func (l *PGAuditLogger) LogCallback(ctx context.Context, entry domain.CallbackAuditEntry) error {
	return l.db.WithContext(ctx).Create(mappers.ToGORMCallbackLog(&entry)).Error
}

func (l *PGAuditLogger) LogTransition(ctx context.Context, entry domain.TransitionAuditEntry) error {
	return l.db.WithContext(ctx).Create(mappers.ToGORMTransitionLog(&entry)).Error
}

// ZapAuditLogger is used when no audit database is configured.
type ZapAuditLogger struct {
	log *zap.Logger
}

func NewZapAuditLogger(log *zap.Logger) *ZapAuditLogger {
	return &ZapAuditLogger{log: log.Named("audit")}
}

func (l *ZapAuditLogger) LogCallback(_ context.Context, entry domain.CallbackAuditEntry) error {
	l.log.Info("callback",
		zap.String("request_id", entry.RequestID),
		zap.String("result_code", entry.ResultCode),
		zap.String("outcome", string(entry.Outcome)),
		zap.String("stored_status", string(entry.StoredStatus)),
		zap.String("error", entry.Error),
	)
	return nil
}

func (l *ZapAuditLogger) LogTransition(_ context.Context, entry domain.TransitionAuditEntry) error {
	l.log.Info("transition",
		zap.String("request_id", entry.RequestID),
		zap.String("transaction_id", entry.TransactionID),
		zap.String("from", string(entry.From)),
		zap.String("to", string(entry.To)),
		zap.String("source", string(entry.Source)),
	)
	return nil
}
