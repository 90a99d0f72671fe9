package postgres

import (
	"fmt"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AuditModels lists every table the audit database owns.
func AuditModels() []any {
	return []any{&models.CallbackLogModel{}, &models.TransitionLogModel{}}
}

// OpenAuditDB connects to the audit database. When no migrations path is
// configured the schema is created with AutoMigrate.
func OpenAuditDB(cfg *config.StkPushConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.AuditDB.Dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if cfg.AuditDB.MigrationsPath == "" {
		if err := db.AutoMigrate(AuditModels()...); err != nil {
			return nil, fmt.Errorf("auto migrate audit db: %w", err)
		}
	}
	return db, nil
}
