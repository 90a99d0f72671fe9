package models

import (
	"time"

	"gorm.io/datatypes"
)

// CallbackLogModel is one row per gateway notification, whatever its outcome.
type CallbackLogModel struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	RequestID      string `gorm:"index:idx_callback_logs_request"`
	CounterpartyID string
	ResultCode     string
	ResultDesc     string `gorm:"type:text"`

	// applied, synthesized, duplicate, enriched, conflict, handle_failed
	Outcome      string `gorm:"index:idx_callback_logs_outcome"`
	StoredStatus string
	Payload      datatypes.JSON
	ErrorMessage string `gorm:"type:text"`

	ReceivedAt time.Time
	CreatedAt  time.Time `gorm:"index:idx_callback_logs_created"`
}

func (CallbackLogModel) TableName() string {
	return "callback_logs"
}
