package models

import (
	"time"

	"gorm.io/datatypes"
)

type TransitionLogModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	TransactionID string `gorm:"index:idx_transitions_transaction"`
	RequestID     string `gorm:"index:idx_transitions_request"`
	FromStatus    string
	ToStatus      string
	Source        string
	ResultCode    string
	ResultDetails datatypes.JSONMap
	FailureReason string    `gorm:"type:text"`
	OccurredAt    time.Time `gorm:"index:idx_transitions_occurred"`
}

func (TransitionLogModel) TableName() string {
	return "transaction_transitions"
}
