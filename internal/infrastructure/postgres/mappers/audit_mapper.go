package mappers

import (
	"encoding/json"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func ToGORMCallbackLog(entry *domain.CallbackAuditEntry) *models.CallbackLogModel {
	return &models.CallbackLogModel{
		ID:             uuid.New().String(),
		RequestID:      entry.RequestID,
		CounterpartyID: entry.CounterpartyID,
		ResultCode:     entry.ResultCode,
		ResultDesc:     entry.ResultDesc,
		Outcome:        string(entry.Outcome),
		StoredStatus:   string(entry.StoredStatus),
		Payload:        payloadJSON(entry.Payload),
		ErrorMessage:   entry.Error,
		ReceivedAt:     entry.ReceivedAt,
	}
}

func ToGORMTransitionLog(entry *domain.TransitionAuditEntry) *models.TransitionLogModel {
	var details datatypes.JSONMap
	if len(entry.ResultDetails) > 0 {
		details = datatypes.JSONMap(entry.ResultDetails)
	}
	return &models.TransitionLogModel{
		ID:            uuid.New().String(),
		TransactionID: entry.TransactionID,
		RequestID:     entry.RequestID,
		FromStatus:    string(entry.From),
		ToStatus:      string(entry.To),
		Source:        string(entry.Source),
		ResultCode:    entry.ResultCode,
		ResultDetails: details,
		FailureReason: entry.FailureReason,
		OccurredAt:    entry.OccurredAt,
	}
}

// payloadJSON keeps raw bodies that are not valid JSON as a quoted string
// so the column stays queryable.
func payloadJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("null")
	}
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return datatypes.JSON(quoted)
}
