package response

import (
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
)

type InitiateData struct {
	TransactionID     string `json:"transactionId"`
	CheckoutRequestID string `json:"checkoutRequestId"`
	MerchantRequestID string `json:"merchantRequestId"`
	CustomerMessage   string `json:"customerMessage"`
	PhoneNumber       string `json:"phoneNumber"`
	Amount            string `json:"amount"`
	AccountReference  string `json:"accountReference"`
	Status            string `json:"status"`
	Environment       string `json:"environment"`
}

type InitiateResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    InitiateData `json:"data"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type Transaction struct {
	ID                string         `json:"id"`
	CheckoutRequestID string         `json:"checkoutRequestId"`
	MerchantRequestID string         `json:"merchantRequestId,omitempty"`
	PhoneNumber       string         `json:"phoneNumber,omitempty"`
	Amount            string         `json:"amount"`
	AccountReference  string         `json:"accountReference,omitempty"`
	TransactionDesc   string         `json:"transactionDesc,omitempty"`
	Status            string         `json:"status"`
	ResultCode        string         `json:"resultCode,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	Error             string         `json:"error,omitempty"`
	CustomerMessage   string         `json:"customerMessage,omitempty"`
	Source            string         `json:"source"`
	CreatedAt         time.Time      `json:"createdAt"`
	ResolvedAt        *time.Time     `json:"resolvedAt,omitempty"`
}

func FromTransaction(tx *domain.Transaction) *Transaction {
	if tx == nil {
		return nil
	}
	return &Transaction{
		ID:                tx.ID,
		CheckoutRequestID: tx.RequestID,
		MerchantRequestID: tx.CounterpartyID,
		PhoneNumber:       tx.PayerAddress,
		Amount:            tx.Amount.String(),
		AccountReference:  tx.Reference,
		TransactionDesc:   tx.Description,
		Status:            string(tx.Status),
		ResultCode:        tx.ResultCode,
		Details:           tx.ResultDetails,
		Error:             tx.FailureReason,
		CustomerMessage:   tx.PromptMessage,
		Source:            string(tx.Source),
		CreatedAt:         tx.CreatedAt,
		ResolvedAt:        tx.ResolvedAt,
	}
}

type StatusResponse struct {
	Success     bool         `json:"success"`
	Status      string       `json:"status"`
	Message     string       `json:"message,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// CallbackAck is the body the gateway expects for every notification.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

type ClearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type HealthResponse struct {
	Status            string    `json:"status"`
	Service           string    `json:"service"`
	Environment       string    `json:"environment"`
	BusinessShortCode string    `json:"business_shortcode"`
	Transactions      int       `json:"transactions"`
	Pending           int       `json:"pending"`
	Timestamp         time.Time `json:"timestamp"`
}

type ConfigView struct {
	Environment       string `json:"environment"`
	BusinessShortCode string `json:"business_shortcode"`
	ConfiguredCode    string `json:"configured_shortcode"`
	CallbackURL       string `json:"callback_url"`
	QueryFallback     bool   `json:"query_fallback"`
}

type ConfigResponse struct {
	Success      bool              `json:"success"`
	Config       ConfigView        `json:"config"`
	Instructions map[string]string `json:"instructions"`
}
