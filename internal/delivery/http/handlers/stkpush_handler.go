package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/delivery/http/dto/stkpush/request"
	"github.com/LavaJover/shvark-stkpush-service/internal/delivery/http/dto/stkpush/response"
	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"github.com/LavaJover/shvark-stkpush-service/internal/usecase/stkpush"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	serviceName     = "stkpush-service"
	maxRequestBody  = 64 << 10
	maxCallbackBody = 256 << 10
)

type StkPushHandler struct {
	uc  stkpush.StkPushUsecase
	cfg config.Gateway
	log *zap.Logger
	now func() time.Time
}

func NewStkPushHandler(uc stkpush.StkPushUsecase, cfg config.Gateway, log *zap.Logger) *StkPushHandler {
	return &StkPushHandler{uc: uc, cfg: cfg, log: log.Named("http"), now: time.Now}
}

func (h *StkPushHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.uc.Stats()
	writeJSON(w, http.StatusOK, response.HealthResponse{
		Status:            "active",
		Service:           serviceName,
		Environment:       h.cfg.Environment,
		BusinessShortCode: h.cfg.EffectiveShortCode(),
		Transactions:      stats.Total,
		Pending:           stats.Pending,
		Timestamp:         h.now().UTC(),
	})
}

func (h *StkPushHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req request.InitiateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response.ErrorResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}
	if strings.TrimSpace(string(req.PhoneNumber)) == "" || req.Amount == nil {
		writeJSON(w, http.StatusBadRequest, response.ErrorResponse{Message: "Phone number and amount are required"})
		return
	}

	out, err := h.uc.Initiate(r.Context(), &stkpushdto.InitiateInput{
		PayerAddress: string(req.PhoneNumber),
		Amount:       *req.Amount,
		Reference:    req.AccountReference,
		Description:  req.TransactionDesc,
	})
	if err != nil {
		h.writeError(w, r, "Failed to initiate STK Push", err)
		return
	}

	writeJSON(w, http.StatusOK, response.InitiateResponse{
		Success: true,
		Message: "STK Push initiated successfully. Check your phone and enter PIN.",
		Data: response.InitiateData{
			TransactionID:     out.TransactionID,
			CheckoutRequestID: out.RequestID,
			MerchantRequestID: out.CounterpartyID,
			CustomerMessage:   out.PromptMessage,
			PhoneNumber:       out.PayerAddress,
			Amount:            out.Amount.String(),
			AccountReference:  out.Reference,
			Status:            string(out.Status),
			Environment:       h.cfg.Environment,
		},
	})
}

// Callback acknowledges first and reconciles afterwards. The gateway always
// gets a success acknowledgment, whatever happens to the payload.
func (h *StkPushHandler) Callback(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		h.log.Warn("callback body read failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, response.CallbackAck{ResultCode: 0, ResultDesc: "Success"})
	_ = http.NewResponseController(w).Flush()

	h.uc.AcceptCallback(raw)
}

func (h *StkPushHandler) Status(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(chi.URLParam(r, "checkoutRequestId"))
	if requestID == "" {
		writeJSON(w, http.StatusBadRequest, response.ErrorResponse{Message: "CheckoutRequestID is required"})
		return
	}

	res, err := h.uc.Resolve(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, "Failed to check transaction status", err)
		return
	}

	body := response.StatusResponse{
		Success:     res.Status != domain.StatusUnknown && res.Status != domain.StatusFailed,
		Status:      string(res.Status),
		Message:     statusMessage(res),
		Transaction: response.FromTransaction(res.Transaction),
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *StkPushHandler) Config(w http.ResponseWriter, r *http.Request) {
	instructions := map[string]string{
		"note":    "PRODUCTION MODE - REAL PAYMENTS",
		"message": fmt.Sprintf("All payments go to short code %s", h.cfg.EffectiveShortCode()),
	}
	if h.cfg.Environment == config.EnvSandbox {
		instructions = map[string]string{
			"note":              "SANDBOX MODE - TESTING",
			"test_phone":        "254708374149",
			"test_pin":          "123456",
			"test_amount":       "1",
			"sandbox_shortcode": config.SandboxShortCode,
		}
	}

	writeJSON(w, http.StatusOK, response.ConfigResponse{
		Success: true,
		Config: response.ConfigView{
			Environment:       h.cfg.Environment,
			BusinessShortCode: h.cfg.EffectiveShortCode(),
			ConfiguredCode:    h.cfg.BusinessShortCode,
			CallbackURL:       h.cfg.CallbackURL,
			QueryFallback:     h.cfg.QueryFallback,
		},
		Instructions: instructions,
	})
}

func (h *StkPushHandler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	n := h.uc.Clear()
	writeJSON(w, http.StatusOK, response.ClearResponse{
		Success: true,
		Message: fmt.Sprintf("Cleared %d transactions", n),
		Count:   n,
	})
}

func (h *StkPushHandler) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	detail := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
		var invalid *domain.InvalidInputError
		if errors.As(err, &invalid) {
			detail = invalid.Error()
		}
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUpstreamAuthFailure):
		status, code = http.StatusBadGateway, "GATEWAY_AUTH_FAILED"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status, code = http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE"
	case errors.Is(err, domain.ErrUpstreamRejected):
		status, code = http.StatusBadRequest, "GATEWAY_REJECTED"
	}

	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) && gwErr.Description != "" {
		detail = gwErr.Description
	}

	if status >= http.StatusInternalServerError {
		h.log.Error(message, zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.log.Info(message, zap.String("path", r.URL.Path), zap.String("code", code), zap.Error(err))
	}

	writeJSON(w, status, response.ErrorResponse{
		Message:   message,
		Error:     detail,
		Code:      code,
		Retryable: domain.IsRetryable(err),
	})
}

func statusMessage(res stkpushdto.Resolution) string {
	switch res.Status {
	case domain.StatusCompleted:
		return "Payment completed successfully"
	case domain.StatusFailed:
		if res.Transaction != nil && res.Transaction.FailureReason != "" {
			return res.Transaction.FailureReason
		}
		return "Payment failed"
	case domain.StatusPending:
		return "Payment is still being processed"
	default:
		if res.Message != "" {
			return res.Message
		}
		return "Failed to query transaction status"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
