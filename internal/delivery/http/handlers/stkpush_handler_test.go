package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	stkpushdto "github.com/LavaJover/shvark-stkpush-service/internal/usecase/dto/stkpush"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeUsecase struct {
	mu         sync.Mutex
	initInput  *stkpushdto.InitiateInput
	initOut    *stkpushdto.InitiateOutput
	initErr    error
	callbacks  [][]byte
	resolution stkpushdto.Resolution
	resolveErr error
	cleared    int
	stats      domain.StoreStats
	onCallback func()
}

func (f *fakeUsecase) Initiate(_ context.Context, in *stkpushdto.InitiateInput) (*stkpushdto.InitiateOutput, error) {
	f.initInput = in
	return f.initOut, f.initErr
}

func (f *fakeUsecase) AcceptCallback(raw []byte) {
	f.mu.Lock()
	f.callbacks = append(f.callbacks, raw)
	hook := f.onCallback
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (f *fakeUsecase) Reconcile(context.Context, stkpushdto.Notification) (stkpushdto.ReconcileResult, error) {
	return stkpushdto.ReconcileResult{}, nil
}

func (f *fakeUsecase) Resolve(context.Context, string) (stkpushdto.Resolution, error) {
	return f.resolution, f.resolveErr
}

func (f *fakeUsecase) SweepStalePending(context.Context, time.Duration) (int, error) {
	return 0, nil
}

func (f *fakeUsecase) Stats() domain.StoreStats { return f.stats }

func (f *fakeUsecase) Clear() int { return f.cleared }

func newRouterForTest(uc *fakeUsecase) http.Handler {
	cfg := config.Gateway{
		Environment:       config.EnvSandbox,
		BusinessShortCode: "7894520",
		CallbackURL:       "https://example.com/api/mpesa/callback",
		QueryFallback:     true,
	}
	h := NewStkPushHandler(uc, cfg, zap.NewNop())
	return NewRouter(h, []string{"*"}, http.NotFoundHandler(), zap.NewNop())
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestInitiateSuccess(t *testing.T) {
	uc := &fakeUsecase{initOut: &stkpushdto.InitiateOutput{
		TransactionID: "tx_1",
		RequestID:     "ws_1",
		PayerAddress:  "254712345678",
		Amount:        decimal.NewFromInt(100),
		Reference:     "Payment",
		Status:        domain.StatusPending,
	}}
	router := newRouterForTest(uc)

	rec, body := do(t, router, http.MethodPost, "/api/mpesa/stkpush", `{"phoneNumber":"0712345678","amount":"100"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	data := body["data"].(map[string]any)
	if data["checkoutRequestId"] != "ws_1" || data["transactionId"] != "tx_1" {
		t.Fatalf("data = %v", data)
	}
	if !uc.initInput.Amount.Equal(decimal.NewFromInt(100)) || uc.initInput.PayerAddress != "0712345678" {
		t.Fatalf("input = %+v", uc.initInput)
	}
}

func TestInitiateAcceptsNumericPhone(t *testing.T) {
	uc := &fakeUsecase{initOut: &stkpushdto.InitiateOutput{RequestID: "ws_1"}}
	router := newRouterForTest(uc)

	rec, _ := do(t, router, http.MethodPost, "/api/mpesa/stkpush", `{"phoneNumber":254712345678,"amount":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if uc.initInput.PayerAddress != "254712345678" {
		t.Fatalf("payer = %q", uc.initInput.PayerAddress)
	}
}

func TestInitiateMissingFields(t *testing.T) {
	router := newRouterForTest(&fakeUsecase{})

	rec, body := do(t, router, http.MethodPost, "/api/mpesa/stkpush", `{"phoneNumber":"0712345678"}`)
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("status = %d body=%v", rec.Code, body)
	}
}

func TestInitiateErrorMapping(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		retryable bool
	}{
		{domain.NewInvalidInput("amount", "must be positive"), http.StatusBadRequest, false},
		{&domain.GatewayError{Kind: domain.ErrUpstreamRejected, Op: "submit_push", Description: "Invalid PhoneNumber"}, http.StatusBadRequest, false},
		{&domain.GatewayError{Kind: domain.ErrUpstreamAuthFailure, Op: "initiate"}, http.StatusBadGateway, false},
		{&domain.GatewayError{Kind: domain.ErrUpstreamUnavailable, Op: "submit_push"}, http.StatusServiceUnavailable, true},
		{domain.ErrConflict, http.StatusConflict, false},
	}
	for _, tc := range cases {
		router := newRouterForTest(&fakeUsecase{initErr: tc.err})
		rec, body := do(t, router, http.MethodPost, "/api/mpesa/stkpush", `{"phoneNumber":"0712345678","amount":10}`)
		if rec.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		retryable, _ := body["retryable"].(bool)
		if retryable != tc.retryable {
			t.Fatalf("%v: retryable = %v", tc.err, retryable)
		}
	}
}

func TestCallbackAlwaysAcknowledges(t *testing.T) {
	for _, payload := range []string{`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_1","ResultCode":0}}}`, `garbage`, ``} {
		uc := &fakeUsecase{}
		router := newRouterForTest(uc)

		rec, body := do(t, router, http.MethodPost, "/api/mpesa/callback", payload)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if body["ResultCode"] != float64(0) || body["ResultDesc"] != "Success" {
			t.Fatalf("ack = %v", body)
		}
		if len(uc.callbacks) != 1 || string(uc.callbacks[0]) != payload {
			t.Fatalf("payload not handed over: %q", uc.callbacks)
		}
	}
}

func TestCallbackAckIsWrittenBeforeProcessing(t *testing.T) {
	uc := &fakeUsecase{}
	router := newRouterForTest(uc)

	rec := httptest.NewRecorder()
	uc.onCallback = func() {
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ResultDesc":"Success"`) {
			t.Errorf("ack not written before processing: %d %q", rec.Code, rec.Body.String())
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/api/mpesa/callback", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)
}

func TestStatusResponses(t *testing.T) {
	now := time.Now()
	cases := []struct {
		res     stkpushdto.Resolution
		success bool
	}{
		{stkpushdto.Resolution{Status: domain.StatusCompleted, Transaction: &domain.Transaction{ID: "tx_1", RequestID: "ws_1", Status: domain.StatusCompleted, ResolvedAt: &now}}, true},
		{stkpushdto.Resolution{Status: domain.StatusPending}, true},
		{stkpushdto.Resolution{Status: domain.StatusFailed, Transaction: &domain.Transaction{FailureReason: "Request cancelled by user"}}, false},
		{stkpushdto.Resolution{Status: domain.StatusUnknown}, false},
	}
	for _, tc := range cases {
		router := newRouterForTest(&fakeUsecase{resolution: tc.res})
		rec, body := do(t, router, http.MethodGet, "/api/mpesa/status/ws_1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.res.Status, rec.Code)
		}
		if body["status"] != string(tc.res.Status) || body["success"] != tc.success {
			t.Fatalf("%s: body = %v", tc.res.Status, body)
		}
	}
}

func TestStatusNotFound(t *testing.T) {
	router := newRouterForTest(&fakeUsecase{resolveErr: domain.ErrNotFound})
	rec, _ := do(t, router, http.MethodGet, "/api/mpesa/status/ws_9", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestClearTransactions(t *testing.T) {
	router := newRouterForTest(&fakeUsecase{cleared: 3})
	rec, body := do(t, router, http.MethodDelete, "/api/mpesa/transactions", "")
	if rec.Code != http.StatusOK || body["count"] != float64(3) || body["message"] != "Cleared 3 transactions" {
		t.Fatalf("status = %d body=%v", rec.Code, body)
	}
}

func TestHealthAndConfig(t *testing.T) {
	router := newRouterForTest(&fakeUsecase{stats: domain.StoreStats{Total: 2, Pending: 1}})

	rec, body := do(t, router, http.MethodGet, "/api/mpesa/", "")
	if rec.Code != http.StatusOK || body["status"] != "active" || body["business_shortcode"] != config.SandboxShortCode {
		t.Fatalf("health = %d %v", rec.Code, body)
	}

	rec, body = do(t, router, http.MethodGet, "/api/mpesa/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("config status = %d", rec.Code)
	}
	cfg := body["config"].(map[string]any)
	if cfg["configured_shortcode"] != "7894520" || cfg["business_shortcode"] != config.SandboxShortCode {
		t.Fatalf("config = %v", cfg)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newRouterForTest(&fakeUsecase{})
	req := httptest.NewRequest(http.MethodOptions, "/api/mpesa/stkpush", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS headers: %v", rec.Header())
	}
}
