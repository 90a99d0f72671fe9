package stkpush

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/memstore"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	return f.token, f.err
}

type fakeGateway struct {
	mu         sync.Mutex
	pushResp   domain.PushResponse
	pushErr    error
	pushes     []domain.PushRequest
	queryRes   domain.QueryResult
	queryErr   error
	queries    int
	beforePush func()
}

func (g *fakeGateway) SubmitPush(_ context.Context, _ string, req domain.PushRequest) (domain.PushResponse, error) {
	g.mu.Lock()
	g.pushes = append(g.pushes, req)
	hook := g.beforePush
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return g.pushResp, g.pushErr
}

func (g *fakeGateway) QueryStatus(_ context.Context, _ string, requestID string) (domain.QueryResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries++
	res := g.queryRes
	res.RequestID = requestID
	return res, g.queryErr
}

func (g *fakeGateway) queryCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queries
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.TransactionEvent
}

func (p *fakePublisher) PublishTransaction(_ context.Context, e domain.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count(t domain.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type fakeAudit struct {
	mu          sync.Mutex
	callbacks   []domain.CallbackAuditEntry
	transitions []domain.TransitionAuditEntry
}

func (a *fakeAudit) LogCallback(_ context.Context, e domain.CallbackAuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, e)
	return nil
}

func (a *fakeAudit) LogTransition(_ context.Context, e domain.TransitionAuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transitions = append(a.transitions, e)
	return nil
}

func (a *fakeAudit) outcomes() []domain.CallbackOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.CallbackOutcome, 0, len(a.callbacks))
	for _, e := range a.callbacks {
		out = append(out, e.Outcome)
	}
	return out
}

type fakeDLQ struct {
	mu      sync.Mutex
	letters []string
}

func (q *fakeDLQ) Send(_ context.Context, payload []byte, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.letters = append(q.letters, string(payload))
	return nil
}

func (q *fakeDLQ) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.letters)
}

type testEnv struct {
	uc         *DefaultStkPushUsecase
	store      *memstore.TransactionStore
	tokens     *fakeTokens
	gateway    *fakeGateway
	publisher  *fakePublisher
	audit      *fakeAudit
	dlq        *fakeDLQ
	dispatcher *Dispatcher
}

func testGatewayConfig() config.Gateway {
	return config.Gateway{
		Environment:        config.EnvSandbox,
		DefaultReference:   "Payment",
		DefaultDescription: "Purchase",
		PendingResultCode:  "1032",
		QueryFallback:      true,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testGatewayConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg config.Gateway) *testEnv {
	t.Helper()
	env := &testEnv{
		store:      memstore.NewTransactionStore(),
		tokens:     &fakeTokens{token: "tok"},
		gateway:    &fakeGateway{},
		publisher:  &fakePublisher{},
		audit:      &fakeAudit{},
		dlq:        &fakeDLQ{},
		dispatcher: NewDispatcher(zap.NewNop()),
	}
	uc, err := NewDefaultStkPushUsecase(cfg, Deps{
		Store:      env.store,
		Tokens:     env.tokens,
		Gateway:    env.gateway,
		Dispatcher: env.dispatcher,
		Publisher:  env.publisher,
		Audit:      env.audit,
		DLQ:        env.dlq,
		Metrics:    metrics.NewPaymentMetrics(prometheus.NewRegistry()),
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("new usecase: %v", err)
	}
	env.uc = uc
	t.Cleanup(func() { _ = env.dispatcher.Close(context.Background()) })
	return env
}

// drain waits for every dispatched callback to finish.
func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.dispatcher.Close(ctx); err != nil {
		t.Fatalf("dispatcher close: %v", err)
	}
}

func (e *testEnv) seedPending(t *testing.T, requestID string) *domain.Transaction {
	t.Helper()
	tx := &domain.Transaction{
		ID:           "local-" + requestID,
		RequestID:    requestID,
		PayerAddress: "254712345678",
		Status:       domain.StatusPending,
		Source:       domain.SourceInitiation,
		CreatedAt:    time.Now(),
	}
	if err := e.store.Insert(requestID, tx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tx
}
