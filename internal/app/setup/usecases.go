package setup

import (
	"fmt"
	"net/http"

	"github.com/LavaJover/shvark-stkpush-service/internal/app/background"
	"github.com/LavaJover/shvark-stkpush-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/daraja"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/memstore"
	"github.com/LavaJover/shvark-stkpush-service/internal/usecase/stkpush"
)

type UseCases struct {
	Dispatcher     *stkpush.Dispatcher
	StkPushUsecase *stkpush.DefaultStkPushUsecase
	Background     *background.BackgroundTasks
	Router         http.Handler
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config

	// timeouts are applied per operation from the gateway config
	gateway := daraja.NewClient(cfg.Gateway, &http.Client{}, deps.Metrics, deps.Logger)
	tokens := daraja.NewTokenSource(gateway, deps.TokenCache, deps.Metrics, deps.Logger)
	dispatcher := stkpush.NewDispatcher(deps.Logger)

	uc, err := stkpush.NewDefaultStkPushUsecase(cfg.Gateway, stkpush.Deps{
		Store:      memstore.NewTransactionStore(),
		Tokens:     tokens,
		Gateway:    gateway,
		Dispatcher: dispatcher,
		Publisher:  deps.Publisher,
		Audit:      deps.Audit,
		DLQ:        deps.DLQ,
		Metrics:    deps.Metrics,
		Logger:     deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("stkpush usecase: %w", err)
	}

	handler := handlers.NewStkPushHandler(uc, cfg.Gateway, deps.Logger)

	return &UseCases{
		Dispatcher:     dispatcher,
		StkPushUsecase: uc,
		Background: background.NewBackgroundTasks(
			uc,
			cfg.Reconciler.SweepInterval,
			cfg.Reconciler.StaleAfter,
			deps.Metrics,
			deps.Logger,
		),
		Router: handlers.NewRouter(handler, cfg.HTTPServer.AllowedOrigins, deps.MetricsHandler, deps.Logger),
	}, nil
}
