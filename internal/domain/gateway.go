package domain

import (
	"context"
	"time"
)

type AccessToken struct {
	Value     string
	ExpiresIn time.Duration
}

type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type PushRequest struct {
	Amount       int64
	PayerAddress string
	Reference    string
	Description  string
}

type PushResponse struct {
	ResponseCode        string
	ResponseDescription string
	RequestID           string
	CounterpartyID      string
	CustomerMessage     string
}

func (r PushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

type QueryResult struct {
	ResponseCode string
	ResultCode   string
	ResultDesc   string
	RequestID    string
}

// PaymentGateway is the push-payment surface of the upstream gateway.
type PaymentGateway interface {
	SubmitPush(ctx context.Context, token string, req PushRequest) (PushResponse, error)
	QueryStatus(ctx context.Context, token string, requestID string) (QueryResult, error)
}

// TokenCache keeps the current access token between requests. Get reports
// false when nothing usable is cached.
type TokenCache interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
}
