package daraja

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/config"
	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	authPath  = "/oauth/v1/generate?grant_type=client_credentials"
	pushPath  = "/mpesa/stkpush/v1/processrequest"
	queryPath = "/mpesa/stkpushquery/v1/query"

	// returned by the query endpoint while the customer has not answered yet
	queryInProgressCode = "500.001.1001"

	maxBodySize = 1 << 20
)

// Client talks to the Daraja REST API.
type Client struct {
	httpClient *http.Client
	cfg        config.Gateway
	baseURL    string
	metrics    *metrics.PaymentMetrics
	log        *zap.Logger
	now        func() time.Time
}

func NewClient(cfg config.Gateway, httpClient *http.Client, m *metrics.PaymentMetrics, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		baseURL:    cfg.BaseURL(),
		metrics:    m,
		log:        log.Named("daraja"),
		now:        time.Now,
	}
}

// Authorize fetches a fresh OAuth access token.
func (c *Client) Authorize(ctx context.Context) (domain.AccessToken, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.AuthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+authPath, nil)
	if err != nil {
		return domain.AccessToken{}, &domain.GatewayError{Kind: domain.ErrUpstreamAuthFailure, Op: "authorize", Err: err}
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	var body tokenResponse
	if err := c.do(req, "authorize", domain.ErrUpstreamAuthFailure, &body); err != nil {
		return domain.AccessToken{}, err
	}
	if body.AccessToken == "" {
		return domain.AccessToken{}, &domain.GatewayError{
			Kind:        domain.ErrUpstreamAuthFailure,
			Op:          "authorize",
			HTTPStatus:  http.StatusOK,
			Description: "empty access token",
		}
	}

	var ttl time.Duration
	if secs, err := strconv.Atoi(body.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	return domain.AccessToken{Value: body.AccessToken, ExpiresIn: ttl}, nil
}

// SubmitPush sends the payment prompt. A 200 response is returned as is;
// callers check PushResponse.Accepted.
func (c *Client) SubmitPush(ctx context.Context, token string, in domain.PushRequest) (domain.PushResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.PushTimeout)
	defer cancel()

	ts := Timestamp(c.now())
	shortCode := c.cfg.EffectiveShortCode()
	payload := pushRequest{
		BusinessShortCode: shortCode,
		Password:          Password(shortCode, c.cfg.PassKey, ts),
		Timestamp:         ts,
		TransactionType:   c.cfg.TransactionType,
		Amount:            in.Amount,
		PartyA:            in.PayerAddress,
		PartyB:            c.cfg.EffectivePartyB(),
		PhoneNumber:       in.PayerAddress,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  in.Reference,
		TransactionDesc:   in.Description,
	}

	req, err := c.jsonRequest(ctx, pushPath, token, payload)
	if err != nil {
		return domain.PushResponse{}, &domain.GatewayError{Kind: domain.ErrUpstreamUnavailable, Op: "submit_push", Err: err}
	}

	var body pushResponse
	if err := c.do(req, "submit_push", domain.ErrUpstreamRejected, &body); err != nil {
		return domain.PushResponse{}, err
	}
	return domain.PushResponse{
		ResponseCode:        body.ResponseCode.String(),
		ResponseDescription: body.ResponseDescription,
		RequestID:           body.CheckoutRequestID,
		CounterpartyID:      body.MerchantRequestID,
		CustomerMessage:     body.CustomerMessage,
	}, nil
}

// QueryStatus asks the gateway for the outcome of a push. While the
// customer has not answered, Daraja replies with an error status; that case
// is reported as the configured pending result code.
func (c *Client) QueryStatus(ctx context.Context, token, requestID string) (domain.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	ts := Timestamp(c.now())
	shortCode := c.cfg.EffectiveShortCode()
	payload := queryRequest{
		BusinessShortCode: shortCode,
		Password:          Password(shortCode, c.cfg.PassKey, ts),
		Timestamp:         ts,
		CheckoutRequestID: requestID,
	}

	req, err := c.jsonRequest(ctx, queryPath, token, payload)
	if err != nil {
		return domain.QueryResult{}, &domain.GatewayError{Kind: domain.ErrUpstreamUnavailable, Op: "query_status", Err: err}
	}

	var body queryResponse
	if err := c.do(req, "query_status", domain.ErrUpstreamRejected, &body); err != nil {
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && gwErr.Code == queryInProgressCode {
			return domain.QueryResult{
				ResultCode: c.cfg.PendingResultCode,
				ResultDesc: gwErr.Description,
				RequestID:  requestID,
			}, nil
		}
		return domain.QueryResult{}, err
	}
	return domain.QueryResult{
		ResponseCode: body.ResponseCode.String(),
		ResultCode:   body.ResultCode.String(),
		ResultDesc:   body.ResultDesc,
		RequestID:    body.CheckoutRequestID,
	}, nil
}

func (c *Client) jsonRequest(ctx context.Context, path, token string, payload any) (*http.Request, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes req and decodes a 2xx body into out. Transport failures and
// 5xx map to ErrUpstreamUnavailable, 401/403 to ErrUpstreamAuthFailure and
// any other 4xx to clientKind.
func (c *Client) do(req *http.Request, op string, clientKind error, out any) error {
	started := time.Now()
	outcome := "ok"
	defer func() {
		c.metrics.RecordGatewayRequest(op, outcome, time.Since(started))
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "transport_error"
		c.log.Warn("gateway request failed", zap.String("op", op), zap.Error(err))
		return &domain.GatewayError{Kind: domain.ErrUpstreamUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		outcome = "transport_error"
		return &domain.GatewayError{Kind: domain.ErrUpstreamUnavailable, Op: op, HTTPStatus: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorResponse
		_ = json.Unmarshal(raw, &eb)

		kind := clientKind
		switch {
		case resp.StatusCode >= 500:
			kind = domain.ErrUpstreamUnavailable
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			kind = domain.ErrUpstreamAuthFailure
		}
		outcome = "http_" + strconv.Itoa(resp.StatusCode)
		c.log.Warn("gateway returned error",
			zap.String("op", op),
			zap.Int("http_status", resp.StatusCode),
			zap.String("error_code", eb.ErrorCode),
			zap.String("error_message", eb.message()),
		)
		return &domain.GatewayError{
			Kind:        kind,
			Op:          op,
			HTTPStatus:  resp.StatusCode,
			Code:        eb.ErrorCode,
			Description: eb.message(),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		outcome = "bad_body"
		kind := domain.ErrUpstreamUnavailable
		if clientKind == domain.ErrUpstreamAuthFailure {
			kind = domain.ErrUpstreamAuthFailure
		}
		return &domain.GatewayError{Kind: kind, Op: op, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
