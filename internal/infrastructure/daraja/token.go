package daraja

import (
	"context"
	"sync"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	"github.com/LavaJover/shvark-stkpush-service/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// tokenSafetyMargin is subtracted from expires_in before caching.
const tokenSafetyMargin = 60 * time.Second

type Authorizer interface {
	Authorize(ctx context.Context) (domain.AccessToken, error)
}

// TokenSource hands out access tokens, fetching a new one only when the
// cache has none.
type TokenSource struct {
	auth    Authorizer
	cache   domain.TokenCache
	metrics *metrics.PaymentMetrics
	log     *zap.Logger

	mu sync.Mutex
}

func NewTokenSource(auth Authorizer, cache domain.TokenCache, m *metrics.PaymentMetrics, log *zap.Logger) *TokenSource {
	return &TokenSource{auth: auth, cache: cache, metrics: m, log: log.Named("token")}
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(ctx); ok {
		return tok, nil
	}

	// one fetch at a time per process
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.cached(ctx); ok {
		return tok, nil
	}

	token, err := s.auth.Authorize(ctx)
	if err != nil {
		s.metrics.RecordTokenRefresh("error")
		return "", err
	}
	s.metrics.RecordTokenRefresh("ok")

	if ttl := token.ExpiresIn - tokenSafetyMargin; ttl > 0 {
		if err := s.cache.Set(ctx, token.Value, ttl); err != nil {
			s.log.Warn("failed to cache access token", zap.Error(err))
		}
	}
	return token.Value, nil
}

func (s *TokenSource) cached(ctx context.Context) (string, bool) {
	tok, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("token cache read failed", zap.Error(err))
		return "", false
	}
	return tok, ok && tok != ""
}

// MemoryTokenCache is the single-process TokenCache.
type MemoryTokenCache struct {
	mu      sync.RWMutex
	token   string
	expires time.Time
	now     func() time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{now: time.Now}
}

func (c *MemoryTokenCache) Get(context.Context) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || !c.now().Before(c.expires) {
		return "", false, nil
	}
	return c.token, true, nil
}

func (c *MemoryTokenCache) Set(_ context.Context, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expires = c.now().Add(ttl)
	return nil
}
