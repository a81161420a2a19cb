package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/opentracing/opentracing-go"
	"golang.org/x/time/rate"

	"reversion_bot/internal/models"
	"reversion_bot/internal/modules/config"
	"reversion_bot/pkg/metrics"
)

// Client wraps the USDⓈ-M futures REST API. Every call waits on a shared
// rate limiter and is bounded by the per-call timeout.
type Client struct {
	api     *futures.Client
	limiter *rate.Limiter
	timeout time.Duration
	quote   string

	mu     sync.RWMutex
	byName map[string]models.Instrument
}

func NewClient(cfg *config.Config) *Client {
	api := futures.NewClient(cfg.Binance.APIKey, cfg.Binance.SecretKey)
	if cfg.Binance.BaseURL != "" {
		api.BaseURL = cfg.Binance.BaseURL
	}
	api.HTTPClient = &http.Client{Timeout: cfg.Binance.CallTimeout}

	burst := cfg.Binance.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(cfg.Binance.RateLimitPerSecond), burst),
		timeout: cfg.Binance.CallTimeout,
		quote:   cfg.Trading.QuoteAsset,
		byName:  make(map[string]models.Instrument),
	}
}

func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	span, ctx := opentracing.StartSpanFromContext(ctx, "binance."+op)
	defer span.Finish()

	if err := fn(ctx); err != nil {
		span.SetTag("error", true)
		metrics.FetchErrors.WithLabelValues(op).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// instrument returns the cached exchange rules for symbol, zero value when unknown.
func (c *Client) instrument(symbol string) models.Instrument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byName[symbol]
}

func (c *Client) remember(list []models.Instrument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, inst := range list {
		c.byName[inst.Symbol] = inst
	}
}
