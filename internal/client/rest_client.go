package client

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"finlit-sim-go/internal/config"
	"finlit-sim-go/internal/journal"
	"finlit-sim-go/internal/portfolio"
	"finlit-sim-go/internal/sim"
)

// Trade actions accepted by the API.
const (
	ActionBuy      = "buy"
	ActionSell     = "sell"
	ActionBuyAll   = "buy_all"
	ActionSellAll  = "sell_all"
	ActionQuickBuy = "quick_buy"
)

// TradeRequest is the body of POST /api/trade.
type TradeRequest struct {
	Action   string  `json:"action"`
	Symbol   string  `json:"symbol"`
	Quantity int     `json:"quantity,omitempty"`
	Percent  float64 `json:"percent,omitempty"`
}

// RestClientInterface defines the interface for the simulation API client.
type RestClientInterface interface {
	GetSnapshot() (*sim.Snapshot, error)
	GetTrades() ([]journal.Trade, error)
	GetStatistics() (*journal.Statistics, error)
	PlaceTrade(req TradeRequest) (*portfolio.Receipt, error)
	Reset() error
}

// RestClient is a client for the finlitd HTTP API.
// It implements the RestClientInterface.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a new simulation API client.
func NewRestClient(cfg *config.Client, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// Initialize the rate limiter
	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// GetSnapshot fetches the current simulation snapshot.
func (c *RestClient) GetSnapshot() (*sim.Snapshot, error) {
	req := c.client.R().SetResult(&sim.Snapshot{})

	resp, err := c.doRequest(context.Background(), "GET", "/api/market", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get market snapshot: %w", err)
	}
	return resp.Result().(*sim.Snapshot), nil
}

// GetTrades fetches the session trade history, most recent first.
func (c *RestClient) GetTrades() ([]journal.Trade, error) {
	var trades []journal.Trade
	req := c.client.R().SetResult(&trades)

	_, err := c.doRequest(context.Background(), "GET", "/api/trades", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	return trades, nil
}

// GetStatistics fetches the session trading statistics.
func (c *RestClient) GetStatistics() (*journal.Statistics, error) {
	req := c.client.R().SetResult(&journal.Statistics{})

	resp, err := c.doRequest(context.Background(), "GET", "/api/statistics", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return resp.Result().(*journal.Statistics), nil
}

// PlaceTrade submits a trade intent and returns the receipt on success.
// A rejected trade (insufficient funds, invalid sale) comes back as an
// error built from the server's message.
func (c *RestClient) PlaceTrade(tr TradeRequest) (*portfolio.Receipt, error) {
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(tr).
		SetResult(&portfolio.Receipt{})

	resp, err := c.doRequest(context.Background(), "POST", "/api/trade", req)
	if err != nil {
		return nil, fmt.Errorf("failed to place trade: %w", err)
	}
	return resp.Result().(*portfolio.Receipt), nil
}

// Reset restores the portfolio to its starting state.
func (c *RestClient) Reset() error {
	req := c.client.R()
	if _, err := c.doRequest(context.Background(), "POST", "/api/reset", req); err != nil {
		return fmt.Errorf("failed to reset portfolio: %w", err)
	}
	return nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
