package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"finlit-sim-go/internal/config"
	"finlit-sim-go/internal/journal"
	"finlit-sim-go/internal/portfolio"
	"finlit-sim-go/internal/sim"
)

// setupHandler builds an APIHandler over a fresh engine. The clock is
// not running, so prices sit at their base values.
func setupHandler(t *testing.T) *APIHandler {
	cfg := config.Defaults()
	cfg.Notify.DisplayDuration = time.Minute

	jnl, err := journal.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	assert.NoError(t, err)

	engine := sim.NewEngine(zap.NewNop(), &cfg, rand.New(rand.NewSource(1)), jnl)
	return NewAPIHandler(zap.NewNop(), engine)
}

func TestMarketHandler(t *testing.T) {
	// Arrange
	h := setupHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/market", nil)
	rec := httptest.NewRecorder()

	// Act
	h.MarketHandler(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	var snap sim.Snapshot
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, 10000.0, snap.Cash)
	assert.NotEmpty(t, snap.Quotes)
	for _, q := range snap.Quotes {
		assert.Greater(t, q.Price, 0.0)
	}
}

func TestTradeHandler(t *testing.T) {
	t.Run("BuySuccess", func(t *testing.T) {
		// Arrange
		h := setupHandler(t)
		body := `{"action": "buy", "symbol": "AAPL", "quantity": 10}`
		req := httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader(body))
		rec := httptest.NewRecorder()

		// Act
		h.TradeHandler(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		var receipt portfolio.Receipt
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&receipt))
		assert.Equal(t, 1750.0, receipt.Total)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		// Arrange: buy far more than the starting cash affords
		h := setupHandler(t)
		body := `{"action": "buy", "symbol": "AAPL", "quantity": 1000}`
		req := httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader(body))
		rec := httptest.NewRecorder()

		// Act
		h.TradeHandler(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp map[string]string
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp["error"], "insufficient funds")
	})

	t.Run("UnknownSymbol", func(t *testing.T) {
		h := setupHandler(t)
		body := `{"action": "buy", "symbol": "NOPE", "quantity": 1}`
		req := httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.TradeHandler(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("UnknownAction", func(t *testing.T) {
		h := setupHandler(t)
		body := `{"action": "short", "symbol": "AAPL", "quantity": 1}`
		req := httptest.NewRequest(http.MethodPost, "/api/trade", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.TradeHandler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GetNotAllowed", func(t *testing.T) {
		h := setupHandler(t)
		req := httptest.NewRequest(http.MethodGet, "/api/trade", nil)
		rec := httptest.NewRecorder()

		h.TradeHandler(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestResetHandler(t *testing.T) {
	// Arrange: trade first so there is something to reset
	h := setupHandler(t)
	buy := httptest.NewRequest(http.MethodPost, "/api/trade",
		strings.NewReader(`{"action": "buy", "symbol": "AAPL", "quantity": 10}`))
	h.TradeHandler(httptest.NewRecorder(), buy)

	// Act
	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rec := httptest.NewRecorder()
	h.ResetHandler(rec, req)

	// Assert
	assert.Equal(t, http.StatusNoContent, rec.Code)

	market := httptest.NewRecorder()
	h.MarketHandler(market, httptest.NewRequest(http.MethodGet, "/api/market", nil))
	var snap sim.Snapshot
	assert.NoError(t, json.NewDecoder(market.Body).Decode(&snap))
	assert.Equal(t, 10000.0, snap.Cash)
	assert.Empty(t, snap.Holdings)
}

func TestNotificationsHandler(t *testing.T) {
	// Arrange: a trade leaves one success notification
	h := setupHandler(t)
	buy := httptest.NewRequest(http.MethodPost, "/api/trade",
		strings.NewReader(`{"action": "buy", "symbol": "AAPL", "quantity": 1}`))
	h.TradeHandler(httptest.NewRecorder(), buy)

	// Act: list, then dismiss
	rec := httptest.NewRecorder()
	h.NotificationsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var active []map[string]any
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&active))
	assert.Len(t, active, 1)

	id := active[0]["id"].(string)
	del := httptest.NewRecorder()
	h.NotificationsHandler(del, httptest.NewRequest(http.MethodDelete, "/api/notifications?id="+id, nil))
	assert.Equal(t, http.StatusNoContent, del.Code)

	// Assert: gone
	after := httptest.NewRecorder()
	h.NotificationsHandler(after, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	var remaining []map[string]any
	assert.NoError(t, json.NewDecoder(after.Body).Decode(&remaining))
	assert.Empty(t, remaining)
}

func TestTradesAndStatisticsHandlers(t *testing.T) {
	// Arrange: a buy and a sell
	h := setupHandler(t)
	h.TradeHandler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/trade",
		strings.NewReader(`{"action": "buy", "symbol": "AAPL", "quantity": 10}`)))
	h.TradeHandler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/trade",
		strings.NewReader(`{"action": "sell", "symbol": "AAPL", "quantity": 5}`)))

	// Act + Assert: history has both, newest first
	rec := httptest.NewRecorder()
	h.TradesHandler(rec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var trades []journal.Trade
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&trades))
	assert.Len(t, trades, 2)
	assert.Equal(t, portfolio.SideSell, trades[0].Side)

	stats := httptest.NewRecorder()
	h.StatisticsHandler(stats, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	assert.Equal(t, http.StatusOK, stats.Code)
	var s journal.Statistics
	assert.NoError(t, json.NewDecoder(stats.Body).Decode(&s))
	assert.Equal(t, int64(1), s.AllTime.TotalTrades)
}
