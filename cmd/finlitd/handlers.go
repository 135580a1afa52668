package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"finlit-sim-go/internal/portfolio"
	"finlit-sim-go/internal/sim"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	engine *sim.Engine
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, engine *sim.Engine) *APIHandler {
	return &APIHandler{log: log, engine: engine}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// MarketHandler returns the full current simulation snapshot.
func (h *APIHandler) MarketHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// NewsHandler returns the current news buffer, newest first.
func (h *APIHandler) NewsHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot().News)
}

// PortfolioView is the response shape for /api/portfolio.
type PortfolioView struct {
	Cash             float64             `json:"cash"`
	Holdings         []portfolio.Holding `json:"holdings"`
	PortfolioValue   float64             `json:"portfolio_value"`
	UnrealizedReturn float64             `json:"unrealized_return"`
}

// PortfolioHandler returns cash, holdings, and portfolio value at
// current prices.
func (h *APIHandler) PortfolioHandler(w http.ResponseWriter, r *http.Request) {
	s := h.engine.Snapshot()
	h.writeJSON(w, http.StatusOK, PortfolioView{
		Cash:             s.Cash,
		Holdings:         s.Holdings,
		PortfolioValue:   s.PortfolioValue,
		UnrealizedReturn: s.UnrealizedReturn,
	})
}

// NotificationsHandler serves the active notifications and dismisses
// one by id on DELETE.
func (h *APIHandler) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, http.StatusOK, h.engine.Snapshot().Notifications)
	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		h.engine.Dismiss(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// TradeRequest is the body of POST /api/trade.
type TradeRequest struct {
	Action   string  `json:"action"`
	Symbol   string  `json:"symbol"`
	Quantity int     `json:"quantity,omitempty"`
	Percent  float64 `json:"percent,omitempty"`
}

// TradeHandler executes a trade intent. Business rejections come back
// as 422 with a plain-language error; the warning notification has
// already been emitted by the engine.
func (h *APIHandler) TradeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var receipt portfolio.Receipt
	var err error
	switch req.Action {
	case "buy":
		receipt, err = h.engine.Buy(req.Symbol, req.Quantity)
	case "sell":
		receipt, err = h.engine.Sell(req.Symbol, req.Quantity)
	case "buy_all":
		receipt, err = h.engine.BuyAll(req.Symbol)
	case "sell_all":
		receipt, err = h.engine.SellAll(req.Symbol)
	case "quick_buy":
		receipt, err = h.engine.QuickBuy(req.Symbol, req.Percent)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	if err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, portfolio.ErrInsufficientFunds) &&
			!errors.Is(err, portfolio.ErrInvalidSale) &&
			!errors.Is(err, portfolio.ErrNoHoldings) &&
			!errors.Is(err, portfolio.ErrInvalidQuantity) {
			status = http.StatusNotFound // unknown symbol
		}
		h.writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, receipt)
}

// ResetHandler restores the portfolio to its starting state.
func (h *APIHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.engine.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// TradesHandler returns the session trade history, most recent first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.engine.Journal().History()
	if err != nil {
		h.log.Error("Failed to get trades from journal", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// StatisticsHandler calculates and returns trading statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Journal().Statistics()
	if err != nil {
		h.log.Error("Failed to calculate statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
