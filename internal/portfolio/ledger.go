package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Business errors returned by ledger operations. These are expected,
// recoverable conditions that callers surface to the user; none of them
// is fatal.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidSale       = errors.New("invalid sale")
	ErrNoHoldings        = errors.New("no holdings")
	ErrInvalidQuantity   = errors.New("invalid quantity")
)

// Trade sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Holding is a position in one instrument: share count plus the
// weighted-average price paid per share.
type Holding struct {
	Symbol    string  `json:"symbol"`
	Shares    int     `json:"shares"`
	CostBasis float64 `json:"cost_basis"`
}

// Receipt describes an executed trade for reporting. Profit is the
// realized gain or loss and is only set on sells.
type Receipt struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
	Profit   float64 `json:"profit"`
}

// Ledger tracks the player's cash balance and holdings. All mutation
// goes through Buy/Sell and their variants; cash never goes negative
// and a holding with zero shares is removed, never retained.
//
// Monetary values are float64 end to end; rounding to two decimals is a
// presentation concern, kept out of the ledger so repeated cost-basis
// recomputation doesn't compound rounding error.
type Ledger struct {
	mu           sync.Mutex
	startingCash float64
	cash         float64
	holdings     map[string]Holding
}

// NewLedger creates a ledger with the given starting cash balance.
func NewLedger(startingCash float64) *Ledger {
	return &Ledger{
		startingCash: startingCash,
		cash:         startingCash,
		holdings:     make(map[string]Holding),
	}
}

// Buy purchases quantity shares at the given price. On the first buy of
// an instrument the cost basis is the purchase price; further buys
// recompute it as a running weighted average.
func (l *Ledger) Buy(symbol string, price float64, quantity int) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buyLocked(symbol, price, quantity)
}

// buyLocked is the buy path shared by Buy and its whole-balance
// variants. The caller must hold l.mu.
func (l *Ledger) buyLocked(symbol string, price float64, quantity int) (Receipt, error) {
	if quantity < 1 {
		return Receipt{}, fmt.Errorf("buy %s: quantity must be at least 1: %w", symbol, ErrInvalidQuantity)
	}

	total := price * float64(quantity)
	if total > l.cash {
		return Receipt{}, fmt.Errorf("buy %d %s @ %.2f needs %.2f but only %.2f available: %w",
			quantity, symbol, price, total, l.cash, ErrInsufficientFunds)
	}

	l.cash -= total

	h, ok := l.holdings[symbol]
	if !ok {
		h = Holding{Symbol: symbol, Shares: quantity, CostBasis: price}
	} else {
		oldQty := float64(h.Shares)
		newQty := float64(quantity)
		h.CostBasis = (h.CostBasis*oldQty + price*newQty) / (oldQty + newQty)
		h.Shares += quantity
	}
	l.holdings[symbol] = h

	return Receipt{
		Symbol:   symbol,
		Side:     SideBuy,
		Quantity: quantity,
		Price:    price,
		Total:    total,
	}, nil
}

// Sell disposes of quantity shares at the given price and reports the
// realized profit against the weighted-average cost basis. Selling the
// full position removes the holding.
func (l *Ledger) Sell(symbol string, price float64, quantity int) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sellLocked(symbol, price, quantity)
}

// sellLocked is the sell path shared by Sell and SellAll. The caller
// must hold l.mu.
func (l *Ledger) sellLocked(symbol string, price float64, quantity int) (Receipt, error) {
	if quantity < 1 {
		return Receipt{}, fmt.Errorf("sell %s: quantity must be at least 1: %w", symbol, ErrInvalidQuantity)
	}

	h, ok := l.holdings[symbol]
	if !ok {
		return Receipt{}, fmt.Errorf("sell %s: no shares held: %w", symbol, ErrInvalidSale)
	}
	if quantity > h.Shares {
		return Receipt{}, fmt.Errorf("sell %d %s but only %d held: %w",
			quantity, symbol, h.Shares, ErrInvalidSale)
	}

	total := price * float64(quantity)
	profit := (price - h.CostBasis) * float64(quantity)

	l.cash += total
	h.Shares -= quantity
	if h.Shares == 0 {
		delete(l.holdings, symbol)
	} else {
		l.holdings[symbol] = h
	}

	return Receipt{
		Symbol:   symbol,
		Side:     SideSell,
		Quantity: quantity,
		Price:    price,
		Total:    total,
		Profit:   profit,
	}, nil
}

// BuyAll buys as many shares as the current cash balance affords. The
// affordable quantity is computed and spent under one lock, so a
// concurrent trade cannot invalidate it in between.
func (l *Ledger) BuyAll(symbol string, price float64) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	maxAffordable := int(math.Floor(l.cash / price))
	if maxAffordable < 1 {
		return Receipt{}, fmt.Errorf("buy all %s @ %.2f: %w", symbol, price, ErrInsufficientFunds)
	}
	return l.buyLocked(symbol, price, maxAffordable)
}

// SellAll sells the entire held position in the instrument. The share
// count is read and sold under one lock.
func (l *Ledger) SellAll(symbol string, price float64) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holdings[symbol]
	if !ok {
		return Receipt{}, fmt.Errorf("sell all %s: no shares held: %w", symbol, ErrNoHoldings)
	}
	return l.sellLocked(symbol, price, h.Shares)
}

// QuickBuy invests a percentage of the current cash balance, buying
// however many whole shares that amount affords. The amount is derived
// from the balance and spent under one lock.
func (l *Ledger) QuickBuy(symbol string, price float64, percentOfCash float64) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	investAmount := l.cash * percentOfCash / 100
	shares := int(math.Floor(investAmount / price))
	if shares < 1 {
		return Receipt{}, fmt.Errorf("quick buy %.0f%% of cash in %s @ %.2f: %w",
			percentOfCash, symbol, price, ErrInsufficientFunds)
	}
	return l.buyLocked(symbol, price, shares)
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Holdings returns a copy of the current holdings, ordered by symbol.
func (l *Ledger) Holdings() []Holding {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Value sums the market value of all holdings at the given prices.
// Pure and side-effect free; instruments missing from the price map
// contribute nothing.
func (l *Ledger) Value(prices map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total float64
	for symbol, h := range l.holdings {
		total += prices[symbol] * float64(h.Shares)
	}
	return total
}

// UnrealizedReturn is the paper gain or loss on all held positions at
// the given prices.
func (l *Ledger) UnrealizedReturn(prices map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total float64
	for symbol, h := range l.holdings {
		total += (prices[symbol] - h.CostBasis) * float64(h.Shares)
	}
	return total
}

// Reset restores the starting cash balance and clears all holdings.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cash = l.startingCash
	l.holdings = make(map[string]Holding)
}
