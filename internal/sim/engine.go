package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"finlit-sim-go/internal/config"
	"finlit-sim-go/internal/journal"
	"finlit-sim-go/internal/market"
	"finlit-sim-go/internal/news"
	"finlit-sim-go/internal/notify"
	"finlit-sim-go/internal/portfolio"
)

// Snapshot is one immutable view of the whole simulation, committed per
// price tick and on demand. Readers never see a half-updated tick.
type Snapshot struct {
	At               time.Time             `json:"at"`
	Quotes           []market.Quote        `json:"quotes"`
	Cash             float64               `json:"cash"`
	Holdings         []portfolio.Holding   `json:"holdings"`
	PortfolioValue   float64               `json:"portfolio_value"`
	UnrealizedReturn float64               `json:"unrealized_return"`
	News             []news.Item           `json:"news"`
	Notifications    []notify.Notification `json:"notifications"`
}

// Engine is the simulation context. It owns the market clock (price and
// news tickers), routes trade intents through the ledger into
// notifications and the journal, and publishes a fresh snapshot to
// subscribers on every price tick.
type Engine struct {
	logger  *zap.Logger
	cfg     *config.Config
	book    *market.Book
	ledger  *portfolio.Ledger
	feed    *news.Feed
	center  *notify.Center
	journal *journal.Journal

	mu   sync.Mutex
	subs map[int]chan Snapshot
	next int
}

// NewEngine wires up a simulation from the static registry and headline
// pool. The random source drives both price perturbation and news
// selection; tests inject a seeded one.
func NewEngine(logger *zap.Logger, cfg *config.Config, rng *rand.Rand, jnl *journal.Journal) *Engine {
	defs := market.Registry()
	return &Engine{
		logger:  logger,
		cfg:     cfg,
		book:    market.NewBook(defs, rng, cfg.Simulation.PerturbationPct, cfg.Simulation.PriceFloor),
		ledger:  portfolio.NewLedger(cfg.Simulation.StartingCash),
		feed:    news.NewFeed(news.Pool(), defs, rng, cfg.News.BufferSize),
		center:  notify.NewCenter(cfg.Notify.DisplayDuration),
		journal: jnl,
		subs:    make(map[int]chan Snapshot),
	}
}

// Run drives the market clock until the context is cancelled. The news
// buffer is seeded with a few staggered items first so the feed is
// non-empty immediately. Teardown cancels both tickers and every
// pending notification timer.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Starting simulation",
		zap.Duration("price_tick", e.cfg.Simulation.PriceTickInterval),
		zap.Duration("news_tick", e.cfg.News.TickInterval))

	for i := 0; i < e.cfg.News.SeedCount; i++ {
		select {
		case <-ctx.Done():
			e.teardown()
			return
		case <-time.After(e.cfg.News.SeedStagger):
			e.safeTick("news_seed", e.newsTick)
		}
	}

	priceTicker := time.NewTicker(e.cfg.Simulation.PriceTickInterval)
	defer priceTicker.Stop()
	newsTicker := time.NewTicker(e.cfg.News.TickInterval)
	defer newsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping simulation...")
			e.teardown()
			return
		case <-priceTicker.C:
			e.safeTick("price", e.priceTick)
		case <-newsTicker.C:
			e.safeTick("news", e.newsTick)
		}
	}
}

// safeTick runs a tick handler and keeps any panic from escaping the
// clock loop.
func (e *Engine) safeTick(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Tick handler panicked",
				zap.String("tick", name), zap.Any("panic", r))
		}
	}()
	fn()
}

func (e *Engine) priceTick() {
	quotes := e.book.Tick()
	e.logger.Debug("Price tick", zap.Int("instruments", len(quotes)))
	e.publish(e.snapshotFrom(quotes))
}

func (e *Engine) newsTick() {
	item := e.feed.Emit()
	e.logger.Debug("News tick",
		zap.String("headline", item.Headline),
		zap.String("sentiment", item.Sentiment))
}

func (e *Engine) teardown() {
	e.center.CancelAll()

	e.mu.Lock()
	defer e.mu.Unlock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
}

// Subscribe registers a snapshot subscriber. The returned cancel func
// removes it again. A slow subscriber misses snapshots rather than
// stalling the tick loop.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++
	ch := make(chan Snapshot, 1)
	e.subs[id] = ch

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if ch, ok := e.subs[id]; ok {
			close(ch)
			delete(e.subs, id)
		}
	}
}

func (e *Engine) publish(s Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
			// Drop the stale snapshot so the latest one can land.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Snapshot returns the current committed state on demand.
func (e *Engine) Snapshot() Snapshot {
	return e.snapshotFrom(e.book.Quotes())
}

func (e *Engine) snapshotFrom(quotes []market.Quote) Snapshot {
	prices := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		prices[q.Symbol] = q.Price
	}
	return Snapshot{
		At:               time.Now(),
		Quotes:           quotes,
		Cash:             e.ledger.Cash(),
		Holdings:         e.ledger.Holdings(),
		PortfolioValue:   e.ledger.Value(prices),
		UnrealizedReturn: e.ledger.UnrealizedReturn(prices),
		News:             e.feed.Items(),
		Notifications:    e.center.Active(),
	}
}

// Buy purchases quantity shares at the current market price.
func (e *Engine) Buy(symbol string, quantity int) (portfolio.Receipt, error) {
	return e.execute(symbol, func(price float64) (portfolio.Receipt, error) {
		return e.ledger.Buy(symbol, price, quantity)
	})
}

// Sell disposes of quantity shares at the current market price.
func (e *Engine) Sell(symbol string, quantity int) (portfolio.Receipt, error) {
	return e.execute(symbol, func(price float64) (portfolio.Receipt, error) {
		return e.ledger.Sell(symbol, price, quantity)
	})
}

// BuyAll spends as much cash as whole shares allow.
func (e *Engine) BuyAll(symbol string) (portfolio.Receipt, error) {
	return e.execute(symbol, func(price float64) (portfolio.Receipt, error) {
		return e.ledger.BuyAll(symbol, price)
	})
}

// SellAll liquidates the entire position.
func (e *Engine) SellAll(symbol string) (portfolio.Receipt, error) {
	return e.execute(symbol, func(price float64) (portfolio.Receipt, error) {
		return e.ledger.SellAll(symbol, price)
	})
}

// QuickBuy invests a percentage of current cash.
func (e *Engine) QuickBuy(symbol string, percentOfCash float64) (portfolio.Receipt, error) {
	return e.execute(symbol, func(price float64) (portfolio.Receipt, error) {
		return e.ledger.QuickBuy(symbol, price, percentOfCash)
	})
}

// execute resolves the current price, applies the ledger operation, and
// routes the outcome into exactly one notification. Failures are
// expected business conditions; they are surfaced to the user, never
// fatal.
func (e *Engine) execute(symbol string, op func(price float64) (portfolio.Receipt, error)) (portfolio.Receipt, error) {
	price, err := e.book.Price(symbol)
	if err != nil {
		e.logger.Warn("Trade rejected: unknown symbol", zap.String("symbol", symbol))
		e.center.Emit(notify.KindWarning, "Trade rejected", fmt.Sprintf("Unknown symbol %s.", symbol), nil)
		return portfolio.Receipt{}, err
	}

	receipt, err := op(price)
	if err != nil {
		e.logger.Warn("Trade rejected",
			zap.String("symbol", symbol), zap.Error(err))
		e.center.Emit(notify.KindWarning, "Trade rejected", rejectionMessage(err), nil)
		return portfolio.Receipt{}, err
	}

	e.logger.Info("Trade executed",
		zap.String("symbol", receipt.Symbol),
		zap.String("side", receipt.Side),
		zap.Int("quantity", receipt.Quantity),
		zap.Float64("price", receipt.Price),
		zap.Float64("total", receipt.Total),
		zap.Float64("profit", receipt.Profit))

	title := fmt.Sprintf("Bought %d %s", receipt.Quantity, receipt.Symbol)
	message := fmt.Sprintf("Spent %.2f at %.2f per share.", receipt.Total, receipt.Price)
	if receipt.Side == portfolio.SideSell {
		title = fmt.Sprintf("Sold %d %s", receipt.Quantity, receipt.Symbol)
		message = fmt.Sprintf("Received %.2f at %.2f per share.", receipt.Total, receipt.Price)
	}
	e.center.Emit(notify.KindSuccess, title, message, &notify.Detail{
		Shares: receipt.Quantity,
		Price:  receipt.Price,
		Total:  receipt.Total,
		Profit: receipt.Profit,
	})

	if e.journal != nil {
		if err := e.journal.Record(receipt); err != nil {
			// The trade already settled; a journal failure must not undo it.
			e.logger.Error("Failed to journal trade", zap.Error(err))
		}
	}

	return receipt, nil
}

// rejectionMessage translates a ledger error into plain language for
// the warning notification.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, portfolio.ErrInsufficientFunds):
		return "Not enough cash for this purchase."
	case errors.Is(err, portfolio.ErrNoHoldings):
		return "You don't own any shares of this stock."
	case errors.Is(err, portfolio.ErrInvalidSale):
		return "You can't sell more shares than you own."
	case errors.Is(err, portfolio.ErrInvalidQuantity):
		return "Quantity must be at least 1."
	default:
		return "The trade could not be completed."
	}
}

// Reset restores the portfolio to its starting state. Prices and news
// keep evolving; only cash and holdings are cleared.
func (e *Engine) Reset() {
	e.ledger.Reset()
	e.logger.Info("Portfolio reset", zap.Float64("cash", e.cfg.Simulation.StartingCash))
	e.center.Emit(notify.KindInfo, "Portfolio reset",
		fmt.Sprintf("Cash restored to %.2f and all positions cleared.", e.cfg.Simulation.StartingCash), nil)
}

// Journal exposes the session trade journal for the read API.
func (e *Engine) Journal() *journal.Journal {
	return e.journal
}

// Dismiss removes a notification immediately.
func (e *Engine) Dismiss(id string) {
	e.center.Dismiss(id)
}
