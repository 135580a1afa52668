package market

import (
	"fmt"
	"math/rand"
	"sync"
)

// Quote is the live state of one instrument: its static definition plus
// the current price and the cumulative percent change since simulation
// start. ChangePct is always computed against the immutable base price,
// not the previous tick's price.
type Quote struct {
	Definition
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
}

// Book holds the live quotes for every instrument and evolves them on
// each price tick. All mutation happens behind the mutex and replaces
// the whole snapshot at once, so readers never observe a half-updated
// tick.
type Book struct {
	mu      sync.RWMutex
	rng     *rand.Rand
	perturb float64 // max fractional move per tick, e.g. 0.025 for ±2.5%
	floor   float64 // strictly positive minimum price
	quotes  []Quote
}

// NewBook seeds a live book from the registry definitions. The random
// source is injected so tests can supply a deterministic sequence.
func NewBook(defs []Definition, rng *rand.Rand, perturbPct, floor float64) *Book {
	quotes := make([]Quote, len(defs))
	for i, def := range defs {
		quotes[i] = Quote{
			Definition: def,
			Price:      def.BasePrice,
			ChangePct:  changePct(def.BasePrice, def.BasePrice),
		}
	}
	return &Book{
		rng:     rng,
		perturb: perturbPct / 100,
		floor:   floor,
		quotes:  quotes,
	}
}

// Tick evolves every instrument's price by one step of a bounded random
// walk and commits the result as a single new snapshot. Returns the
// committed snapshot.
func (b *Book) Tick() []Quote {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]Quote, len(b.quotes))
	for i, q := range b.quotes {
		delta := (b.rng.Float64()*2 - 1) * b.perturb
		price := q.Price * (1 + delta)
		if price < b.floor {
			price = b.floor
		}
		q.Price = price
		q.ChangePct = changePct(price, q.BasePrice)
		next[i] = q
	}
	b.quotes = next

	return b.snapshotLocked()
}

// Quotes returns a copy of the current committed snapshot.
func (b *Book) Quotes() []Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Price returns the current price of the instrument with the given
// ticker symbol.
func (b *Book) Price(symbol string) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, q := range b.quotes {
		if q.Symbol == symbol {
			return q.Price, nil
		}
	}
	return 0, fmt.Errorf("no quote for symbol %s", symbol)
}

func (b *Book) snapshotLocked() []Quote {
	out := make([]Quote, len(b.quotes))
	copy(out, b.quotes)
	return out
}

// changePct computes cumulative drift against the base price. A zero or
// negative base should never come out of the registry, but the math must
// not blow up if it does.
func changePct(price, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (price - base) / base * 100
}
