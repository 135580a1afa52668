package news

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"finlit-sim-go/internal/market"
)

// Sentiment tags for news items.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Headline is a static pool entry. Sectors name the sector tags whose
// instruments the story affects; an empty list means market-wide.
type Headline struct {
	Text      string
	Sentiment string
	Sectors   []string
}

// Item is one emitted news story. Items are immutable after creation.
type Item struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Headline  string    `json:"headline"`
	Sentiment string    `json:"sentiment"`
	Symbols   []string  `json:"symbols,omitempty"`
}

// Pool returns the static headline pool the generator draws from.
func Pool() []Headline {
	return []Headline{
		{Text: "Tech giants rally on strong earnings reports", Sentiment: SentimentPositive, Sectors: []string{market.SectorTech}},
		{Text: "Chip shortage fears weigh on hardware makers", Sentiment: SentimentNegative, Sectors: []string{market.SectorTech}},
		{Text: "Record EV deliveries beat analyst expectations", Sentiment: SentimentPositive, Sectors: []string{market.SectorAuto}},
		{Text: "Recall announcement rattles automakers", Sentiment: SentimentNegative, Sectors: []string{market.SectorAuto}},
		{Text: "Oil prices climb as supply tightens", Sentiment: SentimentPositive, Sectors: []string{market.SectorEnergy}},
		{Text: "Regulators probe refinery emissions", Sentiment: SentimentNegative, Sectors: []string{market.SectorEnergy}},
		{Text: "Banks post solid quarterly profits", Sentiment: SentimentPositive, Sectors: []string{market.SectorFinance}},
		{Text: "Interest rate uncertainty pressures lenders", Sentiment: SentimentNegative, Sectors: []string{market.SectorFinance}},
		{Text: "Holiday shopping season off to a strong start", Sentiment: SentimentPositive, Sectors: []string{market.SectorRetail}},
		{Text: "Drug trial results impress investors", Sentiment: SentimentPositive, Sectors: []string{market.SectorHealth}},
		{Text: "Markets drift sideways in quiet session", Sentiment: SentimentNeutral},
		{Text: "Investors await the next jobs report", Sentiment: SentimentNeutral},
	}
}

// Feed generates news items from a static pool and keeps a bounded
// recency buffer, newest first. The random source is injected so tests
// can pin the selection.
type Feed struct {
	mu    sync.Mutex
	rng   *rand.Rand
	pool  []Headline
	defs  []market.Definition
	max   int
	items []Item
}

// NewFeed creates a feed over the given headline pool and instrument
// registry, retaining at most max items.
func NewFeed(pool []Headline, defs []market.Definition, rng *rand.Rand, max int) *Feed {
	return &Feed{
		rng:  rng,
		pool: pool,
		defs: defs,
		max:  max,
	}
}

// Emit picks one headline uniformly at random, resolves its sectors to
// concrete ticker symbols, and inserts the resulting item at the front
// of the buffer, evicting the oldest beyond the bound.
func (f *Feed) Emit() Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := f.pool[f.rng.Intn(len(f.pool))]
	item := Item{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Headline:  h.Text,
		Sentiment: h.Sentiment,
		Symbols:   market.SymbolsInSectors(f.defs, h.Sectors),
	}

	f.items = append([]Item{item}, f.items...)
	if len(f.items) > f.max {
		f.items = f.items[:f.max]
	}
	return item
}

// Items returns a copy of the buffer, newest first.
func (f *Feed) Items() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}
