package market

// Definition is a static instrument definition from the registry.
// Base prices are the reference for cumulative percent change and are
// never mutated after simulation start.
type Definition struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Glyph     string  `json:"glyph"`
	BasePrice float64 `json:"base_price"`
}

// Sector tags used by the registry and the news headline pool.
const (
	SectorTech    = "tech"
	SectorAuto    = "auto"
	SectorEnergy  = "energy"
	SectorFinance = "finance"
	SectorRetail  = "retail"
	SectorHealth  = "health"
)

// Registry returns the ordered list of tradable instruments.
// Consumed once at simulation start to seed the live book.
func Registry() []Definition {
	return []Definition{
		{ID: "aapl", Symbol: "AAPL", Name: "Apple Inc.", Sector: SectorTech, Glyph: "\U0001F34E", BasePrice: 175},
		{ID: "googl", Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: SectorTech, Glyph: "\U0001F50D", BasePrice: 145},
		{ID: "msft", Symbol: "MSFT", Name: "Microsoft Corp.", Sector: SectorTech, Glyph: "\U0001F4BB", BasePrice: 380},
		{ID: "tsla", Symbol: "TSLA", Name: "Tesla Inc.", Sector: SectorAuto, Glyph: "\U0001F697", BasePrice: 220},
		{ID: "xom", Symbol: "XOM", Name: "Exxon Mobil Corp.", Sector: SectorEnergy, Glyph: "⛽", BasePrice: 105},
		{ID: "jpm", Symbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: SectorFinance, Glyph: "\U0001F3E6", BasePrice: 195},
		{ID: "wmt", Symbol: "WMT", Name: "Walmart Inc.", Sector: SectorRetail, Glyph: "\U0001F6D2", BasePrice: 68},
		{ID: "jnj", Symbol: "JNJ", Name: "Johnson & Johnson", Sector: SectorHealth, Glyph: "\U0001F48A", BasePrice: 155},
	}
}

// SymbolsInSectors filters the registry for instruments whose sector tag
// matches any of the given sectors, returning their ticker symbols.
func SymbolsInSectors(defs []Definition, sectors []string) []string {
	var symbols []string
	for _, def := range defs {
		for _, sector := range sectors {
			if def.Sector == sector {
				symbols = append(symbols, def.Symbol)
				break
			}
		}
	}
	return symbols
}
