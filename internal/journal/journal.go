package journal

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"finlit-sim-go/internal/portfolio"
)

// Trade is one executed trade recorded in the session journal.
type Trade struct {
	gorm.Model
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"` // "BUY" or "SELL"
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
	Profit    float64 `json:"profit,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Journal records every executed trade for the current session. The
// default DSN is an in-memory sqlite database, so the journal lives and
// dies with the process.
type Journal struct {
	db *gorm.DB
}

// Open creates a journal on the given sqlite DSN and migrates the schema.
func Open(dsn string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := db.AutoMigrate(&Trade{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record saves an executed trade.
func (j *Journal) Record(r portfolio.Receipt) error {
	trade := Trade{
		Symbol:    r.Symbol,
		Side:      r.Side,
		Quantity:  r.Quantity,
		Price:     r.Price,
		Total:     r.Total,
		Profit:    r.Profit,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := j.db.Create(&trade).Error; err != nil {
		return fmt.Errorf("failed to save trade record: %w", err)
	}
	return nil
}

// History returns all recorded trades, most recent first.
func (j *Journal) History() ([]Trade, error) {
	var trades []Trade
	if err := j.db.Order("timestamp desc, id desc").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}
	return trades, nil
}

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalTrades      int64   `json:"total_trades"`
	ProfitableTrades int64   `json:"profitable_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalProfit      float64 `json:"total_profit"`
}

// Statistics is the aggregate view over the session's sells.
type Statistics struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// Statistics calculates win rate and realized profit over all sells,
// all-time and for the trailing 24 hours.
func (j *Journal) Statistics() (Statistics, error) {
	var sells []Trade
	if err := j.db.Where("side = ?", portfolio.SideSell).Find(&sells).Error; err != nil {
		return Statistics{}, fmt.Errorf("failed to load trades for statistics: %w", err)
	}

	since24h := time.Now().Add(-24 * time.Hour)

	var stats Statistics
	for _, trade := range sells {
		stats.AllTime.TotalTrades++
		if trade.Profit > 0 {
			stats.AllTime.ProfitableTrades++
		}
		stats.AllTime.TotalProfit += trade.Profit

		tradeTime := time.UnixMilli(trade.Timestamp)
		if tradeTime.After(since24h) {
			stats.Since24h.TotalTrades++
			if trade.Profit > 0 {
				stats.Since24h.ProfitableTrades++
			}
			stats.Since24h.TotalProfit += trade.Profit
		}
	}

	if stats.AllTime.TotalTrades > 0 {
		stats.AllTime.WinRate = float64(stats.AllTime.ProfitableTrades) / float64(stats.AllTime.TotalTrades)
	}
	if stats.Since24h.TotalTrades > 0 {
		stats.Since24h.WinRate = float64(stats.Since24h.ProfitableTrades) / float64(stats.Since24h.TotalTrades)
	}

	return stats, nil
}
