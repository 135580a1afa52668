package portfolio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuy_CreatesHolding(t *testing.T) {
	// Arrange
	l := NewLedger(10000)

	// Act
	receipt, err := l.Buy("AAPL", 175, 10)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, SideBuy, receipt.Side)
	assert.Equal(t, 1750.0, receipt.Total)
	assert.Equal(t, 8250.0, l.Cash())

	holdings := l.Holdings()
	assert.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.Equal(t, 10, holdings[0].Shares)
	assert.Equal(t, 175.0, holdings[0].CostBasis)
}

func TestBuy_InsufficientFunds(t *testing.T) {
	// Arrange
	l := NewLedger(100)

	// Act
	_, err := l.Buy("AAPL", 175, 1)

	// Assert
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 100.0, l.Cash())
	assert.Empty(t, l.Holdings())
}

func TestBuy_WeightedAverageCostBasis(t *testing.T) {
	// Arrange
	l := NewLedger(100000)

	// Act: 10 @ 100, then 30 @ 200
	_, err := l.Buy("MSFT", 100, 10)
	assert.NoError(t, err)
	_, err = l.Buy("MSFT", 200, 30)
	assert.NoError(t, err)

	// Assert: (10*100 + 30*200) / 40 = 175
	holdings := l.Holdings()
	assert.Len(t, holdings, 1)
	assert.Equal(t, 40, holdings[0].Shares)
	assert.InDelta(t, 175.0, holdings[0].CostBasis, 1e-9)
}

func TestBuy_InvalidQuantity(t *testing.T) {
	l := NewLedger(10000)

	_, err := l.Buy("AAPL", 175, 0)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 10000.0, l.Cash())
}

func TestSell_ReportsRealizedProfit(t *testing.T) {
	// Arrange: the 10-shares-at-175 scenario
	l := NewLedger(10000)
	_, err := l.Buy("AAPL", 175, 10)
	assert.NoError(t, err)
	assert.Equal(t, 8250.0, l.Cash())

	// Act: sell 5 at 200
	receipt, err := l.Sell("AAPL", 200, 5)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 9250.0, l.Cash())
	assert.InDelta(t, 125.0, receipt.Profit, 1e-9) // (200-175)*5

	holdings := l.Holdings()
	assert.Len(t, holdings, 1)
	assert.Equal(t, 5, holdings[0].Shares)
	assert.Equal(t, 175.0, holdings[0].CostBasis)
}

func TestSell_FullPositionRemovesHolding(t *testing.T) {
	// Arrange
	l := NewLedger(10000)
	_, err := l.Buy("TSLA", 220, 4)
	assert.NoError(t, err)

	// Act
	_, err = l.Sell("TSLA", 220, 4)

	// Assert: no zero-share holding persists
	assert.NoError(t, err)
	assert.Empty(t, l.Holdings())
}

func TestSell_InvalidSale(t *testing.T) {
	l := NewLedger(10000)
	_, err := l.Buy("AAPL", 175, 2)
	assert.NoError(t, err)

	t.Run("MoreThanHeld", func(t *testing.T) {
		_, err := l.Sell("AAPL", 200, 3)
		assert.ErrorIs(t, err, ErrInvalidSale)
		assert.Equal(t, 10000.0-350.0, l.Cash())
	})

	t.Run("NothingHeld", func(t *testing.T) {
		_, err := l.Sell("GOOGL", 145, 1)
		assert.ErrorIs(t, err, ErrInvalidSale)
	})
}

func TestBuyAll(t *testing.T) {
	t.Run("BuysMaxAffordable", func(t *testing.T) {
		// Arrange
		l := NewLedger(1000)

		// Act: floor(1000/220) = 4 shares
		receipt, err := l.BuyAll("TSLA", 220)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 4, receipt.Quantity)
		assert.Equal(t, 120.0, l.Cash())
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		l := NewLedger(100)

		_, err := l.BuyAll("AAPL", 175)

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, 100.0, l.Cash())
	})
}

func TestSellAll(t *testing.T) {
	t.Run("LiquidatesPosition", func(t *testing.T) {
		// Arrange
		l := NewLedger(10000)
		_, err := l.Buy("WMT", 68, 12)
		assert.NoError(t, err)

		// Act
		receipt, err := l.SellAll("WMT", 70)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 12, receipt.Quantity)
		assert.Empty(t, l.Holdings())
	})

	t.Run("NoHoldings", func(t *testing.T) {
		l := NewLedger(10000)

		_, err := l.SellAll("WMT", 70)

		assert.ErrorIs(t, err, ErrNoHoldings)
	})
}

func TestQuickBuy(t *testing.T) {
	t.Run("InvestsPercentOfCash", func(t *testing.T) {
		// Arrange
		l := NewLedger(1000)

		// Act: 25% of 1000 = 250, floor(250/145) = 1 share
		receipt, err := l.QuickBuy("GOOGL", 145, 25)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 1, receipt.Quantity)
		assert.Equal(t, 855.0, l.Cash())
	})

	t.Run("TooSmall", func(t *testing.T) {
		l := NewLedger(1000)

		// 10% of 1000 = 100, can't afford one 175 share
		_, err := l.QuickBuy("AAPL", 175, 10)

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, 1000.0, l.Cash())
	})
}

func TestValueAndUnrealizedReturn(t *testing.T) {
	// Arrange
	l := NewLedger(10000)
	_, err := l.Buy("AAPL", 175, 10)
	assert.NoError(t, err)
	_, err = l.Buy("TSLA", 220, 2)
	assert.NoError(t, err)

	prices := map[string]float64{"AAPL": 200, "TSLA": 210}

	// Act + Assert
	assert.InDelta(t, 200*10+210*2.0, l.Value(prices), 1e-9)
	assert.InDelta(t, (200-175)*10+(210-220)*2.0, l.UnrealizedReturn(prices), 1e-9)
}

func TestReset_Idempotent(t *testing.T) {
	// Arrange
	l := NewLedger(10000)
	_, err := l.Buy("AAPL", 175, 10)
	assert.NoError(t, err)

	// Act: twice in a row
	l.Reset()
	l.Reset()

	// Assert
	assert.Equal(t, 10000.0, l.Cash())
	assert.Empty(t, l.Holdings())
}

func TestSellAll_AtomicUnderConcurrentSells(t *testing.T) {
	// Arrange: repeatedly race SellAll against a single-share Sell. If
	// SellAll read the share count and sold it as two separate steps, the
	// interleaved Sell could shrink the position in between and SellAll
	// would report an invalid sale despite shares being held.
	for i := 0; i < 100; i++ {
		l := NewLedger(100000)
		_, err := l.Buy("AAPL", 100, 10)
		assert.NoError(t, err)

		var wg sync.WaitGroup
		var sellAllErr, sellErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, sellAllErr = l.SellAll("AAPL", 100)
		}()
		go func() {
			defer wg.Done()
			_, sellErr = l.Sell("AAPL", 100, 1)
		}()
		wg.Wait()

		// Act + Assert: whichever order they ran in, SellAll may find the
		// position already gone but must never oversell.
		if sellAllErr != nil {
			assert.ErrorIs(t, sellAllErr, ErrNoHoldings)
		}
		if sellErr != nil {
			assert.ErrorIs(t, sellErr, ErrInvalidSale)
		}
		assert.Empty(t, l.Holdings(), "every held share should have been sold")
		assert.Equal(t, 100000.0, l.Cash())
	}
}

func TestBuyAll_AtomicUnderConcurrentBuys(t *testing.T) {
	// Arrange: two BuyAll calls race for the same balance. Each must
	// compute its quantity against the cash it actually spends, so the
	// combined spend can never exceed the starting balance.
	for i := 0; i < 100; i++ {
		l := NewLedger(1000)

		var wg sync.WaitGroup
		wg.Add(2)
		for j := 0; j < 2; j++ {
			go func() {
				defer wg.Done()
				_, _ = l.BuyAll("TSLA", 220)
			}()
		}
		wg.Wait()

		// Assert
		assert.GreaterOrEqual(t, l.Cash(), 0.0)
		holdings := l.Holdings()
		assert.Len(t, holdings, 1)
		assert.Equal(t, 4, holdings[0].Shares)
	}
}
