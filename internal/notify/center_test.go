package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmit_AppendsInInsertionOrder(t *testing.T) {
	// Arrange
	c := NewCenter(time.Minute)

	// Act
	first := c.Emit(KindSuccess, "Bought 10 AAPL", "Spent 1750.00 at 175.00 per share.", &Detail{Shares: 10, Price: 175, Total: 1750})
	second := c.Emit(KindWarning, "Trade rejected", "Not enough cash for this purchase.", nil)

	// Assert
	active := c.Active()
	assert.Len(t, active, 2)
	assert.Equal(t, first, active[0].ID)
	assert.Equal(t, second, active[1].ID)
	assert.Equal(t, KindSuccess, active[0].Kind)
	assert.NotNil(t, active[0].Detail)
	assert.Equal(t, 10, active[0].Detail.Shares)
	assert.Nil(t, active[1].Detail)
}

func TestAutoExpiry(t *testing.T) {
	// Arrange: a very short display duration
	c := NewCenter(20 * time.Millisecond)

	// Act
	c.Emit(KindInfo, "Portfolio reset", "Cash restored.", nil)

	// Assert: present now, gone after the TTL
	assert.Len(t, c.Active(), 1)
	assert.Eventually(t, func() bool {
		return len(c.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDismiss_CancelsPendingTimer(t *testing.T) {
	// Arrange
	c := NewCenter(30 * time.Millisecond)
	id := c.Emit(KindSuccess, "Sold 5 AAPL", "Received 1000.00.", nil)
	keep := c.Emit(KindInfo, "still here", "", nil)

	// Act: dismiss before the timer fires
	c.Dismiss(id)

	// Assert: the timer firing later must not touch the survivor
	assert.Len(t, c.Active(), 1)
	time.Sleep(60 * time.Millisecond)
	// keep expired on its own schedule; the dismissed one caused no double removal
	_ = keep
	assert.Empty(t, c.Active())
}

func TestDismiss_UnknownIDIsNoop(t *testing.T) {
	c := NewCenter(time.Minute)
	c.Emit(KindInfo, "a", "b", nil)

	c.Dismiss("does-not-exist")

	assert.Len(t, c.Active(), 1)
}

func TestCancelAll(t *testing.T) {
	// Arrange
	c := NewCenter(time.Minute)
	c.Emit(KindSuccess, "one", "", nil)
	c.Emit(KindInfo, "two", "", nil)

	// Act
	c.CancelAll()

	// Assert
	assert.Empty(t, c.Active())
	// Emitting after teardown still works; the center itself is reusable.
	c.Emit(KindInfo, "three", "", nil)
	assert.Len(t, c.Active(), 1)
}
