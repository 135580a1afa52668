package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindSuccess = "success"
	KindWarning = "warning"
	KindInfo    = "info"
)

// Detail carries the structured trade payload attached to trade
// confirmations.
type Detail struct {
	Shares int     `json:"shares"`
	Price  float64 `json:"price"`
	Total  float64 `json:"total"`
	Profit float64 `json:"profit"`
}

// Notification is one transient user-facing event. Never mutated after
// creation; it either expires or is dismissed.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Detail    *Detail   `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Center records notifications and removes each one automatically after
// a fixed display duration. Dismiss cancels the pending expiry timer so
// a stale timer can't fire against a reused slot.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	active []Notification
	timers map[string]*time.Timer
}

// NewCenter creates a center whose notifications live for ttl.
func NewCenter(ttl time.Duration) *Center {
	return &Center{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Emit appends a notification and schedules its automatic removal.
// Returns the notification id.
func (c *Center) Emit(kind, title, message string, detail *Detail) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	c.active = append(c.active, n)
	c.timers[n.ID] = time.AfterFunc(c.ttl, func() { c.Dismiss(n.ID) })
	return n.ID
}

// Dismiss removes the notification immediately and cancels its pending
// expiry timer. Dismissing an unknown id is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			break
		}
	}
}

// Active returns a copy of the current notifications in insertion order.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// CancelAll stops every pending expiry timer and clears the active set.
// Called on simulation teardown so no timer fires after stop.
func (c *Center) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.active = nil
}
