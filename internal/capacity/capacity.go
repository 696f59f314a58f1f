// Package capacity tracks how much of the day's stock and of each delivery
// window is already spoken for. All counters live behind one mutex; the
// check and the commit of a reservation happen inside a single critical
// section so concurrent orders can never oversell.
package capacity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chaschni/orderbot/internal/calendar"
)

const (
	DefaultDailyCap     = 15
	DefaultSlotCapacity = 2
)

// DailyUsage answers how much of a food was already sold for a fulfillment
// day, from the durable store. Satisfied by *service.OrderService.
type DailyUsage interface {
	SoldQuantity(ctx context.Context, foodKey string, day time.Time) (int, error)
}

// Error reports a rejected reservation and how much room was left.
type Error struct {
	Remaining int
}

func (e *Error) Error() string {
	if e.Remaining <= 0 {
		return "capacity exhausted"
	}
	return fmt.Sprintf("only %d remaining", e.Remaining)
}

type dailyBucket struct {
	sold int
}

// Ledger owns the consumed-quantity counters. Daily buckets are seeded from
// the durable store on first touch and advanced in memory on each commit;
// slot counters are plain in-memory counts, rebuilt via RestoreSlot after a
// restart.
type Ledger struct {
	store        DailyUsage
	dailyCap     int
	slotCapacity int

	mu    sync.Mutex
	daily map[string]*dailyBucket
	slots map[string]int
}

func New(store DailyUsage, dailyCap, slotCapacity int) *Ledger {
	return &Ledger{
		store:        store,
		dailyCap:     dailyCap,
		slotCapacity: slotCapacity,
		daily:        make(map[string]*dailyBucket),
		slots:        make(map[string]int),
	}
}

// DailyCap is the per-food sell-through limit per day.
func (l *Ledger) DailyCap() int { return l.dailyCap }

func dailyKey(foodKey string, day time.Time) string {
	return foodKey + "|" + day.Format("2006-01-02")
}

// bucket returns the counter for (food, day), seeding it from the store on
// first use. The store query runs outside the lock; initialization is
// re-checked under it.
func (l *Ledger) bucket(ctx context.Context, foodKey string, day time.Time) (*dailyBucket, error) {
	key := dailyKey(foodKey, day)

	l.mu.Lock()
	b, ok := l.daily[key]
	l.mu.Unlock()
	if ok {
		return b, nil
	}

	sold, err := l.store.SoldQuantity(ctx, foodKey, day)
	if err != nil {
		return nil, fmt.Errorf("seed capacity bucket: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.daily[key]; !ok {
		b = &dailyBucket{sold: sold}
		l.daily[key] = b
	}
	return b, nil
}

// Remaining reports how many units of a food are still sellable on the given
// fulfillment day. Informational: only CommitDaily binds capacity.
func (l *Ledger) Remaining(ctx context.Context, foodKey string, day time.Time) (int, error) {
	b, err := l.bucket(ctx, foodKey, day)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyCap - b.sold, nil
}

// CommitDaily consumes qty units of the day's stock, or rejects with *Error
// without consuming anything. Check and commit share one critical section.
func (l *Ledger) CommitDaily(ctx context.Context, foodKey string, day time.Time, qty int) error {
	b, err := l.bucket(ctx, foodKey, day)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	remaining := l.dailyCap - b.sold
	if qty > remaining {
		return &Error{Remaining: max(remaining, 0)}
	}
	b.sold += qty
	return nil
}

// ReleaseDaily hands qty units back, e.g. when the durable insert fails
// after a commit, or when an admin cancels an order.
func (l *Ledger) ReleaseDaily(foodKey string, day time.Time, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.daily[dailyKey(foodKey, day)]; ok {
		b.sold -= qty
		if b.sold < 0 {
			b.sold = 0
		}
	}
}

// ReserveSlot consumes one place in a delivery window. Returns false, and
// leaves the counter untouched, when the window is already full.
func (l *Ledger) ReserveSlot(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots[key] >= l.slotCapacity {
		return false
	}
	l.slots[key]++
	return true
}

// ReleaseSlot hands a slot place back.
func (l *Ledger) ReleaseSlot(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots[key] > 0 {
		l.slots[key]--
	}
}

// RestoreSlot seeds a slot counter from the durable store at startup.
func (l *Ledger) RestoreSlot(key string, consumed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots[key] = consumed
}

// AvailableSlots filters the day's windows down to those with room left.
func (l *Ledger) AvailableSlots(slots []calendar.Slot) []calendar.Slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	var free []calendar.Slot
	for _, s := range slots {
		if l.slots[s.Key()] < l.slotCapacity {
			free = append(free, s)
		}
	}
	return free
}

// DropBefore evicts daily buckets and slot counters older than the given day,
// letting aged-out keys be garbage collected.
func (l *Ledger) DropBefore(day time.Time) {
	cutoff := day.Format("2006-01-02")
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.daily {
		if d := key[len(key)-len(cutoff):]; d < cutoff {
			delete(l.daily, key)
		}
	}
	for key := range l.slots {
		if len(key) >= len(cutoff) && key[:len(cutoff)] < cutoff {
			delete(l.slots, key)
		}
	}
}
