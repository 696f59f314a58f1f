// Package session is the conversational order state machine: one transient
// session per user, advanced field by field as the customer answers, and
// handed over to the order ledger on payment confirmation.
package session

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Step is the input the session is currently waiting for.
type Step int

const (
	StepQuantity Step = iota + 1
	StepCutleryChoice
	StepCutleryQuantity
	StepPostcode
	StepStreet
	StepPickupConfirm
	StepFullName
	StepPhone
	StepAddress
	StepSlotSelect
	StepPay
	stepSetEmergency // admin typing the emergency notice
)

// Session is one user's in-flight order. Created on food (or slot)
// selection, destroyed on cancel, hand-off, or idle expiry.
type Session struct {
	Step Step

	FoodKey   string
	FoodName  string
	UnitPrice decimal.Decimal

	Quantity        int
	CutleryQuantity int

	DeliveryMethod string
	DeliveryDay    time.Time // slot mode only
	SlotKey        string    // slot mode only

	Postcode string
	Street   string
	FullName string
	Phone    string
	Address  string

	FoodTotal decimal.Decimal
	Total     decimal.Decimal

	PaymentMethod string
}

// userEntry serializes all processing for one user: two rapid messages from
// the same user can never interleave mid-transition.
type userEntry struct {
	mu      sync.Mutex
	sess    *Session
	touched time.Time
}

// Registry owns the per-user conversation state.
type Registry struct {
	mu    sync.Mutex
	users map[int64]*userEntry
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[int64]*userEntry)}
}

// entry returns the user's slot, creating it on first use.
func (r *Registry) entry(userID int64) *userEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.users[userID]
	if !ok {
		e = &userEntry{}
		r.users[userID] = e
	}
	return e
}

// ExpireIdle drops sessions untouched for longer than maxIdle and evicts
// their registry slots. discard runs on each dropped session so the caller
// can return any capacity the session still held.
func (r *Registry) ExpireIdle(now time.Time, maxIdle time.Duration, discard func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.users {
		e.mu.Lock()
		stale := now.Sub(e.touched) > maxIdle
		if stale {
			if e.sess != nil && discard != nil {
				discard(e.sess)
			}
			e.sess = nil
		}
		e.mu.Unlock()
		if stale {
			delete(r.users, id)
		}
	}
}
