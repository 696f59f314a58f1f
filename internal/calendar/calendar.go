// Package calendar decides when the shop takes orders: the working-time
// gate, the next valid delivery day for pre-orders, and the discrete
// delivery windows within a day.
package calendar

import (
	"fmt"
	"time"

	"github.com/chaschni/orderbot/internal/clock"
)

// Policy holds the service schedule. The zero value is not usable; construct
// with New.
type Policy struct {
	clock     clock.Clock
	workDays  map[time.Weekday]bool
	startHour int
	endHour   int

	slotMinutes int
}

// Option tweaks a Policy. Used mainly by tests.
type Option func(*Policy)

func WithHours(start, end int) Option {
	return func(p *Policy) { p.startHour, p.endHour = start, end }
}

func WithWorkDays(days ...time.Weekday) Option {
	return func(p *Policy) {
		p.workDays = make(map[time.Weekday]bool, len(days))
		for _, d := range days {
			p.workDays[d] = true
		}
	}
}

func WithSlotMinutes(m int) Option {
	return func(p *Policy) { p.slotMinutes = m }
}

// New returns the shop's schedule: service Monday and Thursday, orders taken
// 12:00-18:00, 30-minute delivery windows.
func New(clk clock.Clock, opts ...Option) *Policy {
	p := &Policy{
		clock:       clk,
		workDays:    map[time.Weekday]bool{time.Monday: true, time.Thursday: true},
		startHour:   12,
		endHour:     18,
		slotMinutes: 30,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsWorkingTime reports whether orders may be started at the given instant:
// a work day, within opening hours.
func (p *Policy) IsWorkingTime(now time.Time) bool {
	return p.workDays[now.Weekday()] && now.Hour() >= p.startHour && now.Hour() < p.endHour
}

// NextDeliveryDay maps today onto the next service day for pre-orders:
// Friday through Sunday roll to the coming Monday, Tuesday and Wednesday to
// the coming Thursday. On a service day itself there is no next day and
// ordering is disallowed (same-day pre-orders are off).
func (p *Policy) NextDeliveryDay(now time.Time) (time.Time, bool) {
	var ahead int
	switch now.Weekday() {
	case time.Friday:
		ahead = 3
	case time.Saturday:
		ahead = 2
	case time.Sunday:
		ahead = 1
	case time.Tuesday:
		ahead = 2
	case time.Wednesday:
		ahead = 1
	default:
		return time.Time{}, false
	}
	d := now.AddDate(0, 0, ahead)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()), true
}

// Slot is one fixed-width delivery window on a concrete date.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Key is the capacity bucket key for the slot: date plus start-end.
func (s Slot) Key() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d",
		s.Start.Format("2006-01-02"),
		s.Start.Hour(), s.Start.Minute(),
		s.End.Hour(), s.End.Minute())
}

// Label is the customer-facing rendering of the window.
func (s Slot) Label() string {
	return fmt.Sprintf("%02d:%02d – %02d:%02d",
		s.Start.Hour(), s.Start.Minute(), s.End.Hour(), s.End.Minute())
}

// Slots enumerates every delivery window on the given date, in order.
// Capacity filtering is the ledger's job.
func (p *Policy) Slots(date time.Time) []Slot {
	start := time.Date(date.Year(), date.Month(), date.Day(), p.startHour, 0, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), p.endHour, 0, 0, 0, date.Location())

	var slots []Slot
	width := time.Duration(p.slotMinutes) * time.Minute
	for t := start; t.Add(width).Before(end) || t.Add(width).Equal(end); t = t.Add(width) {
		slots = append(slots, Slot{Start: t, End: t.Add(width)})
	}
	return slots
}
