// Package clock provides the injectable business-time source. All schedule
// decisions (working hours, delivery days, capacity bucket keys) go through
// it so they can be pinned in tests.
package clock

import "time"

// Clock yields the current time in the business timezone.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Business is the wall clock fixed to the shop's timezone.
type Business struct {
	loc *time.Location
}

// NewBusiness loads the given IANA timezone, e.g. "Europe/Berlin".
func NewBusiness(tz string) (*Business, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Business{loc: loc}, nil
}

func (b *Business) Now() time.Time { return time.Now().In(b.loc) }
