package apoddate

import (
	"math/rand"
	"time"

	errs "apodget/pkg/errors"
)

// Picker samples dates uniformly between a lower bound and the current moment
type Picker struct {
	// Clock returns the upper bound of the sampling range
	Clock func() time.Time
	// Rand is the uniform source; nil uses a time-seeded source
	Rand *rand.Rand
}

// NewPicker creates a picker using the wall clock and the given seed
func NewPicker(seed int64) *Picker {
	return &Picker{
		Clock: time.Now,
		Rand:  rand.New(rand.NewSource(seed)),
	}
}

// Pick returns the calendar date of an instant drawn uniformly from
// [lower, now). Repeated calls may return the same date.
func (p *Picker) Pick(lower time.Time) (time.Time, error) {
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	now := clock()
	if !lower.Before(now) {
		return time.Time{}, errs.Newf(errs.ErrorTypeValidation,
			"earliest date %s is not before now (%s)", lower.Format("2006-01-02"), now.Format("2006-01-02 15:04"))
	}

	span := now.Sub(lower).Seconds()
	offset := time.Duration(p.Rand.Float64()*span) * time.Second
	instant := lower.Add(offset).In(now.Location())

	return Midnight(instant), nil
}
