// Package market reports which instrument classes are open. Crypto and
// forex close on Saturday and Sunday; OTC trades around the clock.
package market

import (
	"time"

	"github.com/th3rrry/minees/internal/model"
)

// Reasons reported in Status.
const (
	ReasonCryptoAvailable = "crypto_available"
	ReasonCryptoClosed    = "crypto_weekend_closed"
	ReasonForexAvailable  = "forex_available"
	ReasonForexClosed     = "forex_weekend_closed"
	ReasonOTCAlways       = "otc_available_24_7"
	ReasonUnknown         = "unknown_market"
)

// Classes lists the markets in display order.
var Classes = []model.Class{model.ClassCrypto, model.ClassForex, model.ClassOTC}

type Status struct {
	Market        model.Class `json:"market"`
	Available     bool        `json:"isAvailable"`
	Reason        string      `json:"reason"`
	NextAvailable *time.Time  `json:"nextAvailable,omitempty"`
}

func IsWeekend(t time.Time) bool {
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}

// NextWorkingDay returns the first weekday after t, keeping t's clock time.
func NextWorkingDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for IsWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StatusOf evaluates one market at t.
func StatusOf(class model.Class, t time.Time) Status {
	closed := func(reason string) Status {
		next := NextWorkingDay(t)
		return Status{Market: class, Reason: reason, NextAvailable: &next}
	}
	switch class {
	case model.ClassCrypto:
		if IsWeekend(t) {
			return closed(ReasonCryptoClosed)
		}
		return Status{Market: class, Available: true, Reason: ReasonCryptoAvailable}
	case model.ClassForex:
		if IsWeekend(t) {
			return closed(ReasonForexClosed)
		}
		return Status{Market: class, Available: true, Reason: ReasonForexAvailable}
	case model.ClassOTC:
		return Status{Market: class, Available: true, Reason: ReasonOTCAlways}
	default:
		return Status{Market: class, Reason: ReasonUnknown}
	}
}

// Board evaluates every market against a clock.
type Board struct {
	now func() time.Time
	loc *time.Location
}

// NewBoard returns a Board reading now in loc. Nil arguments fall back to
// time.Now and UTC.
func NewBoard(now func() time.Time, loc *time.Location) *Board {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Board{now: now, loc: loc}
}

func (b *Board) All() []Status {
	t := b.now().In(b.loc)
	out := make([]Status, 0, len(Classes))
	for _, c := range Classes {
		out = append(out, StatusOf(c, t))
	}
	return out
}

func (b *Board) Available() []model.Class {
	var out []model.Class
	for _, s := range b.All() {
		if s.Available {
			out = append(out, s.Market)
		}
	}
	return out
}

func (b *Board) Unavailable() []model.Class {
	var out []model.Class
	for _, s := range b.All() {
		if !s.Available {
			out = append(out, s.Market)
		}
	}
	return out
}
