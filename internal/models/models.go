// Package models provides domain models for the position guard service.
package models

import (
	"time"
)

// Direction represents the side of an open position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// ExecutionMode represents the venue-declared execution category of an
// instrument (how entry prices are determined at fill time).
type ExecutionMode string

const (
	ExecutionRequest  ExecutionMode = "REQUEST"
	ExecutionInstant  ExecutionMode = "INSTANT"
	ExecutionMarket   ExecutionMode = "MARKET"
	ExecutionExchange ExecutionMode = "EXCHANGE"
)

// FillMode is a policy governing how a partially matchable order is handled.
type FillMode uint8

const (
	// FillReturn keeps any unfilled remainder working in the book.
	FillReturn FillMode = 1 << iota
	// FillIOC fills what it can immediately and cancels the remainder.
	FillIOC
	// FillFOK requires the full volume or nothing.
	FillFOK
	// FillBOC books the order without any immediate match. Pending
	// limit/stop-limit orders only.
	FillBOC
)

func (m FillMode) String() string {
	switch m {
	case FillReturn:
		return "RETURN"
	case FillIOC:
		return "IOC"
	case FillFOK:
		return "FOK"
	case FillBOC:
		return "BOC"
	default:
		return "UNKNOWN"
	}
}

// ParseFillMode maps a mode name to its FillMode.
func ParseFillMode(name string) (FillMode, bool) {
	switch name {
	case "RETURN":
		return FillReturn, true
	case "IOC":
		return FillIOC, true
	case "FOK":
		return FillFOK, true
	case "BOC":
		return FillBOC, true
	default:
		return 0, false
	}
}

// FillModeSet is a bitset of fill modes an instrument declares support for.
type FillModeSet uint8

// Has reports whether the set declares the given mode.
func (s FillModeSet) Has(m FillMode) bool {
	return s&FillModeSet(m) != 0
}

// With returns a copy of the set with the given mode added.
func (s FillModeSet) With(m FillMode) FillModeSet {
	return s | FillModeSet(m)
}

// Empty reports whether no mode is declared.
func (s FillModeSet) Empty() bool {
	return s == 0
}

// Instrument represents venue metadata for a tradeable symbol.
// Immutable per refresh; refreshed from the gateway on demand.
type Instrument struct {
	Symbol        string
	Point         float64 // minimal price increment
	Digits        int     // decimal precision of quotes
	VolumeMin     float64
	VolumeMax     float64
	VolumeStep    float64
	FillModes     FillModeSet
	ExecutionMode ExecutionMode
}

// Quote represents the last-known bid/ask for a symbol. Transient;
// replaced on every refresh, no history kept.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

// Position represents an open venue-side position. Created when an order
// fills, mutated only through explicit modify calls, gone when closed.
type Position struct {
	Ticket     uint64
	Symbol     string
	Direction  Direction
	Volume     float64
	OpenPrice  float64
	StopLoss   float64 // 0 means no stop set
	TakeProfit float64 // 0 means no target set
	Strategy   string  // owning strategy tag
}

// HasStopLoss reports whether a protective stop is currently set.
func (p *Position) HasStopLoss() bool {
	return p.StopLoss != 0
}

// TrailConfig holds the trailing-stop registration for a single ticket.
// Owned exclusively by the guard registry.
type TrailConfig struct {
	Ticket       uint64
	Symbol       string
	Distance     float64 // trailing distance, absolute price units
	Activation   float64 // activation distance, absolute price units, 0 = immediate
	LastStop     float64 // last stop value applied by the engine, 0 = none yet
	RegisteredAt time.Time
}
