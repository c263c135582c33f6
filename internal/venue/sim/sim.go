// Package sim provides an in-memory simulated venue for paper use and tests.
package sim

import (
	"context"
	"sync"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
	"mt5-guard/internal/venue"
)

// Venue simulates the guard-facing surface of a trading venue: quotes and
// instruments are seeded by the caller, deals open positions, and stop
// modifications mutate them in place.
type Venue struct {
	mu          sync.RWMutex
	instruments map[string]models.Instrument
	quotes      map[string]models.Quote
	positions   map[uint64]*models.Position
	nextTicket  uint64
	marketOpen  bool
}

// New creates an empty simulated venue with the market open.
func New() *Venue {
	return &Venue{
		instruments: make(map[string]models.Instrument),
		quotes:      make(map[string]models.Quote),
		positions:   make(map[uint64]*models.Position),
		nextTicket:  1000,
		marketOpen:  true,
	}
}

// AddInstrument seeds instrument metadata.
func (v *Venue) AddInstrument(inst models.Instrument) {
	v.mu.Lock()
	v.instruments[inst.Symbol] = inst
	v.mu.Unlock()
}

// SetQuote seeds or moves the market for a symbol.
func (v *Venue) SetQuote(q models.Quote) {
	v.mu.Lock()
	v.quotes[q.Symbol] = q
	v.mu.Unlock()
}

// SetMarketOpen toggles whether deals are accepted.
func (v *Venue) SetMarketOpen(open bool) {
	v.mu.Lock()
	v.marketOpen = open
	v.mu.Unlock()
}

// OpenPosition installs a position directly, returning its ticket.
func (v *Venue) OpenPosition(pos models.Position) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos.Ticket == 0 {
		v.nextTicket++
		pos.Ticket = v.nextTicket
	}
	p := pos
	v.positions[pos.Ticket] = &p
	return pos.Ticket
}

// ClosePosition removes a position, simulating a venue-side close.
func (v *Venue) ClosePosition(ticket uint64) {
	v.mu.Lock()
	delete(v.positions, ticket)
	v.mu.Unlock()
}

// GetQuote implements venue.Gateway.
func (v *Venue) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	q, ok := v.quotes[symbol]
	if !ok {
		return nil, errors.Wrapf(errors.ErrSymbolNotFound, "%s", symbol)
	}
	return &q, nil
}

// GetInstrument implements venue.Gateway.
func (v *Venue) GetInstrument(ctx context.Context, symbol string) (*models.Instrument, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	inst, ok := v.instruments[symbol]
	if !ok {
		return nil, errors.Wrapf(errors.ErrSymbolNotFound, "%s", symbol)
	}
	return &inst, nil
}

// GetPosition implements venue.Gateway.
func (v *Venue) GetPosition(ctx context.Context, ticket uint64) (*models.Position, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pos, ok := v.positions[ticket]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "ticket %d", ticket)
	}
	p := *pos
	return &p, nil
}

// GetPositions implements venue.Gateway.
func (v *Venue) GetPositions(ctx context.Context) ([]models.Position, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Position, 0, len(v.positions))
	for _, pos := range v.positions {
		out = append(out, *pos)
	}
	return out, nil
}

// SubmitOrder implements venue.Gateway. Market deals fill at the current
// quote; pending orders are accepted as placed without simulated triggers.
func (v *Venue) SubmitOrder(ctx context.Context, req *models.OrderRequest) (*venue.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	inst, ok := v.instruments[req.Symbol]
	if !ok {
		return nil, errors.Wrapf(errors.ErrSymbolNotFound, "%s", req.Symbol)
	}
	if !v.marketOpen {
		return &venue.Result{Status: venue.StatusMarketClosed, Reason: "market closed"}, nil
	}

	// Pending orders always take Return; anything else must be declared.
	if req.IsPending() {
		if req.FillMode != models.FillReturn {
			return &venue.Result{Status: venue.StatusFillModeUnsupported, Reason: "pending orders require RETURN"}, nil
		}
	} else if !inst.FillModes.Has(req.FillMode) {
		return &venue.Result{Status: venue.StatusFillModeUnsupported, Reason: "fill mode not supported"}, nil
	}

	if req.Volume < inst.VolumeMin || (inst.VolumeMax > 0 && req.Volume > inst.VolumeMax) {
		return &venue.Result{Status: venue.StatusInvalidVolume, Reason: "volume out of range"}, nil
	}

	if req.IsPending() {
		v.nextTicket++
		return &venue.Result{Status: venue.StatusPlaced, Ticket: v.nextTicket}, nil
	}

	quote, ok := v.quotes[req.Symbol]
	if !ok {
		return &venue.Result{Status: venue.StatusRejected, Reason: "no market"}, nil
	}

	fillPrice := quote.Ask
	if req.Direction == models.DirectionShort {
		fillPrice = quote.Bid
	}

	v.nextTicket++
	v.positions[v.nextTicket] = &models.Position{
		Ticket:     v.nextTicket,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Volume:     req.Volume,
		OpenPrice:  fillPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Strategy:   req.Tag,
	}
	return &venue.Result{Status: venue.StatusFilled, Ticket: v.nextTicket}, nil
}

// ModifyStopTarget implements venue.Gateway. Stops on the wrong side of the
// market are rejected the way a live venue would.
func (v *Venue) ModifyStopTarget(ctx context.Context, ticket uint64, stopLoss, takeProfit float64) (*venue.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	pos, ok := v.positions[ticket]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "ticket %d", ticket)
	}

	if quote, ok := v.quotes[pos.Symbol]; ok && stopLoss > 0 {
		if pos.Direction == models.DirectionLong && stopLoss >= quote.Bid {
			return &venue.Result{Status: venue.StatusInvalidStops, Reason: "stop above market"}, nil
		}
		if pos.Direction == models.DirectionShort && stopLoss <= quote.Ask {
			return &venue.Result{Status: venue.StatusInvalidStops, Reason: "stop below market"}, nil
		}
	}

	if stopLoss > 0 {
		pos.StopLoss = stopLoss
	}
	if takeProfit > 0 {
		pos.TakeProfit = takeProfit
	}
	return &venue.Result{Status: venue.StatusModified, Ticket: ticket}, nil
}
