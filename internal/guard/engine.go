// Package guard watches open positions and applies protective trailing-stop
// adjustments through the order pipeline.
package guard

import (
	"mt5-guard/internal/models"
	"mt5-guard/pkg/pricing"
)

// DecisionKind classifies the engine's verdict for one position.
type DecisionKind int

const (
	// NoChange means the candidate stop does not improve protection.
	NoChange DecisionKind = iota
	// ActivationPending means favorable movement has not yet reached the
	// configured activation distance; no modification is attempted.
	ActivationPending
	// Update means the stop should be moved to NewStop.
	Update
)

func (k DecisionKind) String() string {
	switch k {
	case NoChange:
		return "NO_CHANGE"
	case ActivationPending:
		return "ACTIVATION_PENDING"
	case Update:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Decision is the engine's verdict. NewStop is meaningful only for Update.
type Decision struct {
	Kind    DecisionKind
	NewStop float64
}

// ComputeUpdate computes the trailing-stop decision for a position from the
// current quote. Long positions trail against the bid, short positions
// against the ask. The stop only ever tightens: a long stop never moves
// down, a short stop never moves up. Distances are absolute price units;
// pip conversion happens before registration, centrally in pkg/pricing.
func ComputeUpdate(pos *models.Position, quote *models.Quote, cfg *models.TrailConfig, digits int) Decision {
	long := pos.Direction == models.DirectionLong

	var price, favorable float64
	if long {
		price = quote.Bid
		favorable = price - pos.OpenPrice
	} else {
		price = quote.Ask
		favorable = pos.OpenPrice - price
	}

	if cfg.Activation > 0 && favorable < cfg.Activation {
		return Decision{Kind: ActivationPending}
	}

	var candidate float64
	if long {
		candidate = price - cfg.Distance
	} else {
		candidate = price + cfg.Distance
	}
	candidate = pricing.Round(candidate, digits)

	if pos.HasStopLoss() {
		if long && candidate <= pos.StopLoss {
			return Decision{Kind: NoChange}
		}
		if !long && candidate >= pos.StopLoss {
			return Decision{Kind: NoChange}
		}
	}

	return Decision{Kind: Update, NewStop: candidate}
}
