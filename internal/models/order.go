package models

import "time"

// OrderAction represents the kind of request sent to the venue.
type OrderAction string

const (
	ActionDeal          OrderAction = "DEAL"    // immediate market deal
	ActionPending       OrderAction = "PENDING" // new pending order
	ActionModifyPending OrderAction = "MODIFY"  // modify a pending order
	ActionModifySLTP    OrderAction = "SLTP"    // modify stop/target on a position
)

// OrderRequest represents a single venue-facing order request.
type OrderRequest struct {
	Action     OrderAction
	Symbol     string
	Direction  Direction
	Volume     float64
	Price      float64 // entry price, 0 for pure SL/TP modification
	StopLoss   float64
	TakeProfit float64
	FillMode   FillMode
	Ticket     uint64 // referenced position/order for modify actions
	Tag        string // client-assigned correlation tag
}

// IsPending reports whether the request creates or modifies a pending order.
func (r *OrderRequest) IsPending() bool {
	return r.Action == ActionPending || r.Action == ActionModifyPending
}

// ReasonCode is a machine-readable outcome classification.
type ReasonCode string

const (
	ReasonOK                  ReasonCode = "OK"
	ReasonValidation          ReasonCode = "VALIDATION"
	ReasonVenueRejected       ReasonCode = "VENUE_REJECTED"
	ReasonFillModeUnsupported ReasonCode = "FILL_MODE_UNSUPPORTED"
	ReasonAllModesExhausted   ReasonCode = "ALL_FILL_MODES_EXHAUSTED"
	ReasonNotFound            ReasonCode = "NOT_FOUND"
	ReasonTransient           ReasonCode = "TRANSIENT"
)

// Outcome is the structured result every guard operation reports: a success
// flag, a machine-readable reason, and a human-readable message. Operations
// never panic across component boundaries.
type Outcome struct {
	Success bool
	Reason  ReasonCode
	Message string
	At      time.Time
}

// OK returns a successful outcome.
func OK(message string) Outcome {
	return Outcome{Success: true, Reason: ReasonOK, Message: message, At: time.Now()}
}

// Fail returns a failed outcome with the given reason.
func Fail(reason ReasonCode, message string) Outcome {
	return Outcome{Success: false, Reason: reason, Message: message, At: time.Now()}
}
