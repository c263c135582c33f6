// Package venue defines the trading venue gateway interface and result types.
package venue

import (
	"context"

	"mt5-guard/internal/models"
)

// Status classifies the venue's response to an order request.
type Status string

const (
	StatusFilled              Status = "FILLED"
	StatusPlaced              Status = "PLACED" // pending order accepted
	StatusModified            Status = "MODIFIED"
	StatusRejected            Status = "REJECTED"
	StatusFillModeUnsupported Status = "FILL_MODE_UNSUPPORTED"
	StatusRequote             Status = "REQUOTE"
	StatusNoMoney             Status = "NO_MONEY"
	StatusMarketClosed        Status = "MARKET_CLOSED"
	StatusInvalidStops        Status = "INVALID_STOPS"
	StatusInvalidVolume       Status = "INVALID_VOLUME"
)

// Accepted reports whether the venue accepted the request.
func (s Status) Accepted() bool {
	return s == StatusFilled || s == StatusPlaced || s == StatusModified
}

// Result represents the venue's response to a submission or modification.
type Result struct {
	Status Status
	Ticket uint64 // resulting order/position ticket, when the venue assigns one
	Reason string // venue-supplied human-readable reason
}

// Gateway is the narrow interface the guard requires from a trading venue.
// Implementations wrap whatever transport the venue actually uses.
type Gateway interface {
	// Market data
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetInstrument(ctx context.Context, symbol string) (*models.Instrument, error)

	// Positions
	GetPosition(ctx context.Context, ticket uint64) (*models.Position, error)
	GetPositions(ctx context.Context) ([]models.Position, error)

	// Orders
	SubmitOrder(ctx context.Context, req *models.OrderRequest) (*Result, error)
	ModifyStopTarget(ctx context.Context, ticket uint64, stopLoss, takeProfit float64) (*Result, error)
}

// QuoteStream delivers live quotes pushed by the venue, when the transport
// supports streaming. Optional; polling GetQuote is always sufficient.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Subscribe(symbols []string) error
	OnQuote(handler func(models.Quote))
	OnError(handler func(error))
}
