package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mt5-guard/internal/models"
	"mt5-guard/internal/venue"
)

func TestStatusFromRetcode(t *testing.T) {
	tests := []struct {
		code uint32
		want venue.Status
	}{
		{retDone, venue.StatusFilled},
		{retPlaced, venue.StatusPlaced},
		{retRequote, venue.StatusRequote},
		{retMarketClosed, venue.StatusMarketClosed},
		{retNoMoney, venue.StatusNoMoney},
		{retInvalidStops, venue.StatusInvalidStops},
		{retInvalidVolume, venue.StatusInvalidVolume},
		{retInvalidFill, venue.StatusFillModeUnsupported},
		{10013, venue.StatusRejected}, // invalid request, no dedicated status
		{0, venue.StatusRejected},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFromRetcode(tt.code), "retcode %d", tt.code)
	}
}

func TestParseFillModes(t *testing.T) {
	set := parseFillModes([]string{"RETURN", "IOC", "BOC"})
	assert.True(t, set.Has(models.FillReturn))
	assert.True(t, set.Has(models.FillIOC))
	assert.True(t, set.Has(models.FillBOC))
	assert.False(t, set.Has(models.FillFOK))

	// Unknown names are ignored rather than failing the symbol fetch.
	set = parseFillModes([]string{"FOK", "EXOTIC"})
	assert.True(t, set.Has(models.FillFOK))
	assert.False(t, set.Has(models.FillReturn))

	assert.True(t, parseFillModes(nil).Empty())
}

func TestPositionPayloadToModel(t *testing.T) {
	p := positionPayload{
		Ticket:     88001,
		Symbol:     "EURUSD",
		Type:       "SELL",
		Volume:     0.25,
		PriceOpen:  1.0850,
		StopLoss:   1.0900,
		TakeProfit: 1.0700,
		Comment:    "swing-a",
	}
	pos := p.toModel()
	assert.Equal(t, models.DirectionShort, pos.Direction)
	assert.Equal(t, uint64(88001), pos.Ticket)
	assert.Equal(t, 1.0850, pos.OpenPrice)
	assert.Equal(t, "swing-a", pos.Strategy)

	p.Type = "BUY"
	assert.Equal(t, models.DirectionLong, p.toModel().Direction)
}
