package orders

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
	"mt5-guard/internal/venue"
)

// scriptedGateway returns canned results in order and counts venue calls.
type scriptedGateway struct {
	results []venue.Result
	errs    []error
	calls   int
	modes   []models.FillMode
}

func (g *scriptedGateway) SubmitOrder(ctx context.Context, req *models.OrderRequest) (*venue.Result, error) {
	i := g.calls
	g.calls++
	g.modes = append(g.modes, req.FillMode)
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	if i < len(g.results) {
		r := g.results[i]
		return &r, nil
	}
	return &venue.Result{Status: venue.StatusRejected, Reason: "script exhausted"}, nil
}

func (g *scriptedGateway) ModifyStopTarget(ctx context.Context, ticket uint64, sl, tp float64) (*venue.Result, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	if i < len(g.results) {
		r := g.results[i]
		return &r, nil
	}
	return &venue.Result{Status: venue.StatusModified, Ticket: ticket}, nil
}

func (g *scriptedGateway) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return nil, errors.ErrSymbolNotFound
}
func (g *scriptedGateway) GetInstrument(ctx context.Context, symbol string) (*models.Instrument, error) {
	return nil, errors.ErrSymbolNotFound
}
func (g *scriptedGateway) GetPosition(ctx context.Context, ticket uint64) (*models.Position, error) {
	return nil, errors.ErrNotFound
}
func (g *scriptedGateway) GetPositions(ctx context.Context) ([]models.Position, error) {
	return nil, nil
}

func marketRequest() *models.OrderRequest {
	return &models.OrderRequest{
		Action:    models.ActionDeal,
		Symbol:    "EURUSD",
		Direction: models.DirectionLong,
		Volume:    0.10,
	}
}

func eurusd() *models.Instrument {
	return &models.Instrument{
		Symbol:     "EURUSD",
		Point:      0.00001,
		Digits:     5,
		VolumeMin:  0.01,
		VolumeMax:  100,
		VolumeStep: 0.01,
	}
}

func TestSubmit_FallbackAdvancesOnUnsupported(t *testing.T) {
	gw := &scriptedGateway{results: []venue.Result{
		{Status: venue.StatusFillModeUnsupported},
		{Status: venue.StatusFillModeUnsupported},
		{Status: venue.StatusFilled, Ticket: 42},
	}}
	p := NewPipeline(gw, nil, zerolog.Nop())

	fallback := []models.FillMode{models.FillFOK, models.FillReturn, models.FillIOC}
	result, err := p.Submit(context.Background(), marketRequest(), eurusd(), fallback)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ModeUsed != models.FillIOC {
		t.Errorf("expected IOC, got %s", result.ModeUsed)
	}
	if result.Ticket != 42 {
		t.Errorf("expected ticket 42, got %d", result.Ticket)
	}
	if gw.calls != 3 || result.Attempts != 3 {
		t.Errorf("expected exactly 3 venue calls, got calls=%d attempts=%d", gw.calls, result.Attempts)
	}
	wantModes := []models.FillMode{models.FillFOK, models.FillReturn, models.FillIOC}
	for i, m := range wantModes {
		if gw.modes[i] != m {
			t.Errorf("attempt %d used %s, want %s", i, gw.modes[i], m)
		}
	}
}

func TestSubmit_StopsAtFirstHardFailure(t *testing.T) {
	gw := &scriptedGateway{results: []venue.Result{
		{Status: venue.StatusFillModeUnsupported},
		{Status: venue.StatusNoMoney, Reason: "not enough margin"},
		{Status: venue.StatusFilled}, // must never be reached
	}}
	p := NewPipeline(gw, nil, zerolog.Nop())

	fallback := []models.FillMode{models.FillFOK, models.FillReturn, models.FillIOC}
	result, err := p.Submit(context.Background(), marketRequest(), eurusd(), fallback)
	if !errors.Is(err, errors.ErrNoMoney) {
		t.Fatalf("expected ErrNoMoney, got %v", err)
	}
	if gw.calls != 2 {
		t.Errorf("expected 2 venue calls, got %d", gw.calls)
	}
	if result.Outcome.Success {
		t.Error("expected failed outcome")
	}
	if result.Outcome.Reason != models.ReasonVenueRejected {
		t.Errorf("expected VENUE_REJECTED, got %s", result.Outcome.Reason)
	}
}

func TestSubmit_AllModesExhausted(t *testing.T) {
	gw := &scriptedGateway{results: []venue.Result{
		{Status: venue.StatusFillModeUnsupported},
		{Status: venue.StatusFillModeUnsupported},
	}}
	p := NewPipeline(gw, nil, zerolog.Nop())

	fallback := []models.FillMode{models.FillReturn, models.FillIOC}
	result, err := p.Submit(context.Background(), marketRequest(), eurusd(), fallback)
	if !errors.Is(err, errors.ErrAllModesExhausted) {
		t.Fatalf("expected ErrAllModesExhausted, got %v", err)
	}
	if result.Outcome.Reason != models.ReasonAllModesExhausted {
		t.Errorf("expected ALL_FILL_MODES_EXHAUSTED, got %s", result.Outcome.Reason)
	}
	if gw.calls != 2 {
		t.Errorf("expected 2 venue calls, got %d", gw.calls)
	}
}

func TestSubmit_ValidationRejectsBeforeVenue(t *testing.T) {
	gw := &scriptedGateway{}
	p := NewPipeline(gw, nil, zerolog.Nop())
	fallback := []models.FillMode{models.FillReturn}

	tests := []struct {
		name   string
		mutate func(*models.OrderRequest)
	}{
		{"non-positive volume", func(r *models.OrderRequest) { r.Volume = 0 }},
		{"volume below minimum", func(r *models.OrderRequest) { r.Volume = 0.001 }},
		{"volume off step", func(r *models.OrderRequest) { r.Volume = 0.015 }},
		{"long stop above entry", func(r *models.OrderRequest) {
			r.Price = 1.0800
			r.StopLoss = 1.0850
		}},
		{"short target above entry", func(r *models.OrderRequest) {
			r.Direction = models.DirectionShort
			r.Price = 1.0800
			r.TakeProfit = 1.0900
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := marketRequest()
			tt.mutate(req)
			result, err := p.Submit(context.Background(), req, eurusd(), fallback)

			var verr *errors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if result.Outcome.Reason != models.ReasonValidation {
				t.Errorf("expected VALIDATION reason, got %s", result.Outcome.Reason)
			}
		})
	}

	if gw.calls != 0 {
		t.Errorf("validation failures must not reach the venue, got %d calls", gw.calls)
	}
}

func TestSubmit_TransientRetriesSameMode(t *testing.T) {
	gw := &scriptedGateway{
		errs: []error{errors.ErrTimeout, nil},
		results: []venue.Result{
			{}, // consumed by the error slot
			{Status: venue.StatusFilled, Ticket: 7},
		},
	}
	p := NewPipeline(gw, nil, zerolog.Nop())
	p.retry.InitialDelay = 0

	result, err := p.Submit(context.Background(), marketRequest(), eurusd(), []models.FillMode{models.FillIOC})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ModeUsed != models.FillIOC {
		t.Errorf("expected IOC, got %s", result.ModeUsed)
	}
	// Two transport calls, both for the same fill mode.
	if gw.calls != 2 {
		t.Errorf("expected 2 transport calls, got %d", gw.calls)
	}
	if result.Attempts != 1 {
		t.Errorf("transient retry must not count as a new mode attempt, got %d", result.Attempts)
	}
	if gw.modes[0] != models.FillIOC || gw.modes[1] != models.FillIOC {
		t.Errorf("retry switched modes: %v", gw.modes)
	}
}

func TestSubmit_NonTransientErrorNotRetried(t *testing.T) {
	gw := &scriptedGateway{errs: []error{errors.ErrSymbolNotFound}}
	p := NewPipeline(gw, nil, zerolog.Nop())

	_, err := p.Submit(context.Background(), marketRequest(), eurusd(), []models.FillMode{models.FillIOC, models.FillReturn})
	if !errors.Is(err, errors.ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
	if gw.calls != 1 {
		t.Errorf("expected a single venue call, got %d", gw.calls)
	}
}

func TestModifyStopTarget_RejectionSurfaced(t *testing.T) {
	gw := &scriptedGateway{results: []venue.Result{
		{Status: venue.StatusInvalidStops, Reason: "too close to market"},
	}}
	p := NewPipeline(gw, nil, zerolog.Nop())

	outcome, err := p.ModifyStopTarget(context.Background(), 10023, 1.0810, 0)
	if !errors.Is(err, errors.ErrInvalidStops) {
		t.Fatalf("expected ErrInvalidStops, got %v", err)
	}
	if outcome.Success {
		t.Error("expected failed outcome")
	}
}
