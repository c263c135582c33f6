// Package bridge implements the venue gateway against a terminal bridge:
// a thin REST sidecar in front of an MT5 terminal, plus an optional
// websocket quote stream.
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
	"mt5-guard/internal/resilience"
	"mt5-guard/internal/venue"
)

// Config holds bridge connection settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	StreamURL string // websocket endpoint, empty disables streaming
}

// Gateway is the REST implementation of venue.Gateway.
type Gateway struct {
	client  *resty.Client
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewGateway creates a bridge gateway.
func NewGateway(cfg Config, logger zerolog.Logger) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Gateway{
		client:  client,
		breaker: resilience.NewCircuitBreaker("bridge", resilience.DefaultCircuitBreakerConfig()),
		logger:  logger,
	}
}

// Terminal bridge wire types. Field names follow the terminal's own
// conventions so the sidecar stays a dumb proxy.

type quotePayload struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	TimeMS int64   `json:"time_msc"`
}

type symbolPayload struct {
	Symbol        string   `json:"symbol"`
	Point         float64  `json:"point"`
	Digits        int      `json:"digits"`
	VolumeMin     float64  `json:"volume_min"`
	VolumeMax     float64  `json:"volume_max"`
	VolumeStep    float64  `json:"volume_step"`
	FillingModes  []string `json:"filling_modes"`
	ExecutionMode string   `json:"trade_exemode"`
}

type positionPayload struct {
	Ticket     uint64  `json:"ticket"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"` // BUY or SELL
	Volume     float64 `json:"volume"`
	PriceOpen  float64 `json:"price_open"`
	StopLoss   float64 `json:"sl"`
	TakeProfit float64 `json:"tp"`
	Comment    string  `json:"comment"`
}

type orderPayload struct {
	Action     string  `json:"action"`
	Symbol     string  `json:"symbol,omitempty"`
	Type       string  `json:"type,omitempty"`
	Volume     float64 `json:"volume,omitempty"`
	Price      float64 `json:"price,omitempty"`
	StopLoss   float64 `json:"sl,omitempty"`
	TakeProfit float64 `json:"tp,omitempty"`
	Filling    string  `json:"type_filling,omitempty"`
	Ticket     uint64  `json:"position,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

type resultPayload struct {
	Retcode uint32 `json:"retcode"`
	Ticket  uint64 `json:"order"`
	Comment string `json:"comment"`
}

// Terminal result codes the guard distinguishes.
const (
	retDone          = 10009
	retPlaced        = 10008
	retRequote       = 10004
	retMarketClosed  = 10018
	retNoMoney       = 10019
	retInvalidStops  = 10016
	retInvalidVolume = 10014
	retInvalidFill   = 10030
)

// GetQuote implements venue.Gateway.
func (g *Gateway) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var payload quotePayload
	if err := g.get(ctx, fmt.Sprintf("/quotes/%s", symbol), &payload); err != nil {
		return nil, err
	}
	return &models.Quote{
		Symbol: payload.Symbol,
		Bid:    payload.Bid,
		Ask:    payload.Ask,
		Time:   time.UnixMilli(payload.TimeMS),
	}, nil
}

// GetInstrument implements venue.Gateway.
func (g *Gateway) GetInstrument(ctx context.Context, symbol string) (*models.Instrument, error) {
	var payload symbolPayload
	if err := g.get(ctx, fmt.Sprintf("/symbols/%s", symbol), &payload); err != nil {
		return nil, err
	}
	return &models.Instrument{
		Symbol:        payload.Symbol,
		Point:         payload.Point,
		Digits:        payload.Digits,
		VolumeMin:     payload.VolumeMin,
		VolumeMax:     payload.VolumeMax,
		VolumeStep:    payload.VolumeStep,
		FillModes:     parseFillModes(payload.FillingModes),
		ExecutionMode: models.ExecutionMode(payload.ExecutionMode),
	}, nil
}

// GetPosition implements venue.Gateway.
func (g *Gateway) GetPosition(ctx context.Context, ticket uint64) (*models.Position, error) {
	var payload positionPayload
	if err := g.get(ctx, fmt.Sprintf("/positions/%d", ticket), &payload); err != nil {
		return nil, err
	}
	return payload.toModel(), nil
}

// GetPositions implements venue.Gateway.
func (g *Gateway) GetPositions(ctx context.Context) ([]models.Position, error) {
	var payloads []positionPayload
	if err := g.get(ctx, "/positions", &payloads); err != nil {
		return nil, err
	}
	out := make([]models.Position, 0, len(payloads))
	for i := range payloads {
		out = append(out, *payloads[i].toModel())
	}
	return out, nil
}

// SubmitOrder implements venue.Gateway.
func (g *Gateway) SubmitOrder(ctx context.Context, req *models.OrderRequest) (*venue.Result, error) {
	payload := orderPayload{
		Action:     string(req.Action),
		Symbol:     req.Symbol,
		Type:       orderType(req),
		Volume:     req.Volume,
		Price:      req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Filling:    req.FillMode.String(),
		Ticket:     req.Ticket,
		Comment:    req.Tag,
	}
	return g.post(ctx, "/orders", payload)
}

// ModifyStopTarget implements venue.Gateway.
func (g *Gateway) ModifyStopTarget(ctx context.Context, ticket uint64, stopLoss, takeProfit float64) (*venue.Result, error) {
	payload := orderPayload{
		Action:     string(models.ActionModifySLTP),
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Ticket:     ticket,
	}
	return g.post(ctx, fmt.Sprintf("/positions/%d/sltp", ticket), payload)
}

func (g *Gateway) get(ctx context.Context, path string, out interface{}) error {
	if err := g.breaker.Allow(); err != nil {
		return err
	}
	resp, err := g.client.R().SetContext(ctx).SetResult(out).Get(path)
	return g.finish(resp, err, path)
}

func (g *Gateway) post(ctx context.Context, path string, body interface{}) (*venue.Result, error) {
	if err := g.breaker.Allow(); err != nil {
		return nil, err
	}
	var payload resultPayload
	resp, err := g.client.R().SetContext(ctx).SetBody(body).SetResult(&payload).Post(path)
	if err := g.finish(resp, err, path); err != nil {
		return nil, err
	}
	return &venue.Result{
		Status: statusFromRetcode(payload.Retcode),
		Ticket: payload.Ticket,
		Reason: payload.Comment,
	}, nil
}

// finish folds transport and HTTP status handling into guard error space
// and feeds the circuit breaker.
func (g *Gateway) finish(resp *resty.Response, err error, path string) error {
	if err != nil {
		g.breaker.RecordFailure()
		if ctxErr := errors.Wrap(contextCause(err), path); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrap(errors.ErrConnectionFailed, path)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		g.breaker.RecordSuccess() // the bridge answered; the entity is gone
		return errors.Wrap(errors.ErrNotFound, path)
	case resp.IsError():
		g.breaker.RecordFailure()
		return errors.Wrapf(errors.ErrConnectionFailed, "%s: bridge returned %d", path, resp.StatusCode())
	}
	g.breaker.RecordSuccess()
	return nil
}

func contextCause(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (p *positionPayload) toModel() *models.Position {
	direction := models.DirectionLong
	if p.Type == "SELL" {
		direction = models.DirectionShort
	}
	return &models.Position{
		Ticket:     p.Ticket,
		Symbol:     p.Symbol,
		Direction:  direction,
		Volume:     p.Volume,
		OpenPrice:  p.PriceOpen,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		Strategy:   p.Comment,
	}
}

func orderType(req *models.OrderRequest) string {
	if req.Direction == models.DirectionShort {
		return "SELL"
	}
	return "BUY"
}

func parseFillModes(names []string) models.FillModeSet {
	var set models.FillModeSet
	for _, name := range names {
		if mode, ok := models.ParseFillMode(name); ok {
			set = set.With(mode)
		}
	}
	return set
}

func statusFromRetcode(code uint32) venue.Status {
	switch code {
	case retDone:
		return venue.StatusFilled
	case retPlaced:
		return venue.StatusPlaced
	case retRequote:
		return venue.StatusRequote
	case retMarketClosed:
		return venue.StatusMarketClosed
	case retNoMoney:
		return venue.StatusNoMoney
	case retInvalidStops:
		return venue.StatusInvalidStops
	case retInvalidVolume:
		return venue.StatusInvalidVolume
	case retInvalidFill:
		return venue.StatusFillModeUnsupported
	default:
		return venue.StatusRejected
	}
}
