// Package orders provides the order submission pipeline with fill-mode
// fallback.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/logging"
	"mt5-guard/internal/models"
	"mt5-guard/internal/store"
	"mt5-guard/internal/venue"
	"mt5-guard/pkg/utils"
)

// SubmissionResult reports the outcome of a pipeline submission.
type SubmissionResult struct {
	Outcome  models.Outcome
	ModeUsed models.FillMode // valid only on success
	Ticket   uint64          // resulting venue ticket, when assigned
	Attempts int             // venue-facing submission calls made
}

// Pipeline builds venue requests, submits them, and advances through the
// fill-mode fallback sequence on "mode unsupported" responses. Exactly one
// venue call is made per attempted mode; there are no silent duplicates.
type Pipeline struct {
	gateway venue.Gateway
	journal store.GuardStore // optional
	logger  zerolog.Logger
	retry   utils.RetryConfig
}

// NewPipeline creates a submission pipeline. journal may be nil.
func NewPipeline(gw venue.Gateway, journal store.GuardStore, logger zerolog.Logger) *Pipeline {
	retry := utils.DefaultRetryConfig()
	retry.ShouldRetry = errors.IsTransient
	return &Pipeline{
		gateway: gw,
		journal: journal,
		logger:  logger,
		retry:   retry,
	}
}

// Submit attempts the request once per candidate fill mode, in order.
// A success stops immediately and reports the mode used. A venue response
// of "fill mode not supported" advances to the next candidate. Any other
// failure stops immediately and surfaces the specific reason; later modes
// are never attempted after it. Exhausting every candidate without either
// reports AllFillModesExhausted.
func (p *Pipeline) Submit(ctx context.Context, req *models.OrderRequest, inst *models.Instrument, fallback []models.FillMode) (*SubmissionResult, error) {
	if err := validate(req, inst); err != nil {
		return &SubmissionResult{
			Outcome: models.Fail(models.ReasonValidation, err.Error()),
		}, err
	}
	if len(fallback) == 0 {
		err := errors.Wrapf(errors.ErrNoSupportedFillMode, "symbol %s", req.Symbol)
		return &SubmissionResult{
			Outcome: models.Fail(models.ReasonFillModeUnsupported, err.Error()),
		}, err
	}

	result := &SubmissionResult{}
	log := logging.WithSymbol(p.logger, req.Symbol)

	for _, mode := range fallback {
		attempt := *req
		attempt.FillMode = mode
		result.Attempts++

		res, err := p.submitOnce(ctx, &attempt)
		if err != nil {
			// Transport-level failure after transient retries; surfaced
			// as-is, no further modes tried.
			result.Outcome = models.Fail(models.ReasonTransient, err.Error())
			p.journalSubmission(ctx, req, mode, result.Outcome)
			return result, err
		}

		logging.LogSubmission(log, req.Symbol, mode.String(), string(res.Status), result.Attempts)

		switch {
		case res.Status.Accepted():
			result.ModeUsed = mode
			result.Ticket = res.Ticket
			result.Outcome = models.OK(fmt.Sprintf("accepted with fill mode %s", mode))
			p.journalSubmission(ctx, req, mode, result.Outcome)
			return result, nil

		case res.Status == venue.StatusFillModeUnsupported:
			// Advance to the next candidate.
			continue

		default:
			err := rejectionError(res)
			result.Outcome = models.Fail(models.ReasonVenueRejected, err.Error())
			p.journalSubmission(ctx, req, mode, result.Outcome)
			return result, err
		}
	}

	err := errors.Wrapf(errors.ErrAllModesExhausted, "symbol %s after %d attempts", req.Symbol, result.Attempts)
	result.Outcome = models.Fail(models.ReasonAllModesExhausted, err.Error())
	p.journalSubmission(ctx, req, 0, result.Outcome)
	return result, err
}

// ModifyStopTarget routes a pure SL/TP modification. Fill-mode selection
// does not apply here.
func (p *Pipeline) ModifyStopTarget(ctx context.Context, ticket uint64, stopLoss, takeProfit float64) (models.Outcome, error) {
	res, err := utils.RetryWithResult(ctx, p.retry, func() (*venue.Result, error) {
		return p.gateway.ModifyStopTarget(ctx, ticket, stopLoss, takeProfit)
	})
	if err != nil {
		return models.Fail(models.ReasonTransient, err.Error()), err
	}
	if !res.Status.Accepted() {
		err := rejectionError(res)
		return models.Fail(models.ReasonVenueRejected, err.Error()), err
	}
	return models.OK("stop/target modified"), nil
}

// submitOnce makes a single venue submission, retrying only transient
// transport errors for the same mode.
func (p *Pipeline) submitOnce(ctx context.Context, req *models.OrderRequest) (*venue.Result, error) {
	return utils.RetryWithResult(ctx, p.retry, func() (*venue.Result, error) {
		return p.gateway.SubmitOrder(ctx, req)
	})
}

func (p *Pipeline) journalSubmission(ctx context.Context, req *models.OrderRequest, mode models.FillMode, outcome models.Outcome) {
	if p.journal == nil {
		return
	}
	event := &store.Event{
		Time:    time.Now(),
		Kind:    store.EventSubmission,
		Ticket:  req.Ticket,
		Symbol:  req.Symbol,
		Success: outcome.Success,
		Reason:  string(outcome.Reason),
		Message: outcome.Message,
	}
	if mode != 0 {
		event.Mode = mode.String()
	}
	if err := p.journal.LogEvent(ctx, event); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to journal submission")
	}
}

// rejectionError maps a venue status to the matching sentinel so callers
// can branch with errors.Is.
func rejectionError(res *venue.Result) error {
	var base error
	switch res.Status {
	case venue.StatusRequote:
		base = errors.ErrRequote
	case venue.StatusNoMoney:
		base = errors.ErrNoMoney
	case venue.StatusMarketClosed:
		base = errors.ErrMarketClosed
	case venue.StatusInvalidStops:
		base = errors.ErrInvalidStops
	default:
		base = errors.ErrOrderRejected
	}
	if res.Reason != "" {
		return errors.Wrap(base, res.Reason)
	}
	return base
}
