package orders

import (
	"math"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
)

// validate rejects malformed requests before any venue call is made.
func validate(req *models.OrderRequest, inst *models.Instrument) error {
	if req.Action != models.ActionModifySLTP {
		if req.Volume <= 0 {
			return errors.NewValidationError("volume", req.Volume, "must be positive")
		}
		if inst != nil {
			if inst.VolumeMin > 0 && req.Volume < inst.VolumeMin {
				return errors.NewValidationError("volume", req.Volume, "below instrument minimum")
			}
			if inst.VolumeMax > 0 && req.Volume > inst.VolumeMax {
				return errors.NewValidationError("volume", req.Volume, "above instrument maximum")
			}
			if inst.VolumeStep > 0 && !alignedToStep(req.Volume, inst.VolumeStep) {
				return errors.NewValidationError("volume", req.Volume, "not a multiple of the volume step")
			}
		}
	}

	if req.Price > 0 {
		if err := checkStopOrdering(req); err != nil {
			return err
		}
	}
	return nil
}

// checkStopOrdering verifies SL/TP sit on the protective side of the entry
// price for the order's direction.
func checkStopOrdering(req *models.OrderRequest) error {
	switch req.Direction {
	case models.DirectionLong:
		if req.StopLoss > 0 && req.StopLoss >= req.Price {
			return errors.NewValidationError("stop_loss", req.StopLoss, "must be below entry for a long order")
		}
		if req.TakeProfit > 0 && req.TakeProfit <= req.Price {
			return errors.NewValidationError("take_profit", req.TakeProfit, "must be above entry for a long order")
		}
	case models.DirectionShort:
		if req.StopLoss > 0 && req.StopLoss <= req.Price {
			return errors.NewValidationError("stop_loss", req.StopLoss, "must be above entry for a short order")
		}
		if req.TakeProfit > 0 && req.TakeProfit >= req.Price {
			return errors.NewValidationError("take_profit", req.TakeProfit, "must be below entry for a short order")
		}
	}
	return nil
}

func alignedToStep(volume, step float64) bool {
	ratio := volume / step
	return math.Abs(ratio-math.Round(ratio)) < 1e-7
}
