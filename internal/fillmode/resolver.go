package fillmode

import (
	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
)

// tieBreakOrder is the fixed order remaining supported modes are appended
// in after the preferred one. Book-or-cancel never appears here: it is only
// valid for pending limit/stop-limit orders, and pending orders resolve to
// Return before preferences are consulted.
var tieBreakOrder = []models.FillMode{
	models.FillReturn,
	models.FillIOC,
	models.FillFOK,
}

// Policy holds the pluggable preference heuristics. None of it is
// correctness-critical; a zero Policy still resolves valid sequences.
type Policy struct {
	Classifier Classifier
	// Preferred maps an instrument class to the mode tried first when the
	// instrument declares it.
	Preferred map[Class]models.FillMode
	// SmallVolumeMax prefers immediate-or-cancel for orders at or below
	// this volume, when declared. Zero disables the heuristic.
	SmallVolumeMax float64
}

// DefaultPolicy returns the preferences used when the config declares none.
func DefaultPolicy() Policy {
	return Policy{
		Classifier: NewRuleClassifier(DefaultRules()),
		Preferred: map[Class]models.FillMode{
			ClassForex: models.FillIOC,
			ClassMetal: models.FillFOK,
			ClassIndex: models.FillReturn,
		},
		SmallVolumeMax: 0.1,
	}
}

// Resolver produces fill-mode fallback sequences for order submission.
type Resolver struct {
	policy Policy
}

// NewResolver creates a resolver with the given preference policy.
func NewResolver(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

// Resolve returns the ordered fill modes to attempt for an order on the
// given instrument. Pending orders always resolve to exactly [Return],
// regardless of what the instrument declares; that is a venue-wide rule.
// For market deals the preferred mode comes from the policy, followed by
// the remaining declared modes in tie-break order. An instrument that
// declares no usable mode yields ErrNoSupportedFillMode; the caller must
// not submit.
func (r *Resolver) Resolve(inst *models.Instrument, isPending bool, volume float64) ([]models.FillMode, error) {
	if isPending {
		return []models.FillMode{models.FillReturn}, nil
	}

	var out []models.FillMode
	seen := func(m models.FillMode) bool {
		for _, have := range out {
			if have == m {
				return true
			}
		}
		return false
	}

	if preferred, ok := r.preferredFor(inst, volume); ok {
		out = append(out, preferred)
	}

	for _, m := range tieBreakOrder {
		if inst.FillModes.Has(m) && !seen(m) {
			out = append(out, m)
		}
	}

	if len(out) == 0 {
		return nil, errors.Wrapf(errors.ErrNoSupportedFillMode, "symbol %s", inst.Symbol)
	}
	return out, nil
}

// preferredFor applies the policy heuristics. A preference only counts
// when the instrument actually declares the mode.
func (r *Resolver) preferredFor(inst *models.Instrument, volume float64) (models.FillMode, bool) {
	if r.policy.SmallVolumeMax > 0 && volume > 0 && volume <= r.policy.SmallVolumeMax {
		if inst.FillModes.Has(models.FillIOC) {
			return models.FillIOC, true
		}
	}
	if r.policy.Classifier == nil || r.policy.Preferred == nil {
		return 0, false
	}
	mode, ok := r.policy.Preferred[r.policy.Classifier.Classify(inst.Symbol)]
	if !ok || !inst.FillModes.Has(mode) {
		return 0, false
	}
	return mode, true
}
