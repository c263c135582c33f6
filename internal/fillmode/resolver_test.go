package fillmode

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"mt5-guard/internal/errors"
	"mt5-guard/internal/models"
)

func instrument(symbol string, modes ...models.FillMode) *models.Instrument {
	var set models.FillModeSet
	for _, m := range modes {
		set = set.With(m)
	}
	return &models.Instrument{
		Symbol:     symbol,
		Point:      0.00001,
		Digits:     5,
		VolumeMin:  0.01,
		VolumeMax:  100,
		VolumeStep: 0.01,
		FillModes:  set,
	}
}

func TestResolve_PendingAlwaysReturn(t *testing.T) {
	r := NewResolver(DefaultPolicy())

	tests := []struct {
		name string
		inst *models.Instrument
	}{
		{"all modes declared", instrument("EURUSD", models.FillReturn, models.FillIOC, models.FillFOK, models.FillBOC)},
		{"only FOK declared", instrument("XAUUSD", models.FillFOK)},
		{"nothing declared", instrument("US30")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modes, err := r.Resolve(tt.inst, true, 1.0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(modes) != 1 || modes[0] != models.FillReturn {
				t.Fatalf("expected exactly [RETURN], got %v", modes)
			}
		})
	}
}

func TestResolve_EmptyDeclaredSetFails(t *testing.T) {
	r := NewResolver(DefaultPolicy())

	_, err := r.Resolve(instrument("EURUSD"), false, 1.0)
	if !errors.Is(err, errors.ErrNoSupportedFillMode) {
		t.Fatalf("expected ErrNoSupportedFillMode, got %v", err)
	}
}

func TestResolve_PreferredThenTieBreak(t *testing.T) {
	r := NewResolver(DefaultPolicy())

	// Metal prefers FOK; remaining declared modes follow Return -> IOC.
	modes, err := r.Resolve(instrument("XAUUSD", models.FillReturn, models.FillIOC, models.FillFOK), false, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.FillMode{models.FillFOK, models.FillReturn, models.FillIOC}
	assertModes(t, modes, want)

	// Preference only counts when declared: metal without FOK falls back
	// to pure tie-break order.
	modes, err = r.Resolve(instrument("XAUUSD", models.FillReturn, models.FillIOC), false, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertModes(t, modes, []models.FillMode{models.FillReturn, models.FillIOC})
}

func TestResolve_SmallVolumePrefersIOC(t *testing.T) {
	r := NewResolver(DefaultPolicy())

	// Index class prefers Return, but small volume wins when IOC is declared.
	modes, err := r.Resolve(instrument("US30", models.FillReturn, models.FillIOC), false, 0.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertModes(t, modes, []models.FillMode{models.FillIOC, models.FillReturn})
}

func TestResolve_BOCNeverInMarketFallback(t *testing.T) {
	r := NewResolver(DefaultPolicy())

	modes, err := r.Resolve(instrument("EURUSD", models.FillReturn, models.FillBOC), false, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range modes {
		if m == models.FillBOC {
			t.Fatalf("book-or-cancel resolved for a market order: %v", modes)
		}
	}
}

func assertModes(t *testing.T, got, want []models.FillMode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// Property: for any declared mode set, pending resolution is exactly
// [Return]; market resolution contains no duplicates and, preferred small-
// volume heuristic aside, only modes the instrument declares.
func TestProperty_ResolveShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := gen.OneConstOf("EURUSD", "XAUUSD", "US30", "BTCXYZ")
	modeSets := gen.UInt8Range(0, 15)

	properties.Property("pending resolves to exactly [RETURN]", prop.ForAll(
		func(symbol string, bits uint8) bool {
			inst := instrument(symbol)
			inst.FillModes = models.FillModeSet(bits)
			r := NewResolver(DefaultPolicy())
			modes, err := r.Resolve(inst, true, 1.0)
			return err == nil && len(modes) == 1 && modes[0] == models.FillReturn
		},
		symbols, modeSets,
	))

	properties.Property("market resolution has no duplicates and only declared modes", prop.ForAll(
		func(symbol string, bits uint8, volume float64) bool {
			inst := instrument(symbol)
			inst.FillModes = models.FillModeSet(bits)
			r := NewResolver(DefaultPolicy())

			modes, err := r.Resolve(inst, false, volume)
			if err != nil {
				return errors.Is(err, errors.ErrNoSupportedFillMode)
			}
			seen := map[models.FillMode]bool{}
			for _, m := range modes {
				if seen[m] || !inst.FillModes.Has(m) || m == models.FillBOC {
					return false
				}
				seen[m] = true
			}
			return len(modes) > 0
		},
		symbols, modeSets, gen.Float64Range(0.01, 10),
	))

	properties.TestingRun(t)
}

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier(DefaultRules())

	tests := []struct {
		symbol string
		want   Class
	}{
		{"EURUSD", ClassForex},
		{"eurusd", ClassForex},
		{"XAUUSD", ClassMetal},
		{"US30.cash", ClassIndex},
		{"BTCXYZ", ClassOther},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.symbol); got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.symbol, got, tt.want)
		}
	}
}
