package guard

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"mt5-guard/internal/models"
)

func fiveDigitQuote(symbol string, bid float64) *models.Quote {
	return &models.Quote{Symbol: symbol, Bid: bid, Ask: bid + 0.00002, Time: time.Now()}
}

func TestComputeUpdate_ActivationPending(t *testing.T) {
	pos := &models.Position{
		Ticket:    1,
		Symbol:    "EURUSD",
		Direction: models.DirectionLong,
		OpenPrice: 1.0800,
	}
	cfg := &models.TrailConfig{Ticket: 1, Distance: 0.0020, Activation: 0.0030}

	// Favorable distance 0.0025 < activation 0.0030
	decision := ComputeUpdate(pos, fiveDigitQuote("EURUSD", 1.0825), cfg, 5)
	if decision.Kind != ActivationPending {
		t.Fatalf("expected ActivationPending, got %s", decision.Kind)
	}
}

func TestComputeUpdate_FirstStopAfterActivation(t *testing.T) {
	pos := &models.Position{
		Ticket:    1,
		Symbol:    "EURUSD",
		Direction: models.DirectionLong,
		OpenPrice: 1.0800,
	}
	cfg := &models.TrailConfig{Ticket: 1, Distance: 0.0020, Activation: 0.0030}

	// Favorable distance 0.0035 >= activation, no existing stop
	decision := ComputeUpdate(pos, fiveDigitQuote("EURUSD", 1.0835), cfg, 5)
	if decision.Kind != Update {
		t.Fatalf("expected Update, got %s", decision.Kind)
	}
	if decision.NewStop != 1.0815 {
		t.Fatalf("expected stop 1.0815, got %v", decision.NewStop)
	}
}

func TestComputeUpdate_NoChangeWhenNotImproving(t *testing.T) {
	pos := &models.Position{
		Ticket:    1,
		Symbol:    "EURUSD",
		Direction: models.DirectionLong,
		OpenPrice: 1.0800,
		StopLoss:  1.0815,
	}
	cfg := &models.TrailConfig{Ticket: 1, Distance: 0.0020}

	// Candidate 1.0815 equals the existing stop; strict improvement required.
	decision := ComputeUpdate(pos, fiveDigitQuote("EURUSD", 1.0835), cfg, 5)
	if decision.Kind != NoChange {
		t.Fatalf("expected NoChange, got %s", decision.Kind)
	}

	// Price fell back; candidate is below the existing stop.
	decision = ComputeUpdate(pos, fiveDigitQuote("EURUSD", 1.0820), cfg, 5)
	if decision.Kind != NoChange {
		t.Fatalf("expected NoChange after pullback, got %s", decision.Kind)
	}
}

func TestComputeUpdate_ShortTrailsAgainstAsk(t *testing.T) {
	pos := &models.Position{
		Ticket:    2,
		Symbol:    "EURUSD",
		Direction: models.DirectionShort,
		OpenPrice: 1.0800,
	}
	cfg := &models.TrailConfig{Ticket: 2, Distance: 0.0020}

	quote := &models.Quote{Symbol: "EURUSD", Bid: 1.0748, Ask: 1.0750}
	decision := ComputeUpdate(pos, quote, cfg, 5)
	if decision.Kind != Update {
		t.Fatalf("expected Update, got %s", decision.Kind)
	}
	if decision.NewStop != 1.0770 {
		t.Fatalf("expected stop 1.0770, got %v", decision.NewStop)
	}

	// A worse (higher) ask must never loosen the stop.
	pos.StopLoss = 1.0770
	quote = &models.Quote{Symbol: "EURUSD", Bid: 1.0758, Ask: 1.0760}
	decision = ComputeUpdate(pos, quote, cfg, 5)
	if decision.Kind != NoChange {
		t.Fatalf("expected NoChange, got %s", decision.Kind)
	}
}

// Property: a long position's stop never decreases across successive
// computeUpdate calls with non-decreasing prices.
func TestProperty_LongStopMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("long stop only tightens under rising prices", prop.ForAll(
		func(entry float64, distancePips int, steps []int) bool {
			distance := float64(distancePips) * 0.0001
			pos := &models.Position{
				Ticket:    1,
				Symbol:    "EURUSD",
				Direction: models.DirectionLong,
				OpenPrice: entry,
			}
			cfg := &models.TrailConfig{Ticket: 1, Distance: distance}

			price := entry
			lastStop := 0.0
			for _, step := range steps {
				price += float64(step) * 0.0001 // non-decreasing
				decision := ComputeUpdate(pos, fiveDigitQuote("EURUSD", price), cfg, 5)
				switch decision.Kind {
				case Update:
					if lastStop != 0 && decision.NewStop <= lastStop {
						return false
					}
					lastStop = decision.NewStop
					pos.StopLoss = decision.NewStop
				case NoChange:
					// fine: stop stays where it is
				default:
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.5, 2.0),
		gen.IntRange(1, 100),
		gen.SliceOfN(20, gen.IntRange(0, 50)),
	))

	properties.TestingRun(t)
}

// Property: a short position's stop never increases across successive
// calls with non-increasing prices.
func TestProperty_ShortStopMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("short stop only tightens under falling prices", prop.ForAll(
		func(entry float64, distancePips int, steps []int) bool {
			distance := float64(distancePips) * 0.0001
			pos := &models.Position{
				Ticket:    1,
				Symbol:    "EURUSD",
				Direction: models.DirectionShort,
				OpenPrice: entry,
			}
			cfg := &models.TrailConfig{Ticket: 1, Distance: distance}

			price := entry
			lastStop := 0.0
			for _, step := range steps {
				price -= float64(step) * 0.0001 // non-increasing
				quote := &models.Quote{Symbol: "EURUSD", Bid: price - 0.00002, Ask: price}
				decision := ComputeUpdate(pos, quote, cfg, 5)
				switch decision.Kind {
				case Update:
					if lastStop != 0 && decision.NewStop >= lastStop {
						return false
					}
					lastStop = decision.NewStop
					pos.StopLoss = decision.NewStop
				case NoChange:
				default:
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.5, 2.0),
		gen.IntRange(1, 100),
		gen.SliceOfN(20, gen.IntRange(0, 50)),
	))

	properties.TestingRun(t)
}

// Property: whenever the activation distance exceeds the favorable
// distance, the result is ActivationPending regardless of the trailing
// distance value.
func TestProperty_ActivationGatesAllDistances(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("activation pending whenever favorable < activation", prop.ForAll(
		func(favorablePips, shortfallPips, distancePips int) bool {
			entry := 1.0800
			favorable := float64(favorablePips) * 0.0001
			activation := favorable + float64(shortfallPips)*0.0001

			pos := &models.Position{
				Ticket:    1,
				Symbol:    "EURUSD",
				Direction: models.DirectionLong,
				OpenPrice: entry,
			}
			cfg := &models.TrailConfig{
				Ticket:     1,
				Distance:   float64(distancePips) * 0.0001,
				Activation: activation,
			}

			decision := ComputeUpdate(pos, fiveDigitQuote("EURUSD", entry+favorable), cfg, 5)
			return decision.Kind == ActivationPending
		},
		gen.IntRange(0, 200),
		gen.IntRange(1, 200),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}
