package projection

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
)

func testProjection() *calculations.Projection {
	return &calculations.Projection{
		ID:                     1,
		Title:                  "Residencial Aurora",
		ListPrice:              300000,
		DownPayment:            60000,
		DeliveryMonths:         40,
		PaymentMonths:          60,
		MonthlyCorrection:      0.2,
		PostDeliveryCorrection: 0.5,
		KeysValue:              10000,
		FurnishingCosts:        15000,
		CondoFees:              250,
	}
}

func testAggregator(builder calculations.ScheduleBuilder) *Aggregator {
	a := NewAggregator(builder)
	a.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	a.NewRunID = func() string { return "run-test" }
	return a
}

type failingBuilder struct{}

func (failingBuilder) BuildSchedule(ctx context.Context, in calculations.ScheduleInput) ([]calculations.ScheduleEntry, error) {
	return nil, calculations.Errorf(calculations.ErrRecomputeFailed, "compute service timed out")
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name         string
		strategies   []calculations.Strategy
		checkSummary func(*testing.T, *calculations.ScenarioResults)
	}{
		{
			name: "all strategies by default",
			checkSummary: func(t *testing.T, sr *calculations.ScenarioResults) {
				if sr.FutureSale == nil || sr.AssetAppreciation == nil || sr.RentalYield == nil {
					t.Errorf("expected all strategy blocks, got %+v", sr)
				}
				if len(sr.FutureSaleCashFlow) == 0 {
					t.Errorf("expected a sale cash flow")
				}
				if len(sr.AssetAppreciationYearly) != 4+5 || len(sr.RentalYieldYearly) != 4+5 {
					t.Errorf("unexpected yearly series lengths %d / %d", len(sr.AssetAppreciationYearly), len(sr.RentalYieldYearly))
				}
			},
		},
		{
			name:       "only rental yield",
			strategies: []calculations.Strategy{calculations.StrategyRentalYield},
			checkSummary: func(t *testing.T, sr *calculations.ScenarioResults) {
				if sr.FutureSale != nil || sr.AssetAppreciation != nil {
					t.Errorf("disabled strategies must be absent")
				}
				if sr.RentalYield == nil {
					t.Errorf("rental yield must be present")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProjection()
			p.Strategies = tt.strategies

			results, err := testAggregator(nil).Aggregate(context.Background(), p)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if results.RunID != "run-test" {
				t.Errorf("run id = %q", results.RunID)
			}
			if len(results.Schedules) != 3 || len(results.Scenarios) != 3 {
				t.Fatalf("expected 3 schedules and 3 scenarios, got %d / %d", len(results.Schedules), len(results.Scenarios))
			}
			for _, s := range calculations.AllScenarios {
				sr := results.Scenarios[s]
				if sr == nil {
					t.Fatalf("scenario %s missing", s)
				}
				if results.Schedules[sr.ScheduleRef] == nil || sr.ScheduleRef != s {
					t.Errorf("scenario %s references schedule %q", s, sr.ScheduleRef)
				}
				if sr.Parameters.Scenario != s {
					t.Errorf("scenario %s carries parameters of %s", s, sr.Parameters.Scenario)
				}
				tt.checkSummary(t, sr)
			}
		})
	}
}

func TestAggregateSchedulesFollowScenarioCorrections(t *testing.T) {
	p := testProjection()
	p.Scenarios = map[calculations.Scenario]calculations.ScenarioInputs{
		calculations.ScenarioOptimistic: {PreDeliveryCorrection: floatPtr(0.8)},
	}

	results, err := testAggregator(nil).Aggregate(context.Background(), p)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	std := results.Schedules[calculations.ScenarioStandard].Summary
	opt := results.Schedules[calculations.ScenarioOptimistic].Summary
	if !(opt.TotalCorrection > std.TotalCorrection) {
		t.Errorf("higher correction must cost more: %v <= %v", opt.TotalCorrection, std.TotalCorrection)
	}
	if math.Abs(std.TotalBase-p.ListPrice) > 1e-6 {
		t.Errorf("total base = %v, want %v", std.TotalBase, p.ListPrice)
	}
}

func TestAggregateBuilderFailure(t *testing.T) {
	_, err := testAggregator(failingBuilder{}).Aggregate(context.Background(), testProjection())
	if !errors.Is(err, calculations.ErrRecomputeFailed) {
		t.Errorf("expected RecomputeFailed, got %v", err)
	}
}

func TestAggregateStrategy(t *testing.T) {
	ctx := context.Background()
	p := testProjection()
	p.Strategies = []calculations.Strategy{calculations.StrategyFutureSale, calculations.StrategyRentalYield}

	agg := testAggregator(nil)
	existing, err := agg.Aggregate(ctx, p)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	oldRental := existing.Scenarios[calculations.ScenarioStandard].RentalYield
	oldSale := existing.Scenarios[calculations.ScenarioStandard].FutureSale

	p.Generic.MonthlyRent = floatPtr(2000)
	merged, err := agg.AggregateStrategy(ctx, p, existing, calculations.StrategyRentalYield)
	if err != nil {
		t.Fatalf("AggregateStrategy() error = %v", err)
	}

	std := merged.Scenarios[calculations.ScenarioStandard]
	if std.FutureSale != oldSale {
		t.Errorf("future sale block must be kept from the existing aggregate")
	}
	if std.RentalYield == oldRental || std.RentalYield.MonthlyNetIncome <= oldRental.MonthlyNetIncome {
		t.Errorf("rental yield must be recomputed with the new rent")
	}
	if existing.Scenarios[calculations.ScenarioStandard].RentalYield != oldRental {
		t.Errorf("existing aggregate must not be mutated")
	}
	if merged.Schedules[calculations.ScenarioStandard] != existing.Schedules[calculations.ScenarioStandard] {
		t.Errorf("existing schedule must be reused")
	}

	if _, err := agg.AggregateStrategy(ctx, p, existing, calculations.StrategyAssetAppreciation); !errors.Is(err, calculations.ErrStrategyNotEnabled) {
		t.Errorf("expected StrategyNotEnabled, got %v", err)
	}
}

func TestAggregateStrategyBuildsMissingSchedule(t *testing.T) {
	results, err := testAggregator(nil).AggregateStrategy(context.Background(), testProjection(), nil, calculations.StrategyAssetAppreciation)
	if err != nil {
		t.Fatalf("AggregateStrategy() error = %v", err)
	}
	for _, s := range calculations.AllScenarios {
		if results.Schedules[s] == nil || len(results.Schedules[s].Rows) == 0 {
			t.Errorf("schedule for %s must be built", s)
		}
		if results.Scenarios[s].AssetAppreciation == nil {
			t.Errorf("appreciation for %s must be computed", s)
		}
		if results.Scenarios[s].FutureSale != nil {
			t.Errorf("future sale for %s must not be computed", s)
		}
	}
}

func TestIRRWarnings(t *testing.T) {
	rentWarning := &calculations.Error{Kind: calculations.KindInputValidation, Code: "RentBelowCosts"}
	stale := irrWarning(calculations.ScenarioOptimistic, calculations.IRRResult{Residual: 12.5, Iterations: 1200})
	if !errors.Is(stale, calculations.ErrNoConvergence) || stale.Kind != calculations.KindConvergenceFailure {
		t.Errorf("irrWarning() = %+v, want NoConvergence", stale)
	}
	if !strings.Contains(stale.Detail, "optimistic") {
		t.Errorf("irrWarning() detail %q must name the scenario", stale.Detail)
	}

	warnings := dropIRRWarnings([]*calculations.Error{stale, rentWarning})
	if len(warnings) != 1 || warnings[0] != rentWarning {
		t.Errorf("dropIRRWarnings() = %v", warnings)
	}

	results := &calculations.CalculationResults{
		Scenarios: map[calculations.Scenario]*calculations.ScenarioResults{
			calculations.ScenarioConservative: {FutureSale: &calculations.FutureSaleResult{IRR: calculations.IRRResult{Converged: true}}},
			calculations.ScenarioOptimistic:   {FutureSale: &calculations.FutureSaleResult{IRR: calculations.IRRResult{Converged: false}}},
			calculations.ScenarioStandard:     {},
		},
	}
	got := NonConvergedScenarios(results)
	if len(got) != 1 || got[0] != calculations.ScenarioOptimistic {
		t.Errorf("NonConvergedScenarios() = %v", got)
	}
}

func floatPtr(v float64) *float64 { return &v }
