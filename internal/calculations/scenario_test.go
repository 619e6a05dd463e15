package calculations

import (
	"errors"
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestParseScenario(t *testing.T) {
	tests := []struct {
		input   string
		want    Scenario
		wantErr bool
	}{
		{input: "conservative", want: ScenarioConservative},
		{input: "Standard", want: ScenarioStandard},
		{input: " optimistic ", want: ScenarioOptimistic},
		{input: "conservador", want: ScenarioConservative},
		{input: "padrao", want: ScenarioStandard},
		{input: "realistic", want: ScenarioStandard},
		{input: "otimista", want: ScenarioOptimistic},
		{input: "bullish", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScenario(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScenario() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidScenario) {
				t.Errorf("expected InvalidScenario, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseScenario() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveScenarioDefaults(t *testing.T) {
	p := &Projection{ListPrice: 300000, DeliveryMonths: 40, MonthlyCorrection: 0.2, PostDeliveryCorrection: 0.5}

	tests := []struct {
		scenario  Scenario
		sale      float64
		asset     float64
		selling   float64
		rent      float64
		occupancy float64
		fee       float64
		increase  float64
		saleMonth int
	}{
		{ScenarioConservative, 0.07, 0.15, 0.06, 1200, 0.90, 0.08, 0.04, 52},
		{ScenarioStandard, 0.10, 0.20, 0.05, 1500, 0.95, 0.08, 0.05, 41},
		{ScenarioOptimistic, 0.15, 0.25, 0.04, 1800, 0.98, 0.07, 0.06, 28},
	}

	for _, tt := range tests {
		t.Run(string(tt.scenario), func(t *testing.T) {
			got, err := ResolveScenario(p, tt.scenario)
			if err != nil {
				t.Fatalf("ResolveScenario() error = %v", err)
			}
			checks := []struct {
				name      string
				got, want float64
			}{
				{"sale appreciation", got.SaleAppreciationRate, tt.sale},
				{"asset appreciation", got.AssetAppreciationRate, tt.asset},
				{"selling expense", got.SellingExpenseRate, tt.selling},
				{"monthly rent", got.MonthlyRent, tt.rent},
				{"occupancy", got.OccupancyRate, tt.occupancy},
				{"management fee", got.ManagementFee, tt.fee},
				{"rent increase", got.AnnualRentIncrease, tt.increase},
				{"income tax", got.IncomeTaxRate, 0.15},
				{"pre-delivery correction", got.PreDeliveryCorrection, 0.2},
				{"post-delivery correction", got.PostDeliveryCorrection, 0.5},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.want) > 1e-12 {
					t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
				}
			}
			if got.SaleMonth != tt.saleMonth {
				t.Errorf("sale month = %d, want %d", got.SaleMonth, tt.saleMonth)
			}
			if got.AnalysisYears != 5 {
				t.Errorf("analysis years = %d, want 5", got.AnalysisYears)
			}
			if got.Scenario != tt.scenario {
				t.Errorf("scenario = %q, want %q", got.Scenario, tt.scenario)
			}
		})
	}
}

func TestResolveScenarioFallbackOrder(t *testing.T) {
	p := &Projection{
		ListPrice:      300000,
		DeliveryMonths: 1,
		Generic: ScenarioInputs{
			SaleAppreciationRate: f64(9),
			SellingExpenseRate:   f64(3),
			SaleMonth:            intp(30),
		},
		Scenarios: map[Scenario]ScenarioInputs{
			ScenarioOptimistic: {
				SaleAppreciationRate:  f64(18),
				PreDeliveryCorrection: f64(0.7),
				MonthlyRent:           f64(2500),
			},
		},
	}

	opt, err := ResolveScenario(p, ScenarioOptimistic)
	if err != nil {
		t.Fatalf("ResolveScenario() error = %v", err)
	}
	if opt.SaleAppreciationRate != 0.18 {
		t.Errorf("scenario value must win: %v", opt.SaleAppreciationRate)
	}
	if opt.AssetAppreciationRate != 0.18 {
		t.Errorf("asset rate must fall back to the scenario sale rate: %v", opt.AssetAppreciationRate)
	}
	if opt.SellingExpenseRate != 0.03 {
		t.Errorf("generic value must beat the default: %v", opt.SellingExpenseRate)
	}
	if opt.SaleMonth != 30 {
		t.Errorf("sale month = %d, want generic 30", opt.SaleMonth)
	}
	if opt.PreDeliveryCorrection != 0.7 || opt.MonthlyRent != 2500 {
		t.Errorf("scenario overrides not applied: %+v", opt)
	}

	std, err := ResolveScenario(p, "padrao")
	if err != nil {
		t.Fatalf("ResolveScenario() error = %v", err)
	}
	if std.SaleAppreciationRate != 0.09 || std.AssetAppreciationRate != 0.09 {
		t.Errorf("standard must use generic rates, got %v / %v", std.SaleAppreciationRate, std.AssetAppreciationRate)
	}

	if _, err := ResolveScenario(p, "unknown"); !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("expected InvalidScenario, got %v", err)
	}
}

func TestOptimisticSaleMonthFloor(t *testing.T) {
	if got := DefaultScenarioTable[ScenarioOptimistic].SaleMonth(0); got != 1 {
		t.Errorf("optimistic sale month for immediate delivery = %d, want 1", got)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy("rental_yield"); err != nil || s != StrategyRentalYield {
		t.Errorf("ParseStrategy() = %q, %v", s, err)
	}
	if _, err := ParseStrategy("flip"); !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("expected InvalidStrategy, got %v", err)
	}
}
