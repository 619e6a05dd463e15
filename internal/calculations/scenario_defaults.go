package calculations

import "math"

// ScenarioDefaults содержит жестко заданные значения сценария в процентах.
// MonthlyRentRatio задает аренду как процент от цены объекта.
type ScenarioDefaults struct {
	SaleAppreciationRate  float64
	AssetAppreciationRate float64
	SellingExpenseRate    float64
	AdditionalCostsRate   float64
	IncomeTaxRate         float64
	SaleMaintenanceCosts  float64
	AnalysisYears         int
	AssetMaintenanceCosts float64
	AssetAnnualTaxes      float64
	MonthlyRentRatio      float64
	OccupancyRate         float64
	ManagementFee         float64
	RentalMaintenanceRate float64
	AnnualRentIncrease    float64
	SaleMonth             func(deliveryMonths int) int
}

// DefaultScenarioTable задает значения по умолчанию, если ни сценарий, ни общие поля не заданы
var DefaultScenarioTable = map[Scenario]ScenarioDefaults{
	ScenarioConservative: {
		SaleAppreciationRate:  7,
		AssetAppreciationRate: 15,
		SellingExpenseRate:    6,
		IncomeTaxRate:         15,
		AnalysisYears:         5,
		MonthlyRentRatio:      0.4,
		OccupancyRate:         90,
		ManagementFee:         8,
		AnnualRentIncrease:    4,
		SaleMonth: func(d int) int {
			return int(math.Round(float64(d) * 1.3))
		},
	},
	ScenarioStandard: {
		SaleAppreciationRate:  10,
		AssetAppreciationRate: 20,
		SellingExpenseRate:    5,
		IncomeTaxRate:         15,
		AnalysisYears:         5,
		MonthlyRentRatio:      0.5,
		OccupancyRate:         95,
		ManagementFee:         8,
		AnnualRentIncrease:    5,
		SaleMonth: func(d int) int {
			return d + 1
		},
	},
	ScenarioOptimistic: {
		SaleAppreciationRate:  15,
		AssetAppreciationRate: 25,
		SellingExpenseRate:    4,
		IncomeTaxRate:         15,
		AnalysisYears:         5,
		MonthlyRentRatio:      0.6,
		OccupancyRate:         98,
		ManagementFee:         7,
		AnnualRentIncrease:    6,
		SaleMonth: func(d int) int {
			m := int(math.Round(float64(d) * 0.7))
			if m < 1 {
				m = 1
			}
			return m
		},
	},
}
