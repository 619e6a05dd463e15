package calculations

import "strings"

var scenarioAliases = map[string]Scenario{
	"conservative": ScenarioConservative,
	"conservador":  ScenarioConservative,
	"standard":     ScenarioStandard,
	"padrao":       ScenarioStandard,
	"realistic":    ScenarioStandard,
	"optimistic":   ScenarioOptimistic,
	"otimista":     ScenarioOptimistic,
}

// ParseScenario разбирает имя сценария, включая устаревшие псевдонимы
func ParseScenario(name string) (Scenario, error) {
	if s, ok := scenarioAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s, nil
	}
	return "", Errorf(ErrInvalidScenario, "неизвестный сценарий %q", name)
}

// ParseStrategy разбирает имя стратегии
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToUpper(strings.TrimSpace(name)))
	for _, v := range AllStrategies {
		if v == s {
			return s, nil
		}
	}
	return "", Errorf(ErrInvalidStrategy, "неизвестная стратегия %q", name)
}

// ResolveScenario собирает параметры сценария: значение сценария, затем общее поле,
// затем значение по умолчанию для сценария
func ResolveScenario(p *Projection, name Scenario) (ScenarioParameters, error) {
	s, err := ParseScenario(string(name))
	if err != nil {
		return ScenarioParameters{}, err
	}
	def := DefaultScenarioTable[s]
	own := p.Scenarios[s]
	gen := p.Generic

	params := ScenarioParameters{
		Scenario:               s,
		SaleAppreciationRate:   frac(def.SaleAppreciationRate, own.SaleAppreciationRate, gen.SaleAppreciationRate),
		AssetAppreciationRate:  frac(def.AssetAppreciationRate, own.AssetAppreciationRate, own.SaleAppreciationRate, gen.AssetAppreciationRate, gen.SaleAppreciationRate),
		SellingExpenseRate:     frac(def.SellingExpenseRate, own.SellingExpenseRate, gen.SellingExpenseRate),
		AdditionalCostsRate:    frac(def.AdditionalCostsRate, own.AdditionalCostsRate, gen.AdditionalCostsRate),
		IncomeTaxRate:          frac(def.IncomeTaxRate, own.IncomeTaxRate, gen.IncomeTaxRate),
		SaleMaintenanceCosts:   pick(def.SaleMaintenanceCosts, own.SaleMaintenanceCosts, gen.SaleMaintenanceCosts),
		SaleMonth:              pickInt(def.SaleMonth(p.DeliveryMonths), own.SaleMonth, gen.SaleMonth),
		AnalysisYears:          pickInt(def.AnalysisYears, own.AnalysisYears, gen.AnalysisYears),
		AssetMaintenanceCosts:  pick(def.AssetMaintenanceCosts, own.AssetMaintenanceCosts, gen.AssetMaintenanceCosts),
		AssetAnnualTaxes:       pick(def.AssetAnnualTaxes, own.AssetAnnualTaxes, gen.AssetAnnualTaxes),
		MonthlyRent:            pick(p.ListPrice*def.MonthlyRentRatio/100, own.MonthlyRent, gen.MonthlyRent),
		OccupancyRate:          frac(def.OccupancyRate, own.OccupancyRate, gen.OccupancyRate),
		ManagementFee:          frac(def.ManagementFee, own.ManagementFee, gen.ManagementFee),
		RentalMaintenanceRate:  frac(def.RentalMaintenanceRate, own.RentalMaintenanceRate, gen.RentalMaintenanceRate),
		AnnualRentIncrease:     frac(def.AnnualRentIncrease, own.AnnualRentIncrease, gen.AnnualRentIncrease),
		PreDeliveryCorrection:  pick(p.MonthlyCorrection, own.PreDeliveryCorrection),
		PostDeliveryCorrection: pick(p.PostDeliveryCorrection, own.PostDeliveryCorrection),
	}
	return params, nil
}

// pick возвращает первое заданное значение или fallback
func pick(fallback float64, vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return fallback
}

// frac работает как pick, но переводит проценты в доли
func frac(fallback float64, vals ...*float64) float64 {
	return pick(fallback, vals...) / 100
}

func pickInt(fallback int, vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return fallback
}
