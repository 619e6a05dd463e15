package calculations

import (
	"github.com/cloud-ru/realty-projection-go/pkg/utils"
)

// DeliveryYears возвращает число лет до сдачи объекта (с округлением вверх)
func DeliveryYears(deliveryMonths int) int {
	if deliveryMonths <= 0 {
		return 0
	}
	return (deliveryMonths + 11) / 12
}

// CalculateAssetAppreciation рассчитывает годовой ряд стоимости объекта:
// линейный рост в период строительства, затем сложная валоризация
func CalculateAssetAppreciation(price float64, params ScenarioParameters, deliveryMonths int) (*AssetAppreciationResult, []AppreciationYear, error) {
	if !utils.IsFinite(price) || price <= 0 {
		return nil, nil, Errorf(ErrInvalidParameters, "цена должна быть положительной")
	}
	if deliveryMonths < 0 || params.AnalysisYears < 0 {
		return nil, nil, Errorf(ErrInvalidParameters, "срок сдачи и горизонт анализа не могут быть отрицательными")
	}

	dy := DeliveryYears(deliveryMonths)
	total := dy + params.AnalysisYears
	annualCharges := params.AssetMaintenanceCosts + params.AssetAnnualTaxes

	prev := 0.0
	if dy == 0 {
		prev = price
	}

	series := make([]AppreciationYear, 0, total)
	for year := 1; year <= total; year++ {
		var value float64
		switch {
		case year == dy:
			value = price
		case year < dy:
			value = price * float64(year) / float64(dy)
		default:
			value = prev * (1 + params.AssetAppreciationRate)
		}

		charges := 0.0
		if year > dy {
			charges = annualCharges * float64(year-dy)
		}

		series = append(series, AppreciationYear{
			Year:               year,
			PropertyValue:      value,
			Appreciation:       value - prev,
			AccumulatedCharges: charges,
			NetValue:           value - charges,
		})
		prev = value
	}

	return summarizeAppreciation(price, dy, series), series, nil
}

// summarizeAppreciation выводит итоги только из годового ряда
func summarizeAppreciation(price float64, dy int, series []AppreciationYear) *AssetAppreciationResult {
	initial := price
	if dy > 0 && dy <= len(series) {
		initial = series[dy-1].PropertyValue
	}
	final := initial
	charges := 0.0
	if n := len(series); n > 0 {
		final = series[n-1].PropertyValue
		charges = series[n-1].AccumulatedCharges
	}

	return &AssetAppreciationResult{
		InitialValue:           initial,
		TotalMaintenance:       charges,
		FinalValue:             final,
		AppreciationPercentage: final/initial - 1,
	}
}
