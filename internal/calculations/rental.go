package calculations

import (
	"math"

	"github.com/cloud-ru/realty-projection-go/pkg/utils"
)

// FixedCosts представляет постоянные расходы владельца после сдачи объекта
type FixedCosts struct {
	CondoFees   float64 `json:"condo_fees"`   // в месяц
	PropertyTax float64 `json:"property_tax"` // в год
}

// MonthlyNetRent рассчитывает чистый месячный доход от аренды
func MonthlyNetRent(params ScenarioParameters) float64 {
	occupied := params.MonthlyRent * params.OccupancyRate
	return occupied - occupied*params.ManagementFee - occupied*params.RentalMaintenanceRate
}

// MonthsRemainingAfterDelivery возвращает число полных месяцев аренды в году сдачи
func MonthsRemainingAfterDelivery(deliveryMonths int) int {
	return 12 - (deliveryMonths%12 + 1)
}

// CalculateRentalYield рассчитывает годовой ряд арендного дохода на DeliveryYears+AnalysisYears лет
func CalculateRentalYield(price, furnishing float64, params ScenarioParameters, deliveryMonths int, fixed FixedCosts) (*RentalYieldResult, []RentalYear, error) {
	if !utils.IsFinite(price) || price <= 0 {
		return nil, nil, Errorf(ErrInvalidParameters, "цена должна быть положительной")
	}
	if furnishing < 0 || fixed.CondoFees < 0 || fixed.PropertyTax < 0 {
		return nil, nil, Errorf(ErrInvalidParameters, "расходы не могут быть отрицательными")
	}
	if deliveryMonths < 0 || params.AnalysisYears < 0 {
		return nil, nil, Errorf(ErrInvalidParameters, "срок сдачи и горизонт анализа не могут быть отрицательными")
	}

	investment := price + furnishing
	dy := DeliveryYears(deliveryMonths)
	total := dy + params.AnalysisYears

	occupied := params.MonthlyRent * params.OccupancyRate
	variableRate := params.ManagementFee + params.RentalMaintenanceRate

	series := make([]RentalYear, 0, total)
	for year := 1; year <= total; year++ {
		if year <= dy {
			series = append(series, RentalYear{Year: year})
			continue
		}

		months := 12
		escalation := 1.0
		if year == dy+1 {
			months = MonthsRemainingAfterDelivery(deliveryMonths)
		} else {
			escalation = math.Pow(1+params.AnnualRentIncrease, float64(year-dy-1))
		}

		income := occupied * escalation * float64(months)
		expenses := income*variableRate + fixed.CondoFees*float64(months) + fixed.PropertyTax*float64(months)/12
		net := income - expenses

		series = append(series, RentalYear{
			Year:         year,
			Months:       months,
			RentalIncome: income,
			Expenses:     expenses,
			NetIncome:    net,
			YieldRate:    net / investment,
		})
	}

	monthly := MonthlyNetRent(params)
	annual := monthly * 12

	return &RentalYieldResult{
		InitialInvestment:    investment,
		FurnishingCosts:      furnishing,
		MonthlyNetIncome:     monthly,
		AnnualNetIncome:      annual,
		AnnualYield:          annual / investment,
		AverageMonthlyIncome: averageMonthlyIncome(series),
	}, series, nil
}

// averageMonthlyIncome считает средний месячный доход по годам с положительным доходом
func averageMonthlyIncome(series []RentalYear) float64 {
	sum := 0.0
	n := 0
	for _, y := range series {
		if y.NetIncome > 0 {
			sum += y.NetIncome
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) / 12
}
