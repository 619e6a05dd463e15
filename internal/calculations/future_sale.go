package calculations

import (
	"math"

	"github.com/cloud-ru/realty-projection-go/pkg/utils"
)

// SaleLedger представляет бухгалтерскую форму расчета продажи.
// TotalPaid, OutstandingBalance и HoldingCosts хранятся уже с отрицательным знаком.
type SaleLedger struct {
	ProjectedSaleValue float64 `json:"projected_sale_value"`
	TotalPaid          float64 `json:"total_paid"`
	OutstandingBalance float64 `json:"outstanding_balance"`
	HoldingCosts       float64 `json:"holding_costs"`
	SaleExpenses       float64 `json:"sale_expenses"`
}

// GrossProfit рассчитывает валовую прибыль по записям журнала
func (l SaleLedger) GrossProfit() float64 {
	return l.ProjectedSaleValue + l.TotalPaid + l.OutstandingBalance + l.HoldingCosts - l.SaleExpenses
}

// CalculateFutureSale рассчитывает стратегию продажи объекта в месяц SaleMonth.
// Если график не передан, сумма вложений оценивается по закрытой формуле.
func CalculateFutureSale(p *Projection, params ScenarioParameters, schedule []ScheduleEntry) (*FutureSaleResult, []CashFlowItem, error) {
	if !utils.IsFinite(p.ListPrice) || p.ListPrice <= 0 {
		return nil, nil, Errorf(ErrInvalidParameters, "цена должна быть положительной")
	}
	if params.SaleMonth < 1 {
		return nil, nil, Errorf(ErrInvalidParameters, "месяц продажи должен быть ≥ 1, получено %d", params.SaleMonth)
	}

	price := p.ListPrice
	years := float64(params.SaleMonth) / 12

	futureValue := price * math.Pow(1+params.SaleAppreciationRate, years)
	saleExpenses := futureValue * (params.SellingExpenseRate + params.AdditionalCostsRate)
	holding := params.SaleMaintenanceCosts * years

	paid, outstanding := 0.0, 0.0
	fromSchedule := len(schedule) > 0
	if fromSchedule {
		for _, r := range schedule {
			if r.Month <= params.SaleMonth {
				paid += r.CorrectedAmount
			} else {
				outstanding += r.CorrectedAmount
			}
		}
	} else {
		paid = closedFormInvestment(p, params)
	}

	totalInvested := paid + outstanding + holding
	grossProfit := futureValue - saleExpenses - totalInvested
	incomeTax := math.Max(0, grossProfit) * params.IncomeTaxRate
	netProfit := grossProfit - incomeTax

	roi := 0.0
	if totalInvested > 0 && netProfit > 0 {
		roi = netProfit / totalInvested
	}

	payback := 0
	monthlyAppreciation := price * (math.Pow(1+params.SaleAppreciationRate, 1.0/12) - 1)
	if netProfit > 0 && monthlyAppreciation > 0 {
		payback = int(math.Ceil(totalInvested / monthlyAppreciation))
	}

	cashFlow := futureSaleCashFlow(p, params, schedule, futureValue-saleExpenses-outstanding-holding)
	flows := make([]float64, params.SaleMonth+1)
	for _, cf := range cashFlow {
		flows[cf.Month] += cf.Amount
	}

	result := &FutureSaleResult{
		PurchasePrice: price,
		SaleMonth:     params.SaleMonth,
		TotalInvested: totalInvested,
		FromSchedule:  fromSchedule,
		FutureValue:   futureValue,
		SaleExpenses:  saleExpenses,
		GrossProfit:   grossProfit,
		IncomeTax:     incomeTax,
		NetProfit:     netProfit,
		ROI:           roi,
		PaybackMonths: payback,
		IRR:           SolveIRR(flows, DefaultIRROptions()),
		Ledger: SaleLedger{
			ProjectedSaleValue: futureValue,
			TotalPaid:          -paid,
			OutstandingBalance: -outstanding,
			HoldingCosts:       -holding,
			SaleExpenses:       saleExpenses,
		},
	}
	return result, cashFlow, nil
}

// closedFormInvestment оценивает сумму платежей без графика:
// взнос плюс финансируемая часть, увеличенная на среднюю накопленную коррекцию
func closedFormInvestment(p *Projection, params ScenarioParameters) float64 {
	down := EffectiveDownPayment(p.ListPrice, p.DownPayment, p.DownPaymentPercent)
	financed := p.ListPrice - down
	h := p.PaymentMonths
	if h <= 0 {
		return down + financed
	}

	d := p.DeliveryMonths
	sum := 0.0
	for m := 1; m <= h; m++ {
		pre := m
		if pre > d {
			pre = d
		}
		post := m - d
		if post < 0 {
			post = 0
		}
		sum += params.PreDeliveryCorrection*float64(pre) + params.PostDeliveryCorrection*float64(post)
	}
	mean := sum / float64(h)
	return down + financed*(1+mean/100)
}

// futureSaleCashFlow формирует потоки по месяцам 0..SaleMonth; выручка от продажи
// (за вычетом расходов и непогашенного остатка) приходится на месяц продажи
func futureSaleCashFlow(p *Projection, params ScenarioParameters, schedule []ScheduleEntry, proceeds float64) []CashFlowItem {
	cashFlow := make([]CashFlowItem, 0, len(schedule)+2)
	if len(schedule) == 0 {
		cashFlow = append(cashFlow, CashFlowItem{
			Month:       0,
			Description: "investment",
			Amount:      -closedFormInvestment(p, params),
		})
	}
	for _, r := range schedule {
		if r.Month > params.SaleMonth {
			break
		}
		cashFlow = append(cashFlow, CashFlowItem{
			Month:       r.Month,
			Description: string(r.Kind),
			Amount:      -r.CorrectedAmount,
		})
	}
	cashFlow = append(cashFlow, CashFlowItem{
		Month:       params.SaleMonth,
		Description: "sale",
		Amount:      proceeds,
	})
	return cashFlow
}
