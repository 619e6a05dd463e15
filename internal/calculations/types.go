package calculations

import "time"

// Scenario представляет имя сценария расчета
type Scenario string

const (
	ScenarioConservative Scenario = "conservative"
	ScenarioStandard     Scenario = "standard"
	ScenarioOptimistic   Scenario = "optimistic"
)

// AllScenarios перечисляет сценарии в порядке расчета
var AllScenarios = []Scenario{ScenarioConservative, ScenarioStandard, ScenarioOptimistic}

// Strategy представляет инвестиционную стратегию проекции
type Strategy string

const (
	StrategyFutureSale        Strategy = "FUTURE_SALE"
	StrategyAssetAppreciation Strategy = "ASSET_APPRECIATION"
	StrategyRentalYield       Strategy = "RENTAL_YIELD"
)

// AllStrategies перечисляет поддерживаемые стратегии
var AllStrategies = []Strategy{StrategyFutureSale, StrategyAssetAppreciation, StrategyRentalYield}

// PaymentKind представляет тип платежа в графике
type PaymentKind string

const (
	KindEntry       PaymentKind = "entry"
	KindInstallment PaymentKind = "installment"
	KindTopUp       PaymentKind = "top_up"
	KindKey         PaymentKind = "key"
)

// ScheduleEntry представляет одну строку графика платежей
type ScheduleEntry struct {
	Month                int         `json:"month"`
	Kind                 PaymentKind `json:"kind"`
	BaseAmount           float64     `json:"base_amount"`
	CorrectionRate       float64     `json:"correction_rate"`
	CumulativeCorrection float64     `json:"cumulative_correction"`
	CorrectedAmount      float64     `json:"corrected_amount"`
	OutstandingBalance   float64     `json:"outstanding_balance"`
	// NetBalance не определен для месяца 0.
	NetBalance *float64 `json:"net_balance"`
}

// ScheduleRow представляет строку графика в том виде, в котором она хранится
type ScheduleRow struct {
	Scenario Scenario `json:"scenario"`
	ScheduleEntry
}

// ScheduleSummary представляет сводку по графику
type ScheduleSummary struct {
	ListPrice            float64 `json:"list_price"`
	DownPayment          float64 `json:"down_payment"`
	Financed             float64 `json:"financed"`
	DeliveryMonth        int     `json:"delivery_month"`
	PaymentMonths        int     `json:"payment_months"`
	TotalRows            int     `json:"total_rows"`
	TotalBase            float64 `json:"total_base"`
	TotalPaid            float64 `json:"total_paid"`
	TotalCorrection      float64 `json:"total_correction"`
	CorrectionPercentage float64 `json:"correction_percentage"`
}

// ScheduleBlock содержит график одного сценария вместе со сводкой
type ScheduleBlock struct {
	Rows    []ScheduleEntry `json:"rows"`
	Summary ScheduleSummary `json:"summary"`
}

// CustomInstallment представляет платеж пользовательского плана
type CustomInstallment struct {
	Month  int         `json:"month"`
	Amount float64     `json:"amount"`
	Kind   PaymentKind `json:"kind"`
}

// ScenarioInputs содержит сохраненные значения сценария в процентах; nil означает "не задано"
type ScenarioInputs struct {
	SaleAppreciationRate   *float64 `json:"sale_appreciation_rate,omitempty"`
	AssetAppreciationRate  *float64 `json:"asset_appreciation_rate,omitempty"`
	SellingExpenseRate     *float64 `json:"selling_expense_rate,omitempty"`
	AdditionalCostsRate    *float64 `json:"additional_costs_rate,omitempty"`
	IncomeTaxRate          *float64 `json:"income_tax_rate,omitempty"`
	SaleMaintenanceCosts   *float64 `json:"sale_maintenance_costs,omitempty"`
	SaleMonth              *int     `json:"sale_month,omitempty"`
	AnalysisYears          *int     `json:"analysis_years,omitempty"`
	AssetMaintenanceCosts  *float64 `json:"asset_maintenance_costs,omitempty"`
	AssetAnnualTaxes       *float64 `json:"asset_annual_taxes,omitempty"`
	MonthlyRent            *float64 `json:"monthly_rent,omitempty"`
	OccupancyRate          *float64 `json:"occupancy_rate,omitempty"`
	ManagementFee          *float64 `json:"management_fee,omitempty"`
	RentalMaintenanceRate  *float64 `json:"rental_maintenance_rate,omitempty"`
	AnnualRentIncrease     *float64 `json:"annual_rent_increase,omitempty"`
	PreDeliveryCorrection  *float64 `json:"pre_delivery_correction,omitempty"`
	PostDeliveryCorrection *float64 `json:"post_delivery_correction,omitempty"`
}

// Projection представляет инвестиционный кейс, как он хранится выше по потоку
type Projection struct {
	ID                     int64                       `json:"id"`
	Title                  string                      `json:"title"`
	ListPrice              float64                     `json:"list_price"`
	DownPayment            float64                     `json:"down_payment"`
	DownPaymentPercent     float64                     `json:"down_payment_percent,omitempty"`
	Discount               float64                     `json:"discount"`
	DeliveryMonths         int                         `json:"delivery_months"`
	PaymentMonths          int                         `json:"payment_months"`
	MonthlyCorrection      float64                     `json:"monthly_correction"`
	PostDeliveryCorrection float64                     `json:"post_delivery_correction"`
	IncludeTopUps          bool                        `json:"include_top_ups"`
	TopUpFrequency         int                         `json:"top_up_frequency"`
	TopUpValue             float64                     `json:"top_up_value"`
	KeysValue              float64                     `json:"keys_value"`
	FurnishingCosts        float64                     `json:"furnishing_costs"`
	CondoFees              float64                     `json:"condo_fees"`
	PropertyTax            float64                     `json:"property_tax"`
	Strategies             []Strategy                  `json:"strategies"`
	InstallmentPlan        []CustomInstallment         `json:"installment_plan,omitempty"`
	Generic                ScenarioInputs              `json:"generic"`
	Scenarios              map[Scenario]ScenarioInputs `json:"scenarios"`
	Results                *CalculationResults         `json:"calculation_results,omitempty"`
}

// HasStrategy сообщает, включена ли стратегия для проекции; пустой список включает все
func (p *Projection) HasStrategy(s Strategy) bool {
	if len(p.Strategies) == 0 {
		return true
	}
	for _, v := range p.Strategies {
		if v == s {
			return true
		}
	}
	return false
}

// ScenarioParameters представляет неизменяемый набор параметров одного сценария.
// Ставки хранятся долями, кроме ставок коррекции: они остаются в процентах в месяц,
// как их принимает построитель графика.
type ScenarioParameters struct {
	Scenario               Scenario `json:"scenario"`
	SaleAppreciationRate   float64  `json:"sale_appreciation_rate"`
	AssetAppreciationRate  float64  `json:"asset_appreciation_rate"`
	SellingExpenseRate     float64  `json:"selling_expense_rate"`
	AdditionalCostsRate    float64  `json:"additional_costs_rate"`
	IncomeTaxRate          float64  `json:"income_tax_rate"`
	SaleMaintenanceCosts   float64  `json:"sale_maintenance_costs"`
	SaleMonth              int      `json:"sale_month"`
	AnalysisYears          int      `json:"analysis_years"`
	AssetMaintenanceCosts  float64  `json:"asset_maintenance_costs"`
	AssetAnnualTaxes       float64  `json:"asset_annual_taxes"`
	MonthlyRent            float64  `json:"monthly_rent"`
	OccupancyRate          float64  `json:"occupancy_rate"`
	ManagementFee          float64  `json:"management_fee"`
	RentalMaintenanceRate  float64  `json:"rental_maintenance_rate"`
	AnnualRentIncrease     float64  `json:"annual_rent_increase"`
	PreDeliveryCorrection  float64  `json:"pre_delivery_correction_pct"`
	PostDeliveryCorrection float64  `json:"post_delivery_correction_pct"`
}

// CashFlowItem представляет один поток денежных средств
type CashFlowItem struct {
	Month       int     `json:"month"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// FutureSaleResult представляет результат стратегии будущей продажи
type FutureSaleResult struct {
	PurchasePrice float64    `json:"purchase_price"`
	SaleMonth     int        `json:"sale_month"`
	TotalInvested float64    `json:"total_invested"`
	FromSchedule  bool       `json:"from_schedule"`
	FutureValue   float64    `json:"future_value"`
	SaleExpenses  float64    `json:"sale_expenses"`
	GrossProfit   float64    `json:"gross_profit"`
	IncomeTax     float64    `json:"income_tax"`
	NetProfit     float64    `json:"net_profit"`
	ROI           float64    `json:"roi"`
	PaybackMonths int        `json:"payback_months"`
	IRR           IRRResult  `json:"irr"`
	Ledger        SaleLedger `json:"ledger"`
}

// AppreciationYear представляет точку годового ряда валоризации
type AppreciationYear struct {
	Year               int     `json:"year"`
	PropertyValue      float64 `json:"property_value"`
	Appreciation       float64 `json:"appreciation"`
	AccumulatedCharges float64 `json:"accumulated_charges"`
	NetValue           float64 `json:"net_value"`
}

// AssetAppreciationResult представляет сводку по валоризации
type AssetAppreciationResult struct {
	InitialValue           float64 `json:"initial_value"`
	TotalMaintenance       float64 `json:"total_maintenance"`
	FinalValue             float64 `json:"final_value"`
	AppreciationPercentage float64 `json:"appreciation_percentage"`
}

// RentalYear представляет точку годового ряда арендного дохода
type RentalYear struct {
	Year         int     `json:"year"`
	Months       int     `json:"months"`
	RentalIncome float64 `json:"rental_income"`
	Expenses     float64 `json:"expenses"`
	NetIncome    float64 `json:"net_income"`
	YieldRate    float64 `json:"yield_rate"`
}

// RentalYieldResult представляет сводку по арендной доходности
type RentalYieldResult struct {
	InitialInvestment    float64 `json:"initial_investment"`
	FurnishingCosts      float64 `json:"furnishing_costs"`
	MonthlyNetIncome     float64 `json:"monthly_net_income"`
	AnnualNetIncome      float64 `json:"annual_net_income"`
	AnnualYield          float64 `json:"annual_yield"`
	AverageMonthlyIncome float64 `json:"average_monthly_income"`
}

// ScenarioResults содержит блоки результатов одного сценария
type ScenarioResults struct {
	Scenario                Scenario                 `json:"scenario"`
	ScheduleRef             Scenario                 `json:"schedule_ref"`
	Parameters              ScenarioParameters       `json:"parameters"`
	FutureSale              *FutureSaleResult        `json:"future_sale,omitempty"`
	FutureSaleCashFlow      []CashFlowItem           `json:"future_sale_cash_flow,omitempty"`
	AssetAppreciation       *AssetAppreciationResult `json:"asset_appreciation,omitempty"`
	AssetAppreciationYearly []AppreciationYear       `json:"asset_appreciation_yearly,omitempty"`
	RentalYield             *RentalYieldResult       `json:"rental_yield,omitempty"`
	RentalYieldYearly       []RentalYear             `json:"rental_yield_yearly,omitempty"`
	Warnings                []*Error                 `json:"warnings,omitempty"`
}

// CalculationResults представляет агрегат результатов, сохраняемый вместе с проекцией
type CalculationResults struct {
	RunID      string                        `json:"run_id"`
	ComputedAt time.Time                     `json:"computed_at"`
	Schedules  map[Scenario]*ScheduleBlock   `json:"schedules"`
	Scenarios  map[Scenario]*ScenarioResults `json:"scenarios"`
}
