package calculations

import (
	"context"
	"math"
	"sort"

	"github.com/cloud-ru/realty-projection-go/pkg/utils"
	"github.com/shopspring/decimal"
)

// TopUpFrequency задает периодичность промежуточных взносов в месяцах
type TopUpFrequency int

const (
	TopUpNone       TopUpFrequency = 0
	TopUpQuarterly  TopUpFrequency = 3
	TopUpSemiannual TopUpFrequency = 6
	TopUpAnnual     TopUpFrequency = 12
)

// Valid сообщает, поддерживается ли периодичность
func (f TopUpFrequency) Valid() bool {
	switch f {
	case TopUpNone, TopUpQuarterly, TopUpSemiannual, TopUpAnnual:
		return true
	}
	return false
}

// ScheduleInput содержит входные данные построителя графика.
// Ставки коррекции задаются в процентах в месяц.
type ScheduleInput struct {
	ListPrice              float64             `json:"list_price"`
	DownPayment            float64             `json:"down_payment"`
	DownPaymentPercent     float64             `json:"down_payment_percent,omitempty"`
	Discount               float64             `json:"discount,omitempty"`
	DeliveryMonth          int                 `json:"delivery_month"`
	PaymentMonths          int                 `json:"payment_months"`
	PreDeliveryCorrection  float64             `json:"pre_delivery_correction"`
	PostDeliveryCorrection float64             `json:"post_delivery_correction"`
	TopUpFrequency         TopUpFrequency      `json:"top_up_frequency,omitempty"`
	TopUpValue             float64             `json:"top_up_value,omitempty"`
	KeysValue              float64             `json:"keys_value,omitempty"`
	Plan                   []CustomInstallment `json:"plan,omitempty"`
}

// Custom сообщает, задан ли пользовательский план платежей
func (in ScheduleInput) Custom() bool {
	return len(in.Plan) > 0
}

// ScheduleBuilder строит график платежей; локальная реализация служит эталоном
// для внешнего вычислительного сервиса
type ScheduleBuilder interface {
	BuildSchedule(ctx context.Context, in ScheduleInput) ([]ScheduleEntry, error)
}

// ConfigInterface интерфейс для получения лимитов из конфигурации
type ConfigInterface interface {
	BalanceCap() float64
}

// LocalBuilder строит график в процессе
type LocalBuilder struct {
	Config ConfigInterface
}

// NewLocalBuilder создает построитель с ограничением баланса из конфигурации (cfg может быть nil)
func NewLocalBuilder(cfg ConfigInterface) *LocalBuilder {
	return &LocalBuilder{Config: cfg}
}

// BuildSchedule строит график и проверяет, что остаток не вышел за допустимый предел
func (b *LocalBuilder) BuildSchedule(ctx context.Context, in ScheduleInput) ([]ScheduleEntry, error) {
	rows, err := BuildSchedule(in)
	if err != nil {
		return nil, err
	}
	if b != nil && b.Config != nil {
		limit := b.Config.BalanceCap()
		for _, r := range rows {
			if !utils.IsFinite(r.OutstandingBalance) || math.Abs(r.OutstandingBalance) > limit {
				return nil, Errorf(ErrInvalidScheduleInput, "остаток в месяце %d превышает допустимый предел %.0f", r.Month, limit)
			}
		}
	}
	return rows, nil
}

// EffectiveDownPayment возвращает сумму первоначального взноса: процент от цены, если он задан
func EffectiveDownPayment(price, downPayment, percent float64) float64 {
	if percent > 0 {
		return decimal.NewFromFloat(price).
			Mul(decimal.NewFromFloat(percent)).
			Div(decimal.NewFromInt(100)).
			Round(2).
			InexactFloat64()
	}
	return downPayment
}

// BuildSchedule строит график платежей на месяцы 0..PaymentMonths
func BuildSchedule(in ScheduleInput) ([]ScheduleEntry, error) {
	if err := validateScheduleInput(in); err != nil {
		return nil, err
	}

	down := EffectiveDownPayment(in.ListPrice, in.DownPayment, in.DownPaymentPercent)
	if down > in.ListPrice {
		return nil, Errorf(ErrInvalidScheduleInput, "первоначальный взнос %.2f превышает цену %.2f", down, in.ListPrice)
	}

	if in.Custom() {
		return buildCustomSchedule(in, down)
	}
	return buildAutomaticSchedule(in, down)
}

func validateScheduleInput(in ScheduleInput) error {
	switch {
	case !utils.IsFinite(in.ListPrice) || in.ListPrice <= 0:
		return Errorf(ErrInvalidScheduleInput, "цена должна быть положительной")
	case in.PaymentMonths <= 0:
		return Errorf(ErrInvalidScheduleInput, "срок выплат должен быть положительным")
	case in.DeliveryMonth < 0:
		return Errorf(ErrInvalidScheduleInput, "месяц сдачи не может быть отрицательным")
	case in.PreDeliveryCorrection < 0 || in.PostDeliveryCorrection < 0:
		return Errorf(ErrInvalidScheduleInput, "ставка коррекции не может быть отрицательной")
	case !utils.IsFinite(in.PreDeliveryCorrection) || !utils.IsFinite(in.PostDeliveryCorrection):
		return Errorf(ErrInvalidScheduleInput, "ставка коррекции не является конечным числом")
	case in.DownPayment < 0 || in.DownPaymentPercent < 0 || in.DownPaymentPercent > 100:
		return Errorf(ErrInvalidScheduleInput, "некорректный первоначальный взнос")
	case in.Discount < 0:
		return Errorf(ErrInvalidScheduleInput, "скидка не может быть отрицательной")
	case in.TopUpValue < 0 || in.KeysValue < 0:
		return Errorf(ErrInvalidScheduleInput, "сумма взноса не может быть отрицательной")
	case !in.TopUpFrequency.Valid():
		return Errorf(ErrInvalidScheduleInput, "неподдерживаемая периодичность взносов: %d", in.TopUpFrequency)
	}
	return nil
}

// scheduleLayout хранит распределение базовых сумм по месяцам автоматического плана
type scheduleLayout struct {
	kinds []PaymentKind
	bases []float64
}

func planAutomatic(in ScheduleInput, down float64) (*scheduleLayout, error) {
	h := in.PaymentMonths
	keyMonth := 0
	if in.KeysValue > 0 {
		if in.DeliveryMonth < 1 || in.DeliveryMonth > h {
			return nil, Errorf(ErrInvalidScheduleInput, "месяц ключей %d вне срока 1..%d", in.DeliveryMonth, h)
		}
		keyMonth = in.DeliveryMonth
	}

	kinds := make([]PaymentKind, h+1)
	kinds[0] = KindEntry
	for m := 1; m <= h; m++ {
		kinds[m] = KindInstallment
	}
	if keyMonth > 0 {
		kinds[keyMonth] = KindKey
	}

	topUps := 0
	if in.TopUpFrequency != TopUpNone && in.TopUpValue > 0 {
		period := int(in.TopUpFrequency)
		last := h
		if in.DeliveryMonth < last {
			last = in.DeliveryMonth
		}
		for m := period; m <= last; m += period {
			if m == keyMonth {
				continue
			}
			kinds[m] = KindTopUp
			topUps++
		}
	}

	regular := 0
	for m := 1; m <= h; m++ {
		if kinds[m] == KindInstallment {
			regular++
		}
	}

	remainder := decimal.NewFromFloat(in.ListPrice).
		Sub(decimal.NewFromFloat(down)).
		Sub(decimal.NewFromFloat(in.TopUpValue).Mul(decimal.NewFromInt(int64(topUps)))).
		Sub(decimal.NewFromFloat(in.KeysValue))
	if remainder.IsNegative() {
		return nil, Errorf(ErrInvalidScheduleInput, "взносы и ключи превышают сумму к оплате на %s", remainder.Neg().StringFixed(2))
	}
	if regular == 0 && !remainder.IsZero() {
		return nil, Errorf(ErrInvalidScheduleInput, "не осталось месяцев для распределения суммы %s", remainder.StringFixed(2))
	}

	// Итоги по базовым суммам считаются через utils.SumExact
	parts := utils.SplitEven(remainder.InexactFloat64(), regular)
	bases := make([]float64, h+1)
	bases[0] = down
	next := 0
	for m := 1; m <= h; m++ {
		switch kinds[m] {
		case KindKey:
			bases[m] = in.KeysValue
		case KindTopUp:
			bases[m] = in.TopUpValue
		default:
			bases[m] = parts[next]
			next++
		}
	}

	return &scheduleLayout{kinds: kinds, bases: bases}, nil
}

func buildAutomaticSchedule(in ScheduleInput, down float64) ([]ScheduleEntry, error) {
	layout, err := planAutomatic(in, down)
	if err != nil {
		return nil, err
	}

	schedule := make([]ScheduleEntry, 0, in.PaymentMonths+1)
	schedule = append(schedule, entryRow(in, down))

	acc := newCorrectionAccumulator(in, down)
	for m := 1; m <= in.PaymentMonths; m++ {
		schedule = append(schedule, acc.next(m, layout.kinds[m], layout.bases[m]))
	}
	return schedule, nil
}

func buildCustomSchedule(in ScheduleInput, down float64) ([]ScheduleEntry, error) {
	plan := make([]CustomInstallment, len(in.Plan))
	copy(plan, in.Plan)
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Month < plan[j].Month })

	for i, p := range plan {
		if p.Month < 1 || p.Month > in.PaymentMonths {
			return nil, Errorf(ErrInvalidScheduleInput, "месяц %d вне срока 1..%d", p.Month, in.PaymentMonths)
		}
		if !utils.IsFinite(p.Amount) || p.Amount <= 0 {
			return nil, Errorf(ErrInvalidScheduleInput, "сумма платежа в месяце %d должна быть положительной", p.Month)
		}
		switch p.Kind {
		case KindInstallment, KindTopUp, KindKey:
		default:
			return nil, Errorf(ErrInvalidScheduleInput, "неизвестный тип платежа %q в месяце %d", p.Kind, p.Month)
		}
		if i > 0 && plan[i-1].Month == p.Month {
			return nil, Errorf(ErrInvalidScheduleInput, "повторяющийся месяц %d", p.Month)
		}
	}

	schedule := make([]ScheduleEntry, 0, len(plan)+1)
	schedule = append(schedule, entryRow(in, down))

	acc := newCorrectionAccumulator(in, down)
	for _, p := range plan {
		schedule = append(schedule, acc.next(p.Month, p.Kind, p.Amount))
	}
	return schedule, nil
}

func entryRow(in ScheduleInput, down float64) ScheduleEntry {
	return ScheduleEntry{
		Month:              0,
		Kind:               KindEntry,
		BaseAmount:         down,
		CorrectedAmount:    down,
		OutstandingBalance: in.ListPrice - down,
	}
}

// correctionAccumulator ведет два независимых остатка: корректируемый и линейный
type correctionAccumulator struct {
	in       ScheduleInput
	balance  float64
	cum      float64
	net      float64
	prevBase float64
	started  bool
}

func newCorrectionAccumulator(in ScheduleInput, down float64) *correctionAccumulator {
	return &correctionAccumulator{
		in:      in,
		balance: in.ListPrice - down,
		net:     in.ListPrice - down - in.Discount,
	}
}

func (a *correctionAccumulator) rate(month int) float64 {
	if month <= a.in.DeliveryMonth {
		return a.in.PreDeliveryCorrection
	}
	return a.in.PostDeliveryCorrection
}

func (a *correctionAccumulator) next(month int, kind PaymentKind, base float64) ScheduleEntry {
	rate := a.rate(month)

	// Коррекция начисляется на остаток до списания платежа
	a.balance += a.balance * rate / 100
	a.cum += rate
	corrected := base * (1 + a.cum/100)
	a.balance -= corrected

	if a.started {
		a.net -= a.prevBase
	}
	a.started = true
	a.prevBase = base
	net := a.net

	return ScheduleEntry{
		Month:                month,
		Kind:                 kind,
		BaseAmount:           base,
		CorrectionRate:       rate,
		CumulativeCorrection: a.cum,
		CorrectedAmount:      corrected,
		OutstandingBalance:   a.balance,
		NetBalance:           &net,
	}
}

// SummarizeSchedule рассчитывает сводку по графику
func SummarizeSchedule(in ScheduleInput, rows []ScheduleEntry) ScheduleSummary {
	down := EffectiveDownPayment(in.ListPrice, in.DownPayment, in.DownPaymentPercent)

	bases := make([]float64, len(rows))
	totalPaid := 0.0
	totalCorrection := 0.0
	for i, r := range rows {
		bases[i] = r.BaseAmount
		totalPaid += r.CorrectedAmount
		if diff := r.CorrectedAmount - r.BaseAmount; diff > 0 {
			totalCorrection += diff
		}
	}

	// При нулевой коррекции знаменатель может быть неположительным; тогда 0%
	pct := 0.0
	if denom := totalPaid - totalCorrection; totalCorrection > 0 && denom > 0 {
		pct = totalCorrection / denom * 100
	}

	return ScheduleSummary{
		ListPrice:            in.ListPrice,
		DownPayment:          down,
		Financed:             in.ListPrice - down,
		DeliveryMonth:        in.DeliveryMonth,
		PaymentMonths:        in.PaymentMonths,
		TotalRows:            len(rows),
		TotalBase:            utils.SumExact(bases...).InexactFloat64(),
		TotalPaid:            totalPaid,
		TotalCorrection:      totalCorrection,
		CorrectionPercentage: pct,
	}
}

// ScheduleInputFromProjection собирает вход построителя из проекции и ставок сценария
func ScheduleInputFromProjection(p *Projection, params ScenarioParameters) ScheduleInput {
	in := ScheduleInput{
		ListPrice:              p.ListPrice,
		DownPayment:            p.DownPayment,
		DownPaymentPercent:     p.DownPaymentPercent,
		Discount:               p.Discount,
		DeliveryMonth:          p.DeliveryMonths,
		PaymentMonths:          p.PaymentMonths,
		PreDeliveryCorrection:  params.PreDeliveryCorrection,
		PostDeliveryCorrection: params.PostDeliveryCorrection,
		KeysValue:              p.KeysValue,
		Plan:                   p.InstallmentPlan,
	}
	if p.IncludeTopUps {
		in.TopUpFrequency = TopUpFrequency(p.TopUpFrequency)
		in.TopUpValue = p.TopUpValue
	}
	return in
}
