package validators

import (
	"fmt"

	"github.com/cloud-ru/realty-projection-go/internal/config"
	"github.com/cloud-ru/realty-projection-go/pkg/utils"
)

// ValidatePositiveNumber проверяет, что число конечно и лежит в допустимом диапазоне
func ValidatePositiveNumber(name string, value float64, minInclusive, maxInclusive float64) error {
	if !utils.IsFinite(value) {
		return fmt.Errorf("%s: значение не является конечным числом", name)
	}
	if value < minInclusive {
		return fmt.Errorf("%s: значение должно быть ≥ %.0f", name, minInclusive)
	}
	if value > maxInclusive {
		return fmt.Errorf("%s: значение слишком велико (>%.0f)", name, maxInclusive)
	}
	return nil
}

// ValidateIntRange проверяет, что целое число в допустимом диапазоне
func ValidateIntRange(name string, value int, minInclusive, maxInclusive int) error {
	if value < minInclusive || value > maxInclusive {
		return fmt.Errorf("%s: значение должно быть в диапазоне [%d; %d]", name, minInclusive, maxInclusive)
	}
	return nil
}

// CheckPrice проверяет цену объекта
func CheckPrice(cfg *config.Config, price float64) error {
	return ValidatePositiveNumber("list_price", price, 1e-9, cfg.MaxPrice)
}

// CheckAmount проверяет неотрицательную сумму (взнос, скидка, ключи)
func CheckAmount(cfg *config.Config, name string, amount float64) error {
	return ValidatePositiveNumber(name, amount, 0.0, cfg.MaxPrice)
}

// CheckRate проверяет ставку коррекции в процентах в месяц
func CheckRate(cfg *config.Config, name string, rate float64) error {
	return ValidatePositiveNumber(name, rate, 0.0, cfg.MaxRate)
}

// CheckMonths проверяет срок рассрочки в месяцах
func CheckMonths(cfg *config.Config, months int) error {
	return ValidateIntRange("payment_months", months, 1, cfg.MaxMonths)
}

// CheckDeliveryMonth проверяет месяц сдачи объекта
func CheckDeliveryMonth(cfg *config.Config, delivery int) error {
	return ValidateIntRange("delivery_month", delivery, 0, cfg.MaxMonths)
}

// BalanceCap возвращает максимальный остаток долга
func BalanceCap(cfg *config.Config) float64 {
	if cfg == nil {
		return 1e12
	}
	return cfg.BalanceCap()
}
