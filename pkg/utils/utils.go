package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 округляет число до 2 знаков после запятой
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// IsFinite проверяет, является ли число конечным
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// SplitEven делит сумму на n частей с точностью до копеек.
// Все части, кроме последней, равны; последняя забирает остаток округления,
// поэтому сумма частей через SumExact в точности равна total. Сложение тех же
// частей во float64 может разойтись с total в последнем разряде.
func SplitEven(total float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	t := decimal.NewFromFloat(total)
	part := t.Div(decimal.NewFromInt(int64(n))).Round(2)
	last := t.Sub(part.Mul(decimal.NewFromInt(int64(n - 1))))

	parts := make([]float64, n)
	p := part.InexactFloat64()
	for i := 0; i < n-1; i++ {
		parts[i] = p
	}
	parts[n-1] = last.InexactFloat64()
	return parts
}

// SumExact складывает значения без накопления ошибки двоичной арифметики
func SumExact(values ...float64) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum
}
