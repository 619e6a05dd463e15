package calculations

import (
	"math"

	"github.com/cloud-ru/realty-projection-go/pkg/utils"
)

const (
	irrMinRate = -0.99
	irrMaxRate = 5.0
)

var irrGuesses = []float64{0.1, 0.05, 0.2, 0.01, 0.3, 0.5, -0.5, 0}

// IRRResult представляет результат расчета внутренней нормы доходности
type IRRResult struct {
	Monthly    float64 `json:"monthly"`
	Annual     float64 `json:"annual"`
	Converged  bool    `json:"converged"`
	Degenerate bool    `json:"degenerate"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
}

// IRROptions задает параметры численного решателя
type IRROptions struct {
	Tolerance    float64
	MaxNewton    int
	MaxBisection int
}

// DefaultIRROptions возвращает параметры решателя по умолчанию
func DefaultIRROptions() IRROptions {
	return IRROptions{Tolerance: 1e-6, MaxNewton: 1000, MaxBisection: 200}
}

// SolveIRR находит месячную ставку, обнуляющую NPV ряда потоков (индекс = месяц)
func SolveIRR(flows []float64, opts IRROptions) IRRResult {
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}
	if opts.MaxNewton <= 0 {
		opts.MaxNewton = 1000
	}
	if opts.MaxBisection <= 0 {
		opts.MaxBisection = 200
	}

	if degenerateFlows(flows) {
		return IRRResult{Converged: true, Degenerate: true}
	}

	iterations := 0
	best := 0.0
	bestResidual := math.Inf(1)
	track := func(rate float64) float64 {
		v := npv(flows, rate)
		if math.Abs(v) < bestResidual {
			bestResidual = math.Abs(v)
			best = rate
		}
		return v
	}

	// Ньютон с несколькими стартовыми точками
	for _, guess := range irrGuesses {
		rate := guess
		for i := 0; i < opts.MaxNewton; i++ {
			iterations++
			v := track(rate)
			if math.Abs(v) < opts.Tolerance {
				return newIRRResult(rate, v, true, iterations)
			}
			d := npvDerivative(flows, rate)
			if d == 0 || !utils.IsFinite(d) {
				break
			}
			next := rate - v/d
			if !utils.IsFinite(next) || next < irrMinRate || next > irrMaxRate {
				break
			}
			rate = next
		}
	}

	// Бисекция на [-0.99; 5], если Ньютон не сошелся
	lo, hi := irrMinRate, irrMaxRate
	fLo, fHi := track(lo), track(hi)
	if fLo*fHi < 0 {
		for i := 0; i < opts.MaxBisection; i++ {
			iterations++
			mid := (lo + hi) / 2
			fMid := track(mid)
			if math.Abs(fMid) < opts.Tolerance {
				return newIRRResult(mid, fMid, true, iterations)
			}
			if fLo*fMid < 0 {
				hi = mid
			} else {
				lo, fLo = mid, fMid
			}
		}
	}

	if !utils.IsFinite(bestResidual) {
		// результат сохраняется в JSON, бесконечность там непредставима
		bestResidual = math.MaxFloat64
	}
	return newIRRResult(best, bestResidual, false, iterations)
}

func newIRRResult(monthly, residual float64, converged bool, iterations int) IRRResult {
	return IRRResult{
		Monthly:    monthly,
		Annual:     math.Pow(1+monthly, 12) - 1,
		Converged:  converged,
		Iterations: iterations,
		Residual:   math.Abs(residual),
	}
}

// degenerateFlows: все потоки одного знака или нет оттока
func degenerateFlows(flows []float64) bool {
	hasNeg, hasPos := false, false
	for _, f := range flows {
		if f < 0 {
			hasNeg = true
		} else if f > 0 {
			hasPos = true
		}
	}
	return !hasNeg || !hasPos
}

func npv(flows []float64, rate float64) float64 {
	v := 0.0
	base := 1 + rate
	for t, f := range flows {
		v += f / math.Pow(base, float64(t))
	}
	return v
}

func npvDerivative(flows []float64, rate float64) float64 {
	d := 0.0
	base := 1 + rate
	for t, f := range flows {
		if t == 0 {
			continue
		}
		d -= float64(t) * f / math.Pow(base, float64(t+1))
	}
	return d
}
