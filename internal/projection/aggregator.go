package projection

import (
	"context"
	"errors"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/google/uuid"
)


// Aggregator собирает результаты всех сценариев проекции
type Aggregator struct {
	Builder  calculations.ScheduleBuilder
	Now      func() time.Time
	NewRunID func() string
}

// NewAggregator создает агрегатор; nil builder означает локальный расчет графика
func NewAggregator(builder calculations.ScheduleBuilder) *Aggregator {
	if builder == nil {
		builder = calculations.NewLocalBuilder(nil)
	}
	return &Aggregator{
		Builder:  builder,
		Now:      func() time.Time { return time.Now().UTC() },
		NewRunID: uuid.NewString,
	}
}

// Aggregate пересчитывает графики и все включенные стратегии по трем сценариям
func (a *Aggregator) Aggregate(ctx context.Context, p *calculations.Projection) (*calculations.CalculationResults, error) {
	results := a.newResults()

	for _, s := range calculations.AllScenarios {
		params, err := calculations.ResolveScenario(p, s)
		if err != nil {
			return nil, err
		}
		block, err := a.buildSchedule(ctx, p, params)
		if err != nil {
			return nil, err
		}
		results.Schedules[s] = block

		sr := &calculations.ScenarioResults{Scenario: s, ScheduleRef: s, Parameters: params}
		for _, strategy := range calculations.AllStrategies {
			if !p.HasStrategy(strategy) {
				continue
			}
			if err := applyStrategy(p, params, block.Rows, sr, strategy); err != nil {
				return nil, err
			}
		}
		results.Scenarios[s] = sr
	}
	return results, nil
}

// AggregateStrategy пересчитывает одну стратегию и объединяет ее с существующими результатами.
// Отсутствующий график сценария строится заново.
func (a *Aggregator) AggregateStrategy(ctx context.Context, p *calculations.Projection, existing *calculations.CalculationResults, strategy calculations.Strategy) (*calculations.CalculationResults, error) {
	if !p.HasStrategy(strategy) {
		return nil, calculations.Errorf(calculations.ErrStrategyNotEnabled, "стратегия %s не включена для проекции %d", strategy, p.ID)
	}

	results := a.newResults()
	if existing != nil {
		for k, v := range existing.Schedules {
			results.Schedules[k] = v
		}
		for k, v := range existing.Scenarios {
			copied := *v
			results.Scenarios[k] = &copied
		}
	}

	for _, s := range calculations.AllScenarios {
		params, err := calculations.ResolveScenario(p, s)
		if err != nil {
			return nil, err
		}
		block := results.Schedules[s]
		if block == nil {
			if block, err = a.buildSchedule(ctx, p, params); err != nil {
				return nil, err
			}
			results.Schedules[s] = block
		}

		sr := results.Scenarios[s]
		if sr == nil {
			sr = &calculations.ScenarioResults{Scenario: s}
			results.Scenarios[s] = sr
		}
		sr.ScheduleRef = s
		sr.Parameters = params
		if err := applyStrategy(p, params, block.Rows, sr, strategy); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ScheduleForScenario строит график одного сценария без сохранения
func (a *Aggregator) ScheduleForScenario(ctx context.Context, p *calculations.Projection, s calculations.Scenario) (*calculations.ScheduleBlock, error) {
	params, err := calculations.ResolveScenario(p, s)
	if err != nil {
		return nil, err
	}
	return a.buildSchedule(ctx, p, params)
}

func (a *Aggregator) newResults() *calculations.CalculationResults {
	return &calculations.CalculationResults{
		RunID:      a.NewRunID(),
		ComputedAt: a.Now(),
		Schedules:  make(map[calculations.Scenario]*calculations.ScheduleBlock, len(calculations.AllScenarios)),
		Scenarios:  make(map[calculations.Scenario]*calculations.ScenarioResults, len(calculations.AllScenarios)),
	}
}

func (a *Aggregator) buildSchedule(ctx context.Context, p *calculations.Projection, params calculations.ScenarioParameters) (*calculations.ScheduleBlock, error) {
	in := calculations.ScheduleInputFromProjection(p, params)
	rows, err := a.Builder.BuildSchedule(ctx, in)
	if err != nil {
		return nil, err
	}
	return &calculations.ScheduleBlock{
		Rows:    rows,
		Summary: calculations.SummarizeSchedule(in, rows),
	}, nil
}

func applyStrategy(p *calculations.Projection, params calculations.ScenarioParameters, rows []calculations.ScheduleEntry, sr *calculations.ScenarioResults, strategy calculations.Strategy) error {
	switch strategy {
	case calculations.StrategyFutureSale:
		result, cashFlow, err := calculations.CalculateFutureSale(p, params, rows)
		if err != nil {
			return err
		}
		sr.FutureSale = result
		sr.FutureSaleCashFlow = cashFlow
		sr.Warnings = dropIRRWarnings(sr.Warnings)
		if !result.IRR.Converged {
			sr.Warnings = append(sr.Warnings, irrWarning(params.Scenario, result.IRR))
		}

	case calculations.StrategyAssetAppreciation:
		summary, series, err := calculations.CalculateAssetAppreciation(p.ListPrice, params, p.DeliveryMonths)
		if err != nil {
			return err
		}
		sr.AssetAppreciation = summary
		sr.AssetAppreciationYearly = series

	case calculations.StrategyRentalYield:
		fixed := calculations.FixedCosts{CondoFees: p.CondoFees, PropertyTax: p.PropertyTax}
		summary, series, err := calculations.CalculateRentalYield(p.ListPrice, p.FurnishingCosts, params, p.DeliveryMonths, fixed)
		if err != nil {
			return err
		}
		sr.RentalYield = summary
		sr.RentalYieldYearly = series

	default:
		return calculations.Errorf(calculations.ErrInvalidStrategy, "неизвестная стратегия %q", strategy)
	}
	return nil
}

// irrWarning описывает несошедшийся решатель IRR как структурированное предупреждение
func irrWarning(s calculations.Scenario, irr calculations.IRRResult) *calculations.Error {
	return calculations.Errorf(calculations.ErrNoConvergence, "решатель IRR не сошелся для сценария %s (невязка %.3g, итераций %d)",
		s, irr.Residual, irr.Iterations)
}

func dropIRRWarnings(warnings []*calculations.Error) []*calculations.Error {
	kept := warnings[:0:0]
	for _, w := range warnings {
		if !errors.Is(w, calculations.ErrNoConvergence) {
			kept = append(kept, w)
		}
	}
	return kept
}

// NonConvergedScenarios возвращает сценарии, для которых решатель IRR не сошелся
func NonConvergedScenarios(results *calculations.CalculationResults) []calculations.Scenario {
	var out []calculations.Scenario
	for _, s := range calculations.AllScenarios {
		sr := results.Scenarios[s]
		if sr != nil && sr.FutureSale != nil && !sr.FutureSale.IRR.Converged {
			out = append(out, s)
		}
	}
	return out
}
