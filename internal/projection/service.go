package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/metrics"
	"github.com/cloud-ru/realty-projection-go/internal/store"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Service выполняет пересчет проекций и сохраняет результаты
type Service struct {
	store  store.Store
	agg    *Aggregator
	log    logrus.FieldLogger
	tracer trace.Tracer
}

// NewService создает сервис; nil builder означает локальный расчет графика
func NewService(st store.Store, builder calculations.ScheduleBuilder, log logrus.FieldLogger, tracer trace.Tracer) *Service {
	if tracer == nil {
		tracer = otel.Tracer("realty-projection")
	}
	return &Service{store: st, agg: NewAggregator(builder), log: log, tracer: tracer}
}

// Aggregator возвращает агрегатор сервиса
func (s *Service) Aggregator() *Aggregator {
	return s.agg
}

// RecomputeAll пересчитывает все стратегии проекции и полностью заменяет сохраненный агрегат
func (s *Service) RecomputeAll(ctx context.Context, id int64) (*calculations.CalculationResults, error) {
	ctx, span := s.tracer.Start(ctx, "projection.recompute_all")
	defer span.End()
	span.SetAttributes(attribute.Int64("projection_id", id))

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := s.agg.Aggregate(ctx, p)
	if err != nil {
		span.SetAttributes(attribute.String("error", "compute_error"))
		return nil, computeError(err)
	}

	if err := s.persist(ctx, id, results); err != nil {
		span.SetAttributes(attribute.String("error", "persistence_error"))
		return nil, err
	}

	s.reportWarnings(id, results)
	s.log.WithFields(logrus.Fields{"projection_id": id, "run_id": results.RunID}).Info("проекция пересчитана")
	return results, nil
}

// RecomputeStrategy пересчитывает одну стратегию и объединяет ее с сохраненным агрегатом
func (s *Service) RecomputeStrategy(ctx context.Context, id int64, name string) (*calculations.CalculationResults, error) {
	ctx, span := s.tracer.Start(ctx, "projection.recompute_strategy")
	defer span.End()
	span.SetAttributes(attribute.Int64("projection_id", id), attribute.String("strategy", name))

	strategy, err := calculations.ParseStrategy(name)
	if err != nil {
		return nil, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := s.agg.AggregateStrategy(ctx, p, p.Results, strategy)
	if err != nil {
		span.SetAttributes(attribute.String("error", "compute_error"))
		return nil, computeError(err)
	}

	if err := s.persist(ctx, id, results); err != nil {
		span.SetAttributes(attribute.String("error", "persistence_error"))
		return nil, err
	}

	s.reportWarnings(id, results)
	s.log.WithFields(logrus.Fields{
		"projection_id": id,
		"strategy":      strategy,
		"run_id":        results.RunID,
	}).Info("стратегия пересчитана")
	return results, nil
}

// ScheduleRows возвращает строки графика сценария; при их отсутствии проекция пересчитывается
func (s *Service) ScheduleRows(ctx context.Context, id int64, scenarioName string) ([]calculations.ScheduleRow, error) {
	ctx, span := s.tracer.Start(ctx, "projection.schedule_rows")
	defer span.End()
	span.SetAttributes(attribute.Int64("projection_id", id), attribute.String("scenario", scenarioName))

	scenario, err := calculations.ParseScenario(scenarioName)
	if err != nil {
		return nil, err
	}

	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.store.LoadScheduleRows(ctx, id, scenario)
	if err != nil {
		return nil, calculations.Wrap(calculations.ErrPersistence, err, "загрузка графика")
	}
	if len(rows) > 0 {
		return rows, nil
	}

	s.log.WithFields(logrus.Fields{"projection_id": id, "scenario": scenario}).Info("график отсутствует, выполняется пересчет")
	results, err := s.RecomputeAll(ctx, id)
	if err != nil {
		return nil, err
	}
	block := results.Schedules[scenario]
	if block == nil {
		return nil, nil
	}
	return toRows(scenario, block.Rows), nil
}

func (s *Service) load(ctx context.Context, id int64) (*calculations.Projection, error) {
	p, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, calculations.Errorf(calculations.ErrProjectionNotFound, "проекция %d", id)
		}
		return nil, calculations.Wrap(calculations.ErrPersistence, err, fmt.Sprintf("загрузка проекции %d", id))
	}
	return p, nil
}

// persist заменяет строки графика и агрегат в одной транзакции
func (s *Service) persist(ctx context.Context, id int64, results *calculations.CalculationResults) error {
	var rows []calculations.ScheduleRow
	for _, sc := range calculations.AllScenarios {
		if block := results.Schedules[sc]; block != nil {
			rows = append(rows, toRows(sc, block.Rows)...)
		}
	}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.DeleteScheduleRows(ctx, id); err != nil {
			return err
		}
		if err := tx.InsertScheduleRows(ctx, id, rows); err != nil {
			return err
		}
		return tx.SaveCalculationResults(ctx, id, results)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return calculations.Errorf(calculations.ErrProjectionNotFound, "проекция %d", id)
		}
		return calculations.Wrap(calculations.ErrPersistence, err, fmt.Sprintf("сохранение проекции %d", id))
	}

	metrics.ScheduleRowsWritten.Add(float64(len(rows)))
	return nil
}

func (s *Service) reportWarnings(id int64, results *calculations.CalculationResults) {
	for _, sc := range NonConvergedScenarios(results) {
		metrics.IRRNonConvergence.WithLabelValues(string(sc)).Inc()
		s.log.WithFields(logrus.Fields{"projection_id": id, "scenario": sc}).Warn("решатель IRR не сошелся, сохранена оценка")
	}
}

// computeError сохраняет ошибки валидации и делегата, остальное считается сбоем пересчета
func computeError(err error) error {
	var e *calculations.Error
	if errors.As(err, &e) && (e.Kind == calculations.KindInputValidation || e.Kind == calculations.KindComputeDelegateFailure) {
		return err
	}
	return calculations.Wrap(calculations.ErrRecomputeFailed, err, "")
}

func toRows(sc calculations.Scenario, entries []calculations.ScheduleEntry) []calculations.ScheduleRow {
	rows := make([]calculations.ScheduleRow, len(entries))
	for i, e := range entries {
		rows[i] = calculations.ScheduleRow{Scenario: sc, ScheduleEntry: e}
	}
	return rows
}
