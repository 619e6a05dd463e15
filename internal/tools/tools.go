package tools

import (
	"context"
	"fmt"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/config"
	"github.com/cloud-ru/realty-projection-go/internal/metrics"
	"github.com/cloud-ru/realty-projection-go/internal/validators"
	"github.com/cloud-ru/realty-projection-go/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ToolScheduleBuild               = "schedule_build"
	ToolIRRSolve                    = "irr_solve"
	ToolProjectionRecompute         = "projection_recompute"
	ToolProjectionRecomputeStrategy = "projection_recompute_strategy"
	ToolProjectionSchedule          = "projection_schedule"
)

// ToolHandler представляет обработчик инструмента
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ProjectionService описывает операции пересчета сохраненных проекций
type ProjectionService interface {
	RecomputeAll(ctx context.Context, id int64) (*calculations.CalculationResults, error)
	RecomputeStrategy(ctx context.Context, id int64, strategy string) (*calculations.CalculationResults, error)
	ScheduleRows(ctx context.Context, id int64, scenario string) ([]calculations.ScheduleRow, error)
}

// Registry возвращает все инструменты по именам
func Registry(cfg *config.Config, tracer trace.Tracer, builder calculations.ScheduleBuilder, svc ProjectionService) map[string]ToolHandler {
	return map[string]ToolHandler{
		ToolScheduleBuild:               ScheduleBuildHandler(cfg, tracer, builder),
		ToolIRRSolve:                    IRRSolveHandler(tracer),
		ToolProjectionRecompute:         ProjectionRecomputeHandler(svc, tracer),
		ToolProjectionRecomputeStrategy: ProjectionRecomputeStrategyHandler(svc, tracer),
		ToolProjectionSchedule:          ProjectionScheduleHandler(svc, tracer),
	}
}

// ScheduleBuildHandler строит график платежей без сохранения
func ScheduleBuildHandler(cfg *config.Config, tracer trace.Tracer, builder calculations.ScheduleBuilder) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := ToolScheduleBuild

		ctx, span := tracer.Start(ctx, toolName)
		defer span.End()

		in, err := scheduleInputFromParams(params)
		if err != nil {
			return nil, err
		}

		span.SetAttributes(
			attribute.Float64("list_price", in.ListPrice),
			attribute.Int("delivery_month", in.DeliveryMonth),
			attribute.Int("payment_months", in.PaymentMonths),
			attribute.Bool("custom_plan", in.Custom()),
		)

		metrics.APICalls.WithLabelValues("tools", toolName, "started").Inc()

		checks := []error{
			validators.CheckPrice(cfg, in.ListPrice),
			validators.CheckAmount(cfg, "down_payment", in.DownPayment),
			validators.CheckAmount(cfg, "discount", in.Discount),
			validators.CheckAmount(cfg, "keys_value", in.KeysValue),
			validators.CheckAmount(cfg, "top_up_value", in.TopUpValue),
			validators.CheckRate(cfg, "pre_delivery_correction", in.PreDeliveryCorrection),
			validators.CheckRate(cfg, "post_delivery_correction", in.PostDeliveryCorrection),
			validators.CheckMonths(cfg, in.PaymentMonths),
			validators.CheckDeliveryMonth(cfg, in.DeliveryMonth),
		}
		for _, err := range checks {
			if err != nil {
				recordValidationError(span, toolName)
				return nil, calculations.Wrap(calculations.ErrInvalidParameters, err, "неверные параметры")
			}
		}

		rows, err := builder.BuildSchedule(ctx, in)
		if err != nil {
			recordCalculationError(span, toolName)
			return nil, fmt.Errorf("ошибка при построении графика: %w", err)
		}
		summary := calculations.SummarizeSchedule(in, rows)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("rows", len(rows)),
			attribute.Float64("total_paid", utils.Round2(summary.TotalPaid)),
		)
		recordSuccess(toolName)

		return &calculations.ScheduleBlock{Rows: rows, Summary: summary}, nil
	}
}

// IRRSolveHandler рассчитывает внутреннюю норму доходности по месячным потокам
func IRRSolveHandler(tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := ToolIRRSolve

		_, span := tracer.Start(ctx, toolName)
		defer span.End()

		raw, ok := params["flows"].([]interface{})
		if !ok {
			return nil, calculations.Errorf(calculations.ErrInvalidParameters, "invalid parameter: flows")
		}
		flows := make([]float64, len(raw))
		for i, v := range raw {
			f, ok := v.(float64)
			if !ok {
				return nil, calculations.Errorf(calculations.ErrInvalidParameters, "invalid parameter: flows[%d]", i)
			}
			flows[i] = f
		}

		span.SetAttributes(attribute.Int("flows", len(flows)))
		metrics.APICalls.WithLabelValues("tools", toolName, "started").Inc()

		for i, f := range flows {
			if err := validators.ValidatePositiveNumber(fmt.Sprintf("flows[%d]", i), f, -1e15, 1e15); err != nil {
				recordValidationError(span, toolName)
				return nil, calculations.Wrap(calculations.ErrInvalidParameters, err, "неверные параметры")
			}
		}

		result := calculations.SolveIRR(flows, calculations.DefaultIRROptions())

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Bool("converged", result.Converged),
			attribute.Float64("annual_percent", utils.Round2(result.Annual*100)),
		)
		recordSuccess(toolName)

		return result, nil
	}
}

// ProjectionRecomputeHandler пересчитывает все стратегии проекции
func ProjectionRecomputeHandler(svc ProjectionService, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := ToolProjectionRecompute

		ctx, span := tracer.Start(ctx, toolName)
		defer span.End()

		id, err := projectionID(params)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int64("projection_id", id))
		metrics.APICalls.WithLabelValues("tools", toolName, "started").Inc()

		results, err := svc.RecomputeAll(ctx, id)
		if err != nil {
			recordCalculationError(span, toolName)
			return nil, err
		}

		span.SetAttributes(attribute.Bool("success", true), attribute.String("run_id", results.RunID))
		recordSuccess(toolName)
		return results, nil
	}
}

// ProjectionRecomputeStrategyHandler пересчитывает одну стратегию проекции
func ProjectionRecomputeStrategyHandler(svc ProjectionService, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := ToolProjectionRecomputeStrategy

		ctx, span := tracer.Start(ctx, toolName)
		defer span.End()

		id, err := projectionID(params)
		if err != nil {
			return nil, err
		}
		strategy, ok := params["strategy"].(string)
		if !ok {
			return nil, calculations.Errorf(calculations.ErrInvalidParameters, "invalid parameter: strategy")
		}
		span.SetAttributes(attribute.Int64("projection_id", id), attribute.String("strategy", strategy))
		metrics.APICalls.WithLabelValues("tools", toolName, "started").Inc()

		results, err := svc.RecomputeStrategy(ctx, id, strategy)
		if err != nil {
			recordCalculationError(span, toolName)
			return nil, err
		}

		span.SetAttributes(attribute.Bool("success", true), attribute.String("run_id", results.RunID))
		recordSuccess(toolName)
		return results, nil
	}
}

// ProjectionScheduleHandler возвращает строки графика проекции по сценарию
func ProjectionScheduleHandler(svc ProjectionService, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		toolName := ToolProjectionSchedule

		ctx, span := tracer.Start(ctx, toolName)
		defer span.End()

		id, err := projectionID(params)
		if err != nil {
			return nil, err
		}
		scenario, ok := params["scenario"].(string)
		if !ok {
			return nil, calculations.Errorf(calculations.ErrInvalidParameters, "invalid parameter: scenario")
		}
		span.SetAttributes(attribute.Int64("projection_id", id), attribute.String("scenario", scenario))
		metrics.APICalls.WithLabelValues("tools", toolName, "started").Inc()

		rows, err := svc.ScheduleRows(ctx, id, scenario)
		if err != nil {
			recordCalculationError(span, toolName)
			return nil, err
		}
		if rows == nil {
			rows = []calculations.ScheduleRow{}
		}

		span.SetAttributes(attribute.Bool("success", true), attribute.Int("rows", len(rows)))
		recordSuccess(toolName)
		return rows, nil
	}
}

func recordValidationError(span trace.Span, toolName string) {
	span.SetAttributes(attribute.String("error", "validation_error"))
	metrics.ToolCalls.WithLabelValues(toolName, "validation_error").Inc()
	metrics.CalculationErrors.WithLabelValues(toolName, "validation").Inc()
	metrics.APICalls.WithLabelValues("tools", toolName, "error").Inc()
}

func recordCalculationError(span trace.Span, toolName string) {
	span.SetAttributes(attribute.String("error", "calculation_error"))
	metrics.ToolCalls.WithLabelValues(toolName, "error").Inc()
	metrics.CalculationErrors.WithLabelValues(toolName, "calculation").Inc()
	metrics.APICalls.WithLabelValues("tools", toolName, "error").Inc()
}

func recordSuccess(toolName string) {
	metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()
	metrics.APICalls.WithLabelValues("tools", toolName, "success").Inc()
}
