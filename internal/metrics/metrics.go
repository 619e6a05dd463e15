package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCalls счетчик вызовов инструментов
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Общее количество вызовов инструментов",
		},
		[]string{"tool_name", "status"},
	)

	// CalculationErrors счетчик ошибок расчетов
	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculation_errors_total",
			Help: "Количество ошибок расчетов",
		},
		[]string{"tool_name", "error_type"},
	)

	// APICalls счетчик вызовов API: инструментов и внешнего сервиса графиков
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_calls_total",
			Help: "Вызовы API инструментов и сервиса расчета",
		},
		[]string{"service", "endpoint", "status"},
	)

	// IRRNonConvergence счетчик несошедшихся расчетов IRR
	IRRNonConvergence = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irr_nonconvergence_total",
			Help: "Количество сценариев, в которых решатель IRR не сошелся",
		},
		[]string{"scenario"},
	)

	// ScheduleRowsWritten счетчик сохраненных строк графика
	ScheduleRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_rows_written_total",
			Help: "Количество записанных строк графика",
		},
	)
)
