package store

import (
	"context"
	"errors"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
)

// ErrNotFound возвращается, если проекция отсутствует
var ErrNotFound = errors.New("projection not found")

// Store описывает операции хранилища проекций и строк графика
type Store interface {
	CreateProjection(ctx context.Context, p *calculations.Projection) (int64, error)
	Load(ctx context.Context, id int64) (*calculations.Projection, error)
	SaveCalculationResults(ctx context.Context, id int64, results *calculations.CalculationResults) error

	DeleteScheduleRows(ctx context.Context, id int64) error
	InsertScheduleRows(ctx context.Context, id int64, rows []calculations.ScheduleRow) error
	LoadScheduleRows(ctx context.Context, id int64, scenario calculations.Scenario) ([]calculations.ScheduleRow, error)

	// WithTx выполняет fn в одной транзакции; любая ошибка откатывает все изменения
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
