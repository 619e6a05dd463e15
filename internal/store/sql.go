package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// querier описывает общую часть *sql.DB и *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore хранит проекции в SQLite или PostgreSQL.
// Денежные значения пишутся как TEXT через decimal, чтобы не терять точность.
type SQLStore struct {
	db     *sql.DB
	q      querier
	driver string
}

// NewSQLStore открывает базу и создает схему
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if driver == DriverSQLite {
		// одно соединение: иначе каждая :memory: база будет своей
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLStore{db: db, q: db, driver: driver}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS projections (
		` + idColumn + `,
		title TEXT NOT NULL DEFAULT '',
		list_price TEXT NOT NULL,
		down_payment TEXT NOT NULL DEFAULT '0',
		down_payment_percent TEXT NOT NULL DEFAULT '0',
		discount TEXT NOT NULL DEFAULT '0',
		delivery_months INTEGER NOT NULL,
		payment_months INTEGER NOT NULL,
		monthly_correction TEXT NOT NULL DEFAULT '0',
		post_delivery_correction TEXT NOT NULL DEFAULT '0',
		include_top_ups INTEGER NOT NULL DEFAULT 0,
		top_up_frequency INTEGER NOT NULL DEFAULT 0,
		top_up_value TEXT NOT NULL DEFAULT '0',
		keys_value TEXT NOT NULL DEFAULT '0',
		furnishing_costs TEXT NOT NULL DEFAULT '0',
		condo_fees TEXT NOT NULL DEFAULT '0',
		property_tax TEXT NOT NULL DEFAULT '0',
		strategies TEXT NOT NULL DEFAULT '[]',
		installment_plan TEXT NOT NULL DEFAULT '[]',
		generic TEXT NOT NULL DEFAULT '{}',
		scenarios TEXT NOT NULL DEFAULT '{}',
		calculation_results TEXT,
		updated_at TIMESTAMP
	)`,
		`CREATE TABLE IF NOT EXISTS schedule_rows (
		projection_id INTEGER NOT NULL REFERENCES projections(id),
		scenario TEXT NOT NULL,
		month INTEGER NOT NULL,
		kind TEXT NOT NULL,
		base_amount TEXT NOT NULL,
		correction_rate TEXT NOT NULL,
		cumulative_correction TEXT NOT NULL,
		corrected_amount TEXT NOT NULL,
		outstanding_balance TEXT NOT NULL,
		net_balance TEXT,
		PRIMARY KEY (projection_id, scenario, month)
	)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind заменяет плейсхолдеры ? на $n для PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func marshalColumn(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CreateProjection сохраняет новую проекцию и возвращает ее идентификатор
func (s *SQLStore) CreateProjection(ctx context.Context, p *calculations.Projection) (int64, error) {
	strategies, err := marshalColumn(p.Strategies)
	if err != nil {
		return 0, fmt.Errorf("failed to encode strategies: %w", err)
	}
	plan, err := marshalColumn(p.InstallmentPlan)
	if err != nil {
		return 0, fmt.Errorf("failed to encode installment plan: %w", err)
	}
	generic, err := marshalColumn(p.Generic)
	if err != nil {
		return 0, fmt.Errorf("failed to encode generic inputs: %w", err)
	}
	scenarios, err := marshalColumn(p.Scenarios)
	if err != nil {
		return 0, fmt.Errorf("failed to encode scenarios: %w", err)
	}

	includeTopUps := 0
	if p.IncludeTopUps {
		includeTopUps = 1
	}

	var id int64
	err = s.q.QueryRowContext(ctx, s.rebind(
		`INSERT INTO projections (title, list_price, down_payment, down_payment_percent, discount, delivery_months, payment_months, monthly_correction, post_delivery_correction, include_top_ups, top_up_frequency, top_up_value, keys_value, furnishing_costs, condo_fees, property_tax, strategies, installment_plan, generic, scenarios, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		p.Title, dec(p.ListPrice), dec(p.DownPayment), dec(p.DownPaymentPercent), dec(p.Discount), p.DeliveryMonths, p.PaymentMonths,
		dec(p.MonthlyCorrection), dec(p.PostDeliveryCorrection), includeTopUps, p.TopUpFrequency, dec(p.TopUpValue), dec(p.KeysValue),
		dec(p.FurnishingCosts), dec(p.CondoFees), dec(p.PropertyTax), strategies, plan, generic, scenarios, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create projection: %w", err)
	}
	p.ID = id
	return id, nil
}

// Load читает проекцию вместе с последними результатами расчета
func (s *SQLStore) Load(ctx context.Context, id int64) (*calculations.Projection, error) {
	var p calculations.Projection
	var price, down, downPct, discount, pre, post decimal.Decimal
	var topUp, keys, furnishing, condo, tax decimal.Decimal
	var includeTopUps int
	var strategies, plan, generic, scenarios string
	var results sql.NullString

	row := s.q.QueryRowContext(ctx, s.rebind(
		`SELECT id, title, list_price, down_payment, down_payment_percent, discount, delivery_months, payment_months, monthly_correction, post_delivery_correction, include_top_ups, top_up_frequency, top_up_value, keys_value, furnishing_costs, condo_fees, property_tax, strategies, installment_plan, generic, scenarios, calculation_results
		FROM projections WHERE id = ?`), id)
	err := row.Scan(&p.ID, &p.Title, &price, &down, &downPct, &discount, &p.DeliveryMonths, &p.PaymentMonths, &pre, &post,
		&includeTopUps, &p.TopUpFrequency, &topUp, &keys, &furnishing, &condo, &tax, &strategies, &plan, &generic, &scenarios, &results)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get projection: %w", err)
	}

	p.ListPrice = price.InexactFloat64()
	p.DownPayment = down.InexactFloat64()
	p.DownPaymentPercent = downPct.InexactFloat64()
	p.Discount = discount.InexactFloat64()
	p.MonthlyCorrection = pre.InexactFloat64()
	p.PostDeliveryCorrection = post.InexactFloat64()
	p.IncludeTopUps = includeTopUps != 0
	p.TopUpValue = topUp.InexactFloat64()
	p.KeysValue = keys.InexactFloat64()
	p.FurnishingCosts = furnishing.InexactFloat64()
	p.CondoFees = condo.InexactFloat64()
	p.PropertyTax = tax.InexactFloat64()

	if err := json.Unmarshal([]byte(strategies), &p.Strategies); err != nil {
		return nil, fmt.Errorf("failed to decode strategies: %w", err)
	}
	if err := json.Unmarshal([]byte(plan), &p.InstallmentPlan); err != nil {
		return nil, fmt.Errorf("failed to decode installment plan: %w", err)
	}
	if err := json.Unmarshal([]byte(generic), &p.Generic); err != nil {
		return nil, fmt.Errorf("failed to decode generic inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(scenarios), &p.Scenarios); err != nil {
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}
	if results.Valid && results.String != "" {
		p.Results = &calculations.CalculationResults{}
		if err := json.Unmarshal([]byte(results.String), p.Results); err != nil {
			return nil, fmt.Errorf("failed to decode calculation results: %w", err)
		}
	}
	return &p, nil
}

// SaveCalculationResults заменяет сохраненный агрегат результатов
func (s *SQLStore) SaveCalculationResults(ctx context.Context, id int64, results *calculations.CalculationResults) error {
	data, err := marshalColumn(results)
	if err != nil {
		return fmt.Errorf("failed to encode calculation results: %w", err)
	}
	res, err := s.q.ExecContext(ctx, s.rebind(`UPDATE projections SET calculation_results = ?, updated_at = ? WHERE id = ?`),
		data, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to save calculation results: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteScheduleRows удаляет все строки графика проекции
func (s *SQLStore) DeleteScheduleRows(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, s.rebind(`DELETE FROM schedule_rows WHERE projection_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete schedule rows: %w", err)
	}
	return nil
}

// InsertScheduleRows добавляет строки графика
func (s *SQLStore) InsertScheduleRows(ctx context.Context, id int64, rows []calculations.ScheduleRow) error {
	query := s.rebind(`INSERT INTO schedule_rows (projection_id, scenario, month, kind, base_amount, correction_rate, cumulative_correction, corrected_amount, outstanding_balance, net_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, r := range rows {
		net := decimal.NullDecimal{}
		if r.NetBalance != nil {
			net = decimal.NullDecimal{Decimal: dec(*r.NetBalance), Valid: true}
		}
		_, err := s.q.ExecContext(ctx, query,
			id, string(r.Scenario), r.Month, string(r.Kind), dec(r.BaseAmount), dec(r.CorrectionRate),
			dec(r.CumulativeCorrection), dec(r.CorrectedAmount), dec(r.OutstandingBalance), net,
		)
		if err != nil {
			return fmt.Errorf("failed to insert schedule row %s/%d: %w", r.Scenario, r.Month, err)
		}
	}
	return nil
}

// LoadScheduleRows возвращает строки графика сценария по возрастанию месяца
func (s *SQLStore) LoadScheduleRows(ctx context.Context, id int64, scenario calculations.Scenario) ([]calculations.ScheduleRow, error) {
	rows, err := s.q.QueryContext(ctx, s.rebind(
		`SELECT scenario, month, kind, base_amount, correction_rate, cumulative_correction, corrected_amount, outstanding_balance, net_balance
		FROM schedule_rows WHERE projection_id = ? AND scenario = ? ORDER BY month`), id, string(scenario))
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule rows: %w", err)
	}
	defer rows.Close()

	var out []calculations.ScheduleRow
	for rows.Next() {
		var (
			r                               calculations.ScheduleRow
			sc, kind                        string
			base, rate, cum, corrected, bal decimal.Decimal
			net                             decimal.NullDecimal
		)
		if err := rows.Scan(&sc, &r.Month, &kind, &base, &rate, &cum, &corrected, &bal, &net); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		r.Scenario = calculations.Scenario(sc)
		r.Kind = calculations.PaymentKind(kind)
		r.BaseAmount = base.InexactFloat64()
		r.CorrectionRate = rate.InexactFloat64()
		r.CumulativeCorrection = cum.InexactFloat64()
		r.CorrectedAmount = corrected.InexactFloat64()
		r.OutstandingBalance = bal.InexactFloat64()
		if net.Valid {
			v := net.Decimal.InexactFloat64()
			r.NetBalance = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WithTx выполняет fn внутри транзакции
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx, driver: s.driver}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой
func (s *SQLStore) Close() error {
	return s.db.Close()
}
