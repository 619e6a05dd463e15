package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "projections.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProjection() *calculations.Projection {
	rate := 12.5
	month := 30
	return &calculations.Projection{
		Title:                  "Studio 305",
		ListPrice:              300000,
		DownPayment:            30000,
		DeliveryMonths:         40,
		PaymentMonths:          60,
		MonthlyCorrection:      0.2,
		PostDeliveryCorrection: 0.5,
		IncludeTopUps:          true,
		TopUpFrequency:         6,
		TopUpValue:             5000,
		KeysValue:              20000,
		FurnishingCosts:        15000,
		CondoFees:              300,
		PropertyTax:            1200,
		Strategies:             []calculations.Strategy{calculations.StrategyFutureSale},
		Generic:                calculations.ScenarioInputs{SaleMonth: &month},
		Scenarios: map[calculations.Scenario]calculations.ScenarioInputs{
			calculations.ScenarioOptimistic: {SaleAppreciationRate: &rate},
		},
	}
}

func TestSQLStore_CreateAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := sampleProjection()
	id, err := s.CreateProjection(ctx, p)
	if err != nil {
		t.Fatalf("Failed to create projection: %v", err)
	}
	if id == 0 || p.ID != id {
		t.Fatalf("Expected assigned id, got %d (projection %d)", id, p.ID)
	}

	fetched, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load projection: %v", err)
	}
	if fetched.Title != p.Title || fetched.ListPrice != p.ListPrice || fetched.DeliveryMonths != 40 {
		t.Errorf("Unexpected projection: %+v", fetched)
	}
	if fetched.MonthlyCorrection != 0.2 || fetched.PostDeliveryCorrection != 0.5 {
		t.Errorf("Corrections not preserved: %v / %v", fetched.MonthlyCorrection, fetched.PostDeliveryCorrection)
	}
	if !fetched.IncludeTopUps || fetched.TopUpFrequency != 6 {
		t.Errorf("Top-ups not preserved: %+v", fetched)
	}
	if len(fetched.Strategies) != 1 || fetched.Strategies[0] != calculations.StrategyFutureSale {
		t.Errorf("Strategies not preserved: %v", fetched.Strategies)
	}
	if fetched.Generic.SaleMonth == nil || *fetched.Generic.SaleMonth != 30 {
		t.Errorf("Generic sale month not preserved: %+v", fetched.Generic)
	}
	opt := fetched.Scenarios[calculations.ScenarioOptimistic]
	if opt.SaleAppreciationRate == nil || *opt.SaleAppreciationRate != 12.5 {
		t.Errorf("Scenario override not preserved: %+v", opt)
	}
	if fetched.Results != nil {
		t.Errorf("Expected no results before recompute")
	}
}

func TestSQLStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.SaveCalculationResults(context.Background(), 42, &calculations.CalculationResults{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on save, got %v", err)
	}
}

func TestSQLStore_ScheduleRowsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateProjection(ctx, sampleProjection())
	if err != nil {
		t.Fatalf("Failed to create projection: %v", err)
	}

	net := 0.1 + 0.2
	rows := []calculations.ScheduleRow{
		{Scenario: calculations.ScenarioStandard, ScheduleEntry: calculations.ScheduleEntry{Month: 0, Kind: calculations.KindEntry, BaseAmount: 30000, CorrectedAmount: 30000, OutstandingBalance: 270000}},
		{Scenario: calculations.ScenarioStandard, ScheduleEntry: calculations.ScheduleEntry{
			Month: 1, Kind: calculations.KindInstallment, BaseAmount: 3898.305084745763,
			CorrectionRate: 0.2, CumulativeCorrection: 0.2, CorrectedAmount: 3906.1016949152544,
			OutstandingBalance: 266633.8983050847, NetBalance: &net,
		}},
		{Scenario: calculations.ScenarioConservative, ScheduleEntry: calculations.ScheduleEntry{Month: 0, Kind: calculations.KindEntry, BaseAmount: 30000}},
	}
	if err := s.InsertScheduleRows(ctx, id, rows); err != nil {
		t.Fatalf("Failed to insert rows: %v", err)
	}

	loaded, err := s.LoadScheduleRows(ctx, id, calculations.ScenarioStandard)
	if err != nil {
		t.Fatalf("Failed to load rows: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(loaded))
	}
	if loaded[0].NetBalance != nil {
		t.Errorf("Entry row must have no net balance")
	}
	got := loaded[1]
	if got.BaseAmount != rows[1].BaseAmount || got.CorrectedAmount != rows[1].CorrectedAmount || got.OutstandingBalance != rows[1].OutstandingBalance {
		t.Errorf("Amounts changed after round trip: %+v", got.ScheduleEntry)
	}
	if got.NetBalance == nil || *got.NetBalance != net {
		t.Errorf("Net balance changed after round trip: %v", got.NetBalance)
	}

	if err := s.DeleteScheduleRows(ctx, id); err != nil {
		t.Fatalf("Failed to delete rows: %v", err)
	}
	loaded, err = s.LoadScheduleRows(ctx, id, calculations.ScenarioStandard)
	if err != nil {
		t.Fatalf("Failed to load rows: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected no rows after delete, got %d", len(loaded))
	}
}

func TestSQLStore_SaveCalculationResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateProjection(ctx, sampleProjection())
	if err != nil {
		t.Fatalf("Failed to create projection: %v", err)
	}

	results := &calculations.CalculationResults{
		RunID:      "run-1",
		ComputedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Scenarios: map[calculations.Scenario]*calculations.ScenarioResults{
			calculations.ScenarioStandard: {Scenario: calculations.ScenarioStandard, Warnings: []*calculations.Error{calculations.Errorf(calculations.ErrNoConvergence, "test")}},
		},
	}
	if err := s.SaveCalculationResults(ctx, id, results); err != nil {
		t.Fatalf("Failed to save results: %v", err)
	}

	fetched, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load projection: %v", err)
	}
	if fetched.Results == nil || fetched.Results.RunID != "run-1" {
		t.Fatalf("Results not stored: %+v", fetched.Results)
	}
	if !fetched.Results.ComputedAt.Equal(results.ComputedAt) {
		t.Errorf("ComputedAt = %v, want %v", fetched.Results.ComputedAt, results.ComputedAt)
	}
	if w := fetched.Results.Scenarios[calculations.ScenarioStandard].Warnings; len(w) != 1 || !errors.Is(w[0], calculations.ErrNoConvergence) {
		t.Errorf("Warnings not stored: %v", w)
	}
}

func TestSQLStore_WithTxRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateProjection(ctx, sampleProjection())
	if err != nil {
		t.Fatalf("Failed to create projection: %v", err)
	}
	initial := []calculations.ScheduleRow{
		{Scenario: calculations.ScenarioStandard, ScheduleEntry: calculations.ScheduleEntry{Month: 0, Kind: calculations.KindEntry, BaseAmount: 30000}},
	}
	if err := s.InsertScheduleRows(ctx, id, initial); err != nil {
		t.Fatalf("Failed to insert rows: %v", err)
	}

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteScheduleRows(ctx, id); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	loaded, err := s.LoadScheduleRows(ctx, id, calculations.ScenarioStandard)
	if err != nil {
		t.Fatalf("Failed to load rows: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("Rollback must keep previous rows, got %d", len(loaded))
	}

	err = s.WithTx(ctx, func(tx Store) error {
		return tx.DeleteScheduleRows(ctx, id)
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	loaded, _ = s.LoadScheduleRows(ctx, id, calculations.ScenarioStandard)
	if len(loaded) != 0 {
		t.Errorf("Committed delete must remove rows, got %d", len(loaded))
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	if got := pg.rebind("SELECT ? , ?"); got != "SELECT $1 , $2" {
		t.Errorf("rebind() = %q", got)
	}
	lite := &SQLStore{driver: DriverSQLite}
	if got := lite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("rebind() = %q", got)
	}
}
