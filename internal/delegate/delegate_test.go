package delegate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/logging"
	"github.com/gorilla/mux"
)

func newComputeServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logging.NewLogger("error", io.Discard)
	r := mux.NewRouter()
	NewHandler(calculations.NewLocalBuilder(nil), log).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientMatchesLocalBuilder(t *testing.T) {
	srv := newComputeServer(t)
	client := NewClient(srv.URL, time.Second, logging.NewLogger("error", io.Discard))

	inputs := map[string]calculations.ScheduleInput{
		"automatic with keys": {
			ListPrice: 300000, DownPayment: 60000, DeliveryMonth: 40, PaymentMonths: 60,
			PreDeliveryCorrection: 0.2, PostDeliveryCorrection: 0.5, KeysValue: 10000,
		},
		"semiannual top-ups": {
			ListPrice: 450000, DownPaymentPercent: 10, Discount: 5000, DeliveryMonth: 24, PaymentMonths: 48,
			PreDeliveryCorrection: 0.37, PostDeliveryCorrection: 0.81,
			TopUpFrequency: calculations.TopUpSemiannual, TopUpValue: 7000,
		},
		"custom plan": {
			ListPrice: 200000, DownPayment: 20000, DeliveryMonth: 6, PaymentMonths: 12,
			PreDeliveryCorrection: 0.3,
			Plan: []calculations.CustomInstallment{
				{Month: 3, Amount: 90000, Kind: calculations.KindInstallment},
				{Month: 12, Amount: 90000, Kind: calculations.KindKey},
			},
		},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			want, err := calculations.BuildSchedule(in)
			if err != nil {
				t.Fatalf("BuildSchedule() error = %v", err)
			}
			got, err := client.BuildSchedule(context.Background(), in)
			if err != nil {
				t.Fatalf("client.BuildSchedule() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("remote schedule differs from local schedule")
			}
		})
	}
}

func TestClientPassesValidationErrors(t *testing.T) {
	srv := newComputeServer(t)
	client := NewClient(srv.URL, time.Second, logging.NewLogger("error", io.Discard))

	_, err := client.BuildSchedule(context.Background(), calculations.ScheduleInput{ListPrice: 0, PaymentMonths: 12})
	if !errors.Is(err, calculations.ErrInvalidScheduleInput) {
		t.Errorf("expected InvalidScheduleInput, got %v", err)
	}
}

func TestClientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
	}{
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			timeout: 20 * time.Millisecond,
		},
		{
			name: "server error without envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			timeout: time.Second,
		},
		{
			name: "null result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"result":null}`)
			},
			timeout: time.Second,
		},
		{
			name: "empty schedule",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"result":[]}`)
			},
			timeout: time.Second,
		},
		{
			name: "truncated schedule",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"result":[{"month":0,"kind":"entry"},{"month":1,"kind":"installment"}]}`)
			},
			timeout: time.Second,
		},
		{
			name: "unexpected kind",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, `{"error":{"kind":"internal","code":"Internal"}}`)
			},
			timeout: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL, tt.timeout, logging.NewLogger("error", io.Discard))
			_, err := client.BuildSchedule(context.Background(), calculations.ScheduleInput{ListPrice: 1000, PaymentMonths: 10})
			if !errors.Is(err, calculations.ErrRecomputeFailed) {
				t.Errorf("expected RecomputeFailed, got %v", err)
			}
		})
	}
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	srv := newComputeServer(t)

	resp, err := http.Post(srv.URL+SchedulePath, "application/json", nil)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
