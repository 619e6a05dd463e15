package validators

import (
	"math"
	"testing"

	"github.com/cloud-ru/realty-projection-go/internal/config"
)

func TestValidators(t *testing.T) {
	cfg, _ := config.LoadConfig()

	tests := []struct {
		name      string
		validator func(*config.Config, interface{}) error
		value     interface{}
		wantError bool
	}{
		{
			name:      "valid price",
			validator: func(cfg *config.Config, v interface{}) error { return CheckPrice(cfg, v.(float64)) },
			value:     300000.0,
			wantError: false,
		},
		{
			name:      "invalid price zero",
			validator: func(cfg *config.Config, v interface{}) error { return CheckPrice(cfg, v.(float64)) },
			value:     0.0,
			wantError: true,
		},
		{
			name:      "invalid price NaN",
			validator: func(cfg *config.Config, v interface{}) error { return CheckPrice(cfg, v.(float64)) },
			value:     math.NaN(),
			wantError: true,
		},
		{
			name:      "valid zero correction",
			validator: func(cfg *config.Config, v interface{}) error { return CheckRate(cfg, "correction", v.(float64)) },
			value:     0.0,
			wantError: false,
		},
		{
			name:      "invalid negative correction",
			validator: func(cfg *config.Config, v interface{}) error { return CheckRate(cfg, "correction", v.(float64)) },
			value:     -0.5,
			wantError: true,
		},
		{
			name:      "valid months",
			validator: func(cfg *config.Config, v interface{}) error { return CheckMonths(cfg, v.(int)) },
			value:     60,
			wantError: false,
		},
		{
			name:      "invalid months zero",
			validator: func(cfg *config.Config, v interface{}) error { return CheckMonths(cfg, v.(int)) },
			value:     0,
			wantError: true,
		},
		{
			name:      "invalid months too large",
			validator: func(cfg *config.Config, v interface{}) error { return CheckMonths(cfg, v.(int)) },
			value:     10000,
			wantError: true,
		},
		{
			name:      "valid immediate delivery",
			validator: func(cfg *config.Config, v interface{}) error { return CheckDeliveryMonth(cfg, v.(int)) },
			value:     0,
			wantError: false,
		},
		{
			name:      "invalid negative delivery",
			validator: func(cfg *config.Config, v interface{}) error { return CheckDeliveryMonth(cfg, v.(int)) },
			value:     -1,
			wantError: true,
		},
		{
			name:      "valid keys amount",
			validator: func(cfg *config.Config, v interface{}) error { return CheckAmount(cfg, "keys_value", v.(float64)) },
			value:     20000.0,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator(cfg, tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("validator error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestBalanceCap(t *testing.T) {
	if got := BalanceCap(nil); got != 1e12 {
		t.Errorf("BalanceCap(nil) = %v, want 1e12", got)
	}
	cfg := &config.Config{MaxBalanceCap: 42}
	if got := BalanceCap(cfg); got != 42 {
		t.Errorf("BalanceCap() = %v, want 42", got)
	}
}
