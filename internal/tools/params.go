package tools

import (
	"math"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
)

func invalidParam(name string) error {
	return calculations.Errorf(calculations.ErrInvalidParameters, "invalid parameter: %s", name)
}

func requiredFloat(params map[string]interface{}, name string) (float64, error) {
	v, ok := params[name].(float64)
	if !ok {
		return 0, invalidParam(name)
	}
	return v, nil
}

// optionalFloat возвращает 0 для отсутствующего параметра
func optionalFloat(params map[string]interface{}, name string) (float64, error) {
	raw, present := params[name]
	if !present || raw == nil {
		return 0, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, invalidParam(name)
	}
	return v, nil
}

// requiredInt принимает только целые числа: JSON приносит их как float64
func requiredInt(params map[string]interface{}, name string) (int, error) {
	v, err := requiredFloat(params, name)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, invalidParam(name)
	}
	return int(v), nil
}

func optionalInt(params map[string]interface{}, name string) (int, error) {
	if raw, present := params[name]; !present || raw == nil {
		return 0, nil
	}
	return requiredInt(params, name)
}

func projectionID(params map[string]interface{}) (int64, error) {
	id, err := requiredInt(params, "projection_id")
	if err != nil || id <= 0 {
		return 0, invalidParam("projection_id")
	}
	return int64(id), nil
}

func scheduleInputFromParams(params map[string]interface{}) (calculations.ScheduleInput, error) {
	var in calculations.ScheduleInput
	var err error

	if in.ListPrice, err = requiredFloat(params, "list_price"); err != nil {
		return in, err
	}
	if in.DeliveryMonth, err = requiredInt(params, "delivery_month"); err != nil {
		return in, err
	}
	if in.PaymentMonths, err = requiredInt(params, "payment_months"); err != nil {
		return in, err
	}

	optional := []struct {
		name string
		dst  *float64
	}{
		{"down_payment", &in.DownPayment},
		{"down_payment_percent", &in.DownPaymentPercent},
		{"discount", &in.Discount},
		{"pre_delivery_correction", &in.PreDeliveryCorrection},
		{"post_delivery_correction", &in.PostDeliveryCorrection},
		{"top_up_value", &in.TopUpValue},
		{"keys_value", &in.KeysValue},
	}
	for _, o := range optional {
		if *o.dst, err = optionalFloat(params, o.name); err != nil {
			return in, err
		}
	}

	freq, err := optionalInt(params, "top_up_frequency")
	if err != nil {
		return in, err
	}
	in.TopUpFrequency = calculations.TopUpFrequency(freq)

	if raw, present := params["plan"]; present && raw != nil {
		items, ok := raw.([]interface{})
		if !ok {
			return in, invalidParam("plan")
		}
		for _, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				return in, invalidParam("plan")
			}
			month, err := requiredInt(m, "month")
			if err != nil {
				return in, invalidParam("plan.month")
			}
			amount, err := requiredFloat(m, "amount")
			if err != nil {
				return in, invalidParam("plan.amount")
			}
			kind, _ := m["kind"].(string)
			if kind == "" {
				kind = string(calculations.KindInstallment)
			}
			in.Plan = append(in.Plan, calculations.CustomInstallment{
				Month:  month,
				Amount: amount,
				Kind:   calculations.PaymentKind(kind),
			})
		}
	}
	return in, nil
}
