package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/metrics"
	"github.com/cloud-ru/realty-projection-go/internal/server"
	"github.com/sirupsen/logrus"
)

// SchedulePath задает путь операции построения графика на вычислительном сервисе
const SchedulePath = "/v1/schedule"

// Client строит графики через внешний вычислительный сервис
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	log     logrus.FieldLogger
}

// NewClient создает клиента вычислительного сервиса
func NewClient(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
		log:     log,
	}
}

// BuildSchedule отправляет вход построителя и возвращает строки графика.
// Ошибки валидации сервиса возвращаются как есть, остальные сбои превращаются в RecomputeFailed.
func (c *Client) BuildSchedule(ctx context.Context, in calculations.ScheduleInput) ([]calculations.ScheduleEntry, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rows, err := c.do(ctx, in)
	if err != nil {
		metrics.APICalls.WithLabelValues("compute_delegate", SchedulePath, "error").Inc()
		var e *calculations.Error
		if errors.As(err, &e) && e.Kind == calculations.KindInputValidation {
			return nil, err
		}
		c.log.WithError(err).Warn("вычислительный сервис недоступен")
		return nil, calculations.Wrap(calculations.ErrRecomputeFailed, err, "вычислительный сервис")
	}

	metrics.APICalls.WithLabelValues("compute_delegate", SchedulePath, "success").Inc()
	return rows, nil
}

func (c *Client) do(ctx context.Context, in calculations.ScheduleInput) ([]calculations.ScheduleEntry, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SchedulePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("compute delegate response: status=%d bytes=%d", resp.StatusCode, len(raw))

	var env server.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rows []calculations.ScheduleEntry
	if err := json.Unmarshal(env.Result, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	if err := checkSchedule(in, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// checkSchedule отклоняет ответ, который не может заменить сохраненный график
func checkSchedule(in calculations.ScheduleInput, rows []calculations.ScheduleEntry) error {
	if len(rows) == 0 {
		return errors.New("empty schedule")
	}
	if rows[0].Month != 0 || rows[0].Kind != calculations.KindEntry {
		return fmt.Errorf("first row must be the entry at month 0, got %s at month %d", rows[0].Kind, rows[0].Month)
	}

	want := in.PaymentMonths + 1
	if in.Custom() {
		want = len(in.Plan) + 1
	}
	if len(rows) != want {
		return fmt.Errorf("schedule has %d rows, want %d", len(rows), want)
	}

	for i := 1; i < len(rows); i++ {
		m := rows[i].Month
		if m <= rows[i-1].Month || m > in.PaymentMonths {
			return fmt.Errorf("row %d: month %d out of order or outside 1..%d", i, m, in.PaymentMonths)
		}
	}
	return nil
}
