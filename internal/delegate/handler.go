package delegate

import (
	"encoding/json"
	"net/http"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/metrics"
	"github.com/cloud-ru/realty-projection-go/internal/server"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler обслуживает построение графиков для удаленных клиентов
type Handler struct {
	builder calculations.ScheduleBuilder
	log     logrus.FieldLogger
}

// NewHandler создает обработчик поверх построителя графика
func NewHandler(builder calculations.ScheduleBuilder, log logrus.FieldLogger) *Handler {
	return &Handler{builder: builder, log: log}
}

// Register добавляет маршрут вычислительного сервиса
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc(SchedulePath, h.BuildSchedule).Methods(http.MethodPost)
}

// BuildSchedule строит график по телу запроса
func (h *Handler) BuildSchedule(w http.ResponseWriter, r *http.Request) {
	var in calculations.ScheduleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		metrics.APICalls.WithLabelValues("compute_service", SchedulePath, "error").Inc()
		server.WriteError(w, calculations.Wrap(calculations.ErrInvalidScheduleInput, err, "некорректное тело запроса"))
		return
	}

	rows, err := h.builder.BuildSchedule(r.Context(), in)
	if err != nil {
		metrics.APICalls.WithLabelValues("compute_service", SchedulePath, "error").Inc()
		h.log.WithError(err).Debug("график не построен")
		server.WriteError(w, err)
		return
	}

	metrics.APICalls.WithLabelValues("compute_service", SchedulePath, "success").Inc()
	server.WriteResult(w, rows)
}
