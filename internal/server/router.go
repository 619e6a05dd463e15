package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/tools"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server представляет HTTP-обвязку инструментов проекций
type Server struct {
	tools map[string]tools.ToolHandler
	log   logrus.FieldLogger
}

// New создает сервер поверх набора инструментов
func New(handlers map[string]tools.ToolHandler, log logrus.FieldLogger) *Server {
	return &Server{tools: handlers, log: log}
}

// Router возвращает маршрутизатор со всеми маршрутами API
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/projections/{id}/calculate", s.recompute).Methods(http.MethodPost)
	r.HandleFunc("/projections/{id}/calculate/{strategy}", s.recomputeStrategy).Methods(http.MethodPost)
	r.HandleFunc("/projections/{id}/schedule", s.schedule).Methods(http.MethodGet)
	r.HandleFunc("/schedule", s.bodyTool(tools.ToolScheduleBuild)).Methods(http.MethodPost)
	r.HandleFunc("/irr", s.bodyTool(tools.ToolIRRSolve)).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func (s *Server) recompute(w http.ResponseWriter, r *http.Request) {
	params, ok := projectionParams(w, r)
	if !ok {
		return
	}
	s.call(r.Context(), w, tools.ToolProjectionRecompute, params)
}

func (s *Server) recomputeStrategy(w http.ResponseWriter, r *http.Request) {
	params, ok := projectionParams(w, r)
	if !ok {
		return
	}
	params["strategy"] = mux.Vars(r)["strategy"]
	s.call(r.Context(), w, tools.ToolProjectionRecomputeStrategy, params)
}

func (s *Server) schedule(w http.ResponseWriter, r *http.Request) {
	params, ok := projectionParams(w, r)
	if !ok {
		return
	}
	scenario := r.URL.Query().Get("scenario")
	if scenario == "" {
		scenario = string(calculations.ScenarioStandard)
	}
	params["scenario"] = scenario
	s.call(r.Context(), w, tools.ToolProjectionSchedule, params)
}

func (s *Server) bodyTool(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			WriteError(w, calculations.Wrap(calculations.ErrInvalidParameters, err, "некорректное тело запроса"))
			return
		}
		s.call(r.Context(), w, name, params)
	}
}

func (s *Server) call(ctx context.Context, w http.ResponseWriter, name string, params map[string]interface{}) {
	handler, ok := s.tools[name]
	if !ok {
		WriteError(w, calculations.Errorf(&calculations.Error{Kind: calculations.KindNotFound, Code: "ToolNotFound"}, "%s", name))
		return
	}
	result, err := handler(ctx, params)
	if err != nil {
		s.log.WithError(err).WithField("tool", name).Warn("ошибка инструмента")
		WriteError(w, err)
		return
	}
	WriteResult(w, result)
}

func projectionParams(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, calculations.Errorf(calculations.ErrInvalidParameters, "некорректный идентификатор проекции %q", mux.Vars(r)["id"]))
		return nil, false
	}
	return map[string]interface{}{"projection_id": float64(id)}, true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request served")
	})
}
