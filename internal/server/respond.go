package server

import (
	"encoding/json"
	"net/http"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
)

// Envelope представляет тело любого ответа: либо result, либо error
type Envelope struct {
	Result json.RawMessage     `json:"result,omitempty"`
	Error  *calculations.Error `json:"error,omitempty"`
}

// StatusFor сопоставляет класс ошибки с HTTP-статусом
func StatusFor(err *calculations.Error) int {
	switch err.Kind {
	case calculations.KindInputValidation:
		return http.StatusBadRequest
	case calculations.KindComputeDelegateFailure:
		return http.StatusBadGateway
	case calculations.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteResult отдает успешный результат
func WriteResult(w http.ResponseWriter, result interface{}) {
	data, err := json.Marshal(result)
	if err != nil {
		WriteError(w, calculations.Wrap(&calculations.Error{Kind: calculations.KindInternal, Code: "EncodeFailed"}, err, ""))
		return
	}
	writeEnvelope(w, http.StatusOK, Envelope{Result: data})
}

// WriteError отдает структурированную ошибку
func WriteError(w http.ResponseWriter, err error) {
	e := calculations.AsError(err)
	out := &calculations.Error{Kind: e.Kind, Code: e.Code, Detail: e.Detail}
	if e.Err != nil {
		if out.Detail != "" {
			out.Detail += ": "
		}
		out.Detail += e.Err.Error()
	}
	writeEnvelope(w, StatusFor(e), Envelope{Error: out})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
