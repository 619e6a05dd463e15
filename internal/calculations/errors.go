package calculations

import (
	"errors"
	"fmt"
)

// ErrorKind представляет класс ошибки движка
type ErrorKind string

const (
	KindInputValidation        ErrorKind = "input_validation"
	KindComputeDelegateFailure ErrorKind = "compute_delegate_failure"
	KindConvergenceFailure     ErrorKind = "convergence_failure"
	KindPersistenceFailure     ErrorKind = "persistence_failure"
	KindNotFound               ErrorKind = "not_found"
	KindInternal               ErrorKind = "internal"
)

// Error представляет структурированную ошибку (класс + код + детали)
type Error struct {
	Kind   ErrorKind `json:"kind"`
	Code   string    `json:"code"`
	Detail string    `json:"detail,omitempty"`
	Err    error     `json:"-"`
}

var (
	ErrInvalidScenario      = &Error{Kind: KindInputValidation, Code: "InvalidScenario"}
	ErrInvalidScheduleInput = &Error{Kind: KindInputValidation, Code: "InvalidScheduleInput"}
	ErrInvalidParameters    = &Error{Kind: KindInputValidation, Code: "InvalidParameters"}
	ErrInvalidStrategy      = &Error{Kind: KindInputValidation, Code: "InvalidStrategy"}
	ErrStrategyNotEnabled   = &Error{Kind: KindInputValidation, Code: "StrategyNotEnabled"}
	ErrRecomputeFailed      = &Error{Kind: KindComputeDelegateFailure, Code: "RecomputeFailed"}
	ErrNoConvergence        = &Error{Kind: KindConvergenceFailure, Code: "NoConvergence"}
	ErrPersistence          = &Error{Kind: KindPersistenceFailure, Code: "PersistenceFailed"}
	ErrProjectionNotFound   = &Error{Kind: KindNotFound, Code: "ProjectionNotFound"}
)

func (e *Error) Error() string {
	msg := e.Code
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибки по классу и коду, детали не учитываются
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Errorf создает копию шаблонной ошибки с деталями
func Errorf(tmpl *Error, format string, args ...interface{}) *Error {
	return &Error{Kind: tmpl.Kind, Code: tmpl.Code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap создает копию шаблонной ошибки, оборачивающую причину
func Wrap(tmpl *Error, err error, detail string) *Error {
	return &Error{Kind: tmpl.Kind, Code: tmpl.Code, Detail: detail, Err: err}
}

// AsError приводит произвольную ошибку к структурированной
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Code: "Internal", Err: err}
}
