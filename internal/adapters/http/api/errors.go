package api

import (
	"errors"
	"net/http"

	service "github.com/okian/gantt/internal/app"
	"github.com/okian/gantt/internal/adapters/repository"
	"github.com/okian/gantt/internal/domain/types"
	"github.com/okian/gantt/internal/engine"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrTooLarge     = errors.New("request body too large")
	ErrRenderFailed = errors.New("render failed")
	ErrBackpressure = errors.New("backpressure")
	ErrInternal     = errors.New("internal error")
)

// Error is a handler failure tagged with the operation and a sentinel kind.
// Its message is the cause's message so clients see the underlying text.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind creates an error of kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// classify maps an error to its HTTP status, kind and response code.
func classify(err error) (int, error, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, ErrTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest), errors.Is(err, types.ErrInvalidWindow):
		return http.StatusBadRequest, ErrBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrNotFound, "not_found"
	case errors.Is(err, engine.ErrRender):
		return http.StatusUnprocessableEntity, ErrRenderFailed, "render_failed"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, ErrBackpressure, "backpressure"
	default:
		return http.StatusInternalServerError, ErrInternal, "internal_error"
	}
}
