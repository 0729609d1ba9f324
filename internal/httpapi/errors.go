package httpapi

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-formset/pkg/form"
	"github.com/goliatone/go-formset/pkg/model"
)

var (
	ErrInvalidPayload = errors.New("invalid request payload")
	ErrUnknownFormat  = errors.New("unknown report format")
)

// ErrStatusMap maps known errors onto response codes. Anything else is a 500.
var ErrStatusMap = map[error]int{
	ErrInvalidPayload:      http.StatusBadRequest,
	ErrUnknownFormat:       http.StatusBadRequest,
	model.ErrModelNotFound: http.StatusNotFound,
	model.ErrFieldNotFound: http.StatusBadRequest,
	form.ErrNoKeySource:    http.StatusServiceUnavailable,
}

// Response is the envelope of every JSON reply that is not a report.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func statusFor(err error) int {
	for known, status := range ErrStatusMap {
		if errors.Is(err, known) {
			return status
		}
	}
	return http.StatusInternalServerError
}
