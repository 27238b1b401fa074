package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("event: %w", ErrNotFound), http.StatusNotFound},
		{"forbidden", fmt.Errorf("only the host can invite: %w", ErrForbidden), http.StatusForbidden},
		{"conflict", fmt.Errorf("all users already invited: %w", ErrConflict), http.StatusConflict},
		{"bad request", fmt.Errorf("unknown invitees: %w", ErrBadRequest), http.StatusBadRequest},
		{"validation", Validation("status is invalid"), http.StatusUnprocessableEntity},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"explicit code", New(http.StatusTeapot, "teapot", nil), http.StatusTeapot},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatus(tt.err))
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := Validation("message must be at most 500 characters")

	assert.Equal(t, "message must be at most 500 characters", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
}
