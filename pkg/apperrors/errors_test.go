package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindOfAndHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"validation", Invalid("email", ErrInvalidEmail, "bad email"), KindValidation, http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("create: %w", Invalid("name", ErrInvalidName, "bad")), KindValidation, http.StatusUnprocessableEntity},
		{"variant", Invalid("variant", ErrInvalidVariant, "unknown"), KindInvalidInput, http.StatusBadRequest},
		{"not applicable", Invalid("tier", ErrFieldNotApplicable, "no"), KindInvalidInput, http.StatusBadRequest},
		{"not found", &NotFoundError{Entity: "customer", ID: "x"}, KindNotFound, http.StatusNotFound},
		{"duplicate", &DuplicateRecordError{Field: "email", Value: "a@b.cl"}, KindConflict, http.StatusConflict},
		{"connection", &ConnectionError{Err: errors.New("refused")}, KindConnection, http.StatusServiceUnavailable},
		{"external", &ExternalServiceError{Service: "identity", Message: "boom", Code: 500}, KindExternal, http.StatusBadGateway},
		{"timeout", &ExternalServiceTimeoutError{Service: "identity", Timeout: 10 * time.Second}, KindTimeout, http.StatusGatewayTimeout},
		{"unknown", errors.New("???"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestErrorsUnwrapToSentinels(t *testing.T) {
	assert.ErrorIs(t, Invalid("phone", ErrInvalidPhone, "bad"), ErrInvalidPhone)
	assert.ErrorIs(t, &NotFoundError{Entity: "customer", ID: "1"}, ErrNotFound)
	assert.ErrorIs(t, &DuplicateRecordError{Field: "email"}, ErrDuplicate)

	cause := errors.New("dial tcp: refused")
	connErr := &ConnectionError{Err: cause}
	assert.ErrorIs(t, connErr, ErrConnection)
	assert.ErrorIs(t, connErr, cause)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, `a record with email "a@b.cl" already exists`,
		(&DuplicateRecordError{Field: "email", Value: "a@b.cl"}).Error())
	assert.Equal(t, "identity did not answer within 10s",
		(&ExternalServiceTimeoutError{Service: "identity", Timeout: 10 * time.Second}).Error())
	assert.Equal(t, "email", FieldOf(fmt.Errorf("x: %w", Invalid("email", ErrInvalidEmail, "bad"))))
	assert.Equal(t, "", FieldOf(errors.New("plain")))
}
