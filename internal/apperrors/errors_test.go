package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeInvalidTransition, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeLimitExceeded, http.StatusPaymentRequired},
		{CodeSubscriptionInactive, http.StatusPaymentRequired},
		{CodeTenantDisabled, http.StatusForbidden},
		{CodeAuthorization, http.StatusForbidden},
		{CodeAmbiguousMatch, http.StatusConflict},
		{CodeDownstream, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(New(tc.code, "x")), "code %s", tc.code)
	}
}

func TestHTTPStatus_UnclassifiedError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain error")))
}

func TestCodeOf_WrappedError(t *testing.T) {
	inner := NotFound("visitor")
	wrapped := fmt.Errorf("while handling request: %w", inner)
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeInternal, "failed to create visitor", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLimitExceeded_Details(t *testing.T) {
	err := LimitExceeded("monthly_visitors", 100, 100)
	assert.Equal(t, CodeLimitExceeded, err.Code)
	assert.Equal(t, "100", err.Details["current"])
	assert.Equal(t, "100", err.Details["limit"])
	assert.Equal(t, "monthly_visitors", err.Details["limit_name"])
}

func TestValidation_FieldDetail(t *testing.T) {
	err := Validation("email", "email is required")
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "email is required", err.Details["email"])
}
