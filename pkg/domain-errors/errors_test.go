package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("finds code on direct error", func(t *testing.T) {
		err := New(CodeConflict, "tenant name must be unique")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("finds code deeper in the chain", func(t *testing.T) {
		inner := New(CodeInvalidTenant, "tenantId required")
		outer := Wrap(inner, CodeInternal, "failed to purge tenant")
		assert.True(t, HasCode(outer, CodeInvalidTenant))
		assert.True(t, HasCode(outer, CodeInternal))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil cause yields nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause stays reachable via errors.Is", func(t *testing.T) {
		cause := errors.New("connection reset")
		wrapped := Wrap(fmt.Errorf("query: %w", cause), CodeInternal, "failed to list tenants")
		require.Error(t, wrapped)
		assert.True(t, errors.Is(wrapped, cause))
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeInvalidTenant, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(New(tc.code, "x")), string(tc.code))
	}

	t.Run("uncoded error maps to 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	})
}
