package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wallet: %w", ledger.ErrNotFound), http.StatusNotFound, "not_found"},
		{ledger.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{ledger.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
		{ledger.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
		{ledger.Remote("insert", fmt.Errorf("conn reset")), http.StatusBadGateway, "remote_failure"},
		{&ledger.OddsChangedError{Current: decimal.NewFromInt(2)}, http.StatusConflict, "odds_changed"},
		{ledger.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: bank_details must be valid JSON", ledger.ErrInvalidInput), http.StatusBadRequest, "bad_request"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := Status(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestError_OddsChangedCarriesCurrent(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, zap.NewNop(), &ledger.OddsChangedError{Current: decimal.RequireFromString("2.1")})

	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "2.10", body.Current)
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}

	var p payload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, Decode(r, &p))
	assert.Equal(t, "x", p.Name)

	var empty payload
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	assert.ErrorIs(t, Decode(r, &empty), ErrBadRequest)

	var extra payload
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	assert.ErrorIs(t, Decode(r, &extra), ErrBadRequest)
}
