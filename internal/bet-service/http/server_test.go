package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/bet-service/dto"
	"github.com/radieske/esports-bet-ledger/internal/bet-service/service"
	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/ledger/memstore"
	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

var (
	secret = []byte("bet-test")
	userID = "5a1c0d3e-2b4f-4c6d-8e9f-0a1b2c3d4e5f"
)

func setup(t *testing.T) (http.Handler, string) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	m := &ledger.Match{TeamA: "Falcons", TeamB: "Vikings", MatchTime: time.Now().Add(time.Hour), Status: ledger.MatchLive}
	require.NoError(t, store.InTx(ctx, func(tx ledger.Tx) error {
		w := &ledger.Wallet{UserID: userID}
		if err := tx.CreateWallet(ctx, w); err != nil {
			return err
		}
		if _, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
			UserID: userID, WalletID: w.ID, Type: ledger.Credit, Amount: decimal.NewFromInt(100),
			Category: ledger.CategoryDeposit, Status: ledger.TransactionCompleted,
		}); err != nil {
			return err
		}
		if err := tx.InsertMatch(ctx, m); err != nil {
			return err
		}
		return tx.ReplaceOdds(ctx, &ledger.BettingOdds{MatchID: m.ID, TeamAOdds: decimal.RequireFromString("2.10"), TeamBOdds: decimal.RequireFromString("1.75")})
	}))

	log := zap.NewNop()
	svc := service.New(store, nil, nil, log)
	return NewServer(log, svc, middleware.NewAuth(secret, store, log)).Router(), m.ID
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := middleware.IssueToken(secret, userID, "carol@example.com", time.Hour)
	require.NoError(t, err)
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestPlaceBet(t *testing.T) {
	h, matchID := setup(t)

	rec := call(t, h, http.MethodPost, "/bets",
		fmt.Sprintf(`{"match_id":%q,"selection":"team_a","odds":"2.10","amount":"40.00","request_id":"r1"}`, matchID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.PlaceBetResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "60.00", resp.NewBalance)
	assert.True(t, resp.Bet.PotentialPayout.Equal(decimal.RequireFromString("84")))
	assert.Equal(t, ledger.BetMatchWinner, resp.Bet.BetType)

	rec = call(t, h, http.MethodPost, "/bets",
		fmt.Sprintf(`{"match_id":%q,"selection":"team_a","odds":"2.10","amount":"40.00","request_id":"r1"}`, matchID))
	assert.Equal(t, http.StatusOK, rec.Code, "replay")

	rec = call(t, h, http.MethodGet, "/bets/"+resp.Bet.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, "/bets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.BetsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Bets, 1)
}

func TestPlaceBet_Errors(t *testing.T) {
	h, matchID := setup(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"insufficient", `{"match_id":%q,"selection":"team_a","odds":2.10,"amount":500}`, http.StatusConflict, "insufficient_funds"},
		{"odds changed", `{"match_id":%q,"selection":"team_a","odds":"2.00","amount":"10"}`, http.StatusConflict, "odds_changed"},
		{"bad amount", `{"match_id":%q,"selection":"team_a","odds":"2.10","amount":"ten"}`, http.StatusBadRequest, "invalid_amount"},
		{"bad odds", `{"match_id":%q,"selection":"team_a","odds":"abc","amount":"10"}`, http.StatusBadRequest, "invalid_odds"},
		{"bad selection", `{"match_id":%q,"selection":"home","odds":"2.10","amount":"10"}`, http.StatusBadRequest, "invalid_selection"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, h, http.MethodPost, "/bets", fmt.Sprintf(tc.body, matchID))
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			var body respond.ErrorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Error)
			if tc.code == "odds_changed" {
				assert.Equal(t, "2.10", body.Current)
			}
		})
	}

	rec := call(t, h, http.MethodGet, "/bets/"+matchID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, http.MethodGet, "/bets/abc", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body respond.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not_found", body.Error)
}
