package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

// echo devolve o path recebido e o Authorization repassado
func echo(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"upstream": name,
			"path":     r.URL.RequestURI(),
			"auth":     r.Header.Get("Authorization"),
		})
	}))
}

func TestGateway_Routes(t *testing.T) {
	wallet, bet, admin, odds := echo("wallet"), echo("bet"), echo("admin"), echo("odds")
	defer wallet.Close()
	defer bet.Close()
	defer admin.Close()
	defer odds.Close()

	h, err := NewRouter(Upstreams{Wallet: wallet.URL, Bet: bet.URL, Admin: admin.URL, Odds: odds.URL}, []string{"*"}, zap.NewNop())
	require.NoError(t, err)

	cases := []struct {
		path, upstream, upstreamPath string
	}{
		{"/api/wallet", "wallet", "/wallet"},
		{"/api/wallet/deposit", "wallet", "/wallet/deposit"},
		{"/api/withdrawals", "wallet", "/withdrawals"},
		{"/api/bets/abc", "bet", "/bets/abc"},
		{"/api/admin/withdrawals?status=pending", "admin", "/admin/withdrawals?status=pending"},
		{"/api/matches?status=live", "odds", "/v1/matches?status=live"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.path, nil)
			r.Header.Set("Authorization", "Bearer tok")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			require.Equal(t, http.StatusOK, rec.Code)
			var got map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tc.upstream, got["upstream"])
			assert.Equal(t, tc.upstreamPath, got["path"])
			assert.Equal(t, "Bearer tok", got["auth"])
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGateway_UpstreamDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	h, err := NewRouter(Upstreams{Wallet: dead.URL, Bet: dead.URL, Admin: dead.URL, Odds: dead.URL}, nil, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bets", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body respond.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "remote_failure", body.Error)
}

func TestGateway_CORSPreflight(t *testing.T) {
	odds := echo("odds")
	defer odds.Close()
	h, err := NewRouter(Upstreams{Wallet: odds.URL, Bet: odds.URL, Admin: odds.URL, Odds: odds.URL}, []string{"http://localhost:5173"}, zap.NewNop())
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodOptions, "/api/bets", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGateway_InvalidUpstream(t *testing.T) {
	_, err := NewRouter(Upstreams{Wallet: "::bad", Bet: "http://b", Admin: "http://a", Odds: "http://o"}, nil, zap.NewNop())
	assert.Error(t, err)
}
