// Package gateway roteia /api/* para os serviços internos via reverse proxy.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

// Upstreams são as URLs base dos serviços
type Upstreams struct {
	Wallet string
	Bet    string
	Admin  string
	Odds   string
}

func proxy(to string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q", to)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", u.Host), zap.String("path", r.URL.Path), zap.Error(err))
		respond.WriteJSON(w, http.StatusBadGateway, respond.ErrorBody{Error: "remote_failure", Message: "upstream unavailable"})
	}
	return rp, nil
}

// NewRouter monta o roteador do gateway. O prefixo é removido antes de repassar:
// /api/wallet/deposit -> wallet-service /wallet/deposit
func NewRouter(up Upstreams, origins []string, log *zap.Logger) (http.Handler, error) {
	routes := []struct {
		prefix string // prefixo público
		keep   string // prefixo preservado no upstream
		target string
	}{
		{"/api/wallet", "/wallet", up.Wallet},
		{"/api/withdrawals", "/withdrawals", up.Wallet},
		{"/api/profile", "/profile", up.Wallet},
		{"/api/bets", "/bets", up.Bet},
		{"/api/admin", "/admin", up.Admin},
		{"/api/matches", "/v1/matches", up.Odds},
	}

	r := middleware.NewRouter(log)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	for _, rt := range routes {
		rp, err := proxy(rt.target, log)
		if err != nil {
			return nil, err
		}
		h := rewrite(rt.prefix, rt.keep, rp)
		r.Handle(rt.prefix, h)
		r.Handle(rt.prefix+"/*", h)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r, nil
}

// WithFeedSocket expõe /api/ws (WebSocket do feed) fora do timeout do router
func WithFeedSocket(h http.Handler, oddsURL string, log *zap.Logger) (http.Handler, error) {
	rp, err := proxy(oddsURL, log)
	if err != nil {
		return nil, err
	}
	root := chi.NewRouter()
	root.Handle("/api/ws", rewrite("/api/ws", "/ws", rp))
	root.Mount("/", h)
	return root, nil
}

func rewrite(prefix, keep string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = keep + strings.TrimPrefix(r.URL.Path, prefix)
		r2.URL.RawPath = ""
		next.ServeHTTP(w, r2)
	})
}
