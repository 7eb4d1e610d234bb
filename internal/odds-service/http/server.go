package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

// Feed é a leitura de partidas com odds ativas (com cache)
type Feed interface {
	Matches(ctx context.Context, status ledger.MatchStatus) ([]ledger.MatchWithOdds, error)
	Match(ctx context.Context, id string) (*ledger.MatchWithOdds, error)
}

// MatchesResponse envelopa a lista do feed
type MatchesResponse struct {
	Matches []ledger.MatchWithOdds `json:"matches"`
}

// API expõe os endpoints REST de consulta de partidas e o WebSocket de atualizações
type API struct {
	Log  *zap.Logger
	Feed Feed
	WS   http.HandlerFunc // opcional; nil desliga /ws
}

// Router retorna o roteador HTTP com os endpoints públicos do feed
func (a *API) Router() http.Handler {
	api := middleware.NewRouter(a.Log)
	api.Get("/v1/matches", a.listMatches) // lista partidas, filtro ?status=
	api.With(middleware.UUIDParam("id")).Get("/v1/matches/{id}", a.getMatch) // partida + odds ativas
	if a.WS == nil {
		return api
	}

	// /ws fica fora do middleware de timeout: a conexão vive além da requisição
	root := chi.NewRouter()
	root.Get("/ws", a.WS)
	root.Mount("/", api)
	return root
}

func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	status := ledger.MatchStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respond.Error(w, a.Log, fmt.Errorf("%w: status must be upcoming, live, completed or cancelled", respond.ErrBadRequest))
		return
	}
	ms, err := a.Feed.Matches(r.Context(), status)
	if err != nil {
		respond.Error(w, a.Log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, MatchesResponse{Matches: ms})
}

func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := a.Feed.Match(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, a.Log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}
