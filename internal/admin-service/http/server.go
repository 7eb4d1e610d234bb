package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/admin-service/dto"
	"github.com/radieske/esports-bet-ledger/internal/admin-service/service"
	"github.com/radieske/esports-bet-ledger/internal/ledger"
	settlement "github.com/radieske/esports-bet-ledger/internal/settlement/service"
	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

type AdminService interface {
	Withdrawals(ctx context.Context, actor ledger.Actor, status ledger.WithdrawalStatus) ([]ledger.WithdrawalView, error)
	Approve(ctx context.Context, actor ledger.Actor, id, notes string) (*ledger.WithdrawalRequest, error)
	Reject(ctx context.Context, actor ledger.Actor, id, notes string) (*ledger.WithdrawalRequest, error)
	Process(ctx context.Context, actor ledger.Actor, id, notes string) (*ledger.WithdrawalRequest, error)

	CreateMatch(ctx context.Context, actor ledger.Actor, in service.MatchInput) (*ledger.Match, error)
	UpdateMatch(ctx context.Context, actor ledger.Actor, id string, p service.MatchPatch) (*ledger.Match, error)
	SetOdds(ctx context.Context, actor ledger.Actor, matchID string, in service.OddsInput) (*ledger.BettingOdds, error)
	CloseOdds(ctx context.Context, actor ledger.Actor, matchID string) error

	SettleMatch(ctx context.Context, actor ledger.Actor, matchID string) (*settlement.Result, error)
	SettleBet(ctx context.Context, actor ledger.Actor, betID string, outcome ledger.BetStatus) (*ledger.Bet, error)

	CountryStats(ctx context.Context, actor ledger.Actor) ([]ledger.CountryEarnings, error)
	Reconcile(ctx context.Context, actor ledger.Actor, walletID string) (*service.Reconciliation, error)
	Overview(ctx context.Context, actor ledger.Actor) (*service.Overview, error)
}

type Server struct {
	log  *zap.Logger
	svc  AdminService
	auth *middleware.Auth
}

func NewServer(log *zap.Logger, svc AdminService, auth *middleware.Auth) *Server {
	return &Server{log: log, svc: svc, auth: auth}
}

// Router exige token válido e perfil admin em todas as rotas
func (s *Server) Router() http.Handler {
	r := middleware.NewRouter(s.log)
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.auth.Authenticate, middleware.RequireAdmin)

		id := middleware.UUIDParam("id")

		r.Get("/withdrawals", s.listWithdrawals)
		r.With(id).Post("/withdrawals/{id}/approve", s.adjudicate(s.svc.Approve))
		r.With(id).Post("/withdrawals/{id}/reject", s.adjudicate(s.svc.Reject))
		r.With(id).Post("/withdrawals/{id}/process", s.adjudicate(s.svc.Process))

		r.Post("/matches", s.createMatch)
		r.With(id).Put("/matches/{id}", s.updateMatch)
		r.With(id).Put("/matches/{id}/odds", s.setOdds)
		r.With(id).Delete("/matches/{id}/odds", s.closeOdds)
		r.With(id).Post("/matches/{id}/settle", s.settleMatch)
		r.With(id).Post("/bets/{id}/settle", s.settleBet)

		r.Get("/stats/countries", s.countries)
		r.With(id).Get("/wallets/{id}/reconcile", s.reconcile)
		r.Get("/overview", s.overview)
	})
	return r
}

func actor(r *http.Request) ledger.Actor {
	a, _ := middleware.ActorFrom(r.Context())
	return a
}

func (s *Server) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := ledger.WithdrawalStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respond.Error(w, s.log, respond.ErrBadRequest)
		return
	}
	list, err := s.svc.Withdrawals(r.Context(), actor(r), status)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	if list == nil {
		list = []ledger.WithdrawalView{}
	}
	respond.WriteJSON(w, http.StatusOK, dto.WithdrawalsResponse{Withdrawals: list})
}

type adjudicateFunc func(ctx context.Context, actor ledger.Actor, id, notes string) (*ledger.WithdrawalRequest, error)

// adjudicate aceita corpo vazio (sem notas)
func (s *Server) adjudicate(fn adjudicateFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.NotesRequest
		if r.ContentLength != 0 {
			if err := respond.Decode(r, &req); err != nil {
				respond.Error(w, s.log, err)
				return
			}
		}
		out, err := fn(r.Context(), actor(r), chi.URLParam(r, "id"), strings.TrimSpace(req.Notes))
		if err != nil {
			respond.Error(w, s.log, err)
			return
		}
		respond.WriteJSON(w, http.StatusOK, out)
	}
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMatchRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	m, err := s.svc.CreateMatch(r.Context(), actor(r), service.MatchInput{
		TeamA:        req.TeamA,
		TeamB:        req.TeamB,
		TeamALogo:    req.TeamALogo,
		TeamBLogo:    req.TeamBLogo,
		MatchTime:    req.MatchTime,
		TournamentID: req.TournamentID,
	})
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMatchRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	p := service.MatchPatch{MatchTime: req.MatchTime, TeamALogo: req.TeamALogo, TeamBLogo: req.TeamBLogo}
	if req.Status != nil {
		st := ledger.MatchStatus(*req.Status)
		p.Status = &st
	}
	if req.Winner != nil {
		win := ledger.Selection(*req.Winner)
		p.Winner = &win
	}
	m, err := s.svc.UpdateMatch(r.Context(), actor(r), chi.URLParam(r, "id"), p)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

func (s *Server) setOdds(w http.ResponseWriter, r *http.Request) {
	var req dto.OddsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	in := service.OddsInput{}
	var err error
	if in.TeamA, err = parseOdds(req.TeamAOdds); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	if in.TeamB, err = parseOdds(req.TeamBOdds); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	if raw := bytes.TrimSpace(req.DrawOdds); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		d, err := parseOdds(raw)
		if err != nil {
			respond.Error(w, s.log, err)
			return
		}
		in.Draw = decimal.NewNullDecimal(d)
	}

	o, err := s.svc.SetOdds(r.Context(), actor(r), chi.URLParam(r, "id"), in)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) closeOdds(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CloseOdds(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) settleMatch(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.SettleMatch(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) settleBet(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleBetRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	b, err := s.svc.SettleBet(r.Context(), actor(r), chi.URLParam(r, "id"), ledger.BetStatus(req.Outcome))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) countries(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.CountryStats(r.Context(), actor(r))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	if rows == nil {
		rows = []ledger.CountryEarnings{}
	}
	respond.WriteJSON(w, http.StatusOK, dto.CountriesResponse{Countries: rows})
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Reconcile(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.svc.Overview(r.Context(), actor(r))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, ov)
}

// parseOdds aceita número ou string JSON
func parseOdds(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ledger.ErrInvalidOdds
	}
	return d, nil
}
