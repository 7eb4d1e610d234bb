package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/bet-service/dto"
	"github.com/radieske/esports-bet-ledger/internal/bet-service/service"
	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

type BetService interface {
	Place(ctx context.Context, actor ledger.Actor, in service.PlaceInput) (*service.Placement, error)
	Bets(ctx context.Context, actor ledger.Actor, limit int) ([]ledger.BetView, error)
	Bet(ctx context.Context, actor ledger.Actor, betID string) (*ledger.Bet, error)
}

type Server struct {
	log  *zap.Logger
	svc  BetService
	auth *middleware.Auth
}

func NewServer(log *zap.Logger, svc BetService, auth *middleware.Auth) *Server {
	return &Server{log: log, svc: svc, auth: auth}
}

func (s *Server) Router() http.Handler {
	r := middleware.NewRouter(s.log)
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Authenticate)
		r.Post("/bets", s.placeBet)
		r.Get("/bets", s.listBets)
		r.With(middleware.UUIDParam("id")).Get("/bets/{id}", s.getBet)
	})
	return r
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	amount, err := ledger.ParseAmountJSON(req.Amount)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	odds, err := parseOdds(req.Odds)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	betType := ledger.BetType(req.BetType)
	if betType == "" {
		betType = ledger.BetMatchWinner
	}

	a, _ := middleware.ActorFrom(r.Context())
	p, err := s.svc.Place(r.Context(), a, service.PlaceInput{
		MatchID:   req.MatchID,
		Selection: ledger.Selection(req.Selection),
		BetType:   betType,
		Odds:      odds,
		Amount:    amount,
		RequestID: req.RequestID,
	})
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}

	status := http.StatusCreated
	if p.Replayed {
		status = http.StatusOK
	}
	respond.WriteJSON(w, status, dto.PlaceBetResponse{
		Bet:        p.Bet,
		NewBalance: p.Balance.StringFixed(2),
		Replayed:   p.Replayed,
	})
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(w, s.log, respond.ErrBadRequest)
			return
		}
		limit = n
	}
	a, _ := middleware.ActorFrom(r.Context())
	bets, err := s.svc.Bets(r.Context(), a, limit)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	if bets == nil {
		bets = []ledger.BetView{}
	}
	respond.WriteJSON(w, http.StatusOK, dto.BetsResponse{Bets: bets})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.ActorFrom(r.Context())
	b, err := s.svc.Bet(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, b)
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
