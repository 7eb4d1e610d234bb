package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
	"github.com/radieske/esports-bet-ledger/internal/wallet-service/dto"
	"github.com/radieske/esports-bet-ledger/internal/wallet-service/service"
)

// WalletService define as operações de carteira usadas pelo handler HTTP
type WalletService interface {
	Wallet(ctx context.Context, actor ledger.Actor) (*ledger.Wallet, error)
	Provision(ctx context.Context, actor ledger.Actor) (*ledger.Wallet, bool, error)
	Deposit(ctx context.Context, actor ledger.Actor, amount decimal.Decimal, gatewayRef string) (*ledger.Wallet, *ledger.Transaction, error)
	Transactions(ctx context.Context, actor ledger.Actor, limit int) ([]ledger.Transaction, error)
	RequestWithdrawal(ctx context.Context, actor ledger.Actor, amount decimal.Decimal, bankDetails json.RawMessage) (*ledger.WithdrawalRequest, error)
	Withdrawals(ctx context.Context, actor ledger.Actor) ([]ledger.WithdrawalView, error)
	UpdateProfile(ctx context.Context, actor ledger.Actor, in service.ProfileInput) (*ledger.Profile, error)
}

// Server expõe endpoints HTTP da carteira do usuário autenticado
type Server struct {
	log  *zap.Logger
	svc  WalletService
	auth *middleware.Auth
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, svc WalletService, auth *middleware.Auth) *Server {
	return &Server{log: log, svc: svc, auth: auth}
}

// Router retorna o chi.Router com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	r := middleware.NewRouter(s.log)
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Authenticate)

		r.Get("/wallet", s.getWallet)
		r.Post("/wallet", s.provision)
		r.Post("/wallet/deposit", s.deposit)
		r.Get("/wallet/transactions", s.transactions)

		r.Post("/withdrawals", s.requestWithdrawal)
		r.Get("/withdrawals", s.listWithdrawals)

		r.Put("/profile", s.updateProfile)
	})
	return r
}

func actor(r *http.Request) ledger.Actor {
	a, _ := middleware.ActorFrom(r.Context())
	return a
}

// getWallet retorna a carteira e saldo do usuário; 404 quando ainda não provisionada
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.svc.Wallet(r.Context(), actor(r))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, dto.NewWalletResponse(wallet))
}

func (s *Server) provision(w http.ResponseWriter, r *http.Request) {
	wallet, created, err := s.svc.Provision(r.Context(), actor(r))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, status, dto.NewWalletResponse(wallet))
}

// deposit adiciona saldo à carteira do usuário
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	amount, err := ledger.ParseAmountJSON(req.Amount)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	wallet, tr, err := s.svc.Deposit(r.Context(), actor(r), amount, req.PaymentGatewayID)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, dto.DepositResponse{Wallet: dto.NewWalletResponse(wallet), TransactionID: tr.ID})
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(w, s.log, respond.ErrBadRequest)
			return
		}
		limit = n
	}
	txs, err := s.svc.Transactions(r.Context(), actor(r), limit)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	respond.WriteJSON(w, http.StatusOK, dto.TransactionsResponse{Transactions: txs})
}

func (s *Server) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawalRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	amount, err := ledger.ParseAmountJSON(req.Amount)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	wr, err := s.svc.RequestWithdrawal(r.Context(), actor(r), amount, req.BankDetails)
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, wr)
}

func (s *Server) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Withdrawals(r.Context(), actor(r))
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	if list == nil {
		list = []ledger.WithdrawalView{}
	}
	respond.WriteJSON(w, http.StatusOK, dto.WithdrawalsResponse{Withdrawals: list})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, s.log, err)
		return
	}
	p, err := s.svc.UpdateProfile(r.Context(), actor(r), service.ProfileInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Country:  req.Country,
	})
	if err != nil {
		respond.Error(w, s.log, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}
