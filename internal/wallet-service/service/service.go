// Package service implementa as operações da carteira do próprio usuário:
// leitura do saldo, provisionamento, depósito, extrato, pedidos de saque e perfil.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/metrics"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

const (
	DefaultTransactionsLimit = 10
	MaxTransactionsLimit     = 100
)

// Publisher publica eventos de saque; falhas não desfazem o ledger
type Publisher interface {
	PublishWithdrawal(ctx context.Context, e events.WithdrawalEvent) error
}

type Service struct {
	store   ledger.Store
	pub     Publisher
	metrics *metrics.Ledger
	log     *zap.Logger
}

func New(store ledger.Store, pub Publisher, m *metrics.Ledger, log *zap.Logger) *Service {
	return &Service{store: store, pub: pub, metrics: m, log: log}
}

// Wallet devolve a carteira do ator. Carteira inexistente é ErrNotFound, nunca saldo zero.
func (s *Service) Wallet(ctx context.Context, actor ledger.Actor) (*ledger.Wallet, error) {
	w, err := s.store.WalletByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// Provision cria a carteira do ator uma única vez; chamadas seguintes devolvem a existente
func (s *Service) Provision(ctx context.Context, actor ledger.Actor) (w *ledger.Wallet, created bool, err error) {
	// perfil mínimo só quando ainda não existe, para não apagar nome/telefone já gravados
	needsProfile := false
	if _, perr := s.store.Profile(ctx, actor.UserID); errors.Is(perr, ledger.ErrNotFound) {
		needsProfile = actor.Email != ""
	} else if perr != nil {
		return nil, false, fmt.Errorf("load profile: %w", perr)
	}

	err = s.store.InTx(ctx, func(tx ledger.Tx) error {
		existing, err := tx.LockWalletByUser(ctx, actor.UserID)
		if err == nil {
			w = existing
			return nil
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return err
		}

		if needsProfile {
			if err := tx.UpsertProfile(ctx, &ledger.Profile{ID: actor.UserID, Email: actor.Email}); err != nil {
				return err
			}
		}
		w = &ledger.Wallet{UserID: actor.UserID, Balance: decimal.Zero}
		created = true
		return tx.CreateWallet(ctx, w)
	})
	if err != nil {
		return nil, false, fmt.Errorf("provision wallet: %w", err)
	}
	if created {
		s.log.Info("wallet provisioned", zap.String("user_id", actor.UserID), zap.String("wallet_id", w.ID))
	}
	return w, created, nil
}

// Deposit credita o valor na carteira (categoria deposit). O gateway de pagamento fica fora;
// gatewayRef só é gravado como referência.
func (s *Service) Deposit(ctx context.Context, actor ledger.Actor, amount decimal.Decimal, gatewayRef string) (*ledger.Wallet, *ledger.Transaction, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, nil, err
	}

	var (
		w  *ledger.Wallet
		tr *ledger.Transaction
	)
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		locked, err := tx.LockWalletByUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		tr = &ledger.Transaction{
			UserID:           actor.UserID,
			WalletID:         locked.ID,
			Type:             ledger.Credit,
			Amount:           amount,
			Category:         ledger.CategoryDeposit,
			Status:           ledger.TransactionCompleted,
			Description:      "Deposit",
			PaymentGatewayID: gatewayRef,
		}
		balance, err := tx.ApplyTransaction(ctx, tr)
		if err != nil {
			return err
		}
		locked.Balance = balance
		w = locked
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}

	s.metrics.Deposit()
	s.log.Info("deposit credited",
		zap.String("user_id", actor.UserID),
		zap.String("wallet_id", w.ID),
		zap.String("amount", amount.StringFixed(2)))
	return w, tr, nil
}

// ClampLimit aplica o default (10) e o teto (100) do extrato
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTransactionsLimit
	case limit > MaxTransactionsLimit:
		return MaxTransactionsLimit
	}
	return limit
}

// Transactions devolve o extrato mais recente primeiro
func (s *Service) Transactions(ctx context.Context, actor ledger.Actor, limit int) ([]ledger.Transaction, error) {
	txs, err := s.store.TransactionsByUser(ctx, actor.UserID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// RequestWithdrawal cria o pedido pending sem debitar. O valor precisa caber no saldo
// disponível: saldo menos os saques ainda pending da mesma carteira.
func (s *Service) RequestWithdrawal(ctx context.Context, actor ledger.Actor, amount decimal.Decimal, bankDetails json.RawMessage) (*ledger.WithdrawalRequest, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if len(bankDetails) > 0 && !json.Valid(bankDetails) {
		return nil, fmt.Errorf("%w: bank_details must be valid JSON", ledger.ErrInvalidInput)
	}

	var req *ledger.WithdrawalRequest
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		w, err := tx.LockWalletByUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		pending, err := tx.PendingWithdrawalTotal(ctx, w.ID)
		if err != nil {
			return err
		}
		if available := w.Balance.Sub(pending); amount.GreaterThan(available) {
			return fmt.Errorf("%w: requested %s, available %s", ledger.ErrInsufficientFunds,
				amount.StringFixed(2), available.StringFixed(2))
		}

		req = &ledger.WithdrawalRequest{
			UserID:      actor.UserID,
			WalletID:    w.ID,
			Amount:      amount,
			Status:      ledger.WithdrawalPending,
			BankDetails: bankDetails,
		}
		return tx.InsertWithdrawal(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}

	s.metrics.WithdrawalRequested()
	s.log.Info("withdrawal requested",
		zap.String("withdrawal_id", req.ID),
		zap.String("user_id", actor.UserID),
		zap.String("amount", amount.StringFixed(2)))
	s.publish(ctx, req)
	return req, nil
}

// Withdrawals lista os pedidos do próprio ator
func (s *Service) Withdrawals(ctx context.Context, actor ledger.Actor) ([]ledger.WithdrawalView, error) {
	out, err := s.store.Withdrawals(ctx, ledger.WithdrawalFilter{UserID: actor.UserID})
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return out, nil
}

type ProfileInput struct {
	FullName string
	Phone    string
	Country  string
}

// UpdateProfile grava os dados cadastrais; is_admin nunca é alterado por aqui
func (s *Service) UpdateProfile(ctx context.Context, actor ledger.Actor, in ProfileInput) (*ledger.Profile, error) {
	email := actor.Email
	if email == "" {
		cur, err := s.store.Profile(ctx, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		email = cur.Email
	}

	p := &ledger.Profile{ID: actor.UserID, Email: email, FullName: in.FullName, Phone: in.Phone, Country: in.Country}
	if err := s.store.InTx(ctx, func(tx ledger.Tx) error { return tx.UpsertProfile(ctx, p) }); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *Service) publish(ctx context.Context, w *ledger.WithdrawalRequest) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := s.pub.PublishWithdrawal(ctx, events.WithdrawalEvent{
		WithdrawalID: w.ID,
		UserID:       w.UserID,
		WalletID:     w.WalletID,
		Amount:       w.Amount,
		Status:       string(w.Status),
		Ts:           w.RequestedAt,
	})
	if err != nil {
		s.metrics.PublishError("withdrawal_events")
		s.log.Warn("publish withdrawal event", zap.String("withdrawal_id", w.ID), zap.Error(err))
	}
}
