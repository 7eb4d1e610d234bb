// Package service implementa a colocação de apostas.
//
// A sequência ler saldo -> validar -> gravar aposta -> gravar débito roda numa única
// transação do Ledger Store, com a carteira travada; duas apostas concorrentes da mesma
// carteira são linearizadas e nunca deixam o saldo negativo.
package service

import (
	"context"
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
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// Publisher publica bet_placed depois do commit
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
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

// PlaceInput é o pedido de aposta; Odds é a odd exibida ao usuário no momento da seleção
type PlaceInput struct {
	MatchID   string
	Selection ledger.Selection
	BetType   ledger.BetType
	Odds      decimal.Decimal
	Amount    decimal.Decimal
	RequestID string // chave de idempotência opcional, única por carteira
}

// Placement é o resultado; Replayed indica que RequestID já tinha sido usado e nada foi debitado
type Placement struct {
	Bet      *ledger.Bet
	Balance  decimal.Decimal
	Replayed bool
}

func (in PlaceInput) validate() error {
	if err := ledger.ValidateAmount(in.Amount); err != nil {
		return err
	}
	if err := ledger.ValidateOdds(in.Odds); err != nil {
		return err
	}
	if !in.Selection.Valid() {
		return fmt.Errorf("%w: unknown selection %q", ledger.ErrInvalidSelection, in.Selection)
	}
	if !in.BetType.Valid() {
		return fmt.Errorf("%w: unknown bet type %q", ledger.ErrInvalidSelection, in.BetType)
	}
	if err := ledger.ValidatePayout(in.Amount, in.Odds); err != nil {
		return err
	}
	if in.MatchID == "" {
		return fmt.Errorf("%w: match_id required", ledger.ErrNotFound)
	}
	return nil
}

// Place valida e registra a aposta e o débito correspondente de forma atômica
func (s *Service) Place(ctx context.Context, actor ledger.Actor, in PlaceInput) (*Placement, error) {
	if err := in.validate(); err != nil {
		s.metrics.BetRejected(reason(err))
		return nil, err
	}

	var out Placement
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		// ordem de lock partida -> carteira, a mesma da liquidação
		m, err := tx.LockMatch(ctx, in.MatchID)
		if err != nil {
			return fmt.Errorf("match: %w", err)
		}
		w, err := tx.LockWalletByUser(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("wallet: %w", err)
		}

		if in.RequestID != "" {
			prev, err := tx.BetByRequestID(ctx, w.ID, in.RequestID)
			switch {
			case err == nil:
				if !samePlacement(prev, in) {
					return fmt.Errorf("%w: request_id %q already used for a different bet", ledger.ErrConflict, in.RequestID)
				}
				out = Placement{Bet: prev, Balance: w.Balance, Replayed: true}
				return nil
			case !errors.Is(err, ledger.ErrNotFound):
				return err
			}
		}

		if !m.Status.Open() {
			return fmt.Errorf("%w: match is %s", ledger.ErrMatchClosed, m.Status)
		}

		odds, err := tx.ActiveOdds(ctx, m.ID)
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.ErrOddsInactive
		}
		if err != nil {
			return err
		}
		current, err := ledger.OfferedOdds(*odds, in.BetType, in.Selection)
		if err != nil {
			return err
		}
		if !current.Equal(in.Odds) {
			return &ledger.OddsChangedError{Current: current}
		}

		if w.Balance.LessThan(in.Amount) {
			return fmt.Errorf("%w: balance %s, stake %s", ledger.ErrInsufficientFunds,
				w.Balance.StringFixed(2), in.Amount.StringFixed(2))
		}

		bet := &ledger.Bet{
			UserID:          actor.UserID,
			MatchID:         m.ID,
			WalletID:        w.ID,
			BetOn:           in.Selection,
			BetType:         in.BetType,
			Amount:          in.Amount,
			Odds:            in.Odds,
			PotentialPayout: ledger.PotentialPayout(in.Amount, in.Odds),
			PayoutAmount:    decimal.Zero,
			Status:          ledger.BetPending,
			RequestID:       in.RequestID,
		}
		if err := tx.InsertBet(ctx, bet); err != nil {
			return err
		}

		balance, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
			UserID:      actor.UserID,
			WalletID:    w.ID,
			Type:        ledger.Debit,
			Amount:      in.Amount,
			Category:    ledger.CategoryBetting,
			Status:      ledger.TransactionCompleted,
			Description: fmt.Sprintf("%s bet - %s vs %s", in.BetType.Label(), m.TeamA, m.TeamB),
			BetID:       bet.ID,
		})
		if err != nil {
			return err
		}

		out = Placement{Bet: bet, Balance: balance}
		return nil
	})
	if err != nil {
		s.metrics.BetRejected(reason(err))
		if errors.Is(err, ledger.ErrRemoteFailure) {
			s.log.Error("place bet", zap.String("user_id", actor.UserID), zap.Error(err))
		} else {
			s.log.Debug("bet rejected", zap.String("user_id", actor.UserID), zap.String("reason", reason(err)), zap.Error(err))
		}
		return nil, fmt.Errorf("place bet: %w", err)
	}

	if out.Replayed {
		s.log.Info("bet replayed", zap.String("bet_id", out.Bet.ID), zap.String("request_id", in.RequestID))
		return &out, nil
	}

	s.metrics.BetPlaced()
	s.log.Info("bet placed",
		zap.String("bet_id", out.Bet.ID),
		zap.String("user_id", actor.UserID),
		zap.String("match_id", in.MatchID),
		zap.String("amount", in.Amount.StringFixed(2)),
		zap.String("odds", in.Odds.StringFixed(2)))
	s.publish(ctx, out.Bet)
	return &out, nil
}

func samePlacement(b *ledger.Bet, in PlaceInput) bool {
	return b.MatchID == in.MatchID && b.BetOn == in.Selection && b.BetType == in.BetType &&
		b.Amount.Equal(in.Amount) && b.Odds.Equal(in.Odds)
}

// Bets devolve o histórico do usuário, mais recentes primeiro
func (s *Service) Bets(ctx context.Context, actor ledger.Actor, limit int) ([]ledger.BetView, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	out, err := s.store.BetsByUser(ctx, actor.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	return out, nil
}

// Bet devolve uma aposta do próprio usuário; apostas de terceiros aparecem como inexistentes
func (s *Service) Bet(ctx context.Context, actor ledger.Actor, betID string) (*ledger.Bet, error) {
	b, err := s.store.Bet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("get bet: %w", err)
	}
	if b.UserID != actor.UserID && !actor.IsAdmin {
		return nil, fmt.Errorf("get bet: %w", ledger.ErrNotFound)
	}
	return b, nil
}

func (s *Service) publish(ctx context.Context, b *ledger.Bet) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := s.pub.PublishBetPlaced(ctx, events.BetPlaced{
		BetID:           b.ID,
		UserID:          b.UserID,
		WalletID:        b.WalletID,
		MatchID:         b.MatchID,
		BetType:         string(b.BetType),
		Selection:       string(b.BetOn),
		Amount:          b.Amount,
		Odds:            b.Odds,
		PotentialPayout: b.PotentialPayout,
	})
	if err != nil {
		s.metrics.PublishError("bet_placed")
		s.log.Warn("publish bet_placed", zap.String("bet_id", b.ID), zap.Error(err))
	}
}

// reason é o rótulo do contador ledger_bets_rejected_total
func reason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrInvalidOdds):
		return "invalid_odds"
	case errors.Is(err, ledger.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrMatchClosed):
		return "match_closed"
	case errors.Is(err, ledger.ErrOddsInactive):
		return "odds_inactive"
	case errors.Is(err, ledger.ErrOddsChanged):
		return "odds_changed"
	case errors.Is(err, ledger.ErrConflict):
		return "conflict"
	case errors.Is(err, ledger.ErrRemoteFailure):
		return "remote_failure"
	}
	return "other"
}
