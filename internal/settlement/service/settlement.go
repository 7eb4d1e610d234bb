// Package service resolve apostas pendentes a partir do resultado da partida.
//
// A liquidação de uma partida roda numa única transação do Ledger Store: cada aposta
// muda de status junto com o crédito correspondente (winnings ou refund). Só apostas
// pending são tocadas, então reprocessar a mesma partida não credita duas vezes.
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

type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

type Service struct {
	store   ledger.Store
	pub     Publisher
	metrics *metrics.Ledger
	log     *zap.Logger
	now     func() time.Time
}

func New(store ledger.Store, pub Publisher, m *metrics.Ledger, log *zap.Logger) *Service {
	return &Service{store: store, pub: pub, metrics: m, log: log, now: time.Now}
}

// Result resume uma liquidação de partida
type Result struct {
	MatchID   string       `json:"match_id"`
	Won       int          `json:"won"`
	Lost      int          `json:"lost"`
	Cancelled int          `json:"cancelled"`
	Skipped   int          `json:"skipped"` // apostas de props que ficam para o admin
	Settled   []ledger.Bet `json:"-"`
}

// SettleMatch resolve as apostas pending de uma partida completed ou cancelled
func (s *Service) SettleMatch(ctx context.Context, matchID string) (*Result, error) {
	res := &Result{MatchID: matchID}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		*res = Result{MatchID: matchID}

		m, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != ledger.MatchCompleted && m.Status != ledger.MatchCancelled {
			return fmt.Errorf("%w: match is %s", ledger.ErrInvalidStateTransition, m.Status)
		}

		pending, err := tx.PendingBetsByMatch(ctx, m.ID)
		if err != nil {
			return err
		}

		for i := range pending {
			b := &pending[i]

			outcome := ledger.BetCancelled
			if m.Status == ledger.MatchCompleted {
				if b.BetType != ledger.BetMatchWinner {
					res.Skipped++
					continue
				}
				outcome = ledger.BetLost
				if b.BetOn == m.Winner {
					outcome = ledger.BetWon
				}
			}

			if err := s.apply(ctx, tx, m, b, outcome); err != nil {
				return fmt.Errorf("bet %s: %w", b.ID, err)
			}
			res.Settled = append(res.Settled, *b)
			switch outcome {
			case ledger.BetWon:
				res.Won++
			case ledger.BetLost:
				res.Lost++
			case ledger.BetCancelled:
				res.Cancelled++
			}
		}
		return nil
	})
	if err != nil {
		stage := "store"
		if !errors.Is(err, ledger.ErrRemoteFailure) {
			stage = "state"
		}
		s.metrics.SettlementError(stage)
		return nil, fmt.Errorf("settle match %s: %w", matchID, err)
	}

	s.log.Info("match settled",
		zap.String("match_id", matchID),
		zap.Int("won", res.Won),
		zap.Int("lost", res.Lost),
		zap.Int("cancelled", res.Cancelled),
		zap.Int("skipped", res.Skipped))
	s.afterCommit(ctx, res.Settled)
	return res, nil
}

// SettleBet resolve manualmente uma aposta pending (usado pelo admin para apostas de props)
func (s *Service) SettleBet(ctx context.Context, actor ledger.Actor, betID string, outcome ledger.BetStatus) (*ledger.Bet, error) {
	if !actor.IsAdmin {
		return nil, ledger.ErrForbidden
	}
	cur, err := s.store.Bet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("settle bet %s: %w", betID, err)
	}

	var settled *ledger.Bet
	err = s.store.InTx(ctx, func(tx ledger.Tx) error {
		// ordem partida -> aposta, a mesma de SettleMatch
		m, err := tx.LockMatch(ctx, cur.MatchID)
		if err != nil {
			return err
		}
		b, err := tx.LockBet(ctx, betID)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, tx, m, b, outcome); err != nil {
			return err
		}
		settled = b
		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrRemoteFailure) {
			s.metrics.SettlementError("store")
		}
		return nil, fmt.Errorf("settle bet %s: %w", betID, err)
	}

	s.log.Info("bet settled",
		zap.String("bet_id", settled.ID),
		zap.String("status", string(settled.Status)),
		zap.String("admin_id", actor.UserID))
	s.afterCommit(ctx, []ledger.Bet{*settled})
	return settled, nil
}

// apply muda o status da aposta e grava o crédito correspondente, se houver
func (s *Service) apply(ctx context.Context, tx ledger.Tx, m *ledger.Match, b *ledger.Bet, outcome ledger.BetStatus) error {
	if err := ledger.CheckBetSettlement(*b, outcome); err != nil {
		return err
	}

	now := s.now()
	b.Status = outcome
	b.SettledAt = &now
	b.PayoutAmount = decimal.Zero

	var credit *ledger.Transaction
	switch outcome {
	case ledger.BetWon:
		b.PayoutAmount = b.PotentialPayout
		credit = &ledger.Transaction{
			Amount:      ledger.CreditedPayout(b.PotentialPayout),
			Category:    ledger.CategoryWinnings,
			Description: fmt.Sprintf("Winnings - %s vs %s", m.TeamA, m.TeamB),
		}
	case ledger.BetCancelled:
		b.PayoutAmount = b.Amount
		credit = &ledger.Transaction{
			Amount:      b.Amount,
			Category:    ledger.CategoryRefund,
			Description: fmt.Sprintf("Refund - %s vs %s", m.TeamA, m.TeamB),
		}
	case ledger.BetLost:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ledger.ErrInvalidStateTransition, outcome)
	}

	if err := tx.UpdateBetOutcome(ctx, b); err != nil {
		return err
	}
	if credit == nil || !credit.Amount.IsPositive() {
		return nil
	}
	credit.UserID = b.UserID
	credit.WalletID = b.WalletID
	credit.Type = ledger.Credit
	credit.Status = ledger.TransactionCompleted
	credit.BetID = b.ID
	_, err := tx.ApplyTransaction(ctx, credit)
	return err
}

func (s *Service) afterCommit(ctx context.Context, bets []ledger.Bet) {
	for _, b := range bets {
		s.metrics.BetSettled(string(b.Status))
	}
	if s.pub == nil || len(bets) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for _, b := range bets {
		e := events.BetSettled{
			BetID:   b.ID,
			UserID:  b.UserID,
			MatchID: b.MatchID,
			Status:  string(b.Status),
			Payout:  b.PayoutAmount,
		}
		if b.SettledAt != nil {
			e.SettledAt = *b.SettledAt
		}
		if err := s.pub.PublishBetSettled(ctx, e); err != nil {
			s.metrics.PublishError("bet_settled")
			s.log.Warn("publish bet_settled", zap.String("bet_id", b.ID), zap.Error(err))
		}
	}
}
