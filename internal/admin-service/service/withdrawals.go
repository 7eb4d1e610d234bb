package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

const DefaultRejectNotes = "Rejected by admin"

// Withdrawals lista a fila de saques, mais recentes primeiro; status vazio lista todos
func (s *Service) Withdrawals(ctx context.Context, actor ledger.Actor, status ledger.WithdrawalStatus) ([]ledger.WithdrawalView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.store.Withdrawals(ctx, ledger.WithdrawalFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return out, nil
}

// Approve debita a carteira e marca o saque como approved.
// Saldo insuficiente aborta tudo e o pedido continua pending.
func (s *Service) Approve(ctx context.Context, actor ledger.Actor, id, notes string) (*ledger.WithdrawalRequest, error) {
	return s.adjudicate(ctx, actor, id, ledger.WithdrawalApproved, notes)
}

func (s *Service) Reject(ctx context.Context, actor ledger.Actor, id, notes string) (*ledger.WithdrawalRequest, error) {
	if notes == "" {
		notes = DefaultRejectNotes
	}
	return s.adjudicate(ctx, actor, id, ledger.WithdrawalRejected, notes)
}

// Process marca como processed um saque já aprovado (pagamento enviado)
func (s *Service) Process(ctx context.Context, actor ledger.Actor, id, notes string) (*ledger.WithdrawalRequest, error) {
	return s.adjudicate(ctx, actor, id, ledger.WithdrawalProcessed, notes)
}

func (s *Service) adjudicate(ctx context.Context, actor ledger.Actor, id string, to ledger.WithdrawalStatus, notes string) (*ledger.WithdrawalRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var out *ledger.WithdrawalRequest
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		w, err := tx.LockWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		if err := ledger.CheckWithdrawalTransition(w.Status, to); err != nil {
			return err
		}

		if to == ledger.WithdrawalApproved {
			if _, err := tx.LockWallet(ctx, w.WalletID); err != nil {
				return fmt.Errorf("wallet: %w", err)
			}
			debit := &ledger.Transaction{
				UserID:       w.UserID,
				WalletID:     w.WalletID,
				Type:         ledger.Debit,
				Amount:       w.Amount,
				Category:     ledger.CategoryWithdrawal,
				Status:       ledger.TransactionCompleted,
				Description:  "Withdrawal",
				WithdrawalID: w.ID,
			}
			if _, err := tx.ApplyTransaction(ctx, debit); err != nil {
				return err
			}
			w.TransactionID = debit.ID
		}

		now := s.now()
		w.Status = to
		w.ProcessedAt = &now
		w.ProcessedBy = actor.UserID
		if notes != "" {
			w.AdminNotes = notes
		}
		if err := tx.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrRemoteFailure):
			s.log.Error("adjudicate withdrawal", zap.String("withdrawal_id", id), zap.Error(err))
		default:
			s.log.Info("withdrawal adjudication refused",
				zap.String("withdrawal_id", id), zap.String("to", string(to)), zap.Error(err))
		}
		return nil, fmt.Errorf("%s withdrawal: %w", to, err)
	}

	s.metrics.WithdrawalAdjudicated(string(to))
	s.log.Info("withdrawal adjudicated",
		zap.String("withdrawal_id", out.ID),
		zap.String("status", string(out.Status)),
		zap.String("admin_id", actor.UserID),
		zap.String("amount", out.Amount.StringFixed(2)))

	s.afterCommit(ctx, "withdrawal_events", func(ctx context.Context) error {
		return s.notify.PublishWithdrawal(ctx, events.WithdrawalEvent{
			WithdrawalID: out.ID,
			UserID:       out.UserID,
			WalletID:     out.WalletID,
			Amount:       out.Amount,
			Status:       string(out.Status),
			ProcessedBy:  out.ProcessedBy,
			Ts:           *out.ProcessedAt,
		})
	})
	return out, nil
}
