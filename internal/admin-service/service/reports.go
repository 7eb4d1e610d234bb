package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

func (s *Service) CountryStats(ctx context.Context, actor ledger.Actor) ([]ledger.CountryEarnings, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.store.CountryEarnings(ctx)
	if err != nil {
		return nil, fmt.Errorf("country stats: %w", err)
	}
	return out, nil
}

// Reconciliation compara o saldo gravado com a soma do histórico de transações
type Reconciliation struct {
	WalletID   string          `json:"wallet_id"`
	Stored     decimal.Decimal `json:"stored_balance"`
	Derived    decimal.Decimal `json:"derived_balance"`
	Drift      decimal.Decimal `json:"drift"`
	Consistent bool            `json:"consistent"`
}

func (s *Service) Reconcile(ctx context.Context, actor ledger.Actor, walletID string) (*Reconciliation, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	w, err := s.store.WalletByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	derived, err := s.store.LedgerBalance(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	drift := w.Balance.Sub(derived)
	return &Reconciliation{
		WalletID:   w.ID,
		Stored:     w.Balance,
		Derived:    derived,
		Drift:      drift,
		Consistent: drift.IsZero(),
	}, nil
}

// Overview é o painel do admin
type Overview struct {
	PendingWithdrawals      int                      `json:"pending_withdrawals"`
	PendingWithdrawalAmount decimal.Decimal          `json:"pending_withdrawal_amount"`
	Countries               []ledger.CountryEarnings `json:"countries"`
	LiveMatches             []ledger.MatchWithOdds   `json:"live_matches"`
}

// Overview carrega as três leituras em paralelo; a primeira falha cancela as outras
func (s *Service) Overview(ctx context.Context, actor ledger.Actor) (*Overview, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		out     Overview
		pending []ledger.WithdrawalView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.store.Withdrawals(gctx, ledger.WithdrawalFilter{Status: ledger.WithdrawalPending})
		return err
	})
	g.Go(func() error {
		var err error
		out.Countries, err = s.store.CountryEarnings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.LiveMatches, err = s.store.Matches(gctx, ledger.MatchFilter{Status: ledger.MatchLive})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	out.PendingWithdrawals = len(pending)
	out.PendingWithdrawalAmount = decimal.Zero
	for _, w := range pending {
		out.PendingWithdrawalAmount = out.PendingWithdrawalAmount.Add(w.Amount)
	}
	if out.Countries == nil {
		out.Countries = []ledger.CountryEarnings{}
	}
	if out.LiveMatches == nil {
		out.LiveMatches = []ledger.MatchWithOdds{}
	}
	return &out, nil
}
