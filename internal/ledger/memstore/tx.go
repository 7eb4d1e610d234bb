package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

// tx opera sobre a cópia do estado criada por InTx
type tx struct {
	store *Store
	st    *state
}

func (t *tx) CreateWallet(_ context.Context, w *ledger.Wallet) error {
	if err := t.store.fail("create wallet"); err != nil {
		return err
	}
	if _, err := t.st.walletByUser(w.UserID); err == nil {
		return fmt.Errorf("%w: wallet already exists for user", ledger.ErrConflict)
	}
	if w.ID == "" {
		w.ID = newID()
	}
	now := t.store.now()
	w.CreatedAt, w.UpdatedAt = now, now
	t.st.wallets[w.ID] = *w
	return nil
}

func (t *tx) LockWalletByUser(_ context.Context, userID string) (*ledger.Wallet, error) {
	return t.st.walletByUser(userID)
}

func (t *tx) LockWallet(_ context.Context, walletID string) (*ledger.Wallet, error) {
	w, ok := t.st.wallets[walletID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &w, nil
}

func (t *tx) ApplyTransaction(_ context.Context, tr *ledger.Transaction) (decimal.Decimal, error) {
	if err := t.store.fail("apply transaction"); err != nil {
		return decimal.Zero, err
	}
	w, ok := t.st.wallets[tr.WalletID]
	if !ok {
		return decimal.Zero, ledger.ErrNotFound
	}
	if !tr.Amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	next := w.Balance
	if tr.Status == ledger.TransactionCompleted {
		next = w.Balance.Add(tr.Signed())
	}
	if next.IsNegative() {
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	if tr.ID == "" {
		tr.ID = newID()
	}
	now := t.store.now()
	tr.CreatedAt = now
	t.st.transactions = append(t.st.transactions, *tr)
	w.Balance = next
	w.UpdatedAt = now
	t.st.wallets[w.ID] = w
	return next, nil
}

func (t *tx) UpsertProfile(_ context.Context, p *ledger.Profile) error {
	now := t.store.now()
	if cur, ok := t.st.profiles[p.ID]; ok {
		p.CreatedAt = cur.CreatedAt
		p.IsAdmin = cur.IsAdmin || p.IsAdmin
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	t.st.profiles[p.ID] = *p
	return nil
}

func (t *tx) InsertBet(_ context.Context, b *ledger.Bet) error {
	if err := t.store.fail("insert bet"); err != nil {
		return err
	}
	if b.RequestID != "" {
		if _, err := t.BetByRequestID(context.Background(), b.WalletID, b.RequestID); err == nil {
			return fmt.Errorf("%w: duplicate request id", ledger.ErrConflict)
		}
	}
	if b.ID == "" {
		b.ID = newID()
	}
	now := t.store.now()
	b.CreatedAt, b.UpdatedAt = now, now
	t.st.bets[b.ID] = *b
	return nil
}

func (t *tx) BetByRequestID(_ context.Context, walletID, requestID string) (*ledger.Bet, error) {
	for _, b := range t.st.bets {
		if b.WalletID == walletID && b.RequestID == requestID {
			return &b, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (t *tx) LockBet(_ context.Context, betID string) (*ledger.Bet, error) {
	b, ok := t.st.bets[betID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &b, nil
}

func (t *tx) PendingBetsByMatch(_ context.Context, matchID string) ([]ledger.Bet, error) {
	var out []ledger.Bet
	for _, b := range t.st.bets {
		if b.MatchID == matchID && b.Status == ledger.BetPending {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) UpdateBetOutcome(_ context.Context, b *ledger.Bet) error {
	if _, ok := t.st.bets[b.ID]; !ok {
		return ledger.ErrNotFound
	}
	b.UpdatedAt = t.store.now()
	t.st.bets[b.ID] = *b
	return nil
}

func (t *tx) InsertWithdrawal(_ context.Context, w *ledger.WithdrawalRequest) error {
	if err := t.store.fail("insert withdrawal"); err != nil {
		return err
	}
	if w.ID == "" {
		w.ID = newID()
	}
	w.RequestedAt = t.store.now()
	t.st.withdrawals[w.ID] = *w
	return nil
}

func (t *tx) LockWithdrawal(_ context.Context, id string) (*ledger.WithdrawalRequest, error) {
	w, ok := t.st.withdrawals[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &w, nil
}

func (t *tx) UpdateWithdrawal(_ context.Context, w *ledger.WithdrawalRequest) error {
	if err := t.store.fail("update withdrawal"); err != nil {
		return err
	}
	if _, ok := t.st.withdrawals[w.ID]; !ok {
		return ledger.ErrNotFound
	}
	t.st.withdrawals[w.ID] = *w
	return nil
}

func (t *tx) PendingWithdrawalTotal(_ context.Context, walletID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, w := range t.st.withdrawals {
		if w.WalletID == walletID && w.Status == ledger.WithdrawalPending {
			sum = sum.Add(w.Amount)
		}
	}
	return sum, nil
}

func (t *tx) InsertMatch(_ context.Context, m *ledger.Match) error {
	if m.ID == "" {
		m.ID = newID()
	}
	now := t.store.now()
	m.CreatedAt, m.UpdatedAt = now, now
	t.st.matches[m.ID] = *m
	return nil
}

func (t *tx) LockMatch(_ context.Context, id string) (*ledger.Match, error) {
	m, ok := t.st.matches[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &m, nil
}

func (t *tx) UpdateMatch(_ context.Context, m *ledger.Match) error {
	if _, ok := t.st.matches[m.ID]; !ok {
		return ledger.ErrNotFound
	}
	m.UpdatedAt = t.store.now()
	t.st.matches[m.ID] = *m
	return nil
}

func (t *tx) ActiveOdds(_ context.Context, matchID string) (*ledger.BettingOdds, error) {
	o := t.st.activeOdds(matchID)
	if o == nil {
		return nil, ledger.ErrNotFound
	}
	return o, nil
}

func (t *tx) ReplaceOdds(ctx context.Context, o *ledger.BettingOdds) error {
	if err := t.DeactivateOdds(ctx, o.MatchID); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = newID()
	}
	now := t.store.now()
	o.IsActive = true
	o.CreatedAt, o.UpdatedAt = now, now
	t.st.odds = append(t.st.odds, *o)
	return nil
}

func (t *tx) DeactivateOdds(_ context.Context, matchID string) error {
	now := t.store.now()
	for i := range t.st.odds {
		if t.st.odds[i].MatchID == matchID && t.st.odds[i].IsActive {
			t.st.odds[i].IsActive = false
			t.st.odds[i].UpdatedAt = now
		}
	}
	return nil
}
