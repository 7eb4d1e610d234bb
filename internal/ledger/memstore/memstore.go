// Package memstore implementa o Ledger Store em memória.
// Um único mutex serializa as transações; as escritas são feitas numa cópia
// do estado e só substituem o estado atual quando fn retorna nil.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

type state struct {
	profiles     map[string]ledger.Profile
	wallets      map[string]ledger.Wallet // id -> wallet
	transactions []ledger.Transaction
	bets         map[string]ledger.Bet
	matches      map[string]ledger.Match
	odds         []ledger.BettingOdds
	withdrawals  map[string]ledger.WithdrawalRequest
}

func newState() *state {
	return &state{
		profiles:    map[string]ledger.Profile{},
		wallets:     map[string]ledger.Wallet{},
		bets:        map[string]ledger.Bet{},
		matches:     map[string]ledger.Match{},
		withdrawals: map[string]ledger.WithdrawalRequest{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	c.transactions = append([]ledger.Transaction(nil), s.transactions...)
	for k, v := range s.bets {
		c.bets[k] = v
	}
	for k, v := range s.matches {
		c.matches[k] = v
	}
	c.odds = append([]ledger.BettingOdds(nil), s.odds...)
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	return c
}

// Store é seguro para uso concorrente
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time

	// FailOn força erro remoto na operação indicada (ex.: "insert bet"); usado em testes de falha parcial
	FailOn string
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// InTx executa fn com exclusão mútua; qualquer erro descarta as escritas
func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return ledger.Remote("begin tx", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := &tx{store: s, st: s.st.clone()}
	if err := fn(work); err != nil {
		return err
	}
	s.st = work.st
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) fail(op string) error {
	if s.FailOn != "" && s.FailOn == op {
		return ledger.Remote(op, fmt.Errorf("injected failure"))
	}
	return nil
}

func (s *Store) WalletByUser(_ context.Context, userID string) (*ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.walletByUser(userID)
}

func (s *Store) WalletByID(_ context.Context, walletID string) (*ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.st.wallets[walletID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &w, nil
}

func (s *Store) LedgerBalance(_ context.Context, walletID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range s.st.transactions {
		if t.WalletID == walletID && t.Status == ledger.TransactionCompleted {
			sum = sum.Add(t.Signed())
		}
	}
	return sum, nil
}

func (s *Store) TransactionsByUser(_ context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.Transaction
	for i := len(s.st.transactions) - 1; i >= 0; i-- {
		t := s.st.transactions[i]
		if t.UserID != userID {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Profile(_ context.Context, userID string) (*ledger.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.st.profiles[userID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &p, nil
}

func (s *Store) Bet(_ context.Context, betID string) (*ledger.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.st.bets[betID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &b, nil
}

func (s *Store) BetsByUser(_ context.Context, userID string, limit int) ([]ledger.BetView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.BetView
	for _, b := range s.st.bets {
		if b.UserID != userID {
			continue
		}
		m := s.st.matches[b.MatchID]
		out = append(out, ledger.BetView{Bet: b, TeamA: m.TeamA, TeamB: m.TeamB})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Withdrawal(_ context.Context, id string) (*ledger.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.st.withdrawals[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &w, nil
}

func (s *Store) Withdrawals(_ context.Context, f ledger.WithdrawalFilter) ([]ledger.WithdrawalView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.WithdrawalView
	for _, w := range s.st.withdrawals {
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if f.UserID != "" && w.UserID != f.UserID {
			continue
		}
		v := ledger.WithdrawalView{WithdrawalRequest: w, FullName: "Unknown User", Email: "No email"}
		if p, ok := s.st.profiles[w.UserID]; ok {
			v.FullName, v.Email = p.FullName, p.Email
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (s *Store) Match(_ context.Context, id string) (*ledger.MatchWithOdds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.st.matches[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &ledger.MatchWithOdds{Match: m, Odds: s.st.activeOdds(id)}, nil
}

func (s *Store) Matches(_ context.Context, f ledger.MatchFilter) ([]ledger.MatchWithOdds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.MatchWithOdds
	for _, m := range s.st.matches {
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		out = append(out, ledger.MatchWithOdds{Match: m, Odds: s.st.activeOdds(m.ID)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchTime.Before(out[j].MatchTime) })
	return out, nil
}

// CountryEarnings replica a view earnings_by_country
func (s *Store) CountryEarnings(_ context.Context) ([]ledger.CountryEarnings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCountry := map[string]*ledger.CountryEarnings{}
	countryOf := map[string]string{}
	for _, p := range s.st.profiles {
		c := p.Country
		if c == "" {
			c = "Unknown"
		}
		countryOf[p.ID] = c
		row, ok := byCountry[c]
		if !ok {
			row = &ledger.CountryEarnings{Country: c}
			byCountry[c] = row
		}
		row.TotalUsers++
	}
	for _, w := range s.st.wallets {
		if row, ok := byCountry[countryOf[w.UserID]]; ok {
			row.CurrentBalance = row.CurrentBalance.Add(w.Balance)
		}
	}
	for _, t := range s.st.transactions {
		row, ok := byCountry[countryOf[t.UserID]]
		if !ok || t.Status != ledger.TransactionCompleted {
			continue
		}
		switch {
		case t.Type == ledger.Credit && t.Category == ledger.CategoryWinnings:
			row.TotalEarnings = row.TotalEarnings.Add(t.Amount)
		case t.Type == ledger.Debit && t.Category == ledger.CategoryWithdrawal:
			row.TotalWithdrawals = row.TotalWithdrawals.Add(t.Amount)
		}
	}

	out := make([]ledger.CountryEarnings, 0, len(byCountry))
	for _, row := range byCountry {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out, nil
}

func (st *state) walletByUser(userID string) (*ledger.Wallet, error) {
	for _, w := range st.wallets {
		if w.UserID == userID {
			return &w, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (st *state) activeOdds(matchID string) *ledger.BettingOdds {
	for i := len(st.odds) - 1; i >= 0; i-- {
		if st.odds[i].MatchID == matchID && st.odds[i].IsActive {
			o := st.odds[i]
			return &o
		}
	}
	return nil
}

func newID() string { return uuid.NewString() }
