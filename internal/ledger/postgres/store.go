// Package postgres implementa o Ledger Store sobre PostgreSQL (database/sql + lib/pq).
// Toda alteração de saldo passa por uma linha de wallets travada com SELECT ... FOR UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/db"
)

// querier é o subconjunto comum a *sql.DB e *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Store struct{ db *sql.DB }

var _ ledger.Store = (*Store)(nil)

func New(db *sql.DB) *Store { return &Store{db: db} }

// InTx abre uma transação; fn roda com os locks de linha e tudo é commitado junto
func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	var domainErr error
	err := db.WithTransaction(ctx, s.db, func(sqlTx *sql.Tx) error {
		if err := fn(&pgTx{q: sqlTx}); err != nil {
			domainErr = err
			return err
		}
		return nil
	})
	if domainErr != nil {
		return domainErr
	}
	return ledger.Remote("commit", mapPQ(err))
}

func (s *Store) Ping(ctx context.Context) error {
	return ledger.Remote("ping", s.db.PingContext(ctx))
}

// mapPQ converte violações de constraint em erros de domínio
func mapPQ(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return errors.Join(ledger.ErrConflict, err)
		case "23514": // check_violation
			if pqErr.Constraint == "wallets_balance_check" {
				return ledger.ErrInsufficientFunds
			}
		case "23503": // foreign_key_violation
			return errors.Join(ledger.ErrNotFound, err)
		case "22P02": // invalid_text_representation: id que não é uuid não existe
			return errors.Join(ledger.ErrNotFound, err)
		}
	}
	return err
}

func wrap(op string, err error) error { return ledger.Remote(op, mapPQ(err)) }

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// scanner cobre *sql.Row e *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// ---------- Reader ----------

const walletCols = `id, user_id, balance, created_at, updated_at`

func scanWallet(sc scanner) (*ledger.Wallet, error) {
	var w ledger.Wallet
	if err := sc.Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) WalletByUser(ctx context.Context, userID string) (*ledger.Wallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx, `SELECT `+walletCols+` FROM wallets WHERE user_id=$1`, userID))
	return w, wrap("wallet by user", err)
}

func (s *Store) WalletByID(ctx context.Context, walletID string) (*ledger.Wallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx, `SELECT `+walletCols+` FROM wallets WHERE id=$1`, walletID))
	return w, wrap("wallet by id", err)
}

func (s *Store) LedgerBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN transaction_type='credit' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE wallet_id=$1 AND status='completed'`, walletID).Scan(&sum)
	return sum, wrap("ledger balance", err)
}

const txCols = `id, user_id, wallet_id, transaction_type, amount, category, status, description,
	payment_gateway_id, bet_id, withdrawal_id, created_at`

func scanTransaction(sc scanner) (ledger.Transaction, error) {
	var (
		t                     ledger.Transaction
		gateway, bet, wdrawal sql.NullString
	)
	err := sc.Scan(&t.ID, &t.UserID, &t.WalletID, &t.Type, &t.Amount, &t.Category, &t.Status, &t.Description,
		&gateway, &bet, &wdrawal, &t.CreatedAt)
	t.PaymentGatewayID, t.BetID, t.WithdrawalID = gateway.String, bet.String, wdrawal.String
	return t, err
}

func (s *Store) TransactionsByUser(ctx context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+txCols+` FROM transactions
		WHERE user_id=$1 ORDER BY created_at DESC, id LIMIT $2`, userID, limit)
	if err != nil {
		return nil, wrap("transactions by user", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, wrap("scan transaction", err)
		}
		out = append(out, t)
	}
	return out, wrap("transactions by user", rows.Err())
}

func (s *Store) Profile(ctx context.Context, userID string) (*ledger.Profile, error) {
	var (
		p                     ledger.Profile
		name, phone, country sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, phone, country, is_admin, created_at, updated_at
		FROM profiles WHERE id=$1`, userID).
		Scan(&p.ID, &p.Email, &name, &phone, &country, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, wrap("profile", err)
	}
	p.FullName, p.Phone, p.Country = name.String, phone.String, country.String
	return &p, nil
}

const betCols = `b.id, b.user_id, b.match_id, b.wallet_id, b.bet_on, b.bet_type, b.amount, b.odds,
	b.potential_payout, b.payout_amount, b.status, b.request_id, b.created_at, b.updated_at, b.settled_at`

func scanBet(sc scanner, extra ...any) (*ledger.Bet, error) {
	var (
		b       ledger.Bet
		reqID   sql.NullString
		settled sql.NullTime
	)
	dest := []any{&b.ID, &b.UserID, &b.MatchID, &b.WalletID, &b.BetOn, &b.BetType, &b.Amount, &b.Odds,
		&b.PotentialPayout, &b.PayoutAmount, &b.Status, &reqID, &b.CreatedAt, &b.UpdatedAt, &settled}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.RequestID = reqID.String
	b.SettledAt = timePtr(settled)
	return &b, nil
}

func (s *Store) Bet(ctx context.Context, betID string) (*ledger.Bet, error) {
	b, err := scanBet(s.db.QueryRowContext(ctx, `SELECT `+betCols+` FROM bets b WHERE b.id=$1`, betID))
	return b, wrap("bet", err)
}

func (s *Store) BetsByUser(ctx context.Context, userID string, limit int) ([]ledger.BetView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+betCols+`, m.team_a, m.team_b
		FROM bets b JOIN matches m ON m.id = b.match_id
		WHERE b.user_id=$1
		ORDER BY b.created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, wrap("bets by user", err)
	}
	defer rows.Close()

	var out []ledger.BetView
	for rows.Next() {
		var v ledger.BetView
		b, err := scanBet(rows, &v.TeamA, &v.TeamB)
		if err != nil {
			return nil, wrap("scan bet", err)
		}
		v.Bet = *b
		out = append(out, v)
	}
	return out, wrap("bets by user", rows.Err())
}

const withdrawalCols = `w.id, w.user_id, w.wallet_id, w.amount, w.status, w.bank_details, w.admin_notes,
	w.transaction_id, w.requested_at, w.processed_at, w.processed_by`

func scanWithdrawal(sc scanner, extra ...any) (*ledger.WithdrawalRequest, error) {
	var (
		w                       ledger.WithdrawalRequest
		bank                    []byte
		notes, txID, processedBy sql.NullString
		processedAt             sql.NullTime
	)
	dest := []any{&w.ID, &w.UserID, &w.WalletID, &w.Amount, &w.Status, &bank, &notes,
		&txID, &w.RequestedAt, &processedAt, &processedBy}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if len(bank) > 0 {
		w.BankDetails = bank
	}
	w.AdminNotes, w.TransactionID, w.ProcessedBy = notes.String, txID.String, processedBy.String
	w.ProcessedAt = timePtr(processedAt)
	return &w, nil
}

func (s *Store) Withdrawal(ctx context.Context, id string) (*ledger.WithdrawalRequest, error) {
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, `SELECT `+withdrawalCols+` FROM withdrawal_requests w WHERE w.id=$1`, id))
	return w, wrap("withdrawal", err)
}

func (s *Store) Withdrawals(ctx context.Context, f ledger.WithdrawalFilter) ([]ledger.WithdrawalView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+withdrawalCols+`,
		       COALESCE(p.full_name, 'Unknown User'), COALESCE(p.email, 'No email')
		FROM withdrawal_requests w
		LEFT JOIN profiles p ON p.id = w.user_id
		WHERE ($1 = '' OR w.status = $1)
		  AND ($2 = '' OR w.user_id::text = $2)
		ORDER BY w.requested_at DESC`, string(f.Status), f.UserID)
	if err != nil {
		return nil, wrap("withdrawals", err)
	}
	defer rows.Close()

	var out []ledger.WithdrawalView
	for rows.Next() {
		var v ledger.WithdrawalView
		w, err := scanWithdrawal(rows, &v.FullName, &v.Email)
		if err != nil {
			return nil, wrap("scan withdrawal", err)
		}
		v.WithdrawalRequest = *w
		out = append(out, v)
	}
	return out, wrap("withdrawals", rows.Err())
}

// matchWithOddsSelect junta a partida com sua linha de odds ativa (LEFT JOIN: odds podem não existir)
const matchWithOddsSelect = `
	SELECT m.id, m.team_a, m.team_b, m.team_a_logo, m.team_b_logo, m.match_time, m.status, m.winner,
	       m.tournament_id, m.created_at, m.updated_at,
	       o.id, o.team_a_odds, o.team_b_odds, o.draw_odds, o.is_active, o.created_at, o.updated_at
	FROM matches m
	LEFT JOIN betting_odds o ON o.match_id = m.id AND o.is_active`

func scanMatchWithOdds(sc scanner) (*ledger.MatchWithOdds, error) {
	var (
		mw                         ledger.MatchWithOdds
		logoA, logoB, winner, tour sql.NullString
		oddsID                     sql.NullString
		oddA, oddB                 decimal.NullDecimal
		oddDraw                    decimal.NullDecimal
		active                     sql.NullBool
		oCreated, oUpdated         sql.NullTime
	)
	err := sc.Scan(&mw.ID, &mw.TeamA, &mw.TeamB, &logoA, &logoB, &mw.MatchTime, &mw.Status, &winner,
		&tour, &mw.CreatedAt, &mw.UpdatedAt,
		&oddsID, &oddA, &oddB, &oddDraw, &active, &oCreated, &oUpdated)
	if err != nil {
		return nil, err
	}
	mw.TeamALogo, mw.TeamBLogo, mw.TournamentID = logoA.String, logoB.String, tour.String
	mw.Winner = ledger.Selection(winner.String)
	if oddsID.Valid {
		mw.Odds = &ledger.BettingOdds{
			ID:        oddsID.String,
			MatchID:   mw.ID,
			TeamAOdds: oddA.Decimal,
			TeamBOdds: oddB.Decimal,
			DrawOdds:  oddDraw,
			IsActive:  active.Bool,
			CreatedAt: oCreated.Time,
			UpdatedAt: oUpdated.Time,
		}
	}
	return &mw, nil
}

func (s *Store) Match(ctx context.Context, id string) (*ledger.MatchWithOdds, error) {
	m, err := scanMatchWithOdds(s.db.QueryRowContext(ctx, matchWithOddsSelect+` WHERE m.id=$1`, id))
	return m, wrap("match", err)
}

func (s *Store) Matches(ctx context.Context, f ledger.MatchFilter) ([]ledger.MatchWithOdds, error) {
	rows, err := s.db.QueryContext(ctx, matchWithOddsSelect+`
		WHERE ($1 = '' OR m.status = $1)
		ORDER BY m.match_time ASC`, string(f.Status))
	if err != nil {
		return nil, wrap("matches", err)
	}
	defer rows.Close()

	var out []ledger.MatchWithOdds
	for rows.Next() {
		m, err := scanMatchWithOdds(rows)
		if err != nil {
			return nil, wrap("scan match", err)
		}
		out = append(out, *m)
	}
	return out, wrap("matches", rows.Err())
}

func (s *Store) CountryEarnings(ctx context.Context) ([]ledger.CountryEarnings, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT country, total_users, total_earnings, total_withdrawals, current_balance
		FROM earnings_by_country
		ORDER BY country`)
	if err != nil {
		return nil, wrap("earnings by country", err)
	}
	defer rows.Close()

	var out []ledger.CountryEarnings
	for rows.Next() {
		var c ledger.CountryEarnings
		if err := rows.Scan(&c.Country, &c.TotalUsers, &c.TotalEarnings, &c.TotalWithdrawals, &c.CurrentBalance); err != nil {
			return nil, wrap("scan earnings", err)
		}
		out = append(out, c)
	}
	return out, wrap("earnings by country", rows.Err())
}
