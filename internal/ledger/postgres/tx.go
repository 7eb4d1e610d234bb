package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

type pgTx struct{ q querier }

func (t *pgTx) CreateWallet(ctx context.Context, w *ledger.Wallet) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO wallets(id, user_id, balance) VALUES($1,$2,0)
		RETURNING balance, created_at, updated_at`, w.ID, w.UserID).
		Scan(&w.Balance, &w.CreatedAt, &w.UpdatedAt)
	return wrap("create wallet", err)
}

func (t *pgTx) LockWalletByUser(ctx context.Context, userID string) (*ledger.Wallet, error) {
	w, err := scanWallet(t.q.QueryRowContext(ctx, `SELECT `+walletCols+` FROM wallets WHERE user_id=$1 FOR UPDATE`, userID))
	return w, wrap("lock wallet", err)
}

func (t *pgTx) LockWallet(ctx context.Context, walletID string) (*ledger.Wallet, error) {
	w, err := scanWallet(t.q.QueryRowContext(ctx, `SELECT `+walletCols+` FROM wallets WHERE id=$1 FOR UPDATE`, walletID))
	return w, wrap("lock wallet", err)
}

// ApplyTransaction grava a linha do ledger e move o saldo na mesma transação.
// O UPDATE condicional devolve zero linhas quando o saldo ficaria negativo.
func (t *pgTx) ApplyTransaction(ctx context.Context, tr *ledger.Transaction) (decimal.Decimal, error) {
	if !tr.Amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}

	delta := decimal.Zero
	if tr.Status == ledger.TransactionCompleted {
		delta = tr.Signed()
	}

	var balance decimal.Decimal
	err := t.q.QueryRowContext(ctx, `
		UPDATE wallets SET balance = balance + $1, updated_at = now()
		WHERE id=$2 AND balance + $1 >= 0
		RETURNING balance`, delta, tr.WalletID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := t.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE id=$1)`, tr.WalletID).Scan(&exists); err != nil {
			return decimal.Zero, wrap("apply transaction", err)
		}
		if !exists {
			return decimal.Zero, ledger.ErrNotFound
		}
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Zero, wrap("apply transaction", err)
	}

	if tr.ID == "" {
		tr.ID = uuid.NewString()
	}
	err = t.q.QueryRowContext(ctx, `
		INSERT INTO transactions(id, user_id, wallet_id, transaction_type, amount, category, status, description,
		                         payment_gateway_id, bet_id, withdrawal_id)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		tr.ID, tr.UserID, tr.WalletID, string(tr.Type), tr.Amount, string(tr.Category), string(tr.Status), tr.Description,
		nullString(tr.PaymentGatewayID), nullString(tr.BetID), nullString(tr.WithdrawalID)).Scan(&tr.CreatedAt)
	if err != nil {
		return decimal.Zero, wrap("insert transaction", err)
	}
	return balance, nil
}

func (t *pgTx) UpsertProfile(ctx context.Context, p *ledger.Profile) error {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO profiles(id, email, full_name, phone, country, is_admin)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			email      = EXCLUDED.email,
			full_name  = EXCLUDED.full_name,
			phone      = EXCLUDED.phone,
			country    = EXCLUDED.country,
			is_admin   = profiles.is_admin OR EXCLUDED.is_admin,
			updated_at = now()
		RETURNING is_admin, created_at, updated_at`,
		p.ID, p.Email, nullString(p.FullName), nullString(p.Phone), nullString(p.Country), p.IsAdmin).
		Scan(&p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	return wrap("upsert profile", err)
}

func (t *pgTx) InsertBet(ctx context.Context, b *ledger.Bet) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO bets(id, user_id, match_id, wallet_id, bet_on, bet_type, amount, odds, potential_payout,
		                 payout_amount, status, request_id)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		b.ID, b.UserID, b.MatchID, b.WalletID, string(b.BetOn), string(b.BetType), b.Amount, b.Odds,
		b.PotentialPayout, b.PayoutAmount, string(b.Status), nullString(b.RequestID)).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	return wrap("insert bet", err)
}

func (t *pgTx) BetByRequestID(ctx context.Context, walletID, requestID string) (*ledger.Bet, error) {
	b, err := scanBet(t.q.QueryRowContext(ctx, `SELECT `+betCols+` FROM bets b WHERE b.wallet_id=$1 AND b.request_id=$2`,
		walletID, requestID))
	return b, wrap("bet by request id", err)
}

func (t *pgTx) LockBet(ctx context.Context, betID string) (*ledger.Bet, error) {
	b, err := scanBet(t.q.QueryRowContext(ctx, `SELECT `+betCols+` FROM bets b WHERE b.id=$1 FOR UPDATE`, betID))
	return b, wrap("lock bet", err)
}

func (t *pgTx) PendingBetsByMatch(ctx context.Context, matchID string) ([]ledger.Bet, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT `+betCols+` FROM bets b
		WHERE b.match_id=$1 AND b.status='pending'
		ORDER BY b.created_at
		FOR UPDATE`, matchID)
	if err != nil {
		return nil, wrap("pending bets", err)
	}
	defer rows.Close()

	var out []ledger.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, wrap("scan bet", err)
		}
		out = append(out, *b)
	}
	return out, wrap("pending bets", rows.Err())
}

func (t *pgTx) UpdateBetOutcome(ctx context.Context, b *ledger.Bet) error {
	err := t.q.QueryRowContext(ctx, `
		UPDATE bets SET status=$1, payout_amount=$2, settled_at=$3, updated_at=now()
		WHERE id=$4
		RETURNING updated_at`,
		string(b.Status), b.PayoutAmount, nullTime(b.SettledAt), b.ID).Scan(&b.UpdatedAt)
	return wrap("update bet", err)
}

func (t *pgTx) InsertWithdrawal(ctx context.Context, w *ledger.WithdrawalRequest) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	var bank any
	if len(w.BankDetails) > 0 {
		bank = []byte(w.BankDetails)
	}
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO withdrawal_requests(id, user_id, wallet_id, amount, status, bank_details)
		VALUES($1,$2,$3,$4,$5,$6)
		RETURNING requested_at`,
		w.ID, w.UserID, w.WalletID, w.Amount, string(w.Status), bank).Scan(&w.RequestedAt)
	return wrap("insert withdrawal", err)
}

func (t *pgTx) LockWithdrawal(ctx context.Context, id string) (*ledger.WithdrawalRequest, error) {
	w, err := scanWithdrawal(t.q.QueryRowContext(ctx, `SELECT `+withdrawalCols+` FROM withdrawal_requests w WHERE w.id=$1 FOR UPDATE`, id))
	return w, wrap("lock withdrawal", err)
}

func (t *pgTx) UpdateWithdrawal(ctx context.Context, w *ledger.WithdrawalRequest) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status=$1, admin_notes=$2, transaction_id=$3, processed_at=$4, processed_by=$5
		WHERE id=$6`,
		string(w.Status), nullString(w.AdminNotes), nullString(w.TransactionID), nullTime(w.ProcessedAt),
		nullString(w.ProcessedBy), w.ID)
	if err != nil {
		return wrap("update withdrawal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (t *pgTx) PendingWithdrawalTotal(ctx context.Context, walletID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := t.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests
		WHERE wallet_id=$1 AND status='pending'`, walletID).Scan(&sum)
	return sum, wrap("pending withdrawals", err)
}

func (t *pgTx) InsertMatch(ctx context.Context, m *ledger.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO matches(id, team_a, team_b, team_a_logo, team_b_logo, match_time, status, winner, tournament_id)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		m.ID, m.TeamA, m.TeamB, nullString(m.TeamALogo), nullString(m.TeamBLogo), m.MatchTime, string(m.Status),
		nullString(string(m.Winner)), nullString(m.TournamentID)).Scan(&m.CreatedAt, &m.UpdatedAt)
	return wrap("insert match", err)
}

func (t *pgTx) LockMatch(ctx context.Context, id string) (*ledger.Match, error) {
	var (
		m                          ledger.Match
		logoA, logoB, winner, tour sql.NullString
	)
	err := t.q.QueryRowContext(ctx, `
		SELECT id, team_a, team_b, team_a_logo, team_b_logo, match_time, status, winner, tournament_id,
		       created_at, updated_at
		FROM matches WHERE id=$1 FOR UPDATE`, id).
		Scan(&m.ID, &m.TeamA, &m.TeamB, &logoA, &logoB, &m.MatchTime, &m.Status, &winner, &tour,
			&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, wrap("lock match", err)
	}
	m.TeamALogo, m.TeamBLogo, m.TournamentID = logoA.String, logoB.String, tour.String
	m.Winner = ledger.Selection(winner.String)
	return &m, nil
}

func (t *pgTx) UpdateMatch(ctx context.Context, m *ledger.Match) error {
	err := t.q.QueryRowContext(ctx, `
		UPDATE matches SET team_a=$1, team_b=$2, team_a_logo=$3, team_b_logo=$4, match_time=$5, status=$6,
		                   winner=$7, tournament_id=$8, updated_at=now()
		WHERE id=$9
		RETURNING updated_at`,
		m.TeamA, m.TeamB, nullString(m.TeamALogo), nullString(m.TeamBLogo), m.MatchTime, string(m.Status),
		nullString(string(m.Winner)), nullString(m.TournamentID), m.ID).Scan(&m.UpdatedAt)
	return wrap("update match", err)
}

func (t *pgTx) ActiveOdds(ctx context.Context, matchID string) (*ledger.BettingOdds, error) {
	var o ledger.BettingOdds
	err := t.q.QueryRowContext(ctx, `
		SELECT id, match_id, team_a_odds, team_b_odds, draw_odds, is_active, created_at, updated_at
		FROM betting_odds WHERE match_id=$1 AND is_active
		FOR SHARE`, matchID).
		Scan(&o.ID, &o.MatchID, &o.TeamAOdds, &o.TeamBOdds, &o.DrawOdds, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, wrap("active odds", err)
	}
	return &o, nil
}

func (t *pgTx) ReplaceOdds(ctx context.Context, o *ledger.BettingOdds) error {
	if err := t.DeactivateOdds(ctx, o.MatchID); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.IsActive = true
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO betting_odds(id, match_id, team_a_odds, team_b_odds, draw_odds, is_active)
		VALUES($1,$2,$3,$4,$5,TRUE)
		RETURNING created_at, updated_at`,
		o.ID, o.MatchID, o.TeamAOdds, o.TeamBOdds, o.DrawOdds).Scan(&o.CreatedAt, &o.UpdatedAt)
	return wrap("insert odds", err)
}

func (t *pgTx) DeactivateOdds(ctx context.Context, matchID string) error {
	if _, err := t.q.ExecContext(ctx, `
		UPDATE betting_odds SET is_active=FALSE, updated_at=now()
		WHERE match_id=$1 AND is_active`, matchID); err != nil {
		return wrap("deactivate odds", fmt.Errorf("match %s: %w", matchID, err))
	}
	return nil
}
