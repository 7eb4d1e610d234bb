package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/db/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setupStore(t *testing.T) *Store {
	td := testutil.SetupTestDatabase(t)
	return New(td.DB)
}

// fundedWallet cria perfil + carteira e deposita o saldo inicial
func fundedWallet(t *testing.T, s *Store, country string, balance string) *ledger.Wallet {
	t.Helper()
	ctx := context.Background()
	userID := uuid.NewString()
	var w ledger.Wallet
	err := s.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.UpsertProfile(ctx, &ledger.Profile{ID: userID, Email: userID + "@test.local", Country: country}); err != nil {
			return err
		}
		w = ledger.Wallet{UserID: userID}
		if err := tx.CreateWallet(ctx, &w); err != nil {
			return err
		}
		if balance == "0" {
			return nil
		}
		_, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
			UserID: userID, WalletID: w.ID, Type: ledger.Credit, Amount: dec(balance),
			Category: ledger.CategoryDeposit, Status: ledger.TransactionCompleted, Description: "seed",
		})
		return err
	})
	require.NoError(t, err)
	return &w
}

func seedMatch(t *testing.T, s *Store) *ledger.Match {
	t.Helper()
	ctx := context.Background()
	m := &ledger.Match{TeamA: "Falcons", TeamB: "Vikings", MatchTime: time.Now().Add(time.Hour), Status: ledger.MatchUpcoming}
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.InsertMatch(ctx, m); err != nil {
			return err
		}
		return tx.ReplaceOdds(ctx, &ledger.BettingOdds{MatchID: m.ID, TeamAOdds: dec("2.50"), TeamBOdds: dec("1.60")})
	}))
	return m
}

func TestStore_WalletByUser_NotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.WalletByUser(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.NotErrorIs(t, err, ledger.ErrRemoteFailure)
}

func TestStore_MalformedIDIsNotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Bet(ctx, "abc")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.NotErrorIs(t, err, ledger.ErrRemoteFailure)

	_, err = s.Profile(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	err = s.InTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.LockWithdrawal(ctx, "abc")
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.NotErrorIs(t, err, ledger.ErrRemoteFailure)
}

func TestStore_ApplyTransaction(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	w := fundedWallet(t, s, "BR", "100.00")

	t.Run("debit moves balance and appends row", func(t *testing.T) {
		var bal decimal.Decimal
		err := s.InTx(ctx, func(tx ledger.Tx) error {
			var err error
			bal, err = tx.ApplyTransaction(ctx, &ledger.Transaction{
				UserID: w.UserID, WalletID: w.ID, Type: ledger.Debit, Amount: dec("40.00"),
				Category: ledger.CategoryBetting, Status: ledger.TransactionCompleted,
			})
			return err
		})
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("60")), "balance %s", bal)

		txs, err := s.TransactionsByUser(ctx, w.UserID, 10)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, ledger.Debit, txs[0].Type)
	})

	t.Run("overdraft is rejected and rolled back", func(t *testing.T) {
		err := s.InTx(ctx, func(tx ledger.Tx) error {
			_, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
				UserID: w.UserID, WalletID: w.ID, Type: ledger.Debit, Amount: dec("60.01"),
				Category: ledger.CategoryBetting, Status: ledger.TransactionCompleted,
			})
			return err
		})
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		got, err := s.WalletByID(ctx, w.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(dec("60")))
	})

	t.Run("stored balance matches ledger fold", func(t *testing.T) {
		derived, err := s.LedgerBalance(ctx, w.ID)
		require.NoError(t, err)
		got, err := s.WalletByID(ctx, w.ID)
		require.NoError(t, err)
		assert.True(t, derived.Equal(got.Balance), "derived %s stored %s", derived, got.Balance)
	})
}

func TestStore_ConcurrentDebitsAreLinearized(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	w := fundedWallet(t, s, "BR", "100.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.InTx(ctx, func(tx ledger.Tx) error {
				locked, err := tx.LockWallet(ctx, w.ID)
				if err != nil {
					return err
				}
				if locked.Balance.LessThan(dec("60")) {
					return ledger.ErrInsufficientFunds
				}
				_, err = tx.ApplyTransaction(ctx, &ledger.Transaction{
					UserID: w.UserID, WalletID: w.ID, Type: ledger.Debit, Amount: dec("60.00"),
					Category: ledger.CategoryBetting, Status: ledger.TransactionCompleted,
				})
				return err
			})
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ledger.ErrInsufficientFunds):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	got, err := s.WalletByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("40")))
}

func TestStore_BetRequestIDIsUniquePerWallet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	w := fundedWallet(t, s, "BR", "100.00")
	m := seedMatch(t, s)

	bet := func() *ledger.Bet {
		return &ledger.Bet{
			UserID: w.UserID, MatchID: m.ID, WalletID: w.ID, BetOn: ledger.TeamA, BetType: ledger.BetMatchWinner,
			Amount: dec("10.00"), Odds: dec("2.50"), PotentialPayout: dec("25.00"), Status: ledger.BetPending,
			RequestID: "req-1",
		}
	}

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error { return tx.InsertBet(ctx, bet()) }))

	err := s.InTx(ctx, func(tx ledger.Tx) error { return tx.InsertBet(ctx, bet()) })
	assert.ErrorIs(t, err, ledger.ErrConflict)

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		got, err := tx.BetByRequestID(ctx, w.ID, "req-1")
		if err != nil {
			return err
		}
		assert.True(t, got.PotentialPayout.Equal(dec("25")))
		return nil
	}))
}

func TestStore_MatchesWithActiveOdds(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	m := seedMatch(t, s)

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		return tx.ReplaceOdds(ctx, &ledger.BettingOdds{
			MatchID: m.ID, TeamAOdds: dec("2.10"), TeamBOdds: dec("1.75"),
			DrawOdds: decimal.NewNullDecimal(dec("3.20")),
		})
	}))

	got, err := s.Match(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Odds)
	assert.True(t, got.Odds.TeamAOdds.Equal(dec("2.10")))
	assert.True(t, got.Odds.DrawOdds.Valid)

	upcoming, err := s.Matches(ctx, ledger.MatchFilter{Status: ledger.MatchUpcoming})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)

	live, err := s.Matches(ctx, ledger.MatchFilter{Status: ledger.MatchLive})
	require.NoError(t, err)
	assert.Empty(t, live)

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error { return tx.DeactivateOdds(ctx, m.ID) }))
	got, err = s.Match(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Odds)
}

func TestStore_WithdrawalLifecycleAndCountryView(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	w := fundedWallet(t, s, "PT", "60.00")

	req := &ledger.WithdrawalRequest{
		UserID: w.UserID, WalletID: w.ID, Amount: dec("50.00"), Status: ledger.WithdrawalPending,
		BankDetails: []byte(`{"iban":"PT50000000000000000000000"}`),
	}
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error { return tx.InsertWithdrawal(ctx, req) }))

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		pending, err := tx.PendingWithdrawalTotal(ctx, w.ID)
		require.NoError(t, err)
		assert.True(t, pending.Equal(dec("50")))

		locked, err := tx.LockWithdrawal(ctx, req.ID)
		if err != nil {
			return err
		}
		debit := &ledger.Transaction{
			UserID: w.UserID, WalletID: w.ID, Type: ledger.Debit, Amount: locked.Amount,
			Category: ledger.CategoryWithdrawal, Status: ledger.TransactionCompleted, WithdrawalID: locked.ID,
		}
		if _, err := tx.ApplyTransaction(ctx, debit); err != nil {
			return err
		}
		now := time.Now()
		locked.Status = ledger.WithdrawalApproved
		locked.TransactionID = debit.ID
		locked.ProcessedAt = &now
		locked.ProcessedBy = uuid.NewString()
		return tx.UpdateWithdrawal(ctx, locked)
	}))

	queue, err := s.Withdrawals(ctx, ledger.WithdrawalFilter{Status: ledger.WithdrawalApproved})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, w.UserID+"@test.local", queue[0].Email)
	assert.NotNil(t, queue[0].ProcessedAt)
	assert.JSONEq(t, `{"iban":"PT50000000000000000000000"}`, string(queue[0].BankDetails))

	stats, err := s.CountryEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "PT", stats[0].Country)
	assert.EqualValues(t, 1, stats[0].TotalUsers)
	assert.True(t, stats[0].TotalWithdrawals.Equal(dec("50")))
	assert.True(t, stats[0].CurrentBalance.Equal(dec("10")))
}
