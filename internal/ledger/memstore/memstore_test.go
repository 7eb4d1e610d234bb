package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedWallet(t *testing.T, s *Store, userID, balance string) *ledger.Wallet {
	t.Helper()
	ctx := context.Background()
	w := &ledger.Wallet{UserID: userID}
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.CreateWallet(ctx, w); err != nil {
			return err
		}
		_, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
			UserID: userID, WalletID: w.ID, Type: ledger.Credit, Amount: dec(balance),
			Category: ledger.CategoryDeposit, Status: ledger.TransactionCompleted,
		})
		return err
	}))
	return w
}

func TestInTx_RollbackDiscardsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	w := seedWallet(t, s, "u1", "100.00")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
			UserID: "u1", WalletID: w.ID, Type: ledger.Debit, Amount: dec("30"),
			Category: ledger.CategoryBetting, Status: ledger.TransactionCompleted,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.WalletByUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("100")))

	txs, err := s.TransactionsByUser(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestApplyTransaction_NeverNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	w := seedWallet(t, s, "u1", "20.00")

	err := s.InTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
			UserID: "u1", WalletID: w.ID, Type: ledger.Debit, Amount: dec("25"),
			Category: ledger.CategoryBetting, Status: ledger.TransactionCompleted,
		})
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	derived, err := s.LedgerBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, derived.Equal(dec("20")))
}

func TestCreateWallet_Duplicate(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedWallet(t, s, "u1", "1")

	err := s.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreateWallet(ctx, &ledger.Wallet{UserID: "u1"})
	})
	assert.ErrorIs(t, err, ledger.ErrConflict)
}

func TestInTx_Serializes(t *testing.T) {
	s := New()
	ctx := context.Background()
	w := seedWallet(t, s, "u1", "100.00")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.InTx(ctx, func(tx ledger.Tx) error {
				_, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
					UserID: "u1", WalletID: w.ID, Type: ledger.Debit, Amount: dec("3"),
					Category: ledger.CategoryBetting, Status: ledger.TransactionCompleted,
				})
				return err
			})
		}()
	}
	wg.Wait()

	got, err := s.WalletByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("1")), "balance %s", got.Balance)

	derived, err := s.LedgerBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, derived.Equal(got.Balance))
}

func TestFailOn_InjectsRemoteFailure(t *testing.T) {
	s := New()
	s.FailOn = "insert withdrawal"
	ctx := context.Background()

	err := s.InTx(ctx, func(tx ledger.Tx) error {
		return tx.InsertWithdrawal(ctx, &ledger.WithdrawalRequest{UserID: "u1", Amount: dec("1")})
	})
	assert.ErrorIs(t, err, ledger.ErrRemoteFailure)
}

func TestCountryEarnings(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.UpsertProfile(ctx, &ledger.Profile{ID: "u1", Email: "a@x", Country: "BR"}); err != nil {
			return err
		}
		return tx.UpsertProfile(ctx, &ledger.Profile{ID: "u2", Email: "b@x"})
	}))
	w := seedWallet(t, s, "u1", "10")
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.ApplyTransaction(ctx, &ledger.Transaction{
			UserID: "u1", WalletID: w.ID, Type: ledger.Credit, Amount: dec("25"),
			Category: ledger.CategoryWinnings, Status: ledger.TransactionCompleted,
		})
		return err
	}))

	rows, err := s.CountryEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BR", rows[0].Country)
	assert.True(t, rows[0].TotalEarnings.Equal(dec("25")))
	assert.True(t, rows[0].CurrentBalance.Equal(dec("35")))
	assert.Equal(t, "Unknown", rows[1].Country)
}
