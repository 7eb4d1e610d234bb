package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// MatchFilter filtra o feed de partidas; Status vazio retorna todas
type MatchFilter struct {
	Status MatchStatus
}

// WithdrawalFilter filtra a fila de saques; campos vazios não filtram
type WithdrawalFilter struct {
	Status WithdrawalStatus
	UserID string
}

// Reader agrupa as leituras sem lock usadas pelas telas e pelo feed
type Reader interface {
	WalletByUser(ctx context.Context, userID string) (*Wallet, error)
	WalletByID(ctx context.Context, walletID string) (*Wallet, error)
	// LedgerBalance recalcula o saldo somando o histórico de transações da carteira
	LedgerBalance(ctx context.Context, walletID string) (decimal.Decimal, error)
	TransactionsByUser(ctx context.Context, userID string, limit int) ([]Transaction, error)

	Profile(ctx context.Context, userID string) (*Profile, error)

	Bet(ctx context.Context, betID string) (*Bet, error)
	BetsByUser(ctx context.Context, userID string, limit int) ([]BetView, error)

	Withdrawal(ctx context.Context, id string) (*WithdrawalRequest, error)
	Withdrawals(ctx context.Context, f WithdrawalFilter) ([]WithdrawalView, error)

	Match(ctx context.Context, id string) (*MatchWithOdds, error)
	Matches(ctx context.Context, f MatchFilter) ([]MatchWithOdds, error)

	CountryEarnings(ctx context.Context) ([]CountryEarnings, error)

	Ping(ctx context.Context) error
}

// Tx é a unidade de trabalho: tudo dentro de InTx é commitado junto ou descartado.
// Os métodos Lock* seguram a linha até o fim da transação.
type Tx interface {
	CreateWallet(ctx context.Context, w *Wallet) error
	LockWalletByUser(ctx context.Context, userID string) (*Wallet, error)
	LockWallet(ctx context.Context, walletID string) (*Wallet, error)

	// ApplyTransaction grava a transação e move o saldo pelo valor com sinal.
	// É o único caminho que altera wallets.balance; saldo negativo aborta com ErrInsufficientFunds.
	ApplyTransaction(ctx context.Context, t *Transaction) (decimal.Decimal, error)

	UpsertProfile(ctx context.Context, p *Profile) error

	InsertBet(ctx context.Context, b *Bet) error
	BetByRequestID(ctx context.Context, walletID, requestID string) (*Bet, error)
	LockBet(ctx context.Context, betID string) (*Bet, error)
	PendingBetsByMatch(ctx context.Context, matchID string) ([]Bet, error)
	UpdateBetOutcome(ctx context.Context, b *Bet) error

	InsertWithdrawal(ctx context.Context, w *WithdrawalRequest) error
	LockWithdrawal(ctx context.Context, id string) (*WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, w *WithdrawalRequest) error
	// PendingWithdrawalTotal soma os saques pending da carteira (ainda não debitados)
	PendingWithdrawalTotal(ctx context.Context, walletID string) (decimal.Decimal, error)

	InsertMatch(ctx context.Context, m *Match) error
	LockMatch(ctx context.Context, id string) (*Match, error)
	UpdateMatch(ctx context.Context, m *Match) error
	ActiveOdds(ctx context.Context, matchID string) (*BettingOdds, error)
	// ReplaceOdds desativa as odds ativas da partida e grava-o como a nova linha ativa
	ReplaceOdds(ctx context.Context, o *BettingOdds) error
	DeactivateOdds(ctx context.Context, matchID string) error
}

// Store é o Ledger Store completo
type Store interface {
	Reader
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
