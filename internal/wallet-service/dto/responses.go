package dto

import (
	"time"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

type WalletResponse struct {
	WalletID  string    `json:"wallet_id"`
	UserID    string    `json:"user_id"`
	Balance   string    `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewWalletResponse(w *ledger.Wallet) WalletResponse {
	return WalletResponse{WalletID: w.ID, UserID: w.UserID, Balance: w.Balance.StringFixed(2), UpdatedAt: w.UpdatedAt}
}

type DepositResponse struct {
	Wallet        WalletResponse `json:"wallet"`
	TransactionID string         `json:"transaction_id"`
}

type TransactionsResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
}

type WithdrawalsResponse struct {
	Withdrawals []ledger.WithdrawalView `json:"withdrawals"`
}
