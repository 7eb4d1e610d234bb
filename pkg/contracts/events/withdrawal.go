package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalEvent acompanha o ciclo de vida da solicitação de saque
type WithdrawalEvent struct {
	WithdrawalID string          `json:"withdrawal_id"`
	UserID       string          `json:"user_id"`
	WalletID     string          `json:"wallet_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	ProcessedBy  string          `json:"processed_by,omitempty"`
	Ts           time.Time       `json:"ts"`
}
