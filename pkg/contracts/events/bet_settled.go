package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido pela liquidação (worker ou admin) para cada aposta resolvida
type BetSettled struct {
	BetID     string          `json:"bet_id"`
	UserID    string          `json:"user_id"`
	MatchID   string          `json:"match_id"`
	Status    string          `json:"status"` // "won" | "lost" | "cancelled"
	Payout    decimal.Decimal `json:"payout"`
	SettledAt time.Time       `json:"settled_at"`
}
