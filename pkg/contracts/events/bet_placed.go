package events

import "github.com/shopspring/decimal"

// Evento publicado no tópico "bet_placed" após o commit da aposta
type BetPlaced struct {
	BetID           string          `json:"bet_id"`
	UserID          string          `json:"user_id"`
	WalletID        string          `json:"wallet_id"`
	MatchID         string          `json:"match_id"`
	BetType         string          `json:"bet_type"`
	Selection       string          `json:"selection"`
	Amount          decimal.Decimal `json:"amount"`
	Odds            decimal.Decimal `json:"odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	TsUnixMs        int64           `json:"ts_unix_ms"`
}
