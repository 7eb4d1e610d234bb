package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchCompleted é publicado em "match_completed" quando a partida encerra ou é cancelada
type MatchCompleted struct {
	MatchID string    `json:"match_id"`
	Status  string    `json:"status"`           // "completed" | "cancelled"
	Winner  string    `json:"winner,omitempty"` // "team_a" | "team_b" | "draw"
	Ts      time.Time `json:"ts"`
}

// Odds é o snapshot das odds ativas enviado no broadcast
type Odds struct {
	TeamA decimal.Decimal     `json:"team_a"`
	TeamB decimal.Decimal     `json:"team_b"`
	Draw  decimal.NullDecimal `json:"draw"`
}

// MatchUpdate trafega no canal Redis Pub/Sub e é repassado aos clientes WebSocket
type MatchUpdate struct {
	MatchID   string    `json:"match_id"`
	Kind      string    `json:"kind"` // "match" | "odds" | "odds_closed"
	Status    string    `json:"status,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Odds      *Odds     `json:"odds,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
