package ws

import "github.com/radieske/esports-bet-ledger/pkg/contracts/events"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"match_id"` // requerido em subscribe/unsubscribe
}

// ServerMsg é o envelope enviado ao cliente
type ServerMsg struct {
	Type    string              `json:"type"` // update | pong | error
	Update  *events.MatchUpdate `json:"update,omitempty"`
	Message string              `json:"message,omitempty"`
}
