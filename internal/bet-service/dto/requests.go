package dto

import "encoding/json"

// PlaceBetRequest traz a odd que o usuário viu; amount e odds aceitam número ou string ("2.50")
type PlaceBetRequest struct {
	MatchID   string          `json:"match_id" validate:"required,uuid"`
	Selection string          `json:"selection" validate:"required"`
	BetType   string          `json:"bet_type,omitempty"`
	Odds      json.RawMessage `json:"odds" validate:"required"`
	Amount    json.RawMessage `json:"amount" validate:"required"`
	RequestID string          `json:"request_id,omitempty" validate:"omitempty,max=64"`
}
