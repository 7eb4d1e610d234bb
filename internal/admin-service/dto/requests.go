package dto

import (
	"encoding/json"
	"time"
)

type NotesRequest struct {
	Notes string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type CreateMatchRequest struct {
	TeamA        string    `json:"team_a" validate:"required,max=100"`
	TeamB        string    `json:"team_b" validate:"required,max=100"`
	TeamALogo    string    `json:"team_a_logo,omitempty" validate:"omitempty,url"`
	TeamBLogo    string    `json:"team_b_logo,omitempty" validate:"omitempty,url"`
	MatchTime    time.Time `json:"match_time" validate:"required"`
	TournamentID string    `json:"tournament_id,omitempty" validate:"omitempty,uuid"`
}

type UpdateMatchRequest struct {
	Status    *string    `json:"status,omitempty" validate:"omitempty,oneof=upcoming live completed cancelled"`
	Winner    *string    `json:"winner,omitempty" validate:"omitempty,oneof=team_a team_b draw"`
	MatchTime *time.Time `json:"match_time,omitempty"`
	TeamALogo *string    `json:"team_a_logo,omitempty" validate:"omitempty,url"`
	TeamBLogo *string    `json:"team_b_logo,omitempty" validate:"omitempty,url"`
}

// Odds chegam como número ou string ("2.10")
type OddsRequest struct {
	TeamAOdds json.RawMessage `json:"team_a_odds" validate:"required"`
	TeamBOdds json.RawMessage `json:"team_b_odds" validate:"required"`
	DrawOdds  json.RawMessage `json:"draw_odds,omitempty"`
}

type SettleBetRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=won lost cancelled"`
}
