package dto

import "github.com/radieske/esports-bet-ledger/internal/ledger"

type PlaceBetResponse struct {
	Bet        *ledger.Bet `json:"bet"`
	NewBalance string      `json:"new_balance"`
	Replayed   bool        `json:"replayed,omitempty"`
}

type BetsResponse struct {
	Bets []ledger.BetView `json:"bets"`
}
