package dto

import "github.com/radieske/esports-bet-ledger/internal/ledger"

type WithdrawalsResponse struct {
	Withdrawals []ledger.WithdrawalView `json:"withdrawals"`
}

type CountriesResponse struct {
	Countries []ledger.CountryEarnings `json:"countries"`
}
