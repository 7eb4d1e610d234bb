package dto

import "encoding/json"

// Valores monetários chegam como número ou string ("40.00"); a validação fica em ledger.ParseAmountJSON
type DepositRequest struct {
	Amount           json.RawMessage `json:"amount" validate:"required"`
	PaymentGatewayID string          `json:"payment_gateway_id,omitempty" validate:"omitempty,max=128"`
}

type WithdrawalRequest struct {
	Amount      json.RawMessage `json:"amount" validate:"required"`
	BankDetails json.RawMessage `json:"bank_details,omitempty"`
}

type ProfileRequest struct {
	FullName string `json:"full_name" validate:"omitempty,max=120"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Country  string `json:"country" validate:"omitempty,max=64"`
}
