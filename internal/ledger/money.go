package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces é a precisão das colunas monetárias (NUMERIC(14,2))
const AmountPlaces = 2

var maxAmount = decimal.New(1, 12) // limite de NUMERIC(14,2)

// ValidateAmount exige valor positivo, com no máximo duas casas decimais
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !a.Equal(a.Truncate(AmountPlaces)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountPlaces)
	}
	if a.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	return nil
}

// ParseAmount converte texto em valor monetário validado
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: required", ErrInvalidAmount)
	}
	a, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not numeric", ErrInvalidAmount, s)
	}
	if err := ValidateAmount(a); err != nil {
		return decimal.Zero, err
	}
	return a, nil
}

// ParseAmountJSON aceita número ou string JSON ("40.00" ou 40)
func ParseAmountJSON(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, fmt.Errorf("%w: required", ErrInvalidAmount)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		return ParseAmount(s)
	}
	return ParseAmount(string(raw))
}

// ValidateOdds exige multiplicador >= 1 com até duas casas decimais
func ValidateOdds(o decimal.Decimal) error {
	if o.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: must be at least 1", ErrInvalidOdds)
	}
	if !o.Equal(o.Truncate(2)) {
		return fmt.Errorf("%w: at most 2 decimal places", ErrInvalidOdds)
	}
	return nil
}

// ValidateOfferedOdds é a regra das odds cadastradas pelo admin: mesmo piso das odds apostadas
func ValidateOfferedOdds(o decimal.Decimal) error {
	if o.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: must be at least 1", ErrInvalidOdds)
	}
	if !o.Equal(o.Truncate(2)) {
		return fmt.Errorf("%w: at most 2 decimal places", ErrInvalidOdds)
	}
	return nil
}

// maxPayout é o limite de bets.potential_payout (NUMERIC(18,4))
var maxPayout = decimal.New(1, 14)

// PotentialPayout = valor × odd, sem arredondamento (coluna NUMERIC(18,4))
func PotentialPayout(amount, odds decimal.Decimal) decimal.Decimal {
	return amount.Mul(odds)
}

// ValidatePayout recusa apostas cujo prêmio não cabe na coluna
func ValidatePayout(amount, odds decimal.Decimal) error {
	if PotentialPayout(amount, odds).GreaterThanOrEqual(maxPayout) {
		return fmt.Errorf("%w: potential payout too large", ErrInvalidAmount)
	}
	return nil
}

// CreditedPayout arredonda o prêmio para a precisão da carteira antes do crédito
func CreditedPayout(payout decimal.Decimal) decimal.Decimal {
	return payout.Round(AmountPlaces)
}
