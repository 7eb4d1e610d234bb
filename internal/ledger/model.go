package ledger

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Profile representa os dados cadastrais do usuário (tabela profiles)
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Country   string    `json:"country,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Wallet é a carteira do usuário; o saldo é uma projeção do ledger de transações
type Wallet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

type TransactionCategory string

const (
	CategoryDeposit    TransactionCategory = "deposit"
	CategoryBetting    TransactionCategory = "betting"
	CategoryWinnings   TransactionCategory = "winnings"
	CategoryRefund     TransactionCategory = "refund"
	CategoryWithdrawal TransactionCategory = "withdrawal"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
)

// Transaction é uma linha imutável do ledger da carteira
type Transaction struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	WalletID         string              `json:"wallet_id"`
	Type             TransactionType     `json:"transaction_type"`
	Amount           decimal.Decimal     `json:"amount"`
	Category         TransactionCategory `json:"category"`
	Status           TransactionStatus   `json:"status"`
	Description      string              `json:"description"`
	PaymentGatewayID string              `json:"payment_gateway_id,omitempty"`
	BetID            string              `json:"bet_id,omitempty"`
	WithdrawalID     string              `json:"withdrawal_id,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// Signed retorna o valor com sinal aplicado ao saldo (crédito soma, débito subtrai)
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}

type BetType string

const (
	BetMatchWinner BetType = "match_winner"
	BetFirstKill   BetType = "first_kill"
	BetFirstTower  BetType = "first_tower"
	BetMostKills   BetType = "most_kills"
	BetMVPPlayer   BetType = "mvp_player"
)

// Valid indica se o tipo de aposta é conhecido
func (t BetType) Valid() bool {
	switch t {
	case BetMatchWinner, BetFirstKill, BetFirstTower, BetMostKills, BetMVPPlayer:
		return true
	}
	return false
}

// Label é o texto usado na descrição da transação de débito
func (t BetType) Label() string {
	switch t {
	case BetMatchWinner:
		return "Match winner"
	case BetFirstKill:
		return "First kill"
	case BetFirstTower:
		return "First tower"
	case BetMostKills:
		return "Most kills"
	case BetMVPPlayer:
		return "MVP player"
	}
	return "Match"
}

// Selection identifica o lado apostado (ou o vencedor de uma partida)
type Selection string

const (
	TeamA Selection = "team_a"
	TeamB Selection = "team_b"
	Draw  Selection = "draw"
)

func (s Selection) Valid() bool {
	return s == TeamA || s == TeamB || s == Draw
}

type BetStatus string

const (
	BetPending   BetStatus = "pending"
	BetWon       BetStatus = "won"
	BetLost      BetStatus = "lost"
	BetCancelled BetStatus = "cancelled"
)

// Bet é uma aposta registrada contra uma carteira
type Bet struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	MatchID         string          `json:"match_id"`
	WalletID        string          `json:"wallet_id"`
	BetOn           Selection       `json:"bet_on"`
	BetType         BetType         `json:"bet_type"`
	Amount          decimal.Decimal `json:"amount"`
	Odds            decimal.Decimal `json:"odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	PayoutAmount    decimal.Decimal `json:"payout_amount"`
	Status          BetStatus       `json:"status"`
	RequestID       string          `json:"request_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	SettledAt       *time.Time      `json:"settled_at,omitempty"`
}

// BetView é a aposta com os times da partida, usada no histórico do usuário
type BetView struct {
	Bet
	TeamA string `json:"team_a"`
	TeamB string `json:"team_b"`
}

type MatchStatus string

const (
	MatchUpcoming  MatchStatus = "upcoming"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchUpcoming, MatchLive, MatchCompleted, MatchCancelled:
		return true
	}
	return false
}

// Open indica se a partida ainda aceita apostas
func (s MatchStatus) Open() bool {
	return s == MatchUpcoming || s == MatchLive
}

// Match é uma partida entre dois participantes
type Match struct {
	ID           string      `json:"id"`
	TeamA        string      `json:"team_a"`
	TeamB        string      `json:"team_b"`
	TeamALogo    string      `json:"team_a_logo,omitempty"`
	TeamBLogo    string      `json:"team_b_logo,omitempty"`
	MatchTime    time.Time   `json:"match_time"`
	Status       MatchStatus `json:"status"`
	Winner       Selection   `json:"winner,omitempty"`
	TournamentID string      `json:"tournament_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BettingOdds são as odds de uma partida; apenas uma linha ativa por partida
type BettingOdds struct {
	ID        string              `json:"id"`
	MatchID   string              `json:"match_id"`
	TeamAOdds decimal.Decimal     `json:"team_a_odds"`
	TeamBOdds decimal.Decimal     `json:"team_b_odds"`
	DrawOdds  decimal.NullDecimal `json:"draw_odds"`
	IsActive  bool                `json:"is_active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// For retorna a odd da seleção; ok=false quando não há odd de empate
func (o BettingOdds) For(s Selection) (decimal.Decimal, bool) {
	switch s {
	case TeamA:
		return o.TeamAOdds, true
	case TeamB:
		return o.TeamBOdds, true
	case Draw:
		if o.DrawOdds.Valid {
			return o.DrawOdds.Decimal, true
		}
	}
	return decimal.Zero, false
}

// Offer é uma combinação (tipo, seleção) apostável com a odd derivada das odds ativas
type Offer struct {
	BetType   BetType         `json:"bet_type"`
	Selection Selection       `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
}

// MatchWithOdds é a projeção lida pelo feed: partida + odds ativas (se houver)
type MatchWithOdds struct {
	Match
	Odds   *BettingOdds `json:"odds,omitempty"`
	Offers []Offer      `json:"offers,omitempty"`
}

// WithOffers preenche Offers a partir das odds ativas
func (m MatchWithOdds) WithOffers() MatchWithOdds {
	m.Offers = nil
	if m.Odds != nil && m.Odds.IsActive {
		m.Offers = m.Odds.Offers()
	}
	return m
}

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalProcessed WithdrawalStatus = "processed"
)

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected, WithdrawalProcessed:
		return true
	}
	return false
}

// WithdrawalRequest é uma solicitação de saque, ajustada apenas pelo admin
type WithdrawalRequest struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	WalletID      string           `json:"wallet_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Status        WithdrawalStatus `json:"status"`
	BankDetails   json.RawMessage  `json:"bank_details,omitempty"`
	AdminNotes    string           `json:"admin_notes,omitempty"`
	TransactionID string           `json:"transaction_id,omitempty"`
	RequestedAt   time.Time        `json:"requested_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	ProcessedBy   string           `json:"processed_by,omitempty"`
}

// WithdrawalView é a linha da fila do admin, com nome e email do solicitante
type WithdrawalView struct {
	WithdrawalRequest
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// CountryEarnings espelha a view earnings_by_country
type CountryEarnings struct {
	Country          string          `json:"country"`
	TotalUsers       int64           `json:"total_users"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
}

// Actor é a identidade explícita de quem executa a operação
type Actor struct {
	UserID  string
	Email   string
	IsAdmin bool
}
