package topics

const (
	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// Matches
	MatchCompleted = "match_completed"

	// Withdrawals
	WithdrawalEvents = "withdrawal_events"

	// DLQs
	MatchCompletedDLQ = "match_completed_dlq"
)
