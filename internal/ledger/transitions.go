package ledger

import "fmt"

// withdrawalTransitions lista as transições permitidas; rejected e processed são terminais
var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:  {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved: {WithdrawalProcessed},
}

// CheckWithdrawalTransition valida a mudança de status de uma solicitação de saque
func CheckWithdrawalTransition(from, to WithdrawalStatus) error {
	for _, next := range withdrawalTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: withdrawal %s -> %s", ErrInvalidStateTransition, from, to)
}

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchUpcoming: {MatchLive, MatchCompleted, MatchCancelled},
	MatchLive:     {MatchCompleted, MatchCancelled},
}

// CheckMatchTransition valida a mudança de status de uma partida.
// Repetir o status atual é permitido enquanto a partida não estiver encerrada.
func CheckMatchTransition(from, to MatchStatus) error {
	if from == to && from.Open() {
		return nil
	}
	for _, next := range matchTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: match %s -> %s", ErrInvalidStateTransition, from, to)
}

// CheckBetSettlement garante que a aposta só sai de pending uma vez
func CheckBetSettlement(b Bet, to BetStatus) error {
	if b.Status != BetPending || to == BetPending {
		return fmt.Errorf("%w: bet %s -> %s", ErrInvalidStateTransition, b.Status, to)
	}
	return nil
}
