package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrRemoteFailure          = errors.New("remote failure")

	ErrInvalidOdds      = errors.New("invalid odds")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrOddsInactive     = errors.New("odds inactive")
	ErrOddsChanged      = errors.New("odds changed")
	ErrMatchClosed      = errors.New("match closed for betting")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
)

// RemoteError envolve falhas do banco/serviço externo; errors.Is(err, ErrRemoteFailure) é verdadeiro
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemoteFailure }

// Remote retorna err como RemoteError, exceto erros de domínio que já têm significado próprio
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{ErrNotFound, ErrInsufficientFunds, ErrInvalidStateTransition, ErrConflict, ErrRemoteFailure} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return &RemoteError{Op: op, Err: err}
}

// OddsChangedError carrega a odd corrente para o cliente reapresentar a aposta
type OddsChangedError struct {
	Current decimal.Decimal
}

func (e *OddsChangedError) Error() string { return "odds changed; current=" + e.Current.String() }

func (e *OddsChangedError) Is(target error) bool { return target == ErrOddsChanged }
