// Package respond concentra a escrita de respostas JSON e o mapeamento erro -> status HTTP.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrBadRequest marca payload malformado ou que falhou na validação
var ErrBadRequest = errors.New("bad request")

// ErrUnauthorized é devolvido pelo middleware de autenticação
var ErrUnauthorized = errors.New("unauthorized")

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Current string `json:"current_odds,omitempty"`
}

// WriteJSON serializa e envia resposta JSON
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode lê o corpo JSON (limite 1MB, sem campos desconhecidos) e roda as tags validate
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: bad json: %v", ErrBadRequest, err)
	}
	return Validate(v)
}

// Validate roda as tags validate do struct
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrBadRequest, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// Status traduz o erro de domínio em (status HTTP, código estável)
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, ledger.ErrInvalidOdds):
		return http.StatusBadRequest, "invalid_odds"
	case errors.Is(err, ledger.ErrInvalidSelection):
		return http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, ledger.ErrInvalidStateTransition):
		return http.StatusConflict, "invalid_state_transition"
	case errors.Is(err, ledger.ErrOddsChanged):
		return http.StatusConflict, "odds_changed"
	case errors.Is(err, ledger.ErrOddsInactive):
		return http.StatusConflict, "odds_inactive"
	case errors.Is(err, ledger.ErrMatchClosed):
		return http.StatusConflict, "match_closed"
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ledger.ErrRemoteFailure):
		return http.StatusBadGateway, "remote_failure"
	}
	return http.StatusInternalServerError, "internal"
}

// Error escreve o corpo de erro; falhas 5xx são logadas com o erro completo
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status, code := Status(err)
	body := ErrorBody{Error: code, Message: err.Error()}

	var changed *ledger.OddsChangedError
	if errors.As(err, &changed) {
		body.Current = changed.Current.StringFixed(2)
	}

	if status >= 500 {
		if log != nil {
			log.Error("request failed", zap.String("code", code), zap.Error(err))
		}
		if status == http.StatusInternalServerError {
			body.Message = "internal error"
		}
	}
	WriteJSON(w, status, body)
}
