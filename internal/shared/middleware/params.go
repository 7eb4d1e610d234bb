package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

// UUIDParam responde 404 quando o parâmetro de rota não é um uuid; nenhum registro teria esse id
func UUIDParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := uuid.Parse(chi.URLParam(r, name)); err != nil {
				respond.Error(w, nil, fmt.Errorf("%w: malformed %s", ledger.ErrNotFound, name))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
