// Package service reúne as operações administrativas: fila e ajuste de saques,
// cadastro de partidas e odds, liquidação manual e relatórios.
//
// Toda operação recebe o ator explicitamente e exige IsAdmin.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	settlement "github.com/radieske/esports-bet-ledger/internal/settlement/service"
	"github.com/radieske/esports-bet-ledger/internal/shared/metrics"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

// Notifier entrega os efeitos externos depois do commit
type Notifier interface {
	Broadcast(ctx context.Context, u events.MatchUpdate) error
	PublishMatchCompleted(ctx context.Context, e events.MatchCompleted) error
	PublishWithdrawal(ctx context.Context, e events.WithdrawalEvent) error
}

// Settler é a liquidação compartilhada com o settlement-worker
type Settler interface {
	SettleMatch(ctx context.Context, matchID string) (*settlement.Result, error)
	SettleBet(ctx context.Context, actor ledger.Actor, betID string, outcome ledger.BetStatus) (*ledger.Bet, error)
}

type Service struct {
	store   ledger.Store
	settler Settler
	notify  Notifier
	metrics *metrics.Ledger
	log     *zap.Logger
	now     func() time.Time
}

func New(store ledger.Store, settler Settler, n Notifier, m *metrics.Ledger, log *zap.Logger) *Service {
	return &Service{store: store, settler: settler, notify: n, metrics: m, log: log, now: time.Now}
}

func requireAdmin(actor ledger.Actor) error {
	if !actor.IsAdmin {
		return ledger.ErrForbidden
	}
	return nil
}

// afterCommit roda os efeitos externos sem herdar o cancelamento da requisição
func (s *Service) afterCommit(ctx context.Context, what string, fn func(context.Context) error) {
	if s.notify == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.metrics.PublishError(what)
		s.log.Warn("notify failed", zap.String("what", what), zap.Error(err))
	}
}
