// Package notify entrega as mudanças feitas pelo admin: partidas e odds vão para o canal
// Redis lido pelo odds-service; fim de partida e saques vão para o Kafka.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/esports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

// Notifier junta o broadcaster Redis e os writers Kafka; campos nil desligam o destino
type Notifier struct {
	Redis       *redis.Client
	Channel     string
	Matches     kafka.MessageWriter // match_completed
	Withdrawals kafka.MessageWriter // withdrawal_events
}

// Broadcast publica a atualização no canal Pub/Sub; o odds-service invalida o cache e repassa ao WebSocket
func (n *Notifier) Broadcast(ctx context.Context, u events.MatchUpdate) error {
	if n.Redis == nil {
		return nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal match update: %w", err)
	}
	return n.Redis.Publish(ctx, n.Channel, b).Err()
}

func (n *Notifier) PublishMatchCompleted(ctx context.Context, e events.MatchCompleted) error {
	if n.Matches == nil {
		return nil
	}
	return kafka.WriteJSON(ctx, n.Matches, e.MatchID, e)
}

func (n *Notifier) PublishWithdrawal(ctx context.Context, e events.WithdrawalEvent) error {
	if n.Withdrawals == nil {
		return nil
	}
	return kafka.WriteJSON(ctx, n.Withdrawals, e.WithdrawalID, e)
}
