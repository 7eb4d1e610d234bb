package producer

import (
	"context"

	"github.com/radieske/esports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer kafka.MessageWriter
}

func NewKafkaPublisher(w kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// PublishWithdrawal usa o id do saque como chave para manter a ordem dos status
func (p *KafkaPublisher) PublishWithdrawal(ctx context.Context, e events.WithdrawalEvent) error {
	return kafka.WriteJSON(ctx, p.Writer, e.WithdrawalID, e)
}
