package producer

import (
	"context"
	"time"

	"github.com/radieske/esports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer kafka.MessageWriter
}

func NewKafkaPublisher(w kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// PublishBetPlaced usa o match_id como chave: consumidores recebem as apostas de uma partida em ordem
func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return kafka.WriteJSON(ctx, p.Writer, e.MatchID, e)
}
