package ws

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal de atualizações publicado pelo admin-service.
// Para cada mensagem roda os handlers em ordem (invalidação do cache antes do repasse ao Hub).
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, log *zap.Logger, handlers ...func(context.Context, events.MatchUpdate)) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				Dispatch(ctx, msg.Payload, log, handlers...)
			}
		}
	}()
}

// Dispatch decodifica o payload e chama os handlers
func Dispatch(ctx context.Context, payload string, log *zap.Logger, handlers ...func(context.Context, events.MatchUpdate)) {
	u, err := decode(payload)
	if err != nil || u.MatchID == "" {
		log.Warn("ws subscriber: invalid payload", zap.String("payload", payload), zap.Error(err))
		return
	}
	for _, h := range handlers {
		h(ctx, u)
	}
}
