// Package feed é a projeção somente leitura de partidas com as odds ativas.
package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/odds-service/cache"
)

// Reader é o subconjunto do Ledger Store usado pelo feed
type Reader interface {
	Match(ctx context.Context, id string) (*ledger.MatchWithOdds, error)
	Matches(ctx context.Context, f ledger.MatchFilter) ([]ledger.MatchWithOdds, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Invalidate(ctx context.Context, matchID string) error
}

type Feed struct {
	store Reader
	cache Cache // opcional
	ttl   time.Duration
	log   *zap.Logger
}

func New(store Reader, c Cache, ttl time.Duration, log *zap.Logger) *Feed {
	return &Feed{store: store, cache: c, ttl: ttl, log: log}
}

// Matches devolve as partidas ordenadas por match_time; status vazio lista todas.
// Cada partida leva as ofertas derivadas das odds ativas. Falha do cache nunca derruba a leitura.
func (f *Feed) Matches(ctx context.Context, status ledger.MatchStatus) ([]ledger.MatchWithOdds, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ledger.ErrInvalidSelection, status)
	}
	key := cache.KeyList(string(status))

	var out []ledger.MatchWithOdds
	if f.cache != nil {
		hit, err := f.cache.Get(ctx, key, &out)
		if err != nil {
			f.log.Warn("feed cache get", zap.String("key", key), zap.Error(err))
		} else if hit {
			return out, nil
		}
	}

	out, err := f.store.Matches(ctx, ledger.MatchFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if out == nil {
		out = []ledger.MatchWithOdds{}
	}
	for i := range out {
		out[i] = out[i].WithOffers()
	}
	f.put(ctx, key, out)
	return out, nil
}

func (f *Feed) Match(ctx context.Context, id string) (*ledger.MatchWithOdds, error) {
	key := cache.KeyMatch(id)
	if f.cache != nil {
		var m ledger.MatchWithOdds
		hit, err := f.cache.Get(ctx, key, &m)
		if err != nil {
			f.log.Warn("feed cache get", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &m, nil
		}
	}

	m, err := f.store.Match(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	withOffers := m.WithOffers()
	f.put(ctx, key, &withOffers)
	return &withOffers, nil
}

// Invalidate é chamado quando o admin anuncia mudança na partida
func (f *Feed) Invalidate(ctx context.Context, matchID string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Invalidate(ctx, matchID); err != nil {
		f.log.Warn("feed cache invalidate", zap.String("match_id", matchID), zap.Error(err))
	}
}

func (f *Feed) put(ctx context.Context, key string, v any) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, key, v, f.ttl); err != nil {
		f.log.Warn("feed cache set", zap.String("key", key), zap.Error(err))
	}
}
