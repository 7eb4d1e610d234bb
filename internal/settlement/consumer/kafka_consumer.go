package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/settlement/service"
	"github.com/radieske/esports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

// MessageReader é o lado de leitura de *kafkago.Reader com commit manual
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type Settler interface {
	SettleMatch(ctx context.Context, matchID string) (*service.Result, error)
}

// DeadLetter é o que vai para a DLQ quando a liquidação desiste da mensagem
type DeadLetter struct {
	Topic     string    `json:"topic"`
	Partition int       `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       string    `json:"key"`
	Payload   string    `json:"payload"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
	FailedAt  time.Time `json:"failed_at"`
}

// Processor consome match_completed e liquida as apostas da partida.
// O offset só é commitado depois da liquidação ou do envio para a DLQ.
type Processor struct {
	Log     *zap.Logger
	Reader  MessageReader
	Settler Settler
	DLQ     kafka.MessageWriter // opcional

	Retries int           // tentativas extras antes da DLQ (padrão 3)
	Backoff time.Duration // multiplicado pelo número da tentativa (padrão 300ms)
	Redo    time.Duration // espera antes de tratar de novo uma mensagem que falhou (padrão 1s)

	OnConsumed func()       // métricas
	OnSettled  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo; retorna quando o contexto é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.fail("read")
			if !sleep(ctx, 500*time.Millisecond) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		// FetchMessage avança o offset da sessão: a mensagem só é largada depois de tratada
		for {
			err := p.Handle(ctx, m)
			if err == nil {
				break
			}
			p.Log.Error("settlement message not handled, retrying",
				zap.Int64("offset", m.Offset), zap.Error(err))
			if !sleep(ctx, p.handleBackoff()) {
				return ctx.Err()
			}
		}
		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			p.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			p.fail("commit")
		}
	}
}

// Handle processa uma mensagem; erro significa que ela não deve ser commitada
func (p *Processor) Handle(ctx context.Context, m kafkago.Message) error {
	var ev events.MatchCompleted
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.MatchID == "" {
		if err == nil {
			err = errors.New("missing match_id")
		}
		p.Log.Warn("invalid match_completed message", zap.Error(err))
		p.fail("decode")
		return p.deadLetter(ctx, m, err, 0)
	}

	retries, backoff := p.Retries, p.Backoff
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}

	var (
		res      *service.Result
		err      error
		attempts int
	)
	for attempts = 1; attempts <= retries+1; attempts++ {
		res, err = p.Settler.SettleMatch(ctx, ev.MatchID)
		if err == nil || !retryable(err) {
			break
		}
		p.Log.Warn("settle match failed, retrying",
			zap.String("match_id", ev.MatchID), zap.Int("attempt", attempts), zap.Error(err))
		if attempts <= retries && !sleep(ctx, time.Duration(attempts)*backoff) {
			return ctx.Err()
		}
	}
	if err != nil {
		p.fail("settle")
		if attempts > retries+1 {
			attempts = retries + 1
		}
		return p.deadLetter(ctx, m, err, attempts)
	}

	if p.OnSettled != nil {
		p.OnSettled()
	}
	p.Log.Info("match_completed processed",
		zap.String("match_id", ev.MatchID),
		zap.Int("won", res.Won), zap.Int("lost", res.Lost), zap.Int("cancelled", res.Cancelled))
	return nil
}

func (p *Processor) deadLetter(ctx context.Context, m kafkago.Message, cause error, attempts int) error {
	if p.DLQ == nil {
		p.Log.Error("dropping message without dlq", zap.ByteString("key", m.Key), zap.Error(cause))
		return nil
	}
	dl := DeadLetter{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       string(m.Key),
		Payload:   string(m.Value),
		Error:     cause.Error(),
		Attempts:  attempts,
		FailedAt:  time.Now(),
	}
	if err := kafka.WriteJSON(ctx, p.DLQ, string(m.Key), dl); err != nil {
		p.fail("dlq")
		return err
	}
	p.Log.Warn("message sent to dlq", zap.ByteString("key", m.Key), zap.Error(cause))
	return nil
}

func (p *Processor) handleBackoff() time.Duration {
	if p.Redo > 0 {
		return p.Redo
	}
	return time.Second
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// retryable: só falhas de infraestrutura; erros de domínio não mudam com nova tentativa
func retryable(err error) bool {
	return errors.Is(err, ledger.ErrRemoteFailure)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
