package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/settlement/service"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

type mockSettler struct{ mock.Mock }

func (m *mockSettler) SettleMatch(ctx context.Context, matchID string) (*service.Result, error) {
	args := m.Called(ctx, matchID)
	res, _ := args.Get(0).(*service.Result)
	return res, args.Error(1)
}

type fakeWriter struct {
	mu       sync.Mutex
	msgs     []kafkago.Message
	err      error
	failNext int // quantas escritas seguintes falham
	attempts int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts++
	if w.err != nil {
		return w.err
	}
	if w.failNext > 0 {
		w.failNext--
		return errors.New("leader not available")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// fakeReader entrega as mensagens em ordem e cancela o contexto quando acabam
type fakeReader struct {
	msgs      []kafkago.Message
	fetched   []int64
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	r.fetched = append(r.fetched, m.Offset)
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func message(t *testing.T, offset int64, matchID string) kafkago.Message {
	t.Helper()
	b, err := json.Marshal(events.MatchCompleted{MatchID: matchID, Status: "completed", Winner: "team_a", Ts: time.Now()})
	require.NoError(t, err)
	return kafkago.Message{Topic: "match_completed", Offset: offset, Key: []byte(matchID), Value: b}
}

func newProcessor(s Settler, dlq *fakeWriter) *Processor {
	return &Processor{Log: zap.NewNop(), Settler: s, DLQ: dlq, Backoff: time.Millisecond}
}

func TestHandle_Settles(t *testing.T) {
	s := new(mockSettler)
	s.On("SettleMatch", mock.Anything, "m1").Return(&service.Result{MatchID: "m1", Won: 2}, nil).Once()
	dlq := &fakeWriter{}
	p := newProcessor(s, dlq)
	settled := 0
	p.OnSettled = func() { settled++ }

	require.NoError(t, p.Handle(context.Background(), message(t, 1, "m1")))
	assert.Equal(t, 1, settled)
	assert.Empty(t, dlq.msgs)
	s.AssertExpectations(t)
}

func TestHandle_RetriesRemoteFailureThenDLQ(t *testing.T) {
	s := new(mockSettler)
	s.On("SettleMatch", mock.Anything, "m1").Return(nil, ledger.Remote("lock match", errors.New("conn reset")))
	dlq := &fakeWriter{}
	p := newProcessor(s, dlq)
	var stages []string
	p.OnError = func(stage string) { stages = append(stages, stage) }

	require.NoError(t, p.Handle(context.Background(), message(t, 7, "m1")))
	s.AssertNumberOfCalls(t, "SettleMatch", 4)
	require.Len(t, dlq.msgs, 1)

	var dl DeadLetter
	require.NoError(t, json.Unmarshal(dlq.msgs[0].Value, &dl))
	assert.Equal(t, int64(7), dl.Offset)
	assert.Equal(t, 4, dl.Attempts)
	assert.Contains(t, dl.Error, "conn reset")
	assert.Equal(t, []string{"settle"}, stages)
}

func TestHandle_RecoversWithinRetries(t *testing.T) {
	s := new(mockSettler)
	s.On("SettleMatch", mock.Anything, "m1").Return(nil, ledger.Remote("commit", errors.New("timeout"))).Twice()
	s.On("SettleMatch", mock.Anything, "m1").Return(&service.Result{MatchID: "m1"}, nil).Once()
	dlq := &fakeWriter{}

	require.NoError(t, newProcessor(s, dlq).Handle(context.Background(), message(t, 1, "m1")))
	s.AssertNumberOfCalls(t, "SettleMatch", 3)
	assert.Empty(t, dlq.msgs)
}

func TestHandle_DomainErrorGoesStraightToDLQ(t *testing.T) {
	s := new(mockSettler)
	s.On("SettleMatch", mock.Anything, "m1").Return(nil, ledger.ErrInvalidStateTransition).Once()
	dlq := &fakeWriter{}

	require.NoError(t, newProcessor(s, dlq).Handle(context.Background(), message(t, 1, "m1")))
	s.AssertNumberOfCalls(t, "SettleMatch", 1)
	assert.Len(t, dlq.msgs, 1)
}

func TestHandle_BadPayload(t *testing.T) {
	s := new(mockSettler)
	dlq := &fakeWriter{}

	err := newProcessor(s, dlq).Handle(context.Background(), kafkago.Message{Value: []byte("{not json")})
	require.NoError(t, err)
	assert.Len(t, dlq.msgs, 1)
	s.AssertNotCalled(t, "SettleMatch", mock.Anything, mock.Anything)
}

func TestHandle_DLQFailureKeepsMessage(t *testing.T) {
	s := new(mockSettler)
	dlq := &fakeWriter{err: errors.New("broker down")}

	err := newProcessor(s, dlq).Handle(context.Background(), kafkago.Message{Value: []byte(`{}`)})
	assert.Error(t, err)
}

func TestRun_CommitsProcessedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := new(mockSettler)
	s.On("SettleMatch", mock.Anything, mock.Anything).Return(&service.Result{}, nil)
	r := &fakeReader{msgs: []kafkago.Message{message(t, 1, "m1"), message(t, 2, "m2")}, cancel: cancel}
	p := newProcessor(s, &fakeWriter{})
	p.Reader = r
	consumed := 0
	p.OnConsumed = func() { consumed++ }

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{1, 2}, r.committed)
	assert.Equal(t, 2, consumed)
}

func TestRun_RetriesSameMessageUntilHandled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := new(mockSettler)
	s.On("SettleMatch", mock.Anything, "m2").Return(&service.Result{}, nil).Once()
	dlq := &fakeWriter{failNext: 1}
	bad := kafkago.Message{Topic: "match_completed", Offset: 1, Value: []byte("{not json")}
	r := &fakeReader{msgs: []kafkago.Message{bad, message(t, 2, "m2")}, cancel: cancel}
	p := newProcessor(s, dlq)
	p.Reader = r
	p.Redo = time.Millisecond

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, dlq.attempts, "dlq write retried for the same offset")
	require.Len(t, dlq.msgs, 1)
	var dl DeadLetter
	require.NoError(t, json.Unmarshal(dlq.msgs[0].Value, &dl))
	assert.Equal(t, int64(1), dl.Offset)

	assert.Equal(t, []int64{1, 2}, r.fetched)
	assert.Equal(t, []int64{1, 2}, r.committed)
	s.AssertExpectations(t)
}

func TestRun_StopsRetryingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	dlq := &fakeWriter{err: errors.New("broker down")}
	r := &fakeReader{msgs: []kafkago.Message{{Offset: 5, Value: []byte("{not json")}}, cancel: cancel}
	p := newProcessor(new(mockSettler), dlq)
	p.Reader = r
	p.Redo = time.Millisecond

	time.AfterFunc(20*time.Millisecond, cancel)
	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.committed)
	assert.Equal(t, []int64{5}, r.fetched)
	assert.GreaterOrEqual(t, dlq.attempts, 2)
}
